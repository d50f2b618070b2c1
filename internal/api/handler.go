package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"invoice-intake/internal/catalog"
	"invoice-intake/internal/common/errors"
	"invoice-intake/internal/common/logger"
	"invoice-intake/internal/intake"
	"invoice-intake/internal/submission"
)

// Processor runs one submission through the pipeline.
type Processor interface {
	Process(ctx context.Context, source string, raw submission.Raw) (*intake.Result, error)
}

// ReadinessCheck reports whether a dependency is reachable.
type ReadinessCheck func(ctx context.Context) error

// Handler serves the submission, catalog and health endpoints.
type Handler struct {
	processor Processor
	catalog   *catalog.Catalog
	limits    Limits
	checks    map[string]ReadinessCheck
	logger    logger.Logger
}

func NewHandler(processor Processor, cat *catalog.Catalog, limits Limits, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Handler{
		processor: processor,
		catalog:   cat,
		limits:    limits,
		checks:    map[string]ReadinessCheck{},
		logger:    log,
	}
}

// AddCheck registers a dependency probed by /ready.
func (h *Handler) AddCheck(name string, check ReadinessCheck) {
	h.checks[name] = check
}

// SubmitInvoice accepts POST submissions. Preflight is answered by the CORS middleware;
// a bare OPTIONS without preflight headers still gets an empty 204.
func (h *Handler) SubmitInvoice(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	default:
		w.Header().Set("Allow", "POST, OPTIONS")
		errors.WriteError(w, errors.NewMethodNotAllowedError(r.Method))
		return
	}

	log := logger.FromContext(r.Context(), h.logger)

	raw, err := parseRequest(w, r, h.limits)
	if err != nil {
		log.Warn("Rejected request body", map[string]interface{}{"error": err.Error()})
		errors.WriteError(w, err)
		return
	}

	res, err := h.processor.Process(r.Context(), intake.SourceHTTP, raw)
	if err != nil {
		errors.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type brandSummary struct {
	Key   string                   `json:"key"`
	Name  string                   `json:"name"`
	Tiers []catalog.TierDefinition `json:"tiers"`
}

func (h *Handler) ListBrands(w http.ResponseWriter, r *http.Request) {
	brands := h.catalog.Brands()
	out := make([]brandSummary, 0, len(brands))
	for _, b := range brands {
		out = append(out, brandSummary{Key: b.Key, Name: b.DisplayName, Tiers: b.Tiers})
	}
	writeJSON(w, http.StatusOK, out)
}

// GetBrand falls back to the default brand for unknown keys.
func (h *Handler) GetBrand(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Lookup(chi.URLParam(r, "key")))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "OK",
		"message": "Server is running",
	})
}

// Ready probes every registered dependency with a short deadline.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn("Readiness check failed", map[string]interface{}{"check": name, "error": err.Error()})
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	body := map[string]interface{}{"ready": status == http.StatusOK, "checks": results}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
