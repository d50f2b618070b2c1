// Package processsubmission runs the intake pipeline as a Zeebe job worker.
package processsubmission

import (
	"context"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"invoice-intake/internal/common/config"
	"invoice-intake/internal/common/errors"
	"invoice-intake/internal/common/logger"
	"invoice-intake/internal/intake"
	"invoice-intake/internal/submission"
)

const TaskType = "invoice.submission.process"

// ConfigKey is this worker's entry under workers.*; config keys cannot contain dots.
const ConfigKey = "process-submission"

// attachmentsVariable holds inline files; every other variable is a form field.
const attachmentsVariable = "attachments"

var (
	errTimeout = stderrors.New("timeout must be positive")
	errMaxJobs = stderrors.New("max_jobs_active must be positive")
)

// Processor runs one submission through the pipeline.
type Processor interface {
	Process(ctx context.Context, source string, raw submission.Raw) (*intake.Result, error)
}

type Handler struct {
	config    *Config
	processor Processor
	errors    *errors.ErrorHandler
	logger    logger.Logger
}

type HandlerOptions struct {
	AppConfig    *config.Config
	CustomConfig *Config
	Processor    Processor
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Processor == nil {
		return nil, fmt.Errorf("invalid configuration for %s: processor is required", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:    cfg,
		processor: opts.Processor,
		errors:    errors.NewErrorHandler(log),
		logger:    log,
	}, nil
}

func createConfigFromAppConfig(appCfg *config.Config, custom *Config) *Config {
	if custom != nil {
		return custom
	}
	if appCfg == nil {
		return &Config{Enabled: true, MaxJobsActive: 5, Timeout: 60 * time.Second}
	}
	w := config.GetWorkerConfig(appCfg, ConfigKey)
	return &Config{
		Enabled:       w.Enabled,
		MaxJobsActive: w.MaxJobsActive,
		Timeout:       config.GetDuration(w.Timeout),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing invoice submission job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	raw, err := h.parseInput(job)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	res, err := h.Execute(ctx, raw)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromMap(res.Variables())
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{"error": err})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{"error": err})
	}
}

// Execute runs the pipeline for already-parsed variables.
func (h *Handler) Execute(ctx context.Context, raw submission.Raw) (*intake.Result, error) {
	logCtx := logger.IntoContext(ctx, h.logger)
	return h.processor.Process(logCtx, intake.SourceWorker, raw)
}

// parseInput splits the job variables into form fields and decoded attachments.
func (h *Handler) parseInput(job entities.Job) (submission.Raw, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return submission.Raw{}, errors.NewInvalidBodyError(err)
	}
	return parseVariables(variables)
}

func parseVariables(variables map[string]interface{}) (submission.Raw, error) {
	raw := submission.Raw{Fields: make(map[string]interface{}, len(variables))}
	for k, v := range variables {
		if k == attachmentsVariable {
			continue
		}
		raw.Fields[k] = v
	}

	encoded, ok := variables[attachmentsVariable]
	if !ok || encoded == nil {
		return raw, nil
	}

	// Round-trip through JSON to decode the generic map into typed attachments.
	buf, err := json.Marshal(encoded)
	if err != nil {
		return submission.Raw{}, errors.NewInvalidBodyError(err)
	}
	var files []AttachmentVariable
	if err := json.Unmarshal(buf, &files); err != nil {
		return submission.Raw{}, errors.NewInvalidFieldError(attachmentsVariable, "must be a list of files")
	}

	for i, f := range files {
		data, err := base64.StdEncoding.DecodeString(f.Content)
		if err != nil {
			return submission.Raw{}, errors.NewInvalidFieldError(attachmentsVariable,
				fmt.Sprintf("file %d is not valid base64", i+1))
		}
		ct := f.ContentType
		if ct == "" {
			ct = http.DetectContentType(data)
		}
		raw.Attachments = append(raw.Attachments, submission.Attachment{
			FieldName:   f.FieldName,
			Filename:    f.Filename,
			ContentType: ct,
			Data:        data,
		})
	}
	return raw, nil
}
