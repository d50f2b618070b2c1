// Package intake runs one submission through normalization, invoice generation
// and the external sinks.
package intake

import (
	"context"
	stderrors "errors"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"invoice-intake/internal/common/errors"
	"invoice-intake/internal/common/logger"
	"invoice-intake/internal/common/metrics"
	"invoice-intake/internal/common/observability"
	"invoice-intake/internal/invoice"
	"invoice-intake/internal/sinks"
	"invoice-intake/internal/submission"
)

const (
	SourceHTTP   = "http"
	SourceWorker = "zeebe"
)

// Sink names used in logs and metrics.
const (
	sinkUpload = "upload"
	sinkSheet  = "sheet"
	sinkRecord = "record"
	sinkNotify = "notify"
)

type DocumentRenderer interface {
	Render(rec *submission.Record, comp *invoice.Computation) ([]byte, error)
}

// Dependencies are constructed once at startup. Uploader, Sheets and Notifier may be nil.
type Dependencies struct {
	Normalizer    *submission.Normalizer
	Calculator    *invoice.Calculator
	Renderer      DocumentRenderer
	Uploader      sinks.Uploader
	Sheets        sinks.SheetAppender
	Records       sinks.RecordCreator
	Notifier      sinks.Notifier
	Observability *observability.Observability
	Logger        logger.Logger
}

type Timeouts struct {
	Upload time.Duration
	Sheets time.Duration
	Record time.Duration
	Notify time.Duration
}

type Options struct {
	UploadConcurrency int
	Timeouts          Timeouts
}

type Service struct {
	deps Dependencies
	opts Options
}

func NewService(deps Dependencies, opts Options) *Service {
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	if opts.UploadConcurrency < 1 {
		opts.UploadConcurrency = 1
	}
	t := &opts.Timeouts
	for _, d := range []*time.Duration{&t.Upload, &t.Sheets, &t.Record, &t.Notify} {
		if *d <= 0 {
			*d = 30 * time.Second
		}
	}
	return &Service{deps: deps, opts: opts}
}

// Process handles one submission. Validation errors are returned before any sink
// is called. Upload, spreadsheet and notification failures are logged and skipped;
// only a record-create failure is returned.
func (s *Service) Process(ctx context.Context, source string, raw submission.Raw) (*Result, error) {
	start := time.Now()
	metrics.SubmissionsActive.WithLabelValues(source).Inc()
	defer func() {
		metrics.SubmissionsActive.WithLabelValues(source).Dec()
		metrics.SubmissionDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	}()

	res, err := s.process(ctx, raw)
	if err != nil {
		code := errors.CodeOf(err)
		outcome := "failed"
		if errors.IsValidation(code) {
			outcome = "rejected"
		}
		metrics.SubmissionsTotal.WithLabelValues(source, outcome).Inc()
		metrics.SubmissionsFailed.WithLabelValues(source, string(code)).Inc()
		return nil, err
	}
	metrics.SubmissionsTotal.WithLabelValues(source, "created").Inc()
	return res, nil
}

func (s *Service) process(ctx context.Context, raw submission.Raw) (*Result, error) {
	log := logger.FromContext(ctx, s.deps.Logger)

	rec, err := s.deps.Normalizer.Normalize(raw)
	if err != nil {
		log.Info("Submission rejected", map[string]interface{}{"error": err})
		return nil, err
	}
	log = log.WithFields(map[string]interface{}{
		"submitter":   rec.Name,
		"brand":       rec.Brand.Key,
		"invoiceType": string(rec.InvoiceType),
	})

	// Computed before any write; a missing amount only disables generation.
	comp, err := s.deps.Calculator.Compute(rec)
	if err != nil {
		if !invoice.IsNotComputable(err) {
			return nil, err
		}
		comp = nil
	}

	res := &Result{Success: true, Message: "Invoice submitted successfully", InvoiceTitle: rec.InvoiceTitle()}
	links := sinks.Links{}

	links.Invoice = s.storeInvoice(ctx, log, rec, comp, res)
	links.Screenshots = s.storeScreenshots(ctx, log, rec)
	res.ScreenshotsUploaded = len(links.Screenshots)
	res.ScreenshotURLs = links.ScreenshotURLs()

	entry := sinks.Entry{Record: rec, Computation: comp, Links: links}

	if s.deps.Sheets != nil {
		err := s.call(ctx, sinkSheet, s.opts.Timeouts.Sheets, func(ctx context.Context) error {
			ref, err := s.deps.Sheets.Append(ctx, entry)
			if err != nil {
				return err
			}
			res.Spreadsheet = ref
			return nil
		})
		if err != nil {
			log.Warn("Spreadsheet append failed", map[string]interface{}{
				"sink":  sinkSheet,
				"error": errors.NewSheetAppendFailedError(err),
			})
		}
	}

	var ref *sinks.RecordRef
	err = s.call(ctx, sinkRecord, s.opts.Timeouts.Record, func(ctx context.Context) error {
		var err error
		ref, err = s.deps.Records.Create(ctx, entry)
		if err == nil && ref == nil {
			err = stderrors.New("record creator returned no record")
		}
		return err
	})
	if err != nil {
		log.Error("Record create failed", map[string]interface{}{"sink": sinkRecord, "error": err})
		s.alert(ctx, log, rec, links, err)
		return nil, errors.NewRecordCreateFailedError(err)
	}
	res.RecordID = ref.ID
	res.RecordURL = ref.URL

	s.receipt(ctx, log, rec, comp, ref)

	log.Info("Submission recorded", map[string]interface{}{
		"recordId":            ref.ID,
		"invoiceGenerated":    res.InvoiceGenerated,
		"screenshotsUploaded": res.ScreenshotsUploaded,
		"spreadsheet":         res.Spreadsheet != nil,
	})
	return res, nil
}

// storeInvoice renders or forwards the invoice document and uploads it.
func (s *Service) storeInvoice(ctx context.Context, log logger.Logger, rec *submission.Record, comp *invoice.Computation, res *Result) *sinks.UploadResult {
	var req sinks.UploadRequest
	folder := folderHint(rec, false)

	switch rec.InvoiceMode {
	case submission.ModeGenerate:
		if comp == nil {
			log.Info("Invoice generation skipped, no computable amount", nil)
			return nil
		}
		doc, err := s.deps.Renderer.Render(rec, comp)
		if err != nil {
			log.Warn("Invoice rendering failed", map[string]interface{}{"error": errors.NewRenderFailedError(err)})
			return nil
		}
		res.InvoiceGenerated = true
		res.Invoice = summarize(comp)
		req = sinks.UploadRequest{
			Data:        doc,
			Filename:    comp.Filename(),
			ContentType: "application/pdf",
			Kind:        sinks.KindDocument,
			Folder:      folder,
		}
	case submission.ModeUpload:
		if rec.InvoiceDocument == nil {
			log.Warn("Invoice upload requested without an invoice document", nil)
			return nil
		}
		doc := rec.InvoiceDocument
		req = sinks.UploadRequest{
			Data:        doc.Data,
			Filename:    uploadedInvoiceName(rec),
			ContentType: contentTypeOr(doc.ContentType, "application/pdf"),
			Kind:        sinks.KindDocument,
			Folder:      folder,
		}
	default:
		return nil
	}

	out := s.upload(ctx, log, req)
	if out != nil {
		res.InvoiceUploaded = true
		if res.Invoice != nil {
			res.Invoice.URL = out.URL
		}
	}
	return out
}

// storeScreenshots uploads every screenshot with bounded concurrency. Failed uploads
// are dropped; the rest keep their submitted order.
func (s *Service) storeScreenshots(ctx context.Context, log logger.Logger, rec *submission.Record) []sinks.UploadResult {
	if len(rec.Screenshots) == 0 || s.deps.Uploader == nil {
		return nil
	}

	results := make([]*sinks.UploadResult, len(rec.Screenshots))
	var g errgroup.Group
	g.SetLimit(s.opts.UploadConcurrency)

	for i, shot := range rec.Screenshots {
		g.Go(func() error {
			results[i] = s.upload(ctx, log, sinks.UploadRequest{
				Data:        shot.Data,
				Filename:    screenshotName(rec, i, shot),
				ContentType: contentTypeOr(shot.ContentType, "image/png"),
				Kind:        sinks.KindFor(shot.ContentType),
				Folder:      folderHint(rec, true),
			})
			return nil
		})
	}
	_ = g.Wait()

	out := make([]sinks.UploadResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

func (s *Service) upload(ctx context.Context, log logger.Logger, req sinks.UploadRequest) *sinks.UploadResult {
	if s.deps.Uploader == nil {
		return nil
	}
	var out *sinks.UploadResult
	err := s.call(ctx, sinkUpload, s.opts.Timeouts.Upload, func(ctx context.Context) error {
		var err error
		out, err = s.deps.Uploader.Upload(ctx, req)
		return err
	})
	if err != nil {
		log.Warn("Upload failed", map[string]interface{}{
			"sink":  sinkUpload,
			"error": errors.NewUploadFailedError(req.Filename, err),
		})
		return nil
	}
	return out
}

func (s *Service) alert(ctx context.Context, log logger.Logger, rec *submission.Record, links sinks.Links, cause error) {
	if s.deps.Notifier == nil {
		return
	}
	orphaned := links.ScreenshotURLs()
	if u := links.InvoiceURL(); u != "" {
		orphaned = append([]string{u}, orphaned...)
	}
	if len(orphaned) == 0 {
		return
	}
	err := s.call(ctx, sinkNotify, s.opts.Timeouts.Notify, func(ctx context.Context) error {
		return s.deps.Notifier.SendAlert(ctx, sinks.Alert{
			Submitter: rec.Name,
			Title:     rec.InvoiceTitle(),
			Reason:    cause.Error(),
			Orphaned:  orphaned,
		})
	})
	if err != nil {
		log.Warn("Alert failed", map[string]interface{}{"sink": sinkNotify, "error": err})
	}
}

func (s *Service) receipt(ctx context.Context, log logger.Logger, rec *submission.Record, comp *invoice.Computation, ref *sinks.RecordRef) {
	if s.deps.Notifier == nil || rec.Email == "" {
		return
	}
	r := sinks.Receipt{
		To:           rec.Email,
		Name:         rec.Name,
		InvoiceTitle: rec.InvoiceTitle(),
		RecordID:     ref.ID,
	}
	if comp != nil && rec.InvoiceMode == submission.ModeGenerate {
		r.InvoiceNumber = comp.Number
	}
	err := s.call(ctx, sinkNotify, s.opts.Timeouts.Notify, func(ctx context.Context) error {
		return s.deps.Notifier.SendReceipt(ctx, r)
	})
	if err != nil {
		log.Warn("Receipt failed", map[string]interface{}{"sink": sinkNotify, "error": err})
	}
}

// call runs fn under the sink's timeout and records the outcome.
func (s *Service) call(ctx context.Context, sink string, timeout time.Duration, fn func(context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := fn(cctx)

	result := "success"
	if err != nil {
		result = "failure"
		if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(cctx.Err(), context.DeadlineExceeded) {
			result = "timeout"
			err = errors.NewSinkTimeoutError(sink, err)
		}
	}
	metrics.SinkCalls.WithLabelValues(sink, result).Inc()
	s.deps.Observability.RecordSinkCall(ctx, sink, time.Since(start), result)
	return err
}

func folderHint(rec *submission.Record, screenshots bool) sinks.FolderHint {
	return sinks.FolderHint{
		Brand:       rec.Brand.DisplayName,
		Month:       sinks.MonthFolder(rec.ReceivedAt),
		InvoiceType: rec.InvoiceType.FolderName(),
		Screenshots: screenshots,
	}
}

func dashed(name string) string {
	return strings.Join(strings.Fields(name), "-")
}

func uploadedInvoiceName(rec *submission.Record) string {
	return fmt.Sprintf("%s_%s_%d.pdf", dashed(rec.Name), rec.InvoiceType.ShortLabel(), rec.ReceivedAt.UnixMilli())
}

func screenshotName(rec *submission.Record, i int, a submission.Attachment) string {
	ext := path.Ext(a.Filename)
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(a.ContentType); len(exts) > 0 {
			ext = exts[0]
		} else {
			ext = ".png"
		}
	}
	return fmt.Sprintf("%s_screenshot_%d_%d%s", dashed(rec.Name), i+1, rec.ReceivedAt.UnixMilli(), ext)
}

func contentTypeOr(ct, fallback string) string {
	if ct == "" {
		return fallback
	}
	return ct
}
