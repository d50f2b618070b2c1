// Package sinks defines the external write targets of a submission: attachment
// storage, the monthly spreadsheet and the record store.
package sinks

import (
	"context"
	"mime"
	"path"
	"strings"
	"time"

	"invoice-intake/internal/invoice"
	"invoice-intake/internal/submission"
)

// ContentKind selects how a storage provider treats an uploaded file.
type ContentKind string

const (
	KindDocument ContentKind = "document"
	KindImage    ContentKind = "image"
)

// KindFor classifies a MIME type. Anything that is not an image is stored as a document.
func KindFor(contentType string) ContentKind {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(contentType))
	}
	if strings.HasPrefix(mt, "image/") {
		return KindImage
	}
	return KindDocument
}

// FolderHint tells folder-aware providers where a file belongs. Flat providers ignore it.
type FolderHint struct {
	Brand       string
	Month       string
	InvoiceType string
	Screenshots bool
}

// MonthFolder names the folder for the month t falls in, e.g. "2024-11 November".
func MonthFolder(t time.Time) string {
	return t.Format("2006-01 January")
}

// Segments is the folder path below the storage root.
func (h FolderHint) Segments() []string {
	out := []string{"Invoices"}
	for _, s := range []string{h.Brand, h.Month, h.InvoiceType} {
		if s != "" {
			out = append(out, s)
		}
	}
	if h.Screenshots {
		out = append(out, "Screenshots")
	}
	return out
}

type UploadRequest struct {
	Data        []byte
	Filename    string
	ContentType string
	Kind        ContentKind
	Folder      FolderHint
}

// Basename is the filename without its extension.
func (r UploadRequest) Basename() string {
	return strings.TrimSuffix(r.Filename, path.Ext(r.Filename))
}

// UploadResult is where a stored file can be fetched from.
type UploadResult struct {
	URL        string `json:"url"`
	ProviderID string `json:"providerId,omitempty"`
	Filename   string `json:"filename"`
}

// Uploader stores a single file and returns a public URL for it.
type Uploader interface {
	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)
}

// Links are the stored locations produced earlier in the pipeline.
type Links struct {
	Invoice     *UploadResult
	Screenshots []UploadResult
}

// InvoiceURL is empty when no invoice was stored.
func (l Links) InvoiceURL() string {
	if l.Invoice == nil {
		return ""
	}
	return l.Invoice.URL
}

func (l Links) ScreenshotURLs() []string {
	out := make([]string, 0, len(l.Screenshots))
	for _, s := range l.Screenshots {
		out = append(out, s.URL)
	}
	return out
}

// Entry is everything a spreadsheet row or record is built from.
// Computation is nil when no amount could be derived.
type Entry struct {
	Record      *submission.Record
	Computation *invoice.Computation
	Links       Links
}

// SheetRef identifies the spreadsheet a row was appended to.
type SheetRef struct {
	SpreadsheetID string `json:"spreadsheetId"`
	Range         string `json:"range,omitempty"`
	Month         string `json:"month"`
	Year          string `json:"year"`
}

// SheetAppender appends one row per submission.
type SheetAppender interface {
	Append(ctx context.Context, entry Entry) (*SheetRef, error)
}

// RecordRef identifies the created record.
type RecordRef struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

// RecordCreator creates the authoritative record for a submission.
type RecordCreator interface {
	Create(ctx context.Context, entry Entry) (*RecordRef, error)
}

// Receipt is sent to the submitter once the record exists.
type Receipt struct {
	To            string
	Name          string
	InvoiceTitle  string
	InvoiceNumber string
	RecordID      string
}

// Alert reports a record failure that left uploaded files behind.
type Alert struct {
	Submitter string
	Title     string
	Reason    string
	Orphaned  []string
}

// Notifier is best-effort: callers log and ignore its errors.
type Notifier interface {
	SendReceipt(ctx context.Context, r Receipt) error
	SendAlert(ctx context.Context, a Alert) error
}
