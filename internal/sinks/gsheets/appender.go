package gsheets

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"invoice-intake/internal/common/cache"
	"invoice-intake/internal/common/logger"
	"invoice-intake/internal/sinks"
	"invoice-intake/internal/sinks/gdrive"
)

type Options struct {
	// SpreadsheetID pins every row to one spreadsheet. When empty a spreadsheet per
	// brand, invoice type and month is found or created in RootFolderID.
	SpreadsheetID string
	SheetName     string
	RootFolderID  string
	Cache         cache.Store
	Location      *time.Location
}

type Appender struct {
	api    API
	drive  gdrive.API
	opts   Options
	now    func() time.Time
	logger logger.Logger

	mu sync.Mutex
}

func NewAppender(api API, drive gdrive.API, opts Options, log logger.Logger) *Appender {
	if opts.SheetName == "" {
		opts.SheetName = "Responses"
	}
	if opts.Location == nil {
		opts.Location = londonOrUTC()
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Appender{api: api, drive: drive, opts: opts, now: time.Now, logger: log}
}

func londonOrUTC() *time.Location {
	loc, err := time.LoadLocation("Europe/London")
	if err != nil {
		return time.UTC
	}
	return loc
}

// SpreadsheetTitle is the name of the monthly workbook.
func SpreadsheetTitle(brand, invoiceType, month, year string) string {
	return fmt.Sprintf("%s %s Invoice Submission %s %s (Responses)", brand, invoiceType, month, year)
}

// periodParts splits "November 2024"; missing parts come from at.
func periodParts(period string, at time.Time) (string, string) {
	month, year := at.Format("January"), at.Format("2006")
	fields := strings.Fields(period)
	if len(fields) > 0 {
		month = fields[0]
	}
	if len(fields) > 1 {
		year = fields[1]
	}
	return month, year
}

func (a *Appender) Append(ctx context.Context, entry sinks.Entry) (*sinks.SheetRef, error) {
	rec := entry.Record
	at := rec.ReceivedAt
	if at.IsZero() {
		at = a.now()
	}
	month, year := periodParts(rec.Period, at)

	id := a.opts.SpreadsheetID
	if id == "" {
		var err error
		title := SpreadsheetTitle(rec.Brand.DisplayName, rec.InvoiceType.ShortLabel(), month, year)
		if id, err = a.monthly(ctx, title); err != nil {
			return nil, err
		}
	}

	rng := fmt.Sprintf("%s!A:%s", a.opts.SheetName, lastColumn())
	if err := a.api.AppendRow(ctx, id, rng, Row(entry, a.opts.Location)); err != nil {
		return nil, err
	}

	a.logger.Info("Appended submission row", map[string]interface{}{
		"spreadsheetId": id,
		"month":         month,
		"year":          year,
	})
	return &sinks.SheetRef{SpreadsheetID: id, Range: rng, Month: month, Year: year}, nil
}

func (a *Appender) monthly(ctx context.Context, title string) (string, error) {
	if a.drive == nil || a.opts.RootFolderID == "" {
		return "", fmt.Errorf("no spreadsheet id configured and no drive folder to create %q in", title)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	key := "sheets:monthly:" + a.opts.RootFolderID + "/" + title
	if a.opts.Cache != nil {
		if id, ok, err := a.opts.Cache.Lookup(ctx, key); err == nil && ok {
			return id, nil
		}
	}

	id, found, err := a.drive.FindFile(ctx, title, gdrive.SpreadsheetMimeType, a.opts.RootFolderID)
	if err != nil {
		return "", err
	}
	if !found {
		if id, err = a.create(ctx, title); err != nil {
			return "", err
		}
	}

	if a.opts.Cache != nil {
		if err := a.opts.Cache.Remember(ctx, key, id); err != nil {
			a.logger.Warn("Spreadsheet cache write failed", map[string]interface{}{"key": key, "error": err})
		}
	}
	return id, nil
}

func (a *Appender) create(ctx context.Context, title string) (string, error) {
	file, err := a.drive.CreateFile(ctx, gdrive.File{
		Name:     title,
		MimeType: gdrive.SpreadsheetMimeType,
		Parents:  []string{a.opts.RootFolderID},
	}, nil)
	if err != nil {
		return "", fmt.Errorf("create spreadsheet %q: %w", title, err)
	}

	sheetID, err := a.api.FirstSheetID(ctx, file.ID)
	if err != nil {
		return "", err
	}
	if err := a.api.PrepareSheet(ctx, file.ID, sheetID, a.opts.SheetName); err != nil {
		return "", err
	}

	header := fmt.Sprintf("%s!A1:%s1", a.opts.SheetName, lastColumn())
	if err := a.api.WriteRow(ctx, file.ID, header, Headers()); err != nil {
		return "", err
	}

	if err := a.drive.ShareWithAnyone(ctx, file.ID); err != nil {
		a.logger.Warn("Failed to share spreadsheet", map[string]interface{}{"spreadsheetId": file.ID, "error": err})
	}

	a.logger.Info("Created monthly spreadsheet", map[string]interface{}{
		"spreadsheetId": file.ID,
		"title":         title,
	})
	return file.ID, nil
}
