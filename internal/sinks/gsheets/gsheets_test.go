package gsheets

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-intake/internal/catalog"
	"invoice-intake/internal/common/logger"
	"invoice-intake/internal/invoice"
	"invoice-intake/internal/sinks"
	"invoice-intake/internal/sinks/gdrive"
	"invoice-intake/internal/submission"
)

var receivedAt = time.Date(2024, time.November, 15, 9, 30, 5, 0, time.UTC)

func retainerEntry() sinks.Entry {
	brand := catalog.Default().Lookup("dr-dent")
	tier, _ := brand.Tier("tier1")
	first := false
	return sinks.Entry{
		Record: &submission.Record{
			Brand:             brand,
			Name:              "Jane Doe",
			Email:             "jane@example.com",
			Discord:           "jane#1",
			SubmissionType:    submission.Business,
			VATRegistered:     "yes",
			VATNumber:         "GB123456789",
			InvoiceType:       submission.Retainer,
			Period:            "November 2024",
			TierKey:           "tier1",
			Tier:              &tier,
			FirstTimeRetainer: &first,
			VideoCount:        "15",
			DeclaredGMV:       "7500",
			Bank:              submission.BankDetails{AccountName: "J Doe", AccountNumber: "12345678"},
			Address:           "1 High Street",
			Accounts:          []submission.SocialAccount{{Handle: "@jane"}, {Handle: "@jane.two"}},
			ReceivedAt:        receivedAt,
		},
		Computation: &invoice.Computation{Net: decimal.NewFromInt(450)},
		Links: sinks.Links{
			Invoice:     &sinks.UploadResult{URL: "https://files/invoice.pdf"},
			Screenshots: []sinks.UploadResult{{URL: "https://files/a.png"}, {URL: "https://files/b.png"}},
		},
	}
}

func TestHeaders(t *testing.T) {
	headers := Headers()
	require.Len(t, headers, 15)
	assert.Equal(t, "Timestamp", headers[0])
	assert.Equal(t, "Bank Details", headers[14])
	assert.Equal(t, "O", lastColumn())
}

func TestRow_Retainer(t *testing.T) {
	row := Row(retainerEntry(), time.UTC)

	assert.Equal(t, []string{
		"15/11/2024, 09:30:05",
		"Jane Doe",
		"jane@example.com",
		"jane#1",
		"@jane, @jane.two",
		"£7500",
		"15",
		"1st Tier £450 15 videos (5-10k Dr Dent GMV)",
		"£450.00",
		"https://files/invoice.pdf",
		"https://files/a.png, https://files/b.png",
		"Business",
		"VAT Registered (GB123456789)",
		"1 High Street",
		"J Doe, Acc: 12345678, Sort: N/A",
	}, row)
}

func TestRow_MinimalRewards(t *testing.T) {
	entry := sinks.Entry{Record: &submission.Record{
		Brand:          catalog.Default().Lookup("dr-dent"),
		Name:           "Sam",
		SubmissionType: submission.Individual,
		InvoiceType:    submission.Rewards,
		RewardAmount:   "120.50",
		ReceivedAt:     receivedAt,
	}}

	row := Row(entry, nil)
	assert.Equal(t, "Sam", row[1])
	for _, i := range []int{2, 3, 4, 5, 6, 7, 9, 10, 12, 13, 14} {
		assert.Equal(t, "N/A", row[i], "column %s", Headers()[i])
	}
	assert.Equal(t, "£120.50", row[8])
	assert.Equal(t, "Individual", row[11])
}

func TestRow_FirstTimeRetainerAndVAT(t *testing.T) {
	entry := retainerEntry()
	first := true
	entry.Record.FirstTimeRetainer = &first
	entry.Record.VATRegistered = "no"
	entry.Record.VATNumber = ""

	row := Row(entry, time.UTC)
	assert.Equal(t, "N/A (New Creator)", row[6])
	assert.Equal(t, "Not VAT Registered", row[12])

	entry.Record.VATRegistered = "yes"
	assert.Equal(t, "VAT Registered (No VAT Number)", Row(entry, time.UTC)[12])
}

func TestPeriodParts(t *testing.T) {
	month, year := periodParts("November 2024", receivedAt)
	assert.Equal(t, "November", month)
	assert.Equal(t, "2024", year)

	month, year = periodParts("", time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "March", month)
	assert.Equal(t, "2025", year)
}

type fakeSheets struct {
	appended  map[string][][]string
	written   map[string][]string
	prepared  []string
	appendErr error
}

func newFakeSheets() *fakeSheets {
	return &fakeSheets{appended: map[string][][]string{}, written: map[string][]string{}}
}

func (f *fakeSheets) FirstSheetID(context.Context, string) (int64, error) { return 0, nil }

func (f *fakeSheets) PrepareSheet(_ context.Context, id string, _ int64, title string) error {
	f.prepared = append(f.prepared, id+":"+title)
	return nil
}

func (f *fakeSheets) WriteRow(_ context.Context, id, rng string, row []string) error {
	f.written[id+"|"+rng] = row
	return nil
}

func (f *fakeSheets) AppendRow(_ context.Context, id, rng string, row []string) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	key := id + "|" + rng
	f.appended[key] = append(f.appended[key], row)
	return nil
}

type fakeDrive struct {
	files   map[string]gdrive.File
	created int
	shared  []string
}

func (d *fakeDrive) FindFile(_ context.Context, name, mimeType, parentID string) (string, bool, error) {
	for id, f := range d.files {
		if f.Name == name && f.MimeType == mimeType && f.Parents[0] == parentID {
			return id, true, nil
		}
	}
	return "", false, nil
}

func (d *fakeDrive) CreateFile(_ context.Context, meta gdrive.File, _ []byte) (*gdrive.File, error) {
	d.created++
	meta.ID = fmt.Sprintf("sheet-%d", d.created)
	d.files[meta.ID] = meta
	return &meta, nil
}

func (d *fakeDrive) ShareWithAnyone(_ context.Context, id string) error {
	d.shared = append(d.shared, id)
	return nil
}

func TestAppend_FixedSpreadsheet(t *testing.T) {
	api := newFakeSheets()
	app := NewAppender(api, nil, Options{SpreadsheetID: "fixed"}, logger.NewTestLogger(t))

	ref, err := app.Append(context.Background(), retainerEntry())
	require.NoError(t, err)

	assert.Equal(t, &sinks.SheetRef{SpreadsheetID: "fixed", Range: "Responses!A:O", Month: "November", Year: "2024"}, ref)
	require.Len(t, api.appended["fixed|Responses!A:O"], 1)
	assert.Empty(t, api.prepared)
}

func TestAppend_MonthlySpreadsheetCreatedOnce(t *testing.T) {
	api := newFakeSheets()
	drive := &fakeDrive{files: map[string]gdrive.File{}}
	app := NewAppender(api, drive, Options{RootFolderID: "root"}, logger.NewTestLogger(t))

	ref, err := app.Append(context.Background(), retainerEntry())
	require.NoError(t, err)
	_, err = app.Append(context.Background(), retainerEntry())
	require.NoError(t, err)

	assert.Equal(t, 1, drive.created)
	created := drive.files[ref.SpreadsheetID]
	assert.Equal(t, "Dr Dent Retainer Invoice Submission November 2024 (Responses)", created.Name)
	assert.Equal(t, gdrive.SpreadsheetMimeType, created.MimeType)
	assert.Equal(t, []string{ref.SpreadsheetID + ":Responses"}, api.prepared)
	assert.Equal(t, Headers(), api.written[ref.SpreadsheetID+"|Responses!A1:O1"])
	assert.Equal(t, []string{ref.SpreadsheetID}, drive.shared)
	assert.Len(t, api.appended[ref.SpreadsheetID+"|Responses!A:O"], 2)
}

func TestAppend_NoTarget(t *testing.T) {
	app := NewAppender(newFakeSheets(), nil, Options{}, nil)
	_, err := app.Append(context.Background(), retainerEntry())
	assert.ErrorContains(t, err, "no spreadsheet id configured")
}

func TestAppend_PropagatesAppendError(t *testing.T) {
	api := newFakeSheets()
	api.appendErr = errors.New("rate limited")

	_, err := NewAppender(api, nil, Options{SpreadsheetID: "fixed"}, nil).Append(context.Background(), retainerEntry())
	assert.ErrorContains(t, err, "rate limited")
}
