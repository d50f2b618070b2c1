package gsheets

import (
	"fmt"
	"strings"
	"time"

	"invoice-intake/internal/invoice"
	"invoice-intake/internal/sinks"
	"invoice-intake/internal/submission"
)

const notApplicable = "N/A"

// column is one spreadsheet column: its header and how a cell is derived from an entry.
type column struct {
	header string
	value  func(e sinks.Entry, loc *time.Location) string
}

var columns = []column{
	{"Timestamp", func(e sinks.Entry, loc *time.Location) string {
		return e.Record.ReceivedAt.In(loc).Format("02/01/2006, 15:04:05")
	}},
	{"Name", text(func(r *submission.Record) string { return r.Name })},
	{"Email", text(func(r *submission.Record) string { return r.Email })},
	{"Discord", text(func(r *submission.Record) string { return r.Discord })},
	{"TikTok Account(s)", text(func(r *submission.Record) string { return strings.Join(r.Handles(), ", ") })},
	{"GMV Generated (Previous Period)", text(func(r *submission.Record) string {
		if r.DeclaredGMV == "" {
			return ""
		}
		return "£" + r.DeclaredGMV
	})},
	{"No. of Videos Posted During Period", text(func(r *submission.Record) string {
		if r.FirstTimeRetainer != nil && *r.FirstTimeRetainer {
			return "N/A (New Creator)"
		}
		return r.VideoCount
	})},
	{"Retainer Tier", text(tierDisplay)},
	{"Invoice Amount", func(e sinks.Entry, _ *time.Location) string {
		switch {
		case e.Computation != nil:
			return invoice.FormatGBP(e.Computation.Net)
		case e.Record.RewardAmount != "":
			return "£" + e.Record.RewardAmount
		}
		return notApplicable
	}},
	{"Invoice PDF", func(e sinks.Entry, _ *time.Location) string {
		return orNA(e.Links.InvoiceURL())
	}},
	{"Screenshots", func(e sinks.Entry, _ *time.Location) string {
		return orNA(strings.Join(e.Links.ScreenshotURLs(), ", "))
	}},
	{"Submission Type", text(func(r *submission.Record) string { return r.SubmissionType.Label() })},
	{"VAT Status", text(vatDisplay)},
	{"Address", text(func(r *submission.Record) string { return r.Address })},
	{"Bank Details", text(bankDisplay)},
}

func text(f func(r *submission.Record) string) func(sinks.Entry, *time.Location) string {
	return func(e sinks.Entry, _ *time.Location) string {
		return orNA(f(e.Record))
	}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notApplicable
	}
	return s
}

func tierDisplay(r *submission.Record) string {
	if r.Tier == nil {
		return ""
	}
	return fmt.Sprintf("%s £%s %d videos (%s %s GMV)",
		r.Tier.Name, r.Tier.Fee.String(), r.Tier.Videos, r.Tier.GMVRange, r.Brand.DisplayName)
}

func vatDisplay(r *submission.Record) string {
	if r.SubmissionType != submission.Business {
		return ""
	}
	if r.VATRegistered != "yes" {
		return "Not VAT Registered"
	}
	number := r.VATNumber
	if number == "" {
		number = "No VAT Number"
	}
	return "VAT Registered (" + number + ")"
}

func bankDisplay(r *submission.Record) string {
	if r.Bank.AccountName == "" {
		return ""
	}
	return fmt.Sprintf("%s, Acc: %s, Sort: %s",
		r.Bank.AccountName, orNA(r.Bank.AccountNumber), orNA(r.Bank.SortCode))
}

// Headers is the fixed header row.
func Headers() []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.header
	}
	return out
}

// Row renders an entry in header order. Absent values are "N/A".
func Row(e sinks.Entry, loc *time.Location) []string {
	if loc == nil {
		loc = time.UTC
	}
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.value(e, loc)
	}
	return out
}

// lastColumn is the spreadsheet letter of the final column.
func lastColumn() string {
	return string(rune('A' + len(columns) - 1))
}
