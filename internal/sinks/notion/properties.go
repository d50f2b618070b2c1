package notion

import (
	"path"
	"strings"

	"github.com/jomei/notionapi"

	"invoice-intake/internal/sinks"
	"invoice-intake/internal/submission"
)

// Notion rejects rich text segments longer than this.
const maxTextLength = 2000

// field maps one database property. build returns false when the value is absent,
// in which case the property is left out of the request.
type field struct {
	name  string
	build func(e sinks.Entry, status string) (notionapi.Property, bool)
}

var fields = []field{
	{"Invoice Title", func(e sinks.Entry, _ string) (notionapi.Property, bool) {
		return notionapi.TitleProperty{Title: richText(e.Record.InvoiceTitle())}, true
	}},
	{"Status", func(_ sinks.Entry, status string) (notionapi.Property, bool) {
		if status == "" {
			return nil, false
		}
		return notionapi.StatusProperty{Status: notionapi.Status{Name: status}}, true
	}},
	{"Email", recordValue(func(r *submission.Record) (notionapi.Property, bool) {
		return notionapi.EmailProperty{Email: r.Email}, r.Email != ""
	})},
	{"Name 1", textOf(func(r *submission.Record) string { return r.Name })},
	{"Discord Username", textOf(func(r *submission.Record) string { return r.Discord })},
	{"Phone", recordValue(func(r *submission.Record) (notionapi.Property, bool) {
		return notionapi.PhoneNumberProperty{PhoneNumber: r.Phone}, r.Phone != ""
	})},
	{"Submission Type", selectOf(func(r *submission.Record) string { return r.SubmissionType.Label() })},
	{"Brand 1", selectOf(func(r *submission.Record) string { return r.Brand.DisplayName })},
	{"Invoice Type", selectOf(func(r *submission.Record) string { return r.InvoiceType.Label() })},
	{"Period", selectOf(func(r *submission.Record) string { return r.Period })},
	{"Selected Tier", selectOf(func(r *submission.Record) string {
		if r.InvoiceType != submission.Retainer || r.Tier == nil {
			return ""
		}
		return r.Tier.Label
	})},
	{"First Time Retainer", recordValue(func(r *submission.Record) (notionapi.Property, bool) {
		if r.FirstTimeRetainer == nil {
			return nil, false
		}
		return notionapi.CheckboxProperty{Checkbox: *r.FirstTimeRetainer}, true
	})},
	{"Reward Amount", numberOf(func(r *submission.Record) string { return r.RewardAmount })},
	{"Declared GMV", numberOf(func(r *submission.Record) string { return r.DeclaredGMV })},
	{"Video Count", numberOf(func(r *submission.Record) string { return r.VideoCount })},
	{"TikTok Handle", textOf(func(r *submission.Record) string { return strings.Join(r.Handles(), ", ") })},
	{"Address", textOf(func(r *submission.Record) string { return r.Address })},
	{"Bank Details", textOf(func(r *submission.Record) string { return r.Bank.Display() })},
	{"VAT Status", selectOf(func(r *submission.Record) string { return r.VATStatus() })},
	{"VAT Number", textOf(func(r *submission.Record) string {
		if r.SubmissionType != submission.Business {
			return ""
		}
		return r.VATNumber
	})},
	{"Screenshots", func(e sinks.Entry, _ string) (notionapi.Property, bool) {
		if len(e.Links.Screenshots) == 0 {
			return nil, false
		}
		files := make([]notionapi.File, 0, len(e.Links.Screenshots))
		for _, s := range e.Links.Screenshots {
			files = append(files, externalFile(s))
		}
		return notionapi.FilesProperty{Files: files}, true
	}},
	{"Invoice", func(e sinks.Entry, _ string) (notionapi.Property, bool) {
		if e.Links.Invoice == nil || e.Links.Invoice.URL == "" {
			return nil, false
		}
		return notionapi.FilesProperty{Files: []notionapi.File{externalFile(*e.Links.Invoice)}}, true
	}},
}

// Properties builds the page properties for an entry. Absent values are omitted.
func Properties(e sinks.Entry, status string) notionapi.Properties {
	props := notionapi.Properties{}
	for _, f := range fields {
		if p, ok := f.build(e, status); ok {
			props[f.name] = p
		}
	}
	return props
}

// PropertyNames lists every property the mapping may write, in table order.
func PropertyNames() []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.name
	}
	return out
}

func recordValue(f func(r *submission.Record) (notionapi.Property, bool)) func(sinks.Entry, string) (notionapi.Property, bool) {
	return func(e sinks.Entry, _ string) (notionapi.Property, bool) {
		return f(e.Record)
	}
}

func textOf(f func(r *submission.Record) string) func(sinks.Entry, string) (notionapi.Property, bool) {
	return recordValue(func(r *submission.Record) (notionapi.Property, bool) {
		s := f(r)
		if s == "" {
			return nil, false
		}
		return notionapi.RichTextProperty{RichText: richText(s)}, true
	})
}

func selectOf(f func(r *submission.Record) string) func(sinks.Entry, string) (notionapi.Property, bool) {
	return recordValue(func(r *submission.Record) (notionapi.Property, bool) {
		s := optionName(f(r))
		if s == "" {
			return nil, false
		}
		return notionapi.SelectProperty{Select: notionapi.Option{Name: s}}, true
	})
}

func numberOf(f func(r *submission.Record) string) func(sinks.Entry, string) (notionapi.Property, bool) {
	return recordValue(func(r *submission.Record) (notionapi.Property, bool) {
		raw := f(r)
		if raw == "" {
			return nil, false
		}
		amount, err := submission.ParseAmount(raw)
		if err != nil {
			return nil, false
		}
		return notionapi.NumberProperty{Number: amount.InexactFloat64()}, true
	})
}

func richText(s string) []notionapi.RichText {
	if r := []rune(s); len(r) > maxTextLength {
		s = string(r[:maxTextLength])
	}
	return []notionapi.RichText{{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: s},
	}}
}

// optionName strips commas, which select options may not contain.
func optionName(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
}

func externalFile(u sinks.UploadResult) notionapi.File {
	name := u.Filename
	if name == "" {
		name = path.Base(u.URL)
	}
	return notionapi.File{
		Name:     name,
		Type:     notionapi.FileTypeExternal,
		External: &notionapi.FileObject{URL: u.URL},
	}
}
