package intake

import (
	"invoice-intake/internal/invoice"
	"invoice-intake/internal/sinks"
)

// InvoiceSummary describes a generated invoice.
type InvoiceSummary struct {
	Number   string `json:"invoiceNumber"`
	Filename string `json:"filename"`
	URL      string `json:"url,omitempty"`
	Net      string `json:"subtotal"`
	VAT      string `json:"vat"`
	Total    string `json:"total"`
}

func summarize(comp *invoice.Computation) *InvoiceSummary {
	return &InvoiceSummary{
		Number:   comp.Number,
		Filename: comp.Filename(),
		Net:      comp.Net.StringFixed(2),
		VAT:      comp.VAT.StringFixed(2),
		Total:    comp.Total.StringFixed(2),
	}
}

// Result is the success body of a submission.
type Result struct {
	Success             bool            `json:"success"`
	Message             string          `json:"message"`
	RecordID            string          `json:"notionPageId"`
	RecordURL           string          `json:"recordUrl,omitempty"`
	InvoiceTitle        string          `json:"invoiceTitle"`
	InvoiceGenerated    bool            `json:"invoiceGenerated"`
	InvoiceUploaded     bool            `json:"invoiceUploaded"`
	Invoice             *InvoiceSummary `json:"invoice,omitempty"`
	ScreenshotsUploaded int             `json:"screenshotsUploaded"`
	ScreenshotURLs      []string        `json:"screenshotUrls,omitempty"`
	Spreadsheet         *sinks.SheetRef `json:"spreadsheet,omitempty"`
}

// Variables flattens the result for workflow job completion.
func (r *Result) Variables() map[string]interface{} {
	vars := map[string]interface{}{
		"notionPageId":        r.RecordID,
		"invoiceTitle":        r.InvoiceTitle,
		"invoiceGenerated":    r.InvoiceGenerated,
		"screenshotsUploaded": r.ScreenshotsUploaded,
	}
	if r.Invoice != nil {
		vars["invoiceNumber"] = r.Invoice.Number
		vars["invoiceTotal"] = r.Invoice.Total
	}
	return vars
}
