package invoice

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"

	"invoice-intake/internal/catalog"
	apperrors "invoice-intake/internal/common/errors"
	"invoice-intake/internal/submission"
)

const (
	pageMargin   = 20.0
	contentWidth = 170.0
	lineHeight   = 6.0
	amountWidth  = 40.0

	notVATRegisteredNote = "*Not VAT registered, VAT not applicable"
)

// Renderer draws the single-page A4 invoice. The brand is the billed party and
// the creator is the issuer shown in the FROM block.
type Renderer struct {
	compress bool
}

type RendererOption func(*Renderer)

// WithCompression toggles stream compression; tests disable it to inspect text.
func WithCompression(enabled bool) RendererOption {
	return func(r *Renderer) { r.compress = enabled }
}

func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{compress: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TaskLine describes the billed work.
func TaskLine(rec *submission.Record) string {
	if rec.InvoiceType == submission.Retainer {
		return fmt.Sprintf("Monthly retainer for %s - %s", rec.Brand.DisplayName, rec.Period)
	}
	return rec.Period
}

// Render produces the PDF bytes for rec and comp.
func (r *Renderer) Render(rec *submission.Record, comp *Computation) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.SetTitle("Invoice "+comp.Number, true)
	pdf.SetAuthor(rec.Name, true)
	pdf.SetCreator("invoice-intake", true)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	brand := rec.Brand

	drawHeader(pdf, tr, brand, comp)
	drawParties(pdf, tr, rec, brand)
	drawLines(pdf, tr, rec, comp, brand)
	drawPayment(pdf, tr, rec)
	drawVATDisclosure(pdf, tr, rec)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, apperrors.NewRenderFailedError(err)
	}
	return buf.Bytes(), nil
}

func drawHeader(pdf *fpdf.Fpdf, tr func(string) string, brand catalog.BrandConfig, comp *Computation) {
	r, g, b := hexColor(brand.Colors.Primary)
	pdf.SetFillColor(r, g, b)
	pdf.Rect(0, 0, 210, 8, "F")

	pdf.SetY(pageMargin)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(r, g, b)
	pdf.CellFormat(contentWidth/2, 10, tr(brand.DisplayName), "", 0, "L", false, 0, "")

	sr, sg, sb := hexColor(brand.Colors.Secondary)
	pdf.SetTextColor(sr, sg, sb)
	pdf.SetFont("Helvetica", "B", 28)
	pdf.CellFormat(contentWidth/2, 10, "INVOICE", "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.Ln(4)
	pdf.CellFormat(contentWidth, lineHeight, tr("INVOICE NO: "+comp.Number), "", 1, "R", false, 0, "")
	pdf.CellFormat(contentWidth, lineHeight, tr("DATE: "+comp.IssueDate.Format("2 January 2006")), "", 1, "R", false, 0, "")
	pdf.Ln(6)
}

func drawParties(pdf *fpdf.Fpdf, tr func(string) string, rec *submission.Record, brand catalog.BrandConfig) {
	from := []string{rec.Name}
	from = append(from, splitLines(rec.Address)...)
	from = appendIf(from, rec.Email)
	from = appendIf(from, rec.Phone)

	billed := []string{brand.BillingName}
	billed = append(billed, brand.AddressLines()...)
	billed = appendIf(billed, brand.Email)

	top := pdf.GetY()
	half := contentWidth / 2

	drawBlock(pdf, tr, pageMargin, top, half, "FROM:", from)
	leftBottom := pdf.GetY()
	drawBlock(pdf, tr, pageMargin+half, top, half, "BILLED TO:", billed)
	if pdf.GetY() < leftBottom {
		pdf.SetY(leftBottom)
	}
	pdf.Ln(8)
}

func drawBlock(pdf *fpdf.Fpdf, tr func(string) string, x, y, w float64, title string, lines []string) {
	pdf.SetXY(x, y)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(w, lineHeight, title, "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, l := range lines {
		pdf.SetX(x)
		pdf.CellFormat(w, lineHeight-1, tr(l), "", 2, "L", false, 0, "")
	}
}

func drawLines(pdf *fpdf.Fpdf, tr func(string) string, rec *submission.Record, comp *Computation, brand catalog.BrandConfig) {
	r, g, b := hexColor(brand.Colors.Secondary)
	pdf.SetFillColor(r, g, b)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentWidth-amountWidth, 8, "TASK", "", 0, "L", true, 0, "")
	pdf.CellFormat(amountWidth, 8, "TOTAL", "", 1, "R", true, 0, "")

	pdf.SetTextColor(40, 40, 40)
	pdf.SetFont("Helvetica", "", 10)
	x, y := pdf.GetXY()
	pdf.MultiCell(contentWidth-amountWidth, lineHeight, tr(TaskLine(rec)), "", "L", false)
	bottom := pdf.GetY()
	pdf.SetXY(x+contentWidth-amountWidth, y)
	pdf.CellFormat(amountWidth, lineHeight, tr(FormatGBP(comp.Net)), "", 1, "R", false, 0, "")
	if pdf.GetY() < bottom {
		pdf.SetY(bottom)
	}

	pdf.Ln(2)
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(pageMargin, pdf.GetY(), pageMargin+contentWidth, pdf.GetY())
	pdf.Ln(3)

	if comp.VATApplicable {
		summaryRow(pdf, tr, "SUBTOTAL", FormatGBP(comp.Net), false)
		summaryRow(pdf, tr, fmt.Sprintf("VAT (%s%%)", comp.VATRate.Shift(2).String()), FormatGBP(comp.VAT), false)
	}
	summaryRow(pdf, tr, "TOTAL DUE", FormatGBP(comp.Total), true)
	pdf.Ln(10)
}

func summaryRow(pdf *fpdf.Fpdf, tr func(string) string, label, amount string, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	pdf.SetFont("Helvetica", style, 11)
	pdf.CellFormat(contentWidth-amountWidth, 7, label, "", 0, "R", false, 0, "")
	pdf.CellFormat(amountWidth, 7, tr(amount), "", 1, "R", false, 0, "")
}

func drawPayment(pdf *fpdf.Fpdf, tr func(string) string, rec *submission.Record) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentWidth, lineHeight, "PAYMENT INFORMATION:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)

	for _, row := range []struct{ label, value string }{
		{"Bank", rec.Bank.BankName},
		{"Account Name", rec.Bank.AccountName},
		{"Account Number", rec.Bank.AccountNumber},
		{"Sort Code", rec.Bank.SortCode},
	} {
		if row.value == "" {
			continue
		}
		pdf.CellFormat(contentWidth, lineHeight-1, tr(row.label+": "+row.value), "", 1, "L", false, 0, "")
	}
	pdf.Ln(8)
}

func drawVATDisclosure(pdf *fpdf.Fpdf, tr func(string) string, rec *submission.Record) {
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(90, 90, 90)
	if rec.IsVATApplicable() {
		number := rec.VATNumber
		if number == "" {
			number = "Not provided"
		}
		pdf.CellFormat(contentWidth, lineHeight, tr("VAT Number: "+number), "", 1, "L", false, 0, "")
		return
	}
	pdf.CellFormat(contentWidth, lineHeight, notVATRegisteredNote, "", 1, "L", false, 0, "")
}

func splitLines(s string) []string {
	var out []string
	for _, l := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func appendIf(lines []string, s string) []string {
	if s != "" {
		return append(lines, s)
	}
	return lines
}

// hexColor parses "#rrggbb", falling back to near-black.
func hexColor(hex string) (int, int, int) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 30, 41, 59
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 30, 41, 59
	}
	r := (v >> 16) & 0xff
	g := (v >> 8) & 0xff
	b := v & 0xff
	return int(r), int(g), int(b)
}
