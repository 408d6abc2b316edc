// Package printer renders quotes and sales orders as PDF with a QR code
// carrying the document reference.
package printer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"

	"github.com/xelth-com/eckbiz/internal/models"
)

// Line is one printed row.
type Line struct {
	Description     string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	TaxRate         decimal.Decimal
	Total           decimal.Decimal
}

// Document is the printable view of a priced document.
type Document struct {
	Title     string // QUOTE, SALES ORDER
	Number    string
	Status    string
	Date      time.Time
	DateLabel string
	Due       *time.Time
	DueLabel  string
	Customer  string
	Currency  string
	Lines     []Line
	Totals    models.Totals
	Shipping  decimal.Decimal
	Paid      *decimal.Decimal
	Notes     string
	Terms     string
	QR        string
}

func lines(items []models.LineItem) []Line {
	out := make([]Line, len(items))
	for i, l := range items {
		out[i] = Line{
			Description:     l.Description,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			DiscountPercent: l.DiscountPercent,
			TaxRate:         l.TaxRate,
			Total:           l.LineTotal,
		}
	}
	return out
}

func customer(c *models.Company) string {
	if c == nil {
		return ""
	}
	return c.Name
}

// QRContent is the payload encoded on every printed document.
func QRContent(number string, total decimal.Decimal, currency string) string {
	return fmt.Sprintf("ECKBIZ/%s/%s/%s", number, total.StringFixed(2), currency)
}

// FromQuote builds the printable view of q. Items must be preloaded.
func FromQuote(q *models.Quote) Document {
	items := make([]models.LineItem, len(q.Items))
	for i, it := range q.Items {
		items[i] = it.LineItem
	}
	valid := q.ValidUntil
	return Document{
		Title:     "QUOTE",
		Number:    q.Number,
		Status:    string(q.Status),
		Date:      q.IssueDate,
		DateLabel: "Issue date",
		Due:       &valid,
		DueLabel:  "Valid until",
		Customer:  customer(q.Company),
		Currency:  q.Currency,
		Lines:     lines(items),
		Totals:    q.Totals,
		Notes:     q.Notes,
		Terms:     q.Terms,
		QR:        QRContent(q.Number, q.Total, q.Currency),
	}
}

// FromSalesOrder builds the printable view of o. Items must be preloaded.
func FromSalesOrder(o *models.SalesOrder) Document {
	items := make([]models.LineItem, len(o.Items))
	for i, it := range o.Items {
		items[i] = it.LineItem
	}
	paid := o.AmountPaid
	return Document{
		Title:     "SALES ORDER",
		Number:    o.Number,
		Status:    string(o.Status),
		Date:      o.OrderDate,
		DateLabel: "Order date",
		Due:       o.ExpectedDelivery,
		DueLabel:  "Expected delivery",
		Customer:  customer(o.Company),
		Currency:  o.Currency,
		Lines:     lines(items),
		Totals:    o.Totals,
		Shipping:  o.ShippingAmount,
		Paid:      &paid,
		Notes:     o.Notes,
		QR:        QRContent(o.Number, o.Total, o.Currency),
	}
}

var columns = []struct {
	title string
	width float64
	align string
}{
	{"#", 8, "C"},
	{"Description", 72, "L"},
	{"Qty", 18, "R"},
	{"Unit price", 24, "R"},
	{"Disc %", 14, "R"},
	{"Tax %", 14, "R"},
	{"Total", 30, "R"},
}

// Render draws doc on A4 pages.
func Render(doc Document) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("%s %s - page %d/{nb}", doc.Title, doc.Number, pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	qrPng, err := qrcode.Encode(doc.QR, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qrPng))
	pdf.ImageOptions("qr", 165, 12, 30, 30, false, opts, 0, "")

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(140, 10, doc.Title, "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	meta := [][2]string{
		{"Number", doc.Number},
		{"Status", doc.Status},
		{doc.DateLabel, doc.Date.Format("2006-01-02")},
	}
	if doc.Due != nil {
		meta = append(meta, [2]string{doc.DueLabel, doc.Due.Format("2006-01-02")})
	}
	if doc.Customer != "" {
		meta = append(meta, [2]string{"Customer", doc.Customer})
	}
	for _, m := range meta {
		pdf.CellFormat(35, 6, m[0]+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(105, 6, m[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range columns {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for i, l := range doc.Lines {
		cells := []string{
			fmt.Sprint(i + 1),
			l.Description,
			l.Quantity.String(),
			l.UnitPrice.StringFixed(2),
			l.DiscountPercent.StringFixed(2),
			l.TaxRate.StringFixed(2),
			l.Total.StringFixed(2),
		}
		for j, c := range columns {
			text := cells[j]
			if j == 1 && pdf.GetStringWidth(text) > c.width-2 {
				for len(text) > 0 && pdf.GetStringWidth(text+"...") > c.width-2 {
					text = text[:len(text)-1]
				}
				text += "..."
			}
			pdf.CellFormat(c.width, 6, text, "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	sums := [][2]string{
		{"Subtotal", doc.Totals.Subtotal.StringFixed(2)},
	}
	if !doc.Totals.DiscountAmount.IsZero() {
		sums = append(sums, [2]string{"Discount", "-" + doc.Totals.DiscountAmount.StringFixed(2)})
	}
	sums = append(sums, [2]string{"Tax", doc.Totals.TaxAmount.StringFixed(2)})
	if !doc.Shipping.IsZero() {
		sums = append(sums, [2]string{"Shipping", doc.Shipping.StringFixed(2)})
	}
	sums = append(sums, [2]string{"Total " + doc.Currency, doc.Totals.Total.StringFixed(2)})
	if doc.Paid != nil {
		sums = append(sums,
			[2]string{"Paid", doc.Paid.StringFixed(2)},
			[2]string{"Balance", doc.Totals.Total.Sub(*doc.Paid).StringFixed(2)})
	}
	for i, s := range sums {
		style := ""
		if i == len(sums)-1 || s[0] == "Total "+doc.Currency {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		pdf.CellFormat(130, 6, s[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(50, 6, s[1], "", 1, "R", false, 0, "")
	}

	for _, block := range [][2]string{{"Notes", doc.Notes}, {"Terms", doc.Terms}} {
		if block[1] == "" {
			continue
		}
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, block[0], "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 5, block[1], "", "L", false)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render %s: %w", doc.Number, err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
