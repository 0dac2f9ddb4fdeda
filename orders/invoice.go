package orders

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"kondapalli/models"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

// TrackingURL is the storefront page that shows an order's progress.
func TrackingURL(baseURL, orderNumber string) string {
	return strings.TrimRight(baseURL, "/") + "/track-order?orderNumber=" + orderNumber
}

func money(v float64) string {
	return fmt.Sprintf("Rs. %.2f", v)
}

// RenderInvoice draws a one-page A4 invoice with a QR code pointing at the
// tracking page.
func RenderInvoice(o *models.Order, trackingURL string, loc *time.Location) ([]byte, error) {
	qrPNG, err := qrcode.Encode(trackingURL, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode tracking QR: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+o.OrderNumber, false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, "Kondapalli Toys")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 6, "Invoice for order "+o.OrderNumber)
	pdf.Ln(6)
	pdf.Cell(0, 6, "Date: "+o.CreatedAt.In(loc).Format("02 Jan 2006"))
	pdf.Ln(6)
	pdf.Cell(0, 6, "Status: "+string(o.Status))
	pdf.Ln(10)

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 160, 10, 35, 35, false, imageOpts, 0, "")

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 6, "Bill to")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 11)
	a := o.ShippingAddress
	for _, line := range []string{
		o.Customer.Name,
		o.Customer.Email + "  " + o.Customer.Phone,
		a.Street,
		strings.Trim(strings.Join([]string{a.City, a.State, a.Pincode}, ", "), ", "),
		a.Country,
	} {
		if strings.TrimSpace(line) == "" {
			continue
		}
		pdf.Cell(0, 6, line)
		pdf.Ln(6)
	}
	pdf.Ln(4)

	widths := []float64{95, 20, 35, 40}
	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(235, 235, 235)
	for i, h := range []string{"Item", "Qty", "Price", "Amount"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 8, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 11)
	for _, it := range o.Items {
		pdf.CellFormat(widths[0], 8, it.Title, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 8, fmt.Sprintf("%d", it.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 8, money(it.Price), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 8, money(it.Price*float64(it.Quantity)), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	label := widths[0] + widths[1] + widths[2]
	totals := []struct {
		name  string
		value float64
	}{
		{"Subtotal", o.Subtotal},
		{"Shipping", o.ShippingCost},
		{"Discount", o.Discount},
		{"Total", o.Total},
	}
	for _, t := range totals {
		if t.name == "Total" {
			pdf.SetFont("Arial", "B", 11)
		}
		pdf.CellFormat(label, 8, t.name, "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 8, money(t.value), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 5, "Payment: "+strings.ReplaceAll(string(o.PaymentMethod), "_", " ")+" ("+string(o.PaymentStatus)+")")
	pdf.Ln(5)
	if o.TrackingNumber != "" {
		pdf.Cell(0, 5, "Tracking number: "+o.TrackingNumber)
		pdf.Ln(5)
	}
	pdf.Cell(0, 5, "Track your order: "+trackingURL)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", o.OrderNumber, err)
	}
	return buf.Bytes(), nil
}
