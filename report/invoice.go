// Package report renders invoice PDF documents for completed purchase
// orders and persists them in the configured files directory.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf/v2"

	"github.com/orderdesk/orderdesk/internal/orders"
)

// InvoiceData bundles everything the invoice layout needs.
type InvoiceData struct {
	Order       orders.PurchaseOrder
	GeneratedAt time.Time
}

// Renderer writes invoice PDFs to disk and reports the URL they are served
// under.
type Renderer struct {
	dir     string
	baseURL string
}

// NewRenderer constructs a renderer. dir is the filesystem directory PDFs
// land in, baseURL the public path they are served from.
func NewRenderer(dir, baseURL string) *Renderer {
	return &Renderer{dir: dir, baseURL: baseURL}
}

// Render produces the PDF, writes it to disk and returns the public URL.
func (r *Renderer) Render(data InvoiceData) (string, error) {
	if data.GeneratedAt.IsZero() {
		data.GeneratedAt = time.Now()
	}
	pdfBytes, err := BuildInvoicePDF(data)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("report: create invoice dir: %w", err)
	}
	// A fresh name per render so stale copies are never served from cache.
	name := fmt.Sprintf("invoice-%s-%s.pdf", data.Order.Number, uuid.NewString()[:8])
	if err := os.WriteFile(filepath.Join(r.dir, name), pdfBytes, 0o644); err != nil {
		return "", fmt.Errorf("report: write invoice: %w", err)
	}
	return r.baseURL + "/" + name, nil
}

// BuildInvoicePDF lays out the invoice document and returns the raw bytes.
func BuildInvoicePDF(data InvoiceData) ([]byte, error) {
	po := data.Order

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, "Invoice", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Generated: %s", data.GeneratedAt.Format("02-Jan-2006 03:04 PM")), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	// Order info box
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Order Information", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, fmt.Sprintf("Order: %s", po.Number), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Status: %s", po.Status), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Delivery date: %s", po.DeliveryDate.Format("02-Jan-2006")), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, "", "RB", 1, "L", false, 0, "")
	pdf.Ln(5)

	// Items table
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Items", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(90, 7, "Product", "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 7, "Quantity", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 7, "Unit Price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 7, "Total", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, item := range po.Items {
		pdf.CellFormat(90, 7, item.Product, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%.2f", item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, fmt.Sprintf("%.2f", item.Price), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, fmt.Sprintf("%.2f", item.Quantity*item.Price), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(155, 8, "Grand Total", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, fmt.Sprintf("%.2f", po.Total()), "1", 1, "R", true, 0, "")

	if po.Notes != "" {
		pdf.Ln(5)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(190, 6, "Notes: "+po.Notes, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("report: render invoice: %w", err)
	}
	return buf.Bytes(), nil
}
