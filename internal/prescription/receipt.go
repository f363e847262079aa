// AngelaMos | 2026
// receipt.go

package prescription

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/carterperez-dev/pharmahub/internal/tenant"
)

var (
	receiptHeaders = []string{"#", "Medicine", "Qty", "Unit Price", "Discount", "Amount"}
	receiptWidths  = []float64{10, 80, 15, 28, 25, 32}
)

// Receipt renders a printable A4 receipt for one prescription.
func (s *Service) Receipt(ctx context.Context, tenantID, id string) (*bytes.Buffer, *Prescription, error) {
	t, err := s.tenants.GetTenantByID(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}

	p, err := s.GetPrescription(ctx, tenantID, id)
	if err != nil {
		return nil, nil, err
	}

	buf, err := renderReceipt(t, p)
	if err != nil {
		return nil, nil, err
	}

	return buf, p, nil
}

func renderReceipt(t *tenant.Tenant, p *Prescription) (*bytes.Buffer, error) {
	currency := t.Settings.Currency
	money := func(v float64) string {
		return fmt.Sprintf("%s %.2f", currency, v)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Receipt "+p.Number, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 9, t.Name, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	if t.Contact.Address != "" {
		pdf.CellFormat(0, 5, t.Contact.Address, "", 1, "C", false, 0, "")
	}
	contact := t.Contact.Email
	if t.Contact.Phone != "" {
		contact += "  |  " + t.Contact.Phone
	}
	pdf.CellFormat(0, 5, contact, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(95, 6, "Prescription: "+p.Number, "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 6, "Date: "+p.CreatedAt.Format("2006-01-02 15:04"), "", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(95, 6, "Patient: "+p.Patient.Name, "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 6, "Status: "+string(p.Status), "", 1, "R", false, 0, "")
	if p.Doctor.Name != "" {
		doctor := "Doctor: " + p.Doctor.Name
		if p.Doctor.RegistrationNumber != "" {
			doctor += " (" + p.Doctor.RegistrationNumber + ")"
		}
		pdf.CellFormat(0, 6, doctor, "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(217, 225, 242)
	for i, h := range receiptHeaders {
		pdf.CellFormat(receiptWidths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for i, l := range p.Lines {
		pdf.CellFormat(receiptWidths[0], 6, strconv.Itoa(i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(receiptWidths[1], 6, l.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(receiptWidths[2], 6, strconv.Itoa(l.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(receiptWidths[3], 6, money(l.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(receiptWidths[4], 6, money(l.Discount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(receiptWidths[5], 6, money(l.LineTotal), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(2)

	labelWidth := receiptWidths[0] + receiptWidths[1] + receiptWidths[2] + receiptWidths[3] + receiptWidths[4]
	summary := []struct {
		label string
		value float64
	}{
		{"Subtotal", p.Subtotal},
		{"Discount", -p.Discount},
		{"Tax", p.Tax},
	}
	for _, row := range summary {
		pdf.CellFormat(labelWidth, 6, row.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(receiptWidths[5], 6, money(row.value), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(labelWidth, 7, "Total", "T", 0, "R", false, 0, "")
	pdf.CellFormat(receiptWidths[5], 7, money(p.Total), "T", 1, "R", false, 0, "")

	if p.Notes != "" {
		pdf.Ln(4)
		pdf.SetFont("Arial", "I", 9)
		pdf.MultiCell(0, 5, "Notes: "+p.Notes, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}

	return &buf, nil
}
