// Package badge renders the visitor's QR receipt and the printable
// pass handed out at the gate.
package badge

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/xelth-com/campusgate/internal/models"
)

// QRPayload is the structured data embedded in a visitor's QR code
type QRPayload struct {
	VisitorID      string `json:"visitorId"`
	Name           string `json:"name"`
	ContactNumber  string `json:"contactNumber"`
	PurposeOfVisit string `json:"purposeOfVisit"`
	Department     string `json:"department,omitempty"`
	WhomToMeet     string `json:"whomToMeet,omitempty"`
	Timestamp      string `json:"timestamp"`
}

// PayloadFor builds the QR payload for a checked-in visitor
func PayloadFor(v *models.Visitor) (QRPayload, error) {
	p := QRPayload{
		VisitorID:      v.ID,
		Name:           v.Name,
		ContactNumber:  v.ContactNumber,
		PurposeOfVisit: v.PurposeOfVisit,
		Timestamp:      models.Timestamp(),
	}
	d, err := v.Details()
	if err != nil {
		return QRPayload{}, err
	}
	if d != nil {
		p.Department = d.Department
		p.WhomToMeet = d.WhomToMeet
	}
	return p, nil
}

// QRPNG encodes the payload as a QR code PNG
func QRPNG(p QRPayload, size int) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(string(data), qrcode.Medium, size)
}

// GeneratePassPDF creates an A6 visitor pass: site header, visitor
// identity lines, the QR centered, check-in time at the foot.
func GeneratePassPDF(siteName string, v *models.Visitor) ([]byte, error) {
	payload, err := PayloadFor(v)
	if err != nil {
		return nil, err
	}
	qrPng, err := QRPNG(payload, 256)
	if err != nil {
		return nil, err
	}

	// A6 portrait
	pageWidth := 105.0
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "mm",
		Size:    gofpdf.SizeType{Wd: pageWidth, Ht: 148},
	})
	pdf.SetMargins(8, 8, 8)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(pageWidth-16, 8, siteName, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(pageWidth-16, 5, "VISITOR PASS", "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(pageWidth-16, 7, v.Name, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	if payload.Department != "" {
		pdf.CellFormat(pageWidth-16, 5, fmt.Sprintf("Department: %s", payload.Department), "", 1, "C", false, 0, "")
	}
	if payload.WhomToMeet != "" {
		pdf.CellFormat(pageWidth-16, 5, fmt.Sprintf("Meeting: %s", payload.WhomToMeet), "", 1, "C", false, 0, "")
	}

	// QR centered, 55mm square
	imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	_ = pdf.RegisterImageOptionsReader("visitor_qr", imgOptions, bytes.NewReader(qrPng))
	qrSize := 55.0
	pdf.ImageOptions("visitor_qr", (pageWidth-qrSize)/2, 50, qrSize, qrSize, false, imgOptions, 0, "")

	pdf.SetY(110)
	pdf.SetFont("Arial", "", 8)
	if v.CheckInTime != nil {
		pdf.CellFormat(pageWidth-16, 4, fmt.Sprintf("Checked in: %s", *v.CheckInTime), "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(pageWidth-16, 4, fmt.Sprintf("Pass ID: %s", v.ID), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
