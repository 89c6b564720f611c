package report

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"ewaste/internal/models"

	"github.com/jung-kurt/gofpdf"
)

// RequiredSubmissions is the completed-request count that qualifies a user
// for the appreciation certificate.
const RequiredSubmissions = 10

var (
	ErrNotCompleted = errors.New("report: request is not completed")
	ErrNotQualified = errors.New("report: not enough completed submissions")
)

// RecyclingReport renders the per-request report the user downloads once a
// pickup is completed.
func RecyclingReport(request models.Request) ([]byte, error) {
	if request.Status != models.StatusCompleted {
		return nil, ErrNotCompleted
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 14, "E-Waste Recycling Report", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 11)
	rows := [][2]string{
		{"Request ID", request.RequestID},
		{"Submitted by", request.UserName},
		{"Device", fmt.Sprintf("%s %s %s", request.DeviceType, request.Brand, request.Model)},
		{"Quantity", fmt.Sprintf("%d", request.Quantity)},
		{"Condition", request.Condition},
		{"Submitted on", request.CreatedAt.Format("02 Jan 2006")},
	}
	if request.CompletedAt != nil {
		rows = append(rows, [2]string{"Collected on", request.CompletedAt.Format("02 Jan 2006")})
	}
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(50, 8, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, row[1], "", 1, "L", false, 0, "")
	}

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6,
		"This document confirms that the items above were collected and routed to a certified recycling facility.",
		"", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// AppreciationCertificate renders the certificate for users with at least
// RequiredSubmissions completed pickups.
func AppreciationCertificate(user models.User, completed int) ([]byte, error) {
	if completed < RequiredSubmissions {
		return nil, ErrNotQualified
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 28)
	pdf.CellFormat(0, 30, "Certificate of Appreciation", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 10, "proudly presented to", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 16, user.Name, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.MultiCell(0, 8, fmt.Sprintf(
		"for responsibly recycling e-waste through %d completed pickups, contributing to a cleaner environment.",
		completed), "", "C", false)

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.CellFormat(0, 8, "Issued "+time.Now().UTC().Format("02 Jan 2006"), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
