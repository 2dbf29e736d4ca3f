// Package document renders the printable Letter of Authorization handed to
// the patient at the emergency desk.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/signintech/gopdf"

	"mediroute/pkg/triage"
)

// ErrFontUnavailable is returned when no usable TTF font is installed.
var ErrFontUnavailable = errors.New("no TTF font available for PDF rendering")

// fontPaths lists common install locations for the DejaVu and Liberation
// families across Debian and Alpine images. The first loadable font wins.
var fontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	"/usr/share/fonts/liberation/LiberationSans-Regular.ttf",
}

const (
	fontName  = "body"
	textWidth = 500
)

// RenderLOA produces the PDF authorization document from a compiled case
// report. The report must carry a generated authorization.
func RenderLOA(patientName string, rep *triage.Report) ([]byte, error) {
	if rep == nil || !rep.Generated {
		return nil, errors.New("no generated report to render")
	}

	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	if err := loadFont(&pdf); err != nil {
		return nil, err
	}

	if err := pdf.SetFont(fontName, "", 18); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "LETTER OF AUTHORIZATION")
	pdf.Br(24)

	if err := pdf.SetFont(fontName, "", 11); err != nil {
		return nil, err
	}
	field := func(label, value string) {
		pdf.Cell(nil, fmt.Sprintf("%s: %s", label, value))
		pdf.Br(14)
	}

	field("LOA Number", rep.LOANumber)
	field("Date Issued", rep.DateIssued)
	field("Valid Until", rep.ValidUntil)
	pdf.Br(8)

	field("Patient", patientName)
	field("Insurance Provider", rep.InsuranceProvider)
	field("Emergency Type", fmt.Sprintf("%s (%s)", rep.Category, rep.Severity))
	pdf.Br(8)

	field("Hospital", rep.HospitalName)
	field("Address", rep.Address)
	field("Emergency Contact", rep.EmergencyContact)
	field("Room Type", rep.RoomType)
	pdf.Br(8)

	if err := section(&pdf, "Approved Services", bulleted(rep.ApprovedServices)); err != nil {
		return nil, err
	}
	if err := section(&pdf, "Exclusions", bulleted(rep.Exclusions)); err != nil {
		return nil, err
	}
	if err := section(&pdf, "Clinical Justification", rep.ClinicalJustification); err != nil {
		return nil, err
	}
	if err := section(&pdf, "Remarks", rep.Remarks); err != nil {
		return nil, err
	}
	if err := section(&pdf, "Next Steps", rep.NextSteps); err != nil {
		return nil, err
	}

	pdf.SetY(800)
	if err := pdf.SetFont(fontName, "", 8); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "This authorization is valid only for the emergency admission described above.")

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func loadFont(pdf *gopdf.GoPdf) error {
	var lastErr error
	for _, path := range fontPaths {
		if err := pdf.AddTTFFont(fontName, path); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return fmt.Errorf("%w: %v", ErrFontUnavailable, lastErr)
}

// section writes a titled block of wrapped body text. Empty bodies are
// skipped entirely.
func section(pdf *gopdf.GoPdf, title, body string) error {
	if strings.TrimSpace(body) == "" {
		return nil
	}
	if err := pdf.SetFont(fontName, "", 12); err != nil {
		return err
	}
	pdf.Cell(nil, title)
	pdf.Br(14)

	if err := pdf.SetFont(fontName, "", 10); err != nil {
		return err
	}
	for _, paragraph := range strings.Split(body, "\n") {
		lines, err := pdf.SplitText(paragraph, textWidth)
		if err != nil {
			lines = []string{paragraph}
		}
		for _, l := range lines {
			pdf.Cell(nil, l)
			pdf.Br(12)
		}
	}
	pdf.Br(8)
	return nil
}

func bulleted(items []string) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
