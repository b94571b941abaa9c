package report

import (
	"bytes"
	"fmt"

	"github.com/signintech/gopdf"
)

// fontPaths are the common DejaVuSans locations across our base images.
var fontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

// RenderPDF renders a report as a single PDF document.
func RenderPDF(rep Report) ([]byte, error) {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	var fontErr error
	fontLoaded := false
	for _, path := range fontPaths {
		if err := pdf.AddTTFFont("DejaVu", path); err == nil {
			fontLoaded = true
			break
		} else {
			fontErr = err
		}
	}
	if !fontLoaded {
		return nil, fmt.Errorf("failed to load font for PDF, ensure ttf-dejavu is installed: %w", fontErr)
	}

	if err := pdf.SetFont("DejaVu", "", 20); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Medical Assessment Report")
	pdf.Br(30)

	if err := pdf.SetFont("DejaVu", "", 12); err != nil {
		return nil, err
	}
	pdf.Cell(nil, fmt.Sprintf("Report ID: %s", rep.ReportID))
	pdf.Br(15)
	pdf.Cell(nil, fmt.Sprintf("Generated: %s", rep.GeneratedAt))
	pdf.Br(15)
	pdf.Cell(nil, fmt.Sprintf("Patient: %s (%d, %s)", rep.PatientInfo.Name, rep.PatientInfo.Age, rep.PatientInfo.Gender))
	pdf.Br(15)
	pdf.Cell(nil, fmt.Sprintf("Topic: %s", rep.AssessmentTopic))
	pdf.Br(15)
	pdf.Cell(nil, fmt.Sprintf("Urgency: %s", rep.UrgencyLevel))
	pdf.Br(25)

	if err := writeSection(&pdf, "Summary:", rep.Summary); err != nil {
		return nil, err
	}

	if err := pdf.SetFont("DejaVu", "", 14); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Possible Causes:")
	pdf.Br(15)
	if err := pdf.SetFont("DejaVu", "", 11); err != nil {
		return nil, err
	}
	if len(rep.PossibleCauses) == 0 {
		pdf.Cell(nil, "- None listed.")
		pdf.Br(15)
	}
	for _, cause := range rep.PossibleCauses {
		line := fmt.Sprintf("- %s (%s, %d%%): %s", cause.Title, cause.Severity, int(cause.Probability*100), cause.ShortDescription)
		if err := writeWrapped(&pdf, line); err != nil {
			return nil, err
		}
		if cause.Detail.Warning != "" {
			if err := writeWrapped(&pdf, fmt.Sprintf("  Warning: %s", cause.Detail.Warning)); err != nil {
				return nil, err
			}
		}
		pdf.Br(5)
	}
	pdf.Br(10)

	if err := writeSection(&pdf, "Advice:", rep.Advice); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSection(pdf *gopdf.GoPdf, heading string, items []string) error {
	if err := pdf.SetFont("DejaVu", "", 14); err != nil {
		return err
	}
	pdf.Cell(nil, heading)
	pdf.Br(15)
	if err := pdf.SetFont("DejaVu", "", 11); err != nil {
		return err
	}
	for _, item := range items {
		if err := writeWrapped(pdf, "- "+item); err != nil {
			return err
		}
	}
	pdf.Br(10)
	return nil
}

func writeWrapped(pdf *gopdf.GoPdf, text string) error {
	lines, err := pdf.SplitText(text, 500)
	if err != nil {
		return err
	}
	for _, l := range lines {
		pdf.Cell(nil, l)
		pdf.Br(12)
	}
	return nil
}
