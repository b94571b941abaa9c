package report

import (
	"context"
	"fmt"

	"triage-assistant/internal/platform/logger"
)

// TelegramClient is the notification transport. Declared here so the report
// package depends on behaviour, not on the platform client.
type TelegramClient interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, fileData []byte, fileName string) error
}

// Notifier pushes emergency reports to the on-call doctor chat with the
// rendered PDF attached.
type Notifier struct {
	tgClient     TelegramClient
	doctorChatID int64
}

func NewNotifier(tg TelegramClient, doctorChatID int64) *Notifier {
	return &Notifier{tgClient: tg, doctorChatID: doctorChatID}
}

// NotifyEmergency sends the alert message and the PDF report. Failures are
// returned for the caller to log; the patient-facing response never depends
// on this path.
func (n *Notifier) NotifyEmergency(ctx context.Context, rep Report) error {
	text := fmt.Sprintf(
		"EMERGENCY assessment for %s (topic: %s). Report %s attached.",
		rep.PatientInfo.Name, rep.AssessmentTopic, rep.ReportID,
	)
	if err := n.tgClient.SendMessage(ctx, n.doctorChatID, text); err != nil {
		return fmt.Errorf("failed to send doctor alert: %w", err)
	}

	pdfData, err := RenderPDF(rep)
	if err != nil {
		return fmt.Errorf("failed to render report PDF: %w", err)
	}
	fileName := fmt.Sprintf("report_%s.pdf", rep.ReportID)
	if err := n.tgClient.SendDocument(ctx, n.doctorChatID, pdfData, fileName); err != nil {
		return fmt.Errorf("failed to send report document: %w", err)
	}
	logger.WithField("report_id", rep.ReportID).Info("emergency report sent to doctor chat")
	return nil
}
