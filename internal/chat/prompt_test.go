package chat

import (
	"strings"
	"testing"

	"triage-assistant/internal/report"
)

func sampleProfile() []ProfileEntry {
	return []ProfileEntry{
		{Question: "What is your name?", Answer: "Alice"},
		{Question: "What is your age?", Answer: "30"},
		{Question: "Do you smoke?", Answer: "no"},
	}
}

func mainReport() SessionReport {
	return SessionReport{
		IsMain:      true,
		GeneratedAt: "2024-05-01T12:00:00Z",
		ReportData: report.Report{
			UrgencyLevel: report.UrgencyYellowDoctorVisit,
			Summary:      []string{"Persistent cough for two weeks.", "No fever reported."},
			PossibleCauses: []report.Cause{
				{
					Title:            "Viral infection",
					Severity:         "mild",
					Probability:      0.7,
					ShortDescription: "Common and self-limiting",
					Detail: report.CauseDetail{
						WhatYouCanDoNow: []string{"Rest", "Hydrate"},
						Warning:         "See a doctor if coughing blood",
					},
				},
			},
			Advice: []string{"Rest well", "Stay hydrated"},
		},
	}
}

func historyReport() SessionReport {
	return SessionReport{
		GeneratedAt: "2024-01-15T09:00:00Z",
		ReportData: report.Report{
			UrgencyLevel: report.UrgencyGreenHomeCare,
			Summary:      []string{"Mild headache, resolved."},
		},
	}
}

func TestExtractPatientName(t *testing.T) {
	if got := ExtractPatientName(sampleProfile()); got != "Alice" {
		t.Fatalf("name = %q", got)
	}
	if got := ExtractPatientName(nil); got != "there" {
		t.Fatalf("default name = %q", got)
	}
}

func TestBuildProfileSummaryStripsQuestionPhrasing(t *testing.T) {
	summary := BuildProfileSummary(sampleProfile())
	for _, want := range []string{
		"Patient Profile:",
		"- name: Alice",
		"- age: 30",
		"- Do you smoke: no",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q in:\n%s", want, summary)
		}
	}
	if strings.Contains(summary, "?") {
		t.Error("summary must not carry question marks")
	}
}

func TestBuildProfileSummaryEmpty(t *testing.T) {
	if got := BuildProfileSummary(nil); got != "" {
		t.Fatalf("expected empty summary, got %q", got)
	}
}

func TestBuildReportContextMainReport(t *testing.T) {
	ctx := BuildReportContext([]SessionReport{mainReport(), historyReport()})

	for _, want := range []string{
		"CURRENT ASSESSMENT REPORT (Primary Topic)",
		"Urgency Level: yellow_doctor_visit",
		"Summary: Persistent cough for two weeks. No fever reported.",
		"- Viral infection (mild, 70% probability): Common and self-limiting",
		"What patient can do: Rest; Hydrate",
		"Warning: See a doctor if coughing blood",
		"Advice: Rest well; Stay hydrated",
		"Past Medical Reports:",
		"- 2024-01-15T09:00:00Z: Mild headache, resolved. (Urgency: green_home_care)",
	} {
		if !strings.Contains(ctx, want) {
			t.Errorf("report context missing %q", want)
		}
	}
}

func TestBuildReportContextNoReports(t *testing.T) {
	if got := BuildReportContext(nil); got != "" {
		t.Fatalf("no reports must yield no section, got %q", got)
	}
}

func TestBuildSystemPromptLayering(t *testing.T) {
	prompt := BuildSystemPrompt(sampleProfile(), []SessionReport{mainReport()})

	personaIdx := strings.Index(prompt, "You are Remy")
	profileIdx := strings.Index(prompt, "Patient Profile:")
	reportIdx := strings.Index(prompt, "CURRENT ASSESSMENT REPORT")
	if personaIdx != 0 || profileIdx < personaIdx || reportIdx < profileIdx {
		t.Fatalf("prompt sections out of order: persona=%d profile=%d report=%d",
			personaIdx, profileIdx, reportIdx)
	}
}

func TestBuildSystemPromptWithoutContext(t *testing.T) {
	prompt := BuildSystemPrompt(nil, nil)
	if !strings.HasPrefix(prompt, "You are Remy") {
		t.Fatal("persona must always lead the prompt")
	}
	if strings.Contains(prompt, "Patient Profile:") || strings.Contains(prompt, "ASSESSMENT REPORT") {
		t.Fatal("absent context must not render placeholder sections")
	}
}
