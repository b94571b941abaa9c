package chat

import (
	"fmt"
	"strings"
)

// PersonaPrompt is the long-lived assistant identity and safety rules.
// Profile and report context get appended at runtime; the LLM never sees
// anything the server didn't inject this turn.
const PersonaPrompt = `You are Remy, a friendly and knowledgeable medical triage assistant.

Rules you MUST follow:
- Never diagnose definitively. You are not a doctor.
- Respect the urgency level from the patient's report.
- Be calm, clear, and structured in your responses.
- Follow medical safety boundaries at all times.
- Always recommend consulting a doctor for serious concerns.
- Be empathetic, warm, and supportive.
- Keep responses concise but helpful.
- If the patient asks something outside your scope, gently redirect.`

// ExtractPatientName pulls the patient's name from the profile Q&A list.
func ExtractPatientName(profile []ProfileEntry) string {
	for _, entry := range profile {
		if strings.Contains(strings.ToLower(entry.Question), "name") {
			if name := strings.TrimSpace(entry.Answer); name != "" {
				return name
			}
		}
	}
	return "there"
}

// BuildProfileSummary converts the profile Q&A array into flat facts for the
// LLM, stripping question-mark phrasing from the labels.
func BuildProfileSummary(profile []ProfileEntry) string {
	if len(profile) == 0 {
		return ""
	}
	lines := []string{"Patient Profile:"}
	for _, entry := range profile {
		label := entry.Question
		label = strings.ReplaceAll(label, "?", "")
		label = strings.ReplaceAll(label, "What is your ", "")
		label = strings.ReplaceAll(label, "What is ", "")
		label = strings.TrimSpace(label)
		lines = append(lines, fmt.Sprintf("- %s: %s", label, entry.Answer))
	}
	return strings.Join(lines, "\n")
}

// BuildReportContext renders the stored reports. A main report gets a
// detailed block introduced as the primary topic; non-main reports compress
// to one history line each. No reports means no section at all.
func BuildReportContext(reports []SessionReport) string {
	if len(reports) == 0 {
		return ""
	}

	var mainReport *SessionReport
	var otherReports []SessionReport
	for i := range reports {
		if reports[i].IsMain && mainReport == nil {
			mainReport = &reports[i]
		} else {
			otherReports = append(otherReports, reports[i])
		}
	}

	var sections []string

	if mainReport != nil {
		rd := mainReport.ReportData
		sections = append(sections,
			"-- CURRENT ASSESSMENT REPORT (Primary Topic) --\n"+
				"This conversation is a continuation of a medical assessment report.\n"+
				"The user may ask clarifications, question accuracy, or seek explanation.\n"+
				"Treat this report as the primary topic unless the user shifts topic.\n")

		urgency := string(rd.UrgencyLevel)
		if urgency == "" {
			urgency = "unknown"
		}
		sections = append(sections, "Urgency Level: "+urgency)

		if len(rd.Summary) > 0 {
			sections = append(sections, "Summary: "+strings.Join(rd.Summary, " "))
		}

		if len(rd.PossibleCauses) > 0 {
			var causeLines []string
			for _, c := range rd.PossibleCauses {
				title := c.Title
				if title == "" {
					title = "Unknown"
				}
				severity := c.Severity
				if severity == "" {
					severity = "unknown"
				}
				causeLines = append(causeLines, fmt.Sprintf("  - %s (%s, %d%% probability): %s",
					title, severity, int(c.Probability*100), c.ShortDescription))

				if len(c.Detail.WhatYouCanDoNow) > 0 {
					causeLines = append(causeLines, "    What patient can do: "+strings.Join(c.Detail.WhatYouCanDoNow, "; "))
				}
				if c.Detail.Warning != "" {
					causeLines = append(causeLines, "    Warning: "+c.Detail.Warning)
				}
			}
			sections = append(sections, "Possible Causes:\n"+strings.Join(causeLines, "\n"))
		}

		if len(rd.Advice) > 0 {
			sections = append(sections, "Advice: "+strings.Join(rd.Advice, "; "))
		}
	}

	if len(otherReports) > 0 {
		historyLines := []string{"Past Medical Reports:"}
		for _, r := range otherReports {
			date := r.GeneratedAt
			if date == "" {
				date = "unknown date"
			}
			brief := "No summary"
			if len(r.ReportData.Summary) > 0 {
				brief = r.ReportData.Summary[0]
			}
			historyLines = append(historyLines, fmt.Sprintf("  - %s: %s (Urgency: %s)",
				date, brief, r.ReportData.UrgencyLevel))
		}
		sections = append(sections, strings.Join(historyLines, "\n"))
	}

	return strings.Join(sections, "\n\n")
}

// BuildSystemPrompt assembles the complete per-turn system prompt:
// persona rules, then profile summary, then report context.
func BuildSystemPrompt(profile []ProfileEntry, reports []SessionReport) string {
	parts := []string{PersonaPrompt}

	if summary := BuildProfileSummary(profile); summary != "" {
		parts = append(parts, summary)
	}
	if reportCtx := BuildReportContext(reports); reportCtx != "" {
		parts = append(parts, reportCtx)
	}

	return strings.Join(parts, "\n\n")
}
