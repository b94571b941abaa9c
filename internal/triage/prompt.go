package triage

import (
	"fmt"
	"strconv"
	"strings"

	"triage-assistant/internal/guidance"
)

// SystemPrompt states the assistant's role, its constraints, and the
// response contract the model must follow: exactly one of three JSON shapes.
const SystemPrompt = `You are a medical guidance assistant. You are NOT a doctor and do NOT diagnose.

Your role:
- Ask follow-up questions before giving advice
- Use provided guidance as suggestions, not rules
- DO NOT contradict urgency classifications
- Be concise and helpful
- Always ask clarifying questions first, then provide guidance

Response format: You MUST respond with valid JSON in one of these formats:

1. To ask a follow-up question:
{
  "type": "question",
  "text": "What is your temperature?",
  "expected_format": "Eg: 101F"
}

2. To provide analysis and guidance:
{
  "type": "analysis",
  "summary": "Based on your symptoms...",
  "urgency": "self_care|doctor_visit|emergency",
  "advice": ["Rest and stay hydrated", "Monitor symptoms"]
}

3. To offer next steps:
{
  "type": "decision",
  "text": "Would you like a summary report or continue chatting?",
  "options": ["Generate report", "Continue"]
}

Always respond with valid JSON only.`

const (
	maxPromptQuestions         = 3
	maxPromptEmergencyKeywords = 10
)

// ComposeGuidancePrompt deterministically renders the schema, the guidance
// bundle and the user's message into the context block that follows the
// system prompt. No timestamps, no randomness, no map-order leakage: the
// same inputs always yield byte-identical text.
func ComposeGuidancePrompt(schema MedicalSchema, bundle guidance.Bundle, userMessage string) string {
	age := "unknown"
	if schema.Demographics.Age != nil {
		age = strconv.Itoa(*schema.Demographics.Age)
	}
	gender := schema.Demographics.Gender
	if gender == "" {
		gender = "unknown"
	}
	complaint := schema.CurrentComplaint
	if complaint == "" {
		complaint = "none specified"
	}
	history := "none"
	if len(schema.MedicalHistory) > 0 {
		history = strings.Join(schema.MedicalHistory, ", ")
	}
	pregnancy := schema.PregnancyStatus
	if pregnancy == "" {
		pregnancy = "not applicable"
	}

	var b strings.Builder
	b.WriteString("PATIENT CONTEXT:\n")
	fmt.Fprintf(&b, "- Age: %s\n", age)
	fmt.Fprintf(&b, "- Gender: %s\n", gender)
	fmt.Fprintf(&b, "- Current complaint: %s\n", complaint)
	fmt.Fprintf(&b, "- Medical history: %s\n", history)
	fmt.Fprintf(&b, "- Pregnancy status: %s\n", pregnancy)

	fmt.Fprintf(&b, "\nMATCHED SYMPTOMS: %s\n", strings.Join(bundle.MatchedSymptoms, ", "))

	b.WriteString("\nSUGGESTED FOLLOW-UP QUESTIONS:\n")
	for i, q := range bundle.FollowUpQuestions {
		if i >= maxPromptQuestions {
			break
		}
		fmt.Fprintf(&b, "- %s\n", q)
	}

	b.WriteString("\nURGENCY GUIDELINES:\n")
	fmt.Fprintf(&b, "- Self-care: %s\n", urgencyOrNA(bundle, guidance.UrgencySelfCare))
	fmt.Fprintf(&b, "- Doctor visit: %s\n", urgencyOrNA(bundle, guidance.UrgencyDoctorVisit))
	fmt.Fprintf(&b, "- Emergency: %s\n", urgencyOrNA(bundle, guidance.UrgencyEmergency))

	b.WriteString("\nANALYSIS HINTS:\n")
	for _, hint := range bundle.AnalysisHints {
		fmt.Fprintf(&b, "- %s\n", hint)
	}

	b.WriteString("\nSUGGESTED ADVICE:\n")
	for _, advice := range bundle.SuggestedAdvice {
		fmt.Fprintf(&b, "- %s\n", advice)
	}

	keywords := bundle.EmergencyKeywords
	if len(keywords) > maxPromptEmergencyKeywords {
		keywords = keywords[:maxPromptEmergencyKeywords]
	}
	fmt.Fprintf(&b, "\nEMERGENCY KEYWORDS TO WATCH FOR:\n%s\n", strings.Join(keywords, ", "))

	fmt.Fprintf(&b, "\nUSER'S CURRENT MESSAGE: %q\n", userMessage)

	b.WriteString(`
Instructions:
1. If this is early in the conversation or you need more information, ask a relevant follow-up question
2. If you have enough information, provide analysis with appropriate urgency level
3. Use the guidance above as suggestions, not strict rules
4. Do NOT diagnose or make definitive medical statements
5. If user mentions emergency keywords, classify as "emergency" urgency
`)

	return b.String()
}

func urgencyOrNA(bundle guidance.Bundle, level guidance.UrgencyLevel) string {
	if text, ok := bundle.UrgencyRules[level]; ok && text != "" {
		return text
	}
	return "N/A"
}

// ComposeFullPrompt joins the system prompt and the rendered context block.
func ComposeFullPrompt(schema MedicalSchema, bundle guidance.Bundle, userMessage string) string {
	return SystemPrompt + "\n\n" + ComposeGuidancePrompt(schema, bundle, userMessage)
}
