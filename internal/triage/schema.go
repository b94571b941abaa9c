package triage

import (
	"strconv"
	"strings"
)

// Demographics holds the fixed patient identity fields. Age is a pointer so
// "not answered" stays distinguishable from zero.
type Demographics struct {
	Age    *int   `json:"age"`
	Gender string `json:"gender,omitempty"`
}

// MedicalSchema is the canonical patient state for one questionnaire session.
// The fixed fields come from the questionnaire; the dynamic fields start
// empty and are only ever appended to during the conversation, so the full
// audit trail survives every turn.
type MedicalSchema struct {
	Demographics     Demographics `json:"demographics"`
	MedicalHistory   []string     `json:"medical_history"`
	CurrentComplaint string       `json:"current_complaint,omitempty"`
	SymptomDuration  string       `json:"symptom_duration,omitempty"`
	RedFlags         []string     `json:"red_flags"`
	Allergies        []string     `json:"allergies"`
	Medications      []string     `json:"medications"`
	PregnancyStatus  string       `json:"pregnancy_status,omitempty"`

	// Dynamic fields, populated by the conversation rather than the
	// questionnaire. Append-only.
	Observations    []string          `json:"observations"`
	FollowUpAnswers map[string]string `json:"follow_up_answers"`
	DerivedFindings []string          `json:"derived_findings"`
	LLMAdvice       []string          `json:"llm_advice"`
	Urgency         string            `json:"urgency,omitempty"`
	Confidence      *float64          `json:"confidence,omitempty"`
}

// normalizeValue lowercases and trims a raw answer.
func normalizeValue(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var historyNegations = map[string]struct{}{
	"none":    {},
	"no":      {},
	"nothing": {},
	"n/a":     {},
}

// historySeparators in priority order; the first one present in the text
// wins. " and " is matched with surrounding spaces so words like "band"
// don't split.
var historySeparators = []string{",", ";", " and ", "&"}

// ParseMedicalHistory turns a free-text history answer into a list of
// normalized entries. Negation answers yield an empty list.
func ParseMedicalHistory(text string) []string {
	normalized := normalizeValue(text)
	if normalized == "" {
		return []string{}
	}
	if _, negated := historyNegations[normalized]; negated {
		return []string{}
	}

	tokens := []string{normalized}
	for _, sep := range historySeparators {
		if strings.Contains(normalized, sep) {
			tokens = strings.Split(normalized, sep)
			break
		}
	}

	items := []string{}
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if _, negated := historyNegations[token]; negated {
			continue
		}
		items = append(items, token)
	}
	return items
}

// extractFirstNumber returns the first run of digits in the text. The second
// return is false when the text carries no digits at all.
func extractFirstNumber(text string) (int, bool) {
	start := -1
	for i, r := range text {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			n, err := strconv.Atoi(text[start:i])
			return n, err == nil
		}
	}
	if start >= 0 {
		n, err := strconv.Atoi(text[start:])
		return n, err == nil
	}
	return 0, false
}

// BuildSchema normalizes raw questionnaire answers into a MedicalSchema.
// Unrecognized question keys are ignored so questionnaire changes don't
// break older clients. Dynamic fields always start at their empty defaults.
func BuildSchema(answers map[string]string) MedicalSchema {
	schema := MedicalSchema{
		MedicalHistory:  []string{},
		RedFlags:        []string{},
		Allergies:       []string{},
		Medications:     []string{},
		Observations:    []string{},
		FollowUpAnswers: map[string]string{},
		DerivedFindings: []string{},
		LLMAdvice:       []string{},
	}

	if raw, ok := answers["q_age"]; ok {
		if age, found := extractFirstNumber(raw); found {
			schema.Demographics.Age = &age
		}
	}
	if raw, ok := answers["q_gender"]; ok {
		schema.Demographics.Gender = normalizeValue(raw)
	}
	if raw, ok := answers["q_med_history"]; ok {
		schema.MedicalHistory = ParseMedicalHistory(raw)
	}
	if raw, ok := answers["q_current_ailment"]; ok {
		schema.CurrentComplaint = normalizeValue(raw)
	}
	if raw, ok := answers["q_pregnant"]; ok {
		schema.PregnancyStatus = normalizeValue(raw)
	}

	return schema
}
