package report

import "encoding/json"

// UrgencyLevel is the report-facing triage severity.
type UrgencyLevel string

const (
	UrgencyRedEmergency      UrgencyLevel = "red_emergency"
	UrgencyYellowDoctorVisit UrgencyLevel = "yellow_doctor_visit"
	UrgencyGreenHomeCare     UrgencyLevel = "green_home_care"
)

// QA is one question/answer pair from the questionnaire and any LLM
// follow-ups.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type PatientInfo struct {
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Gender string `json:"gender"`
}

type HowCommon struct {
	Percentage  int    `json:"percentage"`
	Description string `json:"description"`
}

type CauseDetail struct {
	AboutThis       []string  `json:"about_this"`
	HowCommon       HowCommon `json:"how_common"`
	WhatYouCanDoNow []string  `json:"what_you_can_do_now"`
	Warning         string    `json:"warning,omitempty"`
}

// Cause is one entry in the differential list. Probability is advisory: the
// model is instructed that probabilities should sum to roughly 1.0 across
// causes, but nothing verifies or renormalizes them.
type Cause struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	ShortDescription string      `json:"short_description"`
	Subtitle         string      `json:"subtitle"`
	Severity         string      `json:"severity"`
	Probability      float64     `json:"probability"`
	Detail           CauseDetail `json:"detail"`
}

// Report is the structured assessment returned to the caller. Both the
// model-backed path and the fallback path produce this exact shape, so
// callers never branch on which path ran.
type Report struct {
	ReportID        string       `json:"report_id"`
	AssessmentTopic string       `json:"assessment_topic"`
	GeneratedAt     string       `json:"generated_at"`
	PatientInfo     PatientInfo  `json:"patient_info"`
	Summary         []string     `json:"summary"`
	PossibleCauses  []Cause      `json:"possible_causes"`
	Advice          []string     `json:"advice"`
	UrgencyLevel    UrgencyLevel `json:"urgency_level"`
}

// StringList accepts either a single JSON string or an array of strings.
// The clinical detail documents mix both forms freely.
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = []string{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

// SymptomDetail is the optional symptom-specific clinical context attached
// to a report request.
type SymptomDetail struct {
	Label                string                `json:"label"`
	DefaultUrgency       UrgencyLevel          `json:"default_urgency"`
	TriageRationale      map[string]StringList `json:"triage_rationale"`
	ImmediateRedFlags    []string              `json:"immediate_red_flags"`
	UrgencyDecisionLogic map[string][]string   `json:"urgency_decision_logic"`
	Advice               map[string]StringList `json:"advice"`
}
