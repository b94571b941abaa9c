package report

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"triage-assistant/internal/llm"
	"triage-assistant/internal/platform/logger"
)

const (
	reportTemperature = 0.3
	reportMaxTokens   = 1500

	reportSystemPrompt = "You are a medical AI assistant that generates structured medical assessment reports. Always respond in valid JSON format."
)

// extractedFacts are the patient facts scanned out of the free-text Q&A.
// This is a narrow heuristic extractor: each field takes the answer of the
// first question whose text contains its keyword hint, and its guesses never
// leak into the schema invariants.
type extractedFacts struct {
	name           string
	ageRaw         string
	gender         string
	chiefComplaint string
}

func extractFacts(responses []QA) extractedFacts {
	var facts extractedFacts
	for _, qa := range responses {
		q := strings.ToLower(qa.Question)
		switch {
		case facts.name == "" && strings.Contains(q, "name"):
			facts.name = qa.Answer
		case facts.chiefComplaint == "" && (strings.Contains(q, "chief complaint") || strings.Contains(q, "current ailment")):
			facts.chiefComplaint = qa.Answer
		case facts.ageRaw == "" && strings.Contains(q, "age"):
			facts.ageRaw = qa.Answer
		case facts.gender == "" && (strings.Contains(q, "sex") || strings.Contains(q, "gender")):
			facts.gender = qa.Answer
		}
	}
	return facts
}

// ExtractAgeNumber parses an age answer. Values like "26_35" are range pairs
// and yield the midpoint by integer division; plain digits parse directly;
// anything else yields 0, never an error.
func ExtractAgeNumber(ageRaw string) int {
	if ageRaw == "" {
		return 0
	}
	if strings.Contains(ageRaw, "_") {
		parts := strings.Split(ageRaw, "_")
		if len(parts) >= 2 {
			lo, errLo := strconv.Atoi(strings.TrimSpace(parts[0]))
			hi, errHi := strconv.Atoi(strings.TrimSpace(parts[1]))
			if errLo == nil && errHi == nil {
				return (lo + hi) / 2
			}
		}
		return 0
	}
	if n, err := strconv.Atoi(strings.TrimSpace(ageRaw)); err == nil {
		return n
	}
	return 0
}

// buildAssessmentContext renders the Q&A transcript plus, when supplied, the
// clinical appendix as labeled text blocks. Map sections render in sorted
// key order so the context is deterministic.
func buildAssessmentContext(responses []QA, detail *SymptomDetail) string {
	var b strings.Builder
	b.WriteString("=== PATIENT ASSESSMENT DATA ===\n\n")
	for _, qa := range responses {
		fmt.Fprintf(&b, "Q: %s\nA: %s\n\n", qa.Question, qa.Answer)
	}

	if detail == nil {
		return b.String()
	}

	b.WriteString("\n=== SYMPTOM-SPECIFIC MEDICAL CONTEXT ===\n\n")
	label := detail.Label
	if label == "" {
		label = "Unknown"
	}
	urgency := string(detail.DefaultUrgency)
	if urgency == "" {
		urgency = "unknown"
	}
	fmt.Fprintf(&b, "Symptom: %s\n", label)
	fmt.Fprintf(&b, "Default Urgency: %s\n\n", urgency)

	if len(detail.TriageRationale) > 0 {
		b.WriteString("Clinical Considerations:\n")
		for _, key := range sortedKeys(detail.TriageRationale) {
			fmt.Fprintf(&b, "- %s: %s\n", key, strings.Join(detail.TriageRationale[key], ", "))
		}
		b.WriteString("\n")
	}

	if len(detail.ImmediateRedFlags) > 0 {
		b.WriteString("RED FLAGS to watch for:\n")
		for _, flag := range detail.ImmediateRedFlags {
			fmt.Fprintf(&b, "- %s\n", flag)
		}
		b.WriteString("\n")
	}

	if len(detail.UrgencyDecisionLogic) > 0 {
		b.WriteString("Urgency Classification Guidelines:\n")
		levels := make([]string, 0, len(detail.UrgencyDecisionLogic))
		for level := range detail.UrgencyDecisionLogic {
			levels = append(levels, level)
		}
		sort.Strings(levels)
		for _, level := range levels {
			fmt.Fprintf(&b, "\n%s:\n", strings.ToUpper(level))
			for _, criterion := range detail.UrgencyDecisionLogic[level] {
				fmt.Fprintf(&b, "  - %s\n", criterion)
			}
		}
		b.WriteString("\n")
	}

	if len(detail.Advice) > 0 {
		b.WriteString("Clinical Advice Guidelines:\n")
		for _, key := range sortedKeys(detail.Advice) {
			items := detail.Advice[key]
			if len(items) == 1 {
				fmt.Fprintf(&b, "%s: %s\n", key, items[0])
				continue
			}
			fmt.Fprintf(&b, "%s:\n", key)
			for _, item := range items {
				fmt.Fprintf(&b, "  - %s\n", item)
			}
		}
	}

	return b.String()
}

func sortedKeys(m map[string]StringList) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func buildReportPrompt(assessmentContext, chiefComplaint string) string {
	topic := chiefComplaint
	if topic == "" {
		topic = "general_health"
	}
	return assessmentContext + `

=== TASK ===
Based on the patient assessment data above, generate a comprehensive medical report in STRICT JSON format.

You are a medical AI assistant. Analyze the patient's information and provide:
1. A concise summary of key findings (3-5 bullet points)
2. Possible causes/differential diagnoses (2-3 most likely, with detailed breakdown)
3. Actionable medical advice (4-6 recommendations)
4. Urgency level determination

REQUIRED JSON OUTPUT FORMAT:
{
  "assessment_topic": "` + topic + `",
  "summary": ["Brief clinical point 1", "Brief clinical point 2", "Brief clinical point 3"],
  "possible_causes": [
    {
      "id": "condition_name_lowercase",
      "title": "Condition Name",
      "short_description": "Brief one-line description suitable for list view",
      "subtitle": "Optional context or common association",
      "severity": "mild|moderate|severe",
      "probability": 0.0,
      "detail": {
        "about_this": ["Explanation point 1 about the condition", "Explanation point 2"],
        "how_common": {
          "percentage": 60,
          "description": "6 out of 10 people with similar symptoms had this"
        },
        "what_you_can_do_now": ["Specific actionable step 1", "Specific actionable step 2"],
        "warning": "Optional warning text if there are concerning factors"
      }
    }
  ],
  "advice": ["Specific actionable recommendation 1", "Specific actionable recommendation 2"],
  "urgency_level": "red_emergency|yellow_doctor_visit|green_home_care"
}

IMPORTANT GUIDELINES:
- Be specific and actionable in advice
- Use evidence-based recommendations
- Consider patient age and gender in assessment
- probability should sum to ~1.0 across all causes
- urgency_level must match the clinical urgency guidelines provided
- Keep language clear and patient-friendly
- "id" should be lowercase with underscores (e.g., "tension_headache", "viral_infection")
- "short_description" should be under 10 words
- "subtitle" should provide helpful context (e.g., "Often linked to stress")
- "how_common percentage" should be realistic (10-90 range)
- Do NOT include treatment recommendations requiring diagnosis

Generate the JSON report now:`
}

// Synthesizer turns a completed questionnaire into a structured Report.
type Synthesizer struct {
	llm     llm.Client
	timeout time.Duration

	// injectable for tests
	now   func() time.Time
	newID func() string
}

func NewSynthesizer(client llm.Client, timeout time.Duration) *Synthesizer {
	return &Synthesizer{
		llm:     client,
		timeout: timeout,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Synthesize generates a report from the questionnaire responses and the
// optional clinical detail. It never fails: when the model is unavailable or
// answers outside the JSON contract, the deterministic fallback report is
// returned instead. No partial report is ever surfaced.
func (s *Synthesizer) Synthesize(ctx context.Context, responses []QA, detail *SymptomDetail) Report {
	facts := extractFacts(responses)
	prompt := buildReportPrompt(buildAssessmentContext(responses, detail), facts.chiefComplaint)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	content, err := s.llm.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: reportSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: reportTemperature,
		MaxTokens:   reportMaxTokens,
		JSONObject:  true,
	})
	if err != nil {
		logger.WithField("error", err.Error()).Warn("report generation falling back")
		return s.fallbackReport(facts, detail)
	}

	var partial struct {
		AssessmentTopic string       `json:"assessment_topic"`
		Summary         []string     `json:"summary"`
		PossibleCauses  []Cause      `json:"possible_causes"`
		Advice          []string     `json:"advice"`
		UrgencyLevel    UrgencyLevel `json:"urgency_level"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &partial); err != nil {
		logger.WithField("error", err.Error()).Warn("report JSON malformed, falling back")
		return s.fallbackReport(facts, detail)
	}

	rep := Report{
		ReportID:        s.newID(),
		AssessmentTopic: partial.AssessmentTopic,
		GeneratedAt:     s.now().UTC().Format("2006-01-02T15:04:05Z"),
		PatientInfo:     s.patientInfo(facts),
		Summary:         partial.Summary,
		PossibleCauses:  partial.PossibleCauses,
		Advice:          partial.Advice,
		UrgencyLevel:    partial.UrgencyLevel,
	}

	// Backfill anything the model left out so the shape is always complete.
	if rep.AssessmentTopic == "" {
		rep.AssessmentTopic = topicOrDefault(facts.chiefComplaint)
	}
	if len(rep.Summary) == 0 {
		rep.Summary = []string{"Assessment completed based on provided information."}
	}
	if rep.PossibleCauses == nil {
		rep.PossibleCauses = []Cause{}
	}
	if len(rep.Advice) == 0 {
		rep.Advice = []string{"Consult with a healthcare provider for personalized advice."}
	}
	switch rep.UrgencyLevel {
	case UrgencyRedEmergency, UrgencyYellowDoctorVisit, UrgencyGreenHomeCare:
	default:
		rep.UrgencyLevel = defaultUrgency(detail)
	}

	return rep
}

func (s *Synthesizer) patientInfo(facts extractedFacts) PatientInfo {
	name := facts.name
	if name == "" {
		name = "Unknown"
	}
	gender := facts.gender
	if gender == "" {
		gender = "unknown"
	}
	return PatientInfo{
		Name:   name,
		Age:    ExtractAgeNumber(facts.ageRaw),
		Gender: gender,
	}
}

func topicOrDefault(chiefComplaint string) string {
	if chiefComplaint == "" {
		return "general_health"
	}
	return chiefComplaint
}

func defaultUrgency(detail *SymptomDetail) UrgencyLevel {
	if detail != nil {
		switch detail.DefaultUrgency {
		case UrgencyRedEmergency, UrgencyYellowDoctorVisit, UrgencyGreenHomeCare:
			return detail.DefaultUrgency
		}
	}
	return UrgencyGreenHomeCare
}

// fallbackReport is the deterministic, feature-complete substitute produced
// when the model is unavailable. Same shape as the normal path.
func (s *Synthesizer) fallbackReport(facts extractedFacts, detail *SymptomDetail) Report {
	topic := topicOrDefault(facts.chiefComplaint)

	return Report{
		ReportID:        s.newID(),
		AssessmentTopic: topic,
		GeneratedAt:     s.now().UTC().Format("2006-01-02T15:04:05Z"),
		PatientInfo:     s.patientInfo(facts),
		Summary: []string{
			fmt.Sprintf("Assessment received for %s.", topic),
			"Your symptoms have been documented.",
			"A healthcare professional should review your case.",
		},
		PossibleCauses: []Cause{
			{
				ID:               "general_assessment",
				Title:            "Various possible conditions",
				ShortDescription: "Multiple conditions could explain symptoms",
				Subtitle:         "Requires professional medical evaluation",
				Severity:         "unknown",
				Probability:      1.0,
				Detail: CauseDetail{
					AboutThis: []string{
						"Multiple conditions could explain your symptoms.",
						"A medical professional can provide accurate diagnosis.",
						"Your specific case requires individual assessment.",
					},
					HowCommon: HowCommon{
						Percentage:  50,
						Description: "Varies widely based on specific symptoms and history",
					},
					WhatYouCanDoNow: []string{
						"Document any changes in your symptoms",
						"Monitor your condition closely",
						"Keep track of when symptoms occur",
						"Note what makes symptoms better or worse",
					},
					Warning: "Seek immediate medical attention if symptoms worsen or new concerning symptoms develop",
				},
			},
		},
		Advice: []string{
			"Document any changes in your symptoms.",
			"Monitor your condition closely.",
			"Seek medical attention if symptoms worsen.",
			"Consult with a healthcare provider for proper diagnosis.",
		},
		UrgencyLevel: defaultUrgency(detail),
	}
}
