package guidance

import "strings"

// Bundle is the per-request aggregate of all rules triggered by a complaint.
// It is derived, never persisted, and recomputed for every request.
type Bundle struct {
	MatchedSymptoms   []string                `json:"matched_symptoms"`
	FollowUpQuestions []string                `json:"follow_up_questions"`
	UrgencyRules      map[UrgencyLevel]string `json:"urgency_rules"`
	AnalysisHints     []string                `json:"analysis_hints"`
	SuggestedAdvice   []string                `json:"suggested_advice"`
	EmergencyKeywords []string                `json:"emergency_keywords"`
	Disclaimer        string                  `json:"disclaimer"`
}

// Aggregate combines the rule fragments of the matched symptoms into one
// deduplicated bundle. Emergency keywords and the disclaimer are global so
// they are carried even when nothing matched. Matched ids missing from the
// table are skipped silently: the matcher and the table are expected to stay
// in sync but drift must not crash a request.
func Aggregate(matched []string, table *RuleTable) Bundle {
	bundle := Bundle{
		MatchedSymptoms:   matched,
		FollowUpQuestions: []string{},
		UrgencyRules:      map[UrgencyLevel]string{},
		AnalysisHints:     []string{},
		SuggestedAdvice:   []string{},
	}
	if bundle.MatchedSymptoms == nil {
		bundle.MatchedSymptoms = []string{}
	}
	if table == nil {
		return bundle
	}
	bundle.EmergencyKeywords = table.EmergencyKeywords
	bundle.Disclaimer = table.Disclaimer
	if len(matched) == 0 {
		return bundle
	}

	seenQuestions := make(map[string]struct{})
	seenHints := make(map[string]struct{})
	seenAdvice := make(map[string]struct{})
	combinedUrgency := make(map[UrgencyLevel][]string)

	for _, id := range matched {
		rule, ok := table.Symptoms.Rule(id)
		if !ok {
			continue
		}

		for _, q := range rule.FollowUpQuestions {
			if _, dup := seenQuestions[q]; dup {
				continue
			}
			seenQuestions[q] = struct{}{}
			bundle.FollowUpQuestions = append(bundle.FollowUpQuestions, q)
		}

		for level, text := range rule.UrgencyRules {
			combinedUrgency[level] = append(combinedUrgency[level], text)
		}

		if rule.AnalysisHints != "" {
			if _, dup := seenHints[rule.AnalysisHints]; !dup {
				seenHints[rule.AnalysisHints] = struct{}{}
				bundle.AnalysisHints = append(bundle.AnalysisHints, rule.AnalysisHints)
			}
		}
		if rule.SuggestedAdvice != "" {
			if _, dup := seenAdvice[rule.SuggestedAdvice]; !dup {
				seenAdvice[rule.SuggestedAdvice] = struct{}{}
				bundle.SuggestedAdvice = append(bundle.SuggestedAdvice, rule.SuggestedAdvice)
			}
		}
	}

	// A level supplied by a single symptom passes through unmodified; two or
	// more contributors are joined with " OR ".
	for level, texts := range combinedUrgency {
		bundle.UrgencyRules[level] = strings.Join(texts, " OR ")
	}

	return bundle
}

// GuidanceFor runs the full match-and-aggregate pipeline for a complaint.
// It never fails: a nil table yields an empty, safe bundle.
func (t *RuleTable) GuidanceFor(complaint string) Bundle {
	return Aggregate(Match(complaint, t), t)
}
