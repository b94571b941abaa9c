package guidance

import (
	"reflect"
	"testing"

	"gopkg.in/yaml.v3"
)

const aggregatorFixture = `
symptoms:
  feverish:
    keywords: [fever]
    follow_up_questions:
      - What is your temperature?
      - How long have you had the fever?
    urgency_rules:
      self_care: Rest at home
      doctor_visit: A
    analysis_hints: Consider viral infection.
    suggested_advice: Drink fluids.
  headache:
    keywords: [headache]
    follow_up_questions:
      - How long have you had the headache?
      - What is your temperature?
    urgency_rules:
      doctor_visit: B
    analysis_hints: Consider viral infection.
    suggested_advice: Rest in a dark room.
emergency_keywords: [chest pain, unconscious]
disclaimer: Not medical advice.
`

func fixtureTable(t *testing.T) *RuleTable {
	t.Helper()
	var table RuleTable
	if err := yaml.Unmarshal([]byte(aggregatorFixture), &table); err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	return &table
}

func TestAggregateEmptyMatched(t *testing.T) {
	table := fixtureTable(t)
	bundle := Aggregate(nil, table)

	if len(bundle.MatchedSymptoms) != 0 || len(bundle.FollowUpQuestions) != 0 ||
		len(bundle.UrgencyRules) != 0 || len(bundle.AnalysisHints) != 0 ||
		len(bundle.SuggestedAdvice) != 0 {
		t.Fatalf("expected empty bundle fields, got %+v", bundle)
	}
	if !reflect.DeepEqual(bundle.EmergencyKeywords, []string{"chest pain", "unconscious"}) {
		t.Fatalf("emergency keywords not carried: %v", bundle.EmergencyKeywords)
	}
	if bundle.Disclaimer != "Not medical advice." {
		t.Fatalf("disclaimer not carried: %q", bundle.Disclaimer)
	}
}

func TestAggregateMergesUrgencyWithOR(t *testing.T) {
	table := fixtureTable(t)
	bundle := Aggregate([]string{"feverish", "headache"}, table)

	if got := bundle.UrgencyRules[UrgencyDoctorVisit]; got != "A OR B" {
		t.Fatalf("doctor_visit = %q, want %q", got, "A OR B")
	}
	// Single contributor passes through without delimiter artifacts.
	if got := bundle.UrgencyRules[UrgencySelfCare]; got != "Rest at home" {
		t.Fatalf("self_care = %q, want %q", got, "Rest at home")
	}
}

func TestAggregateSingleSymptomUrgencyUnmodified(t *testing.T) {
	table := fixtureTable(t)
	bundle := Aggregate([]string{"feverish"}, table)
	if got := bundle.UrgencyRules[UrgencyDoctorVisit]; got != "A" {
		t.Fatalf("doctor_visit = %q, want %q", got, "A")
	}
}

func TestAggregateDeduplicatesFirstSeenOrder(t *testing.T) {
	table := fixtureTable(t)
	bundle := Aggregate([]string{"feverish", "headache"}, table)

	wantQuestions := []string{
		"What is your temperature?",
		"How long have you had the fever?",
		"How long have you had the headache?",
	}
	if !reflect.DeepEqual(bundle.FollowUpQuestions, wantQuestions) {
		t.Fatalf("questions = %v, want %v", bundle.FollowUpQuestions, wantQuestions)
	}
	if !reflect.DeepEqual(bundle.AnalysisHints, []string{"Consider viral infection."}) {
		t.Fatalf("hints = %v", bundle.AnalysisHints)
	}
	if !reflect.DeepEqual(bundle.SuggestedAdvice, []string{"Drink fluids.", "Rest in a dark room."}) {
		t.Fatalf("advice = %v", bundle.SuggestedAdvice)
	}
}

func TestAggregateSkipsUnknownSymptoms(t *testing.T) {
	table := fixtureTable(t)
	bundle := Aggregate([]string{"feverish", "ghost_symptom"}, table)

	if got := bundle.UrgencyRules[UrgencyDoctorVisit]; got != "A" {
		t.Fatalf("doctor_visit = %q, unknown id should contribute nothing", got)
	}
	if !reflect.DeepEqual(bundle.MatchedSymptoms, []string{"feverish", "ghost_symptom"}) {
		t.Fatalf("matched ids should pass through unchanged: %v", bundle.MatchedSymptoms)
	}
}

func TestGuidanceForNilTable(t *testing.T) {
	var table *RuleTable
	bundle := table.GuidanceFor("headache")
	if len(bundle.MatchedSymptoms) != 0 {
		t.Fatalf("nil table should match nothing: %v", bundle.MatchedSymptoms)
	}
}

func TestLoadRejectsEmptyTable(t *testing.T) {
	if _, err := Load("testdata/does-not-exist.yaml"); err == nil {
		t.Fatal("expected error for missing rules file")
	}
}
