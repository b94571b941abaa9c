package guidance

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// UrgencyLevel is a triage severity used by the guidance rules.
type UrgencyLevel string

const (
	UrgencySelfCare    UrgencyLevel = "self_care"
	UrgencyDoctorVisit UrgencyLevel = "doctor_visit"
	UrgencyEmergency   UrgencyLevel = "emergency"
)

// Levels lists the urgency levels in their fixed rendering order.
var Levels = []UrgencyLevel{UrgencySelfCare, UrgencyDoctorVisit, UrgencyEmergency}

// SymptomRule maps keyword phrases to follow-up questions, urgency text and
// advice for one named symptom.
type SymptomRule struct {
	Keywords          []string                `yaml:"keywords"`
	FollowUpQuestions []string                `yaml:"follow_up_questions"`
	UrgencyRules      map[UrgencyLevel]string `yaml:"urgency_rules"`
	AnalysisHints     string                  `yaml:"analysis_hints"`
	SuggestedAdvice   string                  `yaml:"suggested_advice"`
}

// SymptomSet holds the symptom rules keyed by id while remembering the
// document order of the ids. Matching iterates in that order, so the matched
// set is deterministic across processes.
type SymptomSet struct {
	ids   []string
	rules map[string]SymptomRule
}

func (s *SymptomSet) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("symptoms: expected a mapping, got %s", node.Tag)
	}
	s.rules = make(map[string]SymptomRule, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var id string
		if err := node.Content[i].Decode(&id); err != nil {
			return fmt.Errorf("symptoms: bad key: %w", err)
		}
		var rule SymptomRule
		if err := node.Content[i+1].Decode(&rule); err != nil {
			return fmt.Errorf("symptom %q: %w", id, err)
		}
		s.ids = append(s.ids, id)
		s.rules[id] = rule
	}
	return nil
}

// IDs returns the symptom ids in document order.
func (s *SymptomSet) IDs() []string { return s.ids }

// Rule looks up the rule for a symptom id.
func (s *SymptomSet) Rule(id string) (SymptomRule, bool) {
	rule, ok := s.rules[id]
	return rule, ok
}

// Len reports the number of symptoms.
func (s *SymptomSet) Len() int { return len(s.ids) }

// RuleTable is the static symptom-guidance table. It is loaded once at
// startup and never mutated afterwards, so concurrent readers need no
// synchronization.
type RuleTable struct {
	Symptoms          SymptomSet `yaml:"symptoms"`
	EmergencyKeywords []string   `yaml:"emergency_keywords"`
	Disclaimer        string     `yaml:"disclaimer"`
}

//go:embed rules.yaml
var defaultRules []byte

// Load reads the rule table from path, or the embedded default table when
// path is empty. A missing file or malformed document is a fatal startup
// condition for the guidance subsystem and is returned as an error.
func Load(path string) (*RuleTable, error) {
	content := defaultRules
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("guidance rules required but unreadable at %s: %w", path, err)
		}
		content = data
	}

	var table RuleTable
	if err := yaml.Unmarshal(content, &table); err != nil {
		return nil, fmt.Errorf("guidance rules malformed: %w", err)
	}
	if table.Symptoms.Len() == 0 {
		return nil, fmt.Errorf("guidance rules define no symptoms")
	}
	return &table, nil
}
