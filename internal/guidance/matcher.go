package guidance

import "strings"

// Normalize lowercases, trims and collapses internal whitespace so that
// complaint and keyword text compare on equal footing.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Match returns the symptom ids whose keywords match the complaint, in
// rule-table document order, each id at most once. An empty complaint
// matches nothing.
//
// Per (symptom, keyword) pair four passes run in order, first success wins:
// exact equality, keyword-in-complaint, complaint-in-keyword, then
// whitespace-insensitive containment in either direction (so "headpain"
// still finds "head pain"). Substring matching is deliberately permissive:
// terse and verbose phrasings of the same complaint should both hit.
func Match(complaint string, table *RuleTable) []string {
	matched := []string{}
	if table == nil {
		return matched
	}
	normalized := Normalize(complaint)
	if normalized == "" {
		return matched
	}
	compact := strings.ReplaceAll(normalized, " ", "")

	for _, id := range table.Symptoms.IDs() {
		rule, ok := table.Symptoms.Rule(id)
		if !ok {
			continue
		}
		for _, keyword := range rule.Keywords {
			if keywordMatches(normalized, compact, keyword) {
				matched = append(matched, id)
				break
			}
		}
	}
	return matched
}

func keywordMatches(complaint, complaintCompact, keyword string) bool {
	kw := Normalize(keyword)
	if kw == "" {
		return false
	}
	if kw == complaint {
		return true
	}
	if strings.Contains(complaint, kw) {
		return true
	}
	if strings.Contains(kw, complaint) {
		return true
	}
	kwCompact := strings.ReplaceAll(kw, " ", "")
	return strings.Contains(complaintCompact, kwCompact) || strings.Contains(kwCompact, complaintCompact)
}
