package classify

import "strings"

// Score returns the fraction of keywords present as substrings of the
// lowercased text, plus the matched keywords in signature order. Substring
// containment only; no fuzzy matching. Empty text scores 0 everywhere.
func Score(text string, keywords []string) (float64, []string) {
	if len(keywords) == 0 {
		return 0, nil
	}
	lower := strings.ToLower(text)
	var matched []string
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			matched = append(matched, keyword)
		}
	}
	return float64(len(matched)) / float64(len(keywords)), matched
}
