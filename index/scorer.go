package index

import "strings"

const (
	phraseBonus   = 5.0
	coverageBonus = 3.0
)

// basicScore counts how many distinct query terms occur in content.
// Repeat occurrences of a term do not add anything.
func basicScore(query, content string) float64 {
	content = strings.ToLower(content)

	score := 0.0
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if strings.Contains(content, term) {
			score++
		}
	}
	return score
}

// enhancedScore weighs exact phrase matches, per-term frequency and query
// coverage. Used only when the semantic-assist collaborator is ready; the
// engine falls back to basicScore otherwise.
func enhancedScore(query, content string) float64 {
	q := strings.ToLower(query)
	content = strings.ToLower(content)

	score := 0.0
	if q != "" && strings.Contains(content, q) {
		score += phraseBonus
	}

	terms := strings.Fields(q)
	found := 0
	for _, term := range terms {
		if strings.Contains(content, term) {
			found++
			score += float64(countOverlapping(content, term))
		}
	}

	if len(terms) > 0 {
		score += coverageBonus * float64(found) / float64(len(terms))
	}
	return score
}

// countOverlapping counts occurrences of sub in s, overlap included, which
// strings.Count does not do.
func countOverlapping(s, sub string) int {
	if sub == "" {
		return 0
	}
	n := 0
	for i := 0; ; i++ {
		j := strings.Index(s[i:], sub)
		if j < 0 {
			return n
		}
		i += j
		n++
	}
}
