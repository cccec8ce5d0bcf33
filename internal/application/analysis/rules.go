package analysis

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	domain "github.com/akchatar/socialconnect-ai/internal/domain/analysis"
)

// CategorizeByRules scans free text against the vocabulary's keyword
// patterns and returns one validated hit per matching entry. Purely
// local and deterministic: iteration follows vocabulary definition
// order, the first matching keyword supplies the description, and a
// non-matching input yields an empty list. It never fails.
func CategorizeByRules(text string, vocab domain.Vocabulary) []domain.Item {
	var hits []domain.Item
	lower := strings.ToLower(text)

	for _, entry := range vocab {
		for _, kw := range entry.Keywords {
			if !keywordMatches(lower, kw) {
				continue
			}
			hits = append(hits, domain.Item{
				Label:       entry.Label,
				Description: fmt.Sprintf("Détecté via mot-clé (%q)", kw),
				Validated:   true,
			})
			break // one hit per vocabulary entry
		}
	}
	return hits
}

// keywordMatches requires a word boundary before the keyword, and for
// short keywords after it too, so "RIS" never fires on "prise".
func keywordMatches(lowerText, keyword string) bool {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return false
	}
	var pattern string
	if utf8.RuneCountInString(kw) <= 3 {
		pattern = `\b` + regexp.QuoteMeta(kw) + `\b`
	} else {
		pattern = `\b` + regexp.QuoteMeta(kw) + `\w*`
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		// QuoteMeta makes this unreachable; fall back to plain containment
		return strings.Contains(lowerText, kw)
	}
	return re.MatchString(lowerText)
}
