package analysis

import "strings"

// similarityThreshold is the floor for the token-overlap stage of label
// resolution. Below it a model label cannot be trusted to map onto a
// known category and is kept verbatim.
const similarityThreshold = 0.5

// BestMatch resolves a model-produced label against the controlled
// vocabulary. Stages, strongest first:
//
//  1. exact case-insensitive match;
//  2. substring containment either way, longest vocabulary label wins
//     ("CPAS" inside "Aide CPAS urgente");
//  3. word-set overlap (Dice coefficient) at or above the threshold.
//
// Returns the canonical label and whether resolution succeeded.
func BestMatch(candidate string, labels []string) (string, bool) {
	norm := strings.ToLower(strings.TrimSpace(candidate))
	if norm == "" {
		return "", false
	}

	for _, l := range labels {
		if strings.ToLower(l) == norm {
			return l, true
		}
	}

	var partial string
	for _, l := range labels {
		ll := strings.ToLower(l)
		if strings.Contains(norm, ll) || strings.Contains(ll, norm) {
			if len(l) > len(partial) {
				partial = l
			}
		}
	}
	if partial != "" {
		return partial, true
	}

	var best string
	var bestScore float64
	for _, l := range labels {
		if s := diceOverlap(norm, strings.ToLower(l)); s > bestScore {
			best, bestScore = l, s
		}
	}
	if bestScore >= similarityThreshold {
		return best, true
	}
	return "", false
}

// diceOverlap computes 2|A∩B| / (|A|+|B|) over the word sets of a and b.
func diceOverlap(a, b string) float64 {
	aw := wordSet(a)
	bw := wordSet(b)
	if len(aw) == 0 || len(bw) == 0 {
		return 0
	}
	common := 0
	for w := range aw {
		if bw[w] {
			common++
		}
	}
	return 2 * float64(common) / float64(len(aw)+len(bw))
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '/' || r == ';' || r == '(' || r == ')' || r == ',' || r == '-'
	}) {
		if w != "" {
			set[w] = true
		}
	}
	return set
}
