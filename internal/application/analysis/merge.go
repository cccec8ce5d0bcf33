package analysis

import (
	"strings"

	domain "github.com/akchatar/socialconnect-ai/internal/domain/analysis"
)

// Merge reconciles model output with rule hits against the controlled
// vocabulary and returns one deduplicated result.
//
// Model labels are resolved through BestMatch; an unresolvable label is
// kept verbatim and stays unvalidated. Every label confirmed by a rule
// hit is forced validated and collapsed into a single entry, where the
// model's description wins when both exist (it is typically richer)
// and the rule entry wins the validated flag. Categories deduplicate
// on resolved label, actions on (label, date) — the same action type
// recurring on different dates is legitimate.
//
// Re-merging an already-merged result with empty rule output is a
// no-op: resolution is stable on canonical labels and validated flags
// are only ever promoted, never reset.
func Merge(model, rules domain.Result, categories, actions domain.Vocabulary) domain.Result {
	return domain.Result{
		Categories: mergeItems(model.Categories, rules.Categories, categories.Labels(), categoryKey),
		Actions:    mergeItems(model.Actions, rules.Actions, actions.Labels(), actionKey),
	}
}

func categoryKey(it domain.Item) string {
	return strings.ToLower(it.Label)
}

func actionKey(it domain.Item) string {
	return strings.ToLower(it.Label) + "|" + it.Date
}

func mergeItems(model, rules []domain.Item, labels []string, key func(domain.Item) string) []domain.Item {
	index := make(map[string]int)
	var out []domain.Item

	for _, it := range model {
		if resolved, ok := BestMatch(it.Label, labels); ok {
			it.Label = resolved
		} else {
			it.Validated = false
		}
		k := key(it)
		if i, seen := index[k]; seen {
			if out[i].Description == "" {
				out[i].Description = it.Description
			}
			out[i].Validated = out[i].Validated || it.Validated
			continue
		}
		index[k] = len(out)
		out = append(out, it)
	}

	// Rule hits confirm or prepend. Prepending keeps deterministic
	// detections ahead of model guesses in the caller's review list.
	var ruleOnly []domain.Item
	for _, it := range rules {
		k := key(it)
		if i, seen := index[k]; seen {
			if i >= 0 {
				out[i].Validated = true
				if out[i].Description == "" {
					out[i].Description = it.Description
				}
			}
			continue
		}
		index[k] = -1 // rule-only entry; duplicate rule hits collapse onto it
		ruleOnly = append(ruleOnly, it)
	}

	if len(ruleOnly) == 0 {
		return out
	}
	return append(ruleOnly, out...)
}
