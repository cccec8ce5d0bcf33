package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ModelItem is one entry of the model's raw JSON answer, before any
// vocabulary resolution. Wire keys follow the prompt contract.
type ModelItem struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Detail      string `json:"detail,omitempty"`
	Date        string `json:"date,omitempty"`
}

// Text returns whichever free-text field the model filled in.
func (m ModelItem) Text() string {
	if m.Description != "" {
		return m.Description
	}
	return m.Detail
}

// ModelOutput is the strict, typed shape of the model's answer.
type ModelOutput struct {
	Actions        []ModelItem `json:"actions"`
	Problematiques []ModelItem `json:"problematiques"`
}

// ParseModelOutput extracts the JSON object from raw model text and
// validates it into a ModelOutput. Models wrap their answer in prose or
// code fences often enough that we cut from the first '{' to the last
// '}' before decoding. The model's JSON shape is never trusted blindly:
// anything that does not decode into the typed shape fails parsing and
// the caller degrades to rule-only output.
func ParseModelOutput(raw string) (ModelOutput, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return ModelOutput{}, fmt.Errorf("no JSON object in model output: %w", ErrParseFailed)
	}

	dec := json.NewDecoder(strings.NewReader(raw[start : end+1]))
	var out ModelOutput
	if err := dec.Decode(&out); err != nil {
		return ModelOutput{}, fmt.Errorf("decode model output: %w", ErrParseFailed)
	}

	// Drop entries without a label; the model sometimes emits empty stubs.
	out.Actions = dropUnlabeled(out.Actions)
	out.Problematiques = dropUnlabeled(out.Problematiques)
	return out, nil
}

func dropUnlabeled(items []ModelItem) []ModelItem {
	var kept []ModelItem
	for _, it := range items {
		if strings.TrimSpace(it.Type) != "" {
			kept = append(kept, it)
		}
	}
	return kept
}
