package analysis

import "time"

// AnalysisID identifier type
type AnalysisID string

// VocabularyEntry is one administrator-defined label of the controlled
// vocabulary, with the keyword patterns that detect it deterministically.
type VocabularyEntry struct {
	Label    string   `json:"label" yaml:"label"`
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// Vocabulary keeps definition order; rule output iterates it in order.
type Vocabulary []VocabularyEntry

// Labels returns the label list, in definition order.
func (v Vocabulary) Labels() []string {
	out := make([]string, 0, len(v))
	for _, e := range v {
		out = append(out, e.Label)
	}
	return out
}

// Item is one extracted category or action hit.
// Validated marks whether it is currently selected for commit into the
// case record: rule hits start validated, model-only items do not.
type Item struct {
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"` // YYYY-MM-DD, action items only
	Validated   bool   `json:"validated"`
}

// Result holds the two ordered collections of an analysis. Uniqueness is
// a merge-time concern, not enforced here.
type Result struct {
	Categories []Item `json:"categories"`
	Actions    []Item `json:"actions"`
}

// Record is a persisted analysis kept for auditing and retrieval
type Record struct {
	ID          AnalysisID `json:"id"`
	TenantID    string     `json:"tenant_id"`
	Provider    string     `json:"provider"`
	NoteLength  int        `json:"note_length"`
	ResultJSON  string     `json:"result_json"`
	ArtifactURL string     `json:"artifact_url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
