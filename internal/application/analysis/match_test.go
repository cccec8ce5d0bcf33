package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var matchLabels = []string{"Logement", "Aide alimentaire", "CPAS", "Médiation de dettes"}

func TestBestMatchExactCaseInsensitive(t *testing.T) {
	got, ok := BestMatch("logement", matchLabels)
	assert.True(t, ok)
	assert.Equal(t, "Logement", got)
}

func TestBestMatchSubstringEitherDirection(t *testing.T) {
	// vocabulary label inside the candidate
	got, ok := BestMatch("Aide CPAS urgente", matchLabels)
	assert.True(t, ok)
	assert.Equal(t, "CPAS", got)

	// candidate inside the vocabulary label
	got, ok = BestMatch("médiation", matchLabels)
	assert.True(t, ok)
	assert.Equal(t, "Médiation de dettes", got)
}

func TestBestMatchWordOverlap(t *testing.T) {
	got, ok := BestMatch("alimentaire aide", matchLabels)
	assert.True(t, ok)
	assert.Equal(t, "Aide alimentaire", got)
}

func TestBestMatchBelowThreshold(t *testing.T) {
	_, ok := BestMatch("accompagnement scolaire", matchLabels)
	assert.False(t, ok)
}

func TestBestMatchEmptyCandidate(t *testing.T) {
	_, ok := BestMatch("   ", matchLabels)
	assert.False(t, ok)
}

func TestBestMatchStableOnCanonicalLabel(t *testing.T) {
	// Resolving an already-canonical label is the identity; merge
	// idempotence depends on this.
	for _, l := range matchLabels {
		got, ok := BestMatch(l, matchLabels)
		assert.True(t, ok)
		assert.Equal(t, l, got)
	}
}

func TestDiceOverlap(t *testing.T) {
	assert.Equal(t, 1.0, diceOverlap("aide alimentaire", "alimentaire aide"))
	assert.Equal(t, 0.0, diceOverlap("logement", "santé"))
	// separators beyond spaces split words too
	assert.Equal(t, 1.0, diceOverlap("dettes/médiation", "médiation, dettes"))
}
