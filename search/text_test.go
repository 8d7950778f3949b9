package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignalTermsDropsFillerAndProcedure(t *testing.T) {
	terms := signalTerms("Uh, okay, the council motion on the repaving schedule...")
	assert.Equal(t, []string{"repaving", "schedule"}, terms)
}

func TestSignalTermsKeepsContractions(t *testing.T) {
	terms := signalTerms("O'Brien's amendment carried")
	assert.Equal(t, []string{"o'brien's", "amendment", "carried"}, terms)
}

func TestHasVerbatimMatch(t *testing.T) {
	chunk := "budget hearing covered the road repaving schedule"

	assert.True(t, hasVerbatimMatch(chunk, "road repaving schedule"))
	assert.False(t, hasVerbatimMatch(chunk, "zoning variance appeal"))
}

func TestHasVerbatimMatchFillerOnlyQuery(t *testing.T) {
	chunk := "uh okay so the council took a vote"
	assert.False(t, hasVerbatimMatch(chunk, "uh okay so"))
}
