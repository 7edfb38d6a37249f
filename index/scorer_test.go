package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBasicScore_CountsDistinctTerms(t *testing.T) {
	content := "The quick brown fox jumps over the lazy dog"

	assert.Equal(t, 2.0, basicScore("quick fox", content))
	assert.Equal(t, 1.0, basicScore("quick zebra", content))
	assert.Equal(t, 0.0, basicScore("zebra giraffe", content))
}

func TestBasicScore_RepeatOccurrencesCountOnce(t *testing.T) {
	content := "fox fox fox"
	assert.Equal(t, 1.0, basicScore("fox", content))
}

func TestBasicScore_CaseInsensitive(t *testing.T) {
	assert.Equal(t, 2.0, basicScore("QUICK Fox", "the quick brown FOX"))
}

func TestEnhancedScore_PhraseBoost(t *testing.T) {
	withPhrase := "the fox jumps over the fence"
	withoutPhrase := "a fox sat still"

	// Exact phrase: +5 phrase, fox(1)+jumps(1) term frequency, +3 coverage.
	assert.Equal(t, 10.0, enhancedScore("fox jumps", withPhrase))
	// One term present once: +1 frequency, +1.5 coverage.
	assert.Equal(t, 2.5, enhancedScore("fox jumps", withoutPhrase))
}

func TestEnhancedScore_RanksPhraseAboveSingleTerm(t *testing.T) {
	phraseChunk := "the fox jumps over the fence"
	termChunk := "a fox sat still"

	assert.Greater(t, enhancedScore("fox jumps", phraseChunk), enhancedScore("fox jumps", termChunk))
	// The basic strategy only sees term counts: 2 vs 1.
	assert.Equal(t, 2.0, basicScore("fox jumps", phraseChunk))
	assert.Equal(t, 1.0, basicScore("fox jumps", termChunk))
}

func TestEnhancedScore_TermFrequency(t *testing.T) {
	// "fox" occurs three times: 3 frequency + 3 coverage, no phrase match
	// for the two-term query.
	assert.Equal(t, 4.5, enhancedScore("fox den", "fox fox fox"))
}

func TestEnhancedScore_EmptyQueryNoPanic(t *testing.T) {
	assert.Equal(t, 0.0, enhancedScore("", "some content"))
	assert.Equal(t, 0.0, enhancedScore("   ", "some content"))
}

func TestCountOverlapping(t *testing.T) {
	assert.Equal(t, 2, countOverlapping("aaa", "aa"))
	assert.Equal(t, 3, countOverlapping("fox fox fox", "fox"))
	assert.Equal(t, 0, countOverlapping("abc", "zz"))
	assert.Equal(t, 0, countOverlapping("abc", ""))
}
