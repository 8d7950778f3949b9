package search

import (
	"strings"
	"unicode"
)

// transcriptNoise lists terms that carry no search signal in council
// meeting transcripts. Beyond ordinary English function words it covers
// the spoken fillers auto-captioning keeps and the procedural vocabulary
// that appears in nearly every chunk of every meeting.
var transcriptNoise = noiseSet(
	// function words
	"the", "a", "an", "be", "is", "are", "was", "were", "to", "of",
	"and", "in", "that", "have", "it", "for", "not", "on", "with",
	"as", "you", "do", "at", "this", "but", "by", "from", "we",
	// spoken fillers that survive captioning
	"uh", "um", "uhm", "okay", "yeah", "gonna", "wanna", "so", "like",
	// procedural vocabulary present in most chunks
	"meeting", "council", "motion", "item", "agenda", "chair", "second",
)

func noiseSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// signalTerms lowercases text, splits it on anything that is not a letter,
// digit, or apostrophe, and drops transcript noise. What remains are the
// terms worth matching verbatim.
func signalTerms(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})

	terms := fields[:0]
	for _, field := range fields {
		field = strings.Trim(field, "'")
		if field == "" {
			continue
		}
		if _, noise := transcriptNoise[field]; noise {
			continue
		}
		terms = append(terms, field)
	}
	return terms
}

// hasVerbatimMatch reports whether every signal term of the query appears
// in the chunk text. A query that reduces to pure noise never matches, so
// filler-only queries get no boost.
func hasVerbatimMatch(chunkText, query string) bool {
	queryTerms := signalTerms(query)
	if len(queryTerms) == 0 {
		return false
	}

	chunkTerms := make(map[string]struct{})
	for _, term := range signalTerms(chunkText) {
		chunkTerms[term] = struct{}{}
	}

	for _, term := range queryTerms {
		if _, ok := chunkTerms[term]; !ok {
			return false
		}
	}
	return true
}
