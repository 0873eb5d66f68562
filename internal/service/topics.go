package service

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultMaxTopics bounds how many key topics feed the search queries.
const DefaultMaxTopics = 3

var topicWordPattern = regexp.MustCompile(`\b[a-zA-Z]{4,}\b`)

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "as": true, "is": true, "was": true,
	"are": true, "were": true, "been": true, "be": true, "have": true, "has": true,
	"had": true, "do": true, "does": true, "did": true, "will": true, "would": true,
	"could": true, "should": true, "may": true, "might": true, "can": true,
	"this": true, "that": true, "these": true, "those": true, "i": true,
	"you": true, "he": true, "she": true, "it": true, "we": true, "they": true,
	"what": true, "which": true, "who": true, "when": true, "where": true,
	"why": true, "how": true, "so": true, "than": true, "too": true, "very": true,
	"just": true, "now": true, "get": true, "got": true, "like": true,
	"know": true, "think": true, "going": true, "want": true, "really": true,
	"because": true, "about": true, "there": true, "their": true, "your": true,
	"more": true, "some": true, "then": true, "them": true, "into": true,
	"also": true, "well": true, "here": true, "thing": true, "things": true,
}

// ExtractTopics derives up to max key topic strings from transcript text
// by word-frequency ranking over words of four or more letters.
// Deterministic for identical input: ties break lexicographically, so the
// same transcript always yields the same topics and therefore the same
// search queries.
func ExtractTopics(text string, max int) []string {
	if max <= 0 {
		max = DefaultMaxTopics
	}

	words := topicWordPattern.FindAllString(strings.ToLower(text), -1)

	freq := make(map[string]int)
	for _, w := range words {
		if !stopwords[w] {
			freq[w]++
		}
	}

	ranked := make([]string, 0, len(freq))
	for w := range freq {
		ranked = append(ranked, w)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if freq[ranked[i]] != freq[ranked[j]] {
			return freq[ranked[i]] > freq[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})

	if max > len(ranked) {
		max = len(ranked)
	}
	return ranked[:max]
}
