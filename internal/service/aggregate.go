package service

import (
	"strings"

	"github.com/tubesage/tubesage/internal/domain"
)

// Aggregate combines the transcript with each strategy's snippets into
// one ordered block sequence: transcript first, then strategies in
// canonical order. Every block carries exactly one source tag.
// Overlapping information across sources is deliberately kept, so
// answers can surface disagreement between sources.
func Aggregate(transcript *domain.Transcript, enriched map[domain.Strategy][]domain.SearchSnippet) []domain.SourceBlock {
	blocks := make([]domain.SourceBlock, 0, 1+len(enriched))

	if transcript != nil && strings.TrimSpace(transcript.Text) != "" {
		blocks = append(blocks, domain.SourceBlock{
			Text:       transcript.Text,
			SourceType: domain.SourceTranscript,
		})
	}

	for _, strategy := range domain.AllStrategies {
		snippets, ok := enriched[strategy]
		if !ok {
			continue
		}
		sourceType := domain.SourceTypeForStrategy(strategy)
		for _, snip := range snippets {
			text := snip.Snippet
			if snip.Title != "" {
				text = snip.Title + "\n" + text
			}
			blocks = append(blocks, domain.SourceBlock{
				Text:       text,
				SourceType: sourceType,
				OriginURL:  snip.URL,
			})
		}
	}

	return blocks
}
