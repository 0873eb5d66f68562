package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/tubesage/tubesage/internal/domain"
	"github.com/tubesage/tubesage/internal/telemetry"
)

// Searcher defines the interface for the web-search service
type Searcher interface {
	Search(ctx context.Context, query string, max int) ([]domain.SearchSnippet, error)
}

// EnricherService issues one web search per configured strategy and
// collects the snippets. A failed strategy is logged and omitted; the
// session is never aborted by enrichment.
type EnricherService struct {
	searcher Searcher
	tracker  *SourceTracker
}

// NewEnricherService creates an enricher. A nil searcher disables
// enrichment entirely (transcript-only degradation).
func NewEnricherService(searcher Searcher) *EnricherService {
	return &EnricherService{searcher: searcher}
}

// WithTracker attaches a source tracker that records each strategy's
// contribution.
func (s *EnricherService) WithTracker(tracker *SourceTracker) *EnricherService {
	return &EnricherService{searcher: s.searcher, tracker: tracker}
}

// BuildQuery substitutes topics (or the video title, for discussions)
// into the strategy's fixed template.
func BuildQuery(strategy domain.Strategy, videoTitle string, topics []string) string {
	template, ok := domain.QueryTemplates[strategy]
	if !ok {
		return ""
	}

	var subject string
	switch strategy {
	case domain.StrategyDiscussions:
		subject = videoTitle
	case domain.StrategyBackground:
		// Background covers the leading topics in one query.
		n := len(topics)
		if n > 2 {
			n = 2
		}
		subject = strings.Join(topics[:n], " ")
	default:
		if len(topics) > 0 {
			subject = topics[0]
		} else {
			subject = videoTitle
		}
	}
	if subject == "" {
		subject = videoTitle
	}

	return fmt.Sprintf(template, subject)
}

// Enrich runs every configured strategy, one search call each, in
// canonical strategy order. Returns the snippets by strategy; strategies
// whose search failed or returned nothing are absent from the map.
func (s *EnricherService) Enrich(ctx context.Context, cfg domain.EnrichmentConfig, videoTitle string, topics []string) map[domain.Strategy][]domain.SearchSnippet {
	if s.searcher == nil || !cfg.Enabled {
		return nil
	}

	max := cfg.MaxResultsPerStrategy
	if max <= 0 {
		max = domain.DefaultMaxResultsPerStrategy
	}

	results := make(map[domain.Strategy][]domain.SearchSnippet)
	for _, strategy := range cfg.ActiveStrategies() {
		query := BuildQuery(strategy, videoTitle, topics)
		if query == "" {
			continue
		}

		searchCtx, span := telemetry.StartSpan(ctx, "enrichment.search", telemetry.SpanAttributes{
			Strategy:  string(strategy),
			Operation: "search",
		})
		snippets, err := s.searcher.Search(searchCtx, query, max)
		if err != nil {
			span.SetError(err)
			span.End()
			log.Printf("enrichment: strategy %s failed, skipping: %v", strategy, err)
			continue
		}
		span.End()
		if len(snippets) == 0 {
			continue
		}

		results[strategy] = snippets
		if s.tracker != nil {
			for _, snip := range snippets {
				s.tracker.AddSource(domain.SourceTypeForStrategy(strategy), snip.Snippet, enrichmentRelevance)
			}
		}
	}
	return results
}
