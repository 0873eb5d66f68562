package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tubesage/tubesage/internal/domain"
)

// MockSearcher is a mock implementation of Searcher
type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) Search(ctx context.Context, query string, max int) ([]domain.SearchSnippet, error) {
	args := m.Called(ctx, query, max)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SearchSnippet), args.Error(1)
}

func TestBuildQuery(t *testing.T) {
	topics := []string{"python", "programming", "tutorial"}
	title := "Learn Python in 10 Minutes"

	t.Run("background joins the two leading topics", func(t *testing.T) {
		q := BuildQuery(domain.StrategyBackground, title, topics)
		assert.Equal(t, "python programming overview explanation", q)
	})

	t.Run("discussions uses the quoted video title", func(t *testing.T) {
		q := BuildQuery(domain.StrategyDiscussions, title, topics)
		assert.Equal(t, `"Learn Python in 10 Minutes" discussion analysis review`, q)
	})

	t.Run("academic uses the top topic", func(t *testing.T) {
		q := BuildQuery(domain.StrategyAcademic, title, topics)
		assert.Equal(t, "python research paper study academic", q)
	})

	t.Run("current uses the top topic", func(t *testing.T) {
		q := BuildQuery(domain.StrategyCurrent, title, topics)
		assert.Equal(t, "python latest 2025 updates news", q)
	})

	t.Run("falls back to title when no topics extracted", func(t *testing.T) {
		q := BuildQuery(domain.StrategyAcademic, title, nil)
		assert.Equal(t, "Learn Python in 10 Minutes research paper study academic", q)
	})
}

func TestEnricherService_Enrich(t *testing.T) {
	ctx := context.Background()
	topics := []string{"python", "programming"}
	title := "Python Basics"

	snippets := []domain.SearchSnippet{
		{Title: "Result", Snippet: "some text", URL: "https://example.com"},
	}

	t.Run("comprehensive issues exactly one search per strategy", func(t *testing.T) {
		searcher := new(MockSearcher)
		searcher.On("Search", mock.Anything, mock.Anything, 5).Return(snippets, nil).Times(4)

		cfg, _ := domain.EnrichmentFromPreset(domain.PresetComprehensive)
		results := NewEnricherService(searcher).Enrich(ctx, cfg, title, topics)

		assert.Len(t, results, 4)
		searcher.AssertExpectations(t)
	})

	t.Run("transcript-only issues no searches", func(t *testing.T) {
		searcher := new(MockSearcher)

		cfg, _ := domain.EnrichmentFromPreset(domain.PresetTranscriptOnly)
		results := NewEnricherService(searcher).Enrich(ctx, cfg, title, topics)

		assert.Empty(t, results)
		searcher.AssertNotCalled(t, "Search")
	})

	t.Run("nil searcher disables enrichment", func(t *testing.T) {
		cfg, _ := domain.EnrichmentFromPreset(domain.PresetComprehensive)
		results := NewEnricherService(nil).Enrich(ctx, cfg, title, topics)
		assert.Empty(t, results)
	})

	t.Run("failed strategy is skipped, others continue", func(t *testing.T) {
		searcher := new(MockSearcher)
		searcher.On("Search", mock.Anything, "python programming overview explanation", 5).
			Return(nil, domain.ErrSearchFailed).Once()
		searcher.On("Search", mock.Anything, `"Python Basics" discussion analysis review`, 5).
			Return(snippets, nil).Once()

		cfg, _ := domain.EnrichmentFromPreset(domain.PresetBalanced)
		results := NewEnricherService(searcher).Enrich(ctx, cfg, title, topics)

		require.Len(t, results, 1)
		assert.Equal(t, snippets, results[domain.StrategyDiscussions])
		searcher.AssertExpectations(t)
	})

	t.Run("tracker records each snippet at enrichment relevance", func(t *testing.T) {
		searcher := new(MockSearcher)
		searcher.On("Search", mock.Anything, mock.Anything, 5).Return(snippets, nil).Once()

		tracker := NewSourceTracker()
		cfg, _ := domain.EnrichmentFromPreset(domain.PresetMinimal)
		NewEnricherService(searcher).WithTracker(tracker).Enrich(ctx, cfg, title, topics)

		summary := tracker.Summary()
		require.Equal(t, 1, summary.TotalSources)
		assert.Equal(t, domain.SourceBackground, summary.Sources[0].SourceType)
		assert.InDelta(t, 0.8, summary.Sources[0].Relevance, 1e-6)
	})

	t.Run("custom result cap is passed through", func(t *testing.T) {
		searcher := new(MockSearcher)
		searcher.On("Search", mock.Anything, mock.Anything, 2).Return(snippets, nil).Once()

		cfg, _ := domain.EnrichmentFromPreset(domain.PresetMinimal)
		cfg.MaxResultsPerStrategy = 2
		NewEnricherService(searcher).Enrich(ctx, cfg, title, topics)

		searcher.AssertExpectations(t)
	})
}
