package service

import (
	"sync"
	"time"

	"github.com/tubesage/tubesage/internal/domain"
)

const (
	sourcePreviewChars   = 200
	transcriptRelevance  = 1.0
	enrichmentRelevance  = 0.8
	answerPreviewChars   = 200
	queryHistoryCapacity = 100
)

// SourceContribution records one piece of text that entered the session,
// by source type, with a short preview.
type SourceContribution struct {
	SourceType domain.SourceType `json:"source_type"`
	Preview    string            `json:"content_preview"`
	Relevance  float32           `json:"relevance_score"`
	Used       bool              `json:"used_in_context"`
	AddedAt    time.Time         `json:"timestamp"`
}

// QueryRecord is one logged question with the source types that backed
// its answer.
type QueryRecord struct {
	AskedAt       time.Time           `json:"timestamp"`
	Question      string              `json:"question"`
	AnswerPreview string              `json:"answer_preview"`
	SourcesUsed   []domain.SourceType `json:"sources_used"`
}

// TrackerSummary aggregates source usage for one session.
type TrackerSummary struct {
	TotalSources  int                       `json:"total_sources"`
	UsedSources   int                       `json:"used_sources"`
	SourcesByType map[domain.SourceType]int `json:"sources_by_type"`
	Sources       []SourceContribution      `json:"sources"`
}

// TrackerReport is the exportable tracking report for one session.
type TrackerReport struct {
	SessionID    string         `json:"session_id"`
	Summary      TrackerSummary `json:"summary"`
	QueryHistory []QueryRecord  `json:"query_history"`
	GeneratedAt  time.Time      `json:"generated_at"`
}

// SourceTracker records which sources contributed to a session and which
// ones each answer actually used. One tracker per session.
type SourceTracker struct {
	mu      sync.Mutex
	sources []SourceContribution
	queries []QueryRecord
}

// NewSourceTracker creates an empty tracker.
func NewSourceTracker() *SourceTracker {
	return &SourceTracker{}
}

// truncateRunes caps a string at max runes. Slicing bytes could split a
// multibyte rune in non-English transcripts.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// AddSource records a contribution with a bounded preview.
func (t *SourceTracker) AddSource(sourceType domain.SourceType, content string, relevance float32) {
	preview := truncateRunes(content, sourcePreviewChars)
	if preview != content {
		preview += "..."
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.sources = append(t.sources, SourceContribution{
		SourceType: sourceType,
		Preview:    preview,
		Relevance:  relevance,
		AddedAt:    time.Now().UTC(),
	})
}

// MarkUsed flags every contribution of the given type as used in context.
func (t *SourceTracker) MarkUsed(sourceType domain.SourceType) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.sources {
		if t.sources[i].SourceType == sourceType {
			t.sources[i].Used = true
		}
	}
}

// LogQuery records an answered question and the source types it used.
func (t *SourceTracker) LogQuery(question, answer string, used []domain.SourceType) {
	preview := truncateRunes(answer, answerPreviewChars)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.queries = append(t.queries, QueryRecord{
		AskedAt:       time.Now().UTC(),
		Question:      question,
		AnswerPreview: preview,
		SourcesUsed:   used,
	})
	if len(t.queries) > queryHistoryCapacity {
		t.queries = t.queries[len(t.queries)-queryHistoryCapacity:]
	}
}

// Summary aggregates totals and per-type counts.
func (t *SourceTracker) Summary() TrackerSummary {
	t.mu.Lock()
	defer t.mu.Unlock()

	byType := make(map[domain.SourceType]int)
	used := 0
	for _, s := range t.sources {
		byType[s.SourceType]++
		if s.Used {
			used++
		}
	}

	sources := make([]SourceContribution, len(t.sources))
	copy(sources, t.sources)

	return TrackerSummary{
		TotalSources:  len(t.sources),
		UsedSources:   used,
		SourcesByType: byType,
		Sources:       sources,
	}
}

// Report builds the exportable report for the session.
func (t *SourceTracker) Report(sessionID string) TrackerReport {
	summary := t.Summary()

	t.mu.Lock()
	queries := make([]QueryRecord, len(t.queries))
	copy(queries, t.queries)
	t.mu.Unlock()

	return TrackerReport{
		SessionID:    sessionID,
		Summary:      summary,
		QueryHistory: queries,
		GeneratedAt:  time.Now().UTC(),
	}
}
