package service

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tubesage/tubesage/internal/domain"
)

func TestSourceTracker(t *testing.T) {
	t.Run("truncates long previews", func(t *testing.T) {
		tracker := NewSourceTracker()
		tracker.AddSource(domain.SourceTranscript, strings.Repeat("x", 500), 1.0)

		summary := tracker.Summary()
		require.Len(t, summary.Sources, 1)
		assert.Equal(t, strings.Repeat("x", 200)+"...", summary.Sources[0].Preview)
	})

	t.Run("truncates multibyte previews on rune boundaries", func(t *testing.T) {
		tracker := NewSourceTracker()
		tracker.AddSource(domain.SourceTranscript, strings.Repeat("日", 500), 1.0)
		tracker.LogQuery("質問", strings.Repeat("答", 500), nil)

		summary := tracker.Summary()
		require.Len(t, summary.Sources, 1)
		assert.Equal(t, strings.Repeat("日", 200)+"...", summary.Sources[0].Preview)
		assert.True(t, utf8.ValidString(summary.Sources[0].Preview))

		report := tracker.Report("s")
		require.Len(t, report.QueryHistory, 1)
		assert.Equal(t, strings.Repeat("答", 200), report.QueryHistory[0].AnswerPreview)
		assert.True(t, utf8.ValidString(report.QueryHistory[0].AnswerPreview))
	})

	t.Run("keeps short previews intact", func(t *testing.T) {
		tracker := NewSourceTracker()
		tracker.AddSource(domain.SourceBackground, "short snippet", 0.8)

		summary := tracker.Summary()
		assert.Equal(t, "short snippet", summary.Sources[0].Preview)
	})

	t.Run("mark used flags every contribution of the type", func(t *testing.T) {
		tracker := NewSourceTracker()
		tracker.AddSource(domain.SourceBackground, "one", 0.8)
		tracker.AddSource(domain.SourceBackground, "two", 0.8)
		tracker.AddSource(domain.SourceAcademic, "three", 0.8)

		tracker.MarkUsed(domain.SourceBackground)

		summary := tracker.Summary()
		assert.Equal(t, 3, summary.TotalSources)
		assert.Equal(t, 2, summary.UsedSources)
		assert.Equal(t, 2, summary.SourcesByType[domain.SourceBackground])
		assert.Equal(t, 1, summary.SourcesByType[domain.SourceAcademic])
	})

	t.Run("query log is capped", func(t *testing.T) {
		tracker := NewSourceTracker()
		for i := 0; i < queryHistoryCapacity+10; i++ {
			tracker.LogQuery(fmt.Sprintf("q%d", i), "a", nil)
		}

		report := tracker.Report("s")
		require.Len(t, report.QueryHistory, queryHistoryCapacity)
		// Oldest entries are dropped first.
		assert.Equal(t, "q10", report.QueryHistory[0].Question)
	})

	t.Run("report carries session id and query history", func(t *testing.T) {
		tracker := NewSourceTracker()
		tracker.AddSource(domain.SourceTranscript, "text", 1.0)
		tracker.LogQuery("what?", "that", []domain.SourceType{domain.SourceTranscript})

		report := tracker.Report("session-9")
		assert.Equal(t, "session-9", report.SessionID)
		assert.Equal(t, 1, report.Summary.TotalSources)
		require.Len(t, report.QueryHistory, 1)
		assert.Equal(t, "what?", report.QueryHistory[0].Question)
		assert.Equal(t, []domain.SourceType{domain.SourceTranscript}, report.QueryHistory[0].SourcesUsed)
		assert.False(t, report.GeneratedAt.IsZero())
	})
}
