package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tubesage/tubesage/internal/domain"
	"github.com/tubesage/tubesage/internal/index"
)

// MockTranscriptFetcher is a mock implementation of TranscriptFetcher
type MockTranscriptFetcher struct {
	mock.Mock
}

func (m *MockTranscriptFetcher) ResolveVideoID(input string) (string, error) {
	args := m.Called(input)
	return args.String(0), args.Error(1)
}

func (m *MockTranscriptFetcher) Fetch(ctx context.Context, videoID, preferredLang string) (*domain.Transcript, error) {
	args := m.Called(ctx, videoID, preferredLang)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transcript), args.Error(1)
}

func (m *MockTranscriptFetcher) Title(ctx context.Context, videoID string) (string, error) {
	args := m.Called(ctx, videoID)
	return args.String(0), args.Error(1)
}

// StubUUIDGenerator returns a fixed sequence of ids.
type StubUUIDGenerator struct {
	ids  []string
	next int
}

func (g *StubUUIDGenerator) New() string {
	if g.next < len(g.ids) {
		id := g.ids[g.next]
		g.next++
		return id
	}
	return "uuid-fallback"
}

type sessionFixture struct {
	fetcher  *MockTranscriptFetcher
	searcher *MockSearcher
	chat     *MockChatClient
	svc      *SessionService
}

func newSessionFixture(t *testing.T, ids ...string) *sessionFixture {
	t.Helper()

	fetcher := new(MockTranscriptFetcher)
	searcher := new(MockSearcher)
	chat := new(MockChatClient)

	embedding := new(MockEmbeddingClient)
	embedding.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{0.3, 0.7}, nil)

	mem := index.NewMemory()
	cfg := ChunkConfig{MaxChars: 200, MinChars: 40, Overlap: 20, MaxChunks: 100}

	if len(ids) == 0 {
		ids = []string{"session-1"}
	}

	svc := NewSessionService(
		fetcher,
		NewEnricherService(searcher),
		NewIndexService(embedding, mem, cfg),
		NewAnswerService(embedding, chat, mem, 6),
		mem,
		&StubUUIDGenerator{ids: ids},
	)

	return &sessionFixture{fetcher: fetcher, searcher: searcher, chat: chat, svc: svc}
}

const beginnersTranscript = "Python is great for beginners. Python has simple syntax and beginners " +
	"love the language. Many beginners start with Python because the syntax reads like English."

func expectVideo(f *sessionFixture, url, videoID string) {
	f.fetcher.On("ResolveVideoID", url).Return(videoID, nil)
	f.fetcher.On("Fetch", mock.Anything, videoID, "en").Return(&domain.Transcript{
		VideoID:      videoID,
		LanguageCode: "en",
		Language:     "English",
		Text:         beginnersTranscript,
	}, nil)
	f.fetcher.On("Title", mock.Anything, videoID).Return("Why Learn Python", nil)
}

func TestSessionService_Process(t *testing.T) {
	ctx := context.Background()

	t.Run("builds a ready session from transcript and enrichment", func(t *testing.T) {
		f := newSessionFixture(t)
		expectVideo(f, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ")
		f.searcher.On("Search", mock.Anything, mock.Anything, 5).Return([]domain.SearchSnippet{
			{Title: "Python overview", Snippet: "Python is a popular language", URL: "https://example.com"},
		}, nil).Times(4)

		session, err := f.svc.Process(ctx, ProcessInput{
			URL:    "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			Preset: domain.PresetComprehensive,
		})

		require.NoError(t, err)
		assert.Equal(t, "session-1", session.ID)
		assert.Equal(t, "dQw4w9WgXcQ", session.VideoID)
		assert.Equal(t, "Why Learn Python", session.VideoTitle)
		assert.Equal(t, domain.SessionStatusReady, session.Status)
		assert.Contains(t, session.Topics, "python")
		assert.Contains(t, session.Topics, "beginners")
		assert.Greater(t, session.ChunkCounts[domain.SourceTranscript], 0)
		assert.Greater(t, session.ChunkCounts[domain.SourceBackground], 0)
		f.searcher.AssertNumberOfCalls(t, "Search", 4)
	})

	t.Run("search failures degrade to whatever succeeded", func(t *testing.T) {
		f := newSessionFixture(t)
		expectVideo(f, "url", "vid")
		f.searcher.On("Search", mock.Anything, mock.Anything, 5).
			Return(nil, domain.ErrSearchFailed).Times(4)

		session, err := f.svc.Process(ctx, ProcessInput{URL: "url", Preset: domain.PresetComprehensive})

		require.NoError(t, err)
		assert.Equal(t, domain.SessionStatusReady, session.Status)
		assert.Greater(t, session.ChunkCounts[domain.SourceTranscript], 0)
		assert.Zero(t, session.ChunkCounts[domain.SourceBackground])
	})

	t.Run("no transcript aborts and stores nothing", func(t *testing.T) {
		f := newSessionFixture(t)
		f.fetcher.On("ResolveVideoID", "url").Return("vid", nil)
		f.fetcher.On("Fetch", mock.Anything, "vid", "en").Return(nil, domain.ErrNoTranscript)

		_, err := f.svc.Process(ctx, ProcessInput{URL: "url", Preset: domain.PresetTranscriptOnly})

		require.ErrorIs(t, err, domain.ErrNoTranscript)
		assert.True(t, domain.IsFatal(err))

		_, err = f.svc.Get("session-1")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("invalid url is rejected before any fetch", func(t *testing.T) {
		f := newSessionFixture(t)
		f.fetcher.On("ResolveVideoID", "nonsense").Return("", domain.ErrInvalidVideoURL)

		_, err := f.svc.Process(ctx, ProcessInput{URL: "nonsense", Preset: domain.PresetTranscriptOnly})

		assert.ErrorIs(t, err, domain.ErrInvalidVideoURL)
		f.fetcher.AssertNotCalled(t, "Fetch")
	})

	t.Run("invalid preset is rejected", func(t *testing.T) {
		f := newSessionFixture(t)

		_, err := f.svc.Process(ctx, ProcessInput{URL: "url", Preset: "everything"})

		assert.ErrorIs(t, err, domain.ErrInvalidPreset)
	})

	t.Run("missing title falls back to a placeholder", func(t *testing.T) {
		f := newSessionFixture(t)
		f.fetcher.On("ResolveVideoID", "url").Return("vid42", nil)
		f.fetcher.On("Fetch", mock.Anything, "vid42", "en").Return(&domain.Transcript{
			VideoID: "vid42", LanguageCode: "en", Text: beginnersTranscript,
		}, nil)
		f.fetcher.On("Title", mock.Anything, "vid42").Return("", assertError{})

		session, err := f.svc.Process(ctx, ProcessInput{URL: "url", Preset: domain.PresetTranscriptOnly})

		require.NoError(t, err)
		assert.Equal(t, "YouTube Video vid42", session.VideoTitle)
	})

	t.Run("reprocessing a new video preserves creation time and resets history", func(t *testing.T) {
		f := newSessionFixture(t)
		expectVideo(f, "url", "vid")
		expectVideo(f, "url2", "vid2")

		first, err := f.svc.Process(ctx, ProcessInput{URL: "url", Preset: domain.PresetTranscriptOnly})
		require.NoError(t, err)

		f.chat.On("Complete", mock.Anything, mock.Anything).Return("an answer", nil)
		_, err = f.svc.Ask(ctx, first.ID, "is python good?")
		require.NoError(t, err)

		second, err := f.svc.Process(ctx, ProcessInput{
			URL:       "url2",
			Preset:    domain.PresetTranscriptOnly,
			SessionID: first.ID,
		})
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "vid2", second.VideoID)
		assert.Equal(t, first.CreatedAt, second.CreatedAt)
		assert.Empty(t, second.History)

		page, err := f.svc.History(first.ID, "", 10)
		require.NoError(t, err)
		assert.Empty(t, page.Items)
	})

	t.Run("reprocessing an unchanged configuration returns the session as is", func(t *testing.T) {
		f := newSessionFixture(t)
		expectVideo(f, "url", "vid")

		first, err := f.svc.Process(ctx, ProcessInput{URL: "url", Preset: domain.PresetTranscriptOnly})
		require.NoError(t, err)

		f.chat.On("Complete", mock.Anything, mock.Anything).Return("an answer", nil)
		_, err = f.svc.Ask(ctx, first.ID, "is python good?")
		require.NoError(t, err)

		second, err := f.svc.Process(ctx, ProcessInput{
			URL:       "url",
			Preset:    domain.PresetTranscriptOnly,
			SessionID: first.ID,
		})
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		require.Len(t, second.History, 1)
		f.fetcher.AssertNumberOfCalls(t, "Fetch", 1)
	})

	t.Run("reprocessing an unknown session is not found", func(t *testing.T) {
		f := newSessionFixture(t)

		_, err := f.svc.Process(ctx, ProcessInput{
			URL:       "url",
			Preset:    domain.PresetTranscriptOnly,
			SessionID: "missing",
		})

		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
		f.fetcher.AssertNotCalled(t, "Fetch")
	})
}

func TestSessionService_Ask(t *testing.T) {
	ctx := context.Background()

	t.Run("appends history and records source usage", func(t *testing.T) {
		f := newSessionFixture(t)
		expectVideo(f, "url", "vid")
		f.chat.On("Complete", mock.Anything, mock.Anything).Return("Python suits beginners.", nil)

		session, err := f.svc.Process(ctx, ProcessInput{URL: "url", Preset: domain.PresetTranscriptOnly})
		require.NoError(t, err)

		result, err := f.svc.Ask(ctx, session.ID, "is python good for beginners?")
		require.NoError(t, err)
		assert.Equal(t, "Python suits beginners.", result.Answer)
		require.NotEmpty(t, result.Sources)
		assert.Equal(t, domain.SourceTranscript, result.Sources[0].SourceType)
		assert.InDelta(t, 1.0, result.Shares[domain.SourceTranscript], 1e-6)

		got, err := f.svc.Get(session.ID)
		require.NoError(t, err)
		require.Len(t, got.History, 1)
		assert.Equal(t, "is python good for beginners?", got.History[0].Question)

		sources, err := f.svc.Sources(session.ID)
		require.NoError(t, err)
		assert.Equal(t, sources.TotalSources, sources.UsedSources)

		report, err := f.svc.Report(session.ID)
		require.NoError(t, err)
		require.Len(t, report.QueryHistory, 1)
		assert.Equal(t, "is python good for beginners?", report.QueryHistory[0].Question)
	})

	t.Run("generation failure leaves history untouched", func(t *testing.T) {
		f := newSessionFixture(t)
		expectVideo(f, "url", "vid")
		f.chat.On("Complete", mock.Anything, mock.Anything).Return("", domain.ErrGenerationFailed)

		session, err := f.svc.Process(ctx, ProcessInput{URL: "url", Preset: domain.PresetTranscriptOnly})
		require.NoError(t, err)

		_, err = f.svc.Ask(ctx, session.ID, "question?")
		require.ErrorIs(t, err, domain.ErrGenerationFailed)

		got, err := f.svc.Get(session.ID)
		require.NoError(t, err)
		assert.Empty(t, got.History)
	})

	t.Run("unknown session is not found", func(t *testing.T) {
		f := newSessionFixture(t)
		_, err := f.svc.Ask(ctx, "missing", "question?")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})
}

func TestSessionService_History(t *testing.T) {
	ctx := context.Background()

	f := newSessionFixture(t)
	expectVideo(f, "url", "vid")
	f.chat.On("Complete", mock.Anything, mock.Anything).Return("answer", nil)

	session, err := f.svc.Process(ctx, ProcessInput{URL: "url", Preset: domain.PresetTranscriptOnly})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := f.svc.Ask(ctx, session.ID, "question")
		require.NoError(t, err)
	}

	page, err := f.svc.History(session.ID, "", 2)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	require.True(t, page.HasMore)
	require.NotEmpty(t, page.Cursor)

	page2, err := f.svc.History(session.ID, page.Cursor, 10)
	require.NoError(t, err)
	assert.Len(t, page2.Items, 3)
	assert.False(t, page2.HasMore)

	_, err = f.svc.History(session.ID, "not-base64!", 10)
	require.Error(t, err)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeValidation, domainErr.Code)
}

func TestSessionService_Delete(t *testing.T) {
	ctx := context.Background()

	f := newSessionFixture(t)
	expectVideo(f, "url", "vid")

	session, err := f.svc.Process(ctx, ProcessInput{URL: "url", Preset: domain.PresetTranscriptOnly})
	require.NoError(t, err)

	count, err := f.svc.index.CountChunks(ctx, session.ID)
	require.NoError(t, err)
	require.Greater(t, count, 0)

	require.NoError(t, f.svc.Delete(ctx, session.ID))

	_, err = f.svc.Get(session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	count, err = f.svc.index.CountChunks(ctx, session.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	assert.ErrorIs(t, f.svc.Delete(ctx, session.ID), domain.ErrSessionNotFound)
}

func TestSessionService_EvictIdle(t *testing.T) {
	ctx := context.Background()

	f := newSessionFixture(t, "old", "fresh")
	expectVideo(f, "url-old", "vid1")
	expectVideo(f, "url-fresh", "vid2")

	now := time.Now().UTC()
	f.svc.now = func() time.Time { return now.Add(-3 * time.Hour) }
	_, err := f.svc.Process(ctx, ProcessInput{URL: "url-old", Preset: domain.PresetTranscriptOnly})
	require.NoError(t, err)

	f.svc.now = func() time.Time { return now }
	_, err = f.svc.Process(ctx, ProcessInput{URL: "url-fresh", Preset: domain.PresetTranscriptOnly})
	require.NoError(t, err)

	evicted := f.svc.EvictIdle(ctx, 2*time.Hour)
	assert.Equal(t, 1, evicted)

	_, err = f.svc.Get("old")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = f.svc.Get("fresh")
	assert.NoError(t, err)

	count, err := f.svc.index.CountChunks(ctx, "old")
	require.NoError(t, err)
	assert.Zero(t, count)
}
