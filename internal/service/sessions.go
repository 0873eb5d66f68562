package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tubesage/tubesage/internal/domain"
	"github.com/tubesage/tubesage/internal/pagination"
	"github.com/tubesage/tubesage/internal/telemetry"
)

// TranscriptFetcher defines the interface for the transcript service
type TranscriptFetcher interface {
	ResolveVideoID(input string) (string, error)
	Fetch(ctx context.Context, videoID, preferredLang string) (*domain.Transcript, error)
	Title(ctx context.Context, videoID string) (string, error)
}

// UUIDGenerator defines the interface for generating unique IDs
type UUIDGenerator interface {
	New() string
}

// DefaultUUIDGenerator generates UUIDs using google/uuid
type DefaultUUIDGenerator struct{}

func (g *DefaultUUIDGenerator) New() string {
	return uuid.NewString()
}

// ProcessInput describes one video-processing request.
type ProcessInput struct {
	URL        string
	Preset     domain.Preset
	Strategies []domain.Strategy
	MaxResults int
	// SessionID reprocesses an existing session (full index rebuild)
	// instead of creating a new one.
	SessionID string
}

// AskResult is one answered question with attribution.
type AskResult struct {
	Answer  string
	Sources []domain.SourceChunk
	Shares  map[domain.SourceType]float32
}

// sessionState pairs a session with its tracker. The state mutex guards
// both; no state is shared across sessions.
type sessionState struct {
	mu      sync.Mutex
	session domain.Session
	tracker *SourceTracker
}

// SessionService owns every live session and runs the processing
// pipeline: fetch, topics, enrich, aggregate, chunk and index, answer.
type SessionService struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState

	fetcher  TranscriptFetcher
	enricher *EnricherService
	indexer  *IndexService
	answerer *AnswerService
	index    VectorIndex
	uuidGen  UUIDGenerator
	now      func() time.Time
}

// NewSessionService creates a new SessionService instance
func NewSessionService(
	fetcher TranscriptFetcher,
	enricher *EnricherService,
	indexer *IndexService,
	answerer *AnswerService,
	index VectorIndex,
	uuidGen UUIDGenerator,
) *SessionService {
	if uuidGen == nil {
		uuidGen = &DefaultUUIDGenerator{}
	}
	return &SessionService{
		sessions: make(map[string]*sessionState),
		fetcher:  fetcher,
		enricher: enricher,
		indexer:  indexer,
		answerer: answerer,
		index:    index,
		uuidGen:  uuidGen,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Process runs the full pipeline for one video and returns the ready
// session. Fetch and indexing errors are fatal and abort setup; search
// failures degrade to whatever enrichment succeeded. Reprocessing
// rebuilds the index from scratch and resets chat history, except when
// neither the video nor the enrichment config changed.
func (s *SessionService) Process(ctx context.Context, input ProcessInput) (*domain.Session, error) {
	enrichment, err := resolveEnrichment(input)
	if err != nil {
		return nil, err
	}

	var prior *domain.Session
	if input.SessionID != "" {
		prior, err = s.Get(input.SessionID)
		if err != nil {
			return nil, err
		}
	}

	videoID, err := s.fetcher.ResolveVideoID(input.URL)
	if err != nil {
		return nil, err
	}

	if prior != nil && prior.VideoID == videoID && prior.Enrichment.Equal(enrichment) {
		return prior, nil
	}

	ctx, span := telemetry.StartSpan(ctx, "session.process", telemetry.SpanAttributes{
		VideoID:   videoID,
		Operation: "process",
	})
	defer span.End()

	transcript, err := s.fetcher.Fetch(ctx, videoID, "en")
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	telemetry.AddBreadcrumb(ctx, "pipeline", "transcript fetched: "+transcript.LanguageCode)

	title, err := s.fetcher.Title(ctx, videoID)
	if err != nil || title == "" {
		// Title only feeds the discussions query; a placeholder is fine.
		title = fmt.Sprintf("YouTube Video %s", videoID)
	}

	topics := ExtractTopics(transcript.Text, DefaultMaxTopics)

	tracker := NewSourceTracker()
	tracker.AddSource(domain.SourceTranscript, transcript.Text, transcriptRelevance)
	tracker.MarkUsed(domain.SourceTranscript)

	enriched := s.enricher.WithTracker(tracker).Enrich(ctx, enrichment, title, topics)

	blocks := Aggregate(transcript, enriched)

	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = s.uuidGen.New()
	}

	chunks, err := s.indexer.BuildIndex(ctx, sessionID, blocks)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	counts := make(map[domain.SourceType]int)
	for _, c := range chunks {
		counts[c.SourceType]++
	}

	now := s.now()
	session := domain.Session{
		ID:           sessionID,
		VideoID:      videoID,
		VideoURL:     input.URL,
		VideoTitle:   title,
		Status:       domain.SessionStatusReady,
		Enrichment:   enrichment,
		Transcript:   transcript,
		Topics:       topics,
		ChunkCounts:  counts,
		CreatedAt:    now,
		LastActiveAt: now,
	}

	s.mu.Lock()
	if existing, ok := s.sessions[sessionID]; ok {
		existing.mu.Lock()
		session.CreatedAt = existing.session.CreatedAt
		existing.session = session
		existing.tracker = tracker
		existing.mu.Unlock()
	} else {
		s.sessions[sessionID] = &sessionState{session: session, tracker: tracker}
	}
	s.mu.Unlock()

	log.Printf("session %s ready: video=%s lang=%s chunks=%d strategies=%d",
		sessionID, videoID, transcript.LanguageCode, len(chunks), len(enriched))

	result := session
	return &result, nil
}

// Ask answers one question against the session's index. A generation
// failure leaves the session and its history untouched so the question
// can be retried.
func (s *SessionService) Ask(ctx context.Context, sessionID, question string) (*AskResult, error) {
	state, err := s.state(sessionID)
	if err != nil {
		return nil, err
	}

	state.mu.Lock()
	history := make([]domain.ChatTurn, len(state.session.History))
	copy(history, state.session.History)
	videoID := state.session.VideoID
	state.mu.Unlock()

	ctx, span := telemetry.StartSpan(ctx, "session.ask", telemetry.SpanAttributes{
		SessionID: sessionID,
		VideoID:   videoID,
		Operation: "ask",
	})
	defer span.End()

	answer, sources, err := s.answerer.Answer(ctx, sessionID, question, history)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	usedTypes := make([]domain.SourceType, 0, len(sources))
	seen := make(map[domain.SourceType]bool)
	for _, c := range sources {
		if !seen[c.SourceType] {
			seen[c.SourceType] = true
			usedTypes = append(usedTypes, c.SourceType)
		}
	}

	state.mu.Lock()
	state.session.History = append(state.session.History, domain.ChatTurn{
		Question:    question,
		Answer:      answer,
		UsedSources: sources,
		AskedAt:     s.now(),
	})
	state.session.LastActiveAt = s.now()
	for _, st := range usedTypes {
		state.tracker.MarkUsed(st)
	}
	state.tracker.LogQuery(question, answer, usedTypes)
	state.mu.Unlock()

	return &AskResult{
		Answer:  answer,
		Sources: sources,
		Shares:  SourceShares(sources),
	}, nil
}

// Get returns a copy of the session.
func (s *SessionService) Get(sessionID string) (*domain.Session, error) {
	state, err := s.state(sessionID)
	if err != nil {
		return nil, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	session := state.session
	return &session, nil
}

// History returns a page of chat turns, oldest first.
func (s *SessionService) History(sessionID, cursor string, limit int) (*pagination.PageResult[domain.ChatTurn], error) {
	state, err := s.state(sessionID)
	if err != nil {
		return nil, err
	}

	decoded, err := pagination.DecodeCursor(cursor)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
	}

	state.mu.Lock()
	history := make([]domain.ChatTurn, len(state.session.History))
	copy(history, state.session.History)
	state.mu.Unlock()

	page := pagination.Page(history, decoded, limit, func(t domain.ChatTurn) time.Time {
		return t.AskedAt
	})
	return &page, nil
}

// Sources returns the tracker summary for the session.
func (s *SessionService) Sources(sessionID string) (*TrackerSummary, error) {
	state, err := s.state(sessionID)
	if err != nil {
		return nil, err
	}

	state.mu.Lock()
	tracker := state.tracker
	state.mu.Unlock()

	summary := tracker.Summary()
	return &summary, nil
}

// Report builds the exportable source-tracking report.
func (s *SessionService) Report(sessionID string) (*TrackerReport, error) {
	state, err := s.state(sessionID)
	if err != nil {
		return nil, err
	}

	state.mu.Lock()
	tracker := state.tracker
	state.mu.Unlock()

	report := tracker.Report(sessionID)
	return &report, nil
}

// Delete removes the session and drops its index.
func (s *SessionService) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	_, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !ok {
		return domain.ErrSessionNotFound
	}
	return s.index.DropChunks(ctx, sessionID)
}

// EvictIdle removes sessions whose last activity is older than ttl.
// Returns the number of sessions evicted. Called by the janitor.
func (s *SessionService) EvictIdle(ctx context.Context, ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	var expired []string
	for id, state := range s.sessions {
		state.mu.Lock()
		idle := state.session.LastActiveAt.Before(cutoff)
		state.mu.Unlock()
		if idle {
			expired = append(expired, id)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, id := range expired {
		if err := s.index.DropChunks(ctx, id); err != nil {
			log.Printf("failed to drop chunks for evicted session %s: %v", id, err)
		}
	}
	return len(expired)
}

func (s *SessionService) state(sessionID string) (*sessionState, error) {
	s.mu.RLock()
	state, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return state, nil
}

func resolveEnrichment(input ProcessInput) (domain.EnrichmentConfig, error) {
	if input.Preset != "" {
		cfg, err := domain.EnrichmentFromPreset(input.Preset)
		if err != nil {
			return domain.EnrichmentConfig{}, err
		}
		if input.MaxResults > 0 {
			cfg.MaxResultsPerStrategy = input.MaxResults
		}
		return cfg, nil
	}

	cfg := domain.EnrichmentConfig{
		Enabled:               len(input.Strategies) > 0,
		Strategies:            input.Strategies,
		MaxResultsPerStrategy: input.MaxResults,
	}
	if cfg.MaxResultsPerStrategy <= 0 {
		cfg.MaxResultsPerStrategy = domain.DefaultMaxResultsPerStrategy
	}
	if err := cfg.Validate(); err != nil {
		return domain.EnrichmentConfig{}, err
	}
	return cfg, nil
}
