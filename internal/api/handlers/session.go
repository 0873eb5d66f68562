package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tubesage/tubesage/internal/api"
	"github.com/tubesage/tubesage/internal/domain"
	"github.com/tubesage/tubesage/internal/pagination"
	"github.com/tubesage/tubesage/internal/service"
)

type SessionService interface {
	Process(ctx context.Context, input service.ProcessInput) (*domain.Session, error)
	Get(sessionID string) (*domain.Session, error)
	Ask(ctx context.Context, sessionID, question string) (*service.AskResult, error)
	History(sessionID, cursor string, limit int) (*pagination.PageResult[domain.ChatTurn], error)
	Sources(sessionID string) (*service.TrackerSummary, error)
	Delete(ctx context.Context, sessionID string) error
}

type ReportService interface {
	Export(ctx context.Context, sessionID string) (*service.ExportResult, error)
}

type SessionHandler struct {
	svc     SessionService
	reports ReportService
}

func NewSessionHandler(svc SessionService, reports ReportService) *SessionHandler {
	return &SessionHandler{svc: svc, reports: reports}
}

type CreateSessionRequest struct {
	URL        string   `json:"url"`
	Preset     string   `json:"preset"`
	Strategies []string `json:"strategies"`
	MaxResults int      `json:"max_results"`
	// SessionID reprocesses an existing session in place.
	SessionID string `json:"session_id"`
}

type SessionResponse struct {
	ID             string         `json:"id"`
	VideoID        string         `json:"video_id"`
	VideoURL       string         `json:"video_url"`
	VideoTitle     string         `json:"video_title"`
	Status         string         `json:"status"`
	Language       string         `json:"language,omitempty"`
	Topics         []string       `json:"topics"`
	Strategies     []string       `json:"strategies"`
	ChunkCounts    map[string]int `json:"chunk_counts"`
	QuestionsAsked int            `json:"questions_asked"`
	CreatedAt      string         `json:"created_at"`
	LastActiveAt   string         `json:"last_active_at"`
}

func sessionToResponse(s *domain.Session) *SessionResponse {
	strategies := make([]string, 0, len(s.Enrichment.Strategies))
	for _, st := range s.Enrichment.ActiveStrategies() {
		strategies = append(strategies, string(st))
	}
	counts := make(map[string]int, len(s.ChunkCounts))
	for t, n := range s.ChunkCounts {
		counts[string(t)] = n
	}
	resp := &SessionResponse{
		ID:             s.ID,
		VideoID:        s.VideoID,
		VideoURL:       s.VideoURL,
		VideoTitle:     s.VideoTitle,
		Status:         string(s.Status),
		Topics:         s.Topics,
		Strategies:     strategies,
		ChunkCounts:    counts,
		QuestionsAsked: len(s.History),
		CreatedAt:      s.CreatedAt.Format("2006-01-02T15:04:05Z"),
		LastActiveAt:   s.LastActiveAt.Format("2006-01-02T15:04:05Z"),
	}
	if s.Transcript != nil {
		resp.Language = s.Transcript.LanguageCode
	}
	return resp
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.URL) == "" {
		api.Error(w, http.StatusBadRequest, "url is required")
		return
	}
	if req.Preset != "" && len(req.Strategies) > 0 {
		api.Error(w, http.StatusBadRequest, "preset and strategies are mutually exclusive")
		return
	}

	strategies := make([]domain.Strategy, 0, len(req.Strategies))
	for _, s := range req.Strategies {
		strategy := domain.Strategy(s)
		if !domain.IsValidStrategy(strategy) {
			api.Error(w, http.StatusBadRequest, "invalid strategy: "+s)
			return
		}
		strategies = append(strategies, strategy)
	}

	input := service.ProcessInput{
		URL:        req.URL,
		Preset:     domain.Preset(req.Preset),
		Strategies: strategies,
		MaxResults: req.MaxResults,
		SessionID:  req.SessionID,
	}

	session, err := h.svc.Process(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, sessionToResponse(session))
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	session, err := h.svc.Get(id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, sessionToResponse(session))
}

type AskRequest struct {
	Question string `json:"question"`
}

type SourceChunkResponse struct {
	SourceType string  `json:"source_type"`
	Text       string  `json:"text"`
	OriginURL  string  `json:"origin_url,omitempty"`
	Score      float32 `json:"score"`
}

type AskResponse struct {
	Answer  string                `json:"answer"`
	Sources []SourceChunkResponse `json:"sources"`
	Shares  map[string]float32    `json:"source_shares"`
}

func (h *SessionHandler) Ask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}

	result, err := h.svc.Ask(r.Context(), id, req.Question)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	sources := make([]SourceChunkResponse, len(result.Sources))
	for i, c := range result.Sources {
		sources[i] = SourceChunkResponse{
			SourceType: string(c.SourceType),
			Text:       c.Text,
			OriginURL:  c.OriginURL,
			Score:      c.Score,
		}
	}
	shares := make(map[string]float32, len(result.Shares))
	for t, v := range result.Shares {
		shares[string(t)] = v
	}

	api.Success(w, http.StatusOK, AskResponse{
		Answer:  result.Answer,
		Sources: sources,
		Shares:  shares,
	})
}

type ChatTurnResponse struct {
	Question    string   `json:"question"`
	Answer      string   `json:"answer"`
	UsedSources []string `json:"used_sources"`
	AskedAt     string   `json:"asked_at"`
}

type HistoryResponse struct {
	Items   []ChatTurnResponse `json:"items"`
	Cursor  string             `json:"cursor,omitempty"`
	HasMore bool               `json:"has_more"`
}

func (h *SessionHandler) History(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	cursor := r.URL.Query().Get("cursor")
	limitStr := r.URL.Query().Get("limit")
	limit := 20
	if limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	page, err := h.svc.History(id, cursor, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]ChatTurnResponse, len(page.Items))
	for i, turn := range page.Items {
		used := make([]string, 0, len(turn.UsedSources))
		seen := make(map[domain.SourceType]bool)
		for _, c := range turn.UsedSources {
			if !seen[c.SourceType] {
				seen[c.SourceType] = true
				used = append(used, string(c.SourceType))
			}
		}
		items[i] = ChatTurnResponse{
			Question:    turn.Question,
			Answer:      turn.Answer,
			UsedSources: used,
			AskedAt:     turn.AskedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	api.Success(w, http.StatusOK, HistoryResponse{
		Items:   items,
		Cursor:  page.Cursor,
		HasMore: page.HasMore,
	})
}

func (h *SessionHandler) Sources(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	summary, err := h.svc.Sources(id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, summary)
}

type ReportResponse struct {
	Report      service.TrackerReport `json:"report"`
	DownloadURL string                `json:"download_url,omitempty"`
}

func (h *SessionHandler) Report(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	result, err := h.reports.Export(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ReportResponse{
		Report:      result.Report,
		DownloadURL: result.DownloadURL,
	})
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"status": "deleted"})
}
