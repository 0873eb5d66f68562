//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tubesage/tubesage/internal/api/handlers"
	"github.com/tubesage/tubesage/internal/index"
	"github.com/tubesage/tubesage/internal/llm"
	"github.com/tubesage/tubesage/internal/search"
	"github.com/tubesage/tubesage/internal/server"
	"github.com/tubesage/tubesage/internal/service"
	"github.com/tubesage/tubesage/internal/youtube"
)

const (
	testVideoTitle      = "Learn Python in 10 Minutes"
	testTranscript      = "Python is a great language for beginners. Python has simple syntax. Django and Flask are popular python frameworks. Many beginners start with python because of its readability."
	testAnswer          = "Python is popular with beginners because of its simple syntax."
	embeddingDimensions = 8
)

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	ServerURL    string
	ServerCloser func()
	HTTPClient   *http.Client

	youtubeSrv *httptest.Server
	serperSrv  *httptest.Server
	openaiSrv  *httptest.Server
}

// SetupE2EEnv starts stub upstream services and the API server.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	env := &E2ETestEnv{
		T:          t,
		Ctx:        ctx,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}

	env.youtubeSrv = startStubYouTube()
	env.serperSrv = startStubSerper()
	env.openaiSrv = startStubOpenAI()

	yt := youtube.NewClient(youtube.WithBaseURL(env.youtubeSrv.URL))
	searcher := search.NewClient("e2e-key", search.WithBaseURL(env.serperSrv.URL))
	embedder, err := llm.NewEmbedder(llm.EmbedderConfig{
		APIKey:     "e2e-key",
		BaseURL:    env.openaiSrv.URL,
		Dimensions: embeddingDimensions,
	})
	if err != nil {
		t.Fatalf("failed to create embedder: %v", err)
	}
	chat := llm.NewChatClient(llm.ChatConfig{APIKey: "e2e-key", BaseURL: env.openaiSrv.URL})

	memIndex := index.NewMemory()
	enricher := service.NewEnricherService(searcher)
	indexer := service.NewIndexService(embedder, memIndex, service.DefaultChunkConfig())
	answerer := service.NewAnswerService(embedder, chat, memIndex, 6)
	sessions := service.NewSessionService(yt, enricher, indexer, answerer, memIndex, nil)
	reports := service.NewReportService(sessions, nil)

	router := server.NewRouter(server.RouterConfig{
		SessionHandler: handlers.NewSessionHandler(sessions, reports),
	})

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: router,
	}
	go srv.ListenAndServe()

	env.ServerURL = fmt.Sprintf("http://127.0.0.1:%d", port)
	env.ServerCloser = func() {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}

	env.waitForHealth()
	return env
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.youtubeSrv != nil {
		e.youtubeSrv.Close()
	}
	if e.serperSrv != nil {
		e.serperSrv.Close()
	}
	if e.openaiSrv != nil {
		e.openaiSrv.Close()
	}
}

func (e *E2ETestEnv) waitForHealth() {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := e.HTTPClient.Get(e.ServerURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	e.T.Fatal("server did not become healthy")
}

// APIResponse mirrors the server's response envelope.
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
	Code  string          `json:"code"`
}

func (e *E2ETestEnv) do(method, path string, body interface{}) (*APIResponse, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, e.ServerURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return nil, fmt.Errorf("status %d: invalid response body: %s", resp.StatusCode, raw)
	}
	if resp.StatusCode >= 400 {
		return &apiResp, fmt.Errorf("status %d: %s", resp.StatusCode, apiResp.Error)
	}
	return &apiResp, nil
}

// Get performs a GET request against the API server
func (e *E2ETestEnv) Get(path string) (*APIResponse, error) {
	return e.do(http.MethodGet, path, nil)
}

// Post performs a POST request against the API server
func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, error) {
	return e.do(http.MethodPost, path, body)
}

// Delete performs a DELETE request against the API server
func (e *E2ETestEnv) Delete(path string) (*APIResponse, error) {
	return e.do(http.MethodDelete, path, nil)
}

func getFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// startStubYouTube serves a watch page pointing at its own timedtext
// endpoint, plus the oEmbed title endpoint.
func startStubYouTube() *httptest.Server {
	var baseURL string
	mux := http.NewServeMux()

	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		page := fmt.Sprintf(`<html><script>var ytInitialPlayerResponse = {"playabilityStatus":{"status":"OK"},"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[{"baseUrl":%q,"languageCode":"en","name":{"simpleText":"English"}}]}}};</script></html>`,
			baseURL+"/api/timedtext?lang=en")
		w.Write([]byte(page))
	})

	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		var b strings.Builder
		b.WriteString("<transcript>")
		for _, sentence := range strings.SplitAfter(testTranscript, ". ") {
			if strings.TrimSpace(sentence) == "" {
				continue
			}
			fmt.Fprintf(&b, `<text start="0" dur="5">%s</text>`, strings.TrimSpace(sentence))
		}
		b.WriteString("</transcript>")
		w.Write([]byte(b.String()))
	})

	mux.HandleFunc("/oembed", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"title": testVideoTitle})
	})

	srv := httptest.NewServer(mux)
	baseURL = srv.URL
	return srv
}

func startStubSerper() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"organic": []map[string]string{
				{
					"title":   "Why Python Is Great for Beginners",
					"link":    "https://example.com/python-beginners",
					"snippet": "Python's readable syntax makes it a popular first language for new programmers.",
				},
				{
					"title":   "Python Web Frameworks Compared",
					"link":    "https://example.com/frameworks",
					"snippet": "Django and Flask dominate the python web framework landscape.",
				},
			},
		})
	}))
}

// startStubOpenAI serves deterministic embeddings and a canned chat
// completion in the OpenAI wire format.
func startStubOpenAI() *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/embeddings", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Input) == 0 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"object": "list",
			"data": []map[string]interface{}{
				{"object": "embedding", "index": 0, "embedding": deterministicEmbedding(req.Input[0])},
			},
			"model": "stub-embedding",
		})
	})

	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "chatcmpl-e2e",
			"object": "chat.completion",
			"choices": []map[string]interface{}{
				{
					"index":         0,
					"message":       map[string]string{"role": "assistant", "content": testAnswer},
					"finish_reason": "stop",
				},
			},
		})
	})

	return httptest.NewServer(mux)
}

// deterministicEmbedding maps text to a stable unit vector so retrieval
// behaves consistently across runs.
func deterministicEmbedding(text string) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	v := make([]float64, embeddingDimensions)
	var norm float64
	for i := range v {
		seed = seed*6364136223846793005 + 1442695040888963407
		v[i] = float64(int64(seed>>32)) / float64(math.MaxInt32)
		norm += v[i] * v[i]
	}
	norm = math.Sqrt(norm)

	out := make([]float32, embeddingDimensions)
	for i := range v {
		out[i] = float32(v[i] / norm)
	}
	return out
}
