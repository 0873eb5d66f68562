// Package youtube fetches video captions from the public watch page and
// timedtext endpoints. No API key is required.
package youtube

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tubesage/tubesage/internal/domain"
)

const watchURLFormat = "https://www.youtube.com/watch?v=%s"

// Client fetches transcripts and titles for YouTube videos.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL points the client at a different host. Used by tests.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// NewClient creates a new transcript client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    "https://www.youtube.com",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch retrieves the transcript for a video, preferring preferredLang
// (prefix match, default "en"). When the preferred language has no
// captions it falls back to the first available track and records that
// track's language code. The language fallback is the only retry.
func (c *Client) Fetch(ctx context.Context, videoID, preferredLang string) (*domain.Transcript, error) {
	if preferredLang == "" {
		preferredLang = "en"
	}

	tracks, err := c.ListTracks(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, domain.ErrNoTranscript
	}

	selected := tracks[0]
	for _, t := range tracks {
		if strings.HasPrefix(t.LanguageCode, preferredLang) {
			selected = t
			break
		}
	}

	text, err := c.fetchTrack(ctx, selected)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrNoTranscript
	}

	return &domain.Transcript{
		VideoID:      videoID,
		LanguageCode: selected.LanguageCode,
		Language:     selected.Language,
		Text:         text,
		Generated:    selected.Generated,
	}, nil
}

// ListTracks enumerates the caption tracks available for a video.
func (c *Client) ListTracks(ctx context.Context, videoID string) ([]domain.CaptionTrack, error) {
	page, err := c.fetchWatchPage(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return extractCaptionTracks(page)
}

// Title resolves the video title through the oEmbed endpoint. A missing
// title is not fatal; callers fall back to a placeholder.
func (c *Client) Title(ctx context.Context, videoID string) (string, error) {
	watchURL := fmt.Sprintf(watchURLFormat, videoID)
	oembedURL := c.baseURL + "/oembed?format=json&url=" + url.QueryEscape(watchURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, oembedURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oembed returned status %d", resp.StatusCode)
	}

	var payload struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	return payload.Title, nil
}

func (c *Client) fetchWatchPage(ctx context.Context, videoID string) (string, error) {
	if strings.TrimSpace(videoID) == "" {
		return "", domain.ErrVideoUnavailable
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/watch?v="+url.QueryEscape(videoID), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeVideoUnavailable, "video cannot be resolved", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", domain.ErrVideoUnavailable
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// extractCaptionTracks pulls the "captions" JSON object out of the watch
// page by brace matching and decodes its captionTracks list.
func extractCaptionTracks(page string) ([]domain.CaptionTrack, error) {
	startMarker := `"captions":`
	startIndex := strings.Index(page, startMarker)
	if startIndex == -1 {
		// A watch page without a captions section either has captions
		// disabled or does not resolve to a playable video.
		if strings.Contains(page, `"playabilityStatus"`) {
			return nil, domain.ErrNoTranscript
		}
		return nil, domain.ErrVideoUnavailable
	}

	jsonStart := strings.Index(page[startIndex:], "{")
	if jsonStart == -1 {
		return nil, fmt.Errorf("could not find start of captions object")
	}
	jsonStart += startIndex

	braceCount := 1
	jsonEnd := -1
	for i := jsonStart + 1; i < len(page); i++ {
		switch page[i] {
		case '{':
			braceCount++
		case '}':
			braceCount--
			if braceCount == 0 {
				jsonEnd = i + 1
			}
		}
		if jsonEnd != -1 {
			break
		}
	}
	if jsonEnd == -1 {
		return nil, fmt.Errorf("could not find end of captions object")
	}

	var captions struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []struct {
				BaseURL      string `json:"baseUrl"`
				LanguageCode string `json:"languageCode"`
				Kind         string `json:"kind"`
				Name         struct {
					SimpleText string `json:"simpleText"`
				} `json:"name"`
			} `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	}
	if err := json.Unmarshal([]byte(page[jsonStart:jsonEnd]), &captions); err != nil {
		return nil, fmt.Errorf("error parsing captions JSON: %w", err)
	}

	raw := captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	tracks := make([]domain.CaptionTrack, 0, len(raw))
	for _, t := range raw {
		if t.BaseURL == "" {
			continue
		}
		tracks = append(tracks, domain.CaptionTrack{
			BaseURL:      t.BaseURL,
			LanguageCode: t.LanguageCode,
			Language:     t.Name.SimpleText,
			Generated:    t.Kind == "asr",
		})
	}
	return tracks, nil
}

func (c *Client) fetchTrack(ctx context.Context, track domain.CaptionTrack) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, track.BaseURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var timedtext struct {
		XMLName xml.Name `xml:"transcript"`
		Texts   []struct {
			Text string `xml:",chardata"`
		} `xml:"text"`
	}
	if err := xml.NewDecoder(resp.Body).Decode(&timedtext); err != nil {
		return "", err
	}

	var builder strings.Builder
	for i, entry := range timedtext.Texts {
		if i > 0 {
			builder.WriteString(" ")
		}
		builder.WriteString(html.UnescapeString(entry.Text))
	}
	return builder.String(), nil
}

// ResolveVideoID parses a video ID out of a user-supplied URL or ID.
func (c *Client) ResolveVideoID(input string) (string, error) {
	return ExtractVideoID(input)
}

// ExtractVideoID extracts the video ID from watch, short, and embed URL
// forms, or returns a bare 11-character ID unchanged.
func ExtractVideoID(input string) (string, error) {
	input = strings.TrimSpace(input)

	if len(input) == 11 && !strings.ContainsAny(input, "/.") {
		return input, nil
	}

	if strings.Contains(input, "youtube.com/watch") {
		if u, err := url.Parse(input); err == nil {
			if id := u.Query().Get("v"); id != "" {
				return id, nil
			}
		}
	}

	if strings.Contains(input, "youtu.be/") {
		parts := strings.SplitN(input, "youtu.be/", 2)
		if id := strings.SplitN(parts[1], "?", 2)[0]; id != "" {
			return id, nil
		}
	}

	if strings.Contains(input, "youtube.com/embed/") {
		parts := strings.SplitN(input, "youtube.com/embed/", 2)
		if id := strings.SplitN(parts[1], "?", 2)[0]; id != "" {
			return id, nil
		}
	}

	return "", domain.ErrInvalidVideoURL
}
