package domain

// Transcript is the caption text of one video, fetched once per session
// and immutable thereafter.
type Transcript struct {
	VideoID      string
	LanguageCode string
	Language     string
	Text         string
	Generated    bool
}

// CaptionTrack describes one available caption language for a video.
type CaptionTrack struct {
	BaseURL      string
	LanguageCode string
	Language     string
	Generated    bool
}

// SearchSnippet is one organic web-search result.
type SearchSnippet struct {
	Title   string
	Snippet string
	URL     string
}
