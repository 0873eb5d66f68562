package domain

import "time"

// ChatTurn is one answered question with the chunks that backed the
// answer. Appended to session history and never mutated afterwards.
type ChatTurn struct {
	Question    string
	Answer      string
	UsedSources []SourceChunk
	AskedAt     time.Time
}

// SessionStatus represents the lifecycle state of a session
type SessionStatus string

const (
	// SessionStatusProcessing covers fetch through indexing.
	SessionStatusProcessing SessionStatus = "processing"
	// SessionStatusReady means the index is built and questions can be asked.
	SessionStatusReady SessionStatus = "ready"
	// SessionStatusFailed means session setup aborted with a fatal error.
	SessionStatusFailed SessionStatus = "failed"
)

/// Session is the per-user processing context: one video, one index, one
// chat history. Sessions never share mutable state with each other.
type Session struct {
	ID           string
	VideoID      string
	VideoURL     string
	VideoTitle   string
	Status       SessionStatus
	Enrichment   EnrichmentConfig
	Transcript   *Transcript
	Topics       []string
	ChunkCounts  map[SourceType]int
	History      []ChatTurn
	CreatedAt    time.Time
	LastActiveAt time.Time
}
