package domain

// SourceType labels the single originating fetch or search call of a
// piece of text. A chunk never merges text from two source types.
type SourceType string

const (
	SourceTranscript  SourceType = "transcript"
	SourceBackground  SourceType = "background"
	SourceDiscussions SourceType = "discussions"
	SourceAcademic    SourceType = "academic"
	SourceCurrent     SourceType = "current"
)

// IsValidSourceType checks if the source type is one of the known values
func IsValidSourceType(s SourceType) bool {
	switch s {
	case SourceTranscript, SourceBackground, SourceDiscussions, SourceAcademic, SourceCurrent:
		return true
	default:
		return false
	}
}

// SourceTypeForStrategy maps an enrichment strategy to its chunk label.
func SourceTypeForStrategy(s Strategy) SourceType {
	return SourceType(s)
}

// SourceBlock is one aggregated text block with its immutable source tag,
// produced by the aggregator before chunking.
type SourceBlock struct {
	Text       string
	SourceType SourceType
	OriginURL  string
}

// SourceChunk is the unit of retrieval: a bounded span of one source
// block, carrying the block's tag and origin.
type SourceChunk struct {
	ID         string
	SessionID  string
	ChunkIndex int
	Text       string
	SourceType SourceType
	OriginURL  string
	Embedding  []float32
	// Score is the similarity score from the most recent retrieval.
	// Zero until the chunk has been returned by a query.
	Score float32
}
