package domain

// Strategy represents one enrichment category. Each strategy maps to a
// fixed web-search query template.
type Strategy string

const (
	StrategyBackground  Strategy = "background"
	StrategyDiscussions Strategy = "discussions"
	StrategyAcademic    Strategy = "academic"
	StrategyCurrent     Strategy = "current"
)

// AllStrategies lists every strategy in canonical aggregation order.
var AllStrategies = []Strategy{
	StrategyBackground,
	StrategyDiscussions,
	StrategyAcademic,
	StrategyCurrent,
}

// IsValidStrategy checks if the strategy is one of the known values
func IsValidStrategy(s Strategy) bool {
	switch s {
	case StrategyBackground, StrategyDiscussions, StrategyAcademic, StrategyCurrent:
		return true
	default:
		return false
	}
}

// QueryTemplates maps each strategy to its search-query template. The
// placeholder is filled with the joined key topics, except for
// discussions, which uses the video title. Adding a strategy is a
// one-line edit here.
var QueryTemplates = map[Strategy]string{
	StrategyBackground:  "%s overview explanation",
	StrategyDiscussions: "%q discussion analysis review",
	StrategyAcademic:    "%s research paper study academic",
	StrategyCurrent:     "%s latest 2025 updates news",
}

// Preset names a fixed strategy bundle selectable by the user.
type Preset string

const (
	PresetTranscriptOnly Preset = "transcript-only"
	PresetMinimal        Preset = "minimal"
	PresetBalanced       Preset = "balanced"
	PresetComprehensive  Preset = "comprehensive"
	PresetAcademic       Preset = "academic"
)

// EnrichmentConfig controls web enrichment for one session. Immutable
// once a session is processed; changing it means a full rebuild.
type EnrichmentConfig struct {
	Enabled               bool
	Strategies            []Strategy
	MaxResultsPerStrategy int
}

// DefaultMaxResultsPerStrategy caps the organic results kept per search call.
const DefaultMaxResultsPerStrategy = 5

// EnrichmentFromPreset resolves a preset name to its strategy bundle.
func EnrichmentFromPreset(p Preset) (EnrichmentConfig, error) {
	cfg := EnrichmentConfig{Enabled: true, MaxResultsPerStrategy: DefaultMaxResultsPerStrategy}
	switch p {
	case PresetTranscriptOnly:
		cfg.Enabled = false
		cfg.Strategies = nil
	case PresetMinimal:
		cfg.Strategies = []Strategy{StrategyBackground}
	case PresetBalanced:
		cfg.Strategies = []Strategy{StrategyBackground, StrategyDiscussions}
	case PresetComprehensive:
		cfg.Strategies = []Strategy{StrategyBackground, StrategyDiscussions, StrategyAcademic, StrategyCurrent}
	case PresetAcademic:
		cfg.Strategies = []Strategy{StrategyBackground, StrategyAcademic}
	default:
		return EnrichmentConfig{}, ErrInvalidPreset
	}
	return cfg, nil
}

// Validate checks every configured strategy is known.
func (c EnrichmentConfig) Validate() error {
	for _, s := range c.Strategies {
		if !IsValidStrategy(s) {
			return ErrInvalidStrategy
		}
	}
	return nil
}

// ActiveStrategies returns the configured strategies in canonical order,
// or nil when enrichment is disabled.
func (c EnrichmentConfig) ActiveStrategies() []Strategy {
	if !c.Enabled {
		return nil
	}
	configured := make(map[Strategy]bool, len(c.Strategies))
	for _, s := range c.Strategies {
		configured[s] = true
	}
	ordered := make([]Strategy, 0, len(c.Strategies))
	for _, s := range AllStrategies {
		if configured[s] {
			ordered = append(ordered, s)
		}
	}
	return ordered
}

// Equal reports whether two configs select the same enrichment behavior.
// Used to decide whether reprocessing requires an index rebuild.
func (c EnrichmentConfig) Equal(other EnrichmentConfig) bool {
	if c.Enabled != other.Enabled || c.MaxResultsPerStrategy != other.MaxResultsPerStrategy {
		return false
	}
	a := c.ActiveStrategies()
	b := other.ActiveStrategies()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
