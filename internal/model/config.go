// Package model defines the data structures for Ralph's configuration,
// rotation state, and checkpoint records.
package model

type Config struct {
	Project     ProjectConfig    `yaml:"project"`
	Rotation    RotationConfig   `yaml:"rotation"`
	Context     ContextConfig    `yaml:"context"`
	Compaction  CompactionConfig `yaml:"compaction"`
	Checkpoints CheckpointConfig `yaml:"checkpoints"`
	Logging     LoggingConfig    `yaml:"logging"`
}

type ProjectConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// AgentEntry is one agent in a rotation list together with its ordered
// model candidates. Models may be empty, in which case the agent runs with
// whatever model its CLI defaults to.
type AgentEntry struct {
	Name   string   `yaml:"name"`
	Models []string `yaml:"models"`
}

type RotationConfig struct {
	Enabled          bool   `yaml:"enabled"`
	Strategy         string `yaml:"strategy"` // "sequential" or "priority"
	PrimaryAgent     string `yaml:"primary_agent"`
	PrimaryModel     string `yaml:"primary_model"`
	FallbackAgent    string `yaml:"fallback_agent"`
	FailureThreshold int    `yaml:"failure_threshold"`
	CooldownSec      int    `yaml:"cooldown_sec"`

	// Agents is the global rotation list. CommandAgents overrides it for a
	// specific ralph subcommand (e.g. a cheaper list for lint fixes).
	Agents        []AgentEntry            `yaml:"agents"`
	CommandAgents map[string][]AgentEntry `yaml:"command_agents,omitempty"`
}

type ContextConfig struct {
	Mode               string `yaml:"mode"` // "standard" or "dynamic"
	BudgetTokens       int    `yaml:"budget_tokens"`
	CharsPerToken      int    `yaml:"chars_per_token"`
	RecentLines        int    `yaml:"recent_lines"`
	OlderLines         int    `yaml:"older_lines"`
	DocHeaderLines     int    `yaml:"doc_header_lines"`
	MaxKeywordSections int    `yaml:"max_keyword_sections"`
	FileLineCap        int    `yaml:"file_line_cap"`
	ProgressWindow     int    `yaml:"progress_window"`
}

type CompactionConfig struct {
	Mode           string       `yaml:"mode"` // "relevance" or "line"
	ThresholdLines int          `yaml:"threshold_lines"`
	PreserveStart  int          `yaml:"preserve_start"`
	PreserveEnd    int          `yaml:"preserve_end"`
	MinScore       int          `yaml:"min_score"`
	MaxBullets     int          `yaml:"max_bullets"`
	Weights        ScoreWeights `yaml:"weights"`
}

// ScoreWeights are the per-category marker weights used by relevance-scored
// compaction. Each category contributes its weight once per entry no matter
// how many times it matches.
type ScoreWeights struct {
	Pattern     int `yaml:"pattern"`     // explicit pattern/convention language
	Gotcha      int `yaml:"gotcha"`      // gotcha/bug/fix/avoid/warning language
	Integration int `yaml:"integration"` // integration/dependency language
	Schema      int `yaml:"schema"`      // API/schema/migration/database mentions
	Config      int `yaml:"config"`      // configuration/environment mentions
	Keyword     int `yaml:"keyword"`     // per task-keyword match, capped at 3
	Recency     int `yaml:"recency"`     // flat bonus for the last 3 entries
}

type CheckpointConfig struct {
	RetentionDays int `yaml:"retention_days"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultAgent is the last-resort agent when no rotation list is configured.
const DefaultAgent = "claude"

var DefaultScoreWeights = ScoreWeights{
	Pattern:     10,
	Gotcha:      8,
	Integration: 7,
	Schema:      4,
	Config:      3,
	Keyword:     2,
	Recency:     5,
}

// ApplyDefaults fills every zero-valued tunable with its documented default.
// Booleans are left alone: "rotation disabled" is a valid configuration.
func (c *Config) ApplyDefaults() {
	if c.Rotation.Strategy == "" {
		c.Rotation.Strategy = "sequential"
	}
	if c.Rotation.PrimaryAgent == "" {
		c.Rotation.PrimaryAgent = DefaultAgent
	}
	if c.Rotation.FailureThreshold == 0 {
		c.Rotation.FailureThreshold = 3
	}
	if c.Rotation.CooldownSec == 0 {
		c.Rotation.CooldownSec = 300
	}
	if c.Context.Mode == "" {
		c.Context.Mode = "dynamic"
	}
	if c.Context.BudgetTokens == 0 {
		c.Context.BudgetTokens = 8000
	}
	if c.Context.CharsPerToken == 0 {
		c.Context.CharsPerToken = 4
	}
	if c.Context.RecentLines == 0 {
		c.Context.RecentLines = 100
	}
	if c.Context.OlderLines == 0 {
		c.Context.OlderLines = 150
	}
	if c.Context.DocHeaderLines == 0 {
		c.Context.DocHeaderLines = 40
	}
	if c.Context.MaxKeywordSections == 0 {
		c.Context.MaxKeywordSections = 3
	}
	if c.Context.FileLineCap == 0 {
		c.Context.FileLineCap = 200
	}
	if c.Context.ProgressWindow == 0 {
		c.Context.ProgressWindow = 100
	}
	if c.Compaction.Mode == "" {
		c.Compaction.Mode = "relevance"
	}
	if c.Compaction.ThresholdLines == 0 {
		c.Compaction.ThresholdLines = 400
	}
	if c.Compaction.PreserveStart == 0 {
		c.Compaction.PreserveStart = 50
	}
	if c.Compaction.PreserveEnd == 0 {
		c.Compaction.PreserveEnd = 200
	}
	if c.Compaction.MinScore == 0 {
		c.Compaction.MinScore = 5
	}
	if c.Compaction.MaxBullets == 0 {
		c.Compaction.MaxBullets = 10
	}
	if c.Compaction.Weights == (ScoreWeights{}) {
		c.Compaction.Weights = DefaultScoreWeights
	}
	if c.Checkpoints.RetentionDays == 0 {
		c.Checkpoints.RetentionDays = 7
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
