package model

import "time"

// AttemptEvent classifies one recorded attempt outcome.
type AttemptEvent string

const (
	EventAttempt   AttemptEvent = "attempt"
	EventSuccess   AttemptEvent = "success"
	EventFailure   AttemptEvent = "failure"
	EventRateLimit AttemptEvent = "rate_limit"
)

var validAttemptEvents = map[AttemptEvent]bool{
	EventAttempt:   true,
	EventSuccess:   true,
	EventFailure:   true,
	EventRateLimit: true,
}

func IsValidAttemptEvent(e AttemptEvent) bool {
	return validAttemptEvents[e]
}

// Attempt is one append-only record of an agent invocation for a story.
type Attempt struct {
	Agent     string       `json:"agent"`
	Model     string       `json:"model"`
	Timestamp time.Time    `json:"timestamp"`
	Result    AttemptEvent `json:"result"`
}

// StoryRecord tracks every attempt made against one story id.
// Invariant: Attempts is append-only and TotalAttempts == len(Attempts).
type StoryRecord struct {
	Attempts      []Attempt `json:"attempts"`
	TotalAttempts int       `json:"total_attempts"`
}

// RateLimitRecord marks when an agent was throttled and until when it is
// excluded from selection.
type RateLimitRecord struct {
	HitAt         time.Time `json:"hit_at"`
	CooldownUntil time.Time `json:"cooldown_until"`
}

// RotationState is the single persisted rotation document. It is mutated
// only by the rotation scheduler and written back atomically after every
// mutation. Absent or corrupt state is replaced by NewRotationState.
type RotationState struct {
	CurrentAgentIndex   int                           `json:"current_agent_index"`
	CurrentModelIndices map[string]int                `json:"current_model_indices"`
	RateLimits          map[string]RateLimitRecord    `json:"rate_limits"`
	Stories             map[string]*StoryRecord       `json:"stories"`
	Usage               map[string]map[string]float64 `json:"usage"`
	RotationsCount      int                           `json:"rotations_count"`
	RateLimitsCount     int                           `json:"rate_limits_count"`
}

// NewRotationState returns the fixed empty defaults used both on first run
// and when a corrupt state file is reinitialized.
func NewRotationState() *RotationState {
	return &RotationState{
		CurrentModelIndices: make(map[string]int),
		RateLimits:          make(map[string]RateLimitRecord),
		Stories:             make(map[string]*StoryRecord),
		Usage:               make(map[string]map[string]float64),
	}
}

// Normalize repairs nil maps after JSON decode so callers never need nil
// checks before writes.
func (s *RotationState) Normalize() {
	if s.CurrentModelIndices == nil {
		s.CurrentModelIndices = make(map[string]int)
	}
	if s.RateLimits == nil {
		s.RateLimits = make(map[string]RateLimitRecord)
	}
	if s.Stories == nil {
		s.Stories = make(map[string]*StoryRecord)
	}
	if s.Usage == nil {
		s.Usage = make(map[string]map[string]float64)
	}
}

// RecordAttempt appends one attempt to a story, creating the record lazily.
func (s *RotationState) RecordAttempt(storyID string, a Attempt) {
	rec := s.Stories[storyID]
	if rec == nil {
		rec = &StoryRecord{}
		s.Stories[storyID] = rec
	}
	rec.Attempts = append(rec.Attempts, a)
	rec.TotalAttempts = len(rec.Attempts)
}

// FailureCount returns the cumulative number of failure attempts recorded
// for the exact (story, agent, model) triple. Successes in between do not
// reset it.
func (s *RotationState) FailureCount(storyID, agent, model string) int {
	rec := s.Stories[storyID]
	if rec == nil {
		return 0
	}
	n := 0
	for _, a := range rec.Attempts {
		if a.Result == EventFailure && a.Agent == agent && a.Model == model {
			n++
		}
	}
	return n
}

// AddUsage accumulates one best-effort usage counter for an agent.
func (s *RotationState) AddUsage(agent, counter string, v float64) {
	if s.Usage[agent] == nil {
		s.Usage[agent] = make(map[string]float64)
	}
	s.Usage[agent][counter] += v
}
