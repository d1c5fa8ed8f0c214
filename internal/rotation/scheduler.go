// Package rotation decides which (agent, model) pair handles the next unit
// of work, tracks failures and rate-limit cooldowns, and persists its state
// across invocations.
package rotation

import (
	"time"

	"ralph/internal/lock"
	"ralph/internal/logging"
	"ralph/internal/model"
)

// RotateOutcome reports what RotateAgent did.
type RotateOutcome string

const (
	// RotateAdvanced means the index moved to a new agent.
	RotateAdvanced RotateOutcome = "advanced"
	// RotateNoAgents means the list has at most one agent, so there is
	// nowhere to go.
	RotateNoAgents RotateOutcome = "no_agents_available"
	// RotateWrapped means the index returned to 0: every agent in the list
	// has been tried at least once this cycle.
	RotateWrapped RotateOutcome = "wrapped_all_agents"
)

// Scheduler selects agents and models per unit of work. It is the only
// writer of the rotation state document. Selection never fails: missing or
// unusable state degrades to a configured default pair.
type Scheduler struct {
	cfg    model.RotationConfig
	store  *Store
	logger *logging.Logger
	now    func() time.Time
}

func NewScheduler(ralphDir string, cfg model.RotationConfig, lockMap *lock.MutexMap, logger *logging.Logger) *Scheduler {
	logger = logging.OrNop(logger)
	return &Scheduler{
		cfg:    cfg,
		store:  NewStore(ralphDir, lockMap, logger),
		logger: logger,
		now:    time.Now,
	}
}

// resolveList returns the rotation list for a command: a command-specific
// override, else the global list, else [primary, fallback], and ultimately
// the hardcoded default so the list is never empty.
func (s *Scheduler) resolveList(command string) []model.AgentEntry {
	if list, ok := s.cfg.CommandAgents[command]; ok && len(list) > 0 {
		return list
	}
	if len(s.cfg.Agents) > 0 {
		return s.cfg.Agents
	}

	var list []model.AgentEntry
	if s.cfg.PrimaryAgent != "" {
		entry := model.AgentEntry{Name: s.cfg.PrimaryAgent}
		if s.cfg.PrimaryModel != "" {
			entry.Models = []string{s.cfg.PrimaryModel}
		}
		list = append(list, entry)
	}
	if s.cfg.FallbackAgent != "" && s.cfg.FallbackAgent != s.cfg.PrimaryAgent {
		list = append(list, model.AgentEntry{Name: s.cfg.FallbackAgent})
	}
	if len(list) == 0 {
		list = []model.AgentEntry{{Name: model.DefaultAgent}}
	}
	return list
}

func findAgent(list []model.AgentEntry, name string) (model.AgentEntry, int) {
	for i, e := range list {
		if e.Name == name {
			return e, i
		}
	}
	return model.AgentEntry{}, -1
}

// Select returns the (agent, model) pair for the next attempt at a story.
// With rotation disabled it is the statically configured primary pair and
// persisted state is ignored entirely.
func (s *Scheduler) Select(storyID, command string) (agent, modelName string) {
	if !s.cfg.Enabled {
		return s.cfg.PrimaryAgent, s.cfg.PrimaryModel
	}

	list := s.resolveList(command)
	state := s.store.Load()

	idx := s.pickAgentIndex(state, list)
	entry := list[idx]

	modelName = s.resolveModel(state, entry)
	s.logger.Debug("selected %s/%s for story %s (command %q)", entry.Name, modelName, storyID, command)
	return entry.Name, modelName
}

func (s *Scheduler) pickAgentIndex(state *model.RotationState, list []model.AgentEntry) int {
	current := state.CurrentAgentIndex
	if current < 0 || current >= len(list) {
		current = 0
	}

	strategy, err := model.ParseStrategy(s.cfg.Strategy)
	if err != nil {
		strategy = model.StrategySequential
	}

	switch strategy {
	case model.StrategyPriority:
		for i := range list {
			if s.isCooledDown(state, list[i].Name) {
				return i
			}
		}
	default: // sequential
		for off := 0; off < len(list); off++ {
			i := (current + off) % len(list)
			if s.isCooledDown(state, list[i].Name) {
				return i
			}
		}
	}

	// Every agent is inside its cooldown window. Availability beats hard
	// failure: use the persisted position anyway.
	s.logger.Warn("all %d agents are rate-limited; continuing with %s", len(list), list[current].Name)
	return current
}

func (s *Scheduler) resolveModel(state *model.RotationState, entry model.AgentEntry) string {
	if len(entry.Models) == 0 {
		if entry.Name == s.cfg.PrimaryAgent {
			return s.cfg.PrimaryModel
		}
		return ""
	}

	idx := state.CurrentModelIndices[entry.Name]
	if idx < 0 || idx >= len(entry.Models) {
		idx = 0
		state.CurrentModelIndices[entry.Name] = 0
		if err := s.store.Save(state); err != nil {
			s.logger.Warn("persist model index reset for %s: %v", entry.Name, err)
		}
	}
	return entry.Models[idx]
}

// ShouldRotate reports whether the cumulative failure count for the exact
// (story, agent, model) triple has reached the configured threshold. The
// count never decays and an intervening success does not reset it.
func (s *Scheduler) ShouldRotate(storyID, agent, modelName string) bool {
	state := s.store.Load()
	return state.FailureCount(storyID, agent, modelName) >= s.cfg.FailureThreshold
}

// RotateModel advances an agent's persisted model index. When the agent has
// at most one model, or the advance would wrap back to 0, the models are
// exhausted and rotation escalates to RotateAgent.
func (s *Scheduler) RotateModel(agent, command string) (RotateOutcome, error) {
	list := s.resolveList(command)
	entry, idx := findAgent(list, agent)
	if idx < 0 {
		return "", model.NewConfigError("rotation", "unknown agent %q", agent)
	}

	if len(entry.Models) <= 1 {
		return s.RotateAgent(command)
	}

	state := s.store.Load()
	next := state.CurrentModelIndices[agent] + 1
	if next >= len(entry.Models) {
		return s.RotateAgent(command)
	}

	err := s.store.Update(func(st *model.RotationState) {
		st.CurrentModelIndices[agent] = next
		st.RotationsCount++
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("rotated %s to model %s", agent, entry.Models[next])
	return RotateAdvanced, nil
}

// RotateAgent advances the persisted agent index in the resolved rotation
// list and resets the new agent's model index to 0.
func (s *Scheduler) RotateAgent(command string) (RotateOutcome, error) {
	list := s.resolveList(command)
	if len(list) <= 1 {
		s.logger.Warn("rotation requested but only %d agent configured", len(list))
		return RotateNoAgents, nil
	}

	var outcome RotateOutcome
	var nextAgent string
	err := s.store.Update(func(st *model.RotationState) {
		current := st.CurrentAgentIndex
		if current < 0 || current >= len(list) {
			current = 0
		}
		next := (current + 1) % len(list)
		st.CurrentAgentIndex = next
		st.CurrentModelIndices[list[next].Name] = 0
		st.RotationsCount++

		nextAgent = list[next].Name
		if next == 0 {
			outcome = RotateWrapped
		} else {
			outcome = RotateAdvanced
		}
	})
	if err != nil {
		return "", err
	}

	if outcome == RotateWrapped {
		s.logger.Warn("agent rotation wrapped: every agent in the list has been tried")
	} else {
		s.logger.Info("rotated to agent %s", nextAgent)
	}
	return outcome, nil
}

// RecordRateLimit starts the cooldown window for an agent.
func (s *Scheduler) RecordRateLimit(agent string) error {
	now := s.now()
	until := now.Add(time.Duration(s.cfg.CooldownSec) * time.Second)
	err := s.store.Update(func(st *model.RotationState) {
		st.RateLimits[agent] = model.RateLimitRecord{HitAt: now, CooldownUntil: until}
		st.RateLimitsCount++
	})
	if err != nil {
		return err
	}
	s.logger.Warn("rate limit recorded for %s, cooling down until %s", agent, until.Format(time.RFC3339))
	return nil
}

// IsAgentCooledDown reports whether an agent's cooldown window has elapsed.
// Agents that never hit a rate limit are always eligible.
func (s *Scheduler) IsAgentCooledDown(agent string) bool {
	state := s.store.Load()
	return s.isCooledDown(state, agent)
}

func (s *Scheduler) isCooledDown(state *model.RotationState, agent string) bool {
	rec, ok := state.RateLimits[agent]
	if !ok {
		return true
	}
	return !s.now().Before(rec.CooldownUntil)
}

// RecordOutcome appends one attempt record for a story. This is the sole
// write path into the story history.
func (s *Scheduler) RecordOutcome(storyID, agent, modelName string, event model.AttemptEvent) error {
	if !model.IsValidAttemptEvent(event) {
		return model.NewConfigError("event", "unknown attempt event %q", event)
	}
	return s.store.Update(func(st *model.RotationState) {
		st.RecordAttempt(storyID, model.Attempt{
			Agent:     agent,
			Model:     modelName,
			Timestamp: s.now(),
			Result:    event,
		})
	})
}

// ResetStory deletes a story's attempt history so a reused story id starts
// with a clean failure count.
func (s *Scheduler) ResetStory(storyID string) error {
	return s.store.Update(func(st *model.RotationState) {
		delete(st.Stories, storyID)
	})
}

// DetectRateLimit classifies free-text agent output for throttling signals.
func (s *Scheduler) DetectRateLimit(agent, output string) bool {
	return classifierFor(agent).DetectRateLimit(output)
}

// ExtractUsage scrapes best-effort usage counters from agent output and
// accumulates them into the persisted usage map. Unmatched output is
// silently ignored.
func (s *Scheduler) ExtractUsage(agent, output string) error {
	counters := classifierFor(agent).ParseUsage(output)
	if len(counters) == 0 {
		return nil
	}
	return s.store.Update(func(st *model.RotationState) {
		for k, v := range counters {
			st.AddUsage(agent, k, v)
		}
	})
}

// State exposes a point-in-time copy of the persisted document for status
// rendering.
func (s *Scheduler) State() *model.RotationState {
	return s.store.Load()
}
