// Package contextbuild assembles the size-bounded working context handed to
// an agent per task: required sections always, best-effort sections only
// while they fit the token budget.
package contextbuild

import (
	"fmt"
	"math"
	"strings"

	"ralph/internal/keywords"
	"ralph/internal/logging"
	"ralph/internal/model"
	"ralph/internal/progress"
)

// Section is one candidate block of assembled context. Required sections
// are appended even when they blow the budget; correctness beats the cap.
type Section struct {
	Name     string
	Priority int
	Content  string
	Required bool
}

type Assembler struct {
	cfg    model.ContextConfig
	docs   *DocIndex
	log    *progress.Reader
	logger *logging.Logger
}

// New builds an Assembler. The operating mode is fixed at construction:
// "standard" runs the same path with an unlimited budget, so fixed line
// caps are the only truncation.
func New(cfg model.ContextConfig, docs *DocIndex, log *progress.Reader, logger *logging.Logger) *Assembler {
	return &Assembler{
		cfg:    cfg,
		docs:   docs,
		log:    log,
		logger: logging.OrNop(logger),
	}
}

// EstimateTokens approximates the token cost of text as len/K with a floor
// of one token for non-empty text. Deliberately coarse; not a tokenizer.
func (a *Assembler) EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	n := len(text) / a.cfg.CharsPerToken
	if n < 1 {
		n = 1
	}
	return n
}

func (a *Assembler) budget() int {
	if a.cfg.Mode == "standard" {
		return math.MaxInt / 2
	}
	return a.cfg.BudgetTokens
}

// Assemble builds the working context for one task. Sections are evaluated
// in priority order: required sections unconditionally, best-effort sections
// with whole-section admit/reject against the remaining budget. The caller
// owns any further truncation of the result.
func (a *Assembler) Assemble(taskTitle, taskDescription string) (string, error) {
	sections, err := a.buildSections(taskTitle, taskDescription)
	if err != nil {
		return "", err
	}

	budget := a.budget()
	used := 0
	var parts []string

	for _, sec := range sections {
		if sec.Content == "" {
			continue
		}
		block := fmt.Sprintf("## %s\n\n%s", sec.Name, strings.TrimRight(sec.Content, "\n"))
		cost := a.EstimateTokens(block)

		if sec.Required {
			parts = append(parts, block)
			used += cost
			continue
		}
		if used+cost > budget {
			a.logger.Debug("skipping section %q: %d tokens would exceed budget (%d/%d used)",
				sec.Name, cost, used, budget)
			continue
		}
		parts = append(parts, block)
		used += cost
	}

	remaining := a.cfg.BudgetTokens - used
	if remaining < 0 {
		remaining = 0
	}
	footer := fmt.Sprintf("---\nContext budget: ~%d tokens used, ~%d remaining of %d.",
		used, remaining, a.cfg.BudgetTokens)
	if a.cfg.Mode == "standard" {
		footer = fmt.Sprintf("---\nContext: ~%d tokens.", used)
	}
	parts = append(parts, footer)

	return strings.Join(parts, "\n\n"), nil
}

// buildSections gathers every candidate section in priority order, highest
// first.
func (a *Assembler) buildSections(taskTitle, taskDescription string) ([]Section, error) {
	content, err := a.log.Content()
	if err != nil {
		return nil, err
	}
	parsed := progress.Parse(content)

	task := strings.TrimSpace(taskTitle)
	if taskDescription != "" {
		task += "\n\n" + strings.TrimSpace(taskDescription)
	}

	sections := []Section{
		{Name: "Current Task", Priority: 1, Content: task, Required: true},
		{Name: "Patterns & Conventions", Priority: 2, Content: strings.TrimSpace(parsed.PreambleText()), Required: true},
		{Name: "Recent Progress", Priority: 3, Content: progress.Tail(content, a.cfg.RecentLines)},
	}

	header, err := a.docs.Header(a.cfg.DocHeaderLines)
	if err != nil {
		a.logger.Warn("doc index header unavailable: %v", err)
	}
	sections = append(sections, Section{Name: "Documentation Index", Priority: 4, Content: header})

	kws := keywords.Extract(taskTitle, taskDescription)
	matched, err := a.docs.MatchSections(kws, a.cfg.MaxKeywordSections)
	if err != nil {
		a.logger.Warn("doc section matching unavailable: %v", err)
	}
	sections = append(sections, Section{
		Name:     "Relevant Documentation",
		Priority: 5,
		Content:  strings.Join(matched, "\n\n"),
	})

	sections = append(sections, Section{
		Name:     "Earlier Progress",
		Priority: 6,
		Content:  a.olderWindow(content),
	})

	return sections, nil
}

// olderWindow is the slice of log lines immediately before the recent
// window, lowest-priority context for long-running tasks.
func (a *Assembler) olderWindow(content string) string {
	total := progress.LineCount(content)
	start := total - a.cfg.RecentLines - a.cfg.OlderLines
	if start < 0 {
		start = 0
	}
	end := total - a.cfg.RecentLines
	if end <= start {
		return ""
	}
	window, _ := progress.Window(content, start, end-start)
	return window
}
