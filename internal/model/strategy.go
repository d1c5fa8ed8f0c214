package model

import "fmt"

// Strategy selects how the next non-cooled-down agent is chosen from the
// rotation list.
type Strategy string

const (
	// StrategySequential starts at the persisted index and advances,
	// wrapping at the end of the list.
	StrategySequential Strategy = "sequential"
	// StrategyPriority always scans the list from its start.
	StrategyPriority Strategy = "priority"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategySequential, StrategyPriority:
		return Strategy(s), nil
	case "":
		return StrategySequential, nil
	default:
		return "", fmt.Errorf("unknown rotation strategy %q", s)
	}
}
