package model

import "fmt"

// ConfigError marks a configuration problem the operator must fix before
// the run can proceed (unknown agent name, malformed rotation list). It is
// the only error class in the orchestration core that halts a run; state
// corruption and rate limits always degrade instead.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s", e.Msg)
	}
	return fmt.Sprintf("configuration error in %s: %s", e.Field, e.Msg)
}

func NewConfigError(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Msg: fmt.Sprintf(format, args...)}
}
