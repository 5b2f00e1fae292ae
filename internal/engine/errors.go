package engine

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced game entity does not exist. Store
// implementations map their own no-rows errors onto it.
var ErrNotFound = errors.New("not found")

// RuleError is a rejected command: the request was well formed but the rules
// forbid it in the current state. No state changes; handlers surface the
// reason to the caller.
type RuleError struct {
	Reason string
}

func (e *RuleError) Error() string { return e.Reason }

func ruleErrorf(format string, args ...any) *RuleError {
	return &RuleError{Reason: fmt.Sprintf(format, args...)}
}

// IsRuleError reports whether err is a rule rejection rather than an
// infrastructure failure.
func IsRuleError(err error) bool {
	var re *RuleError
	return errors.As(err, &re)
}
