// Package cronexpr wraps robfig/cron's standard 5-field parser behind two
// operations: validating an expression and computing the next fire instant
// strictly after a reference instant.
package cronexpr

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Validate parses expr and returns an error if it is not a valid standard
// 5-field cron expression. Used at task-create/update time (spec.md §4.1).
func Validate(expr string) error {
	_, err := cron.ParseStandard(expr)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// Next returns the next instant strictly after ref that expr matches.
func Next(expr string, ref time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return sched.Next(ref), nil
}
