package readiness

import "time"

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithClock sets the time source used for trailing-window calculations.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithProgression replaces the role progression table.
func WithProgression(progression map[string]Progression) Option {
	return func(c *Calculator) {
		if len(progression) > 0 {
			c.progression = progression
		}
	}
}
