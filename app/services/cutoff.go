package services

import (
	"fmt"
	"time"

	"github.com/sheapwilliams/lunch/config"
	"github.com/sheapwilliams/lunch/pkg/clock"
)

const dateLayout = "2006-01-02"

// CutoffPolicy decides whether ordering for a given service date is closed.
//
// The cutoff is a single instant per calendar date: the configured local
// time-of-day on that date, in the restaurant's timezone, converted to UTC.
// Comparing instants rather than wall-clock strings keeps the answer
// identical for every client timezone and correct across DST transitions.
type CutoffPolicy struct {
	loc    *time.Location
	hour   int
	minute int
	clk    clock.Clock
}

// NewCutoffPolicy builds a policy for the given IANA timezone and "HH:MM"
// cutoff. Invalid configuration is rejected here, at startup, not per-call.
func NewCutoffPolicy(tz, cutoff string, clk clock.Clock) (*CutoffPolicy, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("cutoff: invalid timezone %q: %w", tz, err)
	}

	var hour, minute int
	if _, err := fmt.Sscanf(cutoff, "%d:%d", &hour, &minute); err != nil {
		return nil, fmt.Errorf("cutoff: invalid cutoff time %q (want HH:MM): %w", cutoff, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("cutoff: cutoff time %q out of range", cutoff)
	}

	return &CutoffPolicy{loc: loc, hour: hour, minute: minute, clk: clk}, nil
}

// NewCutoffPolicyFromConfig builds the production policy from configuration.
func NewCutoffPolicyFromConfig(clk clock.Clock) (*CutoffPolicy, error) {
	return NewCutoffPolicy(config.LocationTimezone(), config.OrderCutoff(), clk)
}

// IsClosed reports whether ordering for date ("2006-01-02") has closed.
func (p *CutoffPolicy) IsClosed(date string) (bool, error) {
	day, err := time.ParseInLocation(dateLayout, date, p.loc)
	if err != nil {
		return false, fmt.Errorf("cutoff: invalid date %q: %w", date, err)
	}

	cutoff := time.Date(day.Year(), day.Month(), day.Day(), p.hour, p.minute, 0, 0, p.loc)
	return !p.clk.Now().UTC().Before(cutoff.UTC()), nil
}

// CutoffFor returns the UTC instant at which ordering for date closes.
func (p *CutoffPolicy) CutoffFor(date string) (time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, date, p.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("cutoff: invalid date %q: %w", date, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), p.hour, p.minute, 0, 0, p.loc).UTC(), nil
}
