// Package schedule defines the weekly grid of bookable instants and computes
// which of them are still free for a provider.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/hackgods/facility-scheduling-core/internal/apperr"
)

var (
	ErrInvalidWeekday = apperr.Validation("weekday must be Monday through Friday")
	ErrNotGridPoint   = apperr.Validation("time is not a bookable slot")
	ErrMalformedTime  = apperr.Validation("time must be formatted as HH:MM")
)

// Weekday uses the same numbering as time.Weekday; only Monday..Friday are
// bookable.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
)

var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}

func (d Weekday) Valid() bool { return d >= Monday && d <= Friday }

func (d Weekday) String() string { return time.Weekday(d).String() }

// ParseWeekday accepts full or three-letter English names, any case.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, d := range Weekdays {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, nil
		}
	}
	return 0, ErrInvalidWeekday
}

// TimeOfDay is minutes past midnight.
type TimeOfDay int

func Clock(hour, minute int) TimeOfDay { return TimeOfDay(hour*60 + minute) }

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute()) }

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, ErrMalformedTime
	}
	return Clock(parsed.Hour(), parsed.Minute()), nil
}

// Instant is one bookable point of the weekly grid.
type Instant struct {
	Day Weekday
	At  TimeOfDay
}

func (i Instant) String() string { return i.Day.String() + " " + i.At.String() }

const (
	gridStart  = 9 * 60
	gridStep   = 30
	gridPoints = 15
)

var grid = func() []TimeOfDay {
	g := make([]TimeOfDay, gridPoints)
	for i := range g {
		g[i] = TimeOfDay(gridStart + i*gridStep)
	}
	return g
}()

// Calendar is the fixed weekly grid. Every provider holds its own instance
// so a per-provider grid can replace it later without touching callers.
type Calendar struct{}

func NewCalendar() *Calendar { return &Calendar{} }

// Grid returns a copy of the grid points in ascending order.
func (c *Calendar) Grid() []TimeOfDay {
	out := make([]TimeOfDay, len(grid))
	copy(out, grid)
	return out
}

// Validate reports whether in is a point of the grid.
func (c *Calendar) Validate(in Instant) error {
	if !in.Day.Valid() {
		return ErrInvalidWeekday
	}
	for _, p := range grid {
		if p == in.At {
			return nil
		}
	}
	return ErrNotGridPoint
}

// AvailableSlots returns the grid points of day not taken by any of booked.
// Matching is exact on (weekday, time); duration plays no part. Weekend days
// are rejected with ErrInvalidWeekday.
func (c *Calendar) AvailableSlots(day Weekday, booked []Instant) ([]TimeOfDay, error) {
	if !day.Valid() {
		return nil, ErrInvalidWeekday
	}

	taken := make(map[TimeOfDay]struct{}, len(booked))
	for _, b := range booked {
		if b.Day == day {
			taken[b.At] = struct{}{}
		}
	}

	free := make([]TimeOfDay, 0, len(grid)-len(taken))
	for _, p := range grid {
		if _, ok := taken[p]; !ok {
			free = append(free, p)
		}
	}
	return free, nil
}

// IsFree reports whether in is a grid point not present in booked.
func (c *Calendar) IsFree(in Instant, booked []Instant) (bool, error) {
	if err := c.Validate(in); err != nil {
		return false, err
	}
	for _, b := range booked {
		if b == in {
			return false, nil
		}
	}
	return true, nil
}
