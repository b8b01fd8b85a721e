package models

import (
	"time"

	"github.com/google/uuid"
)

// Phase is the part of the league calendar a moment falls in.
type Phase string

const (
	PhaseEarlyOffseason Phase = "EARLY_OFFSEASON"
	PhasePreseason      Phase = "PRESEASON"
	PhaseRegularSeason  Phase = "REGULAR_SEASON"
	PhasePostDeadline   Phase = "POST_DEADLINE"
	PhasePlayoffs       Phase = "PLAYOFFS"
	PhaseDeadPeriod     Phase = "DEAD_PERIOD"
)

// KeyDates are the calendar boundaries of one league season.
type KeyDates struct {
	Auction       time.Time `json:"auction" yaml:"auction"`
	CutDay        time.Time `json:"cut_day" yaml:"cut_day"`
	TradeDeadline time.Time `json:"trade_deadline" yaml:"trade_deadline"`
	PlayoffStart  time.Time `json:"playoff_start" yaml:"playoff_start"`
	SeasonEnd     time.Time `json:"season_end" yaml:"season_end"`
}

// Merge returns k with every non-zero date from overrides applied.
func (k KeyDates) Merge(overrides KeyDates) KeyDates {
	if !overrides.Auction.IsZero() {
		k.Auction = overrides.Auction
	}
	if !overrides.CutDay.IsZero() {
		k.CutDay = overrides.CutDay
	}
	if !overrides.TradeDeadline.IsZero() {
		k.TradeDeadline = overrides.TradeDeadline
	}
	if !overrides.PlayoffStart.IsZero() {
		k.PlayoffStart = overrides.PlayoffStart
	}
	if !overrides.SeasonEnd.IsZero() {
		k.SeasonEnd = overrides.SeasonEnd
	}
	return k
}

// PhaseAt places t on the season calendar.
func (k KeyDates) PhaseAt(t time.Time) Phase {
	switch {
	case !k.SeasonEnd.IsZero() && !t.Before(k.SeasonEnd):
		return PhaseDeadPeriod
	case !k.PlayoffStart.IsZero() && !t.Before(k.PlayoffStart):
		return PhasePlayoffs
	case !k.TradeDeadline.IsZero() && !t.Before(k.TradeDeadline):
		return PhasePostDeadline
	case !k.CutDay.IsZero() && !t.Before(k.CutDay):
		return PhaseRegularSeason
	case !k.Auction.IsZero() && !t.Before(k.Auction):
		return PhasePreseason
	default:
		return PhaseEarlyOffseason
	}
}

// League is the singleton league state: the current season and each season's calendar.
type League struct {
	CurrentSeason int              `json:"current_season"`
	KeyDates      map[int]KeyDates `json:"key_dates"`
	PlayoffAlive  []uuid.UUID      `json:"playoff_alive,omitempty"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// ClockAt builds the clock processors read instead of querying league state themselves.
func (l League) ClockAt(now time.Time) LeagueClock {
	alive := make(map[uuid.UUID]bool, len(l.PlayoffAlive))
	for _, id := range l.PlayoffAlive {
		alive[id] = true
	}
	return LeagueClock{
		Season:       l.CurrentSeason,
		Now:          now,
		KeyDates:     l.KeyDates[l.CurrentSeason],
		PlayoffAlive: alive,
	}
}

// LeagueClock is an immutable view of where the league is in time.
type LeagueClock struct {
	Season       int
	Now          time.Time
	KeyDates     KeyDates
	PlayoffAlive map[uuid.UUID]bool
}

// Phase returns the phase Now falls in.
func (c LeagueClock) Phase() Phase {
	return c.KeyDates.PhaseAt(c.Now)
}

// HardCapActive reports whether the current season is past cut day.
func (c LeagueClock) HardCapActive() bool {
	return !c.KeyDates.CutDay.IsZero() && !c.Now.Before(c.KeyDates.CutDay)
}

// TradeWindowOpen reports whether trades fall inside the normal trading window.
func (c LeagueClock) TradeWindowOpen() bool {
	switch c.Phase() {
	case PhaseEarlyOffseason, PhasePreseason, PhaseRegularSeason:
		return true
	}
	return false
}

// CutsAllowed reports whether franchiseID may release players right now.
func (c LeagueClock) CutsAllowed(franchiseID uuid.UUID) bool {
	switch c.Phase() {
	case PhaseDeadPeriod:
		return false
	case PhasePlayoffs:
		return c.PlayoffAlive[franchiseID]
	}
	return true
}
