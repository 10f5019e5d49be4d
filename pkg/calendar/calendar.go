package calendar

import (
	"time"
)

// Kind identifies the trading-session phase for a point in time.
type Kind string

const (
	KindRegular   Kind = "regular"
	KindPreMarket Kind = "pre_market"
	KindClosed    Kind = "closed"
)

// SessionState is a pure derived value describing the market session at a
// given instant. It is recomputed on demand and never persisted.
type SessionState struct {
	Kind                Kind
	IsOpen              bool
	NextTransitionAt    time.Time
	TimeUntilTransition time.Duration
}

// Calendar answers trading-session questions for a single exchange. It is a
// pure function of wall-clock time plus a static holiday table: the same
// input time always yields the same state, so tests can inject fixed times.
type Calendar struct {
	loc      *time.Location
	preOpen  int // minutes since midnight
	open     int
	close    int
	holidays map[string]string // YYYY-MM-DD -> name
}

// New builds a Calendar from a validated Config.
func New(cfg Config) (*Calendar, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	preOpen, _ := parseClock(cfg.PreOpen)
	open, _ := parseClock(cfg.Open)
	closeAt, _ := parseClock(cfg.Close)

	holidays := make(map[string]string, len(cfg.Holidays))
	for _, h := range cfg.Holidays {
		holidays[h.Date] = h.Name
	}
	return &Calendar{
		loc:      loc,
		preOpen:  preOpen,
		open:     open,
		close:    closeAt,
		holidays: holidays,
	}, nil
}

// MustNew builds a Calendar and panics on invalid configuration.
func MustNew(cfg Config) *Calendar {
	cal, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return cal
}

// Location returns the exchange timezone.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// IsHoliday reports whether the given date is an exchange holiday.
func (c *Calendar) IsHoliday(t time.Time) (bool, string) {
	name, ok := c.holidays[t.In(c.loc).Format("2006-01-02")]
	return ok, name
}

// IsTradingDay reports whether the exchange trades on the given date.
func (c *Calendar) IsTradingDay(t time.Time) bool {
	local := t.In(c.loc)
	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	holiday, _ := c.IsHoliday(local)
	return !holiday
}

// Session computes the session state at time t.
func (c *Calendar) Session(t time.Time) SessionState {
	local := t.In(c.loc)
	minute := local.Hour()*60 + local.Minute()

	if c.IsTradingDay(local) {
		switch {
		case minute >= c.open && minute <= c.close:
			nextClose := c.at(local, c.close)
			return SessionState{
				Kind:                KindRegular,
				IsOpen:              true,
				NextTransitionAt:    nextClose,
				TimeUntilTransition: nextClose.Sub(local),
			}
		case minute >= c.preOpen && minute < c.open:
			nextOpen := c.at(local, c.open)
			return SessionState{
				Kind:                KindPreMarket,
				NextTransitionAt:    nextOpen,
				TimeUntilTransition: nextOpen.Sub(local),
			}
		}
	}

	nextOpen := c.nextOpen(local)
	return SessionState{
		Kind:                KindClosed,
		NextTransitionAt:    nextOpen,
		TimeUntilTransition: nextOpen.Sub(local),
	}
}

// PreviousTradingDay returns the most recent trading day strictly before t.
func (c *Calendar) PreviousTradingDay(t time.Time) time.Time {
	day := t.In(c.loc).AddDate(0, 0, -1)
	for !c.IsTradingDay(day) {
		day = day.AddDate(0, 0, -1)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, c.loc)
}

// nextOpen finds the next regular-session open after t.
func (c *Calendar) nextOpen(local time.Time) time.Time {
	day := local
	// Today still counts if the open lies ahead of us.
	if !c.IsTradingDay(day) || local.Hour()*60+local.Minute() >= c.open {
		day = day.AddDate(0, 0, 1)
	}
	for !c.IsTradingDay(day) {
		day = day.AddDate(0, 0, 1)
	}
	return c.at(day, c.open)
}

// at anchors a minutes-since-midnight clock value onto the date of day.
func (c *Calendar) at(day time.Time, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), minute/60, minute%60, 0, 0, c.loc)
}
