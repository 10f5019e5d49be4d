package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustIST(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return loc
}

func TestSessionRegularHours(t *testing.T) {
	cal := MustNew(Default())
	loc := mustIST(t)

	// Tuesday 2025-08-26 11:00 IST
	now := time.Date(2025, 8, 26, 11, 0, 0, 0, loc)
	session := cal.Session(now)

	require.Equal(t, KindRegular, session.Kind)
	require.True(t, session.IsOpen)
	require.Equal(t, time.Date(2025, 8, 26, 15, 30, 0, 0, loc), session.NextTransitionAt)
	require.Equal(t, 4*time.Hour+30*time.Minute, session.TimeUntilTransition)
}

func TestSessionPreMarket(t *testing.T) {
	cal := MustNew(Default())
	loc := mustIST(t)

	now := time.Date(2025, 8, 26, 9, 5, 0, 0, loc)
	session := cal.Session(now)

	require.Equal(t, KindPreMarket, session.Kind)
	require.False(t, session.IsOpen)
	require.Equal(t, time.Date(2025, 8, 26, 9, 15, 0, 0, loc), session.NextTransitionAt)
}

func TestSessionAfterClose(t *testing.T) {
	cal := MustNew(Default())
	loc := mustIST(t)

	now := time.Date(2025, 8, 26, 15, 31, 0, 0, loc)
	session := cal.Session(now)

	require.Equal(t, KindClosed, session.Kind)
	require.False(t, session.IsOpen)
	require.Equal(t, time.Date(2025, 8, 27, 9, 15, 0, 0, loc), session.NextTransitionAt)
}

func TestSessionWeekend(t *testing.T) {
	cal := MustNew(Default())
	loc := mustIST(t)

	// Saturday midday; next open is Monday.
	now := time.Date(2025, 8, 23, 12, 0, 0, 0, loc)
	session := cal.Session(now)

	require.Equal(t, KindClosed, session.Kind)
	require.Equal(t, time.Date(2025, 8, 25, 9, 15, 0, 0, loc), session.NextTransitionAt)
}

func TestSessionHoliday(t *testing.T) {
	cal := MustNew(Default())
	loc := mustIST(t)

	// Independence Day 2025-08-15 falls on a Friday; market reopens Monday.
	now := time.Date(2025, 8, 15, 11, 0, 0, 0, loc)
	require.False(t, cal.IsTradingDay(now))

	session := cal.Session(now)
	require.Equal(t, KindClosed, session.Kind)
	require.Equal(t, time.Date(2025, 8, 18, 9, 15, 0, 0, loc), session.NextTransitionAt)
}

func TestSessionBeforePreOpenUsesSameDay(t *testing.T) {
	cal := MustNew(Default())
	loc := mustIST(t)

	now := time.Date(2025, 8, 26, 7, 0, 0, 0, loc)
	session := cal.Session(now)

	require.Equal(t, KindClosed, session.Kind)
	require.Equal(t, time.Date(2025, 8, 26, 9, 15, 0, 0, loc), session.NextTransitionAt)
}

func TestPreviousTradingDaySkipsWeekend(t *testing.T) {
	cal := MustNew(Default())
	loc := mustIST(t)

	monday := time.Date(2025, 8, 25, 10, 0, 0, 0, loc)
	prev := cal.PreviousTradingDay(monday)
	require.Equal(t, time.Date(2025, 8, 22, 0, 0, 0, 0, loc), prev)
}

func TestPreviousTradingDaySkipsHoliday(t *testing.T) {
	cal := MustNew(Default())
	loc := mustIST(t)

	// Monday 2025-08-18: Friday the 15th was a holiday, so the previous
	// trading day is Thursday the 14th.
	monday := time.Date(2025, 8, 18, 10, 0, 0, 0, loc)
	prev := cal.PreviousTradingDay(monday)
	require.Equal(t, time.Date(2025, 8, 14, 0, 0, 0, 0, loc), prev)
}

func TestStatusMessageOpen(t *testing.T) {
	cal := MustNew(Default())
	loc := mustIST(t)

	status := cal.Status(time.Date(2025, 8, 26, 13, 15, 0, 0, loc))
	require.Equal(t, "open", status.Status)
	require.Equal(t, "market_close", status.NextEvent)
	require.Contains(t, status.Message, "Closes in 2h 15m")
}

func TestStatusMessageClosedMultiDay(t *testing.T) {
	cal := MustNew(Default())
	loc := mustIST(t)

	status := cal.Status(time.Date(2025, 8, 22, 16, 0, 0, 0, loc))
	require.Equal(t, "closed", status.Status)
	require.Equal(t, "market_open", status.NextEvent)
	require.True(t, strings.Contains(status.Message, "days"), "weekend gap should render in days: %s", status.Message)
}

func TestConfigValidation(t *testing.T) {
	cfg := Default()
	cfg.Timezone = "Mars/Olympus"
	_, err := New(cfg)
	require.ErrorContains(t, err, "invalid timezone")

	cfg = Default()
	cfg.Open = "16:00"
	_, err = New(cfg)
	require.ErrorContains(t, err, "pre_open <= open < close")

	cfg = Default()
	cfg.Holidays = append(cfg.Holidays, Holiday{Date: "26-01-2025", Name: "bad"})
	_, err = New(cfg)
	require.ErrorContains(t, err, "invalid holiday date")
}

func TestLoadConfigFromReader(t *testing.T) {
	yamlDoc := `
timezone: Asia/Kolkata
pre_open: "09:00"
open: "09:15"
close: "15:30"
holidays:
  - date: "2025-12-25"
    name: Christmas
`
	cfg, err := LoadConfigFromReader(strings.NewReader(yamlDoc))
	require.NoError(t, err)
	require.Equal(t, "Asia/Kolkata", cfg.Timezone)
	require.Len(t, cfg.Holidays, 1)
}
