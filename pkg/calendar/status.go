package calendar

import (
	"fmt"
	"time"
)

// StatusMessage is the human-readable market status served by the public
// status endpoint.
type StatusMessage struct {
	Status      string    `json:"status"` // open | closed
	Message     string    `json:"message"`
	NextEvent   string    `json:"next_event"` // market_open | market_close
	NextEventAt time.Time `json:"next_event_at"`
	SessionKind Kind      `json:"session_kind"`
}

// Status renders the session state at t as a display message.
func (c *Calendar) Status(t time.Time) StatusMessage {
	session := c.Session(t)

	if session.IsOpen {
		return StatusMessage{
			Status:      "open",
			Message:     fmt.Sprintf("Market is OPEN - Closes in %s", formatCountdown(session.TimeUntilTransition)),
			NextEvent:   "market_close",
			NextEventAt: session.NextTransitionAt,
			SessionKind: session.Kind,
		}
	}

	return StatusMessage{
		Status:      "closed",
		Message:     fmt.Sprintf("Market CLOSED - Opens in %s", formatCountdown(session.TimeUntilTransition)),
		NextEvent:   "market_open",
		NextEventAt: session.NextTransitionAt,
		SessionKind: session.Kind,
	}
}

func formatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if days := int(d.Hours()) / 24; days > 0 {
		return fmt.Sprintf("%d days", days)
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
