package engine

import (
	"fmt"
	"time"
)

// Admission is the single gate every simulated trade passes through: a
// global cooldown between trades plus a rolling hourly cap. It is checked
// before sizing so rejected opportunities cost nothing.
type Admission struct {
	spacing time.Duration
	hourCap int

	windowStart    time.Time
	tradesInWindow int
	lastTradeAt    time.Time
}

// NewAdmission creates the controller with the given minimum spacing
// between trades and maximum trades per rolling hour.
func NewAdmission(spacing time.Duration, hourCap int) *Admission {
	return &Admission{spacing: spacing, hourCap: hourCap}
}

// Admit decides whether a trade may proceed at now. On acceptance it
// consumes a slot: the hourly counter increments and the cooldown resets.
func (a *Admission) Admit(now time.Time) (bool, string) {
	if !a.lastTradeAt.IsZero() && now.Sub(a.lastTradeAt) < a.spacing {
		return false, fmt.Sprintf("cooldown: %s since last trade, need %s",
			now.Sub(a.lastTradeAt).Round(time.Second), a.spacing)
	}

	if a.windowStart.IsZero() || now.Sub(a.windowStart) >= time.Hour {
		a.windowStart = now
		a.tradesInWindow = 0
	}
	if a.tradesInWindow >= a.hourCap {
		return false, fmt.Sprintf("hourly cap: %d/%d in window", a.tradesInWindow, a.hourCap)
	}

	a.tradesInWindow++
	a.lastTradeAt = now
	return true, ""
}

// TradesInWindow reports the admitted count in the current hourly window.
func (a *Admission) TradesInWindow() int { return a.tradesInWindow }
