package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAdmit_CooldownRejectsSecondTrade(t *testing.T) {
	a := NewAdmission(30*time.Second, 10)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	ok, _ := a.Admit(now)
	assert.True(t, ok)

	// Inside the spacing window the second trade is always rejected,
	// regardless of edge quality.
	ok, reason := a.Admit(now.Add(10 * time.Second))
	assert.False(t, ok)
	assert.Contains(t, reason, "cooldown")

	ok, _ = a.Admit(now.Add(30 * time.Second))
	assert.True(t, ok)
}

func TestAdmit_HourlyCapAdmitsExactlyN(t *testing.T) {
	const maxPerHour = 10
	a := NewAdmission(time.Second, maxPerHour)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	admitted := 0
	for i := 0; i < maxPerHour+5; i++ {
		// Burst spaced just past the cooldown, all within one hour.
		if ok, _ := a.Admit(now.Add(time.Duration(i) * 2 * time.Second)); ok {
			admitted++
		}
	}
	assert.Equal(t, maxPerHour, admitted)
}

func TestAdmit_WindowResetsAfterHour(t *testing.T) {
	a := NewAdmission(time.Second, 2)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	ok, _ := a.Admit(now)
	assert.True(t, ok)
	ok, _ = a.Admit(now.Add(2 * time.Second))
	assert.True(t, ok)

	ok, reason := a.Admit(now.Add(4 * time.Second))
	assert.False(t, ok)
	assert.Contains(t, reason, "hourly cap")

	// One hour past the window start the counter resets.
	ok, _ = a.Admit(now.Add(time.Hour + time.Second))
	assert.True(t, ok)
	assert.Equal(t, 1, a.TradesInWindow())
}

func TestAdmit_FirstTradeNeedsNoCooldown(t *testing.T) {
	a := NewAdmission(30*time.Second, 1)
	ok, _ := a.Admit(time.Now())
	assert.True(t, ok)
}
