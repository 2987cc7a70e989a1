package ratelimit

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
)

func TestAllowWithinWindow(t *testing.T) {
	l := New(time.Hour, 3)

	gt.True(t, l.Allow("onboarding:user-1"))
	gt.True(t, l.Allow("onboarding:user-1"))
	gt.True(t, l.Allow("onboarding:user-1"))
	gt.False(t, l.Allow("onboarding:user-1"))

	// Other keys are independent
	gt.True(t, l.Allow("onboarding:user-2"))
}

func TestWindowReset(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := New(time.Hour, 2)
	l.now = func() time.Time { return now }

	gt.True(t, l.Allow("k"))
	gt.True(t, l.Allow("k"))
	gt.False(t, l.Allow("k"))

	// Advance past the window: counter resets
	now = now.Add(time.Hour + time.Second)
	gt.True(t, l.Allow("k"))
	gt.True(t, l.Allow("k"))
	gt.False(t, l.Allow("k"))
}

func TestDeniedCallDoesNotExtendWindow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := New(time.Minute, 1)
	l.now = func() time.Time { return now }

	gt.True(t, l.Allow("k"))
	gt.False(t, l.Allow("k"))

	now = now.Add(61 * time.Second)
	gt.True(t, l.Allow("k"))
}
