package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestAdvanceFirstLog(t *testing.T) {
	now := ts("2025-03-10T09:00:00Z")
	got := Advance(State{}, now)

	assert.Equal(t, 1, got.CurrentStreak)
	assert.Equal(t, 1, got.HighestStreak)
	assert.Equal(t, now, *got.LastLogDate)
}

func TestAdvanceSameDayIsNoOp(t *testing.T) {
	last := ts("2025-03-10T08:00:00Z")
	state := State{CurrentStreak: 4, HighestStreak: 9, LastLogDate: &last}

	got := Advance(state, ts("2025-03-10T22:30:00Z"))

	assert.Equal(t, state, got, "multiple logs per day must not move the streak")
}

func TestAdvanceWithinGraceIncrements(t *testing.T) {
	last := ts("2025-03-10T23:59:00Z")
	state := State{CurrentStreak: 4, HighestStreak: 9, LastLogDate: &last}

	// 26 hours later, two calendar days on.
	now := ts("2025-03-12T00:01:00Z")
	got := Advance(state, now)

	assert.Equal(t, 5, got.CurrentStreak)
	assert.Equal(t, 9, got.HighestStreak)
	assert.Equal(t, now, *got.LastLogDate)
}

func TestAdvanceGraceBoundary(t *testing.T) {
	last := ts("2025-03-10T12:00:00Z")
	state := State{CurrentStreak: 6, HighestStreak: 6, LastLogDate: &last}

	at47h := Advance(state, last.Add(47*time.Hour))
	assert.Equal(t, 7, at47h.CurrentStreak)
	assert.Equal(t, 7, at47h.HighestStreak, "new high carries into highest")

	at49h := Advance(state, last.Add(49*time.Hour))
	assert.Equal(t, 1, at49h.CurrentStreak, "past the grace window the streak resets")
	assert.Equal(t, 6, at49h.HighestStreak, "reset never lowers the highest streak")
}

func TestAdvanceResetAfterThreeDays(t *testing.T) {
	last := ts("2025-03-10T00:01:00Z")
	state := State{CurrentStreak: 12, HighestStreak: 12, LastLogDate: &last}

	got := Advance(state, ts("2025-03-13T00:02:00Z"))

	assert.Equal(t, 1, got.CurrentStreak)
	assert.Equal(t, 12, got.HighestStreak)
}

func TestAdvanceHighestMonotonic(t *testing.T) {
	cases := []struct {
		name  string
		state State
		now   time.Time
	}{
		{"first log", State{}, ts("2025-01-01T10:00:00Z")},
		{"same day", State{CurrentStreak: 2, HighestStreak: 5, LastLogDate: ptr(ts("2025-01-01T08:00:00Z"))}, ts("2025-01-01T20:00:00Z")},
		{"increment", State{CurrentStreak: 5, HighestStreak: 5, LastLogDate: ptr(ts("2025-01-01T08:00:00Z"))}, ts("2025-01-02T08:00:00Z")},
		{"reset", State{CurrentStreak: 5, HighestStreak: 8, LastLogDate: ptr(ts("2025-01-01T08:00:00Z"))}, ts("2025-01-09T08:00:00Z")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Advance(tc.state, tc.now)
			assert.GreaterOrEqual(t, got.HighestStreak, tc.state.HighestStreak)
			assert.GreaterOrEqual(t, got.HighestStreak, got.CurrentStreak)
		})
	}
}

func TestAdvanceIdempotentWithinDay(t *testing.T) {
	now := ts("2025-03-10T09:00:00Z")
	first := Advance(State{}, now)
	second := Advance(first, now.Add(5*time.Hour))

	assert.Equal(t, first, second)
}

func ptr(t time.Time) *time.Time { return &t }
