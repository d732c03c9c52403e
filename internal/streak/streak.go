// Package streak decides how a user's logging streak moves when a new food
// log arrives. The rules are pure date arithmetic over the existing record;
// persistence belongs to the caller.
package streak

import "time"

// GraceWindow is how long after the last log a new one still continues the
// streak. It is measured from the absolute last timestamp, not from calendar
// day boundaries, so logging late one night and early two mornings later
// still counts.
const GraceWindow = 48 * time.Hour

// State is the per-user streak record. HighestStreak never decreases and is
// always >= CurrentStreak. LastLogDate is nil only before the first log.
type State struct {
	CurrentStreak int        `json:"current_streak" db:"current_streak"`
	HighestStreak int        `json:"highest_streak" db:"highest_streak"`
	LastLogDate   *time.Time `json:"last_log_date" db:"last_log_date"`
}

// Advance returns the streak state after a food log at now. It never fails:
//
//   - first-ever log starts the streak at 1
//   - another log on the same UTC calendar day changes nothing
//   - a log within the grace window extends the streak
//   - anything later resets the streak to 1, keeping the highest
func Advance(state State, now time.Time) State {
	now = now.UTC()

	if state.LastLogDate == nil {
		return State{CurrentStreak: 1, HighestStreak: 1, LastLogDate: &now}
	}

	last := state.LastLogDate.UTC()

	// Same-day logs never touch the streak, even if the hour gap to a
	// log just before midnight would also pass the grace check.
	if sameDay(last, now) {
		return state
	}

	if now.Sub(last) <= GraceWindow {
		current := state.CurrentStreak + 1
		highest := state.HighestStreak
		if current > highest {
			highest = current
		}
		return State{CurrentStreak: current, HighestStreak: highest, LastLogDate: &now}
	}

	return State{CurrentStreak: 1, HighestStreak: state.HighestStreak, LastLogDate: &now}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
