package gamification

import "sort"

// Snapshot is one user's scoreboard row as read from the store. The store
// upstream has produced duplicate usernames before, so Rank dedups first.
type Snapshot struct {
	Username         string `json:"username"`
	TotalPoints      int    `json:"total_points"`
	HighestStreak    int    `json:"highest_streak"`
	AchievementCount int    `json:"achievements"`
}

type LeaderboardEntry struct {
	Rank             int    `json:"rank"`
	Username         string `json:"username"`
	TotalPoints      int    `json:"total_points"`
	HighestStreak    int    `json:"highest_streak"`
	AchievementCount int    `json:"achievements"`
}

// Rank dedups snapshots by username, orders them best first, and truncates
// to limit. For duplicate usernames the higher highest_streak wins; equal
// streaks fall back to higher total_points; otherwise the first seen stays.
// The final username tie-break makes the ordering a deterministic total
// order for equal scores.
func Rank(snapshots []Snapshot, limit int) []LeaderboardEntry {
	unique := make(map[string]Snapshot)
	var names []string

	for _, s := range snapshots {
		kept, seen := unique[s.Username]
		if !seen {
			unique[s.Username] = s
			names = append(names, s.Username)
			continue
		}
		if s.HighestStreak > kept.HighestStreak ||
			(s.HighestStreak == kept.HighestStreak && s.TotalPoints > kept.TotalPoints) {
			unique[s.Username] = s
		}
	}

	deduped := make([]Snapshot, 0, len(names))
	for _, name := range names {
		deduped = append(deduped, unique[name])
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		a, b := deduped[i], deduped[j]
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		if a.HighestStreak != b.HighestStreak {
			return a.HighestStreak > b.HighestStreak
		}
		if a.AchievementCount != b.AchievementCount {
			return a.AchievementCount > b.AchievementCount
		}
		return a.Username < b.Username
	})

	if limit < 0 {
		limit = 0
	}
	if limit > len(deduped) {
		limit = len(deduped)
	}

	entries := make([]LeaderboardEntry, 0, limit)
	for i, s := range deduped[:limit] {
		entries = append(entries, LeaderboardEntry{
			Rank:             i + 1,
			Username:         s.Username,
			TotalPoints:      s.TotalPoints,
			HighestStreak:    s.HighestStreak,
			AchievementCount: s.AchievementCount,
		})
	}
	return entries
}
