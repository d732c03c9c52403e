package gamification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankOrdering(t *testing.T) {
	entries := Rank([]Snapshot{
		{Username: "carol", TotalPoints: 500, HighestStreak: 10, AchievementCount: 2},
		{Username: "alice", TotalPoints: 900, HighestStreak: 3, AchievementCount: 1},
		{Username: "bob", TotalPoints: 500, HighestStreak: 12, AchievementCount: 2},
	}, 10)

	require.Len(t, entries, 3)
	assert.Equal(t, "alice", entries[0].Username)
	assert.Equal(t, "bob", entries[1].Username, "equal points fall back to streak")
	assert.Equal(t, "carol", entries[2].Username)
	assert.Equal(t, []int{1, 2, 3}, []int{entries[0].Rank, entries[1].Rank, entries[2].Rank})
}

func TestRankAlphabeticalOnFullTie(t *testing.T) {
	entries := Rank([]Snapshot{
		{Username: "zoe", TotalPoints: 100, HighestStreak: 5, AchievementCount: 1},
		{Username: "amy", TotalPoints: 100, HighestStreak: 5, AchievementCount: 1},
	}, 10)

	require.Len(t, entries, 2)
	assert.Equal(t, "amy", entries[0].Username)
	assert.Equal(t, "zoe", entries[1].Username)
}

func TestRankDedupKeepsHigherStreak(t *testing.T) {
	entries := Rank([]Snapshot{
		{Username: "alice", TotalPoints: 50, HighestStreak: 5},
		{Username: "alice", TotalPoints: 10, HighestStreak: 10},
	}, 10)

	require.Len(t, entries, 1)
	assert.Equal(t, 10, entries[0].HighestStreak)
	assert.Equal(t, 10, entries[0].TotalPoints)
}

func TestRankDedupTieBreaksOnPoints(t *testing.T) {
	entries := Rank([]Snapshot{
		{Username: "alice", TotalPoints: 50, HighestStreak: 5},
		{Username: "alice", TotalPoints: 80, HighestStreak: 5},
		{Username: "alice", TotalPoints: 80, HighestStreak: 5, AchievementCount: 3},
	}, 10)

	require.Len(t, entries, 1)
	assert.Equal(t, 80, entries[0].TotalPoints)
	// Neither streak nor points strictly greater: first seen stays.
	assert.Equal(t, 0, entries[0].AchievementCount)
}

func TestRankTruncates(t *testing.T) {
	var snapshots []Snapshot
	for i := 0; i < 25; i++ {
		snapshots = append(snapshots, Snapshot{Username: string(rune('a' + i)), TotalPoints: i})
	}

	assert.Len(t, Rank(snapshots, 10), 10)
	assert.Len(t, Rank(snapshots, 100), 25)
	assert.Empty(t, Rank(snapshots, 0))
	assert.Empty(t, Rank(snapshots, -1))
}
