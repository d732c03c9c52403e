package gamification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calmateAPI/internal/types/foodlog"
)

func TestEvaluateWeekWarriorAtSeven(t *testing.T) {
	catalog := NewCatalog()

	// User just moved from a highest streak of 6 to 7.
	newly, delta := catalog.Evaluate(AggregateStats{HighestStreak: 7, TotalFoodLogs: 12}, map[string]bool{})

	require.Len(t, newly, 1)
	assert.Equal(t, WeekWarrior, newly[0].ID)
	assert.Equal(t, 100, delta)
}

func TestEvaluateMultipleAtOnce(t *testing.T) {
	catalog := NewCatalog()

	stats := AggregateStats{HighestStreak: 30, TotalFoodLogs: 150, FriendCount: 11}
	newly, delta := catalog.Evaluate(stats, map[string]bool{})

	ids := make([]string, len(newly))
	for i, a := range newly {
		ids[i] = a.ID
	}
	assert.ElementsMatch(t, []string{WeekWarrior, MonthMaster, CenturyLogger, SocialButterfly}, ids)
	assert.Equal(t, 100+500+1000+300, delta)
}

func TestEvaluateIdempotent(t *testing.T) {
	catalog := NewCatalog()
	stats := AggregateStats{HighestStreak: 8, TotalFoodLogs: 5}

	current := map[string]bool{}
	newly, _ := catalog.Evaluate(stats, current)
	require.NotEmpty(t, newly)
	for _, a := range newly {
		current[a.ID] = true
	}

	again, delta := catalog.Evaluate(stats, current)
	assert.Empty(t, again, "unchanged stats must not re-award")
	assert.Zero(t, delta)
}

func TestEvaluateNothingQualifies(t *testing.T) {
	catalog := NewCatalog()

	newly, delta := catalog.Evaluate(AggregateStats{HighestStreak: 6, TotalFoodLogs: 99, FriendCount: 9}, map[string]bool{})

	assert.Empty(t, newly)
	assert.Zero(t, delta)
}

func logAt(ts time.Time, protein float64) foodlog.FoodLog {
	return foodlog.FoodLog{
		Timestamp:      ts,
		Macronutrients: foodlog.Macronutrients{Protein: protein},
	}
}

func TestProteinStreakMet(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	var logs []foodlog.FoodLog
	for d := 0; d < 7; d++ {
		logs = append(logs, logAt(now.Add(-time.Duration(d)*24*time.Hour+time.Hour), 55))
	}
	assert.True(t, ProteinStreakMet(logs, now))
}

func TestProteinStreakFewerThanSevenLogs(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	var logs []foodlog.FoodLog
	for d := 0; d < 6; d++ {
		logs = append(logs, logAt(now.Add(-time.Duration(d)*24*time.Hour), 80))
	}
	assert.False(t, ProteinStreakMet(logs, now), "six high-protein logs are not enough")
}

func TestProteinStreakOneLowLogFails(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	var logs []foodlog.FoodLog
	for d := 0; d < 8; d++ {
		logs = append(logs, logAt(now.Add(-time.Duration(d*20)*time.Hour), 60))
	}
	logs[3].Macronutrients.Protein = 49

	assert.False(t, ProteinStreakMet(logs, now))
}

func TestProteinStreakIgnoresOldLogs(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	var logs []foodlog.FoodLog
	for d := 0; d < 7; d++ {
		logs = append(logs, logAt(now.Add(-time.Duration(d)*24*time.Hour+time.Hour), 55))
	}
	// A low-protein log outside the window must not break the check.
	logs = append(logs, logAt(now.Add(-8*24*time.Hour), 5))

	assert.True(t, ProteinStreakMet(logs, now))
}

func TestActionPoints(t *testing.T) {
	assert.Equal(t, 10, ActionPoints(ActionFoodLog))
	assert.Equal(t, 20, ActionPoints(ActionStreakDay))
	assert.Equal(t, 5, ActionPoints(ActionFriendInteraction))
	assert.Equal(t, 100, ActionPoints(ActionPerfectWeek))
	assert.Zero(t, ActionPoints("no_such_action"))
}
