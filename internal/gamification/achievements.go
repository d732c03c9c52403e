// Package gamification holds the achievement catalog, the predicate engine
// that decides which badges a user has newly earned, the action point table,
// and the leaderboard ranking. Everything here is pure; the service layer
// owns the reads and writes around it.
//
// Points come from two independent sources: one-time achievement awards and
// unconditional per-action awards. Both add to the same total, so an event
// can legitimately be paid twice (a perfect_week action bonus and a streak
// badge, say). That mirrors the product behavior and is left as is.
package gamification

import (
	"time"

	"calmateAPI/internal/types/foodlog"
)

const (
	WeekWarrior     = "WEEK_WARRIOR"
	MonthMaster     = "MONTH_MASTER"
	CenturyLogger   = "CENTURY_LOGGER"
	ProteinChampion = "PROTEIN_CHAMPION"
	SocialButterfly = "SOCIAL_BUTTERFLY"
)

type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Points      int    `json:"points"`
	Icon        string `json:"icon"`
}

// Catalog is the fixed achievement table. Built once at startup and passed
// into whatever needs it, never looked up through a package global.
type Catalog struct {
	entries map[string]Achievement
	order   []string
}

// NewCatalog returns the five-badge catalog.
func NewCatalog() *Catalog {
	c := &Catalog{entries: make(map[string]Achievement)}
	for _, a := range []Achievement{
		{ID: WeekWarrior, Title: "Week Warrior", Description: "Maintained a 7-day streak", Points: 100, Icon: "🔥"},
		{ID: MonthMaster, Title: "Month Master", Description: "Maintained a 30-day streak", Points: 500, Icon: "👑"},
		{ID: CenturyLogger, Title: "Century Logger", Description: "Logged 100 meals", Points: 1000, Icon: "📱"},
		{ID: ProteinChampion, Title: "Protein Champion", Description: "Maintained high protein intake for a week", Points: 200, Icon: "💪"},
		{ID: SocialButterfly, Title: "Social Butterfly", Description: "Connected with 10 friends", Points: 300, Icon: "🦋"},
	} {
		c.entries[a.ID] = a
		c.order = append(c.order, a.ID)
	}
	return c
}

func (c *Catalog) Get(id string) (Achievement, bool) {
	a, ok := c.entries[id]
	return a, ok
}

// All returns the catalog in its fixed order.
func (c *Catalog) All() []Achievement {
	out := make([]Achievement, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.entries[id])
	}
	return out
}

// AggregateStats is everything the predicates look at.
type AggregateStats struct {
	HighestStreak    int
	TotalFoodLogs    int
	ProteinStreakMet bool
	FriendCount      int
}

func (c *Catalog) qualifies(id string, stats AggregateStats) bool {
	switch id {
	case WeekWarrior:
		return stats.HighestStreak >= 7
	case MonthMaster:
		return stats.HighestStreak >= 30
	case CenturyLogger:
		return stats.TotalFoodLogs >= 100
	case ProteinChampion:
		return stats.ProteinStreakMet
	case SocialButterfly:
		return stats.FriendCount >= 10
	}
	return false
}

// Evaluate returns the achievements the user now qualifies for but does not
// hold, with the point total they are worth. Calling it again after the
// caller persists the result yields nothing, so re-evaluation is free.
func (c *Catalog) Evaluate(stats AggregateStats, current map[string]bool) (newly []Achievement, pointsDelta int) {
	for _, id := range c.order {
		if current[id] || !c.qualifies(id, stats) {
			continue
		}
		a := c.entries[id]
		newly = append(newly, a)
		pointsDelta += a.Points
	}
	return newly, pointsDelta
}

// proteinWindow and minProteinGrams define the PROTEIN_CHAMPION sub-check.
const (
	proteinWindow    = 7 * 24 * time.Hour
	minProteinGrams  = 50.0
	minWindowLogs    = 7
)

// ProteinStreakMet reports whether every log in the trailing week has at
// least 50g of protein, with at least seven logs present. A thin week fails
// regardless of its protein content.
func ProteinStreakMet(logs []foodlog.FoodLog, now time.Time) bool {
	cutoff := now.Add(-proteinWindow)

	count := 0
	for _, l := range logs {
		if l.Timestamp.Before(cutoff) {
			continue
		}
		if l.Macronutrients.Protein < minProteinGrams {
			return false
		}
		count++
	}
	return count >= minWindowLogs
}

// Action point values. These are awarded every time the action happens, with
// no qualification or dedup, unlike achievements.
const (
	ActionFoodLog           = "food_log"
	ActionStreakDay         = "streak_day"
	ActionFriendInteraction = "friend_interaction"
	ActionPerfectWeek       = "perfect_week"
)

var actionPoints = map[string]int{
	ActionFoodLog:           10,
	ActionStreakDay:         20,
	ActionFriendInteraction: 5,
	ActionPerfectWeek:       100,
}

// ActionPoints returns the fixed award for an action, 0 for anything unknown.
func ActionPoints(action string) int {
	return actionPoints[action]
}
