// Package feed merges friends' shared food logs into one time-ordered page.
// Fetching and username resolution are injected so the aggregation itself
// stays a plain function over data.
package feed

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"calmateAPI/internal/types/foodlog"
)

// FetchLogsFunc returns one friend's recent logs, newest first or not; Build
// sorts the merged set itself.
type FetchLogsFunc func(ctx context.Context, friendID uuid.UUID) ([]foodlog.FoodLog, error)

// ResolveUsernameFunc maps a user ID to a display name at aggregation time.
type ResolveUsernameFunc func(ctx context.Context, userID uuid.UUID) (string, error)

// Build produces the [offset, offset+limit) page of the merged feed. Only
// logs shared at the "friends" tier appear; a friend's public and private
// entries are both excluded from this view. An offset past the end is an
// empty page, not an error. Fetch and resolve failures propagate.
func Build(ctx context.Context, friendIDs []uuid.UUID, fetchLogs FetchLogsFunc, resolveUsername ResolveUsernameFunc, limit, offset int) ([]foodlog.FeedItem, error) {
	if limit < 0 || offset < 0 {
		return nil, fmt.Errorf("limit and offset must be non-negative")
	}

	var merged []foodlog.FoodLog
	for _, friendID := range friendIDs {
		logs, err := fetchLogs(ctx, friendID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch logs for friend %s: %w", friendID, err)
		}
		for _, l := range logs {
			if l.Visibility == foodlog.VisibilityFriends {
				merged = append(merged, l)
			}
		}
	}

	// Stable sort keeps equal-timestamp entries in fetch order, so two
	// calls over the same input page identically.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.After(merged[j].Timestamp)
	})

	if offset >= len(merged) {
		return []foodlog.FeedItem{}, nil
	}
	end := offset + limit
	if end > len(merged) {
		end = len(merged)
	}

	// Usernames are resolved per page, not cached with the log, so a
	// rename shows up immediately. The page is small enough that one
	// lookup per author is fine.
	usernames := make(map[uuid.UUID]string)
	items := make([]foodlog.FeedItem, 0, end-offset)
	for _, l := range merged[offset:end] {
		name, ok := usernames[l.UserID]
		if !ok {
			var err error
			name, err = resolveUsername(ctx, l.UserID)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve username for %s: %w", l.UserID, err)
			}
			usernames[l.UserID] = name
		}

		items = append(items, foodlog.FeedItem{
			ID:             l.ID,
			UserID:         l.UserID,
			Username:       name,
			FoodName:       l.FoodName,
			PortionSize:    l.PortionSize,
			Calories:       l.Calories,
			Macronutrients: l.Macronutrients,
			ImageURL:       l.ImageURL,
			Timestamp:      l.Timestamp,
		})
	}

	return items, nil
}
