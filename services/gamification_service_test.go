package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calmateAPI/internal/gamification"
	"calmateAPI/internal/testutil"
	"calmateAPI/internal/types/foodlog"
	"calmateAPI/internal/types/user"
)

// TestFoodLogPipeline walks the full post-log flow: first log of the day
// starts the streak and pays food_log + streak_day points, a second log the
// same day pays food_log only.
func TestFoodLogPipeline(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, pool)

	catalog := gamification.NewCatalog()
	notificationService := NewNotificationService(pool)
	defer notificationService.StopDispatcher()
	userService := NewUserService(pool, catalog)
	foodService := NewFoodService(pool)
	socialService := NewSocialService(pool, foodService, userService, notificationService)
	gamificationService := NewGamificationService(userService, foodService, socialService, notificationService, catalog)

	ctx := context.Background()
	clerkID := "user_test_" + time.Now().Format("20060102150405")
	u, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:  clerkID,
		Email:    "testpipeline@example.com",
		Username: "testpipeline",
	})
	require.NoError(t, err)

	now := time.Now().UTC()

	logMeal := func(ts time.Time) {
		t.Helper()
		entry := &foodlog.FoodLog{
			ID:       uuid.New(),
			UserID:   u.ID,
			FoodName: "grilled chicken",
			Calories: 420,
			Macronutrients: foodlog.Macronutrients{
				Protein: 55,
				Carbs:   10,
				Fats:    12,
			},
			Visibility: foodlog.VisibilityFriends,
			Timestamp:  ts,
		}
		require.NoError(t, foodService.CreateLog(ctx, entry))
	}

	// First log of the day
	logMeal(now)
	unlocked, err := gamificationService.ProcessFoodLogged(ctx, u.ID, now)
	require.NoError(t, err)
	assert.Empty(t, unlocked, "One log should not unlock anything")

	state, err := userService.GetStreakState(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, state.CurrentStreak)
	assert.Equal(t, 1, state.HighestStreak)

	refreshed, err := userService.GetUserByClerkID(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, 30, refreshed.TotalPoints, "food_log + streak_day")

	// Second log, same day
	later := now.Add(2 * time.Hour)
	logMeal(later)
	_, err = gamificationService.ProcessFoodLogged(ctx, u.ID, later)
	require.NoError(t, err)

	state, err = userService.GetStreakState(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, state.CurrentStreak, "Same-day log must not extend the streak")

	refreshed, err = userService.GetUserByClerkID(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, 40, refreshed.TotalPoints, "food_log only for the second log")
}

// TestProcessFoodLogged_SerializesPerUser fires concurrent pipelines for one
// user and checks the streak read-modify-write did not lose an update.
func TestProcessFoodLogged_SerializesPerUser(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, pool)

	catalog := gamification.NewCatalog()
	notificationService := NewNotificationService(pool)
	defer notificationService.StopDispatcher()
	userService := NewUserService(pool, catalog)
	foodService := NewFoodService(pool)
	socialService := NewSocialService(pool, foodService, userService, notificationService)
	gamificationService := NewGamificationService(userService, foodService, socialService, notificationService, catalog)

	ctx := context.Background()
	clerkID := "user_test_" + time.Now().Format("20060102150405.000")
	u, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:  clerkID,
		Email:    "testconcurrent@example.com",
		Username: "testconcurrent",
	})
	require.NoError(t, err)

	now := time.Now().UTC()

	const n = 5
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := gamificationService.ProcessFoodLogged(ctx, u.ID, now)
			errs <- err
		}()
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-errs)
	}

	state, err := userService.GetStreakState(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, state.CurrentStreak, "Concurrent same-day logs collapse to one streak day")

	refreshed, err := userService.GetUserByClerkID(ctx, clerkID)
	require.NoError(t, err)
	// One streak_day award, food_log for every call.
	assert.Equal(t, n*10+20, refreshed.TotalPoints)
}
