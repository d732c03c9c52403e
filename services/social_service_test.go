package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calmateAPI/internal/apperrors"
	"calmateAPI/internal/gamification"
	"calmateAPI/internal/testutil"
	"calmateAPI/internal/types/foodlog"
	"calmateAPI/internal/types/friendship"
	"calmateAPI/internal/types/user"
)

func setupSocialFixture(t *testing.T) (*SocialService, *UserService, *FoodService, func()) {
	t.Helper()
	pool := testutil.SetupTestDB(t)

	catalog := gamification.NewCatalog()
	notificationService := NewNotificationService(pool)
	userService := NewUserService(pool, catalog)
	foodService := NewFoodService(pool)
	socialService := NewSocialService(pool, foodService, userService, notificationService)

	cleanup := func() {
		notificationService.StopDispatcher()
		testutil.CleanupTestDB(t, pool)
	}
	return socialService, userService, foodService, cleanup
}

func createSocialUser(t *testing.T, userService *UserService, name string) *user.User {
	t.Helper()
	suffix := time.Now().Format("150405.000000")
	u, err := userService.CreateUser(context.Background(), &user.CreateUserRequest{
		ClerkID:  "user_test_" + name + "_" + suffix,
		Email:    "test" + name + "@example.com",
		Username: name + suffix,
	})
	require.NoError(t, err)
	return u
}

func TestFriendRequestFlow(t *testing.T) {
	socialService, userService, _, cleanup := setupSocialFixture(t)
	defer cleanup()

	ctx := context.Background()
	alice := createSocialUser(t, userService, "alice")
	bob := createSocialUser(t, userService, "bob")

	req, err := socialService.SendFriendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, friendship.RequestPending, req.Status)

	// Sending again is idempotent
	again, err := socialService.SendFriendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, again.ID)

	// Only the recipient may accept
	_, err = socialService.AcceptFriendRequest(ctx, req.ID, alice.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	accepted, err := socialService.AcceptFriendRequest(ctx, req.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, friendship.RequestAccepted, accepted.Status)

	// Both sides see the friendship
	aliceFriends, err := socialService.GetFriends(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, aliceFriends, 1)
	assert.Equal(t, bob.ID, aliceFriends[0].FriendID)

	bobFriends, err := socialService.GetFriends(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, bobFriends, 1)
	assert.Equal(t, alice.ID, bobFriends[0].FriendID)
}

func TestSendFriendRequest_ToSelf(t *testing.T) {
	socialService, userService, _, cleanup := setupSocialFixture(t)
	defer cleanup()

	alice := createSocialUser(t, userService, "selfie")

	_, err := socialService.SendFriendRequest(context.Background(), alice.ID, alice.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestGetFriendFeed_VisibilityAndOrder(t *testing.T) {
	socialService, userService, foodService, cleanup := setupSocialFixture(t)
	defer cleanup()

	ctx := context.Background()
	alice := createSocialUser(t, userService, "feeda")
	bob := createSocialUser(t, userService, "feedb")

	req, err := socialService.SendFriendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = socialService.AcceptFriendRequest(ctx, req.ID, bob.ID)
	require.NoError(t, err)

	now := time.Now().UTC()
	logBob := func(name string, visibility foodlog.Visibility, ts time.Time) {
		t.Helper()
		require.NoError(t, foodService.CreateLog(ctx, &foodlog.FoodLog{
			ID:         uuid.New(),
			UserID:     bob.ID,
			FoodName:   name,
			Calories:   300,
			Visibility: visibility,
			Timestamp:  ts,
		}))
	}

	logBob("oatmeal", foodlog.VisibilityFriends, now.Add(-2*time.Hour))
	logBob("salad", foodlog.VisibilityFriends, now.Add(-1*time.Hour))
	logBob("secret snack", foodlog.VisibilityPrivate, now)

	feed, err := socialService.GetFriendFeed(ctx, alice.ID, 20, 0)
	require.NoError(t, err)

	require.Len(t, feed, 2, "Private logs stay out of the feed")
	assert.Equal(t, "salad", feed[0].FoodName, "Newest first")
	assert.Equal(t, "oatmeal", feed[1].FoodName)
	assert.Equal(t, bob.Username, feed[0].Username)
}
