package feed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calmateAPI/internal/types/foodlog"
)

type fixture struct {
	logs  map[uuid.UUID][]foodlog.FoodLog
	names map[uuid.UUID]string
}

func (f *fixture) fetch(_ context.Context, friendID uuid.UUID) ([]foodlog.FoodLog, error) {
	return f.logs[friendID], nil
}

func (f *fixture) resolve(_ context.Context, userID uuid.UUID) (string, error) {
	name, ok := f.names[userID]
	if !ok {
		return "", fmt.Errorf("unknown user %s", userID)
	}
	return name, nil
}

func newFixture() *fixture {
	return &fixture{
		logs:  make(map[uuid.UUID][]foodlog.FoodLog),
		names: make(map[uuid.UUID]string),
	}
}

func (f *fixture) addFriend(name string, logs ...foodlog.FoodLog) uuid.UUID {
	id := uuid.New()
	f.names[id] = name
	for i := range logs {
		logs[i].ID = uuid.New()
		logs[i].UserID = id
	}
	f.logs[id] = logs
	return id
}

func sharedLog(at time.Time) foodlog.FoodLog {
	return foodlog.FoodLog{
		FoodName:   "grilled chicken",
		Calories:   420,
		Visibility: foodlog.VisibilityFriends,
		Timestamp:  at,
	}
}

func TestBuildMergesAndSortsDescending(t *testing.T) {
	f := newFixture()
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	a := f.addFriend("alice", sharedLog(base.Add(1*time.Hour)), sharedLog(base.Add(3*time.Hour)))
	b := f.addFriend("bob", sharedLog(base.Add(2*time.Hour)))

	items, err := Build(context.Background(), []uuid.UUID{a, b}, f.fetch, f.resolve, 20, 0)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "alice", items[0].Username)
	assert.Equal(t, "bob", items[1].Username)
	assert.True(t, items[0].Timestamp.After(items[1].Timestamp))
	assert.True(t, items[1].Timestamp.After(items[2].Timestamp))
}

func TestBuildFiltersToFriendsVisibility(t *testing.T) {
	f := newFixture()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	private := sharedLog(now)
	private.Visibility = foodlog.VisibilityPrivate
	public := sharedLog(now.Add(time.Minute))
	public.Visibility = foodlog.VisibilityPublic

	a := f.addFriend("alice", sharedLog(now.Add(2*time.Minute)), private, public)

	items, err := Build(context.Background(), []uuid.UUID{a}, f.fetch, f.resolve, 20, 0)
	require.NoError(t, err)
	require.Len(t, items, 1, "public and private logs stay out of the friends feed")
	assert.Equal(t, foodlog.Macronutrients{}, items[0].Macronutrients)
}

func TestBuildPagination(t *testing.T) {
	f := newFixture()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	var logs []foodlog.FoodLog
	for i := 0; i < 25; i++ {
		logs = append(logs, sharedLog(base.Add(time.Duration(i)*time.Hour)))
	}
	a := f.addFriend("alice", logs...)
	ids := []uuid.UUID{a}

	page, err := Build(context.Background(), ids, f.fetch, f.resolve, 20, 20)
	require.NoError(t, err)
	assert.Len(t, page, 5)

	empty, err := Build(context.Background(), ids, f.fetch, f.resolve, 20, 30)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestBuildDeterministicOnEqualTimestamps(t *testing.T) {
	f := newFixture()
	at := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	a := f.addFriend("alice", sharedLog(at), sharedLog(at))
	b := f.addFriend("bob", sharedLog(at))
	ids := []uuid.UUID{a, b}

	first, err := Build(context.Background(), ids, f.fetch, f.resolve, 10, 0)
	require.NoError(t, err)
	second, err := Build(context.Background(), ids, f.fetch, f.resolve, 10, 0)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuildNoFriends(t *testing.T) {
	f := newFixture()

	items, err := Build(context.Background(), nil, f.fetch, f.resolve, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestBuildFetchErrorPropagates(t *testing.T) {
	f := newFixture()
	a := f.addFriend("alice", sharedLog(time.Now()))

	failing := func(_ context.Context, _ uuid.UUID) ([]foodlog.FoodLog, error) {
		return nil, fmt.Errorf("store unavailable")
	}

	_, err := Build(context.Background(), []uuid.UUID{a}, failing, f.resolve, 20, 0)
	assert.Error(t, err)
}
