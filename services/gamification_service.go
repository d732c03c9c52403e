package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"calmateAPI/internal/gamification"
	"calmateAPI/internal/streak"
)

// GamificationService runs the per-log pipeline: advance the streak,
// re-evaluate achievements against fresh aggregates, award points, notify.
// The pipeline for one user never runs concurrently with itself; the engine
// functions themselves stay pure.
type GamificationService struct {
	userService   *UserService
	foodService   *FoodService
	socialService *SocialService
	notification  *NotificationService
	catalog       *gamification.Catalog

	mu    sync.Mutex
	locks map[uuid.UUID]*userLock
}

type userLock struct {
	sync.Mutex
	lastUsed time.Time
}

func NewGamificationService(userService *UserService, foodService *FoodService, socialService *SocialService, notificationService *NotificationService, catalog *gamification.Catalog) *GamificationService {
	s := &GamificationService{
		userService:   userService,
		foodService:   foodService,
		socialService: socialService,
		notification:  notificationService,
		catalog:       catalog,
		locks:         make(map[uuid.UUID]*userLock),
	}
	go s.cleanupLocks()
	return s
}

func (s *GamificationService) lockFor(userID uuid.UUID) *userLock {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[userID]
	if !ok {
		l = &userLock{}
		s.locks[userID] = l
	}
	l.lastUsed = time.Now()
	return l
}

func (s *GamificationService) cleanupLocks() {
	for {
		time.Sleep(time.Minute)
		s.mu.Lock()
		for id, l := range s.locks {
			if time.Since(l.lastUsed) > 10*time.Minute {
				delete(s.locks, id)
			}
		}
		s.mu.Unlock()
	}
}

// ProcessFoodLogged is the post-persist half of logging a meal. It returns
// the badges unlocked by this log so the handler can show them immediately.
//
// Two concurrent logs for the same user would otherwise race the streak
// read-modify-write and lose an update; the keyed lock serializes them, and
// the conditional streak write catches writers outside this process.
func (s *GamificationService) ProcessFoodLogged(ctx context.Context, userID uuid.UUID, now time.Time) ([]gamification.Achievement, error) {
	l := s.lockFor(userID)
	l.Lock()
	defer l.Unlock()

	extended, err := s.advanceStreak(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	points := gamification.ActionPoints(gamification.ActionFoodLog)
	if extended {
		points += gamification.ActionPoints(gamification.ActionStreakDay)
	}
	if err := s.userService.AwardPoints(ctx, userID, points); err != nil {
		return nil, err
	}

	newly, err := s.EvaluateAchievements(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	for _, a := range newly {
		s.notification.NotifyAchievementUnlocked(ctx, userID, a.Title)
	}

	return newly, nil
}

// advanceStreak applies the engine and persists the result, retrying once
// if the conditional write loses to a concurrent writer. Reports whether
// the streak moved forward (first log or increment).
func (s *GamificationService) advanceStreak(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		prev, err := s.userService.GetStreakState(ctx, userID)
		if err != nil {
			return false, err
		}

		next := streak.Advance(prev, now)
		if next == prev {
			// Same calendar day: nothing to persist.
			return false, nil
		}

		written, err := s.userService.UpdateStreakState(ctx, userID, prev, next)
		if err != nil {
			return false, err
		}
		if written {
			return next.CurrentStreak > prev.CurrentStreak, nil
		}
		log.Printf("advanceStreak: concurrent streak write for user %s, retrying", userID)
	}
	return false, fmt.Errorf("streak update for user %s kept losing to concurrent writers", userID)
}

// EvaluateAchievements gathers fresh aggregates and diffs them against the
// user's badge set. Persisting nothing when nothing qualifies keeps the call
// idempotent.
func (s *GamificationService) EvaluateAchievements(ctx context.Context, userID uuid.UUID, now time.Time) ([]gamification.Achievement, error) {
	state, err := s.userService.GetStreakState(ctx, userID)
	if err != nil {
		return nil, err
	}

	totalLogs, err := s.foodService.CountLogs(ctx, userID)
	if err != nil {
		return nil, err
	}

	recent, err := s.foodService.ListRecent(ctx, userID, now.Add(-7*24*time.Hour))
	if err != nil {
		return nil, err
	}

	friendCount, err := s.socialService.CountActiveFriends(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := gamification.AggregateStats{
		HighestStreak:    state.HighestStreak,
		TotalFoodLogs:    totalLogs,
		ProteinStreakMet: gamification.ProteinStreakMet(recent, now),
		FriendCount:      friendCount,
	}

	held, err := s.currentAchievements(ctx, userID)
	if err != nil {
		return nil, err
	}

	newly, pointsDelta := s.catalog.Evaluate(stats, held)
	if len(newly) == 0 {
		return nil, nil
	}

	ids := make([]string, len(newly))
	for i, a := range newly {
		ids[i] = a.ID
	}
	if err := s.userService.AwardAchievements(ctx, userID, ids, pointsDelta); err != nil {
		return nil, err
	}

	return newly, nil
}

func (s *GamificationService) currentAchievements(ctx context.Context, userID uuid.UUID) (map[string]bool, error) {
	u, err := s.userService.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	held := make(map[string]bool, len(u.Achievements))
	for _, id := range u.Achievements {
		held[id] = true
	}
	return held, nil
}
