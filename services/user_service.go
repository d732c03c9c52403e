package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"calmateAPI/internal/apperrors"
	"calmateAPI/internal/gamification"
	"calmateAPI/internal/streak"
	"calmateAPI/internal/types/user"
)

type UserService struct {
	db      *pgxpool.Pool
	catalog *gamification.Catalog
}

func NewUserService(db *pgxpool.Pool, catalog *gamification.Catalog) *UserService {
	return &UserService{db: db, catalog: catalog}
}

const userColumns = `id, clerk_id, email, username, full_name, image_url, current_streak, highest_streak,
	last_log_date, total_points, achievements, daily_calorie_goal,
	COALESCE(calories_consumed_today, 0), fcm_token, created_at, updated_at`

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.FullName,
		&u.ImageURL,
		&u.CurrentStreak,
		&u.HighestStreak,
		&u.LastLogDate,
		&u.TotalPoints,
		&u.Achievements,
		&u.DailyCalorieGoal,
		&u.CaloriesConsumedToday,
		&u.FCMToken,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if u.Achievements == nil {
		u.Achievements = []string{}
	}
	return u, nil
}

func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	query := `
	INSERT INTO users (id, clerk_id, email, username, full_name, image_url, achievements, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, '{}', NOW(), NOW())
	RETURNING ` + userColumns

	u, err := scanUser(s.db.QueryRow(ctx, query, uuid.New(), req.ClerkID, req.Email, req.Username, req.FullName, req.ImageURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE clerk_id = $1`

	u, err := scanUser(s.db.QueryRow(ctx, query, clerkID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(s.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (s *UserService) GetProfile(ctx context.Context, clerkID string) (*user.ProfileResponse, error) {
	u, err := s.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	var friends, logs int
	err = s.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM friendships WHERE user_id = $1 AND status = 'active'),
			(SELECT COUNT(*) FROM food_logs WHERE user_id = $1)
	`, u.ID).Scan(&friends, &logs)
	if err != nil {
		return nil, fmt.Errorf("failed to count profile stats: %w", err)
	}

	return &user.ProfileResponse{User: u, FriendsCount: friends, TotalLogs: logs}, nil
}

func (s *UserService) UpdateProfileByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	query := `
	UPDATE users
	SET
		username = COALESCE(NULLIF($2, ''), username),
		full_name = COALESCE(NULLIF($3, ''), full_name),
		image_url = COALESCE(NULLIF($4, ''), image_url),
		updated_at = NOW()
	WHERE clerk_id = $1
	RETURNING ` + userColumns

	u, err := scanUser(s.db.QueryRow(ctx, query, clerkID, req.Username, req.FullName, req.ImageURL))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return u, nil
}

func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	result, err := s.db.Exec(ctx, `DELETE FROM users WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %w", apperrors.ErrNotFound)
	}
	return nil
}

func (s *UserService) UpdateFCMToken(ctx context.Context, clerkID string, token string) error {
	_, err := s.db.Exec(ctx, `UPDATE users SET fcm_token = $2, updated_at = NOW() WHERE clerk_id = $1`, clerkID, token)
	return err
}

// SetCalorieGoal rejects non-positive goals; zero would make "goal reached"
// meaningless and negatives are plain bad input.
func (s *UserService) SetCalorieGoal(ctx context.Context, clerkID string, goal int) error {
	if goal <= 0 {
		return fmt.Errorf("daily calorie goal must be positive: %w", apperrors.ErrInvalidInput)
	}

	result, err := s.db.Exec(ctx, `UPDATE users SET daily_calorie_goal = $2, updated_at = NOW() WHERE clerk_id = $1`, clerkID, goal)
	if err != nil {
		return fmt.Errorf("failed to set calorie goal: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %w", apperrors.ErrNotFound)
	}
	return nil
}

func (s *UserService) AddCaloriesConsumed(ctx context.Context, userID uuid.UUID, calories int) error {
	_, err := s.db.Exec(ctx, `
		UPDATE users
		SET calories_consumed_today = COALESCE(calories_consumed_today, 0) + $2, updated_at = NOW()
		WHERE id = $1
	`, userID, calories)
	if err != nil {
		return fmt.Errorf("failed to add daily calories: %w", err)
	}
	return nil
}

// GetStreakState reads the streak record for the engine.
func (s *UserService) GetStreakState(ctx context.Context, userID uuid.UUID) (streak.State, error) {
	var state streak.State
	err := s.db.QueryRow(ctx, `
		SELECT current_streak, highest_streak, last_log_date FROM users WHERE id = $1
	`, userID).Scan(&state.CurrentStreak, &state.HighestStreak, &state.LastLogDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return streak.State{}, fmt.Errorf("user not found: %w", apperrors.ErrNotFound)
		}
		return streak.State{}, fmt.Errorf("failed to read streak: %w", err)
	}
	return state, nil
}

// UpdateStreakState writes the engine's result, conditional on last_log_date
// still being what we read. A concurrent writer makes this a no-op instead
// of a lost update; the caller decides whether to re-read and retry.
func (s *UserService) UpdateStreakState(ctx context.Context, userID uuid.UUID, prev, next streak.State) (bool, error) {
	result, err := s.db.Exec(ctx, `
		UPDATE users
		SET current_streak = $2, highest_streak = $3, last_log_date = $4, updated_at = NOW()
		WHERE id = $1 AND last_log_date IS NOT DISTINCT FROM $5
	`, userID, next.CurrentStreak, next.HighestStreak, next.LastLogDate, prev.LastLogDate)
	if err != nil {
		return false, fmt.Errorf("failed to update streak: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// AwardAchievements appends the new badge IDs and adds their points in one
// statement, so a crash between the two cannot split them.
func (s *UserService) AwardAchievements(ctx context.Context, userID uuid.UUID, ids []string, points int) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := s.db.Exec(ctx, `
		UPDATE users
		SET achievements = achievements || $2,
			total_points = total_points + $3,
			updated_at = NOW()
		WHERE id = $1
	`, userID, ids, points)
	if err != nil {
		return fmt.Errorf("failed to award achievements: %w", err)
	}
	return nil
}

// AwardPoints adds action points. Unconditional on purpose: repeated actions
// keep paying.
func (s *UserService) AwardPoints(ctx context.Context, userID uuid.UUID, points int) error {
	if points == 0 {
		return nil
	}

	_, err := s.db.Exec(ctx, `
		UPDATE users SET total_points = total_points + $2, updated_at = NOW() WHERE id = $1
	`, userID, points)
	if err != nil {
		return fmt.Errorf("failed to award points: %w", err)
	}
	return nil
}

type AchievementWithStatus struct {
	gamification.Achievement
	Unlocked bool `json:"unlocked"`
}

// GetAchievements resolves the user's badge set against the catalog, locked
// badges included so the client can render the full board.
func (s *UserService) GetAchievements(ctx context.Context, clerkID string) ([]*AchievementWithStatus, error) {
	u, err := s.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	unlocked := make(map[string]bool, len(u.Achievements))
	for _, id := range u.Achievements {
		unlocked[id] = true
	}

	var out []*AchievementWithStatus
	for _, a := range s.catalog.All() {
		out = append(out, &AchievementWithStatus{Achievement: a, Unlocked: unlocked[a.ID]})
	}
	return out, nil
}

// GetLeaderboard reads up to 100 scoreboard rows and hands ranking to the
// pure aggregator, which also dedups the duplicate usernames the upstream
// sync has been known to produce.
func (s *UserService) GetLeaderboard(ctx context.Context, limit int) ([]gamification.LeaderboardEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT username, total_points, highest_streak, COALESCE(array_length(achievements, 1), 0)
		FROM users
		ORDER BY total_points DESC
		LIMIT 100
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	defer rows.Close()

	var snapshots []gamification.Snapshot
	for rows.Next() {
		var snap gamification.Snapshot
		if err := rows.Scan(&snap.Username, &snap.TotalPoints, &snap.HighestStreak, &snap.AchievementCount); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		snapshots = append(snapshots, snap)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return gamification.Rank(snapshots, limit), nil
}

func (s *UserService) SearchUsers(ctx context.Context, clerkID string, query string) ([]*user.User, error) {
	pattern := "%" + strings.TrimSpace(query) + "%"

	rows, err := s.db.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE (username ILIKE $1 OR email ILIKE $1 OR full_name ILIKE $1)
			AND clerk_id != $2
		ORDER BY username
		LIMIT 50
	`, pattern, clerkID)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	users := []*user.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

func (s *UserService) ResolveUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("user not found: %w", apperrors.ErrNotFound)
		}
		return uuid.Nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return userID, nil
}

func (s *UserService) GetUsernameByID(ctx context.Context, userID uuid.UUID) (string, error) {
	var username string
	err := s.db.QueryRow(ctx, `SELECT username FROM users WHERE id = $1`, userID).Scan(&username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("user not found: %w", apperrors.ErrNotFound)
		}
		return "", fmt.Errorf("failed to get username: %w", err)
	}
	return username, nil
}

