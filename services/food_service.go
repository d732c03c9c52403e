package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"calmateAPI/internal/types/foodlog"
)

type FoodService struct {
	db *pgxpool.Pool
}

func NewFoodService(db *pgxpool.Pool) *FoodService {
	return &FoodService{db: db}
}

const foodLogColumns = `id, user_id, food_name, portion_size, calories, protein, carbs, fats, image_url, visibility, created_at`

// CreateLog writes an immutable food log row.
func (s *FoodService) CreateLog(ctx context.Context, log *foodlog.FoodLog) error {
	query := `
	INSERT INTO food_logs (id, user_id, food_name, portion_size, calories, protein, carbs, fats, image_url, visibility, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.db.Exec(ctx, query,
		log.ID,
		log.UserID,
		log.FoodName,
		log.PortionSize,
		log.Calories,
		log.Macronutrients.Protein,
		log.Macronutrients.Carbs,
		log.Macronutrients.Fats,
		log.ImageURL,
		log.Visibility,
		log.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to create food log: %w", err)
	}
	return nil
}

func (s *FoodService) scanLogs(rows pgx.Rows) ([]foodlog.FoodLog, error) {
	defer rows.Close()

	var logs []foodlog.FoodLog
	for rows.Next() {
		var l foodlog.FoodLog
		err := rows.Scan(
			&l.ID,
			&l.UserID,
			&l.FoodName,
			&l.PortionSize,
			&l.Calories,
			&l.Macronutrients.Protein,
			&l.Macronutrients.Carbs,
			&l.Macronutrients.Fats,
			&l.ImageURL,
			&l.Visibility,
			&l.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan food log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// ListLogs pages a user's own logs, newest first, with optional time bounds.
func (s *FoodService) ListLogs(ctx context.Context, userID uuid.UUID, limit, offset int, from, to *time.Time) ([]foodlog.FoodLog, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	query := `
	SELECT ` + foodLogColumns + `
	FROM food_logs
	WHERE user_id = $1
		AND ($4::timestamptz IS NULL OR created_at > $4)
		AND ($5::timestamptz IS NULL OR created_at < $5)
	ORDER BY created_at DESC
	LIMIT $2 OFFSET $3
	`

	rows, err := s.db.Query(ctx, query, userID, limit, offset, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch food logs: %w", err)
	}
	return s.scanLogs(rows)
}

// ListRecent returns all logs since the cutoff, for the protein-window check.
func (s *FoodService) ListRecent(ctx context.Context, userID uuid.UUID, since time.Time) ([]foodlog.FoodLog, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+foodLogColumns+`
		FROM food_logs
		WHERE user_id = $1 AND created_at > $2
		ORDER BY created_at DESC
	`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent food logs: %w", err)
	}
	return s.scanLogs(rows)
}

// ListSharedWithFriends feeds the feed aggregator: one friend's
// friends-visible logs from the recent window.
func (s *FoodService) ListSharedWithFriends(ctx context.Context, friendID uuid.UUID) ([]foodlog.FoodLog, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+foodLogColumns+`
		FROM food_logs
		WHERE user_id = $1 AND visibility = 'friends'
		ORDER BY created_at DESC
		LIMIT 100
	`, friendID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shared food logs: %w", err)
	}
	return s.scanLogs(rows)
}

func (s *FoodService) CountLogs(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM food_logs WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count food logs: %w", err)
	}
	return count, nil
}
