package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"calmateAPI/internal/apperrors"
	"calmateAPI/internal/feed"
	"calmateAPI/internal/gamification"
	"calmateAPI/internal/types/foodlog"
	"calmateAPI/internal/types/friendship"
)

type SocialService struct {
	db           *pgxpool.Pool
	foodService  *FoodService
	userService  *UserService
	notification *NotificationService
}

func NewSocialService(db *pgxpool.Pool, foodService *FoodService, userService *UserService, notificationService *NotificationService) *SocialService {
	return &SocialService{
		db:           db,
		foodService:  foodService,
		userService:  userService,
		notification: notificationService,
	}
}

// SendFriendRequest is idempotent: re-sending to the same user returns the
// request that already exists instead of erroring.
func (s *SocialService) SendFriendRequest(ctx context.Context, fromUser, toUser uuid.UUID) (*friendship.FriendRequest, error) {
	if fromUser == toUser {
		return nil, fmt.Errorf("cannot send a friend request to yourself: %w", apperrors.ErrInvalidInput)
	}

	req := &friendship.FriendRequest{}
	err := s.db.QueryRow(ctx, `
		SELECT id, from_user, to_user, status, created_at
		FROM friend_requests
		WHERE from_user = $1 AND to_user = $2
	`, fromUser, toUser).Scan(&req.ID, &req.FromUser, &req.ToUser, &req.Status, &req.CreatedAt)
	if err == nil {
		log.Printf("SendFriendRequest: request from %s to %s already exists", fromUser, toUser)
		return req, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to check existing request: %w", err)
	}

	err = s.db.QueryRow(ctx, `
		INSERT INTO friend_requests (id, from_user, to_user, status, created_at)
		VALUES ($1, $2, $3, 'pending', NOW())
		RETURNING id, from_user, to_user, status, created_at
	`, uuid.New(), fromUser, toUser).Scan(&req.ID, &req.FromUser, &req.ToUser, &req.Status, &req.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create friend request: %w", err)
	}

	// A failed notification never fails the request itself.
	if username, err := s.userService.GetUsernameByID(ctx, fromUser); err == nil {
		s.notification.NotifyFriendRequest(ctx, toUser, username)
	}

	return req, nil
}

// AcceptFriendRequest flips the request to accepted and writes both directed
// edges in one transaction. Each direction carries its own streak_count.
// The canonical-pair existence check stops a second accept (or a crossed
// pair of requests) from duplicating edges.
func (s *SocialService) AcceptFriendRequest(ctx context.Context, requestID uuid.UUID, acceptor uuid.UUID) (*friendship.FriendRequest, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	req := &friendship.FriendRequest{}
	err = tx.QueryRow(ctx, `
		SELECT id, from_user, to_user, status, created_at
		FROM friend_requests
		WHERE id = $1
		FOR UPDATE
	`, requestID).Scan(&req.ID, &req.FromUser, &req.ToUser, &req.Status, &req.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("friend request not found: %w", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load friend request: %w", err)
	}

	if req.ToUser != acceptor {
		return nil, fmt.Errorf("only the recipient can accept a friend request: %w", apperrors.ErrInvalidInput)
	}

	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM friendships
			WHERE LEAST(user_id, friend_id) = LEAST($1::uuid, $2::uuid)
			  AND GREATEST(user_id, friend_id) = GREATEST($1::uuid, $2::uuid)
		)
	`, req.FromUser, req.ToUser).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing friendship: %w", err)
	}

	if !exists {
		now := time.Now().UTC()
		for _, pair := range [][2]uuid.UUID{{req.ToUser, req.FromUser}, {req.FromUser, req.ToUser}} {
			_, err = tx.Exec(ctx, `
				INSERT INTO friendships (id, user_id, friend_id, streak_count, last_interaction, status)
				VALUES ($1, $2, $3, 0, $4, 'active')
			`, uuid.New(), pair[0], pair[1], now)
			if err != nil {
				return nil, fmt.Errorf("failed to create friendship: %w", err)
			}
		}
	}

	_, err = tx.Exec(ctx, `UPDATE friend_requests SET status = 'accepted' WHERE id = $1`, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to update friend request: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit friendship: %w", err)
	}
	req.Status = friendship.RequestAccepted

	if username, err := s.userService.GetUsernameByID(ctx, req.ToUser); err == nil {
		s.notification.NotifyFriendAccepted(ctx, req.FromUser, username)
	}

	return req, nil
}

func (s *SocialService) GetPendingRequests(ctx context.Context, userID uuid.UUID) ([]*friendship.FriendRequest, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, from_user, to_user, status, created_at
		FROM friend_requests
		WHERE to_user = $1 AND status = 'pending'
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch friend requests: %w", err)
	}
	defer rows.Close()

	requests := []*friendship.FriendRequest{}
	for rows.Next() {
		req := &friendship.FriendRequest{}
		if err := rows.Scan(&req.ID, &req.FromUser, &req.ToUser, &req.Status, &req.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan friend request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// GetFriends returns the outgoing edges joined with each friend's profile.
func (s *SocialService) GetFriends(ctx context.Context, userID uuid.UUID) ([]*friendship.Friend, error) {
	rows, err := s.db.Query(ctx, `
		SELECT f.id, f.user_id, f.friend_id, u.username, u.image_url, f.streak_count, f.last_interaction
		FROM friendships f
		INNER JOIN users u ON u.id = f.friend_id
		WHERE f.user_id = $1 AND f.status = 'active'
		ORDER BY u.username
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch friends: %w", err)
	}
	defer rows.Close()

	friends := []*friendship.Friend{}
	for rows.Next() {
		f := &friendship.Friend{}
		err := rows.Scan(&f.ID, &f.UserID, &f.FriendID, &f.Username, &f.ImageURL, &f.StreakCount, &f.LastInteraction)
		if err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		friends = append(friends, f)
	}
	return friends, rows.Err()
}

func (s *SocialService) ListActiveFriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx, `
		SELECT friend_id FROM friendships WHERE user_id = $1 AND status = 'active'
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch friend ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan friend id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SocialService) CountActiveFriends(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM friendships WHERE user_id = $1 AND status = 'active'
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count friends: %w", err)
	}
	return count, nil
}

// GetFriendFeed merges all friends' shared logs into one page.
func (s *SocialService) GetFriendFeed(ctx context.Context, userID uuid.UUID, limit, offset int) ([]foodlog.FeedItem, error) {
	friendIDs, err := s.ListActiveFriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	items, err := feed.Build(ctx, friendIDs, s.foodService.ListSharedWithFriends, s.userService.GetUsernameByID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed: %w", err)
	}
	return items, nil
}

// CleanupDuplicateFriendships deletes extra edges beyond the two a pair
// should have. Edges written before the canonical-pair check existed can
// still be duplicated; this is the repair pass for those.
func (s *SocialService) CleanupDuplicateFriendships(ctx context.Context) (int, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM friendships
		WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (
					PARTITION BY user_id, friend_id
					ORDER BY last_interaction DESC
				) AS rn
				FROM friendships
			) ranked
			WHERE rn > 1
		)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up friendships: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// TouchInteraction bumps last_interaction on both directions of an edge and
// pays the friend_interaction action points.
func (s *SocialService) TouchInteraction(ctx context.Context, userID, friendID uuid.UUID) error {
	_, err := s.db.Exec(ctx, `
		UPDATE friendships
		SET last_interaction = NOW()
		WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)
	`, userID, friendID)
	if err != nil {
		return fmt.Errorf("failed to touch interaction: %w", err)
	}

	return s.userService.AwardPoints(ctx, userID, gamification.ActionPoints(gamification.ActionFriendInteraction))
}
