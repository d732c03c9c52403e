package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"calmateAPI/internal/apperrors"
	"calmateAPI/internal/types/notification"
)

type NotificationService struct {
	db         *pgxpool.Pool
	dispatcher *NotificationDispatcher
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	s := &NotificationService{db: db}
	s.dispatcher = NewNotificationDispatcher(s)
	return s
}

// SetPushProvider injects the real FCM client from main.go. Without it the
// dispatcher still persists and marks notifications, it just cannot push.
func (s *NotificationService) SetPushProvider(provider PushNotificationProvider) {
	s.dispatcher.SetPushProvider(provider)
}

// CreateNotification persists the row and queues it for async dispatch.
// StopDispatcher drains the push workers. Called on shutdown.
func (s *NotificationService) StopDispatcher() {
	s.dispatcher.Stop()
}

func (s *NotificationService) CreateNotification(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error) {
	notif := &notification.Notification{
		ID:     uuid.New(),
		UserID: req.UserID,
		Type:   req.Type,
		Title:  req.Title,
		Body:   req.Body,
		Data:   req.Data,
		Status: notification.StatusPending,
	}

	err := s.db.QueryRow(ctx, `
		INSERT INTO notifications (id, user_id, type, title, body, data, status, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', false, NOW())
		RETURNING created_at
	`, notif.ID, notif.UserID, notif.Type, notif.Title, notif.Body, notif.Data).Scan(&notif.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	prefs, err := s.GetPreferences(ctx, req.UserID)
	if err != nil {
		log.Printf("CreateNotification: failed to load preferences for %s: %v", req.UserID, err)
		prefs = &notification.Preferences{UserID: req.UserID}
	}

	s.dispatcher.Dispatch(notif, prefs)
	return notif, nil
}

func (s *NotificationService) GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*notification.Notification, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, type, title, body, data, status, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	defer rows.Close()

	notifications := []*notification.Notification{}
	for rows.Next() {
		n := &notification.Notification{}
		err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.Data, &n.Status, &n.IsRead, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (s *NotificationService) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	result, err := s.db.Exec(ctx, `
		UPDATE notifications SET is_read = true WHERE id = $1 AND user_id = $2
	`, notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("notification not found: %w", apperrors.ErrNotFound)
	}
	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.Exec(ctx, `
		UPDATE notifications SET is_read = true WHERE user_id = $1 AND is_read = false
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

func (s *NotificationService) RegisterDevice(ctx context.Context, userID uuid.UUID, req *notification.RegisterDeviceRequest) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO device_tokens (user_id, token, platform, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (token) DO UPDATE SET user_id = $1, platform = $3
	`, userID, req.Token, req.Platform)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (s *NotificationService) GetPreferences(ctx context.Context, userID uuid.UUID) (*notification.Preferences, error) {
	prefs := &notification.Preferences{UserID: userID, PushEnabled: true}

	err := s.db.QueryRow(ctx, `
		SELECT push_enabled FROM notification_preferences WHERE user_id = $1
	`, userID).Scan(&prefs.PushEnabled)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT token, platform FROM device_tokens WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load device tokens: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.Token, &t.Platform); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		prefs.DeviceTokens = append(prefs.DeviceTokens, t)
	}
	return prefs, rows.Err()
}

// The Notify* helpers are fire-and-forget: a notification that cannot be
// written or pushed is logged and dropped, never failing the operation that
// triggered it.

func (s *NotificationService) NotifyAchievementUnlocked(ctx context.Context, userID uuid.UUID, title string) {
	_, err := s.CreateNotification(ctx, &notification.CreateNotificationRequest{
		UserID: userID,
		Type:   notification.TypeAchievementUnlocked,
		Title:  "New Achievement Unlocked! 🏆",
		Body:   fmt.Sprintf("Congratulations! You've earned the %s badge!", title),
		Data:   map[string]any{"achievement": title},
	})
	if err != nil {
		log.Printf("NotifyAchievementUnlocked: %v", err)
	}
}

func (s *NotificationService) NotifyFriendRequest(ctx context.Context, userID uuid.UUID, fromUsername string) {
	_, err := s.CreateNotification(ctx, &notification.CreateNotificationRequest{
		UserID: userID,
		Type:   notification.TypeFriendRequest,
		Title:  "New Friend Request 👋",
		Body:   fmt.Sprintf("%s wants to be your friend!", fromUsername),
	})
	if err != nil {
		log.Printf("NotifyFriendRequest: %v", err)
	}
}

func (s *NotificationService) NotifyFriendAccepted(ctx context.Context, userID uuid.UUID, username string) {
	_, err := s.CreateNotification(ctx, &notification.CreateNotificationRequest{
		UserID: userID,
		Type:   notification.TypeFriendAccepted,
		Title:  "Friend Request Accepted 🎉",
		Body:   fmt.Sprintf("%s accepted your friend request!", username),
	})
	if err != nil {
		log.Printf("NotifyFriendAccepted: %v", err)
	}
}

func (s *NotificationService) notifyStreakReminder(ctx context.Context, userID uuid.UUID, currentStreak int) {
	_, err := s.CreateNotification(ctx, &notification.CreateNotificationRequest{
		UserID: userID,
		Type:   notification.TypeStreakReminder,
		Title:  "Keep Your Streak Going! 🔥",
		Body:   fmt.Sprintf("Don't forget to log today's meals to maintain your %d day streak!", currentStreak),
	})
	if err != nil {
		log.Printf("notifyStreakReminder: %v", err)
	}
}
