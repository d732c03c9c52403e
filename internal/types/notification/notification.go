package notification

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	TypeStreakReminder      NotificationType = "streak_reminder"
	TypeAchievementUnlocked NotificationType = "achievement_unlocked"
	TypeFriendRequest       NotificationType = "friend_request"
	TypeFriendAccepted      NotificationType = "friend_accepted"
	TypeFriendActivity      NotificationType = "friend_activity"
)

type NotificationStatus string

const (
	StatusPending NotificationStatus = "pending"
	StatusSent    NotificationStatus = "sent"
	StatusFailed  NotificationStatus = "failed"
)

type Notification struct {
	ID        uuid.UUID          `json:"id" db:"id"`
	UserID    uuid.UUID          `json:"user_id" db:"user_id"`
	Type      NotificationType   `json:"type" db:"type"`
	Title     string             `json:"title" db:"title"`
	Body      string             `json:"body" db:"body"`
	Data      map[string]any     `json:"data" db:"data"`
	Status    NotificationStatus `json:"status" db:"status"`
	IsRead    bool               `json:"is_read" db:"is_read"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
}

type DeviceToken struct {
	Token    string `json:"token" db:"token"`
	Platform string `json:"platform" db:"platform"`
}

type Preferences struct {
	UserID       uuid.UUID     `json:"user_id" db:"user_id"`
	PushEnabled  bool          `json:"push_enabled" db:"push_enabled"`
	DeviceTokens []DeviceToken `json:"device_tokens"`
}

type CreateNotificationRequest struct {
	UserID uuid.UUID        `json:"user_id"`
	Type   NotificationType `json:"type"`
	Title  string           `json:"title"`
	Body   string           `json:"body"`
	Data   map[string]any   `json:"data"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}
