package friendship

import (
	"time"

	"github.com/google/uuid"
)

type FriendshipStatus string

const (
	FriendshipActive  FriendshipStatus = "active"
	FriendshipRemoved FriendshipStatus = "removed"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// Friendship is one direction of an accepted friendship. Accepting a
// request writes two of these, one per direction, so each side keeps its
// own streak_count with the other.
type Friendship struct {
	ID              uuid.UUID        `json:"id" db:"id"`
	UserID          uuid.UUID        `json:"user_id" db:"user_id"`
	FriendID        uuid.UUID        `json:"friend_id" db:"friend_id"`
	StreakCount     int              `json:"streak_count" db:"streak_count"`
	LastInteraction time.Time        `json:"last_interaction" db:"last_interaction"`
	Status          FriendshipStatus `json:"status" db:"status"`
}

type FriendRequest struct {
	ID        uuid.UUID     `json:"id" db:"id"`
	FromUser  uuid.UUID     `json:"from_user" db:"from_user"`
	ToUser    uuid.UUID     `json:"to_user" db:"to_user"`
	Status    RequestStatus `json:"status" db:"status"`
	CreatedAt time.Time     `json:"timestamp" db:"created_at"`
}

// Friend is the friends-list view: the edge joined with the friend's profile.
type Friend struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	FriendID        uuid.UUID `json:"friend_id"`
	Username        string    `json:"username"`
	ImageURL        *string   `json:"image_url"`
	StreakCount     int       `json:"streak_count"`
	LastInteraction time.Time `json:"last_interaction"`
}
