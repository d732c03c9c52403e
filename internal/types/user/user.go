package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                    uuid.UUID  `json:"id" db:"id"`
	ClerkID               string     `json:"clerk_id" db:"clerk_id"`
	Email                 string     `json:"email" db:"email"`
	Username              string     `json:"username" db:"username"`
	FullName              *string    `json:"full_name" db:"full_name"`
	ImageURL              *string    `json:"image_url" db:"image_url"`
	CurrentStreak         int        `json:"current_streak" db:"current_streak"`
	HighestStreak         int        `json:"highest_streak" db:"highest_streak"`
	LastLogDate           *time.Time `json:"last_log_date" db:"last_log_date"`
	TotalPoints           int        `json:"total_points" db:"total_points"`
	Achievements          []string   `json:"achievements" db:"achievements"`
	DailyCalorieGoal      *int       `json:"daily_calorie_goal" db:"daily_calorie_goal"`
	CaloriesConsumedToday int        `json:"calories_consumed_today" db:"calories_consumed_today"`
	FCMToken              *string    `json:"fcm_token,omitempty" db:"fcm_token"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at" db:"updated_at"`
}

type CreateUserRequest struct {
	ClerkID  string  `json:"clerk_id"`
	Email    string  `json:"email"`
	Username string  `json:"username"`
	FullName *string `json:"full_name"`
	ImageURL *string `json:"image_url"`
}

type UpdateProfileRequest struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	ImageURL string `json:"image_url"`
}

type SetCalorieGoalRequest struct {
	DailyCalorieGoal int `json:"daily_calorie_goal"`
}

// ProfileResponse is what GET /user returns: the user row plus the
// achievement-status view resolved against the catalog.
type ProfileResponse struct {
	User         *User `json:"user"`
	FriendsCount int   `json:"friends_count"`
	TotalLogs    int   `json:"total_logs"`
}
