package foodlog

import (
	"time"

	"github.com/google/uuid"
)

type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityFriends Visibility = "friends"
	VisibilityPublic  Visibility = "public"
)

func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPrivate, VisibilityFriends, VisibilityPublic:
		return true
	}
	return false
}

type Macronutrients struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fats    float64 `json:"fats"`
}

// FoodLog is immutable once written.
type FoodLog struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	UserID         uuid.UUID      `json:"user_id" db:"user_id"`
	FoodName       string         `json:"food_name" db:"food_name"`
	PortionSize    float64        `json:"portion_size" db:"portion_size"`
	Calories       float64        `json:"calories" db:"calories"`
	Macronutrients Macronutrients `json:"macronutrients"`
	ImageURL       string         `json:"image_url" db:"image_url"`
	Visibility     Visibility     `json:"visibility" db:"visibility"`
	Timestamp      time.Time      `json:"timestamp" db:"created_at"`
}

// FeedItem is a friend's log with the author resolved at read time.
type FeedItem struct {
	ID             uuid.UUID      `json:"id"`
	UserID         uuid.UUID      `json:"user_id"`
	Username       string         `json:"username"`
	FoodName       string         `json:"food_name"`
	PortionSize    float64        `json:"portion_size"`
	Calories       float64        `json:"calories"`
	Macronutrients Macronutrients `json:"macronutrients"`
	ImageURL       string         `json:"image_url"`
	Timestamp      time.Time      `json:"timestamp"`
}
