package handlers

import (
	"context"
	"net/http"
	"time"

	"calmateAPI/middleware"
	"calmateAPI/services"
)

type StreakHandler struct {
	userService *services.UserService
}

func NewStreakHandler(userService *services.UserService) *StreakHandler {
	return &StreakHandler{
		userService: userService,
	}
}

func (h *StreakHandler) GetCurrentStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	userID, err := h.userService.ResolveUserID(ctx, clerkID)
	if err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	state, err := h.userService.GetStreakState(ctx, userID)
	if err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"current_streak": state.CurrentStreak,
		"highest_streak": state.HighestStreak,
		"last_log_date":  state.LastLogDate,
	})
}

func (h *StreakHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, ok := middleware.GetClerkID(ctx); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	limit := queryInt(r, "limit", 10)
	if limit < 1 || limit > 50 {
		limit = 10
	}

	entries, err := h.userService.GetLeaderboard(ctx, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch leaderboard")
		return
	}

	respondWithJSON(w, http.StatusOK, entries)
}
