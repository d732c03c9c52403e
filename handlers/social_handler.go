package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"calmateAPI/middleware"
	"calmateAPI/services"
)

type SocialHandler struct {
	socialService *services.SocialService
	userService   *services.UserService
}

func NewSocialHandler(socialService *services.SocialService, userService *services.UserService) *SocialHandler {
	return &SocialHandler{
		socialService: socialService,
		userService:   userService,
	}
}

func (h *SocialHandler) requireUserID(ctx context.Context, w http.ResponseWriter) (uuid.UUID, bool) {
	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return uuid.Nil, false
	}
	userID, err := h.userService.ResolveUserID(ctx, clerkID)
	if err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return uuid.Nil, false
	}
	return userID, true
}

func (h *SocialHandler) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := h.requireUserID(ctx, w)
	if !ok {
		return
	}

	var req struct {
		ToUser string `json:"to_user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	toUser, err := uuid.Parse(req.ToUser)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid to_user ID")
		return
	}

	request, err := h.socialService.SendFriendRequest(ctx, userID, toUser)
	if err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, request)
}

func (h *SocialHandler) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := h.requireUserID(ctx, w)
	if !ok {
		return
	}

	requestID, err := uuid.Parse(mux.Vars(r)["requestId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	request, err := h.socialService.AcceptFriendRequest(ctx, requestID, userID)
	if err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, request)
}

func (h *SocialHandler) GetPendingRequests(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := h.requireUserID(ctx, w)
	if !ok {
		return
	}

	requests, err := h.socialService.GetPendingRequests(ctx, userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch friend requests")
		return
	}

	respondWithJSON(w, http.StatusOK, requests)
}

func (h *SocialHandler) GetFriends(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := h.requireUserID(ctx, w)
	if !ok {
		return
	}

	friends, err := h.socialService.GetFriends(ctx, userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch friends")
		return
	}

	respondWithJSON(w, http.StatusOK, friends)
}

func (h *SocialHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID, ok := h.requireUserID(ctx, w)
	if !ok {
		return
	}

	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	feed, err := h.socialService.GetFriendFeed(ctx, userID, limit, offset)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to build friend feed")
		return
	}

	respondWithJSON(w, http.StatusOK, feed)
}

func (h *SocialHandler) TouchInteraction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := h.requireUserID(ctx, w)
	if !ok {
		return
	}

	friendID, err := uuid.Parse(mux.Vars(r)["friendId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid friend ID")
		return
	}

	if err := h.socialService.TouchInteraction(ctx, userID, friendID); err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Interaction recorded"})
}

// CleanupFriendships removes duplicate friendship rows. Admin-only surface,
// wired behind the auth middleware for now.
func (h *SocialHandler) CleanupFriendships(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if _, ok := middleware.GetClerkID(ctx); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	removed, err := h.socialService.CleanupDuplicateFriendships(ctx)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to clean up friendships")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int{"removed": removed})
}
