package handlers

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"calmateAPI/internal/types/foodlog"
	"calmateAPI/middleware"
	"calmateAPI/services"
)

// maxImageBytes caps meal photo uploads at 10MB.
const maxImageBytes = 10 << 20

type FoodHandler struct {
	foodService         *services.FoodService
	userService         *services.UserService
	visionService       *services.VisionService
	storageService      *services.StorageService
	gamificationService *services.GamificationService
}

func NewFoodHandler(
	foodService *services.FoodService,
	userService *services.UserService,
	visionService *services.VisionService,
	storageService *services.StorageService,
	gamificationService *services.GamificationService,
) *FoodHandler {
	return &FoodHandler{
		foodService:         foodService,
		userService:         userService,
		visionService:       visionService,
		storageService:      storageService,
		gamificationService: gamificationService,
	}
}

// AnalyzeFood takes a meal photo, runs it through the vision model, stores
// the log and kicks the streak/achievement pipeline. The response carries the
// nutrition breakdown plus any achievements the log unlocked.
func (h *FoodHandler) AnalyzeFood(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
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

	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid multipart form or image too large")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Image file is required")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to read image")
		return
	}

	visibility := foodlog.Visibility(r.FormValue("visibility"))
	if visibility == "" {
		visibility = foodlog.VisibilityFriends
	}
	if !visibility.Valid() {
		respondWithError(w, http.StatusBadRequest, "Invalid visibility value")
		return
	}

	analysis, err := h.visionService.AnalyzeFood(ctx, image)
	middleware.RecordFoodAnalysis(err == nil)
	if err != nil {
		log.Printf("AnalyzeFood: vision analysis failed for user %s: %v", userID, err)
		respondWithError(w, statusForError(err), "Failed to analyze food image")
		return
	}

	imageURL, err := h.storageService.UploadImage(ctx, header.Filename, image)
	if err != nil {
		// The log is still useful without the photo.
		log.Printf("AnalyzeFood: image upload failed for user %s: %v", userID, err)
		imageURL = ""
	}

	now := time.Now().UTC()
	entry := &foodlog.FoodLog{
		ID:             uuid.New(),
		UserID:         userID,
		FoodName:       analysis.FoodName,
		PortionSize:    analysis.PortionSize,
		Calories:       analysis.Calories,
		Macronutrients: analysis.Macronutrients,
		ImageURL:       imageURL,
		Visibility:     visibility,
		Timestamp:      now,
	}

	if err := h.foodService.CreateLog(ctx, entry); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to save food log")
		return
	}

	if err := h.userService.AddCaloriesConsumed(ctx, userID, int(analysis.Calories)); err != nil {
		log.Printf("AnalyzeFood: failed to update daily calories for user %s: %v", userID, err)
	}

	unlocked, err := h.gamificationService.ProcessFoodLogged(ctx, userID, now)
	if err != nil {
		log.Printf("AnalyzeFood: gamification pipeline failed for user %s: %v", userID, err)
	}

	streakState, err := h.userService.GetStreakState(ctx, userID)
	if err != nil {
		log.Printf("AnalyzeFood: failed to read streak for user %s: %v", userID, err)
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"log":              entry,
		"analysis":         analysis,
		"current_streak":   streakState.CurrentStreak,
		"new_achievements": unlocked,
	})
}

func (h *FoodHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
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

	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	var from, to *time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid 'from' timestamp, expected RFC3339")
			return
		}
		from = &t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid 'to' timestamp, expected RFC3339")
			return
		}
		to = &t
	}

	logs, err := h.foodService.ListLogs(ctx, userID, limit, offset, from, to)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch food logs")
		return
	}

	respondWithJSON(w, http.StatusOK, logs)
}
