package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calmateAPI/internal/gamification"
	"calmateAPI/internal/testutil"
	"calmateAPI/services"
)

func TestWebhookUserCreated(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool, gamification.NewCatalog())
	webhookHandler := NewWebhookHandler(userService)

	// Disable signature verification for testing
	os.Setenv("CLERK_WEBHOOK_SECRET", "")
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	clerkID := "user_test_" + time.Now().Format("20060102150405")
	payload := testutil.MockClerkWebhookPayload("user.created", clerkID)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	webhookHandler.HandleClerkWebhook(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code, "Expected status 200")

	var response map[string]bool
	err := json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.True(t, response["success"])

	ctx := context.Background()
	u, err := userService.GetUserByClerkID(ctx, clerkID)
	require.NoError(t, err, "User should be created")
	assert.Equal(t, clerkID, u.ClerkID)
	assert.Equal(t, "test.user@example.com", u.Email)
	assert.Equal(t, "testuser", u.Username)
	require.NotNil(t, u.FullName)
	assert.Equal(t, "Test User", *u.FullName)
	assert.Equal(t, 0, u.CurrentStreak, "New users start with no streak")
	assert.Equal(t, 0, u.TotalPoints)
}

func TestWebhookUserUpdated(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool, gamification.NewCatalog())
	webhookHandler := NewWebhookHandler(userService)

	os.Setenv("CLERK_WEBHOOK_SECRET", "")
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	clerkID := "user_test_" + time.Now().Format("20060102150405")
	createPayload := testutil.MockClerkWebhookPayload("user.created", clerkID)

	req1 := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(createPayload))
	req1.Header.Set("Content-Type", "application/json")
	rr1 := httptest.NewRecorder()
	webhookHandler.HandleClerkWebhook(rr1, req1)
	require.Equal(t, http.StatusOK, rr1.Code)

	updatePayload := testutil.MockClerkWebhookPayload("user.updated", clerkID)
	req2 := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(updatePayload))
	req2.Header.Set("Content-Type", "application/json")
	rr2 := httptest.NewRecorder()

	webhookHandler.HandleClerkWebhook(rr2, req2)

	assert.Equal(t, http.StatusOK, rr2.Code)

	ctx := context.Background()
	u, err := userService.GetUserByClerkID(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, "updateduser", u.Username)
	require.NotNil(t, u.FullName)
	assert.Equal(t, "Updated User", *u.FullName)
}

func TestWebhookUserDeleted(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool, gamification.NewCatalog())
	webhookHandler := NewWebhookHandler(userService)

	os.Setenv("CLERK_WEBHOOK_SECRET", "")
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	clerkID := "user_test_" + time.Now().Format("20060102150405")
	createPayload := testutil.MockClerkWebhookPayload("user.created", clerkID)
	req1 := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(createPayload))
	rr1 := httptest.NewRecorder()
	webhookHandler.HandleClerkWebhook(rr1, req1)
	require.Equal(t, http.StatusOK, rr1.Code)

	deletePayload := testutil.MockClerkWebhookPayload("user.deleted", clerkID)
	req2 := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(deletePayload))
	rr2 := httptest.NewRecorder()
	webhookHandler.HandleClerkWebhook(rr2, req2)
	assert.Equal(t, http.StatusOK, rr2.Code)

	ctx := context.Background()
	_, err := userService.GetUserByClerkID(ctx, clerkID)
	assert.Error(t, err, "Deleted user should not resolve")
}

func TestWebhookInvalidSignature(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool, gamification.NewCatalog())
	webhookHandler := NewWebhookHandler(userService)

	os.Setenv("CLERK_WEBHOOK_SECRET", "whsec_test")
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	payload := testutil.MockClerkWebhookPayload("user.created", "user_test_sig")
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(payload))
	rr := httptest.NewRecorder()

	webhookHandler.HandleClerkWebhook(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
