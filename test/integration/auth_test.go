package integration_test

import (
	"net/http"
	"testing"

	"messaging_backend/internal/models"
	"messaging_backend/internal/services/dto"
	"messaging_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_RegisterLoginMe(t *testing.T) {
	ts := helpers.NewTestServer(t, nil)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "dana",
		"email":    "dana@example.com",
		"password": "correct-horse",
		"role":     "host",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	var registered dto.AuthResponse
	helpers.Decode(t, body, &registered)
	assert.Equal(t, models.UserRoleHost, registered.User.Role)

	res, body = ts.SendRequest(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "dana",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var login dto.AuthResponse
	helpers.Decode(t, body, &login)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/users/me", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var me dto.UserResponse
	helpers.Decode(t, body, &me)
	assert.Equal(t, "dana", me.Username)
}

func TestAuth_RegisterValidation(t *testing.T) {
	ts := helpers.NewTestServer(t, nil)

	// Elevated roles cannot be self-assigned.
	res, body := ts.SendRequest(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "eve",
		"email":    "eve@example.com",
		"password": "correct-horse",
		"role":     "admin",
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "eve",
		"email":    "not-an-email",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, body)
	assert.Contains(t, body, "VALIDATION_FAILED")
}

func TestAuth_WrongPassword(t *testing.T) {
	ts := helpers.NewTestServer(t, nil)
	user := helpers.CreateUser(t, ts, models.UserRoleGuest, false, "password123")

	res, body := ts.SendRequest(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": user.Username,
		"password": "nope-nope-nope",
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Contains(t, body, "INVALID_CREDENTIALS")
}

func TestAuth_AnonymousIsRejected(t *testing.T) {
	ts := helpers.NewTestServer(t, nil)

	res, body := ts.SendRequest(t, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Contains(t, body, "authentication required")

	res, _ = ts.SendRequest(t, http.MethodGet, "/api/users/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestDeleteMe_RemovesEverything(t *testing.T) {
	ts := helpers.NewTestServer(t, nil)
	aliceToken, _ := helpers.CreateAndLoginUser(t, ts, models.UserRoleGuest)
	bobToken, bob := helpers.CreateAndLoginUser(t, ts, models.UserRoleGuest)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/messages", aliceToken, map[string]string{
		"receiver_id": bob.ID,
		"content":     "hello",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodPost, "/api/users/me/delete", aliceToken, nil)
	require.Equal(t, http.StatusNoContent, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/notifications", bobToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var list dto.NotificationListResponse
	helpers.Decode(t, body, &list)
	assert.Empty(t, list.Notifications)
	assert.Zero(t, list.Total)

	res, _ = ts.SendRequest(t, http.MethodGet, "/api/users/me", aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
