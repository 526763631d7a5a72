package integration_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"messaging_backend/internal/config"
	"messaging_backend/internal/models"
	"messaging_backend/internal/services/dto"
	"messaging_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeline_OutsideAllowedHours(t *testing.T) {
	ts := helpers.NewTestServer(t, nil)
	token, user := helpers.CreateAndLoginUser(t, ts, models.UserRoleGuest)

	ts.SetNow(time.Date(2024, 5, 1, 23, 15, 0, 0, time.Local))

	res, body := ts.SendRequest(t, http.MethodGet, "/api/messages", token, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Contains(t, body, "Chat is available only during allowed hours.")

	// Ungoverned paths stay open.
	res, _ = ts.SendRequest(t, http.MethodGet, "/api/users/me", token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var blocked int
	for _, line := range ts.RequestLog() {
		if strings.Contains(line, "BLOCK (outside allowed hours) - User: "+user.ID+" - Path: /api/messages") {
			blocked++
		}
	}
	assert.Equal(t, 1, blocked)
}

func TestPipeline_RateLimitedSend(t *testing.T) {
	ts := helpers.NewTestServer(t, func(c *config.Config) {
		c.Pipeline.RateLimit = 2
	})
	token, _ := helpers.CreateAndLoginUser(t, ts, models.UserRoleGuest)
	_, bob := helpers.CreateAndLoginUser(t, ts, models.UserRoleGuest)

	send := func() *http.Response {
		res, _ := ts.SendRequest(t, http.MethodPost, "/api/messages", token, map[string]interface{}{
			"receiver_id": bob.ID, "content": "spam",
		})
		return res
	}

	assert.Equal(t, http.StatusCreated, send().StatusCode)
	assert.Equal(t, http.StatusCreated, send().StatusCode)
	res := send()
	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
	assert.Equal(t, "60", res.Header.Get("Retry-After"))

	var stats int64
	require.NoError(t, ts.DB.Table("messages").Count(&stats).Error)
	assert.EqualValues(t, 2, stats)

	// Reads are not limited.
	res, _ = ts.SendRequest(t, http.MethodGet, "/api/messages", token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestPipeline_AdminRoutes(t *testing.T) {
	ts := helpers.NewTestServer(t, nil)
	guestToken, guest := helpers.CreateAndLoginUser(t, ts, models.UserRoleGuest)
	modToken, _ := helpers.CreateAndLoginUser(t, ts, models.UserRoleModerator)

	res, _ := ts.SendRequest(t, http.MethodGet, "/chats/admin/stats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, _ = ts.SendRequest(t, http.MethodGet, "/chats/admin/stats", guestToken, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, body := ts.SendRequest(t, http.MethodGet, "/chats/admin/stats", modToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var stats dto.StatsResponse
	helpers.Decode(t, body, &stats)
	assert.EqualValues(t, 2, stats.Users)

	// Staff passes regardless of role.
	staff := helpers.CreateUser(t, ts, models.UserRoleGuest, true, "password123")
	staffToken, _, err := ts.Tokens.Generate(staff)
	require.NoError(t, err)

	res, body = ts.SendRequest(t, http.MethodDelete, "/chats/admin/users/"+guest.ID, staffToken, nil)
	require.Equal(t, http.StatusNoContent, res.StatusCode, body)

	res, _ = ts.SendRequest(t, http.MethodDelete, "/chats/admin/users/"+guest.ID, staffToken, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestPipeline_RequestLogLine(t *testing.T) {
	ts := helpers.NewTestServer(t, nil)
	token, user := helpers.CreateAndLoginUser(t, ts, models.UserRoleGuest)

	ts.SendRequest(t, http.MethodGet, "/api/users/me", token, nil)
	ts.SendRequest(t, http.MethodGet, "/health", "", nil)

	lines := ts.RequestLog()
	require.GreaterOrEqual(t, len(lines), 2)
	assert.True(t, strings.HasSuffix(lines[len(lines)-2], "- User: "+user.ID+" - Path: /api/users/me"))
	assert.True(t, strings.HasSuffix(lines[len(lines)-1], "- User: Anonymous - Path: /health"))
}
