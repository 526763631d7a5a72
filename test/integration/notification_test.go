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

func TestNotifications_Lifecycle(t *testing.T) {
	ts := helpers.NewTestServer(t, nil)
	aliceToken, _ := helpers.CreateAndLoginUser(t, ts, models.UserRoleGuest)
	bobToken, bob := helpers.CreateAndLoginUser(t, ts, models.UserRoleGuest)

	for _, content := range []string{"one", "two", "three"} {
		sendMessage(t, ts, aliceToken, map[string]interface{}{"receiver_id": bob.ID, "content": content})
	}

	res, body := ts.SendRequest(t, http.MethodGet, "/api/notifications?page_size=2", bobToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var page dto.NotificationListResponse
	helpers.Decode(t, body, &page)
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Notifications, 2)
	assert.Equal(t, models.NotificationTypeNewMessage, page.Notifications[0].Type)

	target := page.Notifications[0].ID
	res, _ = ts.SendRequest(t, http.MethodPost, "/api/notifications/"+target+"/read", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, body = ts.SendRequest(t, http.MethodPost, "/api/notifications/"+target+"/read", bobToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/notifications?unread_only=true", bobToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	helpers.Decode(t, body, &page)
	assert.EqualValues(t, 2, page.Total)

	res, _ = ts.SendRequest(t, http.MethodPost, "/api/notifications/read-all", bobToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/notifications/unread-count", bobToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var count dto.UnreadCountResponse
	helpers.Decode(t, body, &count)
	assert.Zero(t, count.Count)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := helpers.NewTestServer(t, nil)

	res, body := ts.SendRequest(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "messaging_http_requests_total")
}
