package helpers

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"

	"messaging_backend/internal/auth"
	"messaging_backend/internal/models"
	"messaging_backend/internal/repositories"

	"github.com/stretchr/testify/require"
)

var userSeq atomic.Int64

// CreateUser inserts a user directly. password is hashed.
func CreateUser(t *testing.T, ts *TestServer, role models.UserRole, staff bool, password string) *models.User {
	t.Helper()
	n := userSeq.Add(1)

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		Username:     fmt.Sprintf("user%d", n),
		Email:        fmt.Sprintf("user%d@example.com", n),
		PasswordHash: hash,
		Role:         role,
		IsStaff:      staff,
	}
	require.NoError(t, repositories.NewUserRepository().Create(ts.DB, user))
	return user
}

// CreateAndLoginUser creates a user and logs in through the API.
func CreateAndLoginUser(t *testing.T, ts *TestServer, role models.UserRole) (string, *models.User) {
	t.Helper()
	const password = "password123"
	user := CreateUser(t, ts, role, false, password)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": user.Username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var login struct {
		AccessToken string `json:"access_token"`
	}
	Decode(t, body, &login)
	require.NotEmpty(t, login.AccessToken)
	return login.AccessToken, user
}
