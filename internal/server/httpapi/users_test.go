package httpapi

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/arcms/internal/common"
	"github.com/dmitrijs2005/arcms/internal/server/models"
	"github.com/dmitrijs2005/arcms/internal/server/services"
)

func sampleUser() *models.PublicUser {
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &models.PublicUser{ID: testUserID, Email: "a@x.com", Role: models.RoleUser, CreatedAt: ts, UpdatedAt: ts}
}

func TestRegister(t *testing.T) {
	api := newTestAPI(t, Options{})
	api.users.user = sampleUser()
	api.users.pair = &services.TokenPair{AccessToken: "acc", RefreshToken: "ref"}

	rec := api.do(http.MethodPost, "/api/auth/register", `{"email":"a@x.com","password":"longenough1"}`, false)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "acc", body["accessToken"])
	assert.Equal(t, "ref", body["refreshToken"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "a@x.com", user["email"])
	assert.NotContains(t, user, "passwordHash")
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestRegister_Validation(t *testing.T) {
	api := newTestAPI(t, Options{})

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"bad email", `{"email":"nope","password":"longenough1"}`, "email"},
		{"short password", `{"email":"a@x.com","password":"short"}`, "password"},
		{"missing body", ``, "body"},
		{"not json", `{"email":`, "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(http.MethodPost, "/api/auth/register", tt.body, false)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			body := decodeBody(t, rec)
			assert.Equal(t, "Validation Error", body["error"])
			details := body["details"].([]any)
			require.NotEmpty(t, details)
			assert.Equal(t, tt.field, details[0].(map[string]any)["field"])
		})
	}
	assert.Empty(t, api.users.gotEmail, "service must not be called")
}

func TestRegister_Conflict(t *testing.T) {
	api := newTestAPI(t, Options{})
	api.users.err = common.WithMessage(common.ErrorConflict, "User with this email already exists")

	rec := api.do(http.MethodPost, "/api/auth/register", `{"email":"a@x.com","password":"longenough1"}`, false)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, map[string]any{"error": "Conflict", "message": "User with this email already exists"}, decodeBody(t, rec))
}

func TestLogin(t *testing.T) {
	api := newTestAPI(t, Options{})
	api.users.user = sampleUser()
	api.users.pair = &services.TokenPair{AccessToken: "acc", RefreshToken: "ref"}

	rec := api.do(http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"whatever"}`, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "acc", decodeBody(t, rec)["accessToken"])

	api.users.err = common.WithMessage(common.ErrorUnauthorized, "Invalid email or password")
	rec = api.do(http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"whatever"}`, false)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", decodeBody(t, rec)["message"])
}

func TestRefresh(t *testing.T) {
	api := newTestAPI(t, Options{})
	api.users.pair = &services.TokenPair{AccessToken: "acc2", RefreshToken: "ref2"}

	rec := api.do(http.MethodPost, "/api/auth/refresh", `{"refreshToken":"ref1"}`, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"accessToken": "acc2", "refreshToken": "ref2"}, decodeBody(t, rec))
	assert.Equal(t, "ref1", api.users.gotToken)

	for _, err := range []error{common.ErrRefreshTokenRevoked, common.ErrTokenExpired, common.ErrInvalidToken} {
		api.users.err = err
		rec = api.do(http.MethodPost, "/api/auth/refresh", `{"refreshToken":"ref1"}`, false)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid or expired token", decodeBody(t, rec)["message"])
	}

	rec = api.do(http.MethodPost, "/api/auth/refresh", `{}`, false)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout(t *testing.T) {
	api := newTestAPI(t, Options{})

	rec := api.do(http.MethodPost, "/api/auth/logout", `{"refreshToken":"ref1"}`, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, api.users.loggedOut)
	assert.Equal(t, true, decodeBody(t, rec)["success"])
}

func TestMe(t *testing.T) {
	api := newTestAPI(t, Options{})
	api.users.user = sampleUser()

	rec := api.do(http.MethodGet, "/api/auth/me", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testUserID, decodeBody(t, rec)["user"].(map[string]any)["id"])

	rec = api.do(http.MethodGet, "/api/auth/me", "", false)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, map[string]any{"error": "Unauthorized", "message": "Invalid or expired token"}, decodeBody(t, rec))
}

func TestAuthenticate_RejectsBadTokens(t *testing.T) {
	api := newTestAPI(t, Options{})
	refresh, err := api.issuer.RefreshToken(testUserID)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"no scheme", api.token},
		{"wrong scheme", "Basic " + api.token},
		{"empty bearer", "Bearer "},
		{"garbage", "Bearer not.a.jwt"},
		{"refresh token as access", "Bearer " + refresh.Token},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest(http.MethodGet, "/api/projects", "")
			req.Header.Set("Authorization", tt.header)
			rec := serve(api.router, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
	assert.Empty(t, api.projects.gotUser)
}
