package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterHandler(t *testing.T) {
	f := setupAPI(t)

	tests := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{
			name:       "valid registration",
			body:       RegisterInput{Username: "alice", Password: "password123"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "duplicate username",
			body:       RegisterInput{Username: "alice", Password: "password123"},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "username too short",
			body:       RegisterInput{Username: "al", Password: "password123"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "password too short",
			body:       RegisterInput{Username: "bob", Password: "short"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing fields",
			body:       map[string]string{},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.request(t, http.MethodPost, "/register", "", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.wantStatus == http.StatusCreated {
				resp := decodeBody[AuthResponse](t, w)
				assert.NotEmpty(t, resp.Token)
				assert.NotEmpty(t, resp.User.ID)
				assert.Equal(t, "alice", resp.User.Username)
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	f := setupAPI(t)
	f.newUser(t, "alice")

	w := f.request(t, http.MethodPost, "/login", "", LoginInput{Username: "alice", Password: "password123"})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[AuthResponse](t, w)
	assert.NotEmpty(t, resp.Token)

	// The issued token passes validation against the same secret.
	claims, err := f.tokens.Validate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestLoginHandler_WrongPassword(t *testing.T) {
	f := setupAPI(t)
	f.newUser(t, "alice")

	w := f.request(t, http.MethodPost, "/login", "", LoginInput{Username: "alice", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginHandler_UnknownUser(t *testing.T) {
	f := setupAPI(t)

	w := f.request(t, http.MethodPost, "/login", "", LoginInput{Username: "ghost", Password: "password123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := setupAPI(t)

	w := f.request(t, http.MethodGet, "/api/channels", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.request(t, http.MethodGet, "/api/channels", "not-a-valid-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
