package api

import (
	"errors"
	"net/http"
	"time"

	"chat-server/internal/user"
	"chat-server/pkg/chat"

	"github.com/gin-gonic/gin"
)

type UserHandlers struct {
	users *user.Service
}

func NewUserHandlers(users *user.Service) *UserHandlers {
	return &UserHandlers{users: users}
}

type UserInfo struct {
	ID         string     `json:"id"`
	Username   string     `json:"username"`
	Status     string     `json:"status"`
	AvatarURL  *string    `json:"avatar_url,omitempty"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}

func userInfo(u *chat.User) UserInfo {
	return UserInfo{
		ID:         u.ID,
		Username:   u.Username,
		Status:     u.Status,
		AvatarURL:  u.AvatarURL,
		LastSeenAt: u.LastSeenAt,
	}
}

// MeHandler returns the authenticated user's profile
// @Summary Get my profile
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserInfo
// @Router /api/users/me [get]
func (h *UserHandlers) MeHandler(c *gin.Context) {
	u, err := h.users.Get(c.GetString("user_id"))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}
	c.JSON(http.StatusOK, userInfo(u))
}

// ListUsersHandler lists all users with their presence status
// @Summary List users
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserInfo
// @Router /api/users [get]
func (h *UserHandlers) ListUsersHandler(c *gin.Context) {
	users, err := h.users.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}

	out := make([]UserInfo, len(users))
	for i := range users {
		out[i] = userInfo(&users[i])
	}
	c.JSON(http.StatusOK, out)
}
