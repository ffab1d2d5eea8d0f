package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"chat-server/internal/membership"
	"chat-server/internal/search"

	"github.com/gin-gonic/gin"
)

type SearchHandlers struct {
	search *search.Service
}

func NewSearchHandlers(service *search.Service) *SearchHandlers {
	return &SearchHandlers{search: service}
}

type SearchResult struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	SenderID  string `json:"sender_id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// SearchMessagesHandler searches messages in a channel the caller belongs to
// @Summary Search messages
// @Tags Search
// @Produce json
// @Security BearerAuth
// @Param id path string true "Channel ID"
// @Param q query string true "Search term"
// @Param limit query int false "Max results (default 20)"
// @Success 200 {array} SearchResult
// @Failure 403 {object} ErrorResponse "Not a member"
// @Router /api/channels/{id}/search [get]
func (h *SearchHandlers) SearchMessagesHandler(c *gin.Context) {
	term := c.Query("q")
	if term == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search term is required"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}

	messages, err := h.search.Messages(c.GetString("user_id"), c.Param("id"), term, limit)
	if err != nil {
		if errors.Is(err, membership.ErrNotMember) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}

	out := make([]SearchResult, len(messages))
	for i, m := range messages {
		out[i] = SearchResult{
			ID:        m.ID,
			ChannelID: m.ChannelID,
			SenderID:  m.SenderID,
			Content:   m.Content,
			CreatedAt: m.CreatedAt.Format(time.RFC3339),
		}
	}
	c.JSON(http.StatusOK, out)
}
