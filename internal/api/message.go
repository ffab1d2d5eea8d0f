package api

import (
	"errors"
	"net/http"
	"strconv"

	"chat-server/internal/membership"
	"chat-server/internal/message"
	"chat-server/pkg/chat"

	"github.com/gin-gonic/gin"
)

type MessageHandlers struct {
	messages *message.Service
}

func NewMessageHandlers(messages *message.Service) *MessageHandlers {
	return &MessageHandlers{messages: messages}
}

type MessagesResponse struct {
	Messages []chat.MessageView `json:"messages"`
	HasMore  bool               `json:"has_more"`
}

// ChannelMessagesHandler retrieves message history for a channel
// @Summary Get channel message history
// @Description Paginated history, newest page first; members only
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Channel ID"
// @Param limit query int false "Messages per page (default 50, max 100)"
// @Param before query string false "Return messages older than this message ID"
// @Success 200 {object} MessagesResponse
// @Failure 403 {object} ErrorResponse "Not a member"
// @Router /api/channels/{id}/messages [get]
func (h *MessageHandlers) ChannelMessagesHandler(c *gin.Context) {
	channelID := c.Param("id")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	views, hasMore, err := h.messages.ChannelMessages(c.GetString("user_id"), channelID, limit, c.Query("before"))
	if err != nil {
		if errors.Is(err, membership.ErrNotMember) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, MessagesResponse{Messages: views, HasMore: hasMore})
}
