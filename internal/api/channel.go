package api

import (
	"errors"
	"net/http"

	"chat-server/internal/channel"
	"chat-server/internal/membership"
	"chat-server/pkg/chat"

	"github.com/gin-gonic/gin"
)

type ChannelHandlers struct {
	channels *channel.Service
	members  *membership.Service
}

func NewChannelHandlers(channels *channel.Service, members *membership.Service) *ChannelHandlers {
	return &ChannelHandlers{channels: channels, members: members}
}

type CreateChannelInput struct {
	Name      string `json:"name" binding:"required,min=1,max=64" example:"general"`
	IsPrivate bool   `json:"is_private"`
}

type InviteInput struct {
	UserID string `json:"user_id" binding:"required"`
}

type ChannelInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"owner_id"`
	IsPrivate bool   `json:"is_private"`
}

func channelInfo(ch *chat.Channel) ChannelInfo {
	return ChannelInfo{ID: ch.ID, Name: ch.Name, OwnerID: ch.OwnerID, IsPrivate: ch.IsPrivate}
}

// CreateChannelHandler creates a channel owned by the caller
// @Summary Create a channel
// @Tags Channels
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateChannelInput true "Channel to create"
// @Success 201 {object} ChannelInfo "Channel created"
// @Failure 400 {object} ErrorResponse "Bad request"
// @Router /api/channels [post]
func (h *ChannelHandlers) CreateChannelHandler(c *gin.Context) {
	var input CreateChannelInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ch, err := h.channels.Create(c.GetString("user_id"), input.Name, input.IsPrivate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, channelInfo(ch))
}

// ListChannelsHandler lists public channels
// @Summary List public channels
// @Tags Channels
// @Produce json
// @Security BearerAuth
// @Success 200 {array} ChannelInfo
// @Router /api/channels [get]
func (h *ChannelHandlers) ListChannelsHandler(c *gin.Context) {
	channels, err := h.channels.PublicChannels()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list channels"})
		return
	}

	out := make([]ChannelInfo, len(channels))
	for i := range channels {
		out[i] = channelInfo(&channels[i])
	}
	c.JSON(http.StatusOK, out)
}

// MyChannelsHandler lists the channels the caller belongs to
// @Summary List my channels
// @Tags Channels
// @Produce json
// @Security BearerAuth
// @Success 200 {array} ChannelInfo
// @Router /api/channels/mine [get]
func (h *ChannelHandlers) MyChannelsHandler(c *gin.Context) {
	channels, err := h.channels.UserChannels(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list channels"})
		return
	}

	out := make([]ChannelInfo, len(channels))
	for i := range channels {
		out[i] = channelInfo(&channels[i])
	}
	c.JSON(http.StatusOK, out)
}

// JoinChannelHandler joins a public channel
// @Summary Join a public channel
// @Tags Channels
// @Produce json
// @Security BearerAuth
// @Param id path string true "Channel ID"
// @Success 200 {object} map[string]string "Joined"
// @Failure 403 {object} ErrorResponse "Channel is private"
// @Failure 404 {object} ErrorResponse "Channel not found"
// @Failure 409 {object} ErrorResponse "Already a member"
// @Router /api/channels/{id}/join [post]
func (h *ChannelHandlers) JoinChannelHandler(c *gin.Context) {
	err := h.channels.Join(c.GetString("user_id"), c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Joined channel"})
	case errors.Is(err, channel.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, channel.ErrAlreadyMember):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, membership.ErrNotMember):
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot join a private channel without an invite"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join channel"})
	}
}

// InviteHandler invites a user into a channel; only the owner may invite
// @Summary Invite a user to a channel
// @Tags Channels
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Channel ID"
// @Param request body InviteInput true "User to invite"
// @Success 200 {object} map[string]string "Invited"
// @Failure 403 {object} ErrorResponse "Only the owner can invite"
// @Failure 409 {object} ErrorResponse "Already a member"
// @Router /api/channels/{id}/invite [post]
func (h *ChannelHandlers) InviteHandler(c *gin.Context) {
	var input InviteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.channels.Invite(c.GetString("user_id"), input.UserID, c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "User invited"})
	case errors.Is(err, channel.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, channel.ErrAlreadyMember):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, membership.ErrNotMember):
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the channel owner can invite"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to invite user"})
	}
}

// LeaveChannelHandler removes the caller from a channel
// @Summary Leave a channel
// @Tags Channels
// @Produce json
// @Security BearerAuth
// @Param id path string true "Channel ID"
// @Success 200 {object} map[string]string "Left"
// @Failure 403 {object} ErrorResponse "Owner cannot leave"
// @Router /api/channels/{id}/leave [post]
func (h *ChannelHandlers) LeaveChannelHandler(c *gin.Context) {
	err := h.channels.Leave(c.GetString("user_id"), c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Left channel"})
	case errors.Is(err, channel.ErrOwnerLeaving):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, membership.ErrNotMember):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to leave channel"})
	}
}

// ChannelMembersHandler lists the members of a channel the caller is in
// @Summary List channel members
// @Tags Channels
// @Produce json
// @Security BearerAuth
// @Param id path string true "Channel ID"
// @Success 200 {array} UserInfo
// @Failure 403 {object} ErrorResponse "Not a member"
// @Router /api/channels/{id}/members [get]
func (h *ChannelHandlers) ChannelMembersHandler(c *gin.Context) {
	channelID := c.Param("id")

	ok, err := h.members.IsMember(c.GetString("user_id"), channelID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list members"})
		return
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": membership.ErrNotMember.Error()})
		return
	}

	users, err := h.members.ChannelMembers(channelID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list members"})
		return
	}

	out := make([]UserInfo, len(users))
	for i := range users {
		out[i] = userInfo(&users[i])
	}
	c.JSON(http.StatusOK, out)
}
