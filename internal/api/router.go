package api

import (
	"chat-server/internal/auth"
	"chat-server/internal/middleware"
	"chat-server/internal/ws"

	"github.com/gin-gonic/gin"
)

// Router owns the HTTP surface: auth, channels, history, search, users and
// the websocket upgrade endpoint.
type Router struct {
	tokens    *auth.Tokens
	authH     *AuthHandlers
	channelH  *ChannelHandlers
	messageH  *MessageHandlers
	searchH   *SearchHandlers
	userH     *UserHandlers
	wsHandler *ws.Handler
}

func NewRouter(tokens *auth.Tokens, authH *AuthHandlers, channelH *ChannelHandlers, messageH *MessageHandlers, searchH *SearchHandlers, userH *UserHandlers, wsHandler *ws.Handler) *Router {
	return &Router{
		tokens:    tokens,
		authH:     authH,
		channelH:  channelH,
		messageH:  messageH,
		searchH:   searchH,
		userH:     userH,
		wsHandler: wsHandler,
	}
}

func (r *Router) RegisterRoutes(router *gin.Engine) {
	authLimiter := middleware.NewIPRateLimiter(middleware.StrictRateLimit)
	apiLimiter := middleware.NewIPRateLimiter(middleware.StandardRateLimit)

	{
		unprotected := router.Group("/")
		unprotected.GET("/hc", HealthCheckHandler)
		unprotected.POST("/register", middleware.RateLimit(authLimiter), r.authH.RegisterHandler)
		unprotected.POST("/login", middleware.RateLimit(authLimiter), r.authH.LoginHandler)
	}

	// Token verification happens inside the handler, before the upgrade.
	router.GET("/ws", r.wsHandler.HandleWebSocket)

	{
		protected := router.Group("/api")
		protected.Use(middleware.RateLimit(apiLimiter), r.tokens.RequireAuth())

		protected.GET("/users", r.userH.ListUsersHandler)
		protected.GET("/users/me", r.userH.MeHandler)

		protected.POST("/channels", r.channelH.CreateChannelHandler)
		protected.GET("/channels", r.channelH.ListChannelsHandler)
		protected.GET("/channels/mine", r.channelH.MyChannelsHandler)
		protected.POST("/channels/:id/join", r.channelH.JoinChannelHandler)
		protected.POST("/channels/:id/invite", r.channelH.InviteHandler)
		protected.POST("/channels/:id/leave", r.channelH.LeaveChannelHandler)
		protected.GET("/channels/:id/members", r.channelH.ChannelMembersHandler)
		protected.GET("/channels/:id/messages", r.messageH.ChannelMessagesHandler)
		protected.GET("/channels/:id/search", r.searchH.SearchMessagesHandler)
	}
}

func HealthCheckHandler(c *gin.Context) {
	c.String(200, "Running")
}
