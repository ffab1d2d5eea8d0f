package api

import (
	"context"
	"log/slog"

	"chat-server/internal/auth"
	"chat-server/internal/channel"
	"chat-server/internal/config"
	"chat-server/internal/membership"
	"chat-server/internal/message"
	"chat-server/internal/presence"
	"chat-server/internal/search"
	"chat-server/internal/storage"
	"chat-server/internal/user"
	"chat-server/internal/ws"
	"chat-server/pkg/chat"

	"github.com/gin-gonic/gin"
)

// Server is the composition root: it connects storage, wires the realtime
// stack and exposes everything through one gin engine.
type Server struct {
	cfg    config.Config
	engine *gin.Engine
	relay  *ws.Relay // nil without Redis
	store  *presence.RedisStore
	log    *slog.Logger
}

func NewServer(cfg config.Config, log *slog.Logger) (*Server, error) {
	db, err := storage.Connect(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	hub := ws.NewHub(log)

	// Without Redis the hub broadcasts alone and presence stays in-process.
	var broadcaster chat.Broadcaster = hub
	var relay *ws.Relay
	var redisStore *presence.RedisStore
	var shared presence.OnlineStore
	if cfg.RedisAddr != "" {
		redisStore = presence.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, log)
		shared = redisStore
		relay = ws.NewRelay(redisStore.Client(), hub, log)
		broadcaster = relay
	}

	members := membership.NewService(db)
	users := user.NewService(db)
	messages := message.NewService(db, members)
	channels := channel.NewService(db, members, broadcaster)
	searcher := search.NewService(db, members)
	authService := auth.NewService(db)
	tokens := auth.NewTokens(cfg.AppSecret)

	registry := presence.NewSessionRegistry()
	tracker := presence.NewTracker(registry, shared, broadcaster, users, log)
	typing := ws.NewTypingTracker(cfg.TypingTimeout, broadcaster, log)
	dispatcher := ws.NewDispatcher(hub, broadcaster, members, messages, typing, log)
	wsHandler := ws.NewHandler(hub, tokens, tracker, typing, dispatcher, log)

	engine := gin.New()
	engine.Use(gin.Recovery())

	router := NewRouter(
		tokens,
		NewAuthHandlers(authService, tokens),
		NewChannelHandlers(channels, members),
		NewMessageHandlers(messages),
		NewSearchHandlers(searcher),
		NewUserHandlers(users),
		wsHandler,
	)
	router.RegisterRoutes(engine)

	return &Server{cfg: cfg, engine: engine, relay: relay, store: redisStore, log: log}, nil
}

// Run starts the relay loop when Redis is configured and serves until the
// listener fails.
func (s *Server) Run(ctx context.Context) error {
	if s.relay != nil {
		go s.relay.Run(ctx)
	}

	s.log.Info("listening", "addr", s.cfg.ListenAddr)
	return s.engine.Run(s.cfg.ListenAddr)
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
