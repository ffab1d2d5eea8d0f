package api

import (
	"errors"
	"net/http"

	"chat-server/internal/auth"

	"github.com/gin-gonic/gin"
)

type AuthHandlers struct {
	auth   *auth.Service
	tokens *auth.Tokens
}

func NewAuthHandlers(service *auth.Service, tokens *auth.Tokens) *AuthHandlers {
	return &AuthHandlers{auth: service, tokens: tokens}
}

type RegisterInput struct {
	Username string `json:"username" binding:"required,min=3,max=32" example:"john_doe"`
	Password string `json:"password" binding:"required,min=8" example:"securePassword123"`
}

type LoginInput struct {
	Username string `json:"username" binding:"required" example:"john_doe"`
	Password string `json:"password" binding:"required" example:"securePassword123"`
}

type UserResponse struct {
	ID       string `json:"id" example:"a1b2c3d4"`
	Username string `json:"username" example:"john_doe"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type ErrorResponse struct {
	Error string `json:"error" example:"username already taken"`
}

// RegisterHandler registers a new user
// @Summary Register a new user
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body RegisterInput true "Registration request"
// @Success 201 {object} AuthResponse "User registered"
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 409 {object} ErrorResponse "Username taken"
// @Router /register [post]
func (h *AuthHandlers) RegisterHandler(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.auth.Register(input.Username, input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.tokens.Generate(user.ID, user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User created but token generation failed"})
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{
		Token: token,
		User:  UserResponse{ID: user.ID, Username: user.Username},
	})
}

// LoginHandler authenticates a user and issues the bearer token used for
// both the REST routes and the websocket handshake.
// @Summary Login
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body LoginInput true "Login request"
// @Success 200 {object} AuthResponse "Logged in"
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Router /login [post]
func (h *AuthHandlers) LoginHandler(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.auth.Login(input.Username, input.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidCredentials.Error()})
		return
	}

	token, err := h.tokens.Generate(user.ID, user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Token generation failed"})
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		Token: token,
		User:  UserResponse{ID: user.ID, Username: user.Username},
	})
}
