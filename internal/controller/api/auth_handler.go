package api

import (
	"net/http"

	"github.com/Freeeeeet/slot_swap/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	users  *service.UserService
	logger *zap.Logger
}

func NewAuthHandler(users *service.UserService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, logger: logger}
}

type signupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type telegramLinkRequest struct {
	ChatID *int64 `json:"chatId"` // null отвязывает чат
}

type tokenResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

// POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var in signupRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "name, email and password are required")
		return
	}

	user, token, err := h.users.Signup(c.Request.Context(), in.Name, in.Email, in.Password)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, tokenResponse{Token: token, User: toUserView(user)})
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var in loginRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "email and password are required")
		return
	}

	user, token, err := h.users.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{Token: token, User: toUserView(user)})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, _ := currentUser(c)

	user, err := h.users.Me(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, toUserView(user))
}

// PUT /api/auth/me/telegram
func (h *AuthHandler) LinkTelegram(c *gin.Context) {
	var in telegramLinkRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid body")
		return
	}

	userID, _ := currentUser(c)
	user, err := h.users.LinkTelegram(c.Request.Context(), userID, in.ChatID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, toUserView(user))
}
