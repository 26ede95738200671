package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskdesk/internal/apperror"
	"taskdesk/internal/domain"
	"taskdesk/internal/service"
)

// AuthHandler mantiene dependencias para los endpoints de autenticación.
type AuthHandler struct {
	logger *zap.Logger
	users  *service.UserService
	tokens *service.TokenService
}

// NewAuthHandler crea una instancia de AuthHandler con sus dependencias.
func NewAuthHandler(logger *zap.Logger, users *service.UserService, tokens *service.TokenService) *AuthHandler {
	return &AuthHandler{
		logger: logger,
		users:  users,
		tokens: tokens,
	}
}

type authResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        domain.User `json:"user"`
}

// Signup maneja POST /auth/signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		Name     string `json:"name"`
	}
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	user, err := h.users.Signup(c.Request.Context(), service.SignupInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.Name,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		respondError(c, h.logger, apperror.Internal())
		return
	}

	c.JSON(http.StatusCreated, authResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	})
}

// Signin maneja POST /auth/signin.
func (h *AuthHandler) Signin(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		respondError(c, h.logger, apperror.Internal())
		return
	}

	c.JSON(http.StatusOK, authResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	})
}

// Me maneja GET /auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	subject, ok := Subject(c)
	if !ok {
		respondError(c, h.logger, apperror.MissingToken())
		return
	}

	user, err := h.users.GetProfile(c.Request.Context(), subject)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
