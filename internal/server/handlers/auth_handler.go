package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/service/auth"
)

// AuthService is the session surface used by the auth endpoints.
type AuthService interface {
	Authenticator
	SignIn(ctx context.Context, email, password string) (auth.Session, error)
	SignOut(ctx context.Context, token string) error
}

// AuthHandler serves sign-in, sign-out and the current profile.
type AuthHandler struct {
	svc    AuthService
	logger *zap.Logger
}

// NewAuthHandler constructs the HTTP handler adapter.
func NewAuthHandler(svc AuthService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{svc: svc, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login exchanges email and password for a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	session, err := h.svc.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// Logout revokes the caller's token.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.svc.SignOut(c.Request.Context(), c.GetString(tokenKey)); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me returns the caller's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, CurrentUser(c))
}
