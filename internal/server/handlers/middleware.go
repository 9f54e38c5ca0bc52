package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/service/auth"
	"github.com/mamadbah2/stockroom/internal/service/commands"
	"github.com/mamadbah2/stockroom/internal/service/stock"
)

const (
	profileKey = "stockroom.profile"
	tokenKey   = "stockroom.token"
)

// Authenticator resolves bearer tokens to profiles.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.UserProfile, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the caller's profile on the
// context. The token may also come from the access_token query parameter, which EventSource
// clients need because they cannot set headers.
func RequireAuth(authn Authenticator, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		profile, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidToken) {
				logger.Error("authentication failed", zap.Error(err))
			}
			abortWithError(c, err)
			return
		}

		c.Set(profileKey, profile)
		c.Set(tokenKey, token)
		c.Next()
	}
}

// RequireAdmin lets only admins through. It must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentUser(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the profile stored by RequireAuth.
func CurrentUser(c *gin.Context) models.UserProfile {
	if v, ok := c.Get(profileKey); ok {
		if profile, ok := v.(models.UserProfile); ok {
			return profile
		}
	}
	return models.UserProfile{}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return c.Query("access_token")
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, stock.ErrInvalidItem), errors.Is(err, commands.ErrInvalidArguments):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, stock.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, stock.ErrNotFound):
		return http.StatusNotFound, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func abortWithError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
