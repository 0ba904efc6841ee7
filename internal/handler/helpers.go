package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"linkbook/invitehub/internal/handler/middleware"
	jwtpkg "linkbook/invitehub/pkg/jwt"
)

func getUserIDFromContext(c *gin.Context) (string, error) {
	claimsVal, exists := c.Get(middleware.ContextKeyUserClaims)
	if !exists {
		return "", ErrNoClaims
	}
	claims, ok := claimsVal.(*jwtpkg.Claims)
	if !ok || claims.Subject == "" {
		return "", ErrNoClaims
	}
	return claims.Subject, nil
}

var ErrNoClaims = errors.New("claims not found in context")
