package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/rotaiq/rotaiq/internal/authz"
	"github.com/rotaiq/rotaiq/internal/middleware"
	"github.com/rotaiq/rotaiq/internal/models"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentActor returns the authorization actor resolved by the auth middleware.
func currentActor(c *gin.Context) (authz.Actor, bool) {
	value, exists := c.Get(middleware.CtxActorKey)
	if !exists {
		return authz.Actor{}, false
	}
	actor, ok := value.(authz.Actor)
	return actor, ok
}

// currentUser returns the authenticated user row loaded by the auth middleware.
func currentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(middleware.CtxUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}
