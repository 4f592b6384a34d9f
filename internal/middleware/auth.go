package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	iauth "github.com/rotaiq/rotaiq/internal/auth"
	"github.com/rotaiq/rotaiq/internal/authz"
	"github.com/rotaiq/rotaiq/internal/models"
	"github.com/rotaiq/rotaiq/pkg/errors"
	"github.com/rotaiq/rotaiq/pkg/response"
)

const (
	CtxClaimsKey = "authClaims"
	CtxUserKey   = "authUser"
	CtxActorKey  = "authActor"
)

// Auth enforces JWT authentication and resolves the token into a live user
// row. Deactivated accounts are rejected even while their token is valid;
// scope decisions always run against current branch membership, not the
// snapshot baked into the token.
func Auth(jwt *iauth.JWTService, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if len(header) < 8 || !strings.EqualFold(header[:7], "Bearer ") {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		token := strings.TrimSpace(header[7:])
		claims, err := jwt.ValidateAccessToken(token)
		if err != nil {
			// Normalise all validation failures to 401
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		var user models.User
		err = db.WithContext(c.Request.Context()).
			Preload("Branch").
			First(&user, "id = ?", claims.UserID).Error
		if err != nil || !user.IsActive {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserKey, &user)
		c.Set(CtxActorKey, authz.ActorFromUser(&user))

		c.Next()
	}
}
