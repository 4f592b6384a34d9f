package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rotaiq/rotaiq/pkg/errors"
	"github.com/rotaiq/rotaiq/pkg/response"
)

// Health returns a readiness payload backed by a database ping.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(requestContext(c))
		}
		if err != nil {
			response.Error(c, errors.New("UNHEALTHY", "Database unreachable", http.StatusServiceUnavailable))
			return
		}

		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	}
}
