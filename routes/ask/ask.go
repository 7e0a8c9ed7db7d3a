package ask

import (
	"HisbahChat/controllers"
	"HisbahChat/middleware"

	"github.com/gin-gonic/gin"
)

// Register registers the AI proxy endpoint. It is public (no auth) to stay
// compatible with deployed dashboard clients, but rate limited.
func Register(r *gin.Engine) {
	r.POST("/api/ask", middleware.RateLimit(), controllers.Ask())
}
