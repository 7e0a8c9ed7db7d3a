package uploads

import (
	"github.com/gin-gonic/gin"
)

// Register serves stored attachments; upload paths are room-namespaced under
// this tree.
func Register(r *gin.Engine) {
	r.Static("/uploads", "./uploads")
}
