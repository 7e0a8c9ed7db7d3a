package controllers

import (
	"net/http"
	"strconv"

	"HisbahChat/middleware"
	"HisbahChat/models"
	"HisbahChat/pkg/relay"
	tokenstore "HisbahChat/pkg/token"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// currentSession resolves the authenticated user's chat session. A valid
// token without a matching user row is fatal for the session: the token is
// revoked and the client is told to register again. Returns false after
// writing the response.
func currentSession(c *gin.Context, db *gorm.DB) (*relay.Session, bool) {
	uidRaw, _ := c.Get(middleware.ContextUserIDKey)
	uidStr, _ := uidRaw.(string)
	uid, _ := strconv.Atoi(uidStr)

	var user models.User
	if err := db.First(&user, uid).Error; err != nil {
		if jtiRaw, ok := c.Get(middleware.ContextJTIKey); ok {
			if jti, ok2 := jtiRaw.(string); ok2 {
				tokenstore.RevokeToken(jti)
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "Account not found, please register again"})
		return nil, false
	}

	return &relay.Session{
		UserID: strconv.Itoa(int(user.ID)),
		Name:   user.DisplayName(),
		Role:   user.Role,
	}, true
}
