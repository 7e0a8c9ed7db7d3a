package controllers

import (
	"net/http"
	"strings"

	svc "HisbahChat/pkg/services"

	"github.com/gin-gonic/gin"
)

// Ask is the LLM proxy endpoint. It forwards one stateless user turn to the
// upstream chat-completion API under a fixed system instruction and returns
// {reply} on success or {error} with a 500 on any upstream failure. The
// endpoint is deliberately left unauthenticated to stay wire-compatible with
// the deployed dashboard clients.
func Ask() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Message string `json:"message"`
			Lang    string `json:"lang"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Message) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
			return
		}

		ai := svc.NewOpenAIService()
		reply, err := ai.Complete(c.Request.Context(), svc.SystemInstruction(body.Lang), body.Message)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to contact AI service"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"reply": reply})
	}
}
