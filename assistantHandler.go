package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mlovric/trosak/assistant"
	"github.com/mlovric/trosak/models"
	"github.com/mlovric/trosak/utils"
)

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

func assistantChatHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := utils.GetUserIdFromContext(c.Request.Context())

		var req chatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
			return
		}

		reply, err := assistant.Chat(c.Request.Context(), userID, req.Message)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "assistant is unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"reply": reply})
	}
}

func assistantHistoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := utils.GetUserIdFromContext(c.Request.Context())

		history, err := models.GetChatHistory(c.Request.Context(), userID, 50)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load chat history"})
			return
		}
		c.JSON(http.StatusOK, history)
	}
}

func assistantClearHistoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := utils.GetUserIdFromContext(c.Request.Context())

		if err := models.ClearChatHistory(c.Request.Context(), userID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not clear chat history"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
