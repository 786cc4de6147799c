package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mlovric/trosak/models"
	"github.com/mlovric/trosak/utils"
)

type layoutRequest struct {
	CardOrder []string `json:"cardOrder" binding:"required"`
	Collapsed []string `json:"collapsed"`
}

func getDashboardLayoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := utils.GetUserIdFromContext(c.Request.Context())

		layout, err := models.GetDashboardLayout(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load layout"})
			return
		}
		c.JSON(http.StatusOK, layout)
	}
}

func saveDashboardLayoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := utils.GetUserIdFromContext(c.Request.Context())

		var req layoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		layout, err := models.SaveDashboardLayout(c.Request.Context(), userID, req.CardOrder, req.Collapsed)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save layout"})
			return
		}
		c.JSON(http.StatusOK, layout)
	}
}
