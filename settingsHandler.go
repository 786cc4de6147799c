package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mlovric/trosak/models"
	"github.com/mlovric/trosak/utils"
	"github.com/shopspring/decimal"
)

type billingCycleRequest struct {
	BillingCycleDay int    `json:"billingCycleDay" binding:"required,min=1,max=28"`
	PreferredView   string `json:"preferredView" binding:"omitempty,oneof=calendar billing"`
}

type savingsGoalRequest struct {
	SavingsGoal decimal.Decimal `json:"savingsGoal" binding:"required"`
}

type initialBalanceRequest struct {
	InitialBalance decimal.Decimal `json:"initialBalance" binding:"required"`
}

func getUserSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := utils.GetUserIdFromContext(c.Request.Context())

		settings, err := models.GetUserSettings(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load settings"})
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}

func updateBillingCycleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := utils.GetUserIdFromContext(c.Request.Context())

		var req billingCycleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "billingCycleDay must be between 1 and 28"})
			return
		}

		settings, err := models.UpdateBillingCycle(c.Request.Context(), userID, req.BillingCycleDay, req.PreferredView)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}

func updateSavingsGoalHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := utils.GetUserIdFromContext(c.Request.Context())

		var req savingsGoalRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.SavingsGoal.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "savingsGoal must be a non-negative number"})
			return
		}

		settings, err := models.UpdateSavingsGoal(c.Request.Context(), userID, req.SavingsGoal)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}

func updateInitialBalanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := utils.GetUserIdFromContext(c.Request.Context())

		var req initialBalanceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "initialBalance must be a number"})
			return
		}

		settings, err := models.UpdateInitialBalance(c.Request.Context(), userID, req.InitialBalance)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}
