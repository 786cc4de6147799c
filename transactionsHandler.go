package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mlovric/trosak/models"
	"github.com/mlovric/trosak/utils"
)

// parseDateParam accepts both date-only and RFC3339 query values.
func parseDateParam(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// dateRangeFromQuery resolves the from/to query pair, defaulting to the
// user's current billing period when absent.
func dateRangeFromQuery(c *gin.Context, userID string) (time.Time, time.Time, error) {
	fromParam := c.Query("from")
	toParam := c.Query("to")
	if fromParam == "" && toParam == "" {
		settings, err := models.GetUserSettings(c.Request.Context(), userID)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		period := models.GetBillingPeriod(settings.BillingCycleDay, time.Now())
		return period.From, period.To, nil
	}

	from, err := parseDateParam(fromParam)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid from date")
	}
	to, err := parseDateParam(toParam)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid to date")
	}
	return from, to, nil
}

func listTransactionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := utils.GetUserIdFromContext(c.Request.Context())

		from, to, err := dateRangeFromQuery(c, userID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		transactions, err := models.GetTransactions(c.Request.Context(), userID, from, to)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load transactions"})
			return
		}
		c.JSON(http.StatusOK, transactions)
	}
}

func createTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := utils.GetUserIdFromContext(c.Request.Context())

		var input models.NewTransaction
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		txn, err := models.CreateTransaction(c.Request.Context(), userID, &input)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusCreated, txn)
	}
}

func updateTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := utils.GetUserIdFromContext(c.Request.Context())

		var input models.NewTransaction
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		txn, err := models.UpdateTransaction(c.Request.Context(), userID, c.Param("id"), &input)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, txn)
	}
}

func deleteTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := utils.GetUserIdFromContext(c.Request.Context())

		if err := models.DeleteTransaction(c.Request.Context(), userID, c.Param("id")); err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// writeModelError maps model sentinels onto HTTP statuses.
func writeModelError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, utils.ErrorUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, utils.ErrorCategoryInUse):
		c.JSON(http.StatusConflict, gin.H{"error": "category has transactions"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
