package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mlovric/trosak/models"
	"github.com/mlovric/trosak/utils"
)

func balanceStatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := utils.GetUserIdFromContext(c.Request.Context())

		from, to, err := dateRangeFromQuery(c, userID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		stats, err := models.GetBalanceStats(c.Request.Context(), userID, from, to)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load balance stats"})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func categoryStatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := utils.GetUserIdFromContext(c.Request.Context())

		from, to, err := dateRangeFromQuery(c, userID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		stats, err := models.GetCategoryStats(c.Request.Context(), userID, from, to)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load category stats"})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func historyPeriodsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := utils.GetUserIdFromContext(c.Request.Context())

		years, err := models.GetHistoryPeriods(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load history periods"})
			return
		}
		c.JSON(http.StatusOK, years)
	}
}

// historyDataHandler serves the chart series: per-day points for
// timeframe=month, per-month points for timeframe=year.
func historyDataHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := utils.GetUserIdFromContext(c.Request.Context())

		timeframe := c.DefaultQuery("timeframe", "month")
		year, err := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(time.Now().Year())))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
			return
		}

		switch timeframe {
		case "month":
			month, err := strconv.Atoi(c.DefaultQuery("month", strconv.Itoa(int(time.Now().Month()))))
			if err != nil || month < 1 || month > 12 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
				return
			}
			points, err := models.GetMonthHistoryData(c.Request.Context(), userID, year, month)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load history data"})
				return
			}
			c.JSON(http.StatusOK, points)

		case "year":
			points, err := models.GetYearHistoryData(c.Request.Context(), userID, year)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load history data"})
				return
			}
			c.JSON(http.StatusOK, points)

		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "timeframe must be month or year"})
		}
	}
}
