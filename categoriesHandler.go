package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mlovric/trosak/models"
	"github.com/mlovric/trosak/utils"
)

func listCategoriesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := utils.GetUserIdFromContext(c.Request.Context())

		typeFilter := models.TransactionType(c.Query("type"))
		if typeFilter != "" && !typeFilter.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid type filter"})
			return
		}

		categories, err := models.GetCategories(c.Request.Context(), userID, typeFilter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load categories"})
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}

func createCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := utils.GetUserIdFromContext(c.Request.Context())

		var input models.NewCategory
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		category, err := models.CreateCategory(c.Request.Context(), userID, &input)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusCreated, category)
	}
}

func updateCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := utils.GetUserIdFromContext(c.Request.Context())

		var input models.NewCategory
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		category, err := models.UpdateCategory(c.Request.Context(), userID, c.Param("id"), &input)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, category)
	}
}

func deleteCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := utils.GetUserIdFromContext(c.Request.Context())

		if err := models.DeleteCategory(c.Request.Context(), userID, c.Param("id")); err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
