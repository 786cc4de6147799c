package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mlovric/trosak/config"
	"github.com/mlovric/trosak/models"
	"github.com/mlovric/trosak/utils"
)

// importStatementHandler accepts a multipart upload under the "file" field
// and feeds it through the statement importer. File-level problems come
// back as 400 with an error message; row-level problems only show up in
// the skip count.
func importStatementHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := utils.GetUserIdFromContext(c.Request.Context())

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			config.LogError(config.GetLogger(), "importHandler.go", "importStatementHandler", "fileHeader.Open", fileHeader.Filename, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
			return
		}
		defer file.Close()

		result, err := models.ImportStatement(c.Request.Context(), userID, file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"imported": result.Imported,
			"skipped":  result.Skipped,
			"message":  result.Message,
		})
	}
}
