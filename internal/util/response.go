package util

import "github.com/gin-gonic/gin"

// Error writes the uniform error body {"error": "<message>"} with the
// given HTTP status.
func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}
