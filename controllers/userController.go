package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"civicsync/middlewares"
	"civicsync/models"
)

// GetMe returns the identity behind the caller's token.
func GetMe(c *gin.Context) {
	role, _ := c.Get(middlewares.RoleKey)
	r, _ := role.(models.Role)
	c.JSON(http.StatusOK, gin.H{
		"userId": middlewares.UserID(c),
		"role":   r,
	})
}
