package routes

import (
	"github.com/gin-gonic/gin"

	"civicsync/controllers"
	"civicsync/middlewares"
)

// AuthRoutes sets up the authentication routes
func AuthRoutes(r *gin.Engine, ac *controllers.AuthController, secret string) {
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", ac.RegisterUser)
		auth.POST("/login", ac.LoginUser)
		auth.GET("/me", middlewares.AuthMiddleware(secret), controllers.GetMe)
	}
}
