package routes

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"civicsync/controllers"
	"civicsync/middlewares"
	"civicsync/models"
)

// Dependencies is everything the router hands to handlers and middleware.
type Dependencies struct {
	Auth   *controllers.AuthController
	Issues *controllers.IssueController

	JWTSecret       string
	RateCounter     middlewares.RateCounter
	IssueLimitQueue string
	IssueRateLimit  int
	FrontendURL     string
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := models.RegisterValidations(v); err != nil {
			return nil, fmt.Errorf("register validations: %w", err)
		}
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{deps.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Accept", "Content-Type", "Authorization", controllers.AdminInviteHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	AuthRoutes(r, deps.Auth, deps.JWTSecret)
	IssueRoutes(r, deps.Issues, deps.JWTSecret,
		middlewares.IssueRateLimiter(deps.RateCounter, deps.IssueLimitQueue, deps.IssueRateLimit))

	return r, nil
}
