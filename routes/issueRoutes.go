package routes

import (
	"github.com/gin-gonic/gin"

	"civicsync/controllers"
	"civicsync/middlewares"
)

// IssueRoutes sets up the issue routes. Reads are public; writes need a
// token and status changes need the admin role.
func IssueRoutes(r *gin.Engine, ic *controllers.IssueController, secret string, limiter gin.HandlerFunc) {
	auth := middlewares.AuthMiddleware(secret)

	issue := r.Group("/api/issues")
	{
		issue.GET("", ic.ListIssues)
		issue.GET("/events", ic.StreamEvents)
		issue.POST("", auth, limiter, ic.CreateIssue)
		issue.PUT("/:id/upvote", auth, ic.UpvoteIssue)
		issue.PUT("/:id/status", auth, middlewares.RequireAdmin(), ic.UpdateIssueStatus)
	}
}
