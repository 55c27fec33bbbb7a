package controllers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"civicsync/middlewares"
	"civicsync/models"
	"civicsync/realtime"
)

// IssueRepository is the persistence the issue handlers need.
type IssueRepository interface {
	List(ctx context.Context, filter models.Filter) ([]models.Issue, error)
	Create(ctx context.Context, issue models.Issue) error
	AddUpvote(ctx context.Context, id, userID string) (models.Issue, error)
	SetStatus(ctx context.Context, id string, status models.IssueStatus) (models.Issue, error)
}

// StatusPublisher announces confirmed status changes to subscribers.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, ev realtime.StatusEvent) error
}

const keepAliveInterval = 15 * time.Second

type IssueController struct {
	issues    IssueRepository
	publisher StatusPublisher
	events    realtime.Provider
	logger    *slog.Logger

	now   func() time.Time
	newID func() string
}

func NewIssueController(issues IssueRepository, publisher StatusPublisher, events realtime.Provider, logger *slog.Logger) *IssueController {
	if logger == nil {
		logger = slog.Default()
	}
	return &IssueController{
		issues:    issues,
		publisher: publisher,
		events:    events,
		logger:    logger.With("component", "issues"),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return primitive.NewObjectID().Hex() },
	}
}

// ListIssues returns every issue, newest first. An optional ?status= limits
// the result to one status.
func (ic *IssueController) ListIssues(c *gin.Context) {
	filter, err := models.ParseFilter(c.DefaultQuery("status", string(models.FilterAll)))
	if err != nil {
		respondError(c, ic.logger, err)
		return
	}

	issues, err := ic.issues.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, ic.logger, err)
		return
	}

	c.JSON(http.StatusOK, issues)
}

type createIssueRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Lat         *float64 `json:"lat" binding:"required"`
	Lng         *float64 `json:"lng" binding:"required"`
	ImageURL    *string  `json:"imageUrl,omitempty"`
}

// CreateIssue stores a new report in status Reported.
func (ic *IssueController) CreateIssue(c *gin.Context) {
	var req createIssueRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, ic.logger, err)
		return
	}

	issue, err := models.NewIssue(ic.newID(), models.IssueInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    models.IssueCategory(req.Category),
		Lat:         *req.Lat,
		Lng:         *req.Lng,
		ImageURL:    req.ImageURL,
	}, ic.now())
	if err != nil {
		respondError(c, ic.logger, err)
		return
	}
	issue.CreatedBy = middlewares.UserID(c)

	if err := ic.issues.Create(c.Request.Context(), issue); err != nil {
		respondError(c, ic.logger, err)
		return
	}

	ic.logger.Info("issue created", "id", issue.ID, "category", issue.Category, "user_id", issue.CreatedBy)
	c.JSON(http.StatusCreated, issue)
}

// UpvoteIssue records the caller's vote. Each user votes once per issue.
func (ic *IssueController) UpvoteIssue(c *gin.Context) {
	id := c.Param("id")
	issue, err := ic.issues.AddUpvote(c.Request.Context(), id, middlewares.UserID(c))
	if err != nil {
		respondError(c, ic.logger, err)
		return
	}

	c.JSON(http.StatusOK, issue)
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateIssueStatus moves an issue to a new status and announces it on
// the status topic.
func (ic *IssueController) UpdateIssueStatus(c *gin.Context) {
	var req statusRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, ic.logger, err)
		return
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		respondError(c, ic.logger, err)
		return
	}

	issue, err := ic.issues.SetStatus(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		respondError(c, ic.logger, err)
		return
	}

	// The update is committed; subscribers that miss the event catch up
	// on their next full fetch.
	ev := realtime.StatusEvent{ID: issue.ID, Status: issue.Status}
	if err := ic.publisher.PublishStatus(c.Request.Context(), ev); err != nil {
		ic.logger.Error("publish status", "id", issue.ID, "status", issue.Status, "error", err)
	}

	ic.logger.Info("issue status updated", "id", issue.ID, "status", issue.Status, "user_id", middlewares.UserID(c))
	c.JSON(http.StatusOK, issue)
}

// StreamEvents relays status changes to the caller as server-sent events
// until the caller goes away.
func (ic *IssueController) StreamEvents(c *gin.Context) {
	ctx := c.Request.Context()
	sub, err := ic.events.Subscribe(ctx, realtime.TopicStatusUpdated)
	if err != nil {
		respondError(c, ic.logger, err)
		return
	}
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return false
			}
			c.SSEvent(realtime.TopicStatusUpdated, ev)
			return true
		case <-ticker.C:
			_, err := io.WriteString(w, ": keep-alive\n\n")
			return err == nil
		case <-ctx.Done():
			return false
		}
	})
}
