package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"civicsync/models"
)

// respondError writes err as an error envelope with the matching status.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status, apiErr := mapError(err)
	if status == http.StatusInternalServerError {
		logger.Error("unhandled error", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, models.ErrorEnvelope{Error: apiErr})
}

func mapError(err error) (int, models.APIError) {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, models.APIError{
			Code:    models.CodeValidation,
			Message: "Validation failed",
			Details: []models.FieldError{
				{Field: validationErr.Field, Message: validationErr.Message},
			},
		}
	}

	switch {
	case errors.Is(err, models.ErrInvalidStatus):
		return http.StatusBadRequest, models.APIError{
			Code:    models.CodeInvalidStatus,
			Message: "Status must be one of Reported, In Progress, Resolved",
		}
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest, models.APIError{
			Code:    models.CodeInvalidInput,
			Message: "The request body is invalid",
		}
	case errors.Is(err, models.ErrUnauthenticated):
		return http.StatusUnauthorized, models.APIError{
			Code:    models.CodeUnauthorized,
			Message: "Authentication is required",
		}
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusForbidden, models.APIError{
			Code:    models.CodeForbidden,
			Message: "You do not have permission to perform this action",
		}
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, models.APIError{
			Code:    models.CodeNotFound,
			Message: "The requested resource was not found",
		}
	case errors.Is(err, models.ErrAlreadyVoted):
		return http.StatusConflict, models.APIError{
			Code:    models.CodeAlreadyVoted,
			Message: "You have already upvoted this issue",
		}
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict, models.APIError{
			Code:    models.CodeConflict,
			Message: "The resource already exists",
		}
	default:
		return http.StatusInternalServerError, models.APIError{
			Code:    models.CodeInternal,
			Message: "An unexpected error occurred",
		}
	}
}

// bindJSON decodes the request body into obj and reports failures in the
// core error taxonomy.
func bindJSON(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		return models.AsValidationError(err)
	}
	return nil
}
