package middlewares

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"civicsync/models"
)

const issueLimitWindow = 24 * time.Hour

// RateCounter is the subset of the Redis client the limiter uses.
type RateCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// IssueRateLimiter allows each user at most limit requests per day. The
// counter lives under prefix:<user id> and expires a day after the first
// request. It must run after AuthMiddleware.
func IssueRateLimiter(counter RateCounter, prefix string, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := UserID(c)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				models.NewErrorEnvelope(models.CodeUnauthorized, "User not authenticated"))
			return
		}

		ctx := c.Request.Context()
		userKey := prefix + ":" + userID

		count, err := counter.Incr(ctx, userKey).Result()
		if err != nil {
			slog.Error("rate limiter increment", "key", userKey, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				models.NewErrorEnvelope(models.CodeInternal, "Something went wrong"))
			return
		}

		if count == 1 {
			if err := counter.Expire(ctx, userKey, issueLimitWindow).Err(); err != nil {
				slog.Error("rate limiter expiry", "key", userKey, "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					models.NewErrorEnvelope(models.CodeInternal, "Something went wrong"))
				return
			}
		}

		if count > int64(limit) {
			retryAfter, _ := counter.TTL(ctx, userKey).Result()
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				models.NewErrorEnvelope(models.CodeRateLimited, "Rate limit exceeded"))
			return
		}

		c.Next()
	}
}
