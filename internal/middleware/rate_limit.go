package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/dsbeauty/salon-backend/internal/utils"
)

// NewRateLimiter builds an in-memory limiter from a "<limit>-<period>"
// rate such as "30-M"
func NewRateLimiter(formatted string) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}
	return limiter.New(memory.NewStore(), rate), nil
}

// RateLimit throttles requests per authenticated user, or per client IP
// for anonymous requests. prefix keeps separate route groups apart.
func RateLimit(instance *limiter.Limiter, prefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := prefix + ":ip:" + utils.GetRealIP(c)
		if userCtx, ok := GetUserContext(c); ok {
			key = prefix + ":user:" + strconv.FormatInt(userCtx.UserID, 10)
		}

		limit, err := instance.Get(c.Request.Context(), key)
		if err != nil {
			logrus.WithError(err).WithField("key", key).Error("Rate limiter failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(limit.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(limit.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(limit.Reset, 10))

		if limit.Reached {
			logrus.WithField("key", key).Warn("Rate limit exceeded")
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limited",
				"message": "Too many requests. Please try again later.",
				"code":    "RATE_LIMITED",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
