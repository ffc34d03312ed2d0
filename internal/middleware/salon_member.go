package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SalonIDKey is the context key holding the verified salon ID
const SalonIDKey = "salon_id"

// MembershipChecker reports whether a user belongs to a salon
type MembershipChecker interface {
	IsMember(ctx context.Context, userID, salonID int64) (bool, error)
}

// RequireSalonMember checks that the caller belongs to the salon named by
// the :param path parameter. Must be used after AuthMiddleware.
func RequireSalonMember(members MembershipChecker, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userCtx, exists := GetUserContext(c)
		if !exists {
			abortUnauthorized(c, "unauthorized", "User context not found", "MISSING_USER_CONTEXT")
			return
		}

		salonID, err := strconv.ParseInt(c.Param(param), 10, 64)
		if err != nil || salonID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_id",
				"message": "Invalid salon ID",
				"code":    "INVALID_SALON_ID",
			})
			c.Abort()
			return
		}

		member, err := members.IsMember(c.Request.Context(), userCtx.UserID, salonID)
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"user_id":  userCtx.UserID,
				"salon_id": salonID,
			}).Error("Failed to verify salon membership")
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "database_error",
				"message": "Failed to verify salon membership",
			})
			c.Abort()
			return
		}

		if !member {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "not_salon_member",
				"message": "You are not a member of this salon",
				"code":    "NOT_SALON_MEMBER",
			})
			c.Abort()
			return
		}

		c.Set(SalonIDKey, salonID)
		c.Next()
	}
}

// GetSalonID returns the salon ID verified by RequireSalonMember
func GetSalonID(c *gin.Context) (int64, bool) {
	value, exists := c.Get(SalonIDKey)
	if !exists {
		return 0, false
	}
	id, ok := value.(int64)
	return id, ok
}
