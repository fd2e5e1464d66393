package handlers

import (
	"net/http"

	"github.com/dyslexiaaid/screening-service/internal/auth"
	"github.com/dyslexiaaid/screening-service/internal/services"
	"github.com/dyslexiaaid/screening-service/internal/session"
	"github.com/dyslexiaaid/screening-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// UserLoader loads the session's user into the request context. A session
// pointing at a user that no longer exists is cleared and the request
// continues as a guest.
func UserLoader(accounts services.AccountService, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := session.From(c)
		userID, ok := sess.UserID()
		if !ok {
			c.Next()
			return
		}

		user, err := accounts.GetUser(c.Request.Context(), userID)
		if err != nil {
			if !services.IsNotFound(err) {
				logger.LogError(err, "Failed to load session user", "user_id", userID)
			}
			sess.Clear()
			if err := sess.Save(); err != nil {
				logger.LogError(err, "Failed to clear stale session")
			}
			c.Next()
			return
		}

		setCurrentUser(c, user)
		c.Next()
	}
}

// AuthRequired rejects requests without a signed-in user.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "User not authenticated",
			})
			return
		}
		c.Next()
	}
}

// AdminRequired admits staff sessions and, when a verifier is configured,
// bearer tokens of identity-provider administrators.
func AdminRequired(verifier auth.TokenVerifier, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := CurrentUser(c); user != nil && user.IsStaff {
			c.Next()
			return
		}

		if token, ok := auth.BearerToken(c.GetHeader("Authorization")); ok && verifier != nil {
			principal, err := verifier.Verify(token)
			if err != nil {
				logger.Warn("Rejected admin bearer token", "error", err)
			} else if principal.IsAdmin {
				c.Set("admin_principal", principal.Owner+"/"+principal.Name)
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Message: services.ErrExportForbidden.Error(),
		})
	}
}
