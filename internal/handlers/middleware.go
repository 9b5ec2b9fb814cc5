package handlers

import (
	"ctfplatform"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	sessionCookie  = "ctf_session"
	currentUserKey = "currentUser"
)

// currentUserMiddleware resolves the session cookie to a user and stores it
// in the request context. Guests (no cookie, bad token, deleted user) pass
// through with no user set.
func (h *Handler) currentUserMiddleware(c *gin.Context) {
	token, err := c.Cookie(sessionCookie)
	if err != nil || token == "" {
		c.Next()
		return
	}

	userID, err := h.services.Sessions.Parse(token)
	if err != nil {
		// Stale or tampered cookie; treat as guest.
		c.Next()
		return
	}

	u, err := h.services.Accounts.UserByID(c.Request.Context(), userID)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("session_user_lookup_failed", "user_id", userID, "err", err)
		}
		c.Next()
		return
	}
	if u != nil {
		c.Set(currentUserKey, u)
	}
	c.Next()
}

// currentUser returns the authenticated user for this request, or nil.
func currentUser(c *gin.Context) *ctfplatform.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	u, ok := v.(*ctfplatform.User)
	if !ok {
		return nil
	}
	return u
}

// requireAdmin guards the admin API. Runs after currentUserMiddleware.
func (h *Handler) requireAdmin(c *gin.Context) {
	u := currentUser(c)
	if u == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "authentication required",
		})
		return
	}
	if !u.IsAdmin() {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "admin role required",
		})
		return
	}
	c.Next()
}
