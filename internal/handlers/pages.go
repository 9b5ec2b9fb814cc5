package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Category pages are a fixed set; anything else redirects home.
var categoryViews = map[string]string{
	"pwn":    "pwn.html",
	"web":    "web.html",
	"crypto": "crypto.html",
}

// GET / renders the home view with the current user (if any) and the leaderboard.
func (h *Handler) home(c *gin.Context) {
	top, err := h.services.Accounts.TopUsers(c.Request.Context())
	if err != nil {
		if h.log != nil {
			h.log.Errorw("top_users_failed", "err", err)
		}
		// Render the page without the leaderboard rather than failing it.
		top = nil
	}
	c.HTML(http.StatusOK, "index.html", gin.H{
		"CurrentUser": currentUser(c),
		"TopUsers":    top,
		"Registered":  c.Query("registration") == "success",
	})
}

// GET /users renders the directory ordered by creation date descending.
func (h *Handler) usersPage(c *gin.Context) {
	users, err := h.services.Accounts.AllUsers(c.Request.Context())
	if err != nil {
		if h.log != nil {
			h.log.Errorw("all_users_failed", "err", err)
		}
		c.HTML(http.StatusInternalServerError, "users.html", gin.H{
			"CurrentUser": currentUser(c),
			"Error":       msgGenericFailure,
		})
		return
	}
	c.HTML(http.StatusOK, "users.html", gin.H{
		"CurrentUser": currentUser(c),
		"Users":       users,
	})
}

// GET /category/:category
func (h *Handler) categoryPage(c *gin.Context) {
	category := strings.ToLower(c.Param("category"))
	view, ok := categoryViews[category]
	if !ok {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.HTML(http.StatusOK, view, gin.H{
		"CurrentUser": currentUser(c),
		"Category":    category,
	})
}
