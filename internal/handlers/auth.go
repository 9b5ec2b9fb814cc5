package handlers

import (
	"ctfplatform"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"ctfplatform/internal/service"

	"github.com/gin-gonic/gin"
)

// User-facing messages for the auth forms.
const (
	msgBadCredentials = "Invalid username or password"
	msgGenericFailure = "Something went wrong, please try again"
)

// renderAuth re-renders the login/registration form with an optional error.
func (h *Handler) renderAuth(c *gin.Context, isLogin bool, errMsg, username string) {
	c.HTML(http.StatusOK, "auth.html", gin.H{
		"IsLogin":     isLogin,
		"Error":       errMsg,
		"Username":    username,
		"CurrentUser": currentUser(c),
	})
}

// setSession issues a token for the user and stores it in the session cookie.
func (h *Handler) setSession(c *gin.Context, u *ctfplatform.User) error {
	token, err := h.services.Sessions.Issue(u.ID)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, int(h.services.Sessions.TTL().Seconds()), "/", "", false, true)
	return nil
}

// recordEvent appends an audit event; failures are logged, never surfaced.
func (h *Handler) recordEvent(c *gin.Context, typ, username string) {
	if err := h.services.AuditLog.Record(c.Request.Context(), typ, username, nil); err != nil {
		if h.log != nil {
			h.log.Errorw("audit_record_failed", "type", typ, "username", username, "err", err)
		}
	}
}

// GET /auth serves the login form by default, registration form with ?register=1,
// error banner with ?error=1.
func (h *Handler) authPage(c *gin.Context) {
	isLogin := c.Query("register") == ""
	errMsg := ""
	if c.Query("error") != "" {
		errMsg = msgBadCredentials
	}
	h.renderAuth(c, isLogin, errMsg, "")
}

// POST /login
func (h *Handler) login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	if username == "" {
		h.renderAuth(c, true, "Username is required", "")
		return
	}
	if password == "" {
		h.renderAuth(c, true, "Password is required", username)
		return
	}

	u, err := h.services.Accounts.Authenticate(c.Request.Context(), username, password)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("login_failed", "username", username, "err", err)
		}
		h.renderAuth(c, true, msgGenericFailure, username)
		return
	}
	if u == nil {
		h.recordEvent(c, ctfplatform.EventLoginFailed, username)
		h.renderAuth(c, true, msgBadCredentials, username)
		return
	}

	if err := h.setSession(c, u); err != nil {
		if h.log != nil {
			h.log.Errorw("session_issue_failed", "username", username, "err", err)
		}
		h.renderAuth(c, true, msgGenericFailure, username)
		return
	}
	h.recordEvent(c, ctfplatform.EventLogin, u.Username)
	c.Redirect(http.StatusFound, "/")
}

// POST /register. All field validation lives in the account service; the
// handler only picks the view for the outcome.
func (h *Handler) register(c *gin.Context) {
	in := service.RegisterInput{
		Username:        c.PostForm("username"),
		Password:        c.PostForm("password"),
		ConfirmPassword: c.PostForm("confirmPassword"),
		Email:           c.PostForm("email"),
	}

	u, err := h.services.Accounts.Register(c.Request.Context(), in)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			h.renderAuth(c, false, capitalize(verr.Error()), in.Username)
			return
		}
		if h.log != nil {
			h.log.Errorw("register_failed", "username", in.Username, "err", err)
		}
		h.renderAuth(c, false, msgGenericFailure, in.Username)
		return
	}

	h.recordEvent(c, ctfplatform.EventRegister, u.Username)

	// Auto-login after registration.
	if err := h.setSession(c, u); err != nil {
		if h.log != nil {
			h.log.Errorw("session_issue_failed", "username", u.Username, "err", err)
		}
		c.Redirect(http.StatusFound, "/auth")
		return
	}
	c.Redirect(http.StatusFound, "/?registration=success")
}

// GET /logout
func (h *Handler) logout(c *gin.Context) {
	if u := currentUser(c); u != nil {
		h.recordEvent(c, ctfplatform.EventLogout, u.Username)
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}

// GET /check-username answers literal invalid/exists/available for the AJAX
// validation on the registration form.
func (h *Handler) checkUsername(c *gin.Context) {
	username := strings.TrimSpace(c.Query("username"))
	if utf8.RuneCountInString(username) < 3 {
		c.String(http.StatusOK, "invalid")
		return
	}
	exists, err := h.services.Accounts.UsernameExists(c.Request.Context(), username)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("check_username_failed", "username", username, "err", err)
		}
		c.String(http.StatusInternalServerError, "invalid")
		return
	}
	if exists {
		c.String(http.StatusOK, "exists")
		return
	}
	c.String(http.StatusOK, "available")
}

// GET /check-email, case-insensitive.
func (h *Handler) checkEmail(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		c.String(http.StatusOK, "invalid")
		return
	}
	exists, err := h.services.Accounts.EmailExists(c.Request.Context(), email)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("check_email_failed", "err", err)
		}
		c.String(http.StatusInternalServerError, "invalid")
		return
	}
	if exists {
		c.String(http.StatusOK, "exists")
		return
	}
	c.String(http.StatusOK, "available")
}

// capitalize upper-cases the first byte for display in the error banner.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
