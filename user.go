package ctfplatform

import "time"

// Roles assigned to accounts. New registrations always get RoleUser.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Auth event types recorded in the audit log.
const (
	EventRegister    = "REGISTER"
	EventLogin       = "LOGIN"
	EventLoginFailed = "LOGIN_FAILED"
	EventLogout      = "LOGOUT"
)

// User is a registered account. Username is unique case-sensitive; Email is
// stored trimmed and lower-cased and is unique as stored.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // don’t expose hash
	Score        int       `json:"score"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin reports whether the user may call the admin API.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// AuthEvent is a single audit log entry for an account lifecycle action.
type AuthEvent struct {
	EventID    string    `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Type       string    `json:"type"` // REGISTER | LOGIN | LOGIN_FAILED | LOGOUT
	Username   string    `json:"username"`
	Metadata   any       `json:"metadata,omitempty"`
}
