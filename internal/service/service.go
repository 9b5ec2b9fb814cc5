package service

import (
	"context"
	"ctfplatform"
	"time"

	"ctfplatform/internal/repository"
)

// Accounts covers the user account lifecycle: registration, credential
// verification, existence checks and the ordered listings backing the
// directory and leaderboard views.
type Accounts interface {
	Register(ctx context.Context, in RegisterInput) (*ctfplatform.User, error)
	Authenticate(ctx context.Context, username, password string) (*ctfplatform.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UserByID(ctx context.Context, id int) (*ctfplatform.User, error)
	AllUsers(ctx context.Context) ([]ctfplatform.User, error)
	TopUsers(ctx context.Context) ([]ctfplatform.User, error)
	DeleteUser(ctx context.Context, id int) error
	AddScore(ctx context.Context, id, delta int) (*ctfplatform.User, error)
}

// Sessions issues and parses the signed tokens carried in the session cookie.
type Sessions interface {
	Issue(userID int) (string, error)
	Parse(token string) (int, error)
	TTL() time.Duration
}

// AuditLog exposes append-only auth events with filtering access.
type AuditLog interface {
	Record(ctx context.Context, typ, username string, meta any) error
	List(ctx context.Context, f EventFilter) ([]ctfplatform.AuthEvent, error)
}

// Config carries the knobs the services read from the application config.
type Config struct {
	BcryptCost int
	SigningKey string
	SessionTTL time.Duration
}

//
// Root Service aggregates all sub-services.
//

type Service struct {
	Accounts
	Sessions
	AuditLog
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, cfg Config) *Service {
	return &Service{
		Accounts: NewAccountService(repos.Users, cfg.BcryptCost),
		Sessions: NewSessionService(cfg.SigningKey, cfg.SessionTTL),
		AuditLog: NewAuditLogService(repos.Events),
	}
}
