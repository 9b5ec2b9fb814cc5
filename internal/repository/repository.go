package repository

import (
	"context"
	"ctfplatform"
	"database/sql"
	"errors"
	"time"
)

// Sentinel errors surfaced by the user store when a UNIQUE constraint
// rejects an insert or update.
var (
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already taken")
)

type Users interface {
	Create(ctx context.Context, u *ctfplatform.User) error
	GetByID(ctx context.Context, id int) (*ctfplatform.User, error)
	GetByUsername(ctx context.Context, username string) (*ctfplatform.User, error)
	GetByEmail(ctx context.Context, email string) (*ctfplatform.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, u *ctfplatform.User) error
	Delete(ctx context.Context, id int) error
	ListByCreatedDesc(ctx context.Context) ([]ctfplatform.User, error)
	ListByScoreDesc(ctx context.Context) ([]ctfplatform.User, error)
}

type Events interface {
	Append(ctx context.Context, e ctfplatform.AuthEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]ctfplatform.AuthEvent, error)
}

type Repository struct {
	Users  Users
	Events Events
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Users:  NewUserSQLite(db),
		Events: NewEventSQLite(db),
	}
}
