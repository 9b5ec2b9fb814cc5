package repository

import (
	"context"
	"ctfplatform"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

type UserSQLite struct {
	db *sql.DB
}

func NewUserSQLite(db *sql.DB) *UserSQLite {
	return &UserSQLite{db: db}
}

// Ensure implementation of Users interface at compile time.
var _ Users = (*UserSQLite)(nil)

const (
	insertUserSQL = `INSERT INTO users (username, email, password_hash, score, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	selectUserByIDSQL       = `SELECT id, username, email, password_hash, score, role, created_at FROM users WHERE id = ?`
	selectUserByUsernameSQL = `SELECT id, username, email, password_hash, score, role, created_at FROM users WHERE username = ?`
	selectUserByEmailSQL    = `SELECT id, username, email, password_hash, score, role, created_at FROM users WHERE email = ?`
	existsByUsernameSQL     = `SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`
	existsByEmailSQL        = `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`
	updateUserSQL           = `UPDATE users SET username = ?, email = ?, password_hash = ?, score = ?, role = ? WHERE id = ?`
	deleteUserSQL           = `DELETE FROM users WHERE id = ?`
	listByCreatedSQL        = `SELECT id, username, email, password_hash, score, role, created_at FROM users ORDER BY created_at DESC, id DESC`
	listByScoreSQL          = `SELECT id, username, email, password_hash, score, role, created_at FROM users ORDER BY score DESC, id ASC`

	sqliteTimeFormat = "2006-01-02 15:04:05"
)

// mapUniqueViolation translates SQLite UNIQUE failures into sentinel errors.
// modernc reports them as "UNIQUE constraint failed: users.<column>".
func mapUniqueViolation(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "users.username"):
		return ErrUsernameTaken
	case strings.Contains(msg, "users.email"):
		return ErrEmailTaken
	default:
		return err
	}
}

// Create inserts a new user, assigning ID and CreatedAt. A UNIQUE violation
// comes back as ErrUsernameTaken or ErrEmailTaken.
func (r *UserSQLite) Create(ctx context.Context, u *ctfplatform.User) error {
	createdAt := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, insertUserSQL,
		u.Username, u.Email, u.PasswordHash, u.Score, u.Role,
		createdAt.Format(sqliteTimeFormat),
	)
	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("insert user %q: %w", u.Username, err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id for user %q: %w", u.Username, err)
	}
	u.ID = int(lastID)
	u.CreatedAt = createdAt
	return nil
}

func (r *UserSQLite) scanUser(row *sql.Row) (*ctfplatform.User, error) {
	var u ctfplatform.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Score, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

// GetByID fetches a user by id. Returns (nil, nil) if not found.
func (r *UserSQLite) GetByID(ctx context.Context, id int) (*ctfplatform.User, error) {
	u, err := r.scanUser(r.db.QueryRowContext(ctx, selectUserByIDSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user id=%d: %w", id, err)
	}
	return u, nil
}

// GetByUsername fetches a user by username. Returns (nil, nil) if not found.
func (r *UserSQLite) GetByUsername(ctx context.Context, username string) (*ctfplatform.User, error) {
	u, err := r.scanUser(r.db.QueryRowContext(ctx, selectUserByUsernameSQL, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user %q: %w", username, err)
	}
	return u, nil
}

// GetByEmail fetches a user by email as stored (callers normalize first).
// Returns (nil, nil) if not found.
func (r *UserSQLite) GetByEmail(ctx context.Context, email string) (*ctfplatform.User, error) {
	u, err := r.scanUser(r.db.QueryRowContext(ctx, selectUserByEmailSQL, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user by email %q: %w", email, err)
	}
	return u, nil
}

func (r *UserSQLite) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, existsByUsernameSQL, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists by username %q: %w", username, err)
	}
	return exists, nil
}

func (r *UserSQLite) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, existsByEmailSQL, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists by email %q: %w", email, err)
	}
	return exists, nil
}

// Update rewrites all mutable columns of the row identified by u.ID.
// CreatedAt is immutable and never touched.
func (r *UserSQLite) Update(ctx context.Context, u *ctfplatform.User) error {
	res, err := r.db.ExecContext(ctx, updateUserSQL,
		u.Username, u.Email, u.PasswordHash, u.Score, u.Role, u.ID,
	)
	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("update user id=%d: %w", u.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for user id=%d: %w", u.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update user id=%d: no such user", u.ID)
	}
	return nil
}

func (r *UserSQLite) Delete(ctx context.Context, id int) error {
	if _, err := r.db.ExecContext(ctx, deleteUserSQL, id); err != nil {
		return fmt.Errorf("delete user id=%d: %w", id, err)
	}
	return nil
}

func (r *UserSQLite) list(ctx context.Context, query string) ([]ctfplatform.User, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ctfplatform.User, 0, 64)
	for rows.Next() {
		var u ctfplatform.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Score, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.CreatedAt = u.CreatedAt.UTC()
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByCreatedDesc returns all users newest first, id breaking ties for
// rows created within the same second.
func (r *UserSQLite) ListByCreatedDesc(ctx context.Context) ([]ctfplatform.User, error) {
	users, err := r.list(ctx, listByCreatedSQL)
	if err != nil {
		return nil, fmt.Errorf("list users by created_at: %w", err)
	}
	return users, nil
}

// ListByScoreDesc returns all users by descending score, ascending id on ties.
func (r *UserSQLite) ListByScoreDesc(ctx context.Context) ([]ctfplatform.User, error) {
	users, err := r.list(ctx, listByScoreSQL)
	if err != nil {
		return nil, fmt.Errorf("list users by score: %w", err)
	}
	return users, nil
}
