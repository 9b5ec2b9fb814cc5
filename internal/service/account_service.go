package service

import (
	"context"
	"ctfplatform"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"ctfplatform/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// ValidationError carries a message safe to show to the user. Handlers
// re-render the form with it; anything else is surfaced generically.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// Validation failures surfaced by Register and AddScore.
var (
	ErrUsernameRequired = &ValidationError{"username is required"}
	ErrPasswordRequired = &ValidationError{"password is required"}
	ErrEmailRequired    = &ValidationError{"email is required"}
	ErrUsernameTooShort = &ValidationError{"username must be at least 3 characters"}
	ErrPasswordTooShort = &ValidationError{"password must be at least 6 characters"}
	ErrPasswordMismatch = &ValidationError{"passwords do not match"}
	ErrEmailInvalid     = &ValidationError{"invalid email format"}
	ErrUsernameTaken    = &ValidationError{"username is already taken"}
	ErrEmailTaken       = &ValidationError{"email is already in use"}
	ErrScoreNegative    = &ValidationError{"score cannot go below zero"}
)

const (
	minUsernameLen = 3
	minPasswordLen = 6
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// RegisterInput is the raw registration form. The service owns all
// validation, including the password/confirm match.
type RegisterInput struct {
	Username        string
	Password        string
	ConfirmPassword string
	Email           string
}

// AccountService handles the user account lifecycle.
type AccountService struct {
	users repository.Users
	cost  int

	// dummyHash is compared against when the username is unknown so both
	// authentication failure paths pay the same bcrypt cost.
	dummyHash string
}

func NewAccountService(users repository.Users, bcryptCost int) *AccountService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("timing-equalization-pad"), bcryptCost)
	if err != nil {
		// Only possible with an out-of-range cost; fall back to the default.
		bcryptCost = bcrypt.DefaultCost
		dummy, _ = bcrypt.GenerateFromPassword([]byte("timing-equalization-pad"), bcryptCost)
	}
	return &AccountService{users: users, cost: bcryptCost, dummyHash: string(dummy)}
}

var _ Accounts = (*AccountService)(nil)

// Register validates and normalizes the input, enforces uniqueness, hashes
// the password and persists the new account with score 0 and role USER.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*ctfplatform.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if username == "" {
		return nil, ErrUsernameRequired
	}
	if strings.TrimSpace(in.Password) == "" {
		return nil, ErrPasswordRequired
	}
	if email == "" {
		return nil, ErrEmailRequired
	}
	// Length limits count characters, not bytes; Cyrillic input is common.
	if utf8.RuneCountInString(username) < minUsernameLen {
		return nil, ErrUsernameTooShort
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLen {
		return nil, ErrPasswordTooShort
	}
	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if !emailPattern.MatchString(email) {
		return nil, ErrEmailInvalid
	}

	// Pre-checks give a friendly error in the common case; the UNIQUE
	// constraints in the store settle concurrent registrations.
	if taken, err := s.users.ExistsByUsername(ctx, username); err != nil {
		return nil, fmt.Errorf("check username %q: %w", username, err)
	} else if taken {
		return nil, ErrUsernameTaken
	}
	if taken, err := s.users.ExistsByEmail(ctx, email); err != nil {
		return nil, fmt.Errorf("check email %q: %w", email, err)
	} else if taken {
		return nil, ErrEmailTaken
	}

	hash, err := hashPassword(in.Password, s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &ctfplatform.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Score:        0,
		Role:         ctfplatform.RoleUser,
	}
	if err := s.users.Create(ctx, u); err != nil {
		switch {
		case errors.Is(err, repository.ErrUsernameTaken):
			return nil, ErrUsernameTaken
		case errors.Is(err, repository.ErrEmailTaken):
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user %q: %w", username, err)
	}
	return u, nil
}

// Authenticate returns the user whose stored hash verifies against the
// supplied password, or (nil, nil) for unknown username or wrong password.
// The two failure cases are indistinguishable and cost the same.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*ctfplatform.User, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, fmt.Errorf("lookup user %q: %w", username, err)
	}
	if u == nil {
		// Burn a comparison so an unknown username is not faster to probe.
		_ = verifyPassword(s.dummyHash, password)
		return nil, nil
	}
	if err := verifyPassword(u.PasswordHash, password); err != nil {
		return nil, nil
	}
	return u, nil
}

// UsernameExists is case-sensitive; usernames are stored as registered.
func (s *AccountService) UsernameExists(ctx context.Context, username string) (bool, error) {
	return s.users.ExistsByUsername(ctx, strings.TrimSpace(username))
}

// EmailExists lower-cases the input to match storage normalization.
func (s *AccountService) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.users.ExistsByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *AccountService) UserByID(ctx context.Context, id int) (*ctfplatform.User, error) {
	return s.users.GetByID(ctx, id)
}

// AllUsers returns every account, newest first.
func (s *AccountService) AllUsers(ctx context.Context) ([]ctfplatform.User, error) {
	return s.users.ListByCreatedDesc(ctx)
}

// TopUsers returns every account by descending score, id ascending on ties.
func (s *AccountService) TopUsers(ctx context.Context) ([]ctfplatform.User, error) {
	return s.users.ListByScoreDesc(ctx)
}

func (s *AccountService) DeleteUser(ctx context.Context, id int) error {
	return s.users.Delete(ctx, id)
}

// AddScore adjusts a user's score by delta, refusing results below zero.
func (s *AccountService) AddScore(ctx context.Context, id, delta int) (*ctfplatform.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user id=%d: %w", id, err)
	}
	if u == nil {
		return nil, fmt.Errorf("add score: no user with id=%d", id)
	}
	if u.Score+delta < 0 {
		return nil, ErrScoreNegative
	}
	u.Score += delta
	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update score for user id=%d: %w", id, err)
	}
	return u, nil
}

// helper: hash password with the configured cost
func hashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// helper: verify password against hash
func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
