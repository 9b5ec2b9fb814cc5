package service

import (
	"context"
	"ctfplatform"
	"errors"
	"sort"
	"testing"
	"time"

	"ctfplatform/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// fakeUsers is an in-memory repository.Users used to exercise the service
// against realistic store behavior, including uniqueness enforcement.
type fakeUsers struct {
	users     []ctfplatform.User
	nextID    int
	createErr error
}

var _ repository.Users = (*fakeUsers)(nil)

func (f *fakeUsers) Create(_ context.Context, u *ctfplatform.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, e := range f.users {
		if e.Username == u.Username {
			return repository.ErrUsernameTaken
		}
		if e.Email == u.Email {
			return repository.ErrEmailTaken
		}
	}
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now().UTC()
	f.users = append(f.users, *u)
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id int) (*ctfplatform.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			cp := u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*ctfplatform.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			cp := u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*ctfplatform.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	u, _ := f.GetByUsername(ctx, username)
	return u != nil, nil
}

func (f *fakeUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	u, _ := f.GetByEmail(ctx, email)
	return u != nil, nil
}

func (f *fakeUsers) Update(_ context.Context, u *ctfplatform.User) error {
	for i, e := range f.users {
		if e.ID == u.ID {
			created := f.users[i].CreatedAt
			f.users[i] = *u
			f.users[i].CreatedAt = created
			return nil
		}
	}
	return errors.New("no such user")
}

func (f *fakeUsers) Delete(_ context.Context, id int) error {
	for i, e := range f.users {
		if e.ID == id {
			f.users = append(f.users[:i], f.users[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeUsers) ListByCreatedDesc(_ context.Context) ([]ctfplatform.User, error) {
	out := append([]ctfplatform.User(nil), f.users...)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (f *fakeUsers) ListByScoreDesc(_ context.Context) ([]ctfplatform.User, error) {
	out := append([]ctfplatform.User(nil), f.users...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func newTestAccounts() (*AccountService, *fakeUsers) {
	fake := &fakeUsers{}
	return NewAccountService(fake, bcrypt.MinCost), fake
}

func validInput() RegisterInput {
	return RegisterInput{
		Username:        "alice",
		Password:        "hunter22",
		ConfirmPassword: "hunter22",
		Email:           "alice@example.com",
	}
}

func TestAccountService_RegisterNormalizesAndDefaults(t *testing.T) {
	svc, fake := newTestAccounts()

	in := validInput()
	in.Username = "  alice  "
	in.Email = "  Alice@Example.COM "

	u, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if u.ID == 0 {
		t.Errorf("expected assigned id, got 0")
	}
	if u.Username != "alice" {
		t.Errorf("expected trimmed username 'alice', got %q", u.Username)
	}
	if u.Email != "alice@example.com" {
		t.Errorf("expected normalized email, got %q", u.Email)
	}
	if u.Score != 0 {
		t.Errorf("expected score 0, got %d", u.Score)
	}
	if u.Role != ctfplatform.RoleUser {
		t.Errorf("expected role %q, got %q", ctfplatform.RoleUser, u.Role)
	}
	if u.PasswordHash == "" || u.PasswordHash == "hunter22" {
		t.Errorf("expected bcrypt hash, got %q", u.PasswordHash)
	}
	if len(fake.users) != 1 {
		t.Fatalf("expected 1 stored user, got %d", len(fake.users))
	}
	if fake.users[0].PasswordHash == "hunter22" {
		t.Errorf("plaintext password stored")
	}
}

func TestAccountService_RegisterThenAuthenticate(t *testing.T) {
	svc, _ := newTestAccounts()

	if _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	u, err := svc.Authenticate(context.Background(), "alice", "hunter22")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if u == nil {
		t.Fatalf("expected match for registered credentials")
	}
	if u.Username != "alice" {
		t.Errorf("expected alice, got %q", u.Username)
	}

	// Wrong password and unknown username look identical to the caller.
	if u, err := svc.Authenticate(context.Background(), "alice", "wrongpass"); err != nil || u != nil {
		t.Fatalf("wrong password: expected (nil, nil), got (%v, %v)", u, err)
	}
	if u, err := svc.Authenticate(context.Background(), "nobody", "hunter22"); err != nil || u != nil {
		t.Fatalf("unknown user: expected (nil, nil), got (%v, %v)", u, err)
	}
}

func TestAccountService_RegisterValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*RegisterInput)
		want   error
	}{
		{"empty username", func(in *RegisterInput) { in.Username = "   " }, ErrUsernameRequired},
		{"empty password", func(in *RegisterInput) { in.Password = "" }, ErrPasswordRequired},
		{"whitespace password", func(in *RegisterInput) { in.Password = "      " }, ErrPasswordRequired},
		{"empty email", func(in *RegisterInput) { in.Email = "" }, ErrEmailRequired},
		{"short username", func(in *RegisterInput) { in.Username = "ab" }, ErrUsernameTooShort},
		{"short cyrillic username", func(in *RegisterInput) { in.Username = "яб" }, ErrUsernameTooShort},
		{"short password", func(in *RegisterInput) { in.Password = "12345"; in.ConfirmPassword = "12345" }, ErrPasswordTooShort},
		{"short cyrillic password", func(in *RegisterInput) { in.Password = "парол"; in.ConfirmPassword = "парол" }, ErrPasswordTooShort},
		{"mismatch", func(in *RegisterInput) { in.ConfirmPassword = "different1" }, ErrPasswordMismatch},
		{"email no at", func(in *RegisterInput) { in.Email = "alice.example.com" }, ErrEmailInvalid},
		{"email no tld", func(in *RegisterInput) { in.Email = "alice@example" }, ErrEmailInvalid},
		{"email short tld", func(in *RegisterInput) { in.Email = "alice@example.c" }, ErrEmailInvalid},
		{"email with space", func(in *RegisterInput) { in.Email = "ali ce@example.com" }, ErrEmailInvalid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, fake := newTestAccounts()
			in := validInput()
			tc.mutate(&in)

			_, err := svc.Register(context.Background(), in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected a ValidationError, got %T", err)
			}
			if len(fake.users) != 0 {
				t.Fatalf("expected no stored users, got %d", len(fake.users))
			}
		})
	}
}

func TestAccountService_RegisterCountsCharacters(t *testing.T) {
	svc, fake := newTestAccounts()

	// 6 runes but 12 bytes; both fields clear the minimums.
	in := validInput()
	in.Username = "яблоко"
	in.Password = "пароль"
	in.ConfirmPassword = "пароль"

	u, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if u.Username != "яблоко" || len(fake.users) != 1 {
		t.Fatalf("expected stored cyrillic user, got %+v", u)
	}
	got, err := svc.Authenticate(context.Background(), "яблоко", "пароль")
	if err != nil || got == nil {
		t.Fatalf("Authenticate: user=%v err=%v", got, err)
	}
}

func TestAccountService_RegisterRejectsDuplicates(t *testing.T) {
	svc, _ := newTestAccounts()

	if _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("first Register returned error: %v", err)
	}

	// Same username, different email.
	in := validInput()
	in.Email = "other@example.com"
	if _, err := svc.Register(context.Background(), in); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	// Same email, different username. Case differences collapse.
	in = validInput()
	in.Username = "someoneelse"
	in.Email = "ALICE@Example.com"
	if _, err := svc.Register(context.Background(), in); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAccountService_RegisterMapsStoreConflicts(t *testing.T) {
	// The pre-checks pass but the store rejects the insert, as happens when
	// two registrations race. The sentinel must map to the same user-facing
	// validation error.
	fake := &fakeUsers{createErr: repository.ErrUsernameTaken}
	svc := NewAccountService(fake, bcrypt.MinCost)

	_, err := svc.Register(context.Background(), validInput())
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	fake.createErr = repository.ErrEmailTaken
	_, err = svc.Register(context.Background(), validInput())
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAccountService_ExistenceChecks(t *testing.T) {
	svc, _ := newTestAccounts()
	if _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if ok, _ := svc.UsernameExists(context.Background(), " alice "); !ok {
		t.Errorf("expected trimmed username to exist")
	}
	// Username uniqueness is case-sensitive.
	if ok, _ := svc.UsernameExists(context.Background(), "Alice"); ok {
		t.Errorf("expected case-sensitive username check to miss")
	}
	// Email check is case-insensitive.
	if ok, _ := svc.EmailExists(context.Background(), "ALICE@EXAMPLE.COM"); !ok {
		t.Errorf("expected case-insensitive email check to hit")
	}
	if ok, _ := svc.EmailExists(context.Background(), "bob@example.com"); ok {
		t.Errorf("expected unknown email to miss")
	}
}

func TestAccountService_TopUsersOrder(t *testing.T) {
	svc, fake := newTestAccounts()
	fake.users = []ctfplatform.User{
		{ID: 1, Username: "low", Score: 50},
		{ID: 2, Username: "high", Score: 100},
		{ID: 3, Username: "tied", Score: 50},
	}

	top, err := svc.TopUsers(context.Background())
	if err != nil {
		t.Fatalf("TopUsers returned error: %v", err)
	}
	got := []string{top[0].Username, top[1].Username, top[2].Username}
	want := []string{"high", "low", "tied"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch: got %v, want %v", got, want)
		}
	}
}

func TestAccountService_AddScore(t *testing.T) {
	svc, fake := newTestAccounts()
	fake.users = []ctfplatform.User{{ID: 1, Username: "alice", Score: 30}}

	u, err := svc.AddScore(context.Background(), 1, 70)
	if err != nil {
		t.Fatalf("AddScore returned error: %v", err)
	}
	if u.Score != 100 {
		t.Errorf("expected score 100, got %d", u.Score)
	}
	if fake.users[0].Score != 100 {
		t.Errorf("expected persisted score 100, got %d", fake.users[0].Score)
	}

	if _, err := svc.AddScore(context.Background(), 1, -200); !errors.Is(err, ErrScoreNegative) {
		t.Fatalf("expected ErrScoreNegative, got %v", err)
	}
	if fake.users[0].Score != 100 {
		t.Errorf("rejected delta must not change the score, got %d", fake.users[0].Score)
	}
}
