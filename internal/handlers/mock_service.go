package handlers

import (
	"context"
	"ctfplatform"
	"sync"
	"time"

	"ctfplatform/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAccounts struct {
	registerFn       func(in service.RegisterInput) (*ctfplatform.User, error)
	authenticateFn   func(username, password string) (*ctfplatform.User, error)
	usernameExistsFn func(username string) (bool, error)
	emailExistsFn    func(email string) (bool, error)
	userByIDFn       func(id int) (*ctfplatform.User, error)
	allUsersFn       func() ([]ctfplatform.User, error)
	topUsersFn       func() ([]ctfplatform.User, error)
	deleteUserFn     func(id int) error
	addScoreFn       func(id, delta int) (*ctfplatform.User, error)

	registerCalls int
	lastRegister  service.RegisterInput
	deletedIDs    []int
}

func (m *mockAccounts) Register(_ context.Context, in service.RegisterInput) (*ctfplatform.User, error) {
	m.registerCalls++
	m.lastRegister = in
	if m.registerFn != nil {
		return m.registerFn(in)
	}
	return nil, nil
}

func (m *mockAccounts) Authenticate(_ context.Context, username, password string) (*ctfplatform.User, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(username, password)
	}
	return nil, nil
}

func (m *mockAccounts) UsernameExists(_ context.Context, username string) (bool, error) {
	if m.usernameExistsFn != nil {
		return m.usernameExistsFn(username)
	}
	return false, nil
}

func (m *mockAccounts) EmailExists(_ context.Context, email string) (bool, error) {
	if m.emailExistsFn != nil {
		return m.emailExistsFn(email)
	}
	return false, nil
}

func (m *mockAccounts) UserByID(_ context.Context, id int) (*ctfplatform.User, error) {
	if m.userByIDFn != nil {
		return m.userByIDFn(id)
	}
	return nil, nil
}

func (m *mockAccounts) AllUsers(_ context.Context) ([]ctfplatform.User, error) {
	if m.allUsersFn != nil {
		return m.allUsersFn()
	}
	return nil, nil
}

func (m *mockAccounts) TopUsers(_ context.Context) ([]ctfplatform.User, error) {
	if m.topUsersFn != nil {
		return m.topUsersFn()
	}
	return nil, nil
}

func (m *mockAccounts) DeleteUser(_ context.Context, id int) error {
	m.deletedIDs = append(m.deletedIDs, id)
	if m.deleteUserFn != nil {
		return m.deleteUserFn(id)
	}
	return nil
}

func (m *mockAccounts) AddScore(_ context.Context, id, delta int) (*ctfplatform.User, error) {
	if m.addScoreFn != nil {
		return m.addScoreFn(id, delta)
	}
	return nil, nil
}

type mockSessions struct {
	issueFn func(userID int) (string, error)
	parseFn func(token string) (int, error)

	lastIssuedID   int
	lastParseToken string
}

func (m *mockSessions) Issue(userID int) (string, error) {
	m.lastIssuedID = userID
	if m.issueFn != nil {
		return m.issueFn(userID)
	}
	return "tok123", nil
}

func (m *mockSessions) Parse(token string) (int, error) {
	m.lastParseToken = token
	if m.parseFn != nil {
		return m.parseFn(token)
	}
	return 0, service.ErrInvalidToken
}

func (m *mockSessions) TTL() time.Duration { return time.Hour }

type recordedEvent struct {
	Type     string
	Username string
}

type mockAudit struct {
	mu       sync.Mutex
	recorded []recordedEvent

	listFn func(f service.EventFilter) ([]ctfplatform.AuthEvent, error)
}

func (m *mockAudit) Record(_ context.Context, typ, username string, _ any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded = append(m.recorded, recordedEvent{Type: typ, Username: username})
	return nil
}

func (m *mockAudit) List(_ context.Context, f service.EventFilter) ([]ctfplatform.AuthEvent, error) {
	if m.listFn != nil {
		return m.listFn(f)
	}
	return nil, nil
}

func (m *mockAudit) events() []recordedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]recordedEvent(nil), m.recorded...)
}

// newTestRouter builds the full router over the given service bundle.
func newTestRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, nil)
	return h.InitRoutes()
}
