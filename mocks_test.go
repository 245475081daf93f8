package authkit_test

import (
	"context"
	"sync"

	authkit "github.com/quorik/go-authkit"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockUsers implements authkit.Users
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) Create(ctx context.Context, record *authkit.User) (*authkit.User, error) {
	args := m.Called(ctx, record)
	if u := args.Get(0); u != nil {
		return u.(*authkit.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *authkit.User) (*authkit.User, error) {
	args := m.Called(ctx, tx, record)
	if u := args.Get(0); u != nil {
		return u.(*authkit.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) GetByID(ctx context.Context, id int64) (*authkit.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*authkit.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) GetByName(ctx context.Context, name string) (*authkit.User, error) {
	args := m.Called(ctx, name)
	if u := args.Get(0); u != nil {
		return u.(*authkit.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*authkit.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*authkit.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) List(ctx context.Context, capability ...authkit.Permissions) ([]*authkit.User, error) {
	args := m.Called(ctx, capability)
	if u := args.Get(0); u != nil {
		return u.([]*authkit.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) UpdatePermissions(ctx context.Context, id int64, mask authkit.Permissions) (bool, error) {
	args := m.Called(ctx, id, mask)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsers) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockIdentityProvider implements authkit.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier authkit.Identifier, password string) (*authkit.User, error) {
	args := m.Called(ctx, identifier, password)
	if u := args.Get(0); u != nil {
		return u.(*authkit.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// sentMail is one captured outbound message.
type sentMail struct {
	To      []string
	Subject string
	Body    string
}

// recordingMailer captures messages and signals each delivery, so tests can
// wait for the asynchronous send without sleeping.
type recordingMailer struct {
	mu        sync.Mutex
	messages  []sentMail
	delivered chan sentMail
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{delivered: make(chan sentMail, 8)}
}

func (r *recordingMailer) Send(to []string, subject, htmlBody string) error {
	msg := sentMail{To: to, Subject: subject, Body: htmlBody}
	r.mu.Lock()
	r.messages = append(r.messages, msg)
	r.mu.Unlock()
	r.delivered <- msg
	return nil
}

// failingMailer always reports a delivery failure.
type failingMailer struct {
	err       error
	delivered chan struct{}
}

func (f *failingMailer) Send(to []string, subject, htmlBody string) error {
	if f.delivered != nil {
		f.delivered <- struct{}{}
	}
	return f.err
}

// nopLogger silences the handlers under test.
type nopLogger struct{}

func (nopLogger) Debug(format string, args ...any) {}
func (nopLogger) Info(format string, args ...any)  {}
func (nopLogger) Warn(format string, args ...any)  {}
func (nopLogger) Error(format string, args ...any) {}
