package authkit

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// VerifyAccountMessage consumes a verification token from the double-opt-in
// email.
type VerifyAccountMessage struct {
	Token      string `json:"token"`
	OnResponse func(*VerifyAccountResponse)
}

func (e VerifyAccountMessage) Type() string { return "auth.verify_account" }

// VerifyAccountResponse reports the verification outcome. Found is false
// for tokens that were never issued, already consumed, or expired; those
// cases are one user-visible outcome.
type VerifyAccountResponse struct {
	Found bool  `json:"found"`
	User  *User `json:"user,omitempty"`
}

// VerifyAccountHandler promotes a pending registration into a permanent
// account.
type VerifyAccountHandler struct {
	repo   RepositoryManager
	logger Logger
}

// VerifyAccountOption customizes handler construction.
type VerifyAccountOption func(*VerifyAccountHandler)

// WithVerifyAccountLogger overrides the handler's logger.
func WithVerifyAccountLogger(logger Logger) VerifyAccountOption {
	return func(h *VerifyAccountHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewVerifyAccountHandler builds the verification workflow.
func NewVerifyAccountHandler(repo RepositoryManager, opts ...VerifyAccountOption) *VerifyAccountHandler {
	h := &VerifyAccountHandler{
		repo:   repo,
		logger: defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

func (h *VerifyAccountHandler) Execute(ctx context.Context, event VerifyAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during account verification")
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyAccountHandler) execute(ctx context.Context, event VerifyAccountMessage) error {
	resp := &VerifyAccountResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var pendingID int64
	conflicted := false

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := h.repo.PendingRegistrations().FindByTokenTx(ctx, tx, event.Token)
		if err != nil {
			// An unknown or expired token is part of the expected flow,
			// not an application error.
			if goerrors.IsNotFound(err) {
				resp.Found = false
				return nil
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve pending registration")
		}

		resp.Found = true
		pendingID = record.ID

		user, err := h.repo.Users().CreateTx(ctx, tx, &User{
			Name:         record.Name,
			Email:        record.Email,
			PasswordSalt: record.PasswordSalt,
			PasswordHash: record.PasswordHash,
			Permissions:  PermissionsReadOnly,
		})
		if err != nil {
			if IsConflict(err) {
				conflicted = true
				return err
			}
			// Any other failure keeps the staging row so the user can
			// retry verification.
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to promote pending registration")
		}

		resp.User = user

		if _, err := h.repo.PendingRegistrations().DeleteTx(ctx, tx, record.ID); err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		if conflicted {
			// The slot was taken by a concurrent registration; the staging
			// row is unrecoverable.
			if _, derr := h.repo.PendingRegistrations().Delete(ctx, pendingID); derr != nil {
				h.logger.Warn("failed to remove conflicted registration", "error", derr)
			}
			return withMeta(ErrDuplicateIdentity, map[string]any{
				"token": event.Token,
			})
		}

		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to execute account verification")
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
