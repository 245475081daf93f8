package authkit

import (
	"context"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// SignupMessage carries a new registration request.
type SignupMessage struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (e SignupMessage) Type() string { return "auth.signup" }

// Validate applies the user-correctable shape rules. Each violation names
// the offending field.
func (e SignupMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(
			&e.Username,
			validation.Required,
			validation.Length(1, 15),
			validation.Match(usernamePattern).Error("must contain only letters, digits, '_', '.', or '-'"),
		),
		validation.Field(&e.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(12, 128)),
	)
}

// SignupHandler stages a new registration and mails the verification token.
type SignupHandler struct {
	repo   RepositoryManager
	mailer Mailer
	cfg    Config
	logger Logger
}

// SignupOption customizes handler construction.
type SignupOption func(*SignupHandler)

// WithSignupLogger overrides the handler's logger.
func WithSignupLogger(logger Logger) SignupOption {
	return func(h *SignupHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewSignupHandler builds the signup workflow. The mailer may be a
// NoopMailer when no relay is configured.
func NewSignupHandler(repo RepositoryManager, mailer Mailer, cfg Config, opts ...SignupOption) *SignupHandler {
	h := &SignupHandler{
		repo:   repo,
		mailer: mailer,
		cfg:    cfg.WithDefaults(),
		logger: defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

func (h *SignupHandler) Execute(ctx context.Context, event SignupMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during signup")
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignupHandler) execute(ctx context.Context, event SignupMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid signup payload")
	}

	email := NormalizeEmail(event.Email)

	// Expired staging rows would otherwise trip the uniqueness constraints
	// on pending_registrations(name) and (email).
	if _, err := h.repo.PendingRegistrations().DeleteExpired(ctx); err != nil {
		h.logger.Warn("expired-registration sweep failed", "error", err)
	}

	if err := h.rejectDuplicates(ctx, email, event.Username); err != nil {
		return err
	}

	saltHex, hashHex, err := hashCredentials(event.Password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	record := &PendingRegistration{
		Name:         event.Username,
		Email:        email,
		PasswordSalt: saltHex,
		PasswordHash: hashHex,
		Token:        uuid.NewString(),
	}

	if record, err = h.repo.PendingRegistrations().Create(ctx, record); err != nil {
		return err
	}

	// The existence check and the insert are not atomic across concurrent
	// requests, so re-validate against the permanent table before
	// confirming. A row that appeared in between wins the slot.
	if err := h.revalidate(ctx, record); err != nil {
		return err
	}

	// Delivery runs off the response path; a failed send is logged, never
	// surfaced, and never rolls back the staged registration.
	go h.sendVerificationEmail(record)

	return nil
}

func (h *SignupHandler) rejectDuplicates(ctx context.Context, email, username string) error {
	if _, err := h.repo.Users().GetByName(ctx, username); err == nil {
		return withMeta(ErrDuplicateIdentity, map[string]any{"name": username})
	} else if !goerrors.IsNotFound(err) {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check username")
	}

	if _, err := h.repo.Users().GetByEmail(ctx, email); err == nil {
		return withMeta(ErrDuplicateIdentity, map[string]any{"email": email})
	} else if !goerrors.IsNotFound(err) {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email")
	}

	exists, err := h.repo.PendingRegistrations().ExistsActive(ctx, email, username)
	if err != nil {
		return err
	}
	if exists {
		return withMeta(ErrDuplicateIdentity, map[string]any{"email": email, "name": username})
	}

	return nil
}

func (h *SignupHandler) revalidate(ctx context.Context, record *PendingRegistration) error {
	for _, lookup := range []func() (*User, error){
		func() (*User, error) { return h.repo.Users().GetByName(ctx, record.Name) },
		func() (*User, error) { return h.repo.Users().GetByEmail(ctx, record.Email) },
	} {
		_, err := lookup()
		if err == nil {
			if _, derr := h.repo.PendingRegistrations().Delete(ctx, record.ID); derr != nil {
				h.logger.Warn("failed to remove conflicted registration", "error", derr)
			}
			return withMeta(ErrDuplicateIdentity, map[string]any{
				"name":  record.Name,
				"email": record.Email,
			})
		}
		if !goerrors.IsNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to re-validate registration")
		}
	}

	return nil
}

func (h *SignupHandler) sendVerificationEmail(record *PendingRegistration) {
	subject, body := verificationEmail(h.cfg, record.Name, record.Token)
	if err := h.mailer.Send([]string{record.Email}, subject, body); err != nil {
		h.logger.Error("verification email delivery failed", "email", record.Email, "error", err)
	}
}
