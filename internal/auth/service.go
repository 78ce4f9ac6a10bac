package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Audit action types the credential service emits.
const (
	AuditUserRegistered = "user.registered"
	AuditUserLogin      = "user.login"
	AuditLoginFailed    = "user.login_failed"
	AuditTokenRefreshed = "token.refreshed"
)

// dummyHash is compared against when login hits an unknown email so the
// missing-user and wrong-password paths cost the same.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Service orchestrates registration, login and token refresh. It is the
// only writer of user rows; uniqueness races are resolved by the
// storage layer's unique constraints.
type Service struct {
	store Store
	codec *Codec
	sink  AuditSink
	now   func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithAuditSink routes security events to the given sink.
func WithAuditSink(sink AuditSink) ServiceOption {
	return func(s *Service) { s.sink = sink }
}

// WithClock overrides the time source, for tests.
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the credential service.
func NewService(store Store, codec *Codec, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	if codec == nil {
		return nil, errors.New("auth: token codec is required")
	}
	s := &Service{store: store, codec: codec, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RegisterParams carries registration input. Username may be empty, in
// which case one is derived from the email.
type RegisterParams struct {
	Email    string
	Username string
	Password string
	RoleID   int64
}

// DeriveUsername builds a display username from an email address: the
// local part joined to the first domain label with an underscore, e.g.
// "a.b@example.com" becomes "a.b_example". Collisions are possible and
// surface as ErrDuplicateUsername.
func DeriveUsername(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return local
	}
	label, _, _ := strings.Cut(domain, ".")
	return local + "_" + label
}

// Register creates a new user account. The pre-checks on email and
// username are advisory; the storage unique constraint is authoritative
// and a race there maps to ErrRegistrationConflict.
func (s *Service) Register(ctx context.Context, p RegisterParams) (*User, error) {
	email := strings.TrimSpace(strings.ToLower(p.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if p.RoleID <= 0 {
		return nil, fmt.Errorf("%w: role_id is required", ErrInvalidInput)
	}
	if err := ValidatePassword(p.Password); err != nil {
		return nil, err
	}

	users := s.store.Users()
	exists, err := users.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	username := strings.TrimSpace(p.Username)
	if username == "" {
		username = DeriveUsername(email)
	}
	exists, err = users.UsernameExists(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateUsername
	}

	hash, err := HashPassword(p.Password)
	if err != nil {
		return nil, err
	}
	user := &User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		RoleID:       p.RoleID,
	}
	if err := users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrConflict) {
			// Concurrent registration won the race between our
			// pre-checks and the insert.
			return nil, ErrRegistrationConflict
		}
		return nil, err
	}

	s.audit(ctx, AuditUserRegistered, &user.ID, nil, "email="+email)
	return user, nil
}

// Login authenticates an email/password pair and issues a fresh token
// pair. Unknown email and wrong password produce the identical
// ErrInvalidCredentials outcome.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Burn a comparison anyway so response timing does not
			// reveal whether the account exists.
			CheckPassword(password, dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !CheckPassword(password, user.PasswordHash) {
		s.audit(ctx, AuditLoginFailed, &user.ID, nil, "")
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, AuditUserLogin, &user.ID, nil, "")
	return pair, nil
}

// Refresh redeems a refresh token for a new access+refresh pair. The
// user's CURRENT role is embedded, not the one active at login. All
// rejection reasons, including a deleted user, collapse to
// ErrInvalidToken.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != TokenTypeRefresh {
		return nil, ErrInvalidToken
	}
	subjectID, err := claims.SubjectID()
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.store.Users().FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, AuditTokenRefreshed, &user.ID, nil, "")
	return pair, nil
}

// issuePair signs one access token (with role) and one refresh token
// (without). Refresh tokens are not rotated or revoked on use; an old
// one stays valid until its own expiry. Known limitation of the
// stateless design.
func (s *Service) issuePair(user *User) (*TokenPair, error) {
	access, _, err := s.codec.IssueAccess(user.ID, user.RoleID)
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.codec.IssueRefresh(user.ID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    TokenTypeBearer,
	}, nil
}

func (s *Service) audit(ctx context.Context, actionType string, userID, entityID *int64, details string) {
	if s.sink == nil {
		return
	}
	_ = s.sink.Record(ctx, &AuditEntry{
		Timestamp:  s.now().UTC(),
		ActionType: actionType,
		UserID:     userID,
		EntityID:   entityID,
		Details:    details,
	})
}
