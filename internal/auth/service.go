// Package auth implements the passwordless login state machine: single-use
// magic-link tokens, KV-resident sessions, and admin invitations. Token and
// session expiry is enforced by the KV store's TTLs, never by polling.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"openspaces/api/internal/kv"
	"openspaces/api/internal/rbac"
	"openspaces/api/internal/store"
	"openspaces/api/internal/util"
)

const (
	tokenKeyPrefix   = "token:"
	sessionKeyPrefix = "session:"
)

var (
	// ErrInvalidToken covers both unknown and expired tokens; callers must
	// not be able to tell the two apart.
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrDuplicateUser = errors.New("user already exists")
	ErrInvalidRole   = errors.New("invalid role")
)

// Identity is the resolved caller of a request. The zero value is anonymous.
type Identity struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Anonymous reports whether the identity resolved to no session.
func (i Identity) Anonymous() bool {
	return i.Email == ""
}

type tokenRecord struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type sessionRecord struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UserStore is the relational surface the auth flow needs.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	InsertUser(ctx context.Context, user store.User) error
}

// Sender delivers transactional mail. Implemented by email.Service.
type Sender interface {
	IsConfigured() bool
	SendMagicLinkEmail(to, link string) error
	SendInviteEmail(to, inviterEmail, role, link string) error
}

type Config struct {
	BaseURL        string
	LoginTokenTTL  time.Duration
	InviteTokenTTL time.Duration
	SessionTTL     time.Duration
}

type Service struct {
	cfg    Config
	users  UserStore
	kv     *kv.Store
	mailer Sender
}

func NewService(cfg Config, users UserStore, kvStore *kv.Store, mailer Sender) *Service {
	return &Service{cfg: cfg, users: users, kv: kvStore, mailer: mailer}
}

// Session describes a freshly verified login, for cookie issuance.
type Session struct {
	ID    string
	Email string
	Role  string
	TTL   time.Duration
}

// RequestLogin issues a magic-link token for a known email. Unknown emails
// succeed identically so callers can never probe for account existence.
// The token is durably stored before delivery is attempted; delivery runs
// asynchronously and its outcome never reaches the caller.
func (s *Service) RequestLogin(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		log.Printf("login requested for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}

	token := util.NewID("")
	record := tokenRecord{Email: user.Email, Role: user.Role}
	if err := s.kv.SetJSON(ctx, tokenKeyPrefix+token, record, s.cfg.LoginTokenTTL); err != nil {
		return fmt.Errorf("store login token: %w", err)
	}

	link := s.verifyLink(token)
	go s.deliverMagicLink(user.Email, link)
	return nil
}

func (s *Service) deliverMagicLink(email, link string) {
	if !s.mailer.IsConfigured() {
		log.Printf("email not configured, magic link for %s: %s", email, link)
		return
	}
	if err := s.mailer.SendMagicLinkEmail(email, link); err != nil {
		// Logged only: delivery state must not leak to the login caller.
		log.Printf("magic link delivery failed for %s: %v", email, err)
	}
}

func (s *Service) verifyLink(token string) string {
	return strings.TrimRight(s.cfg.BaseURL, "/") + "/verify-login?token=" + url.QueryEscape(token)
}

// Verify consumes a magic-link token and promotes it to a session. The
// token is deleted before the session is written, so a replayed link can
// never mint a second session.
func (s *Service) Verify(ctx context.Context, token string) (Session, error) {
	var record tokenRecord
	err := s.kv.GetJSON(ctx, tokenKeyPrefix+token, &record)
	if errors.Is(err, kv.ErrNotFound) {
		return Session{}, ErrInvalidToken
	}
	if err != nil {
		return Session{}, fmt.Errorf("lookup token: %w", err)
	}

	if err := s.kv.Delete(ctx, tokenKeyPrefix+token); err != nil {
		return Session{}, fmt.Errorf("consume token: %w", err)
	}

	sessionID := util.NewID("")
	session := sessionRecord{Email: record.Email, Role: record.Role}
	if err := s.kv.SetJSON(ctx, sessionKeyPrefix+sessionID, session, s.cfg.SessionTTL); err != nil {
		return Session{}, fmt.Errorf("store session: %w", err)
	}

	return Session{ID: sessionID, Email: record.Email, Role: record.Role, TTL: s.cfg.SessionTTL}, nil
}

// ResolveSession maps a session id to an identity. Absent, expired, or
// empty ids resolve to the anonymous identity without error; anonymous
// access is valid for public endpoints.
func (s *Service) ResolveSession(ctx context.Context, sessionID string) (Identity, error) {
	if sessionID == "" {
		return Identity{}, nil
	}
	var record sessionRecord
	err := s.kv.GetJSON(ctx, sessionKeyPrefix+sessionID, &record)
	if errors.Is(err, kv.ErrNotFound) {
		return Identity{}, nil
	}
	if err != nil {
		return Identity{}, fmt.Errorf("lookup session: %w", err)
	}
	return Identity{Email: record.Email, Role: record.Role}, nil
}

// Logout deletes the session if present; it is idempotent.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.kv.Delete(ctx, sessionKeyPrefix+sessionID)
}

// InviteResult reports the partial-failure contract: the user row survives
// a failed invitation email so the admin can retry delivery out of band.
type InviteResult struct {
	User           store.User
	EmailDelivered bool
}

// Invite creates a privileged user and sends a 7-day invitation link.
// User creation is never rolled back when delivery fails.
func (s *Service) Invite(ctx context.Context, email, role string, inviter Identity) (InviteResult, error) {
	if !rbac.Valid(role) {
		return InviteResult{}, ErrInvalidRole
	}

	_, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		return InviteResult{}, ErrDuplicateUser
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return InviteResult{}, fmt.Errorf("lookup user: %w", err)
	}

	user := store.User{
		ID:        util.NewID("usr"),
		Email:     email,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.InsertUser(ctx, user); err != nil {
		return InviteResult{}, fmt.Errorf("insert user: %w", err)
	}

	token := util.NewID("")
	record := tokenRecord{Email: email, Role: role}
	if err := s.kv.SetJSON(ctx, tokenKeyPrefix+token, record, s.cfg.InviteTokenTTL); err != nil {
		return InviteResult{}, fmt.Errorf("store invite token: %w", err)
	}

	link := s.verifyLink(token)
	if !s.mailer.IsConfigured() {
		log.Printf("email not configured, invite link for %s: %s", email, link)
		return InviteResult{User: user, EmailDelivered: false}, nil
	}
	if err := s.mailer.SendInviteEmail(email, inviter.Email, role, link); err != nil {
		log.Printf("invitation delivery failed for %s: %v", email, err)
		return InviteResult{User: user, EmailDelivered: false}, nil
	}
	return InviteResult{User: user, EmailDelivered: true}, nil
}

// Bootstrap seeds the initial admin account from configuration. It is a
// no-op when no seed email is set or the account already exists.
func (s *Service) Bootstrap(ctx context.Context, seedEmail string) error {
	if seedEmail == "" {
		return nil
	}
	_, err := s.users.GetUserByEmail(ctx, seedEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lookup seed admin: %w", err)
	}

	user := store.User{
		ID:        util.NewID("usr"),
		Email:     seedEmail,
		Role:      string(rbac.RoleAdmin),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.InsertUser(ctx, user); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	log.Printf("seeded admin user %s", seedEmail)
	return nil
}
