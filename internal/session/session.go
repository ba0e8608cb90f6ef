package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stemsi/candidate-portal/internal/model"
)

// Scope selects where a token is kept.
type Scope string

const (
	// ScopeDurable survives restarts ("remember me").
	ScopeDurable Scope = "durable"
	// ScopeTab lives only as long as the process.
	ScopeTab Scope = "tab"
)

var ErrNoSession = errors.New("no active session")

// Claims are the token claims the portal reads. They are decoded without
// signature verification and only drive routing; the backend enforces access.
type Claims struct {
	Role        model.Role `json:"role"`
	Email       string     `json:"email"`
	CandidateID string     `json:"candidateId,omitempty"`
	jwt.RegisteredClaims
}

// Session is the single source of the bearer token. Every Set and Clear
// bumps a generation counter so callers can drop results of requests that
// started under a previous session.
type Session struct {
	mu      sync.RWMutex
	durable Backend
	tab     Backend
	gen     uint64
	now     func() time.Time
}

func New(durable, tab Backend) *Session {
	return &Session{durable: durable, tab: tab, now: time.Now}
}

// Token returns the stored token, durable scope first.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range []Backend{s.durable, s.tab} {
		if t, err := b.Load(); err == nil && t != "" {
			return t
		}
	}
	return ""
}

// Set stores token in the chosen scope and clears the other one.
func (s *Session) Set(token string, scope Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keep, drop := s.durable, s.tab
	if scope == ScopeTab {
		keep, drop = s.tab, s.durable
	}
	if err := drop.Delete(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	if err := keep.Save(token); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	s.gen++
	return nil
}

// Clear removes the token from both scopes.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return errors.Join(s.durable.Delete(), s.tab.Delete())
}

// Generation identifies the current session instance.
func (s *Session) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// Claims decodes the stored token.
func (s *Session) Claims() (*Claims, error) {
	token := s.Token()
	if token == "" {
		return nil, ErrNoSession
	}
	return ParseClaims(token)
}

// ParseClaims decodes claims without verifying the signature.
func ParseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return claims, nil
}

// IsAuthenticated reports whether a token is stored and not known to be
// expired. Undecodable tokens still count; the backend will reject them.
func (s *Session) IsAuthenticated() bool {
	token := s.Token()
	if token == "" {
		return false
	}
	claims, err := ParseClaims(token)
	if err != nil || claims.ExpiresAt == nil {
		return true
	}
	return claims.ExpiresAt.After(s.now())
}

// HasRole reports whether the session belongs to the given role.
func (s *Session) HasRole(role model.Role) bool {
	if !s.IsAuthenticated() {
		return false
	}
	claims, err := s.Claims()
	if err != nil {
		return false
	}
	return claims.Role == role
}

// Landing returns the route a user lands on after login.
func (s *Session) Landing() string {
	switch {
	case !s.IsAuthenticated():
		return "/login"
	case s.HasRole(model.RoleAdmin):
		return "/"
	case s.HasRole(model.RoleUser):
		return "/exam-dashboard"
	default:
		return "/login"
	}
}
