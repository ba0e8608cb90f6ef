package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/candidate-portal/internal/model"
	"github.com/stemsi/candidate-portal/internal/session"
	"github.com/stemsi/candidate-portal/internal/validator"
)

var ErrTokenMissing = errors.New("login succeeded but no token was returned")

// Backend is the slice of the gateway the auth flows need.
type Backend interface {
	Register(ctx context.Context, req model.RegisterRequest) error
	Login(ctx context.Context, email, password string, role model.Role) (string, error)
	Logout(ctx context.Context) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
}

// Service implements the register, login, logout and password flows.
type Service struct {
	backend Backend
	session *session.Session
	log     zerolog.Logger
}

func NewService(backend Backend, sess *session.Session, log zerolog.Logger) *Service {
	return &Service{
		backend: backend,
		session: sess,
		log:     log.With().Str("component", "auth").Logger(),
	}
}

// Register creates an account.
func (s *Service) Register(ctx context.Context, req model.RegisterRequest) error {
	if err := validator.Check(req); err != nil {
		return err
	}
	if err := s.backend.Register(ctx, req); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	s.log.Info().Str("email", req.Email).Msg("Account registered")
	return nil
}

// Login authenticates and stores the token, durable when Remember is set.
// It returns the landing route for the new session.
func (s *Service) Login(ctx context.Context, req model.LoginRequest) (string, error) {
	if err := validator.Check(req); err != nil {
		return "", err
	}
	token, err := s.backend.Login(ctx, req.Email, req.Password, req.Role)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if token == "" {
		return "", ErrTokenMissing
	}

	scope := session.ScopeTab
	if req.Remember {
		scope = session.ScopeDurable
	}
	if err := s.session.Set(token, scope); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	s.log.Info().Str("email", req.Email).Str("scope", string(scope)).Msg("Logged in")
	return s.session.Landing(), nil
}

// Logout tells the backend and always clears the local session, even when
// the backend call fails.
func (s *Service) Logout(ctx context.Context) error {
	if s.session.Token() != "" {
		if err := s.backend.Logout(ctx); err != nil {
			s.log.Warn().Err(err).Msg("Backend logout failed, clearing session anyway")
		}
	}
	if err := s.session.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// ForgotPassword requests a reset link.
func (s *Service) ForgotPassword(ctx context.Context, req model.ForgotPasswordRequest) error {
	if err := validator.Check(req); err != nil {
		return err
	}
	if err := s.backend.ForgotPassword(ctx, req.Email); err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	return nil
}

// ResetPassword sets a new password using the emailed token.
func (s *Service) ResetPassword(ctx context.Context, token string, req model.ResetPasswordRequest) error {
	if token == "" {
		return &validator.Error{Message: "Invalid or missing reset token.", Fields: map[string]string{"token": "token is required"}}
	}
	if err := validator.Check(req); err != nil {
		return err
	}
	if err := s.backend.ResetPassword(ctx, token, req.Password); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

// Landing is the role-routed landing page of the current session.
func (s *Service) Landing() string {
	return s.session.Landing()
}

// Session exposes the underlying session for read-only checks.
func (s *Service) Session() *session.Session {
	return s.session
}
