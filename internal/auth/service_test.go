package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/candidate-portal/internal/model"
	"github.com/stemsi/candidate-portal/internal/session"
	"github.com/stemsi/candidate-portal/internal/validator"
)

type fakeBackend struct {
	token     string
	logoutErr error
	logouts   int
	resets    []string
}

func (f *fakeBackend) Register(context.Context, model.RegisterRequest) error { return nil }

func (f *fakeBackend) Login(context.Context, string, string, model.Role) (string, error) {
	return f.token, nil
}

func (f *fakeBackend) Logout(context.Context) error {
	f.logouts++
	return f.logoutErr
}

func (f *fakeBackend) ForgotPassword(context.Context, string) error { return nil }

func (f *fakeBackend) ResetPassword(_ context.Context, token, _ string) error {
	f.resets = append(f.resets, token)
	return nil
}

func userToken(t *testing.T, role model.Role) string {
	t.Helper()
	claims := session.Claims{
		Role:             role,
		Email:            "asha@x.io",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func newService(backend *fakeBackend) (*Service, *session.MemoryBackend, *session.MemoryBackend) {
	durable, tab := session.NewMemoryBackend(), session.NewMemoryBackend()
	return NewService(backend, session.New(durable, tab), zerolog.Nop()), durable, tab
}

func TestLoginScopesAndLanding(t *testing.T) {
	backend := &fakeBackend{token: userToken(t, model.RoleAdmin)}
	svc, durable, tab := newService(backend)

	route, err := svc.Login(context.Background(), model.LoginRequest{Email: "a@b.co", Password: "pw", Remember: true})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if route != "/" {
		t.Errorf("admin landing = %q", route)
	}
	if tok, _ := durable.Load(); tok == "" {
		t.Error("remember did not use the durable scope")
	}

	backend.token = userToken(t, model.RoleUser)
	route, _ = svc.Login(context.Background(), model.LoginRequest{Email: "a@b.co", Password: "pw"})
	if route != "/exam-dashboard" {
		t.Errorf("user landing = %q", route)
	}
	if tok, _ := tab.Load(); tok == "" {
		t.Error("token not in tab scope")
	}
	if tok, _ := durable.Load(); tok != "" {
		t.Error("durable scope not cleared")
	}
}

func TestLoginWithoutTokenFails(t *testing.T) {
	svc, _, _ := newService(&fakeBackend{})
	_, err := svc.Login(context.Background(), model.LoginRequest{Email: "a@b.co", Password: "pw"})
	if !errors.Is(err, ErrTokenMissing) {
		t.Errorf("err = %v, want ErrTokenMissing", err)
	}
	if svc.Session().IsAuthenticated() {
		t.Error("session set without a token")
	}
}

func TestLoginValidatesEmail(t *testing.T) {
	svc, _, _ := newService(&fakeBackend{token: "x"})
	_, err := svc.Login(context.Background(), model.LoginRequest{Email: "nope", Password: "pw"})
	if validator.Fields(err)["email"] == "" {
		t.Errorf("err = %v", err)
	}
}

func TestLogoutClearsEvenOnFailure(t *testing.T) {
	backend := &fakeBackend{token: userToken(t, model.RoleUser), logoutErr: errors.New("down")}
	svc, _, _ := newService(backend)
	_, _ = svc.Login(context.Background(), model.LoginRequest{Email: "a@b.co", Password: "pw"})

	if err := svc.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if backend.logouts != 1 || svc.Session().IsAuthenticated() {
		t.Errorf("logouts = %d, authenticated = %v", backend.logouts, svc.Session().IsAuthenticated())
	}
	if svc.Landing() != "/login" {
		t.Errorf("landing = %q", svc.Landing())
	}
}

func TestResetPasswordConfirmation(t *testing.T) {
	backend := &fakeBackend{}
	svc, _, _ := newService(backend)

	err := svc.ResetPassword(context.Background(), "tok", model.ResetPasswordRequest{Password: "secret1", ConfirmPassword: "secret2"})
	if validator.Fields(err)["confirmPassword"] == "" {
		t.Errorf("mismatch err = %v", err)
	}
	if len(backend.resets) != 0 {
		t.Fatal("mismatched reset reached backend")
	}
	err = svc.ResetPassword(context.Background(), "tok", model.ResetPasswordRequest{Password: "secret1", ConfirmPassword: "secret1"})
	if err != nil || len(backend.resets) != 1 {
		t.Errorf("reset = %v, calls = %d", err, len(backend.resets))
	}
}
