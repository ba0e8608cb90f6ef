package model

// Role is the session role claim.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// RegisterRequest is the payload for POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email_simple"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// LoginRequest is the payload for POST /auth/login. Remember picks the
// durable token scope and is never sent to the backend.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email_simple"`
	Password string `json:"password" binding:"required"`
	Role     Role   `json:"role" binding:"omitempty,oneof=admin user"`
	Remember bool   `json:"remember"`
}

// ForgotPasswordRequest is the payload for POST /auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email_simple"`
}

// ResetPasswordRequest is the payload for POST /auth/reset-password/:token.
type ResetPasswordRequest struct {
	Password        string `json:"password" binding:"required,min=6,max=128"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
}
