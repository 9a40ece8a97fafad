package handler

import (
	"encoding/json"
	"time"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type registerRequest struct {
	Name     string `json:"name"     validate:"required,min=3"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type registerResponse struct {
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	OTPExpiresAt time.Time `json:"otp_expires_at"`
}

// verifyEmailRequest accepts the code as either a JSON string ("1234") or a
// bare number (1234); browser clients send both. json.Number binds both forms
// and keeps the digits intact for the exact-match check downstream.
type verifyEmailRequest struct {
	Email string      `json:"email" validate:"required,email"`
	OTP   json.Number `json:"otp"   validate:"required,len=4,numeric"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// userResponse is the transport view of a user. Intentionally separate from
// the domain type so the JSON contract never grows internal fields.
type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}
