package domain

import "time"

// User is a confirmed account, created exactly once when a pending
// registration is promoted after OTP verification.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
