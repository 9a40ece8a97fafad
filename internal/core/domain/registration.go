package domain

import "time"

// OTPValidity is how long a one-time code stays usable after issuance.
const OTPValidity = 5 * time.Minute

// PendingRegistration is an unconfirmed signup awaiting OTP verification.
// At most one exists per email (unique index); the store's TTL index purges
// records after the OTP window has long passed.
type PendingRegistration struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	OTP          string
	OTPExpiresAt time.Time
	CreatedAt    time.Time
}

// OTPExpired reports whether the code is past its validity window at now.
func (p *PendingRegistration) OTPExpired(now time.Time) bool {
	return !now.Before(p.OTPExpiresAt)
}
