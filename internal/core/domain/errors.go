package domain

import "errors"

var (
	// ErrMissingFields is returned when a workflow receives empty required
	// input despite the transport-layer validator.
	ErrMissingFields = errors.New("missing required fields")

	// ErrEmailTaken is returned when a confirmed user already holds the email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrRegistrationPending is returned when a signup for the email is
	// already awaiting verification.
	ErrRegistrationPending = errors.New("registration already pending for this email")

	// ErrInvalidOTPOrEmail is returned when no pending registration exists
	// for the submitted email.
	ErrInvalidOTPOrEmail = errors.New("invalid otp or email")

	// ErrInvalidOTP is returned when the submitted code does not match.
	ErrInvalidOTP = errors.New("invalid otp")

	// ErrOTPExpired is returned when the code matched but its validity
	// window has passed.
	ErrOTPExpired = errors.New("otp expired")

	// ErrOTPThrottled is returned when too many codes were requested for the
	// same email inside the throttle window.
	ErrOTPThrottled = errors.New("too many verification codes requested")

	// ErrInvalidCredentials covers both unknown email and wrong password so
	// the response never reveals which one failed.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUserExists is the repository's duplicate-key signal on user creation.
	ErrUserExists = errors.New("user already exists")

	ErrUserNotFound         = errors.New("user not found")
	ErrRegistrationNotFound = errors.New("pending registration not found")

	// ErrPromptRequired is returned when a relay request carries no prompt.
	ErrPromptRequired = errors.New("prompt is required")

	// ErrGenerationFailed wraps any AI-provider failure; callers see only
	// this generic kind.
	ErrGenerationFailed = errors.New("generation failed")
)
