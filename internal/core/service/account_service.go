package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/lumina-chat/lumina-api/internal/core/domain"
	"github.com/lumina-chat/lumina-api/internal/core/ports"
)

// OTPThrottle abstracts the Redis send limiter. A nil throttle disables the check.
type OTPThrottle interface {
	Allow(ctx context.Context, email string) (bool, error)
}

// AccountService implements registration, OTP verification, and login.
type AccountService struct {
	users     ports.UserRepository
	regs      ports.RegistrationRepository
	mail      ports.MailEnqueuer
	throttle  OTPThrottle
	jwtSecret string
	tokenTTL  time.Duration
	logger    zerolog.Logger
}

func NewAccountService(
	users ports.UserRepository,
	regs ports.RegistrationRepository,
	mail ports.MailEnqueuer,
	throttle OTPThrottle,
	jwtSecret string,
	tokenTTL time.Duration,
	logger zerolog.Logger,
) *AccountService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AccountService{
		users:     users,
		regs:      regs,
		mail:      mail,
		throttle:  throttle,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

// Register creates a pending registration and queues the OTP email. Success
// does not depend on mail delivery; the dispatcher logs failures out-of-band.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (*ports.RegistrationResult, error) {
	if name == "" || email == "" || password == "" {
		return nil, domain.ErrMissingFields
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("register: %w", err)
	}

	// Reject duplicate signups before the throttle so a double-submitted form
	// does not burn send quota on requests that mail nothing. The unique index
	// behind regs.Create still backstops the race between check and insert.
	if _, err := s.regs.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrRegistrationPending
	} else if !errors.Is(err, domain.ErrRegistrationNotFound) {
		return nil, fmt.Errorf("register: %w", err)
	}

	if s.throttle != nil {
		ok, err := s.throttle.Allow(ctx, email)
		if err != nil {
			s.logger.Warn().Err(err).Str("email", email).Msg("otp throttle check failed, proceeding")
		} else if !ok {
			return nil, domain.ErrOTPThrottled
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := time.Now().UTC()
	reg := &domain.PendingRegistration{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		OTP:          generateOTP(),
		OTPExpiresAt: now.Add(domain.OTPValidity),
		CreatedAt:    now,
	}

	created, err := s.regs.Create(ctx, reg)
	if err != nil {
		return nil, err
	}

	s.mail.Enqueue(ports.OTPMailInput{To: created.Email, Name: created.Name, OTP: created.OTP})

	s.logger.Info().Str("email", created.Email).Time("otp_expires_at", created.OTPExpiresAt).Msg("registration pending")

	return &ports.RegistrationResult{
		Name:         created.Name,
		Email:        created.Email,
		OTPExpiresAt: created.OTPExpiresAt,
	}, nil
}

// VerifyEmail promotes a pending registration to a confirmed user when the
// submitted OTP matches and is still valid, then mints a session token.
//
// The promotion is two writes (create user, delete pending), so a crash in
// between can leave both records live. A replay with the same still-valid
// OTP then hits the users unique index; that duplicate is treated as the
// earlier success and the flow continues to the delete.
func (s *AccountService) VerifyEmail(ctx context.Context, email, otp string) (string, *domain.User, error) {
	reg, err := s.regs.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrRegistrationNotFound) {
			return "", nil, domain.ErrInvalidOTPOrEmail
		}
		return "", nil, fmt.Errorf("verify email: %w", err)
	}

	if reg.OTP != otp {
		return "", nil, domain.ErrInvalidOTP
	}
	if reg.OTPExpired(time.Now().UTC()) {
		return "", nil, domain.ErrOTPExpired
	}

	user := &domain.User{
		Name:         reg.Name,
		Email:        reg.Email,
		PasswordHash: reg.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}

	created, err := s.users.Create(ctx, user)
	if errors.Is(err, domain.ErrUserExists) {
		created, err = s.users.FindByEmail(ctx, email)
	}
	if err != nil {
		return "", nil, fmt.Errorf("verify email: %w", err)
	}

	if err := s.regs.DeleteByID(ctx, reg.ID); err != nil {
		// Non-fatal: the TTL index purges the leftover, and a replay is
		// absorbed by the duplicate-key path above.
		s.logger.Warn().Err(err).Str("email", email).Msg("failed to delete pending registration")
	}

	token, err := s.generateToken(created)
	if err != nil {
		return "", nil, fmt.Errorf("verify email: sign token: %w", err)
	}

	s.logger.Info().Str("user_id", created.ID).Str("email", created.Email).Msg("email verified, user created")

	return token, created, nil
}

// Login checks the credentials and mints a session token. Unknown email and
// wrong password both return ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("login: sign token: %w", err)
	}

	return token, user, nil
}

// Profile returns the user behind an authenticated identifier.
func (s *AccountService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AccountService) generateToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub": user.ID,
		"exp": time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

// generateOTP returns a 4-digit code in [1000, 9999]. The code is a
// short-lived, low-value secret; math/rand is sufficient.
func generateOTP() string {
	return fmt.Sprintf("%d", rand.IntN(9000)+1000)
}
