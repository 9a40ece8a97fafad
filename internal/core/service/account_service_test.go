package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/lumina-chat/lumina-api/internal/core/domain"
	"github.com/lumina-chat/lumina-api/internal/core/ports"
)

type stubUserRepo struct {
	users  map[string]*domain.User // keyed by email
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, exists := r.users[user.Email]; exists {
		return nil, domain.ErrUserExists
	}
	r.nextID++
	copy := cloneUser(user)
	copy.ID = fmt.Sprintf("user_%d", r.nextID)
	r.users[copy.Email] = cloneUser(copy)
	return copy, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := r.users[email]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

type stubRegRepo struct {
	regs   map[string]*domain.PendingRegistration // keyed by email
	nextID int
}

func newStubRegRepo() *stubRegRepo {
	return &stubRegRepo{regs: make(map[string]*domain.PendingRegistration)}
}

func (r *stubRegRepo) Create(_ context.Context, reg *domain.PendingRegistration) (*domain.PendingRegistration, error) {
	if _, exists := r.regs[reg.Email]; exists {
		return nil, domain.ErrRegistrationPending
	}
	r.nextID++
	copy := *reg
	copy.ID = fmt.Sprintf("reg_%d", r.nextID)
	r.regs[copy.Email] = &copy
	stored := copy
	return &stored, nil
}

func (r *stubRegRepo) FindByEmail(_ context.Context, email string) (*domain.PendingRegistration, error) {
	if reg, ok := r.regs[email]; ok {
		copy := *reg
		return &copy, nil
	}
	return nil, domain.ErrRegistrationNotFound
}

func (r *stubRegRepo) DeleteByID(_ context.Context, id string) error {
	for email, reg := range r.regs {
		if reg.ID == id {
			delete(r.regs, email)
			return nil
		}
	}
	return domain.ErrRegistrationNotFound
}

type stubMailer struct {
	sent []ports.OTPMailInput
}

func (m *stubMailer) Enqueue(in ports.OTPMailInput) {
	m.sent = append(m.sent, in)
}

type stubThrottle struct {
	allow bool
	err   error
	calls int
}

func (t *stubThrottle) Allow(_ context.Context, _ string) (bool, error) {
	t.calls++
	return t.allow, t.err
}

func newService(users *stubUserRepo, regs *stubRegRepo, mail *stubMailer) *AccountService {
	return NewAccountService(users, regs, mail, nil, "secret", time.Hour, zerolog.Nop())
}

func TestAccountService_Register_Success(t *testing.T) {
	users, regs, mail := newStubUserRepo(), newStubRegRepo(), &stubMailer{}
	svc := newService(users, regs, mail)

	res, err := svc.Register(context.Background(), "Alice", "alice@x.com", "secret1")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if res.Email != "alice@x.com" || res.Name != "Alice" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.OTPExpiresAt.IsZero() {
		t.Fatalf("expected otp expiry to be set")
	}

	reg, err := regs.FindByEmail(context.Background(), "alice@x.com")
	if err != nil {
		t.Fatalf("pending registration not stored: %v", err)
	}
	if reg.PasswordHash == "secret1" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(reg.PasswordHash), []byte("secret1")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}

	code, err := strconv.Atoi(reg.OTP)
	if err != nil || code < 1000 || code > 9999 {
		t.Fatalf("otp out of range: %q", reg.OTP)
	}

	if _, err := users.FindByEmail(context.Background(), "alice@x.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("no confirmed user should exist yet, got %v", err)
	}

	if len(mail.sent) != 1 {
		t.Fatalf("expected one otp mail, got %d", len(mail.sent))
	}
	if mail.sent[0].To != "alice@x.com" || mail.sent[0].OTP != reg.OTP {
		t.Fatalf("unexpected mail: %+v", mail.sent[0])
	}
}

func TestAccountService_Register_MissingFields(t *testing.T) {
	svc := newService(newStubUserRepo(), newStubRegRepo(), &stubMailer{})

	if _, err := svc.Register(context.Background(), "", "a@x.com", "pass"); !errors.Is(err, domain.ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "Al", "a@x.com", ""); !errors.Is(err, domain.ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}

func TestAccountService_Register_EmailTaken(t *testing.T) {
	users := newStubUserRepo()
	if _, err := users.Create(context.Background(), &domain.User{Name: "Bob", Email: "bob@x.com"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	svc := newService(users, newStubRegRepo(), &stubMailer{})

	if _, err := svc.Register(context.Background(), "Bob", "bob@x.com", "pass123"); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAccountService_Register_AlreadyPending(t *testing.T) {
	svc := newService(newStubUserRepo(), newStubRegRepo(), &stubMailer{})

	if _, err := svc.Register(context.Background(), "Carol", "carol@x.com", "pass123"); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := svc.Register(context.Background(), "Carol", "carol@x.com", "pass123"); !errors.Is(err, domain.ErrRegistrationPending) {
		t.Fatalf("expected ErrRegistrationPending, got %v", err)
	}
}

func TestAccountService_Register_PendingDuplicateKeepsQuota(t *testing.T) {
	users, regs, mail := newStubUserRepo(), newStubRegRepo(), &stubMailer{}
	throttle := &stubThrottle{allow: true}
	svc := NewAccountService(users, regs, mail, throttle, "secret", time.Hour, zerolog.Nop())

	if _, err := svc.Register(context.Background(), "Carol", "carol@x.com", "pass123"); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if throttle.calls != 1 {
		t.Fatalf("first register should consume one send, got %d", throttle.calls)
	}

	// A double-submitted form sends no mail and must not count against the
	// send limit.
	if _, err := svc.Register(context.Background(), "Carol", "carol@x.com", "pass123"); !errors.Is(err, domain.ErrRegistrationPending) {
		t.Fatalf("expected ErrRegistrationPending, got %v", err)
	}
	if throttle.calls != 1 {
		t.Fatalf("duplicate signup must not consume quota, got %d calls", throttle.calls)
	}
	if len(mail.sent) != 1 {
		t.Fatalf("expected one otp mail, got %d", len(mail.sent))
	}
}

func TestAccountService_Register_Throttled(t *testing.T) {
	users, regs, mail := newStubUserRepo(), newStubRegRepo(), &stubMailer{}
	svc := NewAccountService(users, regs, mail, &stubThrottle{allow: false}, "secret", time.Hour, zerolog.Nop())

	if _, err := svc.Register(context.Background(), "Dave", "dave@x.com", "pass123"); !errors.Is(err, domain.ErrOTPThrottled) {
		t.Fatalf("expected ErrOTPThrottled, got %v", err)
	}
	if len(mail.sent) != 0 {
		t.Fatalf("no mail should be queued when throttled")
	}
}

func TestAccountService_Register_ThrottleErrorIgnored(t *testing.T) {
	users, regs, mail := newStubUserRepo(), newStubRegRepo(), &stubMailer{}
	throttle := &stubThrottle{err: errors.New("redis down")}
	svc := NewAccountService(users, regs, mail, throttle, "secret", time.Hour, zerolog.Nop())

	if _, err := svc.Register(context.Background(), "Eve", "eve@x.com", "pass123"); err != nil {
		t.Fatalf("throttle errors must not block registration: %v", err)
	}
}

func TestAccountService_VerifyEmail_UnknownEmail(t *testing.T) {
	svc := newService(newStubUserRepo(), newStubRegRepo(), &stubMailer{})

	if _, _, err := svc.VerifyEmail(context.Background(), "ghost@x.com", "1234"); !errors.Is(err, domain.ErrInvalidOTPOrEmail) {
		t.Fatalf("expected ErrInvalidOTPOrEmail, got %v", err)
	}
}

func TestAccountService_VerifyEmail_WrongOTP(t *testing.T) {
	users, regs := newStubUserRepo(), newStubRegRepo()
	svc := newService(users, regs, &stubMailer{})

	if _, err := svc.Register(context.Background(), "Alice", "alice@x.com", "secret1"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	reg, _ := regs.FindByEmail(context.Background(), "alice@x.com")

	wrong := "1234"
	if wrong == reg.OTP {
		wrong = "4321"
	}
	if _, _, err := svc.VerifyEmail(context.Background(), "alice@x.com", wrong); !errors.Is(err, domain.ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP, got %v", err)
	}

	// The pending record survives a failed attempt.
	if _, err := regs.FindByEmail(context.Background(), "alice@x.com"); err != nil {
		t.Fatalf("pending registration should still exist: %v", err)
	}
	if _, err := users.FindByEmail(context.Background(), "alice@x.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("no user should have been created, got %v", err)
	}
}

func TestAccountService_VerifyEmail_Expired(t *testing.T) {
	users, regs := newStubUserRepo(), newStubRegRepo()
	svc := newService(users, regs, &stubMailer{})

	if _, err := regs.Create(context.Background(), &domain.PendingRegistration{
		Name:         "Frank",
		Email:        "frank@x.com",
		PasswordHash: "hash",
		OTP:          "5555",
		OTPExpiresAt: time.Now().UTC().Add(-time.Minute),
	}); err != nil {
		t.Fatalf("seed pending: %v", err)
	}

	if _, _, err := svc.VerifyEmail(context.Background(), "frank@x.com", "5555"); !errors.Is(err, domain.ErrOTPExpired) {
		t.Fatalf("expected ErrOTPExpired, got %v", err)
	}
}

func TestAccountService_VerifyEmail_Success(t *testing.T) {
	users, regs := newStubUserRepo(), newStubRegRepo()
	svc := newService(users, regs, &stubMailer{})

	if _, err := svc.Register(context.Background(), "Alice", "alice@x.com", "secret1"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	reg, _ := regs.FindByEmail(context.Background(), "alice@x.com")

	token, user, err := svc.VerifyEmail(context.Background(), "alice@x.com", reg.OTP)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token, got empty")
	}
	if user == nil || user.Email != "alice@x.com" || user.ID == "" {
		t.Fatalf("unexpected user: %+v", user)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["sub"] != user.ID {
		t.Fatalf("expected sub %s, got %v", user.ID, claims["sub"])
	}

	if _, err := regs.FindByEmail(context.Background(), "alice@x.com"); !errors.Is(err, domain.ErrRegistrationNotFound) {
		t.Fatalf("pending registration should be gone, got %v", err)
	}
	if _, err := users.FindByEmail(context.Background(), "alice@x.com"); err != nil {
		t.Fatalf("confirmed user should exist: %v", err)
	}
}

func TestAccountService_VerifyEmail_ReplayAfterSuccess(t *testing.T) {
	users, regs := newStubUserRepo(), newStubRegRepo()
	svc := newService(users, regs, &stubMailer{})

	_, _ = svc.Register(context.Background(), "Alice", "alice@x.com", "secret1")
	reg, _ := regs.FindByEmail(context.Background(), "alice@x.com")

	if _, _, err := svc.VerifyEmail(context.Background(), "alice@x.com", reg.OTP); err != nil {
		t.Fatalf("first verify failed: %v", err)
	}

	// The pending record is gone, so the same code is rejected.
	if _, _, err := svc.VerifyEmail(context.Background(), "alice@x.com", reg.OTP); !errors.Is(err, domain.ErrInvalidOTPOrEmail) {
		t.Fatalf("expected ErrInvalidOTPOrEmail on replay, got %v", err)
	}
}

func TestAccountService_VerifyEmail_IdempotentAfterPartialPromotion(t *testing.T) {
	users, regs := newStubUserRepo(), newStubRegRepo()
	svc := newService(users, regs, &stubMailer{})

	// Simulate a crash between user creation and pending deletion: both
	// records live, OTP still valid.
	if _, err := users.Create(context.Background(), &domain.User{
		Name: "Grace", Email: "grace@x.com", PasswordHash: "hash",
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if _, err := regs.Create(context.Background(), &domain.PendingRegistration{
		Name: "Grace", Email: "grace@x.com", PasswordHash: "hash",
		OTP: "7777", OTPExpiresAt: time.Now().UTC().Add(time.Minute),
	}); err != nil {
		t.Fatalf("seed pending: %v", err)
	}

	token, user, err := svc.VerifyEmail(context.Background(), "grace@x.com", "7777")
	if err != nil {
		t.Fatalf("replayed verify should succeed: %v", err)
	}
	if token == "" || user == nil || user.Email != "grace@x.com" {
		t.Fatalf("unexpected result: token=%q user=%+v", token, user)
	}
	if _, err := regs.FindByEmail(context.Background(), "grace@x.com"); !errors.Is(err, domain.ErrRegistrationNotFound) {
		t.Fatalf("pending registration should be cleaned up, got %v", err)
	}
}

func TestAccountService_Login_Success(t *testing.T) {
	users, regs := newStubUserRepo(), newStubRegRepo()
	svc := newService(users, regs, &stubMailer{})

	_, _ = svc.Register(context.Background(), "Alice", "alice@x.com", "secret1")
	reg, _ := regs.FindByEmail(context.Background(), "alice@x.com")
	_, _, _ = svc.VerifyEmail(context.Background(), "alice@x.com", reg.OTP)

	token, user, err := svc.Login(context.Background(), "alice@x.com", "secret1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" || user == nil || user.Name != "Alice" {
		t.Fatalf("unexpected result: token=%q user=%+v", token, user)
	}
}

func TestAccountService_Login_SameErrorForBothFailures(t *testing.T) {
	users, regs := newStubUserRepo(), newStubRegRepo()
	svc := newService(users, regs, &stubMailer{})

	_, _ = svc.Register(context.Background(), "Alice", "alice@x.com", "secret1")
	reg, _ := regs.FindByEmail(context.Background(), "alice@x.com")
	_, _, _ = svc.VerifyEmail(context.Background(), "alice@x.com", reg.OTP)

	_, _, wrongPass := svc.Login(context.Background(), "alice@x.com", "wrong")
	_, _, unknown := svc.Login(context.Background(), "nobody@x.com", "secret1")

	if !errors.Is(wrongPass, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", wrongPass)
	}
	if !errors.Is(unknown, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", unknown)
	}
	if wrongPass.Error() != unknown.Error() {
		t.Fatalf("failure modes must be indistinguishable: %q vs %q", wrongPass, unknown)
	}
}

func TestAccountService_Profile(t *testing.T) {
	users := newStubUserRepo()
	created, _ := users.Create(context.Background(), &domain.User{Name: "Alice", Email: "alice@x.com"})
	svc := newService(users, newStubRegRepo(), &stubMailer{})

	user, err := svc.Profile(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("profile failed: %v", err)
	}
	if user.Email != "alice@x.com" {
		t.Fatalf("unexpected user: %+v", user)
	}

	if _, err := svc.Profile(context.Background(), "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
