package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lumina-chat/lumina-api/internal/api/metrics"
	"github.com/lumina-chat/lumina-api/internal/api/middleware"
	"github.com/lumina-chat/lumina-api/internal/core/domain"
	"github.com/lumina-chat/lumina-api/internal/core/ports"
)

// CookieConfig controls the session cookie written on verify/login.
type CookieConfig struct {
	TTL    time.Duration
	Secure bool
}

type AccountHandler struct {
	accounts ports.AccountService
	cookie   CookieConfig
}

func NewAccountHandler(accounts ports.AccountService, cookie CookieConfig) *AccountHandler {
	return &AccountHandler{accounts: accounts, cookie: cookie}
}

// Register starts a signup and emails a verification code.
//
// @Summary      Register a new account
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Signup details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /users/register [post]
func (h *AccountHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	res, err := h.accounts.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingFields),
			errors.Is(err, domain.ErrEmailTaken),
			errors.Is(err, domain.ErrRegistrationPending):
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		case errors.Is(err, domain.ErrOTPThrottled):
			return c.JSON(http.StatusTooManyRequests, errorResponse{Error: err.Error()})
		}
		return err
	}

	metrics.RegistrationsTotal.Inc()

	return c.JSON(http.StatusCreated, registerResponse{
		Name:         res.Name,
		Email:        res.Email,
		OTPExpiresAt: res.OTPExpiresAt,
	})
}

// VerifyEmail confirms a signup with the emailed OTP and opens a session.
//
// @Summary      Verify email with OTP
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      verifyEmailRequest  true  "Email and code"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Router       /users/verify-email [post]
func (h *AccountHandler) VerifyEmail(c echo.Context) error {
	var req verifyEmailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	token, user, err := h.accounts.VerifyEmail(c.Request().Context(), req.Email, req.OTP.String())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidOTPOrEmail),
			errors.Is(err, domain.ErrInvalidOTP),
			errors.Is(err, domain.ErrOTPExpired):
			metrics.OTPVerificationsTotal.WithLabelValues("failure").Inc()
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		return err
	}

	metrics.OTPVerificationsTotal.WithLabelValues("success").Inc()
	h.setSessionCookie(c, token)

	return c.JSON(http.StatusOK, sessionResponse{Token: token, User: toUserResponse(user)})
}

// Login authenticates with email and password and opens a session.
//
// @Summary      Login
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Router       /users/login [post]
func (h *AccountHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	token, user, err := h.accounts.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	h.setSessionCookie(c, token)

	return c.JSON(http.StatusOK, sessionResponse{Token: token, User: toUserResponse(user)})
}

// Profile returns the authenticated user.
//
// @Summary      Get own profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/profile [get]
func (h *AccountHandler) Profile(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	user, err := h.accounts.Profile(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		}
		return err
	}

	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Logout clears the session cookie. The JWT itself stays valid until expiry;
// there is no server-side session state to tear down.
//
// @Summary      Logout
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Router       /users/logout [post]
func (h *AccountHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

func (h *AccountHandler) setSessionCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookie.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
