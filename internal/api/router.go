package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/lumina-chat/lumina-api/docs"
	"github.com/lumina-chat/lumina-api/internal/api/handler"
	"github.com/lumina-chat/lumina-api/internal/api/middleware"
	"github.com/lumina-chat/lumina-api/internal/core/ports"
	"github.com/lumina-chat/lumina-api/internal/core/service"
	mongodb "github.com/lumina-chat/lumina-api/internal/infrastructure/db/mongo"
	redisdb "github.com/lumina-chat/lumina-api/internal/infrastructure/db/redis"
)

// Deps carries everything the router needs, built once in cmd/server.
type Deps struct {
	DB    *mongo.Database
	Redis *redis.Client
	Mail  ports.MailEnqueuer
	Text  ports.TextGenerator
	Image ports.ImageGenerator

	JWTSecret     string
	TokenTTL      time.Duration
	SecureCookies bool
	AllowOrigins  []string
	Persona       string

	Logger zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("lumina"))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     d.AllowOrigins,
		AllowCredentials: true,
	}))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(d.DB)
	regRepo := mongodb.NewRegistrationRepository(d.DB)
	throttle := redisdb.NewOTPThrottle(d.Redis)

	accountService := service.NewAccountService(userRepo, regRepo, d.Mail, throttle, d.JWTSecret, d.TokenTTL, d.Logger)
	chatService := service.NewChatService(userRepo, d.Text, d.Image, d.Persona, d.Logger)

	accountHandler := handler.NewAccountHandler(accountService, handler.CookieConfig{
		TTL:    d.TokenTTL,
		Secure: d.SecureCookies,
	})
	chatHandler := handler.NewChatHandler(chatService)
	guard := middleware.Auth(d.JWTSecret)

	// --- User routes ---
	users := e.Group("/users")
	users.POST("/register", accountHandler.Register)
	users.POST("/verify-email", accountHandler.VerifyEmail)
	users.POST("/login", accountHandler.Login)
	users.GET("/profile", accountHandler.Profile, guard)
	users.POST("/logout", accountHandler.Logout, guard)

	// --- AI routes ---
	ai := e.Group("/ai", guard)
	ai.POST("/chat", chatHandler.Chat)
	ai.POST("/image", chatHandler.GenerateImage)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.DB, d.Redis)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
