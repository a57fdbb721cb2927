package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	"github.com/repairshop/workshop/internal/api/handler"
	"github.com/repairshop/workshop/internal/api/middleware"
	"github.com/repairshop/workshop/internal/core/domain"
	"github.com/repairshop/workshop/internal/core/ports"
)

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Log      zerolog.Logger
	Auth     ports.AuthService
	Clients  ports.ClientService
	Staff    ports.StaffService
	Tokens   middleware.TokenDecoder
	Resolver ports.PrincipalResolver
	Cookie   handler.CookieConfig
	// Health maps dependency names to readiness checks.
	Health map[string]handler.PingFunc

	// LoginRate and LoginBurst limit login requests per client IP.
	// A zero LoginRate disables the limit.
	LoginRate  rate.Limit
	LoginBurst int

	// Registerer and Gatherer back the HTTP metrics and GET /metrics.
	// They default to the prometheus default registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

var (
	staffRoles   = []domain.Role{domain.RoleAdmin, domain.RoleSecretary, domain.RoleTechnician}
	managerRoles = []domain.Role{domain.RoleAdmin, domain.RoleSecretary}
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	if d.Registerer == nil {
		d.Registerer = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: d.Registerer,
	}))
	e.Use(middleware.Authenticate(d.Tokens, d.Resolver, d.Cookie.Name))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Clients, d.Cookie)
	clientHandler := handler.NewClientHandler(d.Clients)
	staffHandler := handler.NewStaffHandler(d.Staff)
	healthHandler := handler.NewHealthHandler(d.Health)

	api := e.Group("/api")

	// --- Auth routes ---
	auth := api.Group("/auth")
	limit := loginLimiter(d.LoginRate, d.LoginBurst)
	auth.POST("/login", authHandler.StaffLogin, limit...)
	auth.POST("/client/login", authHandler.ClientLogin, limit...)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/verify", authHandler.Verify)

	auth.GET("/client/me", authHandler.Me, middleware.RequireRoles(domain.RoleClient))
	auth.POST("/client/change-password", authHandler.ChangePassword, middleware.RequireRoles(domain.RoleClient))

	// --- Client management ---
	clients := api.Group("/clients")
	clients.GET("", clientHandler.List, middleware.RequireRoles(staffRoles...))
	clients.GET("/search", clientHandler.Search, middleware.RequireRoles(staffRoles...))
	clients.GET("/:id", clientHandler.Get, middleware.RequireRoles(staffRoles...))
	clients.POST("", clientHandler.Create, middleware.RequireRoles(managerRoles...))
	clients.PUT("/:id", clientHandler.Update, middleware.RequireRoles(managerRoles...))
	clients.POST("/:id/resend-credentials", clientHandler.ResendCredentials, middleware.RequireRoles(managerRoles...))
	clients.POST("/:id/toggle-status", clientHandler.ToggleStatus, middleware.RequireRoles(managerRoles...))
	clients.DELETE("/:id", clientHandler.Delete, middleware.RequireRoles(domain.RoleAdmin))

	// --- Staff management ---
	staff := api.Group("/staff", middleware.RequireRoles(domain.RoleAdmin))
	staff.POST("", staffHandler.Create)
	staff.GET("/:id", staffHandler.Get)

	// --- Health probes, metrics and docs (no auth required) ---
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// loginLimiter returns the per-IP rate limit applied to login routes, or
// nothing when r is zero.
func loginLimiter(r rate.Limit, burst int) []echo.MiddlewareFunc {
	if r <= 0 {
		return nil
	}
	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      r,
		Burst:     burst,
		ExpiresIn: 10 * time.Minute,
	})
	return []echo.MiddlewareFunc{echomiddleware.RateLimiter(store)}
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error()
			}
			if v.Error != nil {
				ev = ev.Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
