package api

import (
	"context"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/moneytracker/money-tracker/internal/api/handler"
	"github.com/moneytracker/money-tracker/internal/api/middleware"
	"github.com/moneytracker/money-tracker/internal/core/domain"
	"github.com/moneytracker/money-tracker/internal/core/ports"

	_ "github.com/moneytracker/money-tracker/docs"
)

// Deps carries everything the HTTP layer needs. Checks feed /health/ready.
type Deps struct {
	Auth       ports.AuthService
	Users      ports.UserService
	Categories ports.CategoryService
	Expenses   ports.ExpenseService
	Checks     map[string]func(ctx context.Context) error
	Log        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddleware("moneytracker"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth)
	userHandler := handler.NewUserHandler(d.Users)
	categoryHandler := handler.NewCategoryHandler(d.Categories)
	expenseHandler := handler.NewExpenseHandler(d.Expenses)
	authMiddleware := middleware.Auth(d.Auth)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout, authMiddleware)

	v1 := e.Group("/v1", authMiddleware)

	// --- Users ---
	v1.GET("/users/me", userHandler.Me)
	v1.GET("/users", userHandler.List, middleware.RBAC(domain.RoleAdmin))

	// --- Categories ---
	v1.GET("/categories", categoryHandler.List)
	v1.POST("/categories", categoryHandler.Create)
	v1.GET("/categories/:type", categoryHandler.Get)
	v1.PUT("/categories/:type", categoryHandler.Rename)

	// --- Expenses ---
	v1.GET("/expenses", expenseHandler.List)
	v1.POST("/expenses", expenseHandler.Create)
	v1.GET("/expenses/:id", expenseHandler.Get)
	v1.PUT("/expenses/:id", expenseHandler.Update)
	v1.DELETE("/expenses/:id", expenseHandler.Delete)

	// --- Health probes (no auth required) ---
	checks := make(map[string]handler.DependencyCheck, len(d.Checks))
	for name, fn := range d.Checks {
		checks[name] = fn
	}
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(checks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger logs one structured line per request through zerolog.
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
			if v.Error != nil || v.Status >= 500 {
				ev = log.Error().Err(v.Error)
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
