package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/trainfood-auth/internal/handler"    // handlers that implement each endpoint
	"github.com/iliyamo/trainfood-auth/internal/metrics"    // Prometheus exposition
	"github.com/iliyamo/trainfood-auth/internal/middleware" // JWT authentication and rate limiting
	"github.com/iliyamo/trainfood-auth/internal/utils"
)

// Limiters holds the rate limit middleware for the auth routes.  A nil
// field leaves its routes unlimited.
type Limiters struct {
	Auth  echo.MiddlewareFunc // register, reset-password
	Reset echo.MiddlewareFunc // forget-password
}

// RegisterRoutes registers routes that do not require authentication: the
// liveness and readiness probes and the metrics endpoint.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, m *metrics.Metrics) {
	e.GET("/healthz", handler.Health)
	if db != nil {
		e.GET("/readyz", handler.Ready(db))
	}
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
}

// RegisterAuth registers the /auth routes.  Register and the reset
// endpoints are rate limited, login is not.  /auth/verify requires a valid
// bearer token issued by issuer.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, issuer *utils.Issuer, l Limiters) {
	g := e.Group("/auth")
	g.POST("/register", a.Register, optional(l.Auth)...)
	g.POST("/login", a.Login)
	g.POST("/forget-password", a.ForgetPassword, optional(l.Reset)...)
	g.POST("/reset-password", a.ResetPassword, optional(l.Auth)...)
	g.GET("/verify", a.Verify, middleware.JWTAuth(issuer))
}

func optional(mw echo.MiddlewareFunc) []echo.MiddlewareFunc {
	if mw == nil {
		return nil
	}
	return []echo.MiddlewareFunc{mw}
}
