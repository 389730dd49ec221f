package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/trainfood-auth/internal/utils"
)

// Context keys set by JWTAuth.
const (
	ContextClaims = "claims"
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// with issuer and injects the verified claims into the request context.
// Handlers read them via `c.Get("claims")`, `c.Get("user_id")` and
// `c.Get("role")`.
func JWTAuth(issuer *utils.Issuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header starts with "Bearer " followed by the JWT.
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authorized, no token"})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			// Parse checks the signing method, issuer, expiry and role.
			claims, err := issuer.Parse(raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid token"})
			}

			c.Set(ContextClaims, claims)
			c.Set(ContextUserID, claims.Subject)
			c.Set(ContextRole, claims.Role)
			return next(c)
		}
	}
}

// Claims returns the claims stored by JWTAuth, or nil.
func Claims(c echo.Context) *utils.Claims {
	cl, _ := c.Get(ContextClaims).(*utils.Claims)
	return cl
}
