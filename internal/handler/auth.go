package handler

import (
	"context"  // provides context with cancellation for store calls
	"net/http" // HTTP status codes and primitives
	"time"     // timeouts for store calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing
	"github.com/samber/oops"

	"github.com/iliyamo/trainfood-auth/internal/config"
	"github.com/iliyamo/trainfood-auth/internal/logging"
	"github.com/iliyamo/trainfood-auth/internal/metrics"
	"github.com/iliyamo/trainfood-auth/internal/middleware"
	"github.com/iliyamo/trainfood-auth/internal/model"
	"github.com/iliyamo/trainfood-auth/internal/service"
	"github.com/iliyamo/trainfood-auth/internal/validator"
)

// requestTimeout bounds every store and mail call made by a handler.
const requestTimeout = 5 * time.Second

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg     config.Config
	Auth    *service.Authenticator
	Resets  *service.PasswordResetService
	Metrics *metrics.Metrics
	Log     logging.Logger
}

func NewAuthHandler(cfg config.Config, auth *service.Authenticator, resets *service.PasswordResetService, m *metrics.Metrics, log logging.Logger) *AuthHandler {
	if m == nil {
		m = metrics.New()
	}
	if log == nil {
		log = logging.Nop()
	}
	return &AuthHandler{Cfg: cfg, Auth: auth, Resets: resets, Metrics: m, Log: log}
}

// ----- DTOs -----

type forgetReq struct {
	Email string `json:"email"`
}
type resetReq struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

type userPart struct {
	ID             uint64 `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	RestaurantName string `json:"restaurantName,omitempty"`
	Station        string `json:"station,omitempty"`
	IsActive       *bool  `json:"isActive,omitempty"`
	IsApproved     *bool  `json:"isApproved,omitempty"`
}
type loginResp struct {
	Token string   `json:"token"`
	User  userPart `json:"user"`
}
type registerResp struct {
	Message string   `json:"message"`
	Token   string   `json:"token"`
	User    userPart `json:"user"`
}
type loginInvalidResp struct {
	Message   string    `json:"message"`
	Field     string    `json:"field"`
	Timestamp time.Time `json:"timestamp"`
}
type rejectedResp struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func basicUser(p model.Principal, role string) userPart {
	return userPart{ID: p.SubjectID(), Name: p.DisplayName(), Email: p.EmailAddress(), Role: role}
}

// loginUser adds the seller profile, when one was found, to the basic view.
func loginUser(p model.Principal, role string) userPart {
	u := basicUser(p, role)
	if up, ok := p.(model.UserPrincipal); ok && up.Seller != nil {
		active, approved := up.Seller.IsActive, up.Seller.IsApproved
		u.RestaurantName = up.Seller.RestaurantName
		u.Station = up.Seller.Station
		u.IsActive = &active
		u.IsApproved = &approved
	}
	return u
}

// Register: create the account and return a token immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req validator.RegistrationInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	reg, err := h.Auth.Register(ctx, req)
	if err != nil {
		h.Metrics.Registrations.WithLabelValues(resultOf(err), roleLabel(req.Normalize().Role)).Inc()
		return h.fail(c, err)
	}
	h.Metrics.Registrations.WithLabelValues(metrics.ResultSuccess, reg.Role).Inc()

	return c.JSON(http.StatusCreated, registerResp{
		Message: reg.Message,
		Token:   reg.Token.Token,
		User:    basicUser(reg.Principal, reg.Role),
	})
}

// Login: validate, resolve the principal and return a token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req validator.Credentials
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
	}

	res := validator.Check(req)
	if !res.IsValid {
		h.Metrics.Logins.WithLabelValues(metrics.ResultInvalid, "").Inc()
		return c.JSON(http.StatusBadRequest, loginInvalidResp{
			Message:   res.Error,
			Field:     res.Field,
			Timestamp: res.Timestamp,
		})
	}
	if res.SecurityChecks.IsCommonPassword {
		h.Log.Debug(c.Request().Context(), "login with a common password")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	out, err := h.Auth.ResolveLogin(ctx, res.SanitizedData)
	if err != nil {
		h.Metrics.Logins.WithLabelValues(metrics.ResultError, "").Inc()
		return h.serverError(c, err)
	}

	switch o := out.(type) {
	case service.Authenticated:
		tok, err := h.Auth.Issue(o)
		if err != nil {
			h.Metrics.Logins.WithLabelValues(metrics.ResultError, o.Role).Inc()
			return h.serverError(c, err)
		}
		h.Metrics.Logins.WithLabelValues(metrics.ResultSuccess, o.Role).Inc()
		return c.JSON(http.StatusOK, loginResp{Token: tok.Token, User: loginUser(o.Principal, o.Role)})
	case service.Rejected:
		h.Metrics.Logins.WithLabelValues(metrics.ResultRejected, "").Inc()
		return c.JSON(http.StatusUnauthorized, rejectedResp{Message: o.Reason, Timestamp: res.Timestamp})
	default:
		return h.serverError(c, oops.Errorf("unexpected login outcome %T", out))
	}
}

// ForgetPassword: issue and mail a reset OTP.
func (h *AuthHandler) ForgetPassword(c echo.Context) error {
	var req forgetReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Resets.RequestReset(ctx, req.Email); err != nil {
		h.Metrics.ResetRequests.WithLabelValues(resultOf(err)).Inc()
		return h.fail(c, err)
	}
	h.Metrics.ResetRequests.WithLabelValues(metrics.ResultSuccess).Inc()
	return c.JSON(http.StatusOK, echo.Map{"message": "OTP sent to your email"})
}

// ResetPassword: redeem an OTP and set the new password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Resets.ConfirmReset(ctx, req.Email, req.OTP, req.NewPassword); err != nil {
		h.Metrics.ResetConfirmations.WithLabelValues(resultOf(err)).Inc()
		return h.fail(c, err)
	}
	h.Metrics.ResetConfirmations.WithLabelValues(metrics.ResultSuccess).Inc()
	return c.JSON(http.StatusOK, echo.Map{"message": "Password reset successful"})
}

// Verify: return the account behind the bearer token.  Must sit behind
// middleware.JWTAuth.
func (h *AuthHandler) Verify(c echo.Context) error {
	claims := middleware.Claims(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	p, role, err := h.Auth.Lookup(ctx, claims)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": basicUser(p, role)})
}

// roleLabel keeps client-supplied roles out of metric labels.
func roleLabel(role string) string {
	switch role {
	case model.RoleCustomer, model.RoleSeller, model.RoleDeliveryAgent:
		return role
	default:
		return metrics.RoleOther
	}
}

// statusFor maps service error codes to HTTP statuses.  Unknown codes are
// server errors.
func statusFor(err error) int {
	switch service.Code(err) {
	case validator.CodeValidation, service.CodeEmailConflict, service.CodeResetInvalid:
		return http.StatusBadRequest
	case service.CodeUserNotFound:
		return http.StatusNotFound
	case service.CodeUnknownSubject:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func resultOf(err error) string {
	if statusFor(err) == http.StatusInternalServerError {
		return metrics.ResultError
	}
	return metrics.ResultInvalid
}

// fail writes a business error as {message} or falls back to serverError.
func (h *AuthHandler) fail(c echo.Context, err error) error {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		return h.serverError(c, err)
	}
	return c.JSON(status, echo.Map{"message": oops.GetPublic(err, service.MsgServerError)})
}

// serverError logs err and writes the 500 body.  The error detail is only
// exposed in development.
func (h *AuthHandler) serverError(c echo.Context, err error) error {
	logging.LogError(c.Request().Context(), h.Log, "request failed", err)
	detail := "Internal server error"
	if h.Cfg.IsDevelopment() {
		detail = err.Error()
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"message": service.MsgServerError, "error": detail})
}
