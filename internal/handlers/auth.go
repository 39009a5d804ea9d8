// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"codeberg.org/stemmww/recipeshare/internal/appcontext"
	"codeberg.org/stemmww/recipeshare/internal/htmx"
	"codeberg.org/stemmww/recipeshare/internal/services/auth"
	"codeberg.org/stemmww/recipeshare/internal/templates"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
)

// RegisterPage renders the registration form.
func (h *Handlers) RegisterPage(c echo.Context) error {
	return h.renderRegister(c, http.StatusOK, templates.RegisterForm{})
}

// Register creates an account from a form post or a JSON body.
func (h *Handlers) Register(c echo.Context) error {
	var params auth.RegisterParams
	if err := c.Bind(&params); err != nil {
		if wantsJSON(c) {
			return jsonError(c, http.StatusBadRequest, "invalid request body")
		}
		return h.renderRegister(c, http.StatusBadRequest, templates.RegisterForm{
			Errors: []string{templates.T(c.Request().Context(), "error_bad_request")},
		})
	}

	user, err := h.auth.Register(c.Request().Context(), params)
	if err != nil {
		status, messageIDs := registerError(err)
		if status == http.StatusInternalServerError {
			return internalError(c, "register_failed", err)
		}
		slog.Info("register_rejected", "email", params.Email, "reason", err)

		if wantsJSON(c) {
			return jsonError(c, status, err.Error())
		}
		ctx := c.Request().Context()
		return h.renderRegister(c, status, templates.RegisterForm{
			Name:  params.Name,
			Email: params.Email,
			Age:   ageValue(params.Age),
			Errors: lo.Map(messageIDs, func(id string, _ int) string {
				return templates.T(ctx, id)
			}),
		})
	}

	if wantsJSON(c) {
		return c.JSON(http.StatusCreated, user)
	}
	return htmx.Redirect(c, "/login")
}

// registerError maps a registration error to a status and message ids.
func registerError(err error) (int, []string) {
	var policyErr *auth.PasswordError
	switch {
	case errors.As(err, &policyErr):
		return http.StatusBadRequest, lo.Map(policyErr.Codes(), func(code string, _ int) string {
			return "error_" + code
		})
	case errors.Is(err, auth.ErrUserExists):
		return http.StatusConflict, []string{"error_user_exists"}
	case errors.Is(err, auth.ErrRegistrationClosed):
		return http.StatusForbidden, []string{"error_registration_closed"}
	case errors.Is(err, auth.ErrInvalidEmail):
		return http.StatusBadRequest, []string{"error_invalid_email"}
	case errors.Is(err, auth.ErrInvalidName):
		return http.StatusBadRequest, []string{"error_invalid_name"}
	case errors.Is(err, auth.ErrInvalidAge):
		return http.StatusBadRequest, []string{"error_invalid_age"}
	default:
		return http.StatusInternalServerError, nil
	}
}

func (h *Handlers) renderRegister(c echo.Context, status int, form templates.RegisterForm) error {
	title := templates.T(c.Request().Context(), "register_title")
	return Render(c, status, templates.Layout(title, templates.Register(form)))
}

func ageValue(age int) string {
	if age <= 0 {
		return ""
	}
	return strconv.Itoa(age)
}

type loginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// LoginPage renders the login form.
func (h *Handlers) LoginPage(c echo.Context) error {
	if appcontext.Get(c).IsAuthenticated() {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	return h.renderLogin(c, http.StatusOK, templates.LoginForm{})
}

// Login checks the credentials and starts a session. Users without a second
// factor get their bearer token right away; the others get it from VerifyOTP.
func (h *Handlers) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		if wantsJSON(c) {
			return jsonError(c, http.StatusBadRequest, "invalid request body")
		}
		return h.renderLogin(c, http.StatusBadRequest, templates.LoginForm{
			Error: templates.T(c.Request().Context(), "error_bad_request"),
		})
	}
	req.Email = strings.TrimSpace(req.Email)

	ctx := c.Request().Context()
	user, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		var (
			status    int
			messageID string
		)
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			status, messageID = http.StatusUnauthorized, "error_invalid_credentials"
		case errors.Is(err, auth.ErrAccountLocked):
			status, messageID = http.StatusLocked, "error_account_locked"
		default:
			return internalError(c, "login_error", err)
		}
		if wantsJSON(c) {
			return jsonError(c, status, err.Error())
		}
		return h.renderLogin(c, status, templates.LoginForm{
			Email: req.Email,
			Error: templates.T(ctx, messageID),
		})
	}

	if user.RequiresOTP() {
		cookie, err := h.sessions.Create(user.ID, user.Name, "")
		if err != nil {
			return internalError(c, "session_create_failed", err)
		}
		c.SetCookie(cookie)

		if wantsJSON(c) {
			return c.JSON(http.StatusOK, otpRequiredResponse{OTPRequired: true})
		}
		return htmx.Redirect(c, "/verify-otp")
	}

	tokenString, err := h.tokens.Issue(user.ID, user.Name)
	if err != nil {
		return internalError(c, "token_issue_failed", err)
	}
	cookie, err := h.sessions.Create(user.ID, user.Name, tokenString)
	if err != nil {
		return internalError(c, "session_create_failed", err)
	}
	c.SetCookie(cookie)

	if wantsJSON(c) {
		return c.JSON(http.StatusOK, newTokenResponse(tokenString, h.tokens.TTL()))
	}
	return htmx.Redirect(c, "/")
}

type otpRequiredResponse struct {
	OTPRequired bool `json:"otp_required"`
}

func (h *Handlers) renderLogin(c echo.Context, status int, form templates.LoginForm) error {
	title := templates.T(c.Request().Context(), "login_title")
	return Render(c, status, templates.Layout(title, templates.Login(form)))
}

// Logout clears the session cookie.
func (h *Handlers) Logout(c echo.Context) error {
	cc := appcontext.Get(c)
	if cc.User != nil {
		slog.Info("logout", "user_id", cc.User.ID)
	}
	c.SetCookie(h.sessions.Clear())
	return htmx.Redirect(c, "/login")
}

// SetupTwoFactorPage renders the enrollment intro. It changes nothing.
func (h *Handlers) SetupTwoFactorPage(c echo.Context) error {
	cc := appcontext.Get(c)
	title := templates.T(c.Request().Context(), "setup_2fa_title")
	return Render(c, http.StatusOK, templates.Layout(title, templates.SetupTwoFactorStart(cc.User.TOTPEnabled)))
}

// SetupTwoFactor enrolls a new TOTP secret and shows it together with a
// fresh set of recovery codes. Any previous secret and codes stop working.
func (h *Handlers) SetupTwoFactor(c echo.Context) error {
	cc := appcontext.Get(c)
	ctx := c.Request().Context()
	user := cc.User

	enrollment, err := h.totp.Generate(user.Email)
	if err != nil {
		return internalError(c, "totp_generate_failed", err)
	}
	if err := h.repo.SetTOTPSecret(ctx, user.ID, enrollment.Secret); err != nil {
		return internalError(c, "totp_store_failed", err)
	}
	codes, err := h.recovery.Issue(ctx, user.ID)
	if err != nil {
		return internalError(c, "recovery_issue_failed", err)
	}

	slog.Info("totp_enabled", "user_id", user.ID)

	title := templates.T(ctx, "setup_2fa_title")
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return Render(c, http.StatusOK, templates.Layout(title,
		templates.SetupTwoFactor(enrollment.QRDataURL, enrollment.Secret, codes)))
}

type verifyRequest struct {
	OTP string `form:"otp" json:"otp"`
}

// VerifyOTPPage renders the second login step.
func (h *Handlers) VerifyOTPPage(c echo.Context) error {
	if !appcontext.Get(c).NeedsOTP() {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	return h.renderVerify(c, http.StatusOK, "")
}

// VerifyOTP accepts a TOTP code or an unused recovery code, marks the
// session verified and issues the bearer token. Wrong codes count towards
// the account lock.
func (h *Handlers) VerifyOTP(c echo.Context) error {
	cc := appcontext.Get(c)
	ctx := c.Request().Context()

	if !cc.NeedsOTP() {
		return htmx.Redirect(c, "/")
	}
	if cc.User.AccountLocked {
		return h.otpLocked(c)
	}

	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	code := strings.TrimSpace(req.OTP)

	method := "totp"
	if err := h.totp.Validate(code, cc.User.TOTPSecret); err != nil {
		used, redeemErr := h.recovery.Redeem(ctx, cc.User.ID, code)
		if redeemErr != nil {
			return internalError(c, "recovery_redeem_failed", redeemErr)
		}
		if !used {
			switch err := h.auth.RecordFailedOTP(ctx, cc.User.ID); {
			case errors.Is(err, auth.ErrAccountLocked):
				return h.otpLocked(c)
			case !errors.Is(err, auth.ErrInvalidOTP):
				return internalError(c, "otp_record_failed", err)
			}
			if wantsJSON(c) {
				return jsonError(c, http.StatusUnauthorized, "invalid OTP")
			}
			return h.renderVerify(c, http.StatusUnauthorized, templates.T(ctx, "error_invalid_otp"))
		}
		method = "recovery_code"
	}

	if cc.User.OTPFailedAttempts > 0 {
		if err := h.auth.ResetOTPFailures(ctx, cc.User.ID); err != nil {
			return internalError(c, "otp_reset_failed", err)
		}
	}

	tokenString, err := h.tokens.Issue(cc.User.ID, cc.User.Name)
	if err != nil {
		return internalError(c, "token_issue_failed", err)
	}
	data := *cc.Session
	data.Verified = true
	data.Token = tokenString
	cookie, err := h.sessions.Save(&data)
	if err != nil {
		return internalError(c, "session_save_failed", err)
	}
	c.SetCookie(cookie)
	slog.Info("otp_verified", "user_id", cc.User.ID, "method", method)

	if wantsJSON(c) {
		return c.JSON(http.StatusOK, verifiedResponse{
			Verified:      true,
			tokenResponse: newTokenResponse(tokenString, h.tokens.TTL()),
		})
	}
	return htmx.Redirect(c, "/")
}

type verifiedResponse struct {
	Verified bool `json:"verified"`
	tokenResponse
}

// otpLocked ends the half-finished login of a locked account.
func (h *Handlers) otpLocked(c echo.Context) error {
	c.SetCookie(h.sessions.Clear())
	if wantsJSON(c) {
		return jsonError(c, http.StatusLocked, auth.ErrAccountLocked.Error())
	}
	return h.renderLogin(c, http.StatusLocked, templates.LoginForm{
		Error: templates.T(c.Request().Context(), "error_account_locked"),
	})
}

func (h *Handlers) renderVerify(c echo.Context, status int, errMsg string) error {
	title := templates.T(c.Request().Context(), "verify_otp_title")
	return Render(c, status, templates.Layout(title, templates.VerifyOTP(errMsg)))
}

// Profile shows the signed-in user.
func (h *Handlers) Profile(c echo.Context) error {
	cc := appcontext.Get(c)
	ctx := c.Request().Context()

	var remaining int64
	if cc.User.TOTPEnabled {
		var err error
		if remaining, err = h.recovery.Remaining(ctx, cc.User.ID); err != nil {
			return internalError(c, "recovery_count_failed", err)
		}
	}

	title := templates.T(ctx, "profile_title")
	return Render(c, http.StatusOK, templates.Layout(title, templates.Profile(cc.User, remaining)))
}

type tokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

func newTokenResponse(tokenString string, ttl time.Duration) tokenResponse {
	return tokenResponse{
		Token:     tokenString,
		TokenType: "Bearer",
		ExpiresIn: int64(ttl / time.Second),
	}
}

// Token hands the session's bearer token to browser code. An expired
// token is replaced and the session cookie rewritten.
func (h *Handlers) Token(c echo.Context) error {
	cc := appcontext.Get(c)
	data := cc.Session
	ttl := h.tokens.TTL()

	if claims, err := h.tokens.Parse(data.Token); err == nil {
		ttl = time.Until(claims.ExpiresAt.Time).Round(time.Second)
	} else {
		tokenString, issueErr := h.tokens.Issue(cc.User.ID, cc.User.Name)
		if issueErr != nil {
			return internalError(c, "token_issue_failed", issueErr)
		}
		refreshed := *data
		refreshed.Token = tokenString
		cookie, saveErr := h.sessions.Save(&refreshed)
		if saveErr != nil {
			return internalError(c, "session_save_failed", saveErr)
		}
		c.SetCookie(cookie)
		data = &refreshed
		slog.Debug("token_refreshed", "user_id", cc.User.ID)
	}

	resp := newTokenResponse(data.Token, ttl)
	if prefersHTML(c) {
		title := templates.T(c.Request().Context(), "token_title")
		c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
		return Render(c, http.StatusOK, templates.Layout(title, templates.TokenPage(resp.Token, resp.ExpiresIn)))
	}
	return c.JSON(http.StatusOK, resp)
}

// prefersHTML reports a browser navigation as opposed to a fetch call.
func prefersHTML(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMETextHTML)
}
