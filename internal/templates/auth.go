// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package templates

import (
	"context"

	"codeberg.org/stemmww/recipeshare/internal/services/recovery"
	"github.com/a-h/templ"
)

// LoginForm carries the values redisplayed after a failed login.
type LoginForm struct {
	Email string
	Error string
}

// Login renders the sign-in form.
func Login(form LoginForm) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.tag("h1", T(ctx, "login_title"))
		if form.Error != "" {
			h.errors(form.Error)
		}
		h.raw(`<form method="post" action="/login">`)
		h.csrfField(ctx)
		h.field(ctx, "email", "email", "label_email", form.Email, true)
		h.field(ctx, "password", "password", "label_password", "", true)
		h.tag("button", T(ctx, "login_submit"), "type", "submit")
		h.raw("</form><p>")
		h.link("/register", T(ctx, "login_no_account"))
		h.raw("</p>")
	})
}

// RegisterForm carries the values redisplayed after a failed registration.
type RegisterForm struct {
	Name   string
	Email  string
	Age    string
	Errors []string
}

// Register renders the sign-up form.
func Register(form RegisterForm) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.tag("h1", T(ctx, "register_title"))
		h.errors(form.Errors...)
		h.raw(`<form method="post" action="/register">`)
		h.csrfField(ctx)
		h.field(ctx, "text", "name", "label_name", form.Name, true)
		h.field(ctx, "email", "email", "label_email", form.Email, true)
		h.field(ctx, "number", "age", "label_age", form.Age, false)
		h.field(ctx, "password", "password", "label_password", "", true)
		h.tag("p", T(ctx, "register_password_help"), "class", "help")
		h.tag("button", T(ctx, "register_submit"), "type", "submit")
		h.raw("</form><p>")
		h.link("/login", T(ctx, "register_have_account"))
		h.raw("</p>")
	})
}

// SetupTwoFactorStart explains enrollment and posts to /setup-2fa, which
// generates the secret.
func SetupTwoFactorStart(enabled bool) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.tag("h1", T(ctx, "setup_2fa_title"))
		h.tag("p", T(ctx, "setup_2fa_intro"))
		if enabled {
			h.tag("p", T(ctx, "setup_2fa_replace_warning"))
		}
		h.postButton(ctx, "/setup-2fa", "setup_2fa_start")
	})
}

// SetupTwoFactor shows the enrollment QR code and the one-time
// recovery codes.
func SetupTwoFactor(qrDataURL, secret string, codes []string) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.tag("h1", T(ctx, "setup_2fa_title"))
		h.tag("p", T(ctx, "setup_2fa_scan"))
		// data: URLs do not survive templ.URL sanitization
		h.raw("<img")
		h.attr("src", qrDataURL)
		h.attr("alt", T(ctx, "setup_2fa_qr_alt"))
		h.raw(` width="200" height="200">`)
		h.tag("p", T(ctx, "setup_2fa_manual"))
		h.tag("pre", secret, "class", "codes")

		h.tag("h2", T(ctx, "setup_2fa_recovery_title"))
		h.tag("p", T(ctx, "setup_2fa_recovery_help"))
		h.raw(`<ul class="codes">`)
		for _, code := range codes {
			h.tag("li", recovery.Format(code))
		}
		h.raw("</ul><p>")
		h.link("/verify-otp", T(ctx, "setup_2fa_continue"))
		h.raw("</p>")
	})
}

// VerifyOTP renders the second login step.
func VerifyOTP(errMsg string) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.tag("h1", T(ctx, "verify_otp_title"))
		if errMsg != "" {
			h.errors(errMsg)
		}
		h.tag("p", T(ctx, "verify_otp_help"))
		h.raw(`<form method="post" action="/verify-otp">`)
		h.csrfField(ctx)
		h.raw(`<label>`)
		h.text(T(ctx, "label_otp"))
		h.raw(`<input type="text" name="otp" inputmode="text" autocomplete="one-time-code" required autofocus></label>`)
		h.tag("button", T(ctx, "verify_otp_submit"), "type", "submit")
		h.raw("</form>")
	})
}
