// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package templates renders the server-side HTML pages as templ components.
package templates

import (
	"context"
	"io"
	"strconv"

	"codeberg.org/stemmww/recipeshare/internal/appcontext"
	"codeberg.org/stemmww/recipeshare/internal/i18n"
	"codeberg.org/stemmww/recipeshare/internal/models"
	"github.com/a-h/templ"
)

// CSRFToken returns the CSRF token from the context.
func CSRFToken(ctx context.Context) string {
	return appcontext.CSRFTokenFromContext(ctx)
}

// T translates a message by ID.
func T(ctx context.Context, messageID string) string {
	return i18n.T(ctx, messageID)
}

// TData translates a message with template data.
func TData(ctx context.Context, messageID string, data map[string]any) string {
	return i18n.TData(ctx, messageID, data)
}

// TPlural translates a message with plural support.
func TPlural(ctx context.Context, messageID string, count int) string {
	return i18n.TPlural(ctx, messageID, count)
}

// Locale returns the current locale.
func Locale(ctx context.Context) string {
	return i18n.GetLocale(ctx)
}

// GetUser returns the authenticated user from context, or nil if not logged in.
func GetUser(ctx context.Context) *models.User {
	return appcontext.UserFromContext(ctx)
}

// IsAuthenticated returns true if a user is logged in.
func IsAuthenticated(ctx context.Context) bool {
	return GetUser(ctx) != nil
}

// html accumulates output and keeps the first write error.
type html struct {
	w   io.Writer
	err error
}

func component(fn func(ctx context.Context, h *html)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		fn(ctx, h)
		return h.err
	})
}

// raw writes trusted markup.
func (h *html) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

// text writes escaped text.
func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

// attr writes name="value" with the value escaped.
func (h *html) attr(name, value string) {
	h.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

// href writes a sanitized link target.
func (h *html) href(url string) {
	h.attr("href", string(templ.URL(url)))
}

func (h *html) render(ctx context.Context, c templ.Component) {
	if h.err == nil && c != nil {
		h.err = c.Render(ctx, h.w)
	}
}

// tag writes <name attrs...>text</name>. attrs are name/value pairs.
func (h *html) tag(name, text string, attrs ...string) {
	h.open(name, attrs...)
	h.text(text)
	h.raw("</" + name + ">")
}

func (h *html) open(name string, attrs ...string) {
	h.raw("<" + name)
	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i] == "href" {
			h.href(attrs[i+1])
			continue
		}
		h.attr(attrs[i], attrs[i+1])
	}
	h.raw(">")
}

func (h *html) link(url, text string) {
	h.tag("a", text, "href", url)
}

func (h *html) csrfField(ctx context.Context) {
	h.raw(`<input type="hidden" name="csrf_token"`)
	h.attr("value", CSRFToken(ctx))
	h.raw(">")
}

// field renders a labelled input.
func (h *html) field(ctx context.Context, kind, name, labelID, value string, required bool) {
	h.raw(`<label>`)
	h.text(T(ctx, labelID))
	h.raw(`<input`)
	h.attr("type", kind)
	h.attr("name", name)
	if value != "" {
		h.attr("value", value)
	}
	if required {
		h.raw(" required")
	}
	h.raw("></label>")
}

func (h *html) errors(messages ...string) {
	if len(messages) == 0 {
		return
	}
	h.raw(`<div class="errors" role="alert"><ul>`)
	for _, msg := range messages {
		h.tag("li", msg)
	}
	h.raw("</ul></div>")
}

// postButton renders a one-button form, e.g. logout or delete.
func (h *html) postButton(ctx context.Context, action, labelID string) {
	h.open("form", "method", "post", "action", action, "class", "inline")
	h.csrfField(ctx)
	h.tag("button", T(ctx, labelID), "type", "submit")
	h.raw("</form>")
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
