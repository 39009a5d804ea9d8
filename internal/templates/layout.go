// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package templates

import (
	"context"

	"codeberg.org/stemmww/recipeshare/internal/assets"
	"github.com/a-h/templ"
)

// Layout wraps page content in the HTML document and navigation.
func Layout(title string, content templ.Component) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.raw("<!DOCTYPE html>")
		h.open("html", "lang", Locale(ctx))
		h.raw(`<head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.tag("title", title+" · "+T(ctx, "app_name"))
		h.open("link", "rel", "stylesheet", "href", assets.CSSPath())
		if IsAuthenticated(ctx) {
			h.tag("script", "", "defer", "defer", "src", assets.JSPath())
		}
		h.raw("</head><body>")
		nav(ctx, h)
		h.raw("<main>")
		h.render(ctx, content)
		h.raw("</main></body></html>")
	})
}

func nav(ctx context.Context, h *html) {
	h.raw("<nav>")
	h.tag("a", T(ctx, "app_name"), "href", "/", "class", "brand")
	h.link("/recipes", T(ctx, "nav_recipes"))
	h.link("/guide", T(ctx, "nav_guide"))
	h.link("/aboutus", T(ctx, "nav_about"))
	h.link("/contact", T(ctx, "nav_contact"))
	h.raw(`<span class="spacer"></span>`)
	if IsAuthenticated(ctx) {
		h.link("/profile", T(ctx, "nav_profile"))
		h.link("/settings", T(ctx, "nav_settings"))
		h.postButton(ctx, "/logout", "nav_logout")
	} else {
		h.link("/login", T(ctx, "nav_login"))
		h.link("/register", T(ctx, "nav_register"))
	}
	for _, lang := range []string{"en", "ru"} {
		if lang == Locale(ctx) {
			continue
		}
		h.link("?lang="+lang, lang)
	}
	h.raw("</nav>")
}
