// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package templates

import (
	"context"
	"strconv"

	"codeberg.org/stemmww/recipeshare/internal/models"
	"github.com/a-h/templ"
)

// Index renders the home page. Signed-in users see the member list.
func Index(users []models.User, recipeCount int64) templ.Component {
	return component(func(ctx context.Context, h *html) {
		user := GetUser(ctx)
		if user == nil {
			h.tag("h1", T(ctx, "home_title"))
			h.tag("p", T(ctx, "home_intro"))
			if recipeCount > 0 {
				h.tag("p", TPlural(ctx, "home_recipe_count", int(recipeCount)))
			}
			h.raw("<p>")
			h.link("/login", T(ctx, "nav_login"))
			h.raw(" · ")
			h.link("/register", T(ctx, "nav_register"))
			h.raw("</p>")
			return
		}

		h.tag("h1", TData(ctx, "home_welcome", map[string]any{"Name": user.Name}))
		if !user.TOTPEnabled {
			h.raw("<p>")
			h.link("/setup-2fa", T(ctx, "home_enable_2fa"))
			h.raw("</p>")
		}
		h.tag("h2", T(ctx, "home_users"))
		h.raw("<table><thead><tr>")
		h.tag("th", T(ctx, "label_name"))
		h.tag("th", T(ctx, "label_email"))
		h.tag("th", T(ctx, "label_age"))
		h.raw("<th></th></tr></thead><tbody>")
		for i := range users {
			u := &users[i]
			h.raw("<tr>")
			h.tag("td", u.Name)
			h.tag("td", u.Email)
			h.tag("td", ageText(u.Age))
			h.raw("<td>")
			if u.ID == user.ID {
				id := strconv.FormatInt(u.ID, 10)
				h.link("/users/update/"+id, T(ctx, "action_edit"))
				h.raw(" ")
				h.postButton(ctx, "/users/delete/"+id, "action_delete")
			}
			h.raw("</td></tr>")
		}
		h.raw("</tbody></table>")
	})
}

func ageText(age int) string {
	if age <= 0 {
		return ""
	}
	return itoa(age)
}

// Profile shows the signed-in user's account details.
func Profile(user *models.User, recoveryCodesLeft int64) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.tag("h1", T(ctx, "profile_title"))
		h.raw("<dl>")
		h.tag("dt", T(ctx, "label_name"))
		h.tag("dd", user.Name)
		h.tag("dt", T(ctx, "label_email"))
		h.tag("dd", user.Email)
		h.tag("dt", T(ctx, "label_age"))
		h.tag("dd", ageText(user.Age))
		h.tag("dt", T(ctx, "profile_2fa"))
		if user.TOTPEnabled {
			h.tag("dd", TPlural(ctx, "profile_2fa_on", int(recoveryCodesLeft)))
		} else {
			h.tag("dd", T(ctx, "profile_2fa_off"))
		}
		h.raw("</dl><p>")
		h.link("/users/update/"+strconv.FormatInt(user.ID, 10), T(ctx, "action_edit"))
		h.raw(" · ")
		h.link("/token", T(ctx, "profile_api_token"))
		h.raw("</p>")
	})
}

// UserUpdate renders the profile edit form.
func UserUpdate(user *models.User, errs []string) templ.Component {
	return component(func(ctx context.Context, h *html) {
		id := strconv.FormatInt(user.ID, 10)
		h.tag("h1", T(ctx, "user_update_title"))
		h.errors(errs...)
		h.open("form", "method", "post", "action", "/users/update/"+id)
		h.csrfField(ctx)
		h.field(ctx, "text", "name", "label_name", user.Name, true)
		h.field(ctx, "number", "age", "label_age", ageText(user.Age), false)
		h.tag("button", T(ctx, "action_save"), "type", "submit")
		h.raw("</form>")
		h.postButton(ctx, "/users/delete/"+id, "action_delete_account")
	})
}

// Settings shows the account security options.
func Settings(user *models.User) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.tag("h1", T(ctx, "page_settings_title"))
		h.tag("h2", T(ctx, "profile_2fa"))
		if user.TOTPEnabled {
			h.tag("p", T(ctx, "settings_2fa_enabled"))
			h.raw("<p>")
			h.link("/setup-2fa", T(ctx, "settings_regenerate_codes"))
			h.raw("</p>")
		} else {
			h.tag("p", T(ctx, "settings_2fa_disabled"))
			h.raw("<p>")
			h.link("/setup-2fa", T(ctx, "home_enable_2fa"))
			h.raw("</p>")
		}
		h.tag("h2", T(ctx, "settings_language"))
		h.raw("<p>")
		h.link("/settings?lang=en", "English")
		h.raw(" · ")
		h.link("/settings?lang=ru", "Русский")
		h.raw("</p>")
	})
}

// TokenPage shows a freshly issued API bearer token.
func TokenPage(tokenString string, expiresIn int64) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.tag("h1", T(ctx, "token_title"))
		h.tag("p", TData(ctx, "token_help", map[string]any{"Seconds": expiresIn}))
		h.tag("pre", tokenString, "class", "codes")
	})
}

// InfoPage renders one of the static content pages by key.
func InfoPage(key string) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.tag("h1", T(ctx, "page_"+key+"_title"))
		h.tag("p", T(ctx, "page_"+key+"_body"))
	})
}

// Recipes lists recipes with a search box.
func Recipes(recipes []models.Recipe, query string) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.tag("h1", T(ctx, "page_recipes_title"))
		h.raw(`<form method="get" action="/recipes">`)
		h.raw(`<input type="search" name="q"`)
		h.attr("value", query)
		h.attr("placeholder", T(ctx, "recipes_search"))
		h.raw(">")
		h.tag("button", T(ctx, "recipes_search"), "type", "submit")
		h.raw("</form>")

		if len(recipes) == 0 {
			h.tag("p", T(ctx, "recipes_empty"))
			return
		}
		for i := range recipes {
			r := &recipes[i]
			h.raw(`<article>`)
			h.tag("h2", r.Title)
			h.tag("p", TData(ctx, "recipes_meta", map[string]any{
				"Author":  r.AuthorName,
				"Minutes": r.CookingTime,
			}), "class", "meta")
			if r.Description != "" {
				h.tag("p", r.Description)
			}
			if len(r.Ingredients) > 0 {
				h.raw("<ul>")
				for _, ing := range r.Ingredients {
					h.tag("li", ing)
				}
				h.raw("</ul>")
			}
			h.raw(`</article>`)
		}
	})
}

// ErrorPage renders an error with its status code.
func ErrorPage(code int, message string) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.tag("h1", itoa(code))
		h.tag("p", message)
		h.raw("<p>")
		h.link("/", T(ctx, "error_back_home"))
		h.raw("</p>")
	})
}
