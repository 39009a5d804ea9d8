// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"net/http"

	"codeberg.org/stemmww/recipeshare/internal/assets"
	"codeberg.org/stemmww/recipeshare/internal/handlers"
	mw "codeberg.org/stemmww/recipeshare/internal/middleware"
	"codeberg.org/stemmww/recipeshare/internal/services/token"
	"github.com/labstack/echo/v4"
)

const eventsPath = "/events"

// infoPages are the static content pages, served at /<key>.
var infoPages = []string{"guide", "aboutus", "contact"}

// setupRoutes registers every route. Guards are attached per route: an
// Echo group with middleware also guards its not-found catch-all, which
// for an empty prefix would be every unknown URL.
func setupRoutes(e *echo.Echo, h *handlers.Handlers, tokens *token.Service) {
	e.GET("/static/*", echo.WrapHandler(http.StripPrefix("/static", assets.FileServer())))

	// Public pages
	e.GET("/health", h.Health)
	e.GET("/", h.Index)
	e.GET("/recipes", h.RecipesPage)
	for _, page := range infoPages {
		e.GET("/"+page, h.InfoPage(page))
	}

	e.GET("/register", h.RegisterPage)
	e.POST("/register", h.Register)
	e.GET("/login", h.LoginPage)
	e.POST("/login", h.Login)
	e.GET("/logout", h.Logout)
	e.POST("/logout", h.Logout)

	// Signed in, second factor still pending
	signedIn := mw.RequireAuth()
	e.GET("/verify-otp", h.VerifyOTPPage, signedIn)
	e.POST("/verify-otp", h.VerifyOTP, signedIn)

	// Signed in and verified
	verified := mw.RequireVerified()
	e.GET("/setup-2fa", h.SetupTwoFactorPage, verified)
	e.POST("/setup-2fa", h.SetupTwoFactor, verified)
	e.GET("/profile", h.Profile, verified)
	e.GET("/token", h.Token, verified)
	e.GET("/settings", h.Settings, verified)
	e.GET("/users/update/:id", h.UpdateUserPage, verified)
	e.POST("/users/update/:id", h.UpdateUser, verified)
	e.POST("/users/delete/:id", h.DeleteUser, verified)
	e.GET(eventsPath, h.Events, verified)

	// JSON API
	bearer := mw.RequireToken(tokens)
	api := e.Group("/api")
	api.GET("/recipes", h.ListRecipes)
	api.GET("/recipes/:id", h.GetRecipe)
	api.POST("/recipes", h.CreateRecipe, bearer)
	api.PUT("/recipes/:id", h.UpdateRecipe, bearer)
	api.DELETE("/recipes/:id", h.DeleteRecipe, bearer)
	api.GET("/users/me/recipes", h.MyRecipes, bearer)
	api.GET("/favorites", h.ListFavorites, bearer)
	api.POST("/favorites/:recipeID", h.AddFavorite, bearer)
	api.DELETE("/favorites/:recipeID", h.RemoveFavorite, bearer)
}
