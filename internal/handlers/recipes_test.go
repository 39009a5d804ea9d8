// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"codeberg.org/stemmww/recipeshare/internal/cache"
	"codeberg.org/stemmww/recipeshare/internal/models"
	"codeberg.org/stemmww/recipeshare/internal/repository"
	"codeberg.org/stemmww/recipeshare/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const borschtJSON = `{
	"title": "Borscht",
	"description": "Beet soup",
	"ingredients": ["beet", " cabbage ", ""],
	"instructions": "Simmer.",
	"cooking_time": 90
}`

func TestCreateRecipe(t *testing.T) {
	app := newTestApp(t)
	user := testutil.NewTestUser(t, app.repo, "ada@example.com")
	_, events := app.hub.Subscribe(user.ID)
	c, rec := app.jsonRequest(http.MethodPost, "/api/recipes", borschtJSON)

	require.NoError(t, app.h.CreateRecipe(withToken(c, user.ID)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	var got struct {
		Message string        `json:"message"`
		Recipe  models.Recipe `json:"recipe"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "recipe created", got.Message)
	assert.Equal(t, "Borscht", got.Recipe.Title)
	assert.Equal(t, models.Ingredients{"beet", "cabbage"}, got.Recipe.Ingredients)
	assert.Equal(t, user.ID, got.Recipe.CreatedBy)
	assert.Equal(t, "ada", got.Recipe.AuthorName)

	select {
	case msg := <-events:
		assert.Contains(t, msg, "event: recipe\n")
		assert.Contains(t, msg, `"action":"created"`)
	default:
		t.Fatal("expected a recipe event")
	}
}

func TestCreateRecipe_Invalid(t *testing.T) {
	app := newTestApp(t)
	user := testutil.NewTestUser(t, app.repo, "ada@example.com")

	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{"malformed", `{"title":`, "invalid request body"},
		{"missing title", `{"description":"d","ingredients":["a"],"instructions":"i","cooking_time":1}`, "title is required"},
		{"no ingredients", `{"title":"t","description":"d","ingredients":[],"instructions":"i","cooking_time":1}`, "at least one ingredient is required"},
		{"zero cooking time", `{"title":"t","description":"d","ingredients":["a"],"instructions":"i","cooking_time":0}`, "cooking_time must be a positive number of minutes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := app.jsonRequest(http.MethodPost, "/api/recipes", tt.body)

			require.NoError(t, app.h.CreateRecipe(withToken(c, user.ID)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"`+tt.expected+`"}`, rec.Body.String())
		})
	}

	count, err := app.repo.CountRecipes(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreateRecipe_DeletedUser(t *testing.T) {
	app := newTestApp(t)
	c, rec := app.jsonRequest(http.MethodPost, "/api/recipes", borschtJSON)

	require.NoError(t, app.h.CreateRecipe(withToken(c, 999)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListRecipes(t *testing.T) {
	app := newTestApp(t)
	user := testutil.NewTestUser(t, app.repo, "ada@example.com")
	testutil.NewTestRecipe(t, app.repo, user.ID, "Apple Pie")
	testutil.NewTestRecipe(t, app.repo, user.ID, "Borscht")
	testutil.NewTestRecipe(t, app.repo, user.ID, "Cherry Pie")

	tests := []struct {
		query    string
		expected []string
	}{
		{"", []string{"Cherry Pie", "Borscht", "Apple Pie"}},
		{"?q=pie", []string{"Cherry Pie", "Apple Pie"}},
		{"?limit=1&offset=1", []string{"Borscht"}},
		{"?q=lasagna", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, rec := app.request(http.MethodGet, "/api/recipes"+tt.query, "", nil)

			require.NoError(t, app.h.ListRecipes(c))

			assert.Equal(t, http.StatusOK, rec.Code)
			var got []models.Recipe
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			titles := make([]string, len(got))
			for i, r := range got {
				titles[i] = r.Title
			}
			assert.Equal(t, tt.expected, titles)
		})
	}
}

func TestMyRecipes(t *testing.T) {
	app := newTestApp(t)
	ada := testutil.NewTestUser(t, app.repo, "ada@example.com")
	bob := testutil.NewTestUser(t, app.repo, "bob@example.com")
	testutil.NewTestRecipe(t, app.repo, ada.ID, "Borscht")
	testutil.NewTestRecipe(t, app.repo, bob.ID, "Goulash")
	c, rec := app.request(http.MethodGet, "/api/users/me/recipes", "", nil)

	require.NoError(t, app.h.MyRecipes(withToken(c, ada.ID)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Borscht")
	assert.NotContains(t, rec.Body.String(), "Goulash")
}

func TestGetRecipe(t *testing.T) {
	app := newTestApp(t)
	user := testutil.NewTestUser(t, app.repo, "ada@example.com")
	recipe := testutil.NewTestRecipe(t, app.repo, user.ID, "Borscht")
	id := strconv.FormatInt(recipe.ID, 10)
	c, rec := app.request(http.MethodGet, "/api/recipes/"+id, "", nil)

	require.NoError(t, app.h.GetRecipe(withParam(c, "id", id)))

	assert.Equal(t, http.StatusOK, rec.Code)
	var got models.Recipe
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Borscht", got.Title)
	assert.Equal(t, "ada", got.AuthorName)
}

func TestGetRecipe_Errors(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		id       string
		expected int
		body     string
	}{
		{"999", http.StatusNotFound, `{"error":"recipe not found"}`},
		{"abc", http.StatusBadRequest, `{"error":"invalid recipe id"}`},
		{"-1", http.StatusBadRequest, `{"error":"invalid recipe id"}`},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			c, rec := app.request(http.MethodGet, "/api/recipes/"+tt.id, "", nil)

			require.NoError(t, app.h.GetRecipe(withParam(c, "id", tt.id)))

			assert.Equal(t, tt.expected, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestUpdateRecipe_Partial(t *testing.T) {
	app := newTestApp(t)
	user := testutil.NewTestUser(t, app.repo, "ada@example.com")
	recipe := testutil.NewTestRecipe(t, app.repo, user.ID, "Borscht")
	id := strconv.FormatInt(recipe.ID, 10)
	c, rec := app.jsonRequest(http.MethodPut, "/api/recipes/"+id, `{"cooking_time": 120}`)

	require.NoError(t, app.h.UpdateRecipe(withToken(withParam(c, "id", id), user.ID)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message":"recipe updated"`)

	stored, err := app.repo.GetRecipeByID(context.Background(), recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, 120, stored.CookingTime)
	assert.Equal(t, "Borscht", stored.Title)
	assert.Equal(t, recipe.Ingredients, stored.Ingredients)
}

func TestUpdateRecipe_Invalid(t *testing.T) {
	app := newTestApp(t)
	user := testutil.NewTestUser(t, app.repo, "ada@example.com")
	recipe := testutil.NewTestRecipe(t, app.repo, user.ID, "Borscht")
	id := strconv.FormatInt(recipe.ID, 10)
	c, rec := app.jsonRequest(http.MethodPut, "/api/recipes/"+id, `{"title": " "}`)

	require.NoError(t, app.h.UpdateRecipe(withToken(withParam(c, "id", id), user.ID)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"title is required"}`, rec.Body.String())
}

func TestWriteRecipe_Ownership(t *testing.T) {
	app := newTestApp(t)
	owner := testutil.NewTestUser(t, app.repo, "ada@example.com")
	other := testutil.NewTestUser(t, app.repo, "bob@example.com")
	recipe := testutil.NewTestRecipe(t, app.repo, owner.ID, "Borscht")
	id := strconv.FormatInt(recipe.ID, 10)

	c, rec := app.jsonRequest(http.MethodPut, "/api/recipes/"+id, `{"title":"Mine now"}`)
	require.NoError(t, app.h.UpdateRecipe(withToken(withParam(c, "id", id), other.ID)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	c, rec = app.request(http.MethodDelete, "/api/recipes/"+id, "", nil)
	require.NoError(t, app.h.DeleteRecipe(withToken(withParam(c, "id", id), other.ID)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	stored, err := app.repo.GetRecipeByID(context.Background(), recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Borscht", stored.Title)
}

func TestWriteRecipe_NotFound(t *testing.T) {
	app := newTestApp(t)
	user := testutil.NewTestUser(t, app.repo, "ada@example.com")

	c, rec := app.jsonRequest(http.MethodPut, "/api/recipes/999", `{"title":"x"}`)
	require.NoError(t, app.h.UpdateRecipe(withToken(withParam(c, "id", "999"), user.ID)))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c, rec = app.request(http.MethodDelete, "/api/recipes/999", "", nil)
	require.NoError(t, app.h.DeleteRecipe(withToken(withParam(c, "id", "999"), user.ID)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteRecipe(t *testing.T) {
	app := newTestApp(t)
	user := testutil.NewTestUser(t, app.repo, "ada@example.com")
	recipe := testutil.NewTestRecipe(t, app.repo, user.ID, "Borscht")
	id := strconv.FormatInt(recipe.ID, 10)
	_, events := app.hub.Subscribe(0)
	c, rec := app.request(http.MethodDelete, "/api/recipes/"+id, "", nil)

	require.NoError(t, app.h.DeleteRecipe(withToken(withParam(c, "id", id), user.ID)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"recipe deleted"}`, rec.Body.String())
	_, err := app.repo.GetRecipeByID(context.Background(), recipe.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	msg := <-events
	assert.True(t, strings.Contains(msg, `"action":"deleted"`), msg)
	assert.NotContains(t, msg, `"data"`)
}

// fetchRecipe runs GET /api/recipes/:id and returns the recorder.
func (a *testApp) fetchRecipe(t *testing.T, id int64) *httptest.ResponseRecorder {
	t.Helper()
	param := strconv.FormatInt(id, 10)
	c, rec := a.request(http.MethodGet, "/api/recipes/"+param, "", nil)
	require.NoError(t, a.h.GetRecipe(withParam(c, "id", param)))
	return rec
}

func TestGetRecipe_ReadsThroughCache(t *testing.T) {
	recipes, mr := testutil.NewTestCache(t)
	app := newTestAppWithCache(t, recipes)
	user := testutil.NewTestUser(t, app.repo, "ada@example.com")
	recipe := testutil.NewTestRecipe(t, app.repo, user.ID, "Borscht")

	require.Equal(t, http.StatusOK, app.fetchRecipe(t, recipe.ID).Code)
	assert.True(t, mr.Exists(cache.RecipeKey(recipe.ID)))

	// Changed behind the cache's back: the cached copy is served.
	recipe.Title = "Shchi"
	require.NoError(t, app.repo.UpdateRecipe(context.Background(), recipe))

	var got models.Recipe
	require.NoError(t, json.Unmarshal(app.fetchRecipe(t, recipe.ID).Body.Bytes(), &got))
	assert.Equal(t, "Borscht", got.Title)
	assert.Equal(t, "ada", got.AuthorName)
}

func TestUpdateRecipe_EvictsCache(t *testing.T) {
	recipes, mr := testutil.NewTestCache(t)
	app := newTestAppWithCache(t, recipes)
	user := testutil.NewTestUser(t, app.repo, "ada@example.com")
	recipe := testutil.NewTestRecipe(t, app.repo, user.ID, "Borscht")
	id := strconv.FormatInt(recipe.ID, 10)
	require.Equal(t, http.StatusOK, app.fetchRecipe(t, recipe.ID).Code)

	c, rec := app.jsonRequest(http.MethodPut, "/api/recipes/"+id, `{"title": "Shchi"}`)
	require.NoError(t, app.h.UpdateRecipe(withToken(withParam(c, "id", id), user.ID)))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.False(t, mr.Exists(cache.RecipeKey(recipe.ID)))
	var got models.Recipe
	require.NoError(t, json.Unmarshal(app.fetchRecipe(t, recipe.ID).Body.Bytes(), &got))
	assert.Equal(t, "Shchi", got.Title)
}

func TestDeleteRecipe_EvictsCache(t *testing.T) {
	recipes, mr := testutil.NewTestCache(t)
	app := newTestAppWithCache(t, recipes)
	user := testutil.NewTestUser(t, app.repo, "ada@example.com")
	recipe := testutil.NewTestRecipe(t, app.repo, user.ID, "Borscht")
	id := strconv.FormatInt(recipe.ID, 10)
	require.Equal(t, http.StatusOK, app.fetchRecipe(t, recipe.ID).Code)

	c, rec := app.request(http.MethodDelete, "/api/recipes/"+id, "", nil)
	require.NoError(t, app.h.DeleteRecipe(withToken(withParam(c, "id", id), user.ID)))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.False(t, mr.Exists(cache.RecipeKey(recipe.ID)))
	assert.Equal(t, http.StatusNotFound, app.fetchRecipe(t, recipe.ID).Code)
}
