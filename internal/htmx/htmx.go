// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package htmx reads htmx request headers and answers with htmx-aware
// redirects.
package htmx

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Request headers.
const (
	HeaderRequest    = "HX-Request"
	HeaderBoosted    = "HX-Boosted"
	HeaderCurrentURL = "HX-Current-URL"
	HeaderTarget     = "HX-Target"
	HeaderTrigger    = "HX-Trigger"
)

// Response headers.
const (
	HeaderRedirect = "HX-Redirect"
	HeaderRefresh  = "HX-Refresh"
	HeaderRetarget = "HX-Retarget"
	HeaderReswap   = "HX-Reswap"
)

// Request holds the htmx details of a request.
type Request struct {
	IsHtmx     bool
	IsBoosted  bool
	CurrentURL string
	Target     string
	Trigger    string
}

// ParseRequest extracts htmx information from request headers.
func ParseRequest(r *http.Request) *Request {
	return &Request{
		IsHtmx:     r.Header.Get(HeaderRequest) == "true",
		IsBoosted:  r.Header.Get(HeaderBoosted) == "true",
		CurrentURL: r.Header.Get(HeaderCurrentURL),
		Target:     r.Header.Get(HeaderTarget),
		Trigger:    r.Header.Get(HeaderTrigger),
	}
}

// Redirect sends a 303 for normal requests. htmx requests get HX-Redirect,
// because a fetch would follow a 303 silently and swap the target page in.
func Redirect(c echo.Context, url string) error {
	if c.Request().Header.Get(HeaderRequest) == "true" {
		c.Response().Header().Set(HeaderRedirect, url)
		return c.NoContent(http.StatusOK)
	}
	return c.Redirect(http.StatusSeeOther, url)
}
