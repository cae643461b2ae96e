// Package handlers serves the HTML pages and their JSON counterparts.
// Every endpoint answers JSON when the client asks for it (Accept header)
// and renders a template otherwise.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/bakery-pos/auth"
	"github.com/diewo77/bakery-pos/httpx"
	"github.com/diewo77/bakery-pos/i18n"
	"github.com/diewo77/bakery-pos/internal/services"
	"github.com/diewo77/bakery-pos/validation"
	"github.com/diewo77/bakery-pos/view"
	"github.com/rs/zerolog"
)

// statusFor maps service errors to an HTTP status and an error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, services.ErrValidation.Error()
	case errors.Is(err, services.ErrEmptyCart):
		return http.StatusBadRequest, services.ErrEmptyCart.Error()
	case errors.Is(err, services.ErrInvalidProduct):
		return http.StatusBadRequest, services.ErrInvalidProduct.Error()
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, services.ErrNotFound.Error()
	case errors.Is(err, services.ErrAlreadyExists):
		return http.StatusConflict, services.ErrAlreadyExists.Error()
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, services.ErrInvalidCredentials.Error()
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func logIfInternal(r *http.Request, status int, err error) {
	if status >= 500 {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
}

// writeError answers a failed request: JSON error body, or the error page.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	logIfInternal(r, status, err)
	if wantsJSON(r) {
		var details any
		if v := services.Violations(err); len(v) > 0 {
			details = v
		}
		httpx.JSONError(w, status, code, details)
		return
	}
	renderError(w, r, status, code)
}

func renderError(w http.ResponseWriter, r *http.Request, status int, code string) {
	if err := view.RenderStatus(w, r, status, "error.html", map[string]any{"Status": status, "Code": code}); err != nil {
		http.Error(w, i18n.T(lang(r), code), status)
	}
}

// render executes a page, answering 500 if the template fails.
func render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	if err := view.RenderStatus(w, r, status, name, data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("template", name).Msg("render")
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

// formError re-renders a form page with the violations and error of err.
// Errors that are not caused by the input fall back to writeError.
func formError(w http.ResponseWriter, r *http.Request, err error, name string, data map[string]any) {
	status, code := statusFor(err)
	if wantsJSON(r) || status >= 500 || status == http.StatusNotFound {
		writeError(w, r, err)
		return
	}
	data["Error"] = code
	data["Errors"] = services.Violations(err)
	render(w, r, status, name, data)
}

func lang(r *http.Request) string { return i18n.LangFrom(r.Context()) }

func isJSONBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// wantsJSON reports whether the response should be JSON: the client asked
// for it, or it sent a JSON body.
func wantsJSON(r *http.Request) bool {
	return auth.WantsJSON(r) || isJSONBody(r)
}

// decode reads a JSON body into dst, reporting malformed input as a
// validation error.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return &services.ValidationError{Violations: validation.Violations{"body": "invalid_json"}}
	}
	return nil
}

func formBool(r *http.Request, name string) bool {
	switch strings.ToLower(r.FormValue(name)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func queryInt(r *http.Request, name string, def int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil && n > 0 {
		return n
	}
	return def
}

// pathID parses {id}, answering 404 when it is not a positive integer.
func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		writeError(w, r, services.ErrNotFound)
	}
	return id, ok
}

// done answers a successful write: JSON payload, or flash plus redirect.
func done(w http.ResponseWriter, r *http.Request, status int, payload any, redirect, flash string) {
	if wantsJSON(r) {
		httpx.JSON(w, status, payload)
		return
	}
	if flash != "" {
		view.SetFlash(w, flash)
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}
