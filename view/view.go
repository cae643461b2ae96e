// Package view renders the embedded HTML templates. Every page is parsed
// together with layout.html and the shared partials.
package view

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"os"
	"path"
	"sync"
	"time"

	"github.com/diewo77/bakery-pos/auth"
	"github.com/diewo77/bakery-pos/i18n"
	"github.com/diewo77/bakery-pos/internal/receipt"
	"github.com/shopspring/decimal"
)

//go:embed templates
var templatesFS embed.FS

// FlashCookie carries a one-shot message code across a redirect.
const FlashCookie = "flash"

var (
	tplCache = struct {
		sync.RWMutex
		m map[string]*template.Template
	}{m: map[string]*template.Template{}}

	langResolver = func(r *http.Request) string { return i18n.LangFrom(r.Context()) }
	// permission resolvers are set by the host app so templates can check
	// access without importing the policy package.
	allowedResolver func(*http.Request, string, string) bool
	isAdminResolver func(*http.Request) bool
	userResolver    func(*http.Request) string
)

// SetLangResolver overrides how the request language is found.
func SetLangResolver(f func(*http.Request) string) {
	if f != nil {
		langResolver = f
	}
}

// SetAllowedResolver sets the callback behind the "can" template func.
func SetAllowedResolver(f func(*http.Request, string, string) bool) {
	if f != nil {
		allowedResolver = f
	}
}

// SetIsAdminResolver sets the callback behind the "isAdmin" template func.
func SetIsAdminResolver(f func(*http.Request) bool) {
	if f != nil {
		isAdminResolver = f
	}
}

// SetUserResolver sets the callback returning the signed-in username.
func SetUserResolver(f func(*http.Request) string) {
	if f != nil {
		userResolver = f
	}
}

// ResetForTests clears the template cache.
func ResetForTests() {
	tplCache.Lock()
	tplCache.m = map[string]*template.Template{}
	tplCache.Unlock()
}

// Funcs returns the func map shared by all templates.
func Funcs(r *http.Request) template.FuncMap {
	lang := langResolver(r)
	return template.FuncMap{
		"t":    func(code string) string { return i18n.T(lang, code) },
		"lang": func() string { return lang },
		"can": func(resource, action string) bool {
			if allowedResolver == nil {
				return false
			}
			return allowedResolver(r, resource, action)
		},
		"isAdmin": func() bool {
			if isAdminResolver == nil {
				return false
			}
			return isAdminResolver(r)
		},
		"username": func() string {
			if userResolver == nil {
				return ""
			}
			return userResolver(r)
		},
		"money": receipt.FormatMoney,
		"qty":   receipt.FormatQty,
		"fixed": func(d decimal.Decimal, places int32) string { return d.StringFixed(places) },
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Local().Format(receipt.TimestampLayout)
		},
		"day":      func(t time.Time) string { return t.Format("02/01/2006") },
		"year":     func() int { return time.Now().Year() },
		"safeHTML": func(s string) template.HTML { return template.HTML(s) },
		// dict creates a map from key-value pairs for passing to sub-templates.
		// Usage: {{ template "partial" (dict "Key1" val1 "Key2" val2) }}
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				m[key] = values[i+1]
			}
			return m
		},
	}
}

func parse(r *http.Request, name string) (*template.Template, error) {
	devMode := os.Getenv("DEV") == "1"
	if !devMode {
		tplCache.RLock()
		t, ok := tplCache.m[name]
		tplCache.RUnlock()
		if ok {
			// Funcs are request scoped; rebind them on a clone.
			c, err := t.Clone()
			if err != nil {
				return nil, err
			}
			return c.Funcs(Funcs(r)), nil
		}
	}
	files := []string{"templates/layout.html", "templates/partials.html", path.Join("templates", name)}
	t, err := template.New("layout.html").Funcs(Funcs(r)).ParseFS(templatesFS, files...)
	if err != nil {
		return nil, err
	}
	if !devMode {
		tplCache.Lock()
		tplCache.m[name] = t
		tplCache.Unlock()
		return t.Clone()
	}
	return t, nil
}

// Render executes page name (e.g. "products/index.html") inside the layout
// with status 200.
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	return RenderStatus(w, r, http.StatusOK, name, data)
}

// RenderStatus is Render with an explicit status code. Nothing is written
// when the template fails.
func RenderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) error {
	// Ensure data map exists and inject common defaults to avoid template errors.
	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["IsLoggedIn"]; !exists {
		_, loggedIn := auth.UserIDFromContext(r.Context())
		data["IsLoggedIn"] = loggedIn
	}
	if _, exists := data["Flash"]; !exists {
		if c, err := r.Cookie(FlashCookie); err == nil && c.Value != "" {
			if code, err := url.QueryUnescape(c.Value); err == nil {
				data["Flash"] = code
			}
			http.SetCookie(w, &http.Cookie{Name: FlashCookie, Path: "/", MaxAge: -1})
		}
	}
	t, err := parse(r, name)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

// SetFlash stores a message code shown once on the next rendered page.
func SetFlash(w http.ResponseWriter, code string) {
	http.SetCookie(w, &http.Cookie{Name: FlashCookie, Value: url.QueryEscape(code), Path: "/", HttpOnly: true})
}
