package middleware

import (
	"net/http"

	"github.com/diewo77/bakery-pos/i18n"
)

const langCookie = "lang"

// Prefs resolves the interface language (query > cookie > Accept-Language)
// and stores it in the request context. A language picked with ?lang= is
// remembered in a cookie for 30 days.
func Prefs(defaultLang string) func(http.Handler) http.Handler {
	if i18n.Normalize(defaultLang) == "" {
		defaultLang = i18n.Default
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := ""
			if q := i18n.Normalize(r.URL.Query().Get("lang")); q != "" {
				lang = q
				http.SetCookie(w, &http.Cookie{Name: langCookie, Value: lang, Path: "/", MaxAge: 86400 * 30, HttpOnly: true})
			}
			if lang == "" {
				if c, err := r.Cookie(langCookie); err == nil {
					lang = i18n.Normalize(c.Value)
				}
			}
			if lang == "" {
				if h := r.Header.Get("Accept-Language"); h != "" {
					lang = i18n.DetectLanguage(h)
				}
			}
			if lang == "" {
				lang = defaultLang
			}
			next.ServeHTTP(w, r.WithContext(i18n.WithLang(r.Context(), lang)))
		})
	}
}
