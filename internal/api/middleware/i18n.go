package middleware

import (
	"net/http"

	"github.com/creamcroissant/xpref/internal/api/cookie"
	"github.com/creamcroissant/xpref/internal/api/requestctx"
	"github.com/creamcroissant/xpref/internal/service"
)

// Language detects the language used for response messages and stores it in the
// context. It only reads: the preference cookie first, then Accept-Language, then
// the default locale. Nothing is written back to the client.
func Language(codec *service.PreferenceCodec, cookieName string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var lang string
			if raw, ok := cookie.NewJar(w, r, cookie.Options{}).ReadJSON(cookieName); ok {
				if pref, ok := codec.Parse(raw); ok {
					lang = pref.Locale
				}
			}
			if lang == "" {
				lang = codec.GenerateDefault(r.Header.Get("Accept-Language")).Locale
			}
			next.ServeHTTP(w, r.WithContext(requestctx.WithLanguage(r.Context(), lang)))
		})
	}
}
