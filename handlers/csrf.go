package handlers

import (
	"net/http"
	"net/url"

	"github.com/gorilla/csrf"
)

type csrfResponse struct {
	Token string `json:"csrf_token"`
}

// CSRFMiddleware protects unsafe methods with a double-submit token. The
// cookie is SameSite=None to match the session cookie on cross-site clients.
func CSRFMiddleware(key []byte, secure bool, allowedOrigins []string) func(http.Handler) http.Handler {
	protect := csrf.Protect(key,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteNoneMode),
		csrf.TrustedOrigins(originHosts(allowedOrigins)),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sendError(w, r, http.StatusForbidden, "Forbidden")
		})),
	)
	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.TLS == nil && !secure {
				r = csrf.PlaintextHTTPRequest(r)
			}
			protected.ServeHTTP(w, r)
		})
	}
}

func CSRFTokenHandler(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, csrfResponse{Token: csrf.Token(r)})
}

func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, origin := range origins {
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			continue
		}
		hosts = append(hosts, u.Host)
	}
	return hosts
}
