package middleware

import (
	"net/http"
	"strings"
)

const (
	loginPath   = "/login"
	welcomePath = "/welcome"
)

// Page navigation paths. Protected prefixes require a valid session; public
// paths bounce an already-authenticated user to the landing page.
var (
	protectedPrefixes = []string{"/welcome", "/dashboard", "/map", "/camera"}
	publicPaths       = map[string]bool{
		"/":        true,
		"/login":   true,
		"/signup":  true,
		"/privacy": true,
		"/terms":   true,
		"/contact": true,
	}
)

// RouteGuard classifies each page request as protected or public and issues
// redirects before any handler runs. It is a pure function of the request
// path and session validity; it touches no store.
func RouteGuard(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path

			authenticated := false
			if token := TokenFromRequest(r); token != "" {
				if _, err := verifier.VerifyToken(token); err == nil {
					authenticated = true
				}
			}

			if isProtectedPath(path) && !authenticated {
				http.Redirect(w, r, loginPath, http.StatusFound)
				return
			}

			// The site root stays reachable either way.
			if publicPaths[path] && path != "/" && authenticated {
				http.Redirect(w, r, welcomePath, http.StatusFound)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isProtectedPath(path string) bool {
	for _, prefix := range protectedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
