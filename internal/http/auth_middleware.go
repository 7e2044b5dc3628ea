package httpx

import (
	"context"
	"net/http"
	"strings"
)

// AuthCookieName is the cookie carrying the session token.
const AuthCookieName = "authToken"

// TokenSource extracts a bearer credential from an incoming request.
// An absent credential is a normal miss, not a fault.
type TokenSource interface {
	Extract(req *http.Request) (string, bool)
}

// CookieTokenSource reads the token from a named cookie.
type CookieTokenSource struct {
	Name string
}

func (s CookieTokenSource) Extract(req *http.Request) (string, bool) {
	cookie, err := req.Cookie(s.Name)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return "", false
	}
	return cookie.Value, true
}

// HeaderTokenSource reads a Bearer token from the Authorization header.
type HeaderTokenSource struct{}

func (s HeaderTokenSource) Extract(req *http.Request) (string, bool) {
	header := strings.TrimSpace(req.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}

// NewTokenSources maps configured source names to implementations,
// preserving order. Unknown names are ignored; an empty result falls
// back to cookie-then-bearer.
func NewTokenSources(names []string) []TokenSource {
	sources := make([]TokenSource, 0, len(names))
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "cookie":
			sources = append(sources, CookieTokenSource{Name: AuthCookieName})
		case "bearer", "header":
			sources = append(sources, HeaderTokenSource{})
		}
	}
	if len(sources) == 0 {
		sources = []TokenSource{CookieTokenSource{Name: AuthCookieName}, HeaderTokenSource{}}
	}
	return sources
}

type authContextKey string

type authInfo struct {
	UserID string
	Email  string
	Role   string
}

const contextKeyAuth authContextKey = "moodsong-auth-info"

type contextSetter interface {
	SetContext(context.Context)
}

// requireAuth ensures the request carries a valid token before invoking
// the handler. Rejection happens before any store access.
func (r *Router) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx, _, ok := r.ensureAuth(w, req)
		if !ok {
			return
		}
		if setter, ok := w.(contextSetter); ok {
			setter.SetContext(ctx)
		}
		next(w, req.WithContext(ctx))
	}
}

// ensureAuth extracts and verifies the session token and enriches the
// context with the decoded identity. It fails closed: any extraction or
// verification problem rejects the request with 401.
func (r *Router) ensureAuth(w http.ResponseWriter, req *http.Request) (context.Context, authInfo, bool) {
	var raw string
	for _, source := range r.tokenSources {
		if extracted, ok := source.Extract(req); ok {
			raw = extracted
			break
		}
	}
	if raw == "" {
		r.recordAuthRejection("missing")
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return req.Context(), authInfo{}, false
	}
	claims, err := r.auth.Authorize(raw)
	if err != nil {
		r.logger.Warn("token verification failed", "error", err, "path", req.URL.Path)
		r.recordAuthRejection("invalid")
		writeError(w, http.StatusUnauthorized, "invalid token")
		return req.Context(), authInfo{}, false
	}
	info := authInfo{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}
	ctx := context.WithValue(req.Context(), contextKeyAuth, info)
	return ctx, info, true
}

// authInfoFromContext extracts auth metadata from context.
func authInfoFromContext(ctx context.Context) (authInfo, bool) {
	value := ctx.Value(contextKeyAuth)
	if value == nil {
		return authInfo{}, false
	}
	info, ok := value.(authInfo)
	return info, ok
}
