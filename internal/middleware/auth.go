package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"storefront-services/internal/auth"
)

type contextKey string

const authContextKey contextKey = "authContext"

type AuthContext struct {
	UserID      string
	Role        auth.UserRole
	Email       string
	Permissions []string
}

func (a *AuthContext) IsAdmin() bool {
	return a != nil && (a.Role == auth.RoleAdmin || a.Role == auth.RoleStaff)
}

func WithAuthContext(ctx context.Context, authCtx *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, authCtx)
}

func GetAuthContext(ctx context.Context) (*AuthContext, bool) {
	value := ctx.Value(authContextKey)
	if value == nil {
		return nil, false
	}
	ac, ok := value.(*AuthContext)
	return ac, ok
}

// CustomerID returns the signed-in user id, or "" for guests.
func CustomerID(ctx context.Context) string {
	if ac, ok := GetAuthContext(ctx); ok && ac != nil {
		return ac.UserID
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	writeAuthErrorDebug(w, status, message, "")
}

func writeAuthErrorDebug(w http.ResponseWriter, status int, message string, debug string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	code := "UNAUTHORIZED"
	if status == http.StatusForbidden {
		code = "FORBIDDEN"
	}
	payload := map[string]any{
		"success": false,
		"error":   code,
		"message": message,
	}

	if os.Getenv("APP_ENV") == "development" && strings.TrimSpace(debug) != "" {
		payload["debug"] = debug
	}

	_ = json.NewEncoder(w).Encode(payload)
}

func contextFromClaims(claims *auth.Claims) *AuthContext {
	return &AuthContext{
		UserID:      claims.UserID,
		Role:        claims.Role,
		Email:       claims.Email,
		Permissions: claims.Permissions,
	}
}

// AdminAuth requires an ADMIN or STAFF bearer token. STAFF tokens also need
// the permission mapped to the route.
func AdminAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ParseBearerToken(r.Header.Get("Authorization"))
			claims, err := auth.VerifyAccessToken(token, jwtSecret)
			if err != nil {
				writeAuthErrorDebug(w, http.StatusUnauthorized, "Authorization token required", err.Error())
				return
			}

			authCtx := contextFromClaims(claims)
			if !authCtx.IsAdmin() {
				writeAuthError(w, http.StatusForbidden, "Admin access required")
				return
			}

			if claims.Role == auth.RoleStaff {
				if perm := auth.GetPermissionForAPI(r.URL.Path); perm != nil && !auth.HasPermission(claims.Permissions, *perm) {
					writeAuthError(w, http.StatusForbidden, "You do not have permission to access this resource")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), authCtx)))
		})
	}
}

// OptionalAuth attaches the caller's identity when a valid token is sent.
// Invalid or missing tokens continue as guest.
func OptionalAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ParseBearerToken(r.Header.Get("Authorization"))
			if token == "" || jwtSecret == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := auth.VerifyAccessToken(token, jwtSecret)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), contextFromClaims(claims))))
		})
	}
}
