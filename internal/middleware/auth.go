package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"restaurant-order-service/internal/auth"
)

type contextKey string

const authContextKey contextKey = "authContext"

// AuthContext is the verified identity attached to every authenticated
// request. Handlers read it from the request context; there is no ambient
// session state anywhere in the service.
type AuthContext struct {
	UserID  string
	Name    string
	Email   string
	IsAdmin bool
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

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   "UNAUTHORIZED",
		"message": message,
	})
}

func RequireUser(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ParseBearerToken(r.Header.Get("Authorization"))
			claims, err := auth.VerifyAccessToken(token, jwtSecret)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}

			authCtx := &AuthContext{
				UserID:  claims.UserID,
				Name:    claims.Name,
				Email:   claims.Email,
				IsAdmin: claims.IsAdmin(),
			}
			next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), authCtx)))
		})
	}
}

// RequireAdmin must be nested inside RequireUser.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx, ok := GetAuthContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}
			if !authCtx.IsAdmin {
				writeAuthError(w, http.StatusForbidden, "Admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
