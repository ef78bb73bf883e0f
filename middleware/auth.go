package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jobrie31/trailers-contremaitres/auth"
	"github.com/jobrie31/trailers-contremaitres/db"
	"github.com/jobrie31/trailers-contremaitres/models"
)

type contextKey string

const UserContextKey contextKey = "user"

// AuthMiddleware validates session tokens and injects the caller's user
// profile into the request context
func AuthMiddleware(jwtManager *auth.JWTManager, firestoreDB *db.FirestoreDB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			// Extract token from "Bearer <token>"
			token, err := auth.ExtractToken(authHeader)
			if err != nil {
				writeError(w, "Invalid authorization header", http.StatusUnauthorized)
				return
			}

			// Validate token
			claims, err := jwtManager.ValidateToken(token)
			if err != nil {
				writeError(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			// Fetch the profile so admin revocations take effect before the
			// token expires
			profile, err := firestoreDB.UserProfile(r.Context(), claims.UID)
			if err != nil || profile == nil {
				writeError(w, "User not found", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, profile)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext retrieves the user profile from the request context
func GetUserFromContext(ctx context.Context) (*models.UserProfile, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.UserProfile)
	return user, ok
}

// RequireAdmin rejects callers whose profile is not admin
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUserFromContext(r.Context())
		if !ok {
			writeError(w, "User not found in context", http.StatusUnauthorized)
			return
		}
		if !user.IsAdmin {
			writeError(w, "Insufficient permissions", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CanAccessTrailer reports whether the caller may operate on a trailer:
// admins reach every trailer, foremen only their own.
func CanAccessTrailer(user *models.UserProfile, trailerID string) bool {
	if user.IsAdmin {
		return true
	}
	return user.TrailerID != nil && *user.TrailerID == trailerID
}

func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
