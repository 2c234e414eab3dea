package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/mlevan/imagetier/internal/database"
	"github.com/mlevan/imagetier/internal/model"
)

type contextKey string

const userKey contextKey = "user"

// AuthMiddleware returns middleware that resolves the Bearer token to a user
// record. Account provisioning and credential management live outside this
// service; the token lookup is the whole authentication surface.
func AuthMiddleware(db database.Database) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(authHeader, prefix) {
				Unauthorized(w)
				return
			}

			user, err := db.GetUserByToken(authHeader[len(prefix):])
			if err != nil {
				Unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StaffOnly rejects requests from non-staff users. It must run after
// AuthMiddleware.
func StaffOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r.Context())
		if user == nil || !user.IsStaff {
			Forbidden(w, "You do not have permission to perform this action.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUser retrieves the authenticated user stored by AuthMiddleware.
func GetUser(ctx context.Context) *model.User {
	u, _ := ctx.Value(userKey).(*model.User)
	return u
}
