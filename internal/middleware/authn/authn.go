package authn

import (
	"context"
	"net/http"
	"strings"

	resp "segreta/internal/lib/api/response"
	"segreta/internal/lib/jwt"

	"github.com/go-chi/render"
)

type ctxKey struct{}

// New проверяет Bearer токен и кладет id пользователя в контекст запроса.
func New(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Please log in first"))

				return
			}

			userID, err := jwt.ParseToken(strings.TrimPrefix(header, "Bearer "), jwtSecret)
			if err != nil {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Invalid or expired token"))

				return
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID достает id пользователя, положенный middleware
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKey{}).(int64)
	return id, ok
}
