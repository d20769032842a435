package middleware

import (
	"context"
	"net/http"
	"strings"

	"spaceblog/internal/config"
	"spaceblog/internal/reqctx"

	"github.com/golang-jwt/jwt/v5"
)

// OptionalAuth кладёт user_id и роль в контекст, если клиент прислал валидный
// токен, но в отличие от JWTAuth никогда не отклоняет запрос. Нужен публичным
// спискам, где модерация видит больше обычных посетителей.
func OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			next.ServeHTTP(w, r)
			return
		}

		cfg, _ := config.LoadConfig()
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			next.ServeHTTP(w, r)
			return
		}

		userID, ok1 := claims["user_id"].(float64)
		role, ok2 := claims["role"].(string)
		if !ok1 || !ok2 {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), ContextUserID, int(userID))
		ctx = context.WithValue(ctx, ContextRole, role)
		ctx = reqctx.WithUserID(ctx, int(userID))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
