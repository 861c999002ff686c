package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/senyabanana/procurement-portal/internal/models"
)

type contextKey string

const principalKey contextKey = "principal"

// Middleware разрешает заголовок Authorization в принципала и кладёт его
// в контекст запроса. Отсутствующий или невалидный токен понижает вызов
// до анонимного PUBLIC - публичные выдачи доступны без токена, а операции
// с требованиями к роли откажут дальше по цепочке.
func Middleware(manager *TokenManager, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := models.Anonymous()

		jwtStr := r.Header.Get("Authorization")
		if jwtStr != "" {
			jwtStr = strings.TrimPrefix(jwtStr, "Bearer ")
			if parsed, err := manager.ParseToken(jwtStr); err == nil {
				principal = parsed
			}
		}

		ctx := context.WithValue(r.Context(), principalKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// PrincipalFromContext возвращает принципала текущего запроса.
func PrincipalFromContext(ctx context.Context) models.Principal {
	if principal, ok := ctx.Value(principalKey).(models.Principal); ok {
		return principal
	}
	return models.Anonymous()
}
