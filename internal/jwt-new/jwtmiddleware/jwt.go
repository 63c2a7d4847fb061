package jwtmiddleware

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/linemk/ristorante/internal/domain/models"
)

type contextKey string

const PrincipalKey contextKey = "principal"

// Principal — проверенный пользователь из JWT-токена.
type Principal struct {
	ID   int64
	Name string
	Role string
}

// NewJWTMiddleware создает middleware для проверки JWT, секрет берется из
// переменной окружения. Запросы без валидного токена отклоняются с 401.
func NewJWTMiddleware() func(http.Handler) http.Handler {
	secret := mustSecret()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := principalFromRequest(r, secret)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), PrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewOptionalJWTMiddleware пропускает запрос в любом случае, но если валидный
// токен присутствует — кладет принципала в контекст. Используется на
// оформлении заказа: гость заказывает без токена, а с токеном заказ
// привязывается к пользователю.
func NewOptionalJWTMiddleware() func(http.Handler) http.Handler {
	secret := mustSecret()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if principal, err := principalFromRequest(r, secret); err == nil {
				ctx := context.WithValue(r.Context(), PrincipalKey, principal)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireStaff пускает дальше только принципала с ролью staff.
// Навешивается после NewJWTMiddleware.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if principal.Role != models.RoleStaff {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func mustSecret() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		panic("JWT_SECRET is not set")
	}
	return secret
}

func principalFromRequest(r *http.Request, secret string) (Principal, error) {
	// Извлекаем токен из заголовка Authorization (формат: "Bearer <token>")
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return Principal{}, errors.New("missing token")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return Principal{}, errors.New("invalid token format")
	}
	tokenStr := parts[1]

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		// Проверка алгоритма
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return Principal{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, errors.New("invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return Principal{}, errors.New("invalid token claims: sub not found")
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return Principal{}, errors.New("invalid token claims: invalid user id")
	}

	principal := Principal{ID: userID}
	if name, ok := claims["name"].(string); ok {
		principal.Name = name
	}
	if role, ok := claims["role"].(string); ok {
		principal.Role = role
	}
	return principal, nil
}

// FromContext извлекает принципала из контекста.
func FromContext(ctx context.Context) (Principal, bool) {
	principal, ok := ctx.Value(PrincipalKey).(Principal)
	return principal, ok
}
