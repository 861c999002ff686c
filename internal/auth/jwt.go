package auth

import (
	"fmt"
	"time"

	"github.com/senyabanana/procurement-portal/internal/models"

	"github.com/golang-jwt/jwt"
)

// Claims - полезная нагрузка токена: кто вызывает и с какой ролью.
type Claims struct {
	jwt.StandardClaims
	UserID       string      `json:"userId"`
	Role         models.Role `json:"role"`
	Organization string      `json:"organization,omitempty"`
}

// TokenManager выпускает и проверяет HS256-токены портала.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager создаёт новый экземпляр TokenManager.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// GenerateToken выпускает токен для учётной записи.
func (m *TokenManager) GenerateToken(user models.User) (string, error) {
	claims := Claims{
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(m.ttl).Unix(),
		},
		UserID:       user.ID,
		Role:         user.Role,
		Organization: user.Organization,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseToken проверяет токен и возвращает принципала вызывающего.
func (m *TokenManager) ParseToken(tokenString string) (models.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return models.Principal{}, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return models.Principal{}, fmt.Errorf("invalid token")
	}

	return models.Principal{
		ID:           claims.UserID,
		Role:         claims.Role,
		Organization: claims.Organization,
	}, nil
}
