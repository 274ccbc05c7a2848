package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
)

// Роли пользователей в claims токена
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
)

// JWTCustomClaims содержит пользовательские поля токена.
// Токены выпускает внешний сервис идентификации; здесь они только
// проверяются.
type JWTCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	// Когорта студента; 0, если студент не приписан к когорте
	CohortID uint `json:"cohort_id"`
	jwt.RegisteredClaims
}

// IsTeacher проверяет преподавательскую роль
func (c *JWTCustomClaims) IsTeacher() bool {
	return c.Role == RoleTeacher
}

// JWTService проверяет JWT, подписанные общим секретом
type JWTService struct {
	secretKey []byte
}

// NewJWTService создает новый сервис проверки JWT
func NewJWTService(secretKey string) (*JWTService, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("JWT secret key is required")
	}
	return &JWTService{secretKey: []byte(secretKey)}, nil
}

// ParseToken проверяет подпись и срок действия токена и возвращает claims
func (s *JWTService) ParseToken(tokenString string) (*JWTCustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*JWTCustomClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
