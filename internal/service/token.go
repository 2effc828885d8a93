package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
	"github.com/ignatzorin/vessel-charter/internal/domain/valueobject"
)

// ErrUnknownRole возвращается для токена с ролью вне operator/owner/admin.
var ErrUnknownRole = errors.New("token: неизвестная роль")

// AccessClaims: клеймы access-токена от identity-провайдера.
type AccessClaims struct {
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager проверяет access-токены и выпускает их для служебных нужд.
type TokenManager struct {
	accessSecret []byte
	accessTTL    time.Duration
}

func NewTokenManager(accessSecret string, accessTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret: []byte(accessSecret),
		accessTTL:    accessTTL,
	}
}

// Issue выпускает access-токен для участника.
func (m *TokenManager) Issue(actor entity.Actor) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(m.accessTTL)

	claims := AccessClaims{
		Role:  string(actor.Role),
		Email: actor.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.accessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// ParseAccess проверяет подпись и срок действия и возвращает участника запроса.
func (m *TokenManager) ParseAccess(token string) (entity.Actor, error) {
	claims := &AccessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.accessSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return entity.Actor{}, err
	}
	if !parsed.Valid {
		return entity.Actor{}, jwt.ErrTokenInvalidClaims
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return entity.Actor{}, jwt.ErrTokenInvalidClaims
	}

	role := valueobject.Role(claims.Role)
	switch role {
	case valueobject.RoleOperator, valueobject.RoleOwner, valueobject.RoleAdmin:
	default:
		return entity.Actor{}, ErrUnknownRole
	}

	return entity.Actor{ID: userID, Role: role, Email: claims.Email}, nil
}
