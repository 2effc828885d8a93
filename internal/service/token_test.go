package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
	"github.com/ignatzorin/vessel-charter/internal/domain/valueobject"
)

const testSecret = "test-secret-key-that-is-long-enough-32"

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour)
	actor := entity.Actor{ID: uuid.New(), Role: valueobject.RoleOwner, Email: "owner@example.com"}

	token, exp, err := m.Issue(actor)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	parsed, err := m.ParseAccess(token)
	require.NoError(t, err)
	assert.Equal(t, actor, parsed)
}

func TestTokenManager_Rejects(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour)

	t.Run("чужой секрет", func(t *testing.T) {
		token, _, err := NewTokenManager("another-secret-key-that-is-long-32!", time.Hour).
			Issue(entity.Actor{ID: uuid.New(), Role: valueobject.RoleOperator})
		require.NoError(t, err)
		_, err = m.ParseAccess(token)
		assert.Error(t, err)
	})

	t.Run("истёкший", func(t *testing.T) {
		token, _, err := NewTokenManager(testSecret, -time.Minute).
			Issue(entity.Actor{ID: uuid.New(), Role: valueobject.RoleOperator})
		require.NoError(t, err)
		_, err = m.ParseAccess(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("неизвестная роль", func(t *testing.T) {
		token, _, err := m.Issue(entity.Actor{ID: uuid.New(), Role: "guest"})
		require.NoError(t, err)
		_, err = m.ParseAccess(token)
		assert.ErrorIs(t, err, ErrUnknownRole)
	})

	t.Run("мусор", func(t *testing.T) {
		_, err := m.ParseAccess("not-a-token")
		assert.Error(t, err)
	})
}
