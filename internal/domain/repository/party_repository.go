package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
)

// PartyDirectory: справочник участников, заполняемый identity-провайдером.
// Отсутствие записи не ошибка: возвращается Party только с ID.
type PartyDirectory interface {
	FindParty(ctx context.Context, id uuid.UUID) (entity.Party, error)
}
