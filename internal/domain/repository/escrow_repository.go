package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
)

// MutateFunc применяет доменное изменение к заблокированной транзакции.
// Возврат nil-события означает, что сохранять нечего.
type MutateFunc func(tx *entity.EscrowTransaction) (*entity.EscrowEvent, error)

type EscrowRepository interface {
	// Create возвращает apperror.ErrEscrowExists при нарушении уникальности booking_id.
	Create(ctx context.Context, tx *entity.EscrowTransaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.EscrowTransaction, error)
	FindByReference(ctx context.Context, reference string) (*entity.EscrowTransaction, error)
	// FindByBookingID возвращает (nil, nil), если escrow нет.
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.EscrowTransaction, error)
	// Mutate выполняет mutate под блокировкой строки (SELECT ... FOR UPDATE).
	Mutate(ctx context.Context, id uuid.UUID, mutate MutateFunc) (*entity.EscrowTransaction, error)
}
