package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
)

type ContractRepository interface {
	// Create возвращает apperror.ErrContractExists при нарушении уникальности booking_id.
	Create(ctx context.Context, contract *entity.Contract) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Contract, error)
	// FindByBookingID возвращает (nil, nil), если контракта нет.
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Contract, error)
	// AddSignature идемпотентно добавляет подписанта и возвращает актуальный контракт.
	AddSignature(ctx context.Context, contractID, signerID uuid.UUID, ownerID, operatorID uuid.UUID) (*entity.Contract, error)
	AttachDocument(ctx context.Context, contractID uuid.UUID, url, hash string) error
}
