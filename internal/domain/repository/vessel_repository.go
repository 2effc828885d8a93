package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
)

type VesselRepository interface {
	Create(ctx context.Context, vessel *entity.Vessel) error
	UpdateStatus(ctx context.Context, vessel *entity.Vessel) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Vessel, error)
	FindByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*entity.Vessel, error)
	AddSlot(ctx context.Context, slot *entity.AvailabilitySlot) error
	DeleteSlot(ctx context.Context, vesselID, slotID uuid.UUID) error
}
