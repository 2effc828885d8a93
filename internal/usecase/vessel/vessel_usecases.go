package vessel

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
	"github.com/ignatzorin/vessel-charter/internal/domain/repository"
	"github.com/ignatzorin/vessel-charter/internal/domain/valueobject"
	"github.com/ignatzorin/vessel-charter/internal/pkg/apperror"
)

type CreateVesselInput struct {
	OwnerID   uuid.UUID
	Spec      entity.VesselSpec
	DailyRate int64
	Currency  string
}

type CreateVesselUseCase struct {
	vesselRepo repository.VesselRepository
}

func NewCreateVesselUseCase(vesselRepo repository.VesselRepository) *CreateVesselUseCase {
	return &CreateVesselUseCase{vesselRepo: vesselRepo}
}

func (uc *CreateVesselUseCase) Execute(ctx context.Context, actor entity.Actor, input CreateVesselInput) (*entity.Vessel, error) {
	if actor.Role == valueobject.RoleOperator {
		return nil, apperror.New(apperror.ErrCodeForbidden, "размещать суда могут только владельцы")
	}

	currency, err := valueobject.NewCurrency(input.Currency)
	if err != nil {
		return nil, err
	}

	ownerID := actor.ID
	if actor.IsAdmin() && input.OwnerID != uuid.Nil {
		ownerID = input.OwnerID
	}

	vessel, err := entity.NewVessel(ownerID, input.Spec, input.DailyRate, currency)
	if err != nil {
		return nil, err
	}

	if err := uc.vesselRepo.Create(ctx, vessel); err != nil {
		return nil, err
	}
	return vessel, nil
}

type GetVesselUseCase struct {
	vesselRepo repository.VesselRepository
}

func NewGetVesselUseCase(vesselRepo repository.VesselRepository) *GetVesselUseCase {
	return &GetVesselUseCase{vesselRepo: vesselRepo}
}

// Execute скрывает черновики от всех, кроме владельца и администратора.
func (uc *GetVesselUseCase) Execute(ctx context.Context, actor entity.Actor, vesselID uuid.UUID) (*entity.Vessel, error) {
	vessel, err := uc.vesselRepo.FindByID(ctx, vesselID)
	if err != nil {
		return nil, err
	}
	if !vessel.IsActive() && !vessel.IsOwnedBy(actor.ID) && !actor.IsAdmin() {
		return nil, apperror.ErrVesselNotFound
	}
	return vessel, nil
}

type ListMyVesselsUseCase struct {
	vesselRepo repository.VesselRepository
}

func NewListMyVesselsUseCase(vesselRepo repository.VesselRepository) *ListMyVesselsUseCase {
	return &ListMyVesselsUseCase{vesselRepo: vesselRepo}
}

func (uc *ListMyVesselsUseCase) Execute(ctx context.Context, actor entity.Actor) ([]*entity.Vessel, error) {
	return uc.vesselRepo.FindByOwnerID(ctx, actor.ID)
}

type ActivateVesselUseCase struct {
	vesselRepo repository.VesselRepository
}

func NewActivateVesselUseCase(vesselRepo repository.VesselRepository) *ActivateVesselUseCase {
	return &ActivateVesselUseCase{vesselRepo: vesselRepo}
}

func (uc *ActivateVesselUseCase) Execute(ctx context.Context, actor entity.Actor, vesselID uuid.UUID) (*entity.Vessel, error) {
	vessel, err := loadOwned(ctx, uc.vesselRepo, actor, vesselID)
	if err != nil {
		return nil, err
	}

	if err := vessel.Activate(); err != nil {
		return nil, err
	}

	if err := uc.vesselRepo.UpdateStatus(ctx, vessel); err != nil {
		return nil, err
	}
	return vessel, nil
}

type AddSlotUseCase struct {
	vesselRepo repository.VesselRepository
}

func NewAddSlotUseCase(vesselRepo repository.VesselRepository) *AddSlotUseCase {
	return &AddSlotUseCase{vesselRepo: vesselRepo}
}

// Execute добавляет окно доступности. Существующие брони повторно не проверяются.
func (uc *AddSlotUseCase) Execute(ctx context.Context, actor entity.Actor, vesselID uuid.UUID, start, end time.Time) (*entity.AvailabilitySlot, error) {
	vessel, err := loadOwned(ctx, uc.vesselRepo, actor, vesselID)
	if err != nil {
		return nil, err
	}

	slot, err := vessel.NewSlot(start, end)
	if err != nil {
		return nil, err
	}

	if err := uc.vesselRepo.AddSlot(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

type RemoveSlotUseCase struct {
	vesselRepo repository.VesselRepository
}

func NewRemoveSlotUseCase(vesselRepo repository.VesselRepository) *RemoveSlotUseCase {
	return &RemoveSlotUseCase{vesselRepo: vesselRepo}
}

func (uc *RemoveSlotUseCase) Execute(ctx context.Context, actor entity.Actor, vesselID, slotID uuid.UUID) error {
	if _, err := loadOwned(ctx, uc.vesselRepo, actor, vesselID); err != nil {
		return err
	}
	return uc.vesselRepo.DeleteSlot(ctx, vesselID, slotID)
}

func loadOwned(ctx context.Context, repo repository.VesselRepository, actor entity.Actor, vesselID uuid.UUID) (*entity.Vessel, error) {
	vessel, err := repo.FindByID(ctx, vesselID)
	if err != nil {
		return nil, err
	}
	if !vessel.IsOwnedBy(actor.ID) && !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	return vessel, nil
}
