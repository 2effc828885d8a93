package booking

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
	"github.com/ignatzorin/vessel-charter/internal/domain/repository"
	"github.com/ignatzorin/vessel-charter/internal/pkg/apperror"
)

type GetBookingUseCase struct {
	bookingRepo repository.BookingRepository
	vesselRepo  repository.VesselRepository
	parties     repository.PartyDirectory
}

func NewGetBookingUseCase(
	bookingRepo repository.BookingRepository,
	vesselRepo repository.VesselRepository,
	parties repository.PartyDirectory,
) *GetBookingUseCase {
	return &GetBookingUseCase{
		bookingRepo: bookingRepo,
		vesselRepo:  vesselRepo,
		parties:     parties,
	}
}

func (uc *GetBookingUseCase) Execute(ctx context.Context, actor entity.Actor, bookingID uuid.UUID) (*BookingDetails, error) {
	booking, vessel, err := loadForParty(ctx, uc.bookingRepo, uc.vesselRepo, actor, bookingID)
	if err != nil {
		return nil, err
	}

	operator, err := uc.parties.FindParty(ctx, booking.OperatorID)
	if err != nil {
		return nil, err
	}

	return &BookingDetails{Booking: booking, Vessel: vessel, Operator: operator}, nil
}

type ListMyBookingsUseCase struct {
	bookingRepo repository.BookingRepository
}

func NewListMyBookingsUseCase(bookingRepo repository.BookingRepository) *ListMyBookingsUseCase {
	return &ListMyBookingsUseCase{bookingRepo: bookingRepo}
}

func (uc *ListMyBookingsUseCase) Execute(ctx context.Context, actor entity.Actor) ([]*entity.Booking, error) {
	return uc.bookingRepo.FindByOperatorID(ctx, actor.ID)
}

type ListVesselBookingsUseCase struct {
	bookingRepo repository.BookingRepository
	vesselRepo  repository.VesselRepository
}

func NewListVesselBookingsUseCase(bookingRepo repository.BookingRepository, vesselRepo repository.VesselRepository) *ListVesselBookingsUseCase {
	return &ListVesselBookingsUseCase{bookingRepo: bookingRepo, vesselRepo: vesselRepo}
}

func (uc *ListVesselBookingsUseCase) Execute(ctx context.Context, actor entity.Actor, vesselID uuid.UUID) ([]*entity.Booking, error) {
	vessel, err := uc.vesselRepo.FindByID(ctx, vesselID)
	if err != nil {
		return nil, err
	}
	if !vessel.IsOwnedBy(actor.ID) && !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	return uc.bookingRepo.FindByVesselID(ctx, vesselID)
}

type GetHistoryUseCase struct {
	bookingRepo repository.BookingRepository
	vesselRepo  repository.VesselRepository
}

func NewGetHistoryUseCase(bookingRepo repository.BookingRepository, vesselRepo repository.VesselRepository) *GetHistoryUseCase {
	return &GetHistoryUseCase{bookingRepo: bookingRepo, vesselRepo: vesselRepo}
}

// Execute возвращает журнал переговоров в порядке записи.
func (uc *GetHistoryUseCase) Execute(ctx context.Context, actor entity.Actor, bookingID uuid.UUID) ([]*entity.NegotiationEntry, error) {
	if _, _, err := loadForParty(ctx, uc.bookingRepo, uc.vesselRepo, actor, bookingID); err != nil {
		return nil, err
	}
	return uc.bookingRepo.History(ctx, bookingID)
}

func loadForParty(
	ctx context.Context,
	bookingRepo repository.BookingRepository,
	vesselRepo repository.VesselRepository,
	actor entity.Actor,
	bookingID uuid.UUID,
) (*entity.Booking, *entity.Vessel, error) {
	booking, err := bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	vessel, err := vesselRepo.FindByID(ctx, booking.VesselID)
	if err != nil {
		return nil, nil, err
	}
	if !actor.IsAdmin() && !booking.IsParty(actor.ID, vessel.OwnerID) {
		return nil, nil, apperror.ErrForbidden
	}
	return booking, vessel, nil
}
