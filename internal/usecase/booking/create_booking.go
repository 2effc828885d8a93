package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
	"github.com/ignatzorin/vessel-charter/internal/domain/repository"
	"github.com/ignatzorin/vessel-charter/internal/usecase/shared"
)

type CreateBookingInput struct {
	VesselID uuid.UUID
	Start    time.Time
	End      time.Time
	Terms    entity.BookingTerms
}

// BookingDetails содержит бронь вместе с кратким описанием судна и оператора.
type BookingDetails struct {
	Booking  *entity.Booking
	Vessel   *entity.Vessel
	Operator entity.Party
}

type CreateBookingUseCase struct {
	bookingRepo repository.BookingRepository
	parties     repository.PartyDirectory
	announcer   *shared.Announcer
}

func NewCreateBookingUseCase(
	bookingRepo repository.BookingRepository,
	parties repository.PartyDirectory,
	announcer *shared.Announcer,
) *CreateBookingUseCase {
	return &CreateBookingUseCase{
		bookingRepo: bookingRepo,
		parties:     parties,
		announcer:   announcer,
	}
}

// Execute проверяет и вставляет бронь в одной транзакции, заблокировавшей судно,
// поэтому две пересекающиеся заявки не могут пройти одновременно.
func (uc *CreateBookingUseCase) Execute(ctx context.Context, actor entity.Actor, input CreateBookingInput) (*BookingDetails, error) {
	var vessel *entity.Vessel
	booking, err := uc.bookingRepo.CreateExclusive(ctx, input.VesselID, func(v *entity.Vessel, active []*entity.Booking) (*entity.Booking, error) {
		vessel = v
		return entity.NewBooking(v, actor.ID, input.Start, input.End, input.Terms, active)
	})
	if err != nil {
		return nil, err
	}

	operator, err := uc.parties.FindParty(ctx, booking.OperatorID)
	if err != nil {
		return nil, err
	}

	uc.announcer.Announce(ctx, EventBookingCreated, bookingEvent(booking, vessel.OwnerID), vessel.OwnerID, booking.OperatorID)

	return &BookingDetails{Booking: booking, Vessel: vessel, Operator: operator}, nil
}

type bookingEventPayload struct {
	BookingID  uuid.UUID `json:"booking_id"`
	VesselID   uuid.UUID `json:"vessel_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	OperatorID uuid.UUID `json:"operator_id"`
	Status     string    `json:"status"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

func bookingEvent(b *entity.Booking, ownerID uuid.UUID) bookingEventPayload {
	return bookingEventPayload{
		BookingID:  b.ID,
		VesselID:   b.VesselID,
		OwnerID:    ownerID,
		OperatorID: b.OperatorID,
		Status:     string(b.Status),
		Start:      b.Start,
		End:        b.End,
	}
}
