package booking

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
	"github.com/ignatzorin/vessel-charter/internal/domain/repository"
	"github.com/ignatzorin/vessel-charter/internal/domain/valueobject"
	"github.com/ignatzorin/vessel-charter/internal/pkg/apperror"
	"github.com/ignatzorin/vessel-charter/internal/usecase/shared"
)

const MaxNoteLength = 2000

type UpdateBookingInput struct {
	Status *string
	Note   string
	Terms  *entity.TermsPatch
}

func (in UpdateBookingInput) isEmpty() bool {
	return in.Status == nil && strings.TrimSpace(in.Note) == "" && (in.Terms == nil || in.Terms.IsEmpty())
}

type UpdateBookingUseCase struct {
	bookingRepo repository.BookingRepository
	vesselRepo  repository.VesselRepository
	escrowRepo  repository.EscrowRepository
	announcer   *shared.Announcer
}

func NewUpdateBookingUseCase(
	bookingRepo repository.BookingRepository,
	vesselRepo repository.VesselRepository,
	escrowRepo repository.EscrowRepository,
	announcer *shared.Announcer,
) *UpdateBookingUseCase {
	return &UpdateBookingUseCase{
		bookingRepo: bookingRepo,
		vesselRepo:  vesselRepo,
		escrowRepo:  escrowRepo,
		announcer:   announcer,
	}
}

// Execute применяет изменение условий и/или статуса и пишет одну запись в журнал
// переговоров. Сначала сливаются условия, затем выполняется переход статуса.
func (uc *UpdateBookingUseCase) Execute(ctx context.Context, actor entity.Actor, bookingID uuid.UUID, input UpdateBookingInput) (*entity.Booking, error) {
	if input.isEmpty() {
		return nil, apperror.New(apperror.ErrCodeValidation, "нечего обновлять")
	}
	note := strings.TrimSpace(input.Note)
	if len([]rune(note)) > MaxNoteLength {
		return nil, apperror.New(apperror.ErrCodeValidation, "комментарий слишком длинный")
	}

	booking, err := uc.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	vessel, err := uc.vesselRepo.FindByID(ctx, booking.VesselID)
	if err != nil {
		return nil, err
	}
	ownerID := vessel.OwnerID

	if !actor.IsAdmin() && !booking.IsParty(actor.ID, ownerID) {
		return nil, apperror.ErrForbidden
	}
	if booking.Status.IsTerminal() {
		return nil, apperror.ErrImmutableState
	}

	observed := booking.Status
	version := booking.Version
	changes := map[string]entity.FieldChange{}

	if input.Terms != nil && !input.Terms.IsEmpty() {
		termChanges, err := booking.MergeTerms(actor, ownerID, *input.Terms)
		if err != nil {
			return nil, err
		}
		for field, change := range termChanges {
			changes[field] = change
		}
	}

	if input.Status != nil {
		target, err := valueobject.NewBookingStatus(*input.Status)
		if err != nil {
			return nil, err
		}
		if target == valueobject.BookingStatusCancelled {
			if err := uc.ensureNotFunded(ctx, booking.ID); err != nil {
				return nil, err
			}
		}
		if err := booking.Transition(actor, ownerID, target); err != nil {
			return nil, err
		}
		changes["status"] = entity.FieldChange{From: string(observed), To: string(target)}
	}

	entry := entity.NewNegotiationEntry(booking.ID, actor.ID, note, changes)
	if err := uc.bookingRepo.Save(ctx, booking, version, entry); err != nil {
		return nil, err
	}

	event := EventBookingTermsUpdated
	if booking.Status != observed {
		event = EventBookingStatusChanged
	}
	uc.announcer.Announce(ctx, event, bookingEvent(booking, ownerID), ownerID, booking.OperatorID)

	return booking, nil
}

// ensureNotFunded запрещает отмену, если деньги уже на escrow.
func (uc *UpdateBookingUseCase) ensureNotFunded(ctx context.Context, bookingID uuid.UUID) error {
	escrow, err := uc.escrowRepo.FindByBookingID(ctx, bookingID)
	if err != nil {
		return err
	}
	if escrow != nil && escrow.Status.HoldsFunds() {
		return apperror.ErrEscrowAlreadyFunded
	}
	return nil
}
