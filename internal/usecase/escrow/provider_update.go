package escrow

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
	"github.com/ignatzorin/vessel-charter/internal/domain/repository"
	"github.com/ignatzorin/vessel-charter/internal/domain/valueobject"
	"github.com/ignatzorin/vessel-charter/internal/logger"
	"github.com/ignatzorin/vessel-charter/internal/pkg/apperror"
	"github.com/ignatzorin/vessel-charter/internal/usecase/shared"
)

// statusApplier реализует общий путь изменения статуса escrow под блокировкой строки.
type statusApplier struct {
	escrowRepo  repository.EscrowRepository
	bookingRepo repository.BookingRepository
	vesselRepo  repository.VesselRepository
	announcer   *shared.Announcer
}

func (a *statusApplier) apply(ctx context.Context, id uuid.UUID, mutate repository.MutateFunc) (*entity.EscrowTransaction, error) {
	before := valueobject.EscrowStatus("")
	tx, err := a.escrowRepo.Mutate(ctx, id, func(tx *entity.EscrowTransaction) (*entity.EscrowEvent, error) {
		before = tx.Status
		return mutate(tx)
	})
	if err != nil {
		return nil, err
	}

	if tx.Status != before {
		a.announcer.Announce(ctx, EventEscrowStatusChanged, escrowEvent(tx), a.recipients(ctx, tx.BookingID)...)
	}
	return tx, nil
}

// recipients возвращает владельца и оператора; сбой поиска не мешает публикации в шину.
func (a *statusApplier) recipients(ctx context.Context, bookingID uuid.UUID) []uuid.UUID {
	booking, err := a.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		logger.L().WithFields(logrus.Fields{"booking_id": bookingID.String(), "error": err.Error()}).
			Warn("не удалось определить получателей уведомления escrow")
		return nil
	}
	vessel, err := a.vesselRepo.FindByID(ctx, booking.VesselID)
	if err != nil {
		return []uuid.UUID{booking.OperatorID}
	}
	return []uuid.UUID{vessel.OwnerID, booking.OperatorID}
}

type ApplyProviderUpdateInput struct {
	Status      string
	ProviderRef *string
	Payload     json.RawMessage
}

type ApplyProviderUpdateUseCase struct {
	applier statusApplier
}

func NewApplyProviderUpdateUseCase(
	escrowRepo repository.EscrowRepository,
	bookingRepo repository.BookingRepository,
	vesselRepo repository.VesselRepository,
	announcer *shared.Announcer,
) *ApplyProviderUpdateUseCase {
	return &ApplyProviderUpdateUseCase{applier: statusApplier{
		escrowRepo:  escrowRepo,
		bookingRepo: bookingRepo,
		vesselRepo:  vesselRepo,
		announcer:   announcer,
	}}
}

// Execute выполняет ручное изменение статуса администратором. Повтор текущего статуса ничего не пишет.
func (uc *ApplyProviderUpdateUseCase) Execute(ctx context.Context, actor entity.Actor, id uuid.UUID, input ApplyProviderUpdateInput) (*entity.EscrowTransaction, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	status, err := valueobject.NewEscrowStatus(input.Status)
	if err != nil {
		return nil, err
	}

	return uc.applier.apply(ctx, id, func(tx *entity.EscrowTransaction) (*entity.EscrowEvent, error) {
		return tx.ApplyStatus(status, input.ProviderRef, input.Payload)
	})
}

// ProviderEvent: нормализованное уведомление платёжного провайдера.
type ProviderEvent struct {
	Provider    valueobject.PaymentProvider
	Reference   string
	Status      valueobject.EscrowStatus
	ProviderRef *string
	Payload     json.RawMessage
}

type ProcessProviderEventUseCase struct {
	applier statusApplier
}

func NewProcessProviderEventUseCase(
	escrowRepo repository.EscrowRepository,
	bookingRepo repository.BookingRepository,
	vesselRepo repository.VesselRepository,
	announcer *shared.Announcer,
) *ProcessProviderEventUseCase {
	return &ProcessProviderEventUseCase{applier: statusApplier{
		escrowRepo:  escrowRepo,
		bookingRepo: bookingRepo,
		vesselRepo:  vesselRepo,
		announcer:   announcer,
	}}
}

// Execute применяет вебхук. Провайдеры доставляют события повторно, поэтому статус,
// уже пройденный транзакцией, не считается ошибкой. Успешная оплата PENDING-транзакции
// проводится двумя шагами: PROCESSING, затем FUNDED.
func (uc *ProcessProviderEventUseCase) Execute(ctx context.Context, event ProviderEvent) (*entity.EscrowTransaction, error) {
	current, err := uc.applier.escrowRepo.FindByReference(ctx, event.Reference)
	if err != nil {
		return nil, err
	}
	if current.Provider != event.Provider {
		return nil, apperror.New(apperror.ErrCodeValidation, "транзакция принадлежит другому провайдеру")
	}

	return uc.applier.apply(ctx, current.ID, func(tx *entity.EscrowTransaction) (*entity.EscrowEvent, error) {
		if tx.HasReached(event.Status) {
			return nil, nil
		}

		steps := []valueobject.EscrowStatus{event.Status}
		if event.Status == valueobject.EscrowStatusFunded && tx.Status == valueobject.EscrowStatusPending {
			steps = []valueobject.EscrowStatus{valueobject.EscrowStatusProcessing, valueobject.EscrowStatusFunded}
		}

		var last *entity.EscrowEvent
		for _, status := range steps {
			ev, err := tx.ApplyStatus(status, event.ProviderRef, event.Payload)
			if err != nil {
				return nil, err
			}
			if ev != nil {
				last = ev
			}
		}
		return last, nil
	})
}

type GetEscrowUseCase struct {
	escrowRepo  repository.EscrowRepository
	bookingRepo repository.BookingRepository
	vesselRepo  repository.VesselRepository
}

func NewGetEscrowUseCase(
	escrowRepo repository.EscrowRepository,
	bookingRepo repository.BookingRepository,
	vesselRepo repository.VesselRepository,
) *GetEscrowUseCase {
	return &GetEscrowUseCase{escrowRepo: escrowRepo, bookingRepo: bookingRepo, vesselRepo: vesselRepo}
}

func (uc *GetEscrowUseCase) Execute(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.EscrowTransaction, error) {
	tx, err := uc.escrowRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() {
		return tx, nil
	}

	booking, err := uc.bookingRepo.FindByID(ctx, tx.BookingID)
	if err != nil {
		return nil, err
	}
	vessel, err := uc.vesselRepo.FindByID(ctx, booking.VesselID)
	if err != nil {
		return nil, err
	}
	if !booking.IsParty(actor.ID, vessel.OwnerID) {
		return nil, apperror.ErrForbidden
	}
	return tx, nil
}
