package escrow

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
	"github.com/ignatzorin/vessel-charter/internal/domain/repository"
	"github.com/ignatzorin/vessel-charter/internal/domain/valueobject"
	"github.com/ignatzorin/vessel-charter/internal/pkg/apperror"
	"github.com/ignatzorin/vessel-charter/internal/usecase/shared"
)

const (
	EventPaymentRequested    = "escrow.payment_requested"
	EventEscrowStatusChanged = "escrow.status_changed"
)

type InitiateEscrowInput struct {
	BookingID uuid.UUID
	Provider  string
	// Если Currency пустая, берётся валюта контракта.
	Currency string
}

type InitiateEscrowResult struct {
	Escrow     *entity.EscrowTransaction
	PaymentURL string
	Reference  string
	Amounts    valueobject.Amounts
	Payment    *repository.PaymentRequest
}

type InitiateEscrowUseCase struct {
	bookingRepo  repository.BookingRepository
	contractRepo repository.ContractRepository
	escrowRepo   repository.EscrowRepository
	vesselRepo   repository.VesselRepository
	parties      repository.PartyDirectory
	gateway      repository.PaymentGateway
	announcer    *shared.Announcer
	feePercent   int64
}

func NewInitiateEscrowUseCase(
	bookingRepo repository.BookingRepository,
	contractRepo repository.ContractRepository,
	escrowRepo repository.EscrowRepository,
	vesselRepo repository.VesselRepository,
	parties repository.PartyDirectory,
	gateway repository.PaymentGateway,
	announcer *shared.Announcer,
	feePercent int64,
) *InitiateEscrowUseCase {
	return &InitiateEscrowUseCase{
		bookingRepo:  bookingRepo,
		contractRepo: contractRepo,
		escrowRepo:   escrowRepo,
		vesselRepo:   vesselRepo,
		parties:      parties,
		gateway:      gateway,
		announcer:    announcer,
		feePercent:   feePercent,
	}
}

// Execute создаёт PENDING-транзакцию и готовит (но не отправляет) платёжный запрос.
// Отправкой занимается внешний воркер, получающий escrow.payment_requested.
func (uc *InitiateEscrowUseCase) Execute(ctx context.Context, actor entity.Actor, input InitiateEscrowInput) (*InitiateEscrowResult, error) {
	provider, err := valueobject.NewPaymentProvider(input.Provider)
	if err != nil {
		return nil, err
	}

	booking, err := uc.bookingRepo.FindByID(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}

	existing, err := uc.escrowRepo.FindByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.ErrEscrowExists
	}
	if booking.Status != valueobject.BookingStatusAccepted {
		return nil, apperror.ErrNotAccepted
	}

	contract, err := uc.contractRepo.FindByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, apperror.ErrContractMissing
	}
	vessel, err := uc.vesselRepo.FindByID(ctx, booking.VesselID)
	if err != nil {
		return nil, err
	}
	if !contract.IsFullySigned(vessel.OwnerID, booking.OperatorID) {
		return nil, apperror.ErrContractNotFullySigned
	}
	if actor.ID != booking.OperatorID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "оплатить escrow может только оператор бронирования")
	}

	// Суммы не конвертируются: валюта escrow совпадает с валютой контракта.
	currency := contract.Terms.Currency
	if input.Currency != "" {
		requested, err := valueobject.NewCurrency(input.Currency)
		if err != nil {
			return nil, err
		}
		if requested != currency {
			return nil, apperror.New(apperror.ErrCodeValidation, "валюта escrow должна совпадать с валютой контракта")
		}
	}

	amounts, err := valueobject.CalculateAmounts(contract.Terms.TotalAmount, uc.feePercent)
	if err != nil {
		return nil, err
	}

	tx := entity.NewEscrowTransaction(booking.ID, provider, currency, amounts)

	payer, err := uc.parties.FindParty(ctx, booking.OperatorID)
	if err != nil {
		return nil, err
	}
	if payer.Email == "" {
		payer.Email = actor.Email
	}
	payment, err := uc.gateway.BuildPayment(tx, payer)
	if err != nil {
		return nil, err
	}

	if err := uc.escrowRepo.Create(ctx, tx); err != nil {
		return nil, err
	}

	uc.announcer.Announce(ctx, EventPaymentRequested, paymentRequestedPayload{
		EscrowID:  tx.ID,
		BookingID: booking.ID,
		Amounts:   amounts,
		Currency:  string(currency),
		Request:   payment,
	})
	uc.announcer.Announce(ctx, EventEscrowStatusChanged, escrowEvent(tx), vessel.OwnerID, booking.OperatorID)

	return &InitiateEscrowResult{
		Escrow:     tx,
		PaymentURL: payment.PaymentURL,
		Reference:  tx.Reference,
		Amounts:    amounts,
		Payment:    payment,
	}, nil
}

type paymentRequestedPayload struct {
	EscrowID  uuid.UUID                  `json:"escrow_id"`
	BookingID uuid.UUID                  `json:"booking_id"`
	Amounts   valueobject.Amounts        `json:"amounts"`
	Currency  string                     `json:"currency"`
	Request   *repository.PaymentRequest `json:"request"`
}

type escrowEventPayload struct {
	EscrowID  uuid.UUID `json:"escrow_id"`
	BookingID uuid.UUID `json:"booking_id"`
	Reference string    `json:"reference"`
	Status    string    `json:"status"`
}

func escrowEvent(tx *entity.EscrowTransaction) escrowEventPayload {
	return escrowEventPayload{
		EscrowID:  tx.ID,
		BookingID: tx.BookingID,
		Reference: tx.Reference,
		Status:    string(tx.Status),
	}
}
