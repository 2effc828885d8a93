package entity

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/vessel-charter/internal/domain/valueobject"
	"github.com/ignatzorin/vessel-charter/internal/pkg/apperror"
)

const EscrowEventCreated = "CREATED"

type EscrowTransaction struct {
	ID          uuid.UUID
	BookingID   uuid.UUID
	Provider    valueobject.PaymentProvider
	Currency    valueobject.Currency
	Reference   string
	TotalAmount int64
	// Суммы ниже в минимальных единицах валюты.
	Amount      int64
	Fee         int64
	OwnerPayout int64
	Status      valueobject.EscrowStatus
	Events      []EscrowEvent
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type EscrowEvent struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	Event         string
	Status        valueobject.EscrowStatus
	ProviderRef   *string
	Payload       json.RawMessage
	CreatedAt     time.Time
}

// GenerateReference формирует ссылку вида BF-{префикс брони}-{unix ms}-{случайный суффикс}.
func GenerateReference(bookingID uuid.UUID, now time.Time) string {
	prefix := strings.ToUpper(strings.ReplaceAll(bookingID.String(), "-", "")[:8])
	random := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("BF-%s-%d-%s", prefix, now.UnixMilli(), random)
}

func NewEscrowTransaction(
	bookingID uuid.UUID,
	provider valueobject.PaymentProvider,
	currency valueobject.Currency,
	amounts valueobject.Amounts,
) *EscrowTransaction {
	now := time.Now().UTC()
	tx := &EscrowTransaction{
		ID:          uuid.New(),
		BookingID:   bookingID,
		Provider:    provider,
		Currency:    currency,
		Reference:   GenerateReference(bookingID, now),
		TotalAmount: amounts.Total,
		Amount:      amounts.TotalMinor,
		Fee:         amounts.PlatformFeeMinor,
		OwnerPayout: amounts.OwnerPayoutMinor,
		Status:      valueobject.EscrowStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	tx.Events = []EscrowEvent{tx.newEvent(EscrowEventCreated, valueobject.EscrowStatusPending, nil, nil)}
	return tx
}

// ApplyStatus продвигает статус вперёд. Повтор текущего статуса ничего не делает (nil, nil).
func (e *EscrowTransaction) ApplyStatus(newStatus valueobject.EscrowStatus, providerRef *string, payload json.RawMessage) (*EscrowEvent, error) {
	if !newStatus.IsValid() {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный статус escrow")
	}
	if e.Status == newStatus {
		return nil, nil
	}
	if !e.Status.CanTransitionTo(newStatus) {
		return nil, apperror.Wrap(
			apperror.ErrInvalidTransition,
			apperror.ErrCodeInvalidTransition,
			fmt.Sprintf("переход escrow %s → %s недопустим", e.Status, newStatus),
		)
	}

	e.Status = newStatus
	e.UpdatedAt = time.Now().UTC()
	event := e.newEvent(string(newStatus), newStatus, providerRef, payload)
	e.Events = append(e.Events, event)
	return &event, nil
}

// HasReached сообщает, проходила ли транзакция через статус (по журналу событий).
func (e *EscrowTransaction) HasReached(status valueobject.EscrowStatus) bool {
	if e.Status == status {
		return true
	}
	for _, ev := range e.Events {
		if ev.Status == status {
			return true
		}
	}
	return false
}

func (e *EscrowTransaction) newEvent(name string, status valueobject.EscrowStatus, providerRef *string, payload json.RawMessage) EscrowEvent {
	return EscrowEvent{
		ID:            uuid.New(),
		TransactionID: e.ID,
		Event:         name,
		Status:        status,
		ProviderRef:   providerRef,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
	}
}
