package valueobject

import "github.com/ignatzorin/vessel-charter/internal/pkg/apperror"

type VesselStatus string

const (
	VesselStatusDraft  VesselStatus = "DRAFT"
	VesselStatusActive VesselStatus = "ACTIVE"
)

func (s VesselStatus) IsValid() bool {
	switch s {
	case VesselStatusDraft, VesselStatusActive:
		return true
	}
	return false
}

type BookingStatus string

const (
	BookingStatusRequested BookingStatus = "REQUESTED"
	BookingStatusCountered BookingStatus = "COUNTERED"
	BookingStatusAccepted  BookingStatus = "ACCEPTED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusRequested: {BookingStatusCountered, BookingStatusAccepted, BookingStatusCancelled},
	BookingStatusCountered: {BookingStatusAccepted, BookingStatusCancelled},
	BookingStatusAccepted:  {},
	BookingStatusCancelled: {},
}

func (s BookingStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// IsTerminal сообщает, что статус больше не меняется.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusAccepted || s == BookingStatusCancelled
}

// IsActive сообщает, что бронь участвует в проверке пересечений.
func (s BookingStatus) IsActive() bool {
	return s == BookingStatusRequested || s == BookingStatusCountered || s == BookingStatusAccepted
}

func (s BookingStatus) CanTransitionTo(newStatus BookingStatus) bool {
	for _, status := range bookingTransitions[s] {
		if status == newStatus {
			return true
		}
	}
	return false
}

func NewBookingStatus(status string) (BookingStatus, error) {
	s := BookingStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус бронирования")
	}
	return s, nil
}

// ActiveBookingStatuses используется в SQL-фильтрах.
func ActiveBookingStatuses() []string {
	return []string{string(BookingStatusRequested), string(BookingStatusCountered), string(BookingStatusAccepted)}
}

type ContractStatus string

const (
	ContractStatusPendingSignatures ContractStatus = "PENDING_SIGNATURES"
	ContractStatusPartiallySigned   ContractStatus = "PARTIALLY_SIGNED"
	ContractStatusFullySigned       ContractStatus = "FULLY_SIGNED"
)

type EscrowStatus string

const (
	EscrowStatusPending    EscrowStatus = "PENDING"
	EscrowStatusProcessing EscrowStatus = "PROCESSING"
	EscrowStatusFunded     EscrowStatus = "FUNDED"
	EscrowStatusReleased   EscrowStatus = "RELEASED"
	EscrowStatusRefunded   EscrowStatus = "REFUNDED"
	EscrowStatusFailed     EscrowStatus = "FAILED"
	EscrowStatusDisputed   EscrowStatus = "DISPUTED"
)

func (s EscrowStatus) IsValid() bool {
	switch s {
	case EscrowStatusPending, EscrowStatusProcessing, EscrowStatusFunded, EscrowStatusReleased,
		EscrowStatusRefunded, EscrowStatusFailed, EscrowStatusDisputed:
		return true
	}
	return false
}

// CanTransitionTo допускает только движение вперёд:
// PENDING→PROCESSING→FUNDED→RELEASED, FUNDED→REFUNDED, любой→FAILED, любой→DISPUTED.
func (s EscrowStatus) CanTransitionTo(newStatus EscrowStatus) bool {
	if s == newStatus {
		return false
	}
	switch newStatus {
	case EscrowStatusFailed, EscrowStatusDisputed:
		return true
	case EscrowStatusProcessing:
		return s == EscrowStatusPending
	case EscrowStatusFunded:
		return s == EscrowStatusProcessing
	case EscrowStatusReleased, EscrowStatusRefunded:
		return s == EscrowStatusFunded
	}
	return false
}

// HoldsFunds сообщает, что средства уже поступили на escrow.
func (s EscrowStatus) HoldsFunds() bool {
	return s == EscrowStatusFunded || s == EscrowStatusReleased
}

func NewEscrowStatus(status string) (EscrowStatus, error) {
	s := EscrowStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус escrow")
	}
	return s, nil
}

type PaymentProvider string

const (
	ProviderPaystack    PaymentProvider = "PAYSTACK"
	ProviderFlutterwave PaymentProvider = "FLUTTERWAVE"
)

func NewPaymentProvider(p string) (PaymentProvider, error) {
	switch PaymentProvider(p) {
	case ProviderPaystack, ProviderFlutterwave:
		return PaymentProvider(p), nil
	}
	return "", apperror.New(apperror.ErrCodeValidation, "неподдерживаемый платёжный провайдер")
}

type Currency string

const (
	CurrencyNGN Currency = "NGN"
	CurrencyUSD Currency = "USD"
)

func NewCurrency(c string) (Currency, error) {
	switch Currency(c) {
	case CurrencyNGN, CurrencyUSD:
		return Currency(c), nil
	}
	return "", apperror.New(apperror.ErrCodeValidation, "неподдерживаемая валюта")
}

// Роли участников, приходящие из токена.
type Role string

const (
	RoleOperator Role = "operator"
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
)
