package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden     ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"

	ErrCodeDateRangeInvalid ErrorCode = "DATE_RANGE_INVALID"

	// Конфликты состояния.
	ErrCodeAlreadyExists          ErrorCode = "ALREADY_EXISTS"
	ErrCodeNotAccepted            ErrorCode = "NOT_ACCEPTED"
	ErrCodeContractMissing        ErrorCode = "CONTRACT_MISSING"
	ErrCodeContractNotFullySigned ErrorCode = "CONTRACT_NOT_FULLY_SIGNED"
	ErrCodeImmutableState         ErrorCode = "IMMUTABLE_STATE"
	ErrCodeOverlapConflict        ErrorCode = "OVERLAP_CONFLICT"
	ErrCodeOutsideAvailability    ErrorCode = "OUTSIDE_AVAILABILITY"
	ErrCodeInvalidTransition      ErrorCode = "INVALID_TRANSITION"
	ErrCodeVesselNotActive        ErrorCode = "VESSEL_NOT_ACTIVE"
	ErrCodeEscrowAlreadyFunded    ErrorCode = "ESCROW_ALREADY_FUNDED"

	ErrCodeConcurrencyConflict ErrorCode = "CONCURRENCY_CONFLICT"
	ErrCodeRateLimited         ErrorCode = "RATE_LIMITED"
)

// ErrorKind группирует коды в стабильную таксономию ошибок.
type ErrorKind string

const (
	KindValidation    ErrorKind = "ValidationError"
	KindAuthorization ErrorKind = "AuthorizationError"
	KindNotFound      ErrorKind = "NotFoundError"
	KindStateConflict ErrorKind = "StateConflict"
	KindConcurrency   ErrorKind = "ConcurrencyConflict"
	KindInternal      ErrorKind = "InternalError"
)

type AppError struct {
	Code       ErrorCode
	Kind       ErrorKind
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду, чтобы errors.Is работал с предопределёнными значениями.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Kind:       codeToKind(code),
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Kind:       codeToKind(code),
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToKind(code ErrorCode) ErrorKind {
	switch code {
	case ErrCodeValidation, ErrCodeBadRequest, ErrCodeDateRangeInvalid:
		return KindValidation
	case ErrCodeUnauthorized, ErrCodeForbidden:
		return KindAuthorization
	case ErrCodeNotFound:
		return KindNotFound
	case ErrCodeAlreadyExists, ErrCodeNotAccepted, ErrCodeContractMissing, ErrCodeContractNotFullySigned,
		ErrCodeImmutableState, ErrCodeOverlapConflict, ErrCodeOutsideAvailability, ErrCodeInvalidTransition,
		ErrCodeVesselNotActive, ErrCodeEscrowAlreadyFunded:
		return KindStateConflict
	case ErrCodeConcurrencyConflict:
		return KindConcurrency
	default:
		return KindInternal
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	if code == ErrCodeRateLimited {
		return http.StatusTooManyRequests
	}
	switch codeToKind(code) {
	case KindNotFound:
		return http.StatusNotFound
	case KindAuthorization:
		if code == ErrCodeUnauthorized {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindStateConflict, KindConcurrency:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf возвращает код ошибки или INTERNAL_ERROR для неизвестных ошибок.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound
}

func IsForbidden(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeForbidden
}

func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == KindValidation
}

func IsStateConflict(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == KindStateConflict
}

var (
	ErrVesselNotFound   = New(ErrCodeNotFound, "судно не найдено")
	ErrSlotNotFound     = New(ErrCodeNotFound, "окно доступности не найдено")
	ErrBookingNotFound  = New(ErrCodeNotFound, "бронирование не найдено")
	ErrContractNotFound = New(ErrCodeNotFound, "контракт не найден")
	ErrEscrowNotFound   = New(ErrCodeNotFound, "escrow-транзакция не найдена")
	ErrUserNotFound     = New(ErrCodeNotFound, "пользователь не найден")
	ErrUnauthorized     = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden        = New(ErrCodeForbidden, "недостаточно прав")

	ErrDateRangeInvalid       = New(ErrCodeDateRangeInvalid, "дата окончания должна быть позже даты начала")
	ErrOutsideAvailability    = New(ErrCodeOutsideAvailability, "запрошенный период вне окон доступности судна")
	ErrOverlapConflict        = New(ErrCodeOverlapConflict, "период пересекается с активным бронированием")
	ErrImmutableState         = New(ErrCodeImmutableState, "бронирование в конечном статусе и не может изменяться")
	ErrInvalidTransition      = New(ErrCodeInvalidTransition, "недопустимый переход статуса")
	ErrVesselNotActive        = New(ErrCodeVesselNotActive, "судно не опубликовано")
	ErrNotAccepted            = New(ErrCodeNotAccepted, "бронирование не подтверждено владельцем")
	ErrContractMissing        = New(ErrCodeContractMissing, "контракт для бронирования не создан")
	ErrContractNotFullySigned = New(ErrCodeContractNotFullySigned, "контракт подписан не всеми сторонами")
	ErrContractExists         = New(ErrCodeAlreadyExists, "контракт для бронирования уже существует")
	ErrEscrowExists           = New(ErrCodeAlreadyExists, "escrow для бронирования уже существует")
	ErrEscrowAlreadyFunded    = New(ErrCodeEscrowAlreadyFunded, "нельзя отменить бронирование с профинансированным escrow")
	ErrConcurrencyConflict    = New(ErrCodeConcurrencyConflict, "данные изменены параллельным запросом, перечитайте и повторите")
)
