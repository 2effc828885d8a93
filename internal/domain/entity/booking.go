package entity

import (
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ignatzorin/vessel-charter/internal/domain/valueobject"
	"github.com/ignatzorin/vessel-charter/internal/pkg/apperror"
)

const (
	MinPurposeLength = 10
	MaxPurposeLength = 2000
	MaxCustomClauses = 50
)

type BookingTerms struct {
	Purpose             string   `json:"purpose"`
	CargoType           *string  `json:"cargo_type,omitempty"`
	Route               *string  `json:"route,omitempty"`
	EstimatedCrew       *int     `json:"estimated_crew,omitempty"`
	SpecialRequirements *string  `json:"special_requirements,omitempty"`
	CustomClauses       []string `json:"custom_clauses,omitempty"`
}

func (t BookingTerms) Validate() error {
	purposeLen := utf8.RuneCountInString(strings.TrimSpace(t.Purpose))
	if purposeLen < MinPurposeLength {
		return apperror.New(apperror.ErrCodeValidation, "цель аренды должна быть не короче 10 символов")
	}
	if purposeLen > MaxPurposeLength {
		return apperror.New(apperror.ErrCodeValidation, "цель аренды слишком длинная")
	}
	if t.EstimatedCrew != nil && *t.EstimatedCrew < 0 {
		return apperror.New(apperror.ErrCodeValidation, "численность экипажа не может быть отрицательной")
	}
	if len(t.CustomClauses) > MaxCustomClauses {
		return apperror.New(apperror.ErrCodeValidation, "слишком много дополнительных условий")
	}
	return nil
}

// TermsPatch: частичное обновление условий; nil означает «без изменений».
type TermsPatch struct {
	Purpose             *string
	CargoType           *string
	Route               *string
	EstimatedCrew       *int
	SpecialRequirements *string
	CustomClauses       *[]string
}

func (p TermsPatch) IsEmpty() bool {
	return p.Purpose == nil && p.CargoType == nil && p.Route == nil &&
		p.EstimatedCrew == nil && p.SpecialRequirements == nil && p.CustomClauses == nil
}

// FieldChange фиксирует изменение одного поля в истории переговоров.
type FieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}

type Booking struct {
	ID         uuid.UUID
	VesselID   uuid.UUID
	OperatorID uuid.UUID
	Start      time.Time
	End        time.Time
	Status     valueobject.BookingStatus
	Terms      BookingTerms
	// Version растёт при каждом сохранении; по нему ловятся параллельные правки.
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ValidateNewBooking выполняет чистую проверку допуска новой брони без побочных эффектов.
func ValidateNewBooking(vessel *Vessel, reqStart, reqEnd time.Time, activeBookings []*Booking) error {
	if !reqEnd.After(reqStart) {
		return apperror.ErrDateRangeInvalid
	}
	if !valueobject.WithinAvailability(reqStart, reqEnd, vessel.SlotRanges()) {
		return apperror.ErrOutsideAvailability
	}
	for _, b := range activeBookings {
		if !b.Status.IsActive() {
			continue
		}
		if valueobject.Overlaps(reqStart, reqEnd, b.Start, b.End) {
			return apperror.ErrOverlapConflict
		}
	}
	return nil
}

// NewBooking проверяет все предусловия создания. Вызывается внутри транзакции,
// заблокировавшей судно, поэтому activeBookings актуальны на момент вставки.
func NewBooking(vessel *Vessel, operatorID uuid.UUID, start, end time.Time, terms BookingTerms, activeBookings []*Booking) (*Booking, error) {
	if err := terms.Validate(); err != nil {
		return nil, err
	}
	if !vessel.IsActive() {
		return nil, apperror.ErrVesselNotActive
	}
	if vessel.IsOwnedBy(operatorID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "владелец не может бронировать собственное судно")
	}
	start, end = start.UTC(), end.UTC()
	if err := ValidateNewBooking(vessel, start, end, activeBookings); err != nil {
		return nil, err
	}

	terms.Purpose = strings.TrimSpace(terms.Purpose)
	now := time.Now().UTC()
	return &Booking{
		ID:         uuid.New(),
		VesselID:   vessel.ID,
		OperatorID: operatorID,
		Start:      start,
		End:        end,
		Status:     valueobject.BookingStatusRequested,
		Terms:      terms,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (b *Booking) IsParty(userID, ownerID uuid.UUID) bool {
	return userID == b.OperatorID || userID == ownerID
}

// Transition меняет статус с учётом роли участника.
// Оператор может только отменить свою бронь. Владелец может принять, выставить встречное
// предложение или отменить. Администратору доступен любой допустимый переход.
func (b *Booking) Transition(actor Actor, ownerID uuid.UUID, to valueobject.BookingStatus) error {
	isOwner := actor.ID == ownerID
	isOperator := actor.ID == b.OperatorID
	if !actor.IsAdmin() && !isOwner && !isOperator {
		return apperror.ErrForbidden
	}
	if b.Status.IsTerminal() {
		return apperror.ErrImmutableState
	}
	if !b.Status.CanTransitionTo(to) {
		return apperror.ErrInvalidTransition
	}

	switch {
	case actor.IsAdmin(), isOwner:
	case isOperator:
		if to != valueobject.BookingStatusCancelled {
			return apperror.New(apperror.ErrCodeForbidden, "оператор может только отменить бронирование")
		}
	}

	b.Status = to
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// MergeTerms применяет патч и возвращает список фактически изменённых полей.
func (b *Booking) MergeTerms(actor Actor, ownerID uuid.UUID, patch TermsPatch) (map[string]FieldChange, error) {
	if !actor.IsAdmin() && !b.IsParty(actor.ID, ownerID) {
		return nil, apperror.ErrForbidden
	}
	if b.Status.IsTerminal() {
		return nil, apperror.ErrImmutableState
	}

	next := b.Terms
	changes := make(map[string]FieldChange)

	if patch.Purpose != nil {
		purpose := strings.TrimSpace(*patch.Purpose)
		if purpose != next.Purpose {
			changes["purpose"] = FieldChange{From: next.Purpose, To: purpose}
			next.Purpose = purpose
		}
	}
	mergeOptional(changes, "cargo_type", &next.CargoType, patch.CargoType)
	mergeOptional(changes, "route", &next.Route, patch.Route)
	mergeOptional(changes, "special_requirements", &next.SpecialRequirements, patch.SpecialRequirements)
	if patch.EstimatedCrew != nil && (next.EstimatedCrew == nil || *next.EstimatedCrew != *patch.EstimatedCrew) {
		crew := *patch.EstimatedCrew
		changes["estimated_crew"] = FieldChange{From: next.EstimatedCrew, To: crew}
		next.EstimatedCrew = &crew
	}
	if patch.CustomClauses != nil && !reflect.DeepEqual(next.CustomClauses, *patch.CustomClauses) {
		clauses := append([]string(nil), (*patch.CustomClauses)...)
		changes["custom_clauses"] = FieldChange{From: next.CustomClauses, To: clauses}
		next.CustomClauses = clauses
	}

	if len(changes) == 0 {
		return changes, nil
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}

	b.Terms = next
	b.UpdatedAt = time.Now().UTC()
	return changes, nil
}

func mergeOptional(changes map[string]FieldChange, field string, current **string, value *string) {
	if value == nil {
		return
	}
	if *current != nil && **current == *value {
		return
	}
	v := *value
	var from any
	if *current != nil {
		from = **current
	}
	changes[field] = FieldChange{From: from, To: v}
	*current = &v
}
