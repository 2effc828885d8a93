package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/vessel-charter/internal/domain/valueobject"
	"github.com/ignatzorin/vessel-charter/internal/pkg/apperror"
)

// Party описывает сторону договора.
type Party struct {
	ID          uuid.UUID `json:"id"`
	Role        string    `json:"role"`
	DisplayName string    `json:"display_name,omitempty"`
	Email       string    `json:"email,omitempty"`
}

// ContractTerms: структурированные условия, передаваемые в сервис рендеринга.
type ContractTerms struct {
	BookingID           uuid.UUID            `json:"booking_id"`
	VesselID            uuid.UUID            `json:"vessel_id"`
	Owner               Party                `json:"owner"`
	Operator            Party                `json:"operator"`
	Vessel              VesselSpec           `json:"vessel"`
	Start               time.Time            `json:"start"`
	End                 time.Time            `json:"end"`
	DurationDays        int64                `json:"duration_days"`
	DailyRate           int64                `json:"daily_rate"`
	Currency            valueobject.Currency `json:"currency"`
	TotalAmount         int64                `json:"total_amount"`
	Purpose             string               `json:"purpose"`
	CargoType           *string              `json:"cargo_type,omitempty"`
	Route               *string              `json:"route,omitempty"`
	EstimatedCrew       *int                 `json:"estimated_crew,omitempty"`
	SpecialRequirements *string              `json:"special_requirements,omitempty"`
	CustomClauses       []string             `json:"custom_clauses,omitempty"`
	GeneratedAt         time.Time            `json:"generated_at"`
}

// GenerateTerms выводит условия договора из брони и судна.
func GenerateTerms(booking *Booking, vessel *Vessel, owner, operator Party) (ContractTerms, error) {
	duration := valueobject.DurationDays(booking.Start, booking.End)
	total, err := valueobject.MultiplyAmount(vessel.DailyRate, duration)
	if err != nil {
		return ContractTerms{}, err
	}
	owner.ID, owner.Role = vessel.OwnerID, string(valueobject.RoleOwner)
	operator.ID, operator.Role = booking.OperatorID, string(valueobject.RoleOperator)

	return ContractTerms{
		BookingID:           booking.ID,
		VesselID:            vessel.ID,
		Owner:               owner,
		Operator:            operator,
		Vessel:              vessel.Spec,
		Start:               booking.Start,
		End:                 booking.End,
		DurationDays:        duration,
		DailyRate:           vessel.DailyRate,
		Currency:            vessel.Currency,
		TotalAmount:         total,
		Purpose:             booking.Terms.Purpose,
		CargoType:           booking.Terms.CargoType,
		Route:               booking.Terms.Route,
		EstimatedCrew:       booking.Terms.EstimatedCrew,
		SpecialRequirements: booking.Terms.SpecialRequirements,
		CustomClauses:       append([]string(nil), booking.Terms.CustomClauses...),
		GeneratedAt:         time.Now().UTC(),
	}, nil
}

type Contract struct {
	ID        uuid.UUID
	BookingID uuid.UUID
	Version   int
	PDFURL    *string
	Hash      *string
	Terms     ContractTerms
	SignerIDs []uuid.UUID
	SignedAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewContract требует, чтобы бронь была принята владельцем.
func NewContract(booking *Booking, terms ContractTerms) (*Contract, error) {
	if booking.Status != valueobject.BookingStatusAccepted {
		return nil, apperror.ErrNotAccepted
	}
	now := time.Now().UTC()
	return &Contract{
		ID:        uuid.New(),
		BookingID: booking.ID,
		Version:   1,
		Terms:     terms,
		SignerIDs: []uuid.UUID{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (c *Contract) HasSigned(userID uuid.UUID) bool {
	for _, id := range c.SignerIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// AddSigner идемпотентен: повторная подпись ничего не меняет.
func (c *Contract) AddSigner(userID uuid.UUID) bool {
	if c.HasSigned(userID) {
		return false
	}
	c.SignerIDs = append(c.SignerIDs, userID)
	c.UpdatedAt = time.Now().UTC()
	return true
}

func (c *Contract) IsFullySigned(ownerID, operatorID uuid.UUID) bool {
	return c.HasSigned(ownerID) && c.HasSigned(operatorID)
}

// Status всегда вычисляется из состава подписантов и нигде не сохраняется.
func (c *Contract) Status(ownerID, operatorID uuid.UUID) valueobject.ContractStatus {
	signed := 0
	if c.HasSigned(ownerID) {
		signed++
	}
	if c.HasSigned(operatorID) {
		signed++
	}
	switch signed {
	case 2:
		return valueobject.ContractStatusFullySigned
	case 1:
		return valueobject.ContractStatusPartiallySigned
	default:
		return valueobject.ContractStatusPendingSignatures
	}
}

func (c *Contract) AttachDocument(url, hash string) {
	c.PDFURL = &url
	c.Hash = &hash
	c.UpdatedAt = time.Now().UTC()
}
