package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/vessel-charter/internal/domain/valueobject"
	"github.com/ignatzorin/vessel-charter/internal/pkg/apperror"
)

// MaxDailyRate в основных единицах валюты.
const MaxDailyRate int64 = 1_000_000_000

type Vessel struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Spec      VesselSpec
	DailyRate int64
	Currency  valueobject.Currency
	Status    valueobject.VesselStatus
	Slots     []AvailabilitySlot
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VesselSpec: характеристики судна, попадающие в снимок контракта.
type VesselSpec struct {
	Name           string  `json:"name"`
	VesselType     string  `json:"vessel_type"`
	IMONumber      string  `json:"imo_number,omitempty"`
	HomePort       string  `json:"home_port,omitempty"`
	LengthMeters   float64 `json:"length_meters,omitempty"`
	CapacityTonnes float64 `json:"capacity_tonnes,omitempty"`
	CrewCapacity   int     `json:"crew_capacity,omitempty"`
}

type AvailabilitySlot struct {
	ID        uuid.UUID
	VesselID  uuid.UUID
	Start     time.Time
	End       time.Time
	CreatedAt time.Time
}

func NewVessel(ownerID uuid.UUID, spec VesselSpec, dailyRate int64, currency valueobject.Currency) (*Vessel, error) {
	spec.Name = strings.TrimSpace(spec.Name)
	if spec.Name == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "название судна обязательно")
	}
	if strings.TrimSpace(spec.VesselType) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "тип судна обязателен")
	}
	if dailyRate <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "суточная ставка должна быть положительной")
	}
	if dailyRate > MaxDailyRate {
		return nil, apperror.New(apperror.ErrCodeValidation, "суточная ставка слишком велика")
	}
	if spec.LengthMeters < 0 || spec.CapacityTonnes < 0 || spec.CrewCapacity < 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "характеристики судна не могут быть отрицательными")
	}

	now := time.Now().UTC()
	return &Vessel{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Spec:      spec,
		DailyRate: dailyRate,
		Currency:  currency,
		Status:    valueobject.VesselStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (v *Vessel) IsOwnedBy(userID uuid.UUID) bool {
	return v.OwnerID == userID
}

func (v *Vessel) IsActive() bool {
	return v.Status == valueobject.VesselStatusActive
}

func (v *Vessel) Activate() error {
	if v.Status == valueobject.VesselStatusActive {
		return apperror.New(apperror.ErrCodeInvalidTransition, "судно уже опубликовано")
	}
	v.Status = valueobject.VesselStatusActive
	v.UpdatedAt = time.Now().UTC()
	return nil
}

// NewSlot создаёт окно доступности. Уже принятые брони при этом не перепроверяются.
func (v *Vessel) NewSlot(start, end time.Time) (*AvailabilitySlot, error) {
	if !end.After(start) {
		return nil, apperror.ErrDateRangeInvalid
	}
	return &AvailabilitySlot{
		ID:        uuid.New(),
		VesselID:  v.ID,
		Start:     start.UTC(),
		End:       end.UTC(),
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (v *Vessel) SlotRanges() []valueobject.Slot {
	ranges := make([]valueobject.Slot, 0, len(v.Slots))
	for _, s := range v.Slots {
		ranges = append(ranges, valueobject.Slot{Start: s.Start, End: s.End})
	}
	return ranges
}
