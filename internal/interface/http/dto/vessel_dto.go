package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
)

type CreateVesselRequest struct {
	// Только для администратора: создать судно от имени владельца.
	OwnerID   *uuid.UUID        `json:"owner_id"`
	Spec      entity.VesselSpec `json:"spec"`
	DailyRate int64             `json:"daily_rate" binding:"required,gt=0"`
	Currency  string            `json:"currency" binding:"required"`
}

type AddSlotRequest struct {
	Start time.Time `json:"start" binding:"required"`
	End   time.Time `json:"end" binding:"required"`
}

type SlotResponse struct {
	ID    uuid.UUID `json:"id"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type VesselResponse struct {
	ID        uuid.UUID         `json:"id"`
	OwnerID   uuid.UUID         `json:"owner_id"`
	Spec      entity.VesselSpec `json:"spec"`
	DailyRate int64             `json:"daily_rate"`
	Currency  string            `json:"currency"`
	Status    string            `json:"status"`
	Slots     []SlotResponse    `json:"availability"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func ToSlotResponse(slot entity.AvailabilitySlot) SlotResponse {
	return SlotResponse{ID: slot.ID, Start: slot.Start, End: slot.End}
}

func ToVesselResponse(v *entity.Vessel) VesselResponse {
	slots := make([]SlotResponse, 0, len(v.Slots))
	for _, slot := range v.Slots {
		slots = append(slots, ToSlotResponse(slot))
	}
	return VesselResponse{
		ID:        v.ID,
		OwnerID:   v.OwnerID,
		Spec:      v.Spec,
		DailyRate: v.DailyRate,
		Currency:  string(v.Currency),
		Status:    string(v.Status),
		Slots:     slots,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

func ToVesselResponses(vessels []*entity.Vessel) []VesselResponse {
	out := make([]VesselResponse, 0, len(vessels))
	for _, v := range vessels {
		out = append(out, ToVesselResponse(v))
	}
	return out
}
