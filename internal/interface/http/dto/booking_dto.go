package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
	"github.com/ignatzorin/vessel-charter/internal/usecase/booking"
)

type CreateBookingRequest struct {
	VesselID uuid.UUID           `json:"vessel_id" binding:"required"`
	Start    time.Time           `json:"start" binding:"required"`
	End      time.Time           `json:"end" binding:"required"`
	Terms    entity.BookingTerms `json:"terms"`
}

// TermsPatchDTO описывает частичное обновление условий; отсутствующее поле не меняется.
type TermsPatchDTO struct {
	Purpose             *string   `json:"purpose"`
	CargoType           *string   `json:"cargo_type"`
	Route               *string   `json:"route"`
	EstimatedCrew       *int      `json:"estimated_crew"`
	SpecialRequirements *string   `json:"special_requirements"`
	CustomClauses       *[]string `json:"custom_clauses"`
}

type UpdateBookingRequest struct {
	Status *string        `json:"status"`
	Note   string         `json:"note"`
	Terms  *TermsPatchDTO `json:"terms"`
}

func (r UpdateBookingRequest) ToInput() booking.UpdateBookingInput {
	input := booking.UpdateBookingInput{Status: r.Status, Note: r.Note}
	if r.Terms != nil {
		input.Terms = &entity.TermsPatch{
			Purpose:             r.Terms.Purpose,
			CargoType:           r.Terms.CargoType,
			Route:               r.Terms.Route,
			EstimatedCrew:       r.Terms.EstimatedCrew,
			SpecialRequirements: r.Terms.SpecialRequirements,
			CustomClauses:       r.Terms.CustomClauses,
		}
	}
	return input
}

type BookingResponse struct {
	ID         uuid.UUID           `json:"id"`
	VesselID   uuid.UUID           `json:"vessel_id"`
	OperatorID uuid.UUID           `json:"operator_id"`
	Start      time.Time           `json:"start"`
	End        time.Time           `json:"end"`
	Status     string              `json:"status"`
	Terms      entity.BookingTerms `json:"terms"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

type VesselSummary struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Name      string    `json:"name"`
	DailyRate int64     `json:"daily_rate"`
	Currency  string    `json:"currency"`
}

type BookingDetailsResponse struct {
	BookingResponse
	Vessel   VesselSummary `json:"vessel"`
	Operator entity.Party  `json:"operator"`
}

type NegotiationEntryResponse struct {
	Seq       int64                         `json:"seq"`
	UpdatedBy uuid.UUID                     `json:"updated_by"`
	UpdatedAt time.Time                     `json:"updated_at"`
	Note      string                        `json:"note,omitempty"`
	Changes   map[string]entity.FieldChange `json:"changes,omitempty"`
}

func ToBookingResponse(b *entity.Booking) BookingResponse {
	return BookingResponse{
		ID:         b.ID,
		VesselID:   b.VesselID,
		OperatorID: b.OperatorID,
		Start:      b.Start,
		End:        b.End,
		Status:     string(b.Status),
		Terms:      b.Terms,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func ToBookingResponses(bookings []*entity.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, ToBookingResponse(b))
	}
	return out
}

func ToBookingDetailsResponse(d *booking.BookingDetails) BookingDetailsResponse {
	return BookingDetailsResponse{
		BookingResponse: ToBookingResponse(d.Booking),
		Vessel: VesselSummary{
			ID:        d.Vessel.ID,
			OwnerID:   d.Vessel.OwnerID,
			Name:      d.Vessel.Spec.Name,
			DailyRate: d.Vessel.DailyRate,
			Currency:  string(d.Vessel.Currency),
		},
		Operator: d.Operator,
	}
}

func ToHistoryResponse(entries []*entity.NegotiationEntry) []NegotiationEntryResponse {
	out := make([]NegotiationEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, NegotiationEntryResponse{
			Seq:       e.Seq,
			UpdatedBy: e.UpdatedBy,
			UpdatedAt: e.UpdatedAt,
			Note:      e.Note,
			Changes:   e.Changes,
		})
	}
	return out
}
