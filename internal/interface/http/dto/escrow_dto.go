package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
	"github.com/ignatzorin/vessel-charter/internal/domain/repository"
	"github.com/ignatzorin/vessel-charter/internal/domain/valueobject"
	"github.com/ignatzorin/vessel-charter/internal/usecase/escrow"
)

type InitiateEscrowRequest struct {
	BookingID uuid.UUID `json:"booking_id" binding:"required"`
	Provider  string    `json:"provider" binding:"required"`
	// Если пусто, берётся валюта контракта.
	Currency string `json:"currency"`
}

type ProviderUpdateRequest struct {
	Status      string          `json:"status" binding:"required"`
	ProviderRef *string         `json:"provider_ref"`
	Payload     json.RawMessage `json:"payload"`
}

type EscrowEventResponse struct {
	Event       string          `json:"event"`
	Status      string          `json:"status"`
	ProviderRef *string         `json:"provider_ref,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type EscrowResponse struct {
	ID          uuid.UUID             `json:"id"`
	BookingID   uuid.UUID             `json:"booking_id"`
	Provider    string                `json:"provider"`
	Currency    string                `json:"currency"`
	Reference   string                `json:"reference"`
	TotalAmount int64                 `json:"total_amount"`
	AmountMinor int64                 `json:"amount_minor"`
	FeeMinor    int64                 `json:"fee_minor"`
	PayoutMinor int64                 `json:"owner_payout_minor"`
	Status      string                `json:"status"`
	Events      []EscrowEventResponse `json:"events"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

type InitiateEscrowResponse struct {
	Escrow     EscrowResponse             `json:"escrow"`
	PaymentURL string                     `json:"payment_url"`
	Reference  string                     `json:"reference"`
	Amounts    valueobject.Amounts        `json:"amounts"`
	Payment    *repository.PaymentRequest `json:"payment"`
}

func ToEscrowResponse(tx *entity.EscrowTransaction) EscrowResponse {
	events := make([]EscrowEventResponse, 0, len(tx.Events))
	for _, e := range tx.Events {
		events = append(events, EscrowEventResponse{
			Event:       e.Event,
			Status:      string(e.Status),
			ProviderRef: e.ProviderRef,
			Payload:     e.Payload,
			CreatedAt:   e.CreatedAt,
		})
	}
	return EscrowResponse{
		ID:          tx.ID,
		BookingID:   tx.BookingID,
		Provider:    string(tx.Provider),
		Currency:    string(tx.Currency),
		Reference:   tx.Reference,
		TotalAmount: tx.TotalAmount,
		AmountMinor: tx.Amount,
		FeeMinor:    tx.Fee,
		PayoutMinor: tx.OwnerPayout,
		Status:      string(tx.Status),
		Events:      events,
		CreatedAt:   tx.CreatedAt,
		UpdatedAt:   tx.UpdatedAt,
	}
}

func ToInitiateEscrowResponse(r *escrow.InitiateEscrowResult) InitiateEscrowResponse {
	return InitiateEscrowResponse{
		Escrow:     ToEscrowResponse(r.Escrow),
		PaymentURL: r.PaymentURL,
		Reference:  r.Reference,
		Amounts:    r.Amounts,
		Payment:    r.Payment,
	}
}
