package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
	"github.com/ignatzorin/vessel-charter/internal/usecase/contract"
)

type CreateContractRequest struct {
	BookingID uuid.UUID `json:"booking_id" binding:"required"`
}

type ContractResponse struct {
	ID         uuid.UUID            `json:"id"`
	BookingID  uuid.UUID            `json:"booking_id"`
	Version    int                  `json:"version"`
	Status     string               `json:"status"`
	PDFURL     *string              `json:"pdf_url"`
	Hash       *string              `json:"hash"`
	Terms      entity.ContractTerms `json:"terms"`
	SignerIDs  []uuid.UUID          `json:"signer_ids"`
	OwnerID    uuid.UUID            `json:"owner_id"`
	OperatorID uuid.UUID            `json:"operator_id"`
	SignedAt   *time.Time           `json:"signed_at"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

func ToContractResponse(v *contract.ContractView) ContractResponse {
	c := v.Contract
	signers := c.SignerIDs
	if signers == nil {
		signers = []uuid.UUID{}
	}
	return ContractResponse{
		ID:         c.ID,
		BookingID:  c.BookingID,
		Version:    c.Version,
		Status:     string(v.Status),
		PDFURL:     c.PDFURL,
		Hash:       c.Hash,
		Terms:      c.Terms,
		SignerIDs:  signers,
		OwnerID:    v.OwnerID,
		OperatorID: v.OperatorID,
		SignedAt:   c.SignedAt,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}
