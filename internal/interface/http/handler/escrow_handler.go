package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/vessel-charter/internal/interface/http/dto"
	"github.com/ignatzorin/vessel-charter/internal/interface/http/response"
	"github.com/ignatzorin/vessel-charter/internal/usecase/escrow"
)

type EscrowHandler struct {
	initiateEscrowUC *escrow.InitiateEscrowUseCase
	applyUpdateUC    *escrow.ApplyProviderUpdateUseCase
	getEscrowUC      *escrow.GetEscrowUseCase
}

func NewEscrowHandler(
	initiateEscrowUC *escrow.InitiateEscrowUseCase,
	applyUpdateUC *escrow.ApplyProviderUpdateUseCase,
	getEscrowUC *escrow.GetEscrowUseCase,
) *EscrowHandler {
	return &EscrowHandler{
		initiateEscrowUC: initiateEscrowUC,
		applyUpdateUC:    applyUpdateUC,
		getEscrowUC:      getEscrowUC,
	}
}

func (h *EscrowHandler) InitiateEscrow(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	var req dto.InitiateEscrowRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.initiateEscrowUC.Execute(c.Request.Context(), actor, escrow.InitiateEscrowInput{
		BookingID: req.BookingID,
		Provider:  req.Provider,
		Currency:  req.Currency,
	})
	if err != nil {
		fail(c, err)
		return
	}

	response.Created(c, dto.ToInitiateEscrowResponse(result))
}

func (h *EscrowHandler) GetEscrow(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	escrowID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	tx, err := h.getEscrowUC.Execute(c.Request.Context(), actor, escrowID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, dto.ToEscrowResponse(tx))
}

// ApplyProviderUpdate выполняет ручное изменение статуса администратором.
func (h *EscrowHandler) ApplyProviderUpdate(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	escrowID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req dto.ProviderUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	tx, err := h.applyUpdateUC.Execute(c.Request.Context(), actor, escrowID, escrow.ApplyProviderUpdateInput{
		Status:      req.Status,
		ProviderRef: req.ProviderRef,
		Payload:     req.Payload,
	})
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, dto.ToEscrowResponse(tx))
}
