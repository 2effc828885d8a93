package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/vessel-charter/internal/interface/http/dto"
	"github.com/ignatzorin/vessel-charter/internal/interface/http/response"
	"github.com/ignatzorin/vessel-charter/internal/usecase/contract"
)

type ContractHandler struct {
	createContractUC *contract.CreateContractUseCase
	signContractUC   *contract.SignContractUseCase
	getContractUC    *contract.GetContractUseCase
}

func NewContractHandler(
	createContractUC *contract.CreateContractUseCase,
	signContractUC *contract.SignContractUseCase,
	getContractUC *contract.GetContractUseCase,
) *ContractHandler {
	return &ContractHandler{
		createContractUC: createContractUC,
		signContractUC:   signContractUC,
		getContractUC:    getContractUC,
	}
}

func (h *ContractHandler) CreateContract(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	var req dto.CreateContractRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.createContractUC.Execute(c.Request.Context(), actor, req.BookingID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Created(c, dto.ToContractResponse(view))
}

func (h *ContractHandler) GetContract(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	contractID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	view, err := h.getContractUC.Execute(c.Request.Context(), actor, contractID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, dto.ToContractResponse(view))
}

func (h *ContractHandler) SignContract(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	contractID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	view, err := h.signContractUC.Execute(c.Request.Context(), actor, contractID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, dto.ToContractResponse(view))
}
