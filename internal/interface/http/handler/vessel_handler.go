package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/vessel-charter/internal/interface/http/dto"
	"github.com/ignatzorin/vessel-charter/internal/interface/http/response"
	"github.com/ignatzorin/vessel-charter/internal/usecase/booking"
	"github.com/ignatzorin/vessel-charter/internal/usecase/vessel"
)

type VesselHandler struct {
	createVesselUC   *vessel.CreateVesselUseCase
	getVesselUC      *vessel.GetVesselUseCase
	listMyVesselsUC  *vessel.ListMyVesselsUseCase
	activateVesselUC *vessel.ActivateVesselUseCase
	addSlotUC        *vessel.AddSlotUseCase
	removeSlotUC     *vessel.RemoveSlotUseCase
	listBookingsUC   *booking.ListVesselBookingsUseCase
}

func NewVesselHandler(
	createVesselUC *vessel.CreateVesselUseCase,
	getVesselUC *vessel.GetVesselUseCase,
	listMyVesselsUC *vessel.ListMyVesselsUseCase,
	activateVesselUC *vessel.ActivateVesselUseCase,
	addSlotUC *vessel.AddSlotUseCase,
	removeSlotUC *vessel.RemoveSlotUseCase,
	listBookingsUC *booking.ListVesselBookingsUseCase,
) *VesselHandler {
	return &VesselHandler{
		createVesselUC:   createVesselUC,
		getVesselUC:      getVesselUC,
		listMyVesselsUC:  listMyVesselsUC,
		activateVesselUC: activateVesselUC,
		addSlotUC:        addSlotUC,
		removeSlotUC:     removeSlotUC,
		listBookingsUC:   listBookingsUC,
	}
}

func (h *VesselHandler) CreateVessel(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	var req dto.CreateVesselRequest
	if !bindJSON(c, &req) {
		return
	}

	input := vessel.CreateVesselInput{
		Spec:      req.Spec,
		DailyRate: req.DailyRate,
		Currency:  req.Currency,
	}
	if req.OwnerID != nil {
		input.OwnerID = *req.OwnerID
	}

	v, err := h.createVesselUC.Execute(c.Request.Context(), actor, input)
	if err != nil {
		fail(c, err)
		return
	}

	response.Created(c, dto.ToVesselResponse(v))
}

func (h *VesselHandler) GetVessel(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	vesselID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	v, err := h.getVesselUC.Execute(c.Request.Context(), actor, vesselID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, dto.ToVesselResponse(v))
}

func (h *VesselHandler) ListMyVessels(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	vessels, err := h.listMyVesselsUC.Execute(c.Request.Context(), actor)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, dto.ToVesselResponses(vessels))
}

func (h *VesselHandler) ActivateVessel(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	vesselID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	v, err := h.activateVesselUC.Execute(c.Request.Context(), actor, vesselID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, dto.ToVesselResponse(v))
}

func (h *VesselHandler) AddSlot(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	vesselID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req dto.AddSlotRequest
	if !bindJSON(c, &req) {
		return
	}

	slot, err := h.addSlotUC.Execute(c.Request.Context(), actor, vesselID, req.Start, req.End)
	if err != nil {
		fail(c, err)
		return
	}

	response.Created(c, dto.ToSlotResponse(*slot))
}

func (h *VesselHandler) RemoveSlot(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	vesselID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	slotID, ok := paramUUID(c, "slotId")
	if !ok {
		return
	}

	if err := h.removeSlotUC.Execute(c.Request.Context(), actor, vesselID, slotID); err != nil {
		fail(c, err)
		return
	}

	response.Success(c, gin.H{"id": slotID})
}

func (h *VesselHandler) ListVesselBookings(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	vesselID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	bookings, err := h.listBookingsUC.Execute(c.Request.Context(), actor, vesselID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, dto.ToBookingResponses(bookings))
}

