package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/vessel-charter/internal/interface/http/dto"
	"github.com/ignatzorin/vessel-charter/internal/interface/http/response"
	"github.com/ignatzorin/vessel-charter/internal/usecase/booking"
)

type BookingHandler struct {
	createBookingUC  *booking.CreateBookingUseCase
	updateBookingUC  *booking.UpdateBookingUseCase
	getBookingUC     *booking.GetBookingUseCase
	listMyBookingsUC *booking.ListMyBookingsUseCase
	getHistoryUC     *booking.GetHistoryUseCase
}

func NewBookingHandler(
	createBookingUC *booking.CreateBookingUseCase,
	updateBookingUC *booking.UpdateBookingUseCase,
	getBookingUC *booking.GetBookingUseCase,
	listMyBookingsUC *booking.ListMyBookingsUseCase,
	getHistoryUC *booking.GetHistoryUseCase,
) *BookingHandler {
	return &BookingHandler{
		createBookingUC:  createBookingUC,
		updateBookingUC:  updateBookingUC,
		getBookingUC:     getBookingUC,
		listMyBookingsUC: listMyBookingsUC,
		getHistoryUC:     getHistoryUC,
	}
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	var req dto.CreateBookingRequest
	if !bindJSON(c, &req) {
		return
	}

	details, err := h.createBookingUC.Execute(c.Request.Context(), actor, booking.CreateBookingInput{
		VesselID: req.VesselID,
		Start:    req.Start,
		End:      req.End,
		Terms:    req.Terms,
	})
	if err != nil {
		fail(c, err)
		return
	}

	response.Created(c, dto.ToBookingDetailsResponse(details))
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	bookingID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	details, err := h.getBookingUC.Execute(c.Request.Context(), actor, bookingID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, dto.ToBookingDetailsResponse(details))
}

func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	bookings, err := h.listMyBookingsUC.Execute(c.Request.Context(), actor)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, dto.ToBookingResponses(bookings))
}

// UpdateBooking обрабатывает PATCH /bookings/:id: {status?, note?, terms?}.
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	bookingID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateBookingRequest
	if !bindJSON(c, &req) {
		return
	}

	b, err := h.updateBookingUC.Execute(c.Request.Context(), actor, bookingID, req.ToInput())
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, dto.ToBookingResponse(b))
}

func (h *BookingHandler) GetHistory(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	bookingID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	entries, err := h.getHistoryUC.Execute(c.Request.Context(), actor, bookingID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, dto.ToHistoryResponse(entries))
}
