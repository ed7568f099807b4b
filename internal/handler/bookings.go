package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carappx/internal/middleware"
	"carappx/internal/model"
	"carappx/internal/service"
	"carappx/internal/utils"
)

// BookingsHandler exposes booking CRUD with the status-transition and
// cancellation rules enforced server-side.
type BookingsHandler struct {
	bookings *service.BookingService
}

// NewBookingsHandler creates a bookings handler.
func NewBookingsHandler(bookings *service.BookingService) *BookingsHandler {
	return &BookingsHandler{bookings: bookings}
}

type createBookingRequest struct {
	ListingID   string    `json:"listing_id" binding:"required"`
	ServiceType string    `json:"service_type"`
	Details     string    `json:"details"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

// Create handles POST /api/v1/bookings
func (h *BookingsHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(utils.NewCustomError(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}

	booking, err := h.bookings.Create(c.Request.Context(),
		middleware.UserID(c), req.ListingID, req.ServiceType, req.Details, req.ScheduledAt)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// Get handles GET /api/v1/bookings/:id
func (h *BookingsHandler) Get(c *gin.Context) {
	booking, err := h.bookings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrBookingNotFound) {
			c.Error(utils.NewCustomError(http.StatusNotFound, err.Error()))
		} else {
			c.Error(err)
		}
		return
	}
	c.JSON(http.StatusOK, booking)
}

// List handles GET /api/v1/bookings
func (h *BookingsHandler) List(c *gin.Context) {
	bookings, err := h.bookings.ListByUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": bookings})
}

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// Transition handles PATCH /api/v1/bookings/:id/status
func (h *BookingsHandler) Transition(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(utils.NewCustomError(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}

	booking, err := h.bookings.Transition(c.Request.Context(), c.Param("id"), model.BookingStatus(req.Status))
	if err != nil {
		c.Error(bookingError(err))
		return
	}
	c.JSON(http.StatusOK, booking)
}

// Cancel handles POST /api/v1/bookings/:id/cancel
func (h *BookingsHandler) Cancel(c *gin.Context) {
	booking, err := h.bookings.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(bookingError(err))
		return
	}
	c.JSON(http.StatusOK, booking)
}

// bookingError maps a booking-rule failure to its HTTP status: a missing
// booking is 404, a refused transition or cancellation is 409.
func bookingError(err error) error {
	if errors.Is(err, service.ErrBookingNotFound) {
		return utils.NewCustomError(http.StatusNotFound, err.Error())
	}
	return utils.NewCustomError(http.StatusConflict, err.Error())
}
