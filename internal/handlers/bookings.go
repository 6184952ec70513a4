package handlers

import (
	"net/http"

	"homestay/internal/models"

	"github.com/gin-gonic/gin"
)

// Bookings handlers

// CreateBooking - POST /api/bookings
// Прямое бронирование без предоплаты
func (h *Handlers) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	booking, err := h.services.Reservations.RequestBooking(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.CreateBookingResponse{
		ID:         booking.ID,
		TotalPrice: booking.TotalPrice,
		Status:     string(booking.Status),
	})
}

// ListBookings - GET /api/bookings
// Бронирования текущего гостя
func (h *Handlers) ListBookings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	response, err := h.services.Reservations.ListBookings(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetBooking - GET /api/bookings/:id
func (h *Handlers) GetBooking(c *gin.Context) {
	booking, err := h.services.Reservations.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// UpdateBooking - PATCH /api/bookings/:id
// Явный перевод статуса: {action: confirm|cancel}
func (h *Handlers) UpdateBooking(c *gin.Context) {
	var req models.BookingActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bookingID := c.Param("id")

	switch req.Action {
	case "confirm":
		booking, err := h.services.Reservations.ConfirmBooking(c.Request.Context(), bookingID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": booking.ID, "status": booking.Status})
	case "cancel":
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if err := h.services.Reservations.CancelBooking(c.Request.Context(), bookingID, userID); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusOK)
	}
}

// CancelBooking - DELETE /api/bookings/:id
// Отменить бронирование (только владелец-гость)
func (h *Handlers) CancelBooking(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	err := h.services.Reservations.CancelBooking(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusOK)
}
