package server

import (
	"net/http"

	"hotel-payment-confirm/internal/confirmation"
	"hotel-payment-confirm/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type confirmationResponse struct {
	domain.Confirmation
	Screen domain.Screen `json:"screen"`
}

func newConfirmationResponse(c domain.Confirmation) confirmationResponse {
	return confirmationResponse{Confirmation: c, Screen: c.Phase.Screen()}
}

// ListBookings handles GET /api/v1/bookings
func (s *Server) ListBookings(c *gin.Context) {
	bookings, err := s.bookings.Refresh(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// CreateBooking handles POST /api/v1/bookings
func (s *Server) CreateBooking(c *gin.Context) {
	var req domain.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	created, err := s.bookings.Create(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetBooking handles GET /api/v1/bookings/:id
func (s *Server) GetBooking(c *gin.Context) {
	booking, err := s.bookings.Details(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel
func (s *Server) CancelBooking(c *gin.Context) {
	var body struct {
		Reason string `json:"reason"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
			return
		}
	}

	booking, err := s.bookings.Cancel(c.Request.Context(), c.Param("id"), body.Reason)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// RetryPayment handles POST /api/v1/bookings/:id/retry-payment
func (s *Server) RetryPayment(c *gin.Context) {
	payment, err := s.bookings.RetryPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// PaymentStatus handles GET /api/v1/payments/status
func (s *Server) PaymentStatus(c *gin.Context) {
	tx := c.Query("transactionId")
	bookingID := c.Query("bookingId")
	if tx == "" || bookingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "transactionId and bookingId are required"})
		return
	}

	res, err := s.bookings.CheckPaymentSmart(c.Request.Context(), tx, bookingID, domain.PaymentMethod(c.Query("method")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// StartConfirmation handles POST /api/v1/confirmations
func (s *Server) StartConfirmation(c *gin.Context) {
	var req confirmation.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	flow, err := s.confirmations.Start(req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Location", "/api/v1/confirmations/"+flow.ID().String())
	c.JSON(http.StatusAccepted, newConfirmationResponse(flow.Snapshot()))
}

// GetConfirmation handles GET /api/v1/confirmations/:id
func (s *Server) GetConfirmation(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	snap, err := s.confirmations.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newConfirmationResponse(snap))
}

// CancelConfirmation handles DELETE /api/v1/confirmations/:id
func (s *Server) CancelConfirmation(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	snap, err := s.confirmations.Cancel(id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newConfirmationResponse(snap))
}

// ListChecks handles GET /api/v1/confirmations/:id/checks
func (s *Server) ListChecks(c *gin.Context) {
	if s.checks == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "check history is not recorded"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	records, err := s.checks.ListByConfirmation(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"checks": records})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid confirmation id"})
		return uuid.Nil, false
	}
	return id, true
}
