package server

import (
	"errors"
	"net/http"

	"hotel-payment-confirm/internal/confirmation"
	"hotel-payment-confirm/internal/domain"
	"hotel-payment-confirm/internal/infrastructure/backend"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor maps an error to the HTTP status and the message shown to clients.
func statusFor(err error) (int, string) {
	var (
		gwErr  *domain.GatewayError
		apiErr *backend.APIError
	)
	switch {
	case errors.As(err, &gwErr):
		return http.StatusBadGateway, gwErr.Message
	case errors.Is(err, domain.ErrBookingNotFound), errors.Is(err, domain.ErrFlowNotFound):
		return http.StatusNotFound, backend.Message(err)
	case errors.Is(err, domain.ErrUnsupportedPaymentMethod):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, confirmation.ErrManagerClosed):
		return http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, domain.ErrInvalidBooking), errors.Is(err, confirmation.ErrMissingIDs):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &apiErr):
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return apiErr.StatusCode, apiErr.Message
		}
		return http.StatusBadGateway, apiErr.Message
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func (s *Server) respondError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": msg})
}
