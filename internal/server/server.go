package server

import (
	"context"
	"net/http"
	"time"

	"hotel-payment-confirm/internal/confirmation"
	"hotel-payment-confirm/internal/domain"
	"hotel-payment-confirm/internal/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Bookings interface {
	Refresh(ctx context.Context) ([]domain.Booking, error)
	Create(ctx context.Context, req domain.CreateBookingRequest) (*domain.BookingCreated, error)
	Details(ctx context.Context, id string) (*domain.Booking, error)
	Cancel(ctx context.Context, id, reason string) (*domain.Booking, error)
	RetryPayment(ctx context.Context, id string) (*domain.PaymentInit, error)
	CheckPaymentSmart(ctx context.Context, transactionID, bookingID string, method domain.PaymentMethod) (domain.PaymentCheckResult, error)
}

type Confirmations interface {
	Start(req confirmation.Request) (*confirmation.Flow, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Confirmation, error)
	Cancel(id uuid.UUID) (domain.Confirmation, error)
}

// HealthChecker is satisfied by database.Service. A nil checker means
// persistence is disabled.
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

// CheckHistory lists the recorded status checks of one confirmation.
type CheckHistory interface {
	ListByConfirmation(ctx context.Context, confirmationID uuid.UUID) ([]domain.CheckRecord, error)
}

type Server struct {
	bookings      Bookings
	confirmations Confirmations
	health        HealthChecker
	checks        CheckHistory
	logger        *zap.Logger
}

func New(bookings Bookings, confirmations Confirmations, health HealthChecker, logger *zap.Logger) *Server {
	return &Server{
		bookings:      bookings,
		confirmations: confirmations,
		health:        health,
		logger:        logger,
	}
}

// WithCheckHistory enables GET /api/v1/confirmations/:id/checks.
func (s *Server) WithCheckHistory(h CheckHistory) *Server {
	s.checks = h
	return s
}

func (s *Server) Router(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger(s.logger))
	r.Use(cors.New(corsConfig(allowedOrigins)))

	r.GET("/health", s.Health)

	api := r.Group("/api/v1")
	{
		api.GET("/bookings", s.ListBookings)
		api.POST("/bookings", s.CreateBooking)
		api.GET("/bookings/:id", s.GetBooking)
		api.POST("/bookings/:id/cancel", s.CancelBooking)
		api.POST("/bookings/:id/retry-payment", s.RetryPayment)

		api.GET("/payments/status", s.PaymentStatus)

		api.POST("/confirmations", s.StartConfirmation)
		api.GET("/confirmations/:id", s.GetConfirmation)
		api.DELETE("/confirmations/:id", s.CancelConfirmation)
		api.GET("/confirmations/:id/checks", s.ListChecks)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

func (s *Server) Health(c *gin.Context) {
	if s.health == nil {
		c.JSON(http.StatusOK, gin.H{"status": "up", "database": "disabled"})
		return
	}
	stats := s.health.Health(c.Request.Context())
	if stats["status"] != "up" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "database": stats})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "up", "database": stats})
}
