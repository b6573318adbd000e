package sandbox

import (
	"net/http"
	"strings"

	"hotel-payment-confirm/internal/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (b *Backend) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(b.auth)

	r.GET("/bookings", b.listBookings)
	r.POST("/bookings", b.createBooking)
	r.GET("/bookings/:id", b.getBooking)
	r.PUT("/bookings/:id/cancel", b.cancelBooking)
	r.POST("/bookings/:id/retry-payment", b.retryPayment)

	r.POST("/payments/vnpay/confirm", b.vnpayConfirm)
	r.GET("/payments/zalopay/status/:tx", b.zalopayStatus)
	r.POST("/payments/zalopay/callback", b.zalopayCallback)

	return r
}

func (b *Backend) auth(c *gin.Context) {
	if b.token == "" {
		c.Next()
		return
	}
	if strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ") != b.token {
		c.AbortWithStatusJSON(http.StatusUnauthorized, failure("Unauthorized"))
		return
	}
	c.Next()
}

func success(message string, data any) gin.H {
	return gin.H{"success": true, "message": message, "data": data}
}

func failure(message string) gin.H {
	return gin.H{"success": false, "message": message}
}

func (b *Backend) listBookings(c *gin.Context) {
	b.mu.Lock()
	out := make([]domain.Booking, 0, len(b.bookings))
	for _, bk := range b.bookings {
		out = append(out, *bk)
	}
	b.mu.Unlock()
	c.JSON(http.StatusOK, success("Bookings retrieved", out))
}

func (b *Backend) getBooking(c *gin.Context) {
	bk, found := b.Booking(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, failure("Booking not found"))
		return
	}
	c.JSON(http.StatusOK, success("Booking retrieved", bk))
}

func (b *Backend) createBooking(c *gin.Context) {
	var req domain.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, failure(err.Error()))
		return
	}
	if !req.CheckOut.After(req.CheckIn) {
		c.JSON(http.StatusBadRequest, failure("Check-out date must be after check-in date"))
		return
	}
	if !req.PaymentMethod.Valid() {
		c.JSON(http.StatusBadRequest, failure("Invalid payment method"))
		return
	}

	original, discount, final := price(req.CheckIn, req.CheckOut, req.PromotionCode)
	bk := b.AddBooking(domain.Booking{
		RoomID:          req.RoomID,
		HotelID:         req.HotelID,
		RoomName:        "Room " + req.RoomID,
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		Status:          domain.BookingPending,
		PaymentStatus:   domain.PaymentPending,
		PaymentMethod:   req.PaymentMethod,
		FinalPrice:      final,
		OriginalPrice:   original,
		DiscountAmount:  discount,
		ContactInfo:     req.ContactInfo,
		Guests:          req.Guests,
		SpecialRequests: req.SpecialRequests,
	})

	created := domain.BookingCreated{Booking: bk}
	if req.PaymentMethod.Online() {
		b.mu.Lock()
		payment := b.openLocked(b.byID[bk.ID], b.script(req.PaymentMethod))
		b.mu.Unlock()
		created.Payment = &payment
	}
	c.JSON(http.StatusCreated, success("Booking created", created))
}

func (b *Backend) cancelBooking(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bk, found := b.byID[c.Param("id")]
	if !found {
		c.JSON(http.StatusNotFound, failure("Booking not found"))
		return
	}
	if bk.Status == domain.BookingCancelled {
		c.JSON(http.StatusBadRequest, failure("Booking is already cancelled"))
		return
	}
	bk.Status = domain.BookingCancelled
	if bk.PaymentStatus == domain.PaymentPaid {
		bk.PaymentStatus = domain.PaymentRefunded
	} else {
		bk.PaymentStatus = domain.PaymentCancelled
	}
	c.JSON(http.StatusOK, success("Booking cancelled", *bk))
}

func (b *Backend) retryPayment(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bk, found := b.byID[c.Param("id")]
	if !found {
		c.JSON(http.StatusNotFound, failure("Booking not found"))
		return
	}
	if bk.Status == domain.BookingCancelled || bk.PaymentStatus == domain.PaymentPaid {
		c.JSON(http.StatusBadRequest, failure("Booking cannot be paid again"))
		return
	}
	if !bk.PaymentMethod.Online() {
		c.JSON(http.StatusBadRequest, failure("Booking is not paid online"))
		return
	}
	c.JSON(http.StatusOK, success("Payment created", b.openLocked(bk, b.script(bk.PaymentMethod))))
}

func (b *Backend) vnpayConfirm(c *gin.Context) {
	var req struct {
		TransactionID string `json:"transactionId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, failure(err.Error()))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	tx, found := b.txs[req.TransactionID]
	if !found || tx.method != domain.MethodVNPay {
		c.JSON(http.StatusNotFound, failure("Transaction not found"))
		return
	}

	status := "pending"
	switch tx.query() {
	case domain.CheckPaid:
		status = "completed"
		b.markPaidLocked(tx.bookingID)
	case domain.CheckFailed:
		status = "failed"
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "message": "VNPay transaction " + status})
}

func (b *Backend) zalopayStatus(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	tx, found := b.txs[c.Param("tx")]
	if !found || tx.method != domain.MethodZaloPay {
		c.JSON(http.StatusNotFound, failure("Transaction not found"))
		return
	}

	switch tx.query() {
	case domain.CheckPaid:
		c.JSON(http.StatusOK, gin.H{
			"return_code":    1,
			"return_message": "Giao dịch thành công",
			"is_processing":  false,
			"zp_trans_id":    tx.zpTransID,
			"amount":         tx.amount,
			"server_time":    b.now().UnixMilli(),
		})
	case domain.CheckFailed:
		c.JSON(http.StatusOK, gin.H{"return_code": 2, "return_message": "Giao dịch thất bại", "is_processing": false})
	default:
		c.JSON(http.StatusOK, gin.H{"return_code": 3, "return_message": "Giao dịch đang xử lý", "is_processing": true})
	}
}

// zalopayCallback is the only place a ZaloPay booking becomes paid.
func (b *Backend) zalopayCallback(c *gin.Context) {
	var cb domain.ZaloPayCallback
	if err := c.ShouldBindJSON(&cb); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"return_code": -1, "return_message": err.Error()})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	tx, found := b.txs[cb.AppTransID]
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"return_code": 2, "return_message": "transaction not found"})
		return
	}
	b.callbacks = append(b.callbacks, cb)
	b.markPaidLocked(tx.bookingID)
	b.logger.Info("zalopay callback received",
		zap.String("app_trans_id", cb.AppTransID),
		zap.String("zp_trans_id", cb.ZPTransID),
		zap.Int64("amount", cb.Amount),
	)
	c.JSON(http.StatusOK, gin.H{"return_code": 1, "return_message": "success"})
}
