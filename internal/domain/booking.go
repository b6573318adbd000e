package domain

import (
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentRefunded  PaymentStatus = "refunded"
	PaymentCancelled PaymentStatus = "cancelled"
)

type PaymentMethod string

const (
	MethodVNPay   PaymentMethod = "vnpay"
	MethodZaloPay PaymentMethod = "zalopay"
	MethodCash    PaymentMethod = "cash"
)

// Online reports whether the method settles through a provider that can be polled.
func (m PaymentMethod) Online() bool {
	return m == MethodVNPay || m == MethodZaloPay
}

func (m PaymentMethod) Valid() bool {
	return m.Online() || m == MethodCash
}

type ContactInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Booking struct {
	ID              string        `json:"_id"`
	RoomID          string        `json:"roomId"`
	HotelID         string        `json:"hotelId"`
	RoomName        string        `json:"roomName,omitempty"`
	CheckIn         time.Time     `json:"checkIn"`
	CheckOut        time.Time     `json:"checkOut"`
	Status          BookingStatus `json:"status"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	FinalPrice      int64         `json:"finalPrice"`
	OriginalPrice   int64         `json:"originalPrice"`
	DiscountAmount  int64         `json:"discountAmount"`
	ContactInfo     ContactInfo   `json:"contactInfo"`
	Guests          int           `json:"guests"`
	SpecialRequests string        `json:"specialRequests,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// CreateBookingRequest is what the client submits to open a new booking.
type CreateBookingRequest struct {
	RoomID          string        `json:"roomId" binding:"required"`
	HotelID         string        `json:"hotelId" binding:"required"`
	CheckIn         time.Time     `json:"checkIn" binding:"required"`
	CheckOut        time.Time     `json:"checkOut" binding:"required"`
	PaymentMethod   PaymentMethod `json:"paymentMethod" binding:"required"`
	ContactInfo     ContactInfo   `json:"contactInfo"`
	Guests          int           `json:"guests"`
	PromotionCode   string        `json:"promotionCode,omitempty"`
	SpecialRequests string        `json:"specialRequests,omitempty"`
}

// PaymentInit is the provider handle returned when a payment attempt is opened.
type PaymentInit struct {
	TransactionID string `json:"transactionId"`
	PaymentURL    string `json:"paymentUrl,omitempty"`
}

type BookingCreated struct {
	Booking Booking      `json:"booking"`
	Payment *PaymentInit `json:"payment,omitempty"`
}
