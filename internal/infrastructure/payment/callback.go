package payment

import (
	"encoding/json"
	"time"

	"hotel-payment-confirm/internal/domain"
)

// Merchant identifies this app to ZaloPay.
type Merchant struct {
	AppID  int
	UserID string
}

type callbackItem struct {
	ItemID       string `json:"itemid"`
	ItemName     string `json:"itemname"`
	ItemPrice    int64  `json:"itemprice"`
	ItemQuantity int    `json:"itemquantity"`
}

// BuildZaloPayCallback constructs the callback ZaloPay would have delivered
// for a paid transaction of booking.
func BuildZaloPayCallback(m Merchant, transactionID string, booking *domain.Booking, res domain.PaymentCheckResult, now time.Time) domain.ZaloPayCallback {
	amount := booking.FinalPrice
	var zpTransID string
	serverTime := now.UnixMilli()
	if res.ZaloPay != nil {
		zpTransID = res.ZaloPay.ZPTransID
		if res.ZaloPay.Amount > 0 {
			amount = res.ZaloPay.Amount
		}
		if res.ZaloPay.ServerTime > 0 {
			serverTime = res.ZaloPay.ServerTime
		}
	}

	itemName := booking.RoomName
	if itemName == "" {
		itemName = "Room " + booking.RoomID
	}
	item, _ := json.Marshal([]callbackItem{{
		ItemID:       booking.RoomID,
		ItemName:     itemName,
		ItemPrice:    amount,
		ItemQuantity: 1,
	}})
	embed, _ := json.Marshal(map[string]string{"bookingId": booking.ID})

	return domain.ZaloPayCallback{
		AppID:          m.AppID,
		AppTransID:     transactionID,
		AppTime:        now.UnixMilli(),
		AppUser:        m.UserID,
		Amount:         amount,
		EmbedData:      string(embed),
		Item:           string(item),
		ZPTransID:      zpTransID,
		ServerTime:     serverTime,
		Channel:        38,
		MerchantUserID: m.UserID,
		DiscountAmount: booking.DiscountAmount,
		Status:         1,
	}
}
