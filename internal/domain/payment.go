package domain

import (
	"time"
)

type CheckStatus string

const (
	CheckPaid    CheckStatus = "paid"
	CheckPending CheckStatus = "pending"
	CheckFailed  CheckStatus = "failed"
)

// ZaloPayDetails is the provider metadata attached to a paid ZaloPay check.
type ZaloPayDetails struct {
	ZPTransID  string `json:"zpTransId"`
	Amount     int64  `json:"amount"`
	ServerTime int64  `json:"serverTime"`
}

// PaymentCheckResult is the provider-independent outcome of one status query.
// ZaloPay is only set for paid ZaloPay results.
type PaymentCheckResult struct {
	Provider PaymentMethod   `json:"provider"`
	Status   CheckStatus     `json:"status"`
	Message  string          `json:"message,omitempty"`
	ZaloPay  *ZaloPayDetails `json:"zalopay,omitempty"`
}

func (r PaymentCheckResult) Paid() bool    { return r.Status == CheckPaid }
func (r PaymentCheckResult) Pending() bool { return r.Status == CheckPending }

// ZaloPayCallback mirrors the server-to-server callback ZaloPay sends to the
// merchant backend. EmbedData and Item are JSON encoded strings.
type ZaloPayCallback struct {
	AppID          int    `json:"app_id"`
	AppTransID     string `json:"app_trans_id"`
	AppTime        int64  `json:"app_time"`
	AppUser        string `json:"app_user"`
	Amount         int64  `json:"amount"`
	EmbedData      string `json:"embed_data"`
	Item           string `json:"item"`
	ZPTransID      string `json:"zp_trans_id"`
	ServerTime     int64  `json:"server_time"`
	Channel        int    `json:"channel"`
	MerchantUserID string `json:"merchant_user_id"`
	UserFeeAmount  int64  `json:"user_fee_amount"`
	DiscountAmount int64  `json:"discount_amount"`
	Status         int    `json:"status"`
}

// CheckRecord is the audit entry for a single status check within a confirmation.
type CheckRecord struct {
	ID             string      `json:"id"`
	ConfirmationID string      `json:"confirmationId"`
	Attempt        int         `json:"attempt"`
	Status         CheckStatus `json:"status,omitempty"`
	Error          string      `json:"error,omitempty"`
	CheckedAt      time.Time   `json:"checkedAt"`
}
