package payment

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"hotel-payment-confirm/internal/domain"
	"hotel-payment-confirm/internal/infrastructure/backend"
)

// Gateway checks payment status with each provider through the booking
// backend and normalizes the answers into domain.PaymentCheckResult.
type Gateway interface {
	CheckZaloPayStatus(ctx context.Context, transactionID string) (domain.PaymentCheckResult, error)
	CheckVNPayStatus(ctx context.Context, transactionID string) (domain.PaymentCheckResult, error)
	SubmitZaloPayCallback(ctx context.Context, cb domain.ZaloPayCallback) error
}

// Doer is the transport the gateway sends requests through.
type Doer interface {
	Do(ctx context.Context, method, path string, body, out any) error
}

type paymentGateway struct {
	client Doer
}

func NewPaymentGateway(client Doer) Gateway {
	return &paymentGateway{client: client}
}

type zaloPayStatusResponse struct {
	ReturnCode    int    `json:"return_code"`
	ReturnMessage string `json:"return_message"`
	IsProcessing  bool   `json:"is_processing"`
	ZPTransID     any    `json:"zp_trans_id"`
	Amount        int64  `json:"amount"`
	ServerTime    int64  `json:"server_time"`
}

type vnpayConfirmResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (g *paymentGateway) CheckZaloPayStatus(ctx context.Context, transactionID string) (domain.PaymentCheckResult, error) {
	var resp zaloPayStatusResponse
	path := "/payments/zalopay/status/" + url.PathEscape(transactionID)
	if err := g.client.Do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return domain.PaymentCheckResult{}, gatewayError(domain.MethodZaloPay, err)
	}
	return normalizeZaloPay(resp), nil
}

func (g *paymentGateway) CheckVNPayStatus(ctx context.Context, transactionID string) (domain.PaymentCheckResult, error) {
	var resp vnpayConfirmResponse
	body := map[string]string{
		"transactionId": transactionID,
		"paymentMethod": string(domain.MethodVNPay),
	}
	if err := g.client.Do(ctx, http.MethodPost, "/payments/vnpay/confirm", body, &resp); err != nil {
		return domain.PaymentCheckResult{}, gatewayError(domain.MethodVNPay, err)
	}
	return normalizeVNPay(resp), nil
}

func (g *paymentGateway) SubmitZaloPayCallback(ctx context.Context, cb domain.ZaloPayCallback) error {
	if err := g.client.Do(ctx, http.MethodPost, "/payments/zalopay/callback", cb, nil); err != nil {
		return &domain.ReconciliationError{TransactionID: cb.AppTransID, Err: err}
	}
	return nil
}

// ZaloPay query: 1 success, 2 failure, 3 (or anything else) still processing.
func normalizeZaloPay(resp zaloPayStatusResponse) domain.PaymentCheckResult {
	res := domain.PaymentCheckResult{
		Provider: domain.MethodZaloPay,
		Message:  resp.ReturnMessage,
	}
	switch resp.ReturnCode {
	case 1:
		res.Status = domain.CheckPaid
		res.ZaloPay = &domain.ZaloPayDetails{
			ZPTransID:  stringify(resp.ZPTransID),
			Amount:     resp.Amount,
			ServerTime: resp.ServerTime,
		}
	case 2:
		res.Status = domain.CheckFailed
	default:
		res.Status = domain.CheckPending
	}
	return res
}

// VNPay reports "completed" where ZaloPay would say paid.
func normalizeVNPay(resp vnpayConfirmResponse) domain.PaymentCheckResult {
	res := domain.PaymentCheckResult{
		Provider: domain.MethodVNPay,
		Message:  resp.Message,
	}
	switch strings.ToLower(resp.Status) {
	case "completed", "paid":
		res.Status = domain.CheckPaid
	case "failed", "cancelled":
		res.Status = domain.CheckFailed
	default:
		res.Status = domain.CheckPending
	}
	return res
}

func gatewayError(provider domain.PaymentMethod, err error) *domain.GatewayError {
	return &domain.GatewayError{
		Provider: provider,
		Message:  backend.Message(err),
		Err:      err,
	}
}

// zp_trans_id arrives as a number from ZaloPay and as a string from some proxies.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
