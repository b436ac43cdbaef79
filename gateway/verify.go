package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"hotel-booking-backend/models"
)

// Webhook event names delivered by the gateway.
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
)

// CallbackPayload is the webhook body posted by the gateway. Delivery is
// at-least-once; GatewayOrderID is the idempotency key.
type CallbackPayload struct {
	Event            string  `json:"event"`
	GatewayOrderID   string  `json:"gatewayOrderId"`
	GatewayPaymentID string  `json:"gatewayPaymentId"`
	Amount           float64 `json:"amount"`
	Signature        string  `json:"signature"`
}

// Signature computes the keyed hash the gateway signs callbacks with:
// HMAC-SHA256 over "orderId|paymentId", hex encoded.
func Signature(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyCallback recomputes the signature and compares in constant time. Any
// mismatch is rejected before booking state is touched.
func VerifyCallback(p CallbackPayload, secret string) error {
	if p.GatewayOrderID == "" || p.GatewayPaymentID == "" {
		return fmt.Errorf("callback missing order/payment id: %w", models.ErrSignature)
	}
	expected := Signature(p.GatewayOrderID, p.GatewayPaymentID, secret)
	if !hmac.Equal([]byte(expected), []byte(p.Signature)) {
		return models.ErrSignature
	}
	return nil
}
