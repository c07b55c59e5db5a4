package service

import (
	"fmt"
	"strconv"

	paymentserrors "smartparking/internal/payments/errors"
	"smartparking/pkg/model"
)

// BuildIntent renders the deep link a payment app opens for the given method.
// Only Paytm and Google Pay are supported. The amount is written in its
// shortest decimal form and no component is URL-escaped.
func BuildIntent(payee, paymentMethod, userID string, slotNumber int, amount float64) (string, error) {
	am := strconv.FormatFloat(amount, 'f', -1, 64)
	note := fmt.Sprintf("Parking Reservation for Slot %d", slotNumber)

	switch paymentMethod {
	case model.PaymentMethodPaytm:
		return fmt.Sprintf("paytm://pay?pa=%s&pn=%s&am=%s&tn=%s", userID, payee, am, note), nil
	case model.PaymentMethodGooglePay:
		return fmt.Sprintf("upi://pay?pa=%s@gpay&pn=%s&am=%s&tn=%s", userID, payee, am, note), nil
	default:
		return "", fmt.Errorf("%w: %q", paymentserrors.ErrUnsupportedMethod, paymentMethod)
	}
}
