package webhook

import "errors"

var (
	ErrDeliveryFailed   = errors.New("webhook delivery failed")
	ErrPermanentFailure = errors.New("permanent webhook failure")
	ErrCircuitOpen      = errors.New("webhook circuit breaker is open")
	ErrInvalidURL       = errors.New("invalid webhook URL")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// IsCircuitOpen checks if an error indicates the circuit breaker is open.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}
