// Package payment charges and refunds orders.
package payment

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"emporia/internal/logging"
)

// Result is the outcome of a charge. A declined charge is not an error:
// Success is false and ErrorMessage says why.
type Result struct {
	Success      bool
	PaymentID    string
	ErrorMessage string
}

// Gateway charges and refunds payments.
type Gateway interface {
	ProcessPayment(ctx context.Context, amount decimal.Decimal, method string, orderID int64) (Result, error)
	RefundPayment(ctx context.Context, paymentID string) bool
}

// Simulated accepts every charge except those using a declined method.
// Payment ids have the form PAYMENT-{orderID}-{whole amount}.
type Simulated struct {
	declined map[string]struct{}
	lg       *zap.Logger

	mu       sync.Mutex
	captured map[string]decimal.Decimal
}

var _ Gateway = (*Simulated)(nil)

// NewSimulated returns a gateway that declines the given payment methods.
func NewSimulated(lg *zap.Logger, declinedMethods ...string) *Simulated {
	declined := make(map[string]struct{}, len(declinedMethods))
	for _, m := range declinedMethods {
		declined[strings.ToLower(strings.TrimSpace(m))] = struct{}{}
	}
	return &Simulated{
		declined: declined,
		lg:       logging.OrNop(lg).Named("payment"),
		captured: make(map[string]decimal.Decimal),
	}
}

func (s *Simulated) ProcessPayment(_ context.Context, amount decimal.Decimal, method string, orderID int64) (Result, error) {
	method = strings.ToLower(strings.TrimSpace(method))
	if method == "" {
		return Result{ErrorMessage: "payment method required"}, nil
	}
	if _, ok := s.declined[method]; ok {
		s.lg.Info("payment declined", zap.Int64("order_id", orderID), zap.String("method", method))
		return Result{ErrorMessage: fmt.Sprintf("payment method %q declined", method)}, nil
	}

	id := fmt.Sprintf("PAYMENT-%d-%d", orderID, amount.IntPart())
	s.mu.Lock()
	s.captured[id] = amount
	s.mu.Unlock()

	s.lg.Info("payment captured",
		zap.Int64("order_id", orderID),
		zap.String("payment_id", id),
		zap.String("amount", amount.StringFixed(2)),
	)
	return Result{Success: true, PaymentID: id}, nil
}

// RefundPayment releases a captured payment. Unknown ids are refused.
func (s *Simulated) RefundPayment(_ context.Context, paymentID string) bool {
	s.mu.Lock()
	_, ok := s.captured[paymentID]
	delete(s.captured, paymentID)
	s.mu.Unlock()

	if !ok {
		s.lg.Warn("refund for unknown payment", zap.String("payment_id", paymentID))
		return false
	}
	s.lg.Info("payment refunded", zap.String("payment_id", paymentID))
	return true
}
