package adapter

import (
	"context"
	"time"
)

// ProcessorStatus is the processor-side outcome of a transaction.
type ProcessorStatus string

const (
	ProcessorStatusSuccess   ProcessorStatus = "success"
	ProcessorStatusFailed    ProcessorStatus = "failed"
	ProcessorStatusAbandoned ProcessorStatus = "abandoned"
	ProcessorStatusPending   ProcessorStatus = "pending"
)

// InitRequest opens a payment session. AmountMinor is already scaled to the
// processor's minor unit.
type InitRequest struct {
	Email       string
	AmountMinor int64
	Reference   string
	CallbackURL string
	Currency    string
	Metadata    map[string]any
}

type InitResult struct {
	AuthorizationURL string
	Reference        string
}

type VerifyResult struct {
	Status        ProcessorStatus
	Reference     string
	TransactionID string
	AmountMinor   int64
	Currency      string
	PaidAt        *time.Time
	Metadata      map[string]any
}

// RefundResult captures a minimal, provider-agnostic result of a refund request.
type RefundResult struct {
	ID           string
	Status       string
	RefundAmount int64 // minor units
	RefundTime   time.Time
}

// PaymentProcessor is the hex port for the external processor.
type PaymentProcessor interface {
	Name() string

	// Initialize returns the URL the user must be redirected to.
	Initialize(ctx context.Context, req InitRequest) (InitResult, error)
	// Verify reports the processor's view of a reference. Transport problems
	// are returned as errors; a declined payment is a result, not an error.
	Verify(ctx context.Context, reference string) (VerifyResult, error)
	// Refund returns money for a settled transaction.
	Refund(ctx context.Context, transactionID string, amountMinor int64) (RefundResult, error)
}
