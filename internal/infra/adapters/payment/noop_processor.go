package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"content-commerce/internal/domain/ports/adapter"
)

var _ adapter.PaymentProcessor = (*NoopProcessor)(nil)

// NoopProcessor settles every initialized reference on the first verify.
// It backs local development when no processor credentials are configured.
type NoopProcessor struct {
	mu      sync.Mutex
	seq     int64
	baseURL string
	intents map[string]int64 // reference -> amount (minor units)
}

func NewNoopProcessor(baseURL string) *NoopProcessor {
	if baseURL == "" {
		baseURL = "https://example.test/pay/"
	}
	return &NoopProcessor{baseURL: baseURL, intents: make(map[string]int64)}
}

func (g *NoopProcessor) Name() string { return "noop" }

func (g *NoopProcessor) Initialize(ctx context.Context, req adapter.InitRequest) (adapter.InitResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[req.Reference] = req.AmountMinor
	return adapter.InitResult{AuthorizationURL: g.baseURL + req.Reference, Reference: req.Reference}, nil
}

func (g *NoopProcessor) Verify(ctx context.Context, reference string) (adapter.VerifyResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	amount, ok := g.intents[reference]
	if !ok {
		return adapter.VerifyResult{Status: adapter.ProcessorStatusAbandoned, Reference: reference}, nil
	}
	g.seq++
	now := time.Now()
	return adapter.VerifyResult{
		Status:        adapter.ProcessorStatusSuccess,
		Reference:     reference,
		TransactionID: fmt.Sprintf("noop-%d", g.seq),
		AmountMinor:   amount,
		PaidAt:        &now,
	}, nil
}

func (g *NoopProcessor) Refund(ctx context.Context, transactionID string, amountMinor int64) (adapter.RefundResult, error) {
	return adapter.RefundResult{
		ID:           "refund-" + transactionID,
		Status:       "processed",
		RefundAmount: amountMinor,
		RefundTime:   time.Now(),
	}, nil
}
