// File: internal/infra/adapters/payment/paystack_processor.go
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"content-commerce/internal/domain/ports/adapter"
)

var _ adapter.PaymentProcessor = (*PaystackProcessor)(nil)

const defaultPaystackBaseURL = "https://api.paystack.co"

// PaystackProcessor implements adapter.PaymentProcessor over the Paystack REST API.
type PaystackProcessor struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

func NewPaystackProcessor(secretKey, baseURL string, client *http.Client) (*PaystackProcessor, error) {
	if secretKey == "" {
		return nil, errors.New("paystack secret key empty")
	}
	if baseURL == "" {
		baseURL = defaultPaystackBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid paystack base url: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &PaystackProcessor{
		secretKey: secretKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    client,
	}, nil
}

func (p *PaystackProcessor) Name() string { return "paystack" }

// envelope is the response wrapper shared by every Paystack endpoint.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Initialize calls POST /transaction/initialize.
func (p *PaystackProcessor) Initialize(ctx context.Context, req adapter.InitRequest) (adapter.InitResult, error) {
	payload := map[string]any{
		"email":     req.Email,
		"amount":    req.AmountMinor,
		"reference": req.Reference,
	}
	if req.CallbackURL != "" {
		payload["callback_url"] = req.CallbackURL
	}
	if req.Currency != "" {
		payload["currency"] = req.Currency
	}
	if len(req.Metadata) > 0 {
		payload["metadata"] = req.Metadata
	}

	env, code, err := p.do(ctx, http.MethodPost, "/transaction/initialize", payload)
	if err != nil {
		return adapter.InitResult{}, err
	}
	if code/100 != 2 || !env.Status {
		return adapter.InitResult{}, fmt.Errorf("paystack initialize http %d: %s", code, env.Message)
	}
	var data struct {
		AuthorizationURL string `json:"authorization_url"`
		Reference        string `json:"reference"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return adapter.InitResult{}, fmt.Errorf("paystack initialize decode: %w", err)
	}
	if data.AuthorizationURL == "" {
		return adapter.InitResult{}, errors.New("paystack initialize returned no authorization url")
	}
	if data.Reference == "" {
		data.Reference = req.Reference
	}
	return adapter.InitResult{AuthorizationURL: data.AuthorizationURL, Reference: data.Reference}, nil
}

// Verify calls GET /transaction/verify/{reference}. A reference Paystack does
// not know is reported as abandoned.
func (p *PaystackProcessor) Verify(ctx context.Context, reference string) (adapter.VerifyResult, error) {
	env, code, err := p.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		return adapter.VerifyResult{}, err
	}
	switch {
	case code >= 500:
		return adapter.VerifyResult{}, fmt.Errorf("paystack verify http %d: %s", code, env.Message)
	case code/100 != 2 || !env.Status:
		return adapter.VerifyResult{Status: adapter.ProcessorStatusAbandoned, Reference: reference}, nil
	}

	var data struct {
		ID        int64          `json:"id"`
		Status    string         `json:"status"`
		Reference string         `json:"reference"`
		Amount    int64          `json:"amount"`
		Currency  string         `json:"currency"`
		PaidAt    string         `json:"paid_at"`
		Metadata  map[string]any `json:"metadata"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return adapter.VerifyResult{}, fmt.Errorf("paystack verify decode: %w", err)
	}

	res := adapter.VerifyResult{
		Status:      mapStatus(data.Status),
		Reference:   data.Reference,
		AmountMinor: data.Amount,
		Currency:    data.Currency,
		Metadata:    data.Metadata,
	}
	if data.ID != 0 {
		res.TransactionID = strconv.FormatInt(data.ID, 10)
	}
	if data.PaidAt != "" {
		if t, err := time.Parse(time.RFC3339, data.PaidAt); err == nil {
			res.PaidAt = &t
		}
	}
	return res, nil
}

// Refund calls POST /refund for the full or partial amount.
func (p *PaystackProcessor) Refund(ctx context.Context, transactionID string, amountMinor int64) (adapter.RefundResult, error) {
	payload := map[string]any{"transaction": transactionID}
	if amountMinor > 0 {
		payload["amount"] = amountMinor
	}
	env, code, err := p.do(ctx, http.MethodPost, "/refund", payload)
	if err != nil {
		return adapter.RefundResult{}, err
	}
	if code/100 != 2 || !env.Status {
		return adapter.RefundResult{}, fmt.Errorf("paystack refund http %d: %s", code, env.Message)
	}
	var data struct {
		ID        int64  `json:"id"`
		Status    string `json:"status"`
		Amount    int64  `json:"amount"`
		CreatedAt string `json:"createdAt"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return adapter.RefundResult{}, fmt.Errorf("paystack refund decode: %w", err)
	}
	var rt time.Time
	if data.CreatedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, data.CreatedAt); err == nil {
			rt = parsed
		}
	}
	return adapter.RefundResult{
		ID:           strconv.FormatInt(data.ID, 10),
		Status:       data.Status,
		RefundAmount: data.Amount,
		RefundTime:   rt,
	}, nil
}

// VerifySignature checks the x-paystack-signature header of a webhook body.
func (p *PaystackProcessor) VerifySignature(body []byte, signature string) bool {
	return VerifyWebhookSignature(p.secretKey, body, signature)
}

// VerifyWebhookSignature compares signature with HMAC-SHA512(body, secret).
func VerifyWebhookSignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	want, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), want)
}

func (p *PaystackProcessor) do(ctx context.Context, method, path string, payload any) (envelope, int, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return envelope{}, 0, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return envelope{}, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return envelope{}, 0, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&env); err != nil {
		if resp.StatusCode >= 500 {
			return envelope{}, resp.StatusCode, fmt.Errorf("paystack http %d", resp.StatusCode)
		}
		return envelope{}, resp.StatusCode, fmt.Errorf("paystack decode: %w", err)
	}
	return env, resp.StatusCode, nil
}

func mapStatus(s string) adapter.ProcessorStatus {
	switch strings.ToLower(s) {
	case "success":
		return adapter.ProcessorStatusSuccess
	case "failed", "reversed":
		return adapter.ProcessorStatusFailed
	case "abandoned":
		return adapter.ProcessorStatusAbandoned
	default:
		return adapter.ProcessorStatusPending
	}
}
