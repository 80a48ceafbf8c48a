package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"content-commerce/internal/domain"
	"content-commerce/internal/domain/model"
	"content-commerce/internal/infra/logging"
)

const (
	paystackSignatureHeader = "X-Paystack-Signature"
	defaultFeedLimit        = 20
)

type verifyRequest struct {
	Reference string `json:"reference"`
}

// handleVerify serves every kind; the reference itself routes the lookup.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	ref := strings.TrimSpace(req.Reference)
	if ref == "" {
		writeError(w, r, s.log, fmt.Errorf("%w: reference is required", domain.ErrInvalidArgument))
		return
	}
	out, err := s.verify.Verify(r.Context(), ref)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toVerifyResponse(out, s.now()))
}

type initializeDonationRequest struct {
	Amount      int64  `json:"amount"`
	Email       string `json:"email"`
	DonorName   string `json:"donorName"`
	Message     string `json:"message"`
	IsAnonymous bool   `json:"isAnonymous"`
}

func (s *Server) handleInitializeDonation(w http.ResponseWriter, r *http.Request) {
	var req initializeDonationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	actor := ActorFrom(r.Context())
	in := model.DonationInput{
		ExtUserID:   actor.ExtUserID,
		Amount:      req.Amount,
		Email:       req.Email,
		DonorName:   req.DonorName,
		Message:     req.Message,
		IsAnonymous: req.IsAnonymous,
	}
	res, err := s.checkout.InitializeDonation(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toCheckoutResponse(res))
}

func (s *Server) handleDonationFeed(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultFeedLimit
	}
	feed, err := s.dons.Feed(r.Context(), limit)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": feed})
}

func (s *Server) handleDonationStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.dons.Stats(r.Context())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, donationStatsDTO{
		Count:  st.Count,
		Total:  st.Total,
		Recent: mapAll(st.Recent, (*model.Donation).Public),
	})
}

// handleCallback is where the processor sends the browser back. It verifies
// and redirects to the frontend with the outcome in the query string.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ref := strings.TrimSpace(q.Get("reference"))
	if ref == "" {
		ref = strings.TrimSpace(q.Get("trxref"))
	}
	if ref == "" {
		writeError(w, r, s.log, fmt.Errorf("%w: reference is required", domain.ErrInvalidArgument))
		return
	}

	status := "success"
	kind := ""
	out, err := s.verify.Verify(r.Context(), ref)
	switch {
	case err == nil:
		kind = string(out.Kind)
	case errors.Is(err, domain.ErrVerificationInProgress), errors.Is(err, domain.ErrUpstreamUnavailable):
		status = "pending"
	default:
		l := logging.With(logging.WithReference(r.Context(), ref), s.log)
		l.Warn().Err(err).Msg("callback verification failed")
		status = "failed"
	}
	http.Redirect(w, r, s.callbackTarget(ref, kind, status), http.StatusSeeOther)
}

func (s *Server) callbackTarget(ref, kind, status string) string {
	v := url.Values{}
	v.Set("reference", ref)
	v.Set("status", status)
	if kind != "" {
		v.Set("kind", kind)
	}
	return strings.TrimRight(s.frontendURL, "/") + "/payment/verify?" + v.Encode()
}

type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
	} `json:"data"`
}

// handleWebhook accepts signed processor events. Unknown references are
// acknowledged so the processor stops retrying; transient failures are not.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.webhook == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "webhook not configured"})
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, s.log, fmt.Errorf("%w: unreadable body", domain.ErrInvalidArgument))
		return
	}
	if !s.webhook.VerifySignature(body, r.Header.Get(paystackSignatureHeader)) {
		writeError(w, r, s.log, fmt.Errorf("%w: invalid signature", domain.ErrUnauthenticated))
		return
	}

	var ev webhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		writeError(w, r, s.log, fmt.Errorf("%w: malformed event", domain.ErrInvalidArgument))
		return
	}
	l := logging.With(logging.WithReference(r.Context(), ev.Data.Reference), s.log)
	if ev.Event != "charge.success" || ev.Data.Reference == "" {
		l.Debug().Str("event", ev.Event).Msg("webhook event ignored")
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	_, err = s.verify.Verify(r.Context(), ev.Data.Reference)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "processed"})
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrVerificationFailed),
		errors.Is(err, domain.ErrVerificationInProgress), errors.Is(err, domain.ErrAlreadyOwned):
		l.Info().Err(err).Msg("webhook acknowledged without processing")
		writeJSON(w, http.StatusOK, map[string]string{"status": "acknowledged"})
	default:
		writeError(w, r, s.log, err)
	}
}
