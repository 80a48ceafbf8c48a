package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"content-commerce/internal/domain"
	"content-commerce/internal/domain/model"
	"content-commerce/internal/infra/metrics"
)

func adminMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := "unknown"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.IncAdminRequest(route, strconv.Itoa(status))
	})
}

type adminLoginRequest struct {
	APIKey string `json:"apiKey"`
}

type adminLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if !s.auth.CheckAPIKey(strings.TrimSpace(req.APIKey)) {
		s.log.Warn().Str("remote", r.RemoteAddr).Msg("admin login rejected")
		writeError(w, r, s.log, domain.ErrUnauthenticated)
		return
	}
	tok, exp, err := s.auth.Mint(w, "admin")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, adminLoginResponse{Token: tok, ExpiresAt: exp})
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.admin.Stats(r.Context())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func parseStatus(r *http.Request) (*model.PaymentStatus, error) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return nil, nil
	}
	st, ok := model.ParsePaymentStatus(raw)
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidArgument, raw)
	}
	return &st, nil
}

func (s *Server) handleAdminPurchases(w http.ResponseWriter, r *http.Request) {
	st, err := parseStatus(r)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	page := pageFrom(r)
	items, total, err := s.admin.ListPurchases(r.Context(), model.PurchaseFilter{Status: st}, page)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[purchaseViewDTO]{
		Data:       mapAll(items, toPurchaseViewDTO),
		Pagination: paginate(page, total),
	})
}

func (s *Server) handleAdminRefund(w http.ResponseWriter, r *http.Request) {
	p, err := s.admin.RefundPurchase(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Purchase refunded", "purchase": toPurchaseDTO(p)})
}

func (s *Server) handleAdminSubscriptions(w http.ResponseWriter, r *http.Request) {
	var f model.SubscriptionFilter
	q := r.URL.Query()
	if raw := q.Get("tier"); raw != "" {
		t := model.Tier(strings.ToUpper(raw))
		if !t.Valid() {
			writeError(w, r, s.log, fmt.Errorf("%w: unknown tier %q", domain.ErrInvalidArgument, raw))
			return
		}
		f.Tier = &t
	}
	if raw := q.Get("status"); raw != "" {
		st := model.SubscriptionStatus(strings.ToUpper(raw))
		switch st {
		case model.SubscriptionStatusActive, model.SubscriptionStatusExpired, model.SubscriptionStatusCancelled:
			f.Status = &st
		default:
			writeError(w, r, s.log, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidArgument, raw))
			return
		}
	}
	page := pageFrom(r)
	items, total, err := s.admin.ListSubscriptions(r.Context(), f, page)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	now := s.now()
	writeJSON(w, http.StatusOK, listResponse[subscriptionViewDTO]{
		Data: mapAll(items, func(v *model.SubscriptionView) subscriptionViewDTO {
			return subscriptionViewDTO{subscriptionDTO: toSubscriptionDTO(&v.Subscription, now), Username: v.Username, Email: v.Email}
		}),
		Pagination: paginate(page, total),
	})
}

func (s *Server) handleAdminDonations(w http.ResponseWriter, r *http.Request) {
	st, err := parseStatus(r)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	page := pageFrom(r)
	items, total, err := s.admin.ListDonations(r.Context(), model.DonationFilter{Status: st}, page)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[donationDTO]{
		Data:       mapAll(items, toDonationDTO),
		Pagination: paginate(page, total),
	})
}

func (s *Server) handleAdminEbooks(w http.ResponseWriter, r *http.Request) {
	var f model.EbookFilter
	if raw := r.URL.Query().Get("active"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, s.log, fmt.Errorf("%w: active must be a boolean", domain.ErrInvalidArgument))
			return
		}
		f.Active = &b
	}
	page := pageFrom(r)
	items, total, err := s.admin.ListEbooks(r.Context(), f, page)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[ebookDTO]{
		Data:       mapAll(items, toEbookDTO),
		Pagination: paginate(page, total),
	})
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.UserFilter{Search: q.Get("search")}
	if raw := q.Get("role"); raw != "" {
		role := model.Role(strings.ToUpper(raw))
		if role != model.RoleUser && role != model.RoleAdmin {
			writeError(w, r, s.log, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidArgument, raw))
			return
		}
		f.Role = &role
	}
	page := pageFrom(r)
	items, total, err := s.admin.ListUsers(r.Context(), f, page)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[userDTO]{
		Data:       mapAll(items, toUserDTO),
		Pagination: paginate(page, total),
	})
}
