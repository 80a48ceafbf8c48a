package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"content-commerce/internal/domain/model"
)

func (s *Server) handleSyncUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.Sync(r.Context(), ActorFrom(r.Context()))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": toUserDTO(u)})
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.subs.Get(r.Context(), ActorFrom(r.Context()).ExtUserID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"subscription": toSubscriptionDTO(sub, s.now())})
}

type initializeSubscriptionRequest struct {
	Tier string `json:"tier"`
}

func (s *Server) handleInitializeSubscription(w http.ResponseWriter, r *http.Request) {
	var req initializeSubscriptionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	tier, err := model.ParsePaidTier(req.Tier)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	res, err := s.checkout.InitializeSubscription(r.Context(), ActorFrom(r.Context()), tier)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toCheckoutResponse(res))
}

func (s *Server) handleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.subs.Cancel(r.Context(), ActorFrom(r.Context()).ExtUserID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Subscription cancelled",
		"subscription": toSubscriptionDTO(sub, s.now()),
	})
}

type useCreditsRequest struct {
	Amount int `json:"amount"`
}

func (s *Server) handleUseCredits(w http.ResponseWriter, r *http.Request) {
	var req useCreditsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	sub, err := s.subs.UseCredits(r.Context(), ActorFrom(r.Context()).ExtUserID, req.Amount)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"remainingCredits": sub.Credits,
		"subscription":     toSubscriptionDTO(sub, s.now()),
	})
}

type initializePurchaseRequest struct {
	EbookID      string `json:"ebookId"`
	PurchaseType string `json:"purchaseType"`
}

func (s *Server) handleInitializePurchase(w http.ResponseWriter, r *http.Request) {
	var req initializePurchaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	pt := model.PurchaseType(strings.ToUpper(strings.TrimSpace(req.PurchaseType)))
	if pt == "" {
		pt = model.PurchaseTypeCash
	}
	res, err := s.checkout.InitializePurchase(r.Context(), ActorFrom(r.Context()), strings.TrimSpace(req.EbookID), pt)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	status := http.StatusOK
	if pt == model.PurchaseTypeCredits {
		status = http.StatusCreated
	}
	writeJSON(w, status, toCheckoutResponse(res))
}

func (s *Server) handlePurchaseHistory(w http.ResponseWriter, r *http.Request) {
	page := pageFrom(r)
	items, total, err := s.library.History(r.Context(), ActorFrom(r.Context()).ExtUserID, page)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[purchaseViewDTO]{
		Data:       mapAll(items, toPurchaseViewDTO),
		Pagination: paginate(page, total),
	})
}

type downloadResponse struct {
	DownloadURL   string `json:"downloadUrl"`
	Title         string `json:"title"`
	Format        string `json:"format"`
	DownloadCount int    `json:"downloadCount"`
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	link, err := s.library.Download(r.Context(), ActorFrom(r.Context()).ExtUserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, downloadResponse{
		DownloadURL:   link.URL,
		Title:         link.Title,
		Format:        string(link.Format),
		DownloadCount: link.DownloadCount,
	})
}

func (s *Server) handleMyEbooks(w http.ResponseWriter, r *http.Request) {
	items, err := s.library.MyPurchases(r.Context(), ActorFrom(r.Context()).ExtUserID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": mapAll(items, toPurchaseViewDTO)})
}

// handleResolveAccess works for anonymous callers too.
func (s *Server) handleResolveAccess(w http.ResponseWriter, r *http.Request) {
	acc, err := s.access.ResolveAccess(r.Context(), ActorFrom(r.Context()).ExtUserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (s *Server) handleOwnership(w http.ResponseWriter, r *http.Request) {
	owned, p, err := s.access.CheckOwnership(r.Context(), ActorFrom(r.Context()).ExtUserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	resp := map[string]any{"owned": owned}
	if p != nil {
		resp["purchase"] = toPurchaseDTO(p)
	}
	writeJSON(w, http.StatusOK, resp)
}
