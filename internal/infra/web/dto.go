package web

import (
	"time"

	"content-commerce/internal/domain/model"
	"content-commerce/internal/usecase"
)

type userDTO struct {
	ID        string    `json:"id"`
	ExtUserID string    `json:"extUserId"`
	Username  string    `json:"username,omitempty"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserDTO(u *model.User) userDTO {
	return userDTO{
		ID:        u.ID,
		ExtUserID: u.ExtUserID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

type subscriptionDTO struct {
	ExtUserID string     `json:"extUserId"`
	Tier      string     `json:"tier"`
	Status    string     `json:"status"`
	Credits   int        `json:"credits"`
	StartDate time.Time  `json:"startDate"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	Active    bool       `json:"isActive"`
	AutoRenew bool       `json:"autoRenew"`
	Pending   *string    `json:"pendingReference,omitempty"`
}

func toSubscriptionDTO(s *model.Subscription, now time.Time) subscriptionDTO {
	return subscriptionDTO{
		ExtUserID: s.ExtUserID,
		Tier:      string(s.Tier),
		Status:    string(s.Status),
		Credits:   s.Credits,
		StartDate: s.StartDate,
		EndDate:   s.EndDate,
		Active:    s.IsActiveAt(now),
		AutoRenew: s.AutoRenew,
		Pending:   s.PendingReference,
	}
}

type subscriptionViewDTO struct {
	subscriptionDTO
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

type subscriptionPaymentDTO struct {
	Reference string    `json:"reference"`
	Tier      string    `json:"tier"`
	Amount    int64     `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

func toSubscriptionPaymentDTO(p *model.SubscriptionPayment) subscriptionPaymentDTO {
	return subscriptionPaymentDTO{
		Reference: p.Reference,
		Tier:      string(p.Tier),
		Amount:    p.Amount,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
	}
}

type purchaseDTO struct {
	ID               string     `json:"id"`
	ExtUserID        string     `json:"extUserId"`
	EbookID          string     `json:"ebookId"`
	PurchaseType     string     `json:"purchaseType"`
	Amount           int64      `json:"amount"`
	PaymentMethod    string     `json:"paymentMethod"`
	Reference        *string    `json:"reference,omitempty"`
	Status           string     `json:"paymentStatus"`
	DownloadCount    int        `json:"downloadCount"`
	LastDownloadedAt *time.Time `json:"lastDownloadedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

func toPurchaseDTO(p *model.Purchase) purchaseDTO {
	return purchaseDTO{
		ID:               p.ID,
		ExtUserID:        p.ExtUserID,
		EbookID:          p.EbookID,
		PurchaseType:     string(p.PurchaseType),
		Amount:           p.Amount,
		PaymentMethod:    string(p.PaymentMethod),
		Reference:        p.Reference,
		Status:           string(p.Status),
		DownloadCount:    p.DownloadCount,
		LastDownloadedAt: p.LastDownloadedAt,
		CreatedAt:        p.CreatedAt,
	}
}

type ebookSummaryDTO struct {
	Title      string `json:"title"`
	Author     string `json:"author,omitempty"`
	Price      int64  `json:"price"`
	CoverImage string `json:"coverImage,omitempty"`
}

type purchaseViewDTO struct {
	purchaseDTO
	Ebook    ebookSummaryDTO `json:"ebook"`
	Username string          `json:"username,omitempty"`
	Email    string          `json:"email,omitempty"`
}

func toPurchaseViewDTO(v *model.PurchaseView) purchaseViewDTO {
	return purchaseViewDTO{
		purchaseDTO: toPurchaseDTO(&v.Purchase),
		Ebook: ebookSummaryDTO{
			Title:      v.EbookTitle,
			Author:     v.EbookAuthor,
			Price:      v.EbookPrice,
			CoverImage: v.CoverImage,
		},
		Username: v.Username,
		Email:    v.Email,
	}
}

type donationDTO struct {
	ID          string    `json:"id"`
	Amount      int64     `json:"amount"`
	Email       string    `json:"email"`
	DonorName   string    `json:"donorName"`
	Message     string    `json:"message,omitempty"`
	IsAnonymous bool      `json:"isAnonymous"`
	Reference   string    `json:"reference"`
	Status      string    `json:"paymentStatus"`
	CreatedAt   time.Time `json:"createdAt"`
}

// toDonationDTO carries the donor email; only admin and the donor's own
// checkout responses use it.
func toDonationDTO(d *model.Donation) donationDTO {
	return donationDTO{
		ID:          d.ID,
		Amount:      d.Amount,
		Email:       d.Email,
		DonorName:   d.DonorName,
		Message:     d.Message,
		IsAnonymous: d.IsAnonymous,
		Reference:   d.Reference,
		Status:      string(d.Status),
		CreatedAt:   d.CreatedAt,
	}
}

type ebookDTO struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Description   string    `json:"description,omitempty"`
	CoverImage    string    `json:"coverImage,omitempty"`
	Price         int64     `json:"price"`
	Credits       int       `json:"credits"`
	Format        string    `json:"format"`
	Category      string    `json:"category,omitempty"`
	IsPremiumOnly bool      `json:"isPremiumOnly"`
	IsActive      bool      `json:"isActive"`
	Downloads     int       `json:"downloads"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toEbookDTO(e *model.Ebook) ebookDTO {
	return ebookDTO{
		ID:            e.ID,
		Title:         e.Title,
		Author:        e.Author,
		Description:   e.Description,
		CoverImage:    e.CoverImage,
		Price:         e.Price,
		Credits:       e.Credits,
		Format:        string(e.Format),
		Category:      e.Category,
		IsPremiumOnly: e.IsPremiumOnly,
		IsActive:      e.IsActive,
		Downloads:     e.Downloads,
		CreatedAt:     e.CreatedAt,
	}
}

type checkoutResponse struct {
	Kind             string                  `json:"kind"`
	Reference        string                  `json:"reference,omitempty"`
	AuthorizationURL string                  `json:"authorizationUrl,omitempty"`
	Purchase         *purchaseDTO            `json:"purchase,omitempty"`
	Payment          *subscriptionPaymentDTO `json:"payment,omitempty"`
	Donation         *donationDTO            `json:"donation,omitempty"`
	RemainingCredits *int                    `json:"remainingCredits,omitempty"`
}

func toCheckoutResponse(res *usecase.CheckoutResult) checkoutResponse {
	out := checkoutResponse{
		Kind:             string(res.Kind),
		Reference:        res.Reference,
		AuthorizationURL: res.RedirectURL,
		RemainingCredits: res.Balance,
	}
	if res.Purchase != nil {
		p := toPurchaseDTO(res.Purchase)
		out.Purchase = &p
	}
	if res.Subscription != nil {
		p := toSubscriptionPaymentDTO(res.Subscription)
		out.Payment = &p
	}
	if res.Donation != nil {
		d := toDonationDTO(res.Donation)
		out.Donation = &d
	}
	return out
}

type verifyResponse struct {
	Kind            string           `json:"kind"`
	Reference       string           `json:"reference"`
	Message         string           `json:"message"`
	AlreadyVerified bool             `json:"alreadyVerified"`
	Purchase        *purchaseDTO     `json:"purchase,omitempty"`
	Subscription    *subscriptionDTO `json:"subscription,omitempty"`
	Donation        *donationDTO     `json:"donation,omitempty"`
}

func toVerifyResponse(out *usecase.VerifyOutcome, now time.Time) verifyResponse {
	resp := verifyResponse{
		Kind:            string(out.Kind),
		Reference:       out.Reference,
		Message:         out.Message,
		AlreadyVerified: out.AlreadyVerified,
	}
	if out.Purchase != nil {
		p := toPurchaseDTO(out.Purchase)
		resp.Purchase = &p
	}
	if out.Subscription != nil {
		s := toSubscriptionDTO(out.Subscription, now)
		resp.Subscription = &s
	}
	if out.Donation != nil {
		d := toDonationDTO(out.Donation)
		resp.Donation = &d
	}
	return resp
}

type donationStatsDTO struct {
	Count  int                    `json:"count"`
	Total  int64                  `json:"total"`
	Recent []model.PublicDonation `json:"recent"`
}
