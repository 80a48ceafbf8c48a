package model

import (
	"time"

	"github.com/google/uuid"
)

// Purchase is the ownership record of an ebook.
type Purchase struct {
	ID               string
	ExtUserID        string
	EbookID          string
	PurchaseType     PurchaseType
	Amount           int64 // price in major units for CASH, credit cost for CREDITS
	PaymentMethod    PaymentMethod
	Reference        *string // nil for credit purchases
	Status           PaymentStatus
	TransactionID    *string
	DownloadCount    int
	LastDownloadedAt *time.Time
	Metadata         map[string]any
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewCashPurchase is a PENDING purchase awaiting processor verification.
func NewCashPurchase(extUserID string, ebook *Ebook, reference string, now time.Time) *Purchase {
	ref := reference
	return &Purchase{
		ID:            uuid.NewString(),
		ExtUserID:     extUserID,
		EbookID:       ebook.ID,
		PurchaseType:  PurchaseTypeCash,
		Amount:        ebook.Price,
		PaymentMethod: PaymentMethodProcessor,
		Reference:     &ref,
		Status:        PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NewCreditPurchase is already terminal: credits were deducted synchronously.
func NewCreditPurchase(extUserID string, ebook *Ebook, now time.Time) *Purchase {
	return &Purchase{
		ID:            uuid.NewString(),
		ExtUserID:     extUserID,
		EbookID:       ebook.ID,
		PurchaseType:  PurchaseTypeCredits,
		Amount:        int64(ebook.Credits),
		PaymentMethod: PaymentMethodCredits,
		Status:        PaymentStatusSuccess,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (p *Purchase) IsSuccessful() bool { return p != nil && p.Status == PaymentStatusSuccess }

// PurchaseView is a purchase joined with its buyer and item summaries.
type PurchaseView struct {
	Purchase
	Username    string
	Email       string
	EbookTitle  string
	EbookAuthor string
	EbookPrice  int64
	CoverImage  string
}
