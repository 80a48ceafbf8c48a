package model

// AdminStats is the dashboard summary.
type AdminStats struct {
	TotalUsers          int   `json:"totalUsers"`
	TotalPosts          int   `json:"totalPosts"`
	TotalEbooks         int   `json:"totalEbooks"`
	SuccessfulPurchases int   `json:"successfulPurchases"`
	PendingPosts        int   `json:"pendingPosts"`
	PremiumUsers        int   `json:"premiumUsers"`
	TotalRevenue        int64 `json:"totalRevenue"`
	DonationCount       int   `json:"donationCount"`
	DonationTotal       int64 `json:"donationTotal"`
}

// Page is offset pagination shared by all listings.
type Page struct {
	Number int
	Size   int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize clamps page number and size.
func (p Page) Normalize(defaultSize int) Page {
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size <= 0 {
		p.Size = defaultSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// TotalPages for a given total count.
func (p Page) TotalPages(total int) int {
	if p.Size <= 0 || total <= 0 {
		return 0
	}
	return (total + p.Size - 1) / p.Size
}

type PurchaseFilter struct {
	Status *PaymentStatus
}

type SubscriptionFilter struct {
	Tier   *Tier
	Status *SubscriptionStatus
}

type DonationFilter struct {
	Status *PaymentStatus
}

type EbookFilter struct {
	Active *bool
}

type UserFilter struct {
	Role   *Role
	Search string
}

// SubscriptionView joins a subscription with its owner.
type SubscriptionView struct {
	Subscription
	Username string
	Email    string
}
