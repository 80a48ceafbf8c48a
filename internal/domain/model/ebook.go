package model

import "time"

type EbookFormat string

const (
	EbookFormatPDF  EbookFormat = "PDF"
	EbookFormatEPUB EbookFormat = "EPUB"
	EbookFormatMOBI EbookFormat = "MOBI"
)

// Ebook is a sellable content item. It is read-mostly; only Downloads is
// touched by the payment flows.
type Ebook struct {
	ID            string
	Title         string
	Author        string
	Description   string
	CoverImage    string
	Price         int64 // major units
	Credits       int   // credit cost
	FileURL       string
	FileSize      int64
	Format        EbookFormat
	Category      string
	IsPremiumOnly bool
	IsActive      bool
	Downloads     int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Access is the resolver verdict for one user and one item.
type Access struct {
	EbookID         string `json:"ebookId"`
	Owned           bool   `json:"owned"`
	RequiresUpgrade bool   `json:"requiresUpgrade"`
	Price           int64  `json:"price"`
	Credits         int    `json:"credits"`
}

// PostApproval is the moderation state of a blog post.
type PostApproval string

const (
	PostApprovalPending  PostApproval = "PENDING"
	PostApprovalApproved PostApproval = "APPROVED"
	PostApprovalRejected PostApproval = "REJECTED"
)
