package model

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"content-commerce/internal/domain"

	"github.com/google/uuid"
)

const (
	AnonymousDonor         = "Anonymous"
	MaxDonationMessageLen  = 500
	DefaultDonationMinimum = 50
)

type Donation struct {
	ID            string
	ExtUserID     *string
	Amount        int64
	Email         string
	DonorName     string
	Message       string
	IsAnonymous   bool
	Reference     string
	Status        PaymentStatus
	TransactionID *string
	Metadata      map[string]any
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DonationInput is what a donor submits.
type DonationInput struct {
	ExtUserID   string
	Amount      int64
	Email       string
	DonorName   string
	Message     string
	IsAnonymous bool
}

// NewDonation validates the input and returns a PENDING donation.
func NewDonation(in DonationInput, minimum int64, reference string, now time.Time) (*Donation, error) {
	if minimum <= 0 {
		minimum = DefaultDonationMinimum
	}
	if in.Amount < minimum {
		return nil, fmt.Errorf("%w: minimum donation amount is %d", domain.ErrInvalidArgument, minimum)
	}
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrInvalidArgument)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", domain.ErrInvalidArgument)
	}
	if utf8.RuneCountInString(in.Message) > MaxDonationMessageLen {
		return nil, fmt.Errorf("%w: message must be at most %d characters", domain.ErrInvalidArgument, MaxDonationMessageLen)
	}
	if reference == "" {
		return nil, domain.ErrInvalidArgument
	}
	name := strings.TrimSpace(in.DonorName)
	if in.IsAnonymous || name == "" {
		name = AnonymousDonor
	}
	d := &Donation{
		ID:          uuid.NewString(),
		Amount:      in.Amount,
		Email:       email,
		DonorName:   name,
		Message:     strings.TrimSpace(in.Message),
		IsAnonymous: in.IsAnonymous,
		Reference:   reference,
		Status:      PaymentStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.ExtUserID != "" {
		id := in.ExtUserID
		d.ExtUserID = &id
	}
	return d, nil
}

// Public hides donor identity for anonymous donations and never carries the email.
func (d *Donation) Public() PublicDonation {
	name := d.DonorName
	if d.IsAnonymous {
		name = AnonymousDonor
	}
	return PublicDonation{
		DonorName: name,
		Amount:    d.Amount,
		Message:   d.Message,
		CreatedAt: d.CreatedAt,
	}
}

type PublicDonation struct {
	DonorName string    `json:"donorName"`
	Amount    int64     `json:"amount"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type DonationStats struct {
	Count  int
	Total  int64
	Recent []*Donation
}
