package model

import (
	"fmt"
	"time"

	"content-commerce/internal/domain"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "ACTIVE"
	SubscriptionStatusExpired   SubscriptionStatus = "EXPIRED"
	SubscriptionStatusCancelled SubscriptionStatus = "CANCELLED"
)

// Subscription is the per-user singleton entitlement record. It also carries
// the user's credit balance.
type Subscription struct {
	ID               string
	ExtUserID        string
	Tier             Tier
	Status           SubscriptionStatus
	Credits          int
	StartDate        time.Time
	EndDate          *time.Time // nil means no expiry
	PendingReference *string
	PendingAmount    *int64
	AutoRenew        bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewDefaultSubscription is the lazily created FREE record.
func NewDefaultSubscription(extUserID string, now time.Time) (*Subscription, error) {
	if extUserID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Subscription{
		ID:        uuid.NewString(),
		ExtUserID: extUserID,
		Tier:      TierFree,
		Status:    SubscriptionStatusActive,
		Credits:   0,
		StartDate: now,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsActiveAt evaluates activity from the stored fields only.
// FREE and LIFETIME never lapse; PREMIUM needs ACTIVE status and an end date in the future.
func (s *Subscription) IsActiveAt(now time.Time) bool {
	if s == nil {
		return false
	}
	switch s.Tier {
	case TierLifetime, TierFree:
		return true
	}
	if s.Status != SubscriptionStatusActive {
		return false
	}
	if s.EndDate == nil {
		return false
	}
	return now.Before(*s.EndDate)
}

// HasPremiumAccess is true when the tier unlocks premium-only items right now.
func (s *Subscription) HasPremiumAccess(now time.Time) bool {
	return s != nil && s.Tier.GrantsPremiumAccess() && s.IsActiveAt(now)
}

// ApplyUpgrade moves the subscription to the offered tier and adds the
// offer's credits, never replacing the balance.
func (s *Subscription) ApplyUpgrade(offer TierOffer, now time.Time) {
	s.ApplyTier(offer, now)
	s.Credits += offer.Credits
}

// ApplyTier switches to the offered tier without touching credits. A paid
// LIFETIME is never replaced by a shorter tier; ApplyTier then reports false
// and leaves tier, dates and renewal as they were.
func (s *Subscription) ApplyTier(offer TierOffer, now time.Time) bool {
	if s.Tier == TierLifetime && offer.Tier != TierLifetime {
		s.UpdatedAt = now
		return false
	}
	s.Tier = offer.Tier
	s.Status = SubscriptionStatusActive
	s.StartDate = now
	if offer.Duration > 0 {
		end := now.Add(offer.Duration)
		s.EndDate = &end
	} else {
		s.EndDate = nil
	}
	s.AutoRenew = offer.Tier == TierPremium
	s.UpdatedAt = now
	return true
}

// ClearPending drops the pending checkout if it is the given reference. A
// newer checkout started meanwhile stays pending.
func (s *Subscription) ClearPending(reference string) {
	if s.PendingReference != nil && *s.PendingReference == reference {
		s.PendingReference = nil
		s.PendingAmount = nil
	}
}

// Cancel stops renewal. FREE and LIFETIME cannot be cancelled.
func (s *Subscription) Cancel(now time.Time) error {
	switch s.Tier {
	case TierFree:
		return fmt.Errorf("%w: cannot cancel free subscription", domain.ErrInvalidArgument)
	case TierLifetime:
		return fmt.Errorf("%w: cannot cancel lifetime subscription", domain.ErrInvalidArgument)
	}
	s.Status = SubscriptionStatusCancelled
	s.AutoRenew = false
	s.UpdatedAt = now
	return nil
}

// SubscriptionPayment is one payment attempt for a paid tier.
type SubscriptionPayment struct {
	Reference     string
	ExtUserID     string
	Tier          Tier
	Amount        int64
	Status        PaymentStatus
	TransactionID *string
	Metadata      map[string]any
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
