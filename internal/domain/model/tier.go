package model

import (
	"fmt"
	"strings"
	"time"

	"content-commerce/internal/domain"
)

type Tier string

const (
	TierFree     Tier = "FREE"
	TierPremium  Tier = "PREMIUM"
	TierLifetime Tier = "LIFETIME"
)

// PremiumDuration is how long a PREMIUM upgrade stays active.
const PremiumDuration = 30 * 24 * time.Hour

// TierOffer describes what a paid tier costs and what a successful payment grants.
type TierOffer struct {
	Tier     Tier
	Price    int64         // major currency units
	Credits  int           // bonus credits, added on top of the current balance
	Duration time.Duration // zero means no expiry
}

var tierOffers = map[Tier]TierOffer{
	TierPremium:  {Tier: TierPremium, Price: 1200, Credits: 10, Duration: PremiumDuration},
	TierLifetime: {Tier: TierLifetime, Price: 29900, Credits: 50},
}

// OfferFor returns the static offer of a paid tier.
func OfferFor(t Tier) (TierOffer, error) {
	o, ok := tierOffers[t]
	if !ok {
		return TierOffer{}, fmt.Errorf("%w: tier %q is not purchasable", domain.ErrInvalidArgument, t)
	}
	return o, nil
}

// ParsePaidTier normalises user input into PREMIUM or LIFETIME.
func ParsePaidTier(s string) (Tier, error) {
	t := Tier(strings.ToUpper(strings.TrimSpace(s)))
	if _, err := OfferFor(t); err != nil {
		return "", err
	}
	return t, nil
}

// GrantsPremiumAccess reports whether the tier unlocks premium-only items.
func (t Tier) GrantsPremiumAccess() bool {
	return t == TierPremium || t == TierLifetime
}

func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierPremium, TierLifetime:
		return true
	}
	return false
}
