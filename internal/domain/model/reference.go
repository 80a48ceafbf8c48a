package model

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// PaymentKind identifies which collection a payment reference belongs to.
type PaymentKind string

const (
	PaymentKindPurchase     PaymentKind = "purchase"
	PaymentKindSubscription PaymentKind = "subscription"
	PaymentKindDonation     PaymentKind = "donation"
)

// Prefix is the reference tag of the flow kind.
func (k PaymentKind) Prefix() string {
	switch k {
	case PaymentKindPurchase:
		return "ebook"
	case PaymentKindSubscription:
		return "sub"
	case PaymentKindDonation:
		return "donation"
	}
	return "pay"
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewReference returns "<prefix>_<ULID>".
func NewReference(kind PaymentKind, now time.Time) string {
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(now), entropy)
	entropyMu.Unlock()
	return kind.Prefix() + "_" + strings.ToLower(id.String())
}

// KindHint guesses the kind from the reference prefix. ok is false for
// references that were not minted by NewReference.
func KindHint(reference string) (PaymentKind, bool) {
	prefix, _, found := strings.Cut(reference, "_")
	if !found {
		return "", false
	}
	for _, k := range []PaymentKind{PaymentKindPurchase, PaymentKindSubscription, PaymentKindDonation} {
		if k.Prefix() == prefix {
			return k, true
		}
	}
	return "", false
}

// ProbeOrder lists kinds to look up for a reference, hinted kind first.
func ProbeOrder(reference string) []PaymentKind {
	order := []PaymentKind{PaymentKindPurchase, PaymentKindSubscription, PaymentKindDonation}
	hint, ok := KindHint(reference)
	if !ok {
		return order
	}
	out := []PaymentKind{hint}
	for _, k := range order {
		if k != hint {
			out = append(out, k)
		}
	}
	return out
}
