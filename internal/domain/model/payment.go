package model

import "strings"

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"  // redirected to the processor; awaiting verification
	PaymentStatusSuccess  PaymentStatus = "SUCCESS"  // verified at the processor
	PaymentStatusFailed   PaymentStatus = "FAILED"   // explicitly failed
	PaymentStatusRefunded PaymentStatus = "REFUNDED" // refunded by an admin
)

func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	st := PaymentStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case PaymentStatusPending, PaymentStatusSuccess, PaymentStatusFailed, PaymentStatusRefunded:
		return st, true
	}
	return "", false
}

type PurchaseType string

const (
	PurchaseTypeCash    PurchaseType = "CASH"
	PurchaseTypeCredits PurchaseType = "CREDITS"
)

type PaymentMethod string

const (
	PaymentMethodProcessor PaymentMethod = "PROCESSOR"
	PaymentMethodCredits   PaymentMethod = "CREDITS"
)

// ToMinorUnits converts a major-unit amount into the processor's unit.
func ToMinorUnits(major int64) int64 { return major * 100 }
