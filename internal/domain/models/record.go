package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordKind names an owner-scoped line item collection.
type RecordKind string

const (
	RecordIncome     RecordKind = "income"
	RecordExpense    RecordKind = "expense"
	RecordDeduction  RecordKind = "deduction"
	RecordAsset      RecordKind = "asset"
	RecordLiability  RecordKind = "liability"
	RecordInvestment RecordKind = "investment"
)

// RecordKinds lists every supported collection in route order.
func RecordKinds() []RecordKind {
	return []RecordKind{RecordIncome, RecordExpense, RecordDeduction, RecordAsset, RecordLiability, RecordInvestment}
}

// IsValidRecordKind returns true if k is a supported collection.
func IsValidRecordKind(k RecordKind) bool {
	for _, known := range RecordKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// Record is a single financial line item owned by one principal.
// Investment extras are nil for every other kind.
type Record struct {
	ID        string
	Owner     string
	Kind      RecordKind
	Name      string
	Amount    decimal.Decimal
	CreatedAt time.Time

	RateOfReturn      *decimal.Decimal
	Contribution      *int64
	ContributionYears *int
}

// Principal is the identity resolved by the request guard.
type Principal struct {
	ID    string
	Email string
}
