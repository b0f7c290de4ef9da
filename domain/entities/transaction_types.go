package entities

// TransactionType is the top-level direction of a ledger entry
type TransactionType string

const (
	TransactionTypeArrival    TransactionType = "arrival"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeTransfer   TransactionType = "transfer"
	TransactionTypeReferral   TransactionType = "referral"
)

// TransactionSubtype refines the ledger entry with its business cause
type TransactionSubtype string

const (
	TransactionSubtypeBet        TransactionSubtype = "bet"
	TransactionSubtypeWin        TransactionSubtype = "win"
	TransactionSubtypeCommission TransactionSubtype = "commission"
	TransactionSubtypeDeposit    TransactionSubtype = "deposit"
	TransactionSubtypeRefund     TransactionSubtype = "refund"
	TransactionSubtypePending    TransactionSubtype = "pending"
	TransactionSubtypeRejected   TransactionSubtype = "rejected"
	TransactionSubtypeCompleted  TransactionSubtype = "completed"
)

// IsCredit returns true for entry types that increase available funds
func (t TransactionType) IsCredit() bool {
	return t == TransactionTypeArrival || t == TransactionTypeReferral
}

// IsGameRelated returns true for subtypes produced by betting rounds
func (s TransactionSubtype) IsGameRelated() bool {
	switch s {
	case TransactionSubtypeBet, TransactionSubtypeWin, TransactionSubtypeCommission, TransactionSubtypeRefund:
		return true
	default:
		return false
	}
}
