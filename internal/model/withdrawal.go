package model

import "time"

// WithdrawalStatus is the review state of a withdrawal request.
type WithdrawalStatus string

const (
	WithdrawalPending WithdrawalStatus = "PENDING"
	WithdrawalSuccess WithdrawalStatus = "SUCCESS"
	WithdrawalError   WithdrawalStatus = "ERROR"
)

// Withdrawal represents a seller's request to move marketplace balance
// to a bank account. The amount is debited up front and refunded if the
// request is rejected.
type Withdrawal struct {
	ID          int64            `json:"id"`
	UserID      int64            `json:"user_id"`
	Amount      int64            `json:"amount"` // currency minor units
	BankName    string           `json:"bank_name"`
	BankNumber  string           `json:"bank_number"`
	BankOwner   string           `json:"bank_owner"`
	Status      WithdrawalStatus `json:"status"`
	ReviewerID  *int64           `json:"reviewer_id,omitempty"` // nil until reviewed
	RequestedAt time.Time        `json:"requested_at"`
	ResolvedAt  *time.Time       `json:"resolved_at,omitempty"`
}
