package model

import "time"

// FinanceType classifies a cash-flow record.
type FinanceType string

const (
	FinanceDeposit  FinanceType = "DEPOSIT"
	FinanceWithdraw FinanceType = "WITHDRAW"
)

// FinanceRecord is one append-only cash-flow row, written whenever
// money enters or leaves the platform.
type FinanceRecord struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"user_id"`
	Type      FinanceType `json:"type"`
	Amount    int64       `json:"amount"` // currency minor units
	CreatedAt time.Time   `json:"created_at"`
}

// FinanceSummary aggregates platform cash flow.
type FinanceSummary struct {
	TotalDeposit  int64 `json:"total_deposit"`
	TotalWithdraw int64 `json:"total_withdraw"`
	Net           int64 `json:"net"`
}
