package service

import (
	"context"
	"log"

	"hdgstudio-market-api/internal/client"
	"hdgstudio-market-api/internal/model"
	"hdgstudio-market-api/internal/repository"
	"hdgstudio-market-api/pkg/apierror"
)

// WithdrawalService handles withdrawal requests. The amount is debited
// from the seller's balance up front, so the money cannot be spent
// while the request sits in review; a rejection refunds it.
type WithdrawalService struct {
	withdrawals repository.WithdrawalRepository
	finance     repository.FinanceRepository
	fund        client.FundClient
}

// NewWithdrawalService creates a new withdrawal service.
func NewWithdrawalService(
	withdrawals repository.WithdrawalRepository,
	finance repository.FinanceRepository,
	fund client.FundClient,
) *WithdrawalService {
	return &WithdrawalService{
		withdrawals: withdrawals,
		finance:     finance,
		fund:        fund,
	}
}

// Create debits the amount and records a PENDING request. If the debit
// succeeds but the insert fails, the debit is refunded.
func (s *WithdrawalService) Create(ctx context.Context, w *model.Withdrawal) (*model.Withdrawal, error) {
	if w.Amount <= 0 {
		return nil, apierror.ValidationError("amount must be positive")
	}
	if w.BankName == "" || w.BankNumber == "" || w.BankOwner == "" {
		return nil, apierror.ValidationError("bank name, number and owner are required")
	}

	balance, err := s.fund.GetBalance(ctx, w.UserID)
	if err != nil {
		return nil, err
	}
	if balance < w.Amount {
		return nil, apierror.InsufficientFunds("balance does not cover the withdrawal amount")
	}

	if _, err := s.fund.AdjustBalance(ctx, w.UserID, -w.Amount); err != nil {
		return nil, err
	}

	w.Status = model.WithdrawalPending
	created, err := s.withdrawals.Create(ctx, w)
	if err != nil {
		if _, refundErr := s.fund.AdjustBalance(ctx, w.UserID, w.Amount); refundErr != nil {
			log.Printf("[WithdrawalService] ALERT: failed to refund user %d amount %d after insert failure: %v",
				w.UserID, w.Amount, refundErr)
		}
		return nil, err
	}

	log.Printf("[WithdrawalService] Created withdrawal id=%d user=%d amount=%d",
		created.ID, created.UserID, created.Amount)

	return created, nil
}

// Approve marks a PENDING request SUCCESS and writes the cash-flow
// record. The repository guards the PENDING state, so a request cannot
// be resolved twice.
func (s *WithdrawalService) Approve(ctx context.Context, id, reviewerID int64) error {
	w, err := s.withdrawals.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.withdrawals.Resolve(ctx, id, model.WithdrawalSuccess, reviewerID); err != nil {
		return err
	}

	if _, err := s.finance.Create(ctx, &model.FinanceRecord{
		UserID: w.UserID,
		Type:   model.FinanceWithdraw,
		Amount: w.Amount,
	}); err != nil {
		log.Printf("[WithdrawalService] Failed to write cash-flow record for withdrawal %d: %v", id, err)
	}

	log.Printf("[WithdrawalService] Approved withdrawal id=%d by reviewer=%d", id, reviewerID)
	return nil
}

// Reject marks a PENDING request ERROR and refunds the up-front debit.
// Resolve runs first: if the request was already resolved the refund
// never happens, so it cannot double-issue.
func (s *WithdrawalService) Reject(ctx context.Context, id, reviewerID int64) error {
	w, err := s.withdrawals.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.withdrawals.Resolve(ctx, id, model.WithdrawalError, reviewerID); err != nil {
		return err
	}

	if _, err := s.fund.AdjustBalance(ctx, w.UserID, w.Amount); err != nil {
		log.Printf("[WithdrawalService] ALERT: failed to refund user %d amount %d for rejected withdrawal %d: %v",
			w.UserID, w.Amount, id, err)
		return apierror.PersistenceFailure("withdrawal rejected but refund failed")
	}

	log.Printf("[WithdrawalService] Rejected withdrawal id=%d by reviewer=%d, refunded %d",
		id, reviewerID, w.Amount)
	return nil
}

// GetByUser returns a user's withdrawal history.
func (s *WithdrawalService) GetByUser(ctx context.Context, userID int64) ([]*model.Withdrawal, error) {
	return s.withdrawals.GetByUser(ctx, userID)
}

// GetAll returns every withdrawal request, for the review dashboard.
func (s *WithdrawalService) GetAll(ctx context.Context) ([]*model.Withdrawal, error) {
	return s.withdrawals.GetAll(ctx)
}

// CashFlow returns a user's cash-flow records.
func (s *WithdrawalService) CashFlow(ctx context.Context, userID int64) ([]*model.FinanceRecord, error) {
	return s.finance.GetByUser(ctx, userID)
}
