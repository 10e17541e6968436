package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/finnholt/beamcast/internal/models"
	"github.com/finnholt/beamcast/internal/repository"
	"github.com/finnholt/beamcast/internal/transfer"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ErrInsufficientCredits mirrors the repository sentinel at the service
// boundary so handlers can match it without importing the repository.
var ErrInsufficientCredits = repository.ErrInsufficientCredits

const (
	ActionPostBasic  = "social_post_basic"
	ActionPostMulti  = "social_post_multi"
	ActionAIGenerate = "ai_generate"
)

// actionCosts is the static price list. Cost is per publish attempt, not per
// successful platform.
var actionCosts = map[string]int{
	ActionPostBasic:  1,
	ActionPostMulti:  2,
	ActionAIGenerate: 1,
}

// MultiPlatformThreshold is the target count at which a post bills as a
// multi-platform action.
const MultiPlatformThreshold = 3

// ActionForTargets picks the billing action for a publish attempt.
func ActionForTargets(platformCount int) string {
	if platformCount >= MultiPlatformThreshold {
		return ActionPostMulti
	}
	return ActionPostBasic
}

// ActionCost returns the credit price of an action, zero for unknown actions.
func ActionCost(action string) int {
	return actionCosts[action]
}

type CreditService interface {
	Check(ctx context.Context, userID int64, action string) (*transfer.CreditCheck, error)
	Deduct(ctx context.Context, userID int64, action string, metadata map[string]any) (*transfer.CreditMovement, error)
	Refund(ctx context.Context, userID int64, amount int, reason string, originalTransactionID *int64) (*transfer.CreditMovement, error)
	Add(ctx context.Context, userID int64, amount int, source string, metadata map[string]any) (*transfer.CreditMovement, error)
	Balance(ctx context.Context, userID int64) (int, error)
	History(ctx context.Context, userID int64, limit int) ([]*models.CreditTransaction, error)
}

type creditService struct {
	cr repository.CreditRepository
}

func NewCreditService(cr repository.CreditRepository) CreditService {
	return &creditService{cr: cr}
}

func (s *creditService) Check(ctx context.Context, userID int64, action string) (*transfer.CreditCheck, error) {
	cost, ok := actionCosts[action]
	if !ok {
		return nil, fmt.Errorf("unknown credit action %q", action)
	}

	balance, err := s.cr.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &transfer.CreditCheck{
		Sufficient: balance >= cost,
		Balance:    balance,
		Required:   cost,
		Action:     action,
	}, nil
}

func (s *creditService) Deduct(ctx context.Context, userID int64, action string, metadata map[string]any) (*transfer.CreditMovement, error) {
	cost, ok := actionCosts[action]
	if !ok {
		return nil, fmt.Errorf("unknown credit action %q", action)
	}

	entry, err := s.apply(ctx, &models.CreditTransaction{
		UserID:   userID,
		Type:     models.CreditTypeDeduction,
		Amount:   -cost,
		Action:   action,
		Metadata: metadata,
	})
	if err != nil {
		return nil, err
	}

	return movement(entry), nil
}

func (s *creditService) Refund(ctx context.Context, userID int64, amount int, reason string, originalTransactionID *int64) (*transfer.CreditMovement, error) {
	if amount <= 0 {
		return nil, errors.New("refund amount must be positive")
	}

	entry, err := s.apply(ctx, &models.CreditTransaction{
		UserID:                userID,
		Type:                  models.CreditTypeRefund,
		Amount:                amount,
		Action:                reason,
		OriginalTransactionID: originalTransactionID,
	})
	if err != nil {
		return nil, err
	}

	return movement(entry), nil
}

func (s *creditService) Add(ctx context.Context, userID int64, amount int, source string, metadata map[string]any) (*transfer.CreditMovement, error) {
	if amount <= 0 {
		return nil, errors.New("credit amount must be positive")
	}

	entry, err := s.apply(ctx, &models.CreditTransaction{
		UserID:   userID,
		Type:     models.CreditTypeAddition,
		Amount:   amount,
		Action:   source,
		Metadata: metadata,
	})
	if err != nil {
		return nil, err
	}

	return movement(entry), nil
}

func (s *creditService) apply(ctx context.Context, entry *models.CreditTransaction) (*models.CreditTransaction, error) {
	reference, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	entry.Reference = reference

	return s.cr.Apply(ctx, entry)
}

func (s *creditService) Balance(ctx context.Context, userID int64) (int, error) {
	return s.cr.GetBalance(ctx, userID)
}

func (s *creditService) History(ctx context.Context, userID int64, limit int) ([]*models.CreditTransaction, error) {
	return s.cr.ListByUserID(ctx, userID, limit)
}

func movement(entry *models.CreditTransaction) *transfer.CreditMovement {
	return &transfer.CreditMovement{
		Success:       true,
		NewBalance:    entry.BalanceAfter,
		TransactionID: entry.ID,
		Reference:     entry.Reference,
	}
}
