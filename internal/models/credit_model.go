package models

import "time"

// CreditTransaction is an append-only ledger entry. Rows are never mutated or
// removed; the owning user's credits column always equals the balance_after of
// their newest row.
type CreditTransaction struct {
	ID                    int64          `db:"id" json:"id"`
	UserID                int64          `db:"user_id" json:"user_id"`
	Type                  string         `db:"type" json:"type"`
	Amount                int            `db:"amount" json:"amount"`
	Action                string         `db:"action" json:"action"`
	BalanceBefore         int            `db:"balance_before" json:"balance_before"`
	BalanceAfter          int            `db:"balance_after" json:"balance_after"`
	Reference             string         `db:"reference" json:"reference"`
	OriginalTransactionID *int64         `db:"original_transaction_id" json:"original_transaction_id"`
	Metadata              map[string]any `db:"metadata" json:"metadata"`
	CreatedAt             time.Time      `db:"created_at" json:"created_at"`
}

const (
	CreditTypeDeduction = "deduction"
	CreditTypeAddition  = "addition"
	CreditTypeRefund    = "refund"
)
