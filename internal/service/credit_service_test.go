package service

import (
	"context"
	"errors"
	"testing"

	"github.com/finnholt/beamcast/internal/models"
)

func TestActionForTargets(t *testing.T) {
	cases := []struct {
		count int
		want  string
	}{
		{1, ActionPostBasic},
		{2, ActionPostBasic},
		{3, ActionPostMulti},
		{5, ActionPostMulti},
	}
	for _, tc := range cases {
		if got := ActionForTargets(tc.count); got != tc.want {
			t.Errorf("ActionForTargets(%d) = %q, want %q", tc.count, got, tc.want)
		}
	}
}

func TestCreditServiceDeductAndRefund(t *testing.T) {
	repo := &fakeCreditRepo{balances: map[int64]int{1: 10}}
	svc := NewCreditService(repo)
	ctx := context.Background()

	deduction, err := svc.Deduct(ctx, 1, ActionPostMulti, map[string]any{"post_id": int64(9)})
	if err != nil {
		t.Fatal(err)
	}
	if deduction.NewBalance != 8 {
		t.Errorf("NewBalance = %d, want 8", deduction.NewBalance)
	}
	if deduction.Reference == "" {
		t.Error("deduction has no reference id")
	}

	refund, err := svc.Refund(ctx, 1, 2, "all platforms failed", &deduction.TransactionID)
	if err != nil {
		t.Fatal(err)
	}
	if refund.NewBalance != 10 {
		t.Errorf("NewBalance = %d, want the original 10", refund.NewBalance)
	}

	for _, entry := range repo.entries {
		if entry.BalanceAfter != entry.BalanceBefore+entry.Amount {
			t.Errorf("entry %d breaks the balance invariant: %d != %d + %d",
				entry.ID, entry.BalanceAfter, entry.BalanceBefore, entry.Amount)
		}
	}
}

func TestCreditServiceDeductInsufficient(t *testing.T) {
	repo := &fakeCreditRepo{balances: map[int64]int{1: 1}}
	svc := NewCreditService(repo)

	_, err := svc.Deduct(context.Background(), 1, ActionPostMulti, nil)
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("err = %v, want ErrInsufficientCredits", err)
	}
	if len(repo.entries) != 0 {
		t.Errorf("ledger has %d entries, want none", len(repo.entries))
	}
	if repo.balances[1] != 1 {
		t.Errorf("balance = %d, want untouched 1", repo.balances[1])
	}
}

func TestCreditServiceCheck(t *testing.T) {
	repo := &fakeCreditRepo{balances: map[int64]int{1: 1}}
	svc := NewCreditService(repo)

	check, err := svc.Check(context.Background(), 1, ActionPostMulti)
	if err != nil {
		t.Fatal(err)
	}
	if check.Sufficient || check.Required != 2 || check.Balance != 1 {
		t.Errorf("check = %+v, want insufficient 1 < 2", check)
	}

	if _, err := svc.Check(context.Background(), 1, "unknown_action"); err == nil {
		t.Error("Check accepted an unknown action")
	}
}

func TestCreditServiceRejectsNonPositiveAmounts(t *testing.T) {
	svc := NewCreditService(&fakeCreditRepo{balances: map[int64]int{}})

	if _, err := svc.Refund(context.Background(), 1, 0, "r", nil); err == nil {
		t.Error("Refund accepted zero amount")
	}
	if _, err := svc.Add(context.Background(), 1, -5, "s", nil); err == nil {
		t.Error("Add accepted negative amount")
	}
}

func TestCreditTypeConstants(t *testing.T) {
	// The ledger stores these strings; a rename is a schema migration.
	if models.CreditTypeDeduction != "deduction" ||
		models.CreditTypeAddition != "addition" ||
		models.CreditTypeRefund != "refund" {
		t.Error("credit transaction type constants changed")
	}
}
