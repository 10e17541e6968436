package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/finnholt/beamcast/internal/models"
)

func TestApplyDeduction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT credits FROM users").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"credits"}).AddRow(10))
	mock.ExpectQuery("INSERT INTO credit_transactions").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(42), time.Now()))
	mock.ExpectExec("UPDATE users SET credits").
		WithArgs(8, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	r := NewCreditRepository(db)
	entry, err := r.Apply(context.Background(), &models.CreditTransaction{
		UserID:    7,
		Type:      models.CreditTypeDeduction,
		Amount:    -2,
		Action:    "social_post_multi",
		Reference: "ref123",
	})
	if err != nil {
		t.Fatal(err)
	}

	if entry.BalanceBefore != 10 || entry.BalanceAfter != 8 {
		t.Errorf("balance %d -> %d, want 10 -> 8", entry.BalanceBefore, entry.BalanceAfter)
	}
	if entry.ID != 42 {
		t.Errorf("ID = %d, want 42", entry.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestApplyInsufficientCredits(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT credits FROM users").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"credits"}).AddRow(1))
	mock.ExpectRollback()

	r := NewCreditRepository(db)
	_, err = r.Apply(context.Background(), &models.CreditTransaction{
		UserID: 7,
		Type:   models.CreditTypeDeduction,
		Amount: -2,
		Action: "social_post_multi",
	})
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("err = %v, want ErrInsufficientCredits", err)
	}

	// No ledger row and no balance write may happen on the failure path.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestApplyRefundRoundTrip(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	originalID := int64(42)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT credits FROM users").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"credits"}).AddRow(8))
	mock.ExpectQuery("INSERT INTO credit_transactions").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(43), time.Now()))
	mock.ExpectExec("UPDATE users SET credits").
		WithArgs(10, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	r := NewCreditRepository(db)
	entry, err := r.Apply(context.Background(), &models.CreditTransaction{
		UserID:                7,
		Type:                  models.CreditTypeRefund,
		Amount:                2,
		Action:                "publish failed",
		OriginalTransactionID: &originalID,
	})
	if err != nil {
		t.Fatal(err)
	}

	if entry.BalanceAfter != entry.BalanceBefore+entry.Amount {
		t.Errorf("balance_after = %d, want balance_before %d + amount %d",
			entry.BalanceAfter, entry.BalanceBefore, entry.Amount)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
