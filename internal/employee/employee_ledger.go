package employee

import (
	"context"
	"errors"

	employeeerrors "go-leave/internal/employee/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ledger is the only writer of employee balances.
//
//go:generate mockgen -source=employee_ledger.go -destination=mock/employee_ledger_mock.go -package=mock
type Ledger interface {
	WithTx(tx *gorm.DB) Ledger
	Balances(ctx context.Context, employeeID uuid.UUID) (Balances, error)
	// Debit takes days from c and returns what is left of c. It fails with
	// ErrInsufficientBalance, leaving the balance untouched, when c holds
	// fewer than days.
	Debit(ctx context.Context, employeeID uuid.UUID, c Category, days int) (int, error)
}

type ledger struct {
	repo Repository
}

func NewLedger(repo Repository) Ledger {
	return &ledger{repo: repo}
}

func (l *ledger) WithTx(tx *gorm.DB) Ledger {
	return &ledger{repo: l.repo.WithTx(tx)}
}

func (l *ledger) Balances(ctx context.Context, employeeID uuid.UUID) (Balances, error) {
	e, err := l.repo.FindByID(ctx, employeeID)
	if err != nil {
		return Balances{}, mapRepositoryError(err)
	}
	return e.Balances, nil
}

func (l *ledger) Debit(ctx context.Context, employeeID uuid.UUID, c Category, days int) (int, error) {
	if c.Column() == "" {
		return 0, employeeerrors.ErrInvalidCategory
	}
	if days <= 0 {
		return 0, employeeerrors.ErrInvalidDebit
	}

	b, err := l.repo.DebitBalance(ctx, employeeID, c, days)
	if err != nil {
		if errors.Is(err, employeeerrors.ErrInsufficientBalance) {
			return b.Of(c), err
		}
		return 0, mapRepositoryError(err)
	}
	return b.Of(c), nil
}
