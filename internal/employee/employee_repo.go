package employee

import (
	"context"
	"fmt"

	employeeerrors "go-leave/internal/employee/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, e *Employee) error
	FindByID(ctx context.Context, id uuid.UUID) (*Employee, error)
	DebitBalance(ctx context.Context, id uuid.UUID, c Category, days int) (Balances, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, e *Employee) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*Employee, error) {
	var e Employee
	err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// DebitBalance subtracts days from c only while the balance covers them.
// The check and the write are one statement, so two concurrent debits
// can never both pass against the same pre-debit value.
func (r *repository) DebitBalance(ctx context.Context, id uuid.UUID, c Category, days int) (Balances, error) {
	col := c.Column()
	if col == "" {
		return Balances{}, fmt.Errorf("debit balance: unknown category %q", c)
	}

	res := r.db.WithContext(ctx).
		Model(&Employee{}).
		Where("id = ?", id).
		Where(col+" >= ?", days).
		Update(col, gorm.Expr(col+" - ?", days))
	if res.Error != nil {
		return Balances{}, res.Error
	}

	e, err := r.FindByID(ctx, id)
	if err != nil {
		return Balances{}, err
	}
	if res.RowsAffected == 0 {
		return e.Balances, employeeerrors.ErrInsufficientBalance
	}
	return e.Balances, nil
}
