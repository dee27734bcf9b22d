package dashboard

import (
	"context"

	"go-leave/internal/employee"
	"go-leave/internal/leave"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StatusCount struct {
	Status string
	Total  int64
}

type CategoryDays struct {
	Category string
	Days     int64
}

// Repository aggregates leave data. A nil employeeID aggregates across
// every employee.
type Repository interface {
	CountByStatus(ctx context.Context, employeeID *uuid.UUID) ([]StatusCount, error)
	ApprovedDaysByCategory(ctx context.Context, employeeID *uuid.UUID) ([]CategoryDays, error)
	CountEmployees(ctx context.Context) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) leaves(ctx context.Context, employeeID *uuid.UUID) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&leave.LeaveRequest{})
	if employeeID != nil {
		q = q.Where("employee_id = ?", *employeeID)
	}
	return q
}

func (r *repository) CountByStatus(ctx context.Context, employeeID *uuid.UUID) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.leaves(ctx, employeeID).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) ApprovedDaysByCategory(ctx context.Context, employeeID *uuid.UUID) ([]CategoryDays, error) {
	var rows []CategoryDays
	err := r.leaves(ctx, employeeID).
		Select("category, COALESCE(SUM(total_days), 0) AS days").
		Where("status = ?", leave.StatusApproved).
		Group("category").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) CountEmployees(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&employee.Employee{}).Count(&n).Error
	return n, err
}
