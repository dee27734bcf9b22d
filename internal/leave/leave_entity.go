package leave

import (
	"time"

	"go-leave/internal/employee"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

func (d Decision) Status() Status {
	if d == DecisionApprove {
		return StatusApproved
	}
	return StatusRejected
}

type LeaveRequest struct {
	ID         uuid.UUID          `gorm:"type:uuid;primaryKey"`
	EmployeeID uuid.UUID          `gorm:"type:uuid;not null;index:idx_leave_requests_employee_created"`
	Employee   *employee.Employee `gorm:"foreignKey:EmployeeID;constraint:OnDelete:RESTRICT"`

	Category  employee.Category `gorm:"type:varchar(20);not null"`
	StartDate time.Time         `gorm:"type:date;not null"`
	EndDate   time.Time         `gorm:"type:date;not null;check:chk_leave_requests_date_range,end_date >= start_date"`
	TotalDays int               `gorm:"type:int;not null;check:chk_leave_requests_total_days,total_days > 0"`
	Reason    string            `gorm:"type:text;not null"`

	Status       Status     `gorm:"type:varchar(20);not null;default:'pending';index:idx_leave_requests_status_created"`
	DecisionNote *string    `gorm:"type:text"`
	DecidedBy    *uuid.UUID `gorm:"type:uuid"`
	DecidedAt    *time.Time

	CreatedAt time.Time `gorm:"index:idx_leave_requests_employee_created;index:idx_leave_requests_status_created"`
	UpdatedAt time.Time
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}
