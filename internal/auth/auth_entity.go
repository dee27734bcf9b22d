package auth

import (
	"time"

	"go-leave/internal/employee"

	"github.com/google/uuid"
)

// User holds login credentials for exactly one employee.
type User struct {
	ID         uuid.UUID          `gorm:"type:uuid;primaryKey"`
	EmployeeID uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:uq_users_employee"`
	Employee   *employee.Employee `gorm:"foreignKey:EmployeeID;constraint:OnDelete:RESTRICT"`
	Email      string             `gorm:"type:varchar(255);not null;uniqueIndex:uq_users_email"`
	Password   string             `gorm:"type:varchar(255);not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
