package employee

import (
	"errors"

	employeeerrors "go-leave/internal/employee/errors"
	"go-leave/internal/shared/database"

	"gorm.io/gorm"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return employeeerrors.ErrEmployeeNotFound
	}
	if database.IsUniqueViolation(err, "uq_employees_email") {
		return employeeerrors.ErrEmployeeAlreadyExists
	}
	if database.IsCheckViolation(err) {
		return employeeerrors.ErrInsufficientBalance
	}

	return err
}

// MapRepositoryError exposes the mapping to packages that write employees
// through their own transaction.
func MapRepositoryError(err error) error {
	return mapRepositoryError(err)
}
