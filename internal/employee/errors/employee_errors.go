package employeeerrors

import (
	"net/http"

	"go-leave/internal/shared/apperror"
)

var (
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"Employee not found",
		http.StatusNotFound,
	)
	ErrEmployeeAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"Employee with the same email already exists",
		http.StatusConflict,
	)
	ErrInvalidCategory = apperror.New(
		apperror.CodeInvalidInput,
		"leave category must be one of annual, sick, casual",
		http.StatusBadRequest,
	)
	ErrInvalidDebit = apperror.New(
		apperror.CodeInvalidInput,
		"debit must be a positive number of days",
		http.StatusBadRequest,
	)
	ErrInsufficientBalance = apperror.New(
		apperror.CodeInsufficientBalance,
		"Not enough leave balance",
		http.StatusBadRequest,
	)
)
