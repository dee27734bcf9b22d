package leaveerrors

import (
	"net/http"

	employeeerrors "go-leave/internal/employee/errors"
	"go-leave/internal/shared/apperror"
)

var (
	ErrInvalidCategory = apperror.New(
		apperror.CodeInvalidInput,
		"category must be one of annual, sick, casual",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must be before or equal end_date",
		http.StatusBadRequest,
	)
	ErrReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"reason is required",
		http.StatusBadRequest,
	)
	ErrInvalidLeaveID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave id",
		http.StatusBadRequest,
	)
	ErrInvalidDecision = apperror.New(
		apperror.CodeInvalidInput,
		"decision must be approve or reject",
		http.StatusBadRequest,
	)
	// ErrInsufficientBalance is the ledger's own error, so callers can
	// match it from either package.
	ErrInsufficientBalance = employeeerrors.ErrInsufficientBalance
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave not found",
		http.StatusNotFound,
	)
	ErrForbidden = apperror.New(
		apperror.CodeForbidden,
		"You are not allowed to perform this action on the leave",
		http.StatusForbidden,
	)
	ErrAlreadyFinalized = apperror.New(
		apperror.CodeInvalidState,
		"leave has already been finalized",
		http.StatusConflict,
	)
	ErrConcurrencyConflict = apperror.New(
		apperror.CodeConflict,
		"leave balance is being updated, please retry",
		http.StatusConflict,
	)
)
