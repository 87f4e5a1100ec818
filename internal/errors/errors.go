package errors

import (
	stderrors "errors"
	"fmt"
)

// Codes carried by ValidationDetail so callers can map a failure to a
// user-facing message without parsing text.
const (
	CodeInvalidQuantity        = "INVALID_QUANTITY"
	CodeInsufficientStock      = "INSUFFICIENT_STOCK"
	CodeUnknownProduct         = "UNKNOWN_PRODUCT"
	CodeProductInactive        = "PRODUCT_INACTIVE"
	CodeCustomerRequired       = "CUSTOMER_REQUIRED"
	CodeCustomerNotFound       = "CUSTOMER_NOT_FOUND"
	CodeCreditRequiresCustomer = "CREDIT_REQUIRES_CUSTOMER"
	CodeCreditNotEnabled       = "CREDIT_NOT_ENABLED"
	CodeCreditLimitExceeded    = "CREDIT_LIMIT_EXCEEDED"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeDuplicateSku           = "DUPLICATE_SKU"
	CodeDuplicateBarcode       = "DUPLICATE_BARCODE"
	CodeInvalidField           = "INVALID_FIELD"
	CodeCreditAccountBusy      = "CREDIT_ACCOUNT_BUSY"
)

type ValidationDetail struct {
	Field   string `json:"field"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

// HasCode reports whether any detail carries the given code.
func (e *ValidationError) HasCode(code string) bool {
	for _, d := range e.Details {
		if d.Code == code {
			return true
		}
	}
	return false
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

// NewBusinessError builds a single-detail validation error for the
// operations that fail on the first business rule they hit.
func NewBusinessError(code, field, message string) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: []ValidationDetail{{Field: field, Code: code, Message: message}},
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if stderrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func IsNotFoundError(err error) (*NotFoundError, bool) {
	var nf *NotFoundError
	if stderrors.As(err, &nf) {
		return nf, true
	}
	return nil, false
}

type ConflictError struct {
	Code    string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflictError(code, message string) *ConflictError {
	return &ConflictError{Code: code, Message: message}
}

func IsConflictError(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if stderrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

func NewForbiddenError(message string) *ForbiddenError {
	return &ForbiddenError{Message: message}
}

func IsForbiddenError(err error) (*ForbiddenError, bool) {
	var fe *ForbiddenError
	if stderrors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

type DeadlockError struct {
	Message string
}

func (e *DeadlockError) Error() string {
	return e.Message
}

func NewDeadlockError(message string) *DeadlockError {
	return &DeadlockError{Message: message}
}

func IsDeadlockError(err error) (*DeadlockError, bool) {
	var de *DeadlockError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		Message: message,
		Cause:   cause,
	}
}
