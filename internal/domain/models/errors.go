package models

import (
	"errors"
	"fmt"
)

// ErrRecordNotFound is returned by stores when a lookup matches no document.
var ErrRecordNotFound = errors.New("record not found")

// ErrDuplicateKey is returned by stores when a unique key is already taken.
var ErrDuplicateKey = errors.New("duplicate key")

// ErrorKind classifies domain failures so the HTTP layer can map them.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindReference  ErrorKind = "reference"
	KindNotFound   ErrorKind = "not_found"
)

// Error codes surfaced in the response envelope.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeInvalidCost         = "INVALID_COST"
	CodeInvalidSellingPrice = "INVALID_SELLING_PRICE"
	CodeInvalidValidUntil   = "INVALID_VALID_UNTIL"
	CodeInvalidDays         = "INVALID_DAYS"
	CodeInvalidID           = "INVALID_ID"
	CodeProductNotFound     = "PRODUCT_NOT_FOUND"
	CodeCostInfoNotFound    = "COST_INFO_NOT_FOUND"
	CodeCostProductMismatch = "COST_PRODUCT_MISMATCH"
	CodeCostNotFound        = "COST_NOT_FOUND"
	CodeQuotationNotFound   = "QUOTATION_NOT_FOUND"
	CodeDuplicateProduct    = "DUPLICATE_PRODUCT_CODE"
	CodeInvalidPricing      = "INVALID_PRICING"
)

// Error is a typed domain failure carrying a stable code.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports malformed or out-of-range input.
func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

// Reference reports a dangling or inactive cross-document reference.
func Reference(code, message string) *Error {
	return &Error{Kind: KindReference, Code: code, Message: message}
}

// NotFound reports that the addressed record does not exist.
func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

// AsError extracts a domain error from err, if any.
func AsError(err error) (*Error, bool) {
	var derr *Error
	if errors.As(err, &derr) {
		return derr, true
	}
	return nil, false
}
