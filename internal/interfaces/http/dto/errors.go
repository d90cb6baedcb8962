package dto

import "net/http"

// Transport error codes. Domain errors keep their own codes.
const (
	ErrCodeUnknown             = "ERR_UNKNOWN"
	ErrCodeInternal            = "ERR_INTERNAL"
	ErrCodeValidation          = "ERR_VALIDATION"
	ErrCodeUnauthorized        = "ERR_UNAUTHORIZED"
	ErrCodeForbidden           = "ERR_FORBIDDEN"
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeInvalidState        = "ERR_INVALID_STATE"
	ErrCodeBadRequest          = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput        = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON         = "ERR_INVALID_JSON"
	ErrCodeRateLimited         = "ERR_RATE_LIMITED"
	ErrCodeUnavailable         = "ERR_UNAVAILABLE"
)

// Order and ledger error codes surfaced to clients unchanged
const (
	CodeInvalidAmount          = "INVALID_AMOUNT"
	CodeEmptyItemList          = "EMPTY_ITEM_LIST"
	CodeInvalidQuantity        = "INVALID_QUANTITY"
	CodeInvalidCustomer        = "INVALID_CUSTOMER"
	CodeInvalidPaymentMethod   = "INVALID_PAYMENT_METHOD"
	CodeInvalidProduct         = "INVALID_PRODUCT"
	CodeOrderNotFound          = "ORDER_NOT_FOUND"
	CodeOrderTerminal          = "ORDER_TERMINAL"
	CodeAmountExceedsBalance   = "AMOUNT_EXCEEDS_BALANCE"
	CodeInvalidTransition      = "INVALID_STATE_TRANSITION"
	CodeStateDiverged          = "ORDER_STATE_DIVERGED"
	CodeTransactionNotFound    = "TRANSACTION_NOT_FOUND"
	CodeAlreadyRefunded        = "TRANSACTION_ALREADY_REFUNDED"
	CodeRefundNotRefundable    = "REFUND_NOT_REFUNDABLE"
	CodeTransactionVoided      = "TRANSACTION_VOIDED"
	CodeAlreadyVoided          = "TRANSACTION_ALREADY_VOIDED"
	CodeNotVoidable            = "TRANSACTION_NOT_VOIDABLE"
	CodeInvalidTransactionType = "INVALID_TRANSACTION_TYPE"
	CodeInvalidTransaction     = "INVALID_TRANSACTION"
	CodeIdentifierCollision    = "IDENTIFIER_COLLISION"
	CodeInvalidNamespace       = "INVALID_NAMESPACE"
	CodeStockUnavailable       = "STOCK_UNAVAILABLE"
	CodeEmptyReservation       = "EMPTY_RESERVATION"
	CodeAuditRecordFailed      = "AUDIT_RECORD_FAILED"
	CodeInvalidTaxRate         = "INVALID_TAX_RATE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:             http.StatusInternalServerError,
	ErrCodeInternal:            http.StatusInternalServerError,
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeUnauthorized:        http.StatusUnauthorized,
	ErrCodeForbidden:           http.StatusForbidden,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeInvalidInput:        http.StatusBadRequest,
	ErrCodeInvalidJSON:         http.StatusBadRequest,
	ErrCodeRateLimited:         http.StatusTooManyRequests,
	ErrCodeUnavailable:         http.StatusServiceUnavailable,

	// Validation -> 400
	CodeInvalidAmount:          http.StatusBadRequest,
	CodeEmptyItemList:          http.StatusBadRequest,
	CodeInvalidQuantity:        http.StatusBadRequest,
	CodeInvalidCustomer:        http.StatusBadRequest,
	CodeInvalidPaymentMethod:   http.StatusBadRequest,
	CodeInvalidProduct:         http.StatusBadRequest,
	CodeInvalidTransactionType: http.StatusBadRequest,
	CodeInvalidTransaction:     http.StatusBadRequest,
	CodeInvalidNamespace:       http.StatusBadRequest,
	CodeEmptyReservation:       http.StatusBadRequest,
	CodeInvalidTaxRate:         http.StatusBadRequest,

	CodeOrderNotFound:       http.StatusNotFound,
	CodeTransactionNotFound: http.StatusNotFound,

	CodeOrderTerminal:    http.StatusConflict,
	CodeAlreadyRefunded:  http.StatusConflict,
	CodeAlreadyVoided:    http.StatusConflict,
	CodeStockUnavailable: http.StatusConflict,

	// Business rules -> 422
	CodeAmountExceedsBalance: http.StatusUnprocessableEntity,
	CodeRefundNotRefundable:  http.StatusUnprocessableEntity,
	CodeTransactionVoided:    http.StatusUnprocessableEntity,
	CodeNotVoidable:          http.StatusUnprocessableEntity,
	CodeInvalidTransition:    http.StatusUnprocessableEntity,

	CodeIdentifierCollision: http.StatusServiceUnavailable,
	CodeAuditRecordFailed:   http.StatusInternalServerError,
	CodeStateDiverged:       http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// sharedErrorCodeMapping maps the generic domain codes to transport codes
var sharedErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,
}

// NormalizeErrorCode converts a generic domain code to its transport form.
// Order and ledger codes are returned as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := sharedErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
