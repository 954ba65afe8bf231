package voucher

import "net/http"

type ErrorCode string

const (
	ErrVoucherNotFound           ErrorCode = "VOUCHER_NOT_FOUND"
	ErrVoucherCodeRequired       ErrorCode = "VOUCHER_CODE_REQUIRED"
	ErrVoucherInactive           ErrorCode = "VOUCHER_INACTIVE"
	ErrVoucherNotActiveYet       ErrorCode = "VOUCHER_NOT_ACTIVE_YET"
	ErrVoucherExpired            ErrorCode = "VOUCHER_EXPIRED"
	ErrVoucherMinOrderNotMet     ErrorCode = "VOUCHER_MIN_ORDER_NOT_MET"
	ErrVoucherUsageLimitReached  ErrorCode = "VOUCHER_USAGE_LIMIT_REACHED"
	ErrVoucherCustomerLimit      ErrorCode = "VOUCHER_CUSTOMER_LIMIT_REACHED"
	ErrVoucherNotApplicableItems ErrorCode = "VOUCHER_NOT_APPLICABLE_ITEMS"
	ErrVoucherDiscountZero       ErrorCode = "VOUCHER_DISCOUNT_ZERO"
)

type Error struct {
	Code       ErrorCode
	Message    string
	StatusCode int
	Details    map[string]any
}

func (e *Error) Error() string {
	return e.Message
}

func newError(code ErrorCode, message string, status int, details map[string]any) *Error {
	return &Error{Code: code, Message: message, StatusCode: status, Details: details}
}

func ValidationError(code ErrorCode, message string, details map[string]any) *Error {
	return newError(code, message, http.StatusBadRequest, details)
}

func NotFoundError(message string) *Error {
	return newError(ErrVoucherNotFound, message, http.StatusNotFound, nil)
}
