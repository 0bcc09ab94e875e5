package service

import (
	"net/http"
)

// Error is a domain error with a stable code and the HTTP status it maps to.
// Handlers surface Code/Message inside the response envelope.
type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string {
	return e.Message
}

// Not-found errors (404)
var (
	ErrPetNotFound     = &Error{Code: "PET_NOT_FOUND", Message: "pet not found", Status: http.StatusNotFound}
	ErrTagNotFound     = &Error{Code: "TAG_NOT_FOUND", Message: "tag not found", Status: http.StatusNotFound}
	ErrOrderNotFound   = &Error{Code: "ORDER_NOT_FOUND", Message: "order not found", Status: http.StatusNotFound}
	ErrProductNotFound = &Error{Code: "PRODUCT_NOT_FOUND", Message: "product not found", Status: http.StatusNotFound}
)

// Conflict / precondition errors (400)
var (
	ErrTagExists           = &Error{Code: "TAG_EXISTS", Message: "pet already has an active or pending tag", Status: http.StatusBadRequest}
	ErrTagAlreadyAssigned  = &Error{Code: "TAG_ALREADY_ASSIGNED", Message: "tag is already assigned to a pet", Status: http.StatusBadRequest}
	ErrTagAlreadyInactive  = &Error{Code: "TAG_ALREADY_INACTIVE", Message: "tag is already inactive", Status: http.StatusBadRequest}
	ErrTagNotAssigned      = &Error{Code: "TAG_NOT_ASSIGNED", Message: "tag is not assigned to a pet", Status: http.StatusBadRequest}
	ErrTagNotActivated     = &Error{Code: "TAG_NOT_ACTIVATED", Message: "tag has no QR code assigned yet", Status: http.StatusBadRequest}
	ErrPetHasTag           = &Error{Code: "PET_HAS_TAG", Message: "pet already holds another tag", Status: http.StatusBadRequest}
	ErrPetNotInactive      = &Error{Code: "PET_NOT_INACTIVE", Message: "pet must be inactive before assignment", Status: http.StatusBadRequest}
	ErrOrderNotCancellable = &Error{Code: "ORDER_NOT_CANCELLABLE", Message: "order can no longer be cancelled", Status: http.StatusBadRequest}
	ErrInvalidStatus       = &Error{Code: "INVALID_STATUS", Message: "invalid order status transition", Status: http.StatusBadRequest}
	ErrOutOfStock          = &Error{Code: "OUT_OF_STOCK", Message: "insufficient product stock", Status: http.StatusBadRequest}
	ErrEmptyOrder          = &Error{Code: "EMPTY_ORDER", Message: "order must contain at least one item", Status: http.StatusBadRequest}
)

// Capacity error (503): exhausted QR inventory is a system condition,
// not a client mistake.
var ErrNoQRCodeAvailable = &Error{Code: "NO_QRCODE_AVAILABLE", Message: "no QR codes available in inventory", Status: http.StatusServiceUnavailable}

// Upstream-dependency error (402)
var ErrPaymentDeclined = &Error{Code: "PAYMENT_DECLINED", Message: "payment was declined", Status: http.StatusPaymentRequired}
