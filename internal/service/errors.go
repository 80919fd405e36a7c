package service

import "errors"

// Kind sentinels. Every *Error matches exactly one of them with errors.Is;
// anything else reaching the boundary is an infrastructure failure.
var (
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
)

// Error is a classified, client-safe failure.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Is(target error) bool { return target == e.Kind }

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func validationError(msg string) error { return newError(ErrValidation, msg) }

func conflictError(msg string) error { return newError(ErrConflict, msg) }

var (
	ErrInvalidToken       = newError(ErrUnauthenticated, "invalid token")
	ErrTokenExpired       = newError(ErrUnauthenticated, "session expired, please login again")
	ErrUserGone           = newError(ErrUnauthenticated, "user no longer exists")
	ErrAccountBlocked     = newError(ErrUnauthenticated, "account is blocked")
	ErrInvalidCredentials = newError(ErrUnauthenticated, "invalid credentials")

	ErrAdminRequired = newError(ErrForbidden, "admin access required")
	ErrNotOrderOwner = newError(ErrForbidden, "not authorized to access this order")
	ErrBlockSelf     = newError(ErrForbidden, "admins cannot block themselves")

	ErrUserAlreadyExists = newError(ErrConflict, "user already exists")
	ErrEmailTaken        = newError(ErrConflict, "email already in use")
	ErrSlugTaken         = newError(ErrConflict, "a product with this name already exists")

	ErrShipCancelled       = newError(ErrConflict, "cancelled order cannot be shipped")
	ErrAlreadyShipped      = newError(ErrConflict, "order already shipped")
	ErrDeliverCancelled    = newError(ErrConflict, "cancelled order cannot be delivered")
	ErrNotShipped          = newError(ErrConflict, "order must be shipped first")
	ErrAlreadyDelivered    = newError(ErrConflict, "order already delivered")
	ErrCancelDelivered     = newError(ErrConflict, "delivered order cannot be cancelled")
	ErrAlreadyCancelled    = newError(ErrConflict, "order already cancelled")
	ErrConcurrentOrderEdit = newError(ErrConflict, "order was modified concurrently")
	ErrConcurrentBookEdit  = newError(ErrConflict, "address book was modified concurrently")

	ErrProductNotFound  = newError(ErrNotFound, "product not found")
	ErrOrderNotFound    = newError(ErrNotFound, "order not found")
	ErrUserNotFound     = newError(ErrNotFound, "user not found")
	ErrAddressNotFound  = newError(ErrNotFound, "address not found")
	ErrCartItemNotFound = newError(ErrNotFound, "cart item not found")

	ErrEmptyOrder       = newError(ErrValidation, "no order items")
	ErrInvalidProductID = newError(ErrValidation, "invalid product ID in cart")
	ErrInvalidID        = newError(ErrValidation, "invalid ID")
	ErrInvalidCategory  = newError(ErrValidation, "invalid category")
	ErrInvalidPhone     = newError(ErrValidation, "invalid phone number")
	ErrInvalidPincode   = newError(ErrValidation, "invalid pincode")
	ErrInvalidQuantity  = newError(ErrValidation, "quantity must be at least 1")
	ErrInvalidPayment   = newError(ErrValidation, "invalid payment method")
)

func outOfStock(name string) error {
	return conflictError(name + " is out of stock")
}
