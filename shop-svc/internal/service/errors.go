package service

import "errors"

var (
	ErrInvalidShopName    = errors.New("shop name is required")
	ErrInvalidItem        = errors.New("menu item needs a name and a non-negative price")
	ErrNoTables           = errors.New("at least one table number is required")
	ErrEmptyCart          = errors.New("cart has no orderable items")
	ErrMissingIdentifiers = errors.New("shop id and table number are required")
	ErrInvalidReservation = errors.New("reservation needs a phone, a table number and an HH:MM time")
	ErrLinkExpired        = errors.New("table link is invalid or has expired")

	ErrShopNotFound        = errors.New("shop not found")
	ErrMenuNotFound        = errors.New("menu not found")
	ErrItemNotFound        = errors.New("menu item not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrReservationNotFound = errors.New("reservation not found")
)
