package catalog

import "errors"

var (
	// ErrNotFound is returned when a book id does not exist in the catalog.
	ErrNotFound = errors.New("book not found")

	// ErrInvalidState is returned when a transition is not allowed from the
	// book's current status, e.g. borrowing a borrowed book.
	ErrInvalidState = errors.New("invalid book state")

	// ErrInvalidInput wraps validation failures of add, edit and borrow forms.
	ErrInvalidInput = errors.New("invalid input")
)
