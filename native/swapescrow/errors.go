package swapescrow

import "errors"

var (
	// ErrInvalidRecord is returned when the referenced swap record has a zero
	// amount, i.e. does not exist.
	ErrInvalidRecord = errors.New("swapescrow: invalid record")
	// ErrRecordExists rejects creating a record over a live nonzero one. The
	// id becomes reusable once the record has been zeroed.
	ErrRecordExists = errors.New("swapescrow: record already exists")
	// ErrUnauthorizedUser is returned when the caller fails an admin check or
	// does not match a record's restricted-caller binding.
	ErrUnauthorizedUser = errors.New("swapescrow: unauthorized user")
)
