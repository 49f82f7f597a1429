package ledger

import "errors"

var (
	// ErrTokenNotSupported is returned when an operation references a token
	// absent from the supported-asset set.
	ErrTokenNotSupported = errors.New("ledger: token not supported")
	// ErrInsufficientBalance is returned when a decrement exceeds the relevant
	// balance bucket. Balances are left untouched.
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	// ErrAssetTransferFailed wraps a failure of the underlying asset transfer
	// provider. The enclosing operation is undone.
	ErrAssetTransferFailed = errors.New("ledger: asset transfer failed")
	// ErrNotZeroAddress is returned when a required address argument is zero.
	ErrNotZeroAddress = errors.New("ledger: zero address not allowed")
	// ErrTokensLocked is returned when a locked account attempts a direct
	// withdrawal. Custody operations (hold, release, transfers) bypass the
	// lock.
	ErrTokensLocked = errors.New("ledger: tokens locked")
	// ErrAlreadyUnlocked is returned when extending or unlocking an account
	// that is not actively locked.
	ErrAlreadyUnlocked = errors.New("ledger: account not locked")
	// ErrLockDurationOutOfRange rejects lock durations beyond the maximum or
	// extensions that would shorten the lock.
	ErrLockDurationOutOfRange = errors.New("ledger: lock duration out of range")
	// ErrCallerNotDelegate is returned when a lock operation reserved for the
	// registered delegate is invoked by anyone else.
	ErrCallerNotDelegate = errors.New("ledger: caller is not the delegate")
	// ErrFeeExceedsAmount rejects holds whose fee is not strictly below the
	// held amount.
	ErrFeeExceedsAmount = errors.New("ledger: fee exceeds amount")
	// ErrAmountMustBePositive rejects zero or negative amounts.
	ErrAmountMustBePositive = errors.New("ledger: amount must be positive")
	// ErrBalanceOverflow rejects additions that would exceed 256 bits.
	ErrBalanceOverflow = errors.New("ledger: balance overflow")
	// ErrUnauthorizedCaller is returned when a capability check against the
	// injected policy fails.
	ErrUnauthorizedCaller = errors.New("ledger: unauthorized caller")
)
