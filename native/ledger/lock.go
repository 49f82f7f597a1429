package ledger

import (
	"custodia/core/events"
)

// Lock places a self-service time lock on the calling account, naming the
// delegate allowed to move funds while the lock is in force. Relocking is
// only possible once any previous lock has expired.
func (e *Engine) Lock(account, delegate [20]byte, durationSeconds uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if delegate == ([20]byte{}) {
		return ErrNotZeroAddress
	}
	if durationSeconds == 0 || durationSeconds > maxLockDuration {
		return ErrLockDurationOutOfRange
	}
	now := e.now()
	record, ok, err := e.state.LockGet(account)
	if err != nil {
		return err
	}
	if ok && record.Active(now) {
		return ErrTokensLocked
	}
	next := &LockRecord{UnlockTime: now + durationSeconds, Delegate: delegate}
	if next.UnlockTime < now {
		return ErrLockDurationOutOfRange
	}
	if err := e.state.LockPut(account, next); err != nil {
		return err
	}
	e.emit(events.LedgerAccountLocked{Account: account, Delegate: delegate, UnlockTime: next.UnlockTime})
	return nil
}

// ExtendLock pushes an active lock's unlock time further out. The new unlock
// time must not shorten the lock.
func (e *Engine) ExtendLock(account [20]byte, durationSeconds uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if durationSeconds == 0 || durationSeconds > maxLockDuration {
		return ErrLockDurationOutOfRange
	}
	now := e.now()
	record, ok, err := e.state.LockGet(account)
	if err != nil {
		return err
	}
	if !ok || !record.Active(now) {
		return ErrAlreadyUnlocked
	}
	next := now + durationSeconds
	if next < record.UnlockTime {
		return ErrLockDurationOutOfRange
	}
	record.UnlockTime = next
	if err := e.state.LockPut(account, record); err != nil {
		return err
	}
	e.emit(events.LedgerLockExtended{Account: account, UnlockTime: next})
	return nil
}

// Unlock clears an active lock. Only the registered delegate may call it. The
// unlock time is set to the sentinel value rather than zero so an explicitly
// unlocked account stays distinguishable from one that was never locked.
func (e *Engine) Unlock(caller, account [20]byte) error {
	if err := e.ready(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	record, ok, err := e.state.LockGet(account)
	if err != nil {
		return err
	}
	if !ok || !record.Active(e.now()) {
		return ErrAlreadyUnlocked
	}
	if caller != record.Delegate {
		return ErrCallerNotDelegate
	}
	record.UnlockTime = unlockedSentinel
	if err := e.state.LockPut(account, record); err != nil {
		return err
	}
	e.emit(events.LedgerAccountUnlocked{Account: account, Delegate: record.Delegate})
	return nil
}

// LockActive reports whether the account is actively locked at the engine's
// current time. Sentinel and expired records read as unlocked.
func (e *Engine) LockActive(account [20]byte) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	record, ok, err := e.state.LockGet(account)
	if err != nil {
		return false, err
	}
	return ok && record.Active(e.now()), nil
}

// LockInfo reports the lock record for an account, if any.
func (e *Engine) LockInfo(account [20]byte) (*LockRecord, bool, error) {
	if err := e.ready(); err != nil {
		return nil, false, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	record, ok, err := e.state.LockGet(account)
	if err != nil || !ok {
		return nil, false, err
	}
	clone := *record
	return &clone, true, nil
}
