package ledger

import (
	"errors"
	"math/big"
	"testing"
)

func TestLockBlocksWithdrawUntilExpiry(t *testing.T) {
	env := newTestEnv()
	account := newTestAddress(0x20)
	delegate := newTestAddress(0x21)
	if _, err := env.engine.Deposit(NativeAsset, account, big.NewInt(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	env.provider.CreditCustody(NativeAsset, big.NewInt(100))

	if err := env.engine.Lock(account, delegate, 3600); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if err := env.engine.Withdraw(NativeAsset, account, big.NewInt(10)); !errors.Is(err, ErrTokensLocked) {
		t.Fatalf("expected locked error, got %v", err)
	}

	// The delegate can still drain the account while the lock is active.
	if err := env.engine.WithdrawAsDelegate(delegate, NativeAsset, account, big.NewInt(10)); err != nil {
		t.Fatalf("delegate withdraw: %v", err)
	}
	if err := env.engine.WithdrawAsDelegate(newTestAddress(0x22), NativeAsset, account, big.NewInt(10)); !errors.Is(err, ErrCallerNotDelegate) {
		t.Fatalf("expected delegate check, got %v", err)
	}

	// Past the unlock time the owner withdraws freely again.
	env.engine.SetNowFunc(func() int64 { return 1_700_000_000 + 3601 })
	if err := env.engine.Withdraw(NativeAsset, account, big.NewInt(10)); err != nil {
		t.Fatalf("withdraw after expiry: %v", err)
	}
}

func TestLockValidations(t *testing.T) {
	env := newTestEnv()
	account := newTestAddress(0x23)
	delegate := newTestAddress(0x24)

	if err := env.engine.Lock(account, [20]byte{}, 3600); !errors.Is(err, ErrNotZeroAddress) {
		t.Fatalf("expected zero address rejection, got %v", err)
	}
	if err := env.engine.Lock(account, delegate, 0); !errors.Is(err, ErrLockDurationOutOfRange) {
		t.Fatalf("expected duration rejection for zero, got %v", err)
	}
	if err := env.engine.Lock(account, delegate, maxLockDuration+1); !errors.Is(err, ErrLockDurationOutOfRange) {
		t.Fatalf("expected duration rejection for excess, got %v", err)
	}

	if err := env.engine.Lock(account, delegate, 3600); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if err := env.engine.Lock(account, delegate, 3600); !errors.Is(err, ErrTokensLocked) {
		t.Fatalf("expected relock rejection while active, got %v", err)
	}
}

func TestRelockAfterExpiry(t *testing.T) {
	env := newTestEnv()
	account := newTestAddress(0x25)
	delegate := newTestAddress(0x26)
	if err := env.engine.Lock(account, delegate, 60); err != nil {
		t.Fatalf("lock: %v", err)
	}
	env.engine.SetNowFunc(func() int64 { return 1_700_000_000 + 61 })
	if err := env.engine.Lock(account, delegate, 60); err != nil {
		t.Fatalf("relock after expiry: %v", err)
	}
	record, ok, err := env.engine.LockInfo(account)
	if err != nil || !ok {
		t.Fatalf("lock info: ok=%v err=%v", ok, err)
	}
	if record.UnlockTime != 1_700_000_061+60 {
		t.Fatalf("unexpected unlock time %d", record.UnlockTime)
	}
}

func TestExtendLock(t *testing.T) {
	env := newTestEnv()
	account := newTestAddress(0x27)
	delegate := newTestAddress(0x28)
	if err := env.engine.Lock(account, delegate, 3600); err != nil {
		t.Fatalf("lock: %v", err)
	}

	// Extension is measured from now, so a shorter horizon is rejected.
	if err := env.engine.ExtendLock(account, 60); !errors.Is(err, ErrLockDurationOutOfRange) {
		t.Fatalf("expected shortening rejection, got %v", err)
	}
	if err := env.engine.ExtendLock(account, 7200); err != nil {
		t.Fatalf("extend: %v", err)
	}
	record, ok, err := env.engine.LockInfo(account)
	if err != nil || !ok {
		t.Fatalf("lock info: ok=%v err=%v", ok, err)
	}
	if record.UnlockTime != 1_700_000_000+7200 {
		t.Fatalf("unexpected unlock time %d", record.UnlockTime)
	}

	other := newTestAddress(0x29)
	if err := env.engine.ExtendLock(other, 600); !errors.Is(err, ErrAlreadyUnlocked) {
		t.Fatalf("expected no-lock rejection, got %v", err)
	}
}

func TestLockActiveFollowsEngineClock(t *testing.T) {
	env := newTestEnv()
	account := newTestAddress(0x2C)
	delegate := newTestAddress(0x2D)

	if active, err := env.engine.LockActive(account); err != nil || active {
		t.Fatalf("never-locked account: active=%v err=%v", active, err)
	}
	if err := env.engine.Lock(account, delegate, 3600); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if active, err := env.engine.LockActive(account); err != nil || !active {
		t.Fatalf("locked account: active=%v err=%v", active, err)
	}
	env.engine.SetNowFunc(func() int64 { return 1_700_000_000 + 3601 })
	if active, err := env.engine.LockActive(account); err != nil || active {
		t.Fatalf("expired lock: active=%v err=%v", active, err)
	}
}

func TestUnlockByDelegate(t *testing.T) {
	env := newTestEnv()
	account := newTestAddress(0x2A)
	delegate := newTestAddress(0x2B)
	if err := env.engine.Lock(account, delegate, 3600); err != nil {
		t.Fatalf("lock: %v", err)
	}

	if err := env.engine.Unlock(account, account); !errors.Is(err, ErrCallerNotDelegate) {
		t.Fatalf("expected delegate check, got %v", err)
	}
	if err := env.engine.Unlock(delegate, account); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if err := env.engine.Unlock(delegate, account); !errors.Is(err, ErrAlreadyUnlocked) {
		t.Fatalf("expected already unlocked, got %v", err)
	}

	// The account is free immediately after the delegate releases it.
	if _, err := env.engine.Deposit(NativeAsset, account, big.NewInt(10)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	env.provider.CreditCustody(NativeAsset, big.NewInt(10))
	if err := env.engine.Withdraw(NativeAsset, account, big.NewInt(10)); err != nil {
		t.Fatalf("withdraw after unlock: %v", err)
	}
}
