package ledger

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// Asset identifies a custodied asset by its 20-byte token address. The zero
// value is the native coin, which is always supported.
type Asset [20]byte

// NativeAsset is the distinguished native-coin asset.
var NativeAsset = Asset{}

// IsNative reports whether the asset is the native coin.
func (a Asset) IsNative() bool { return a == NativeAsset }

// String renders the asset for events and logs.
func (a Asset) String() string {
	if a.IsNative() {
		return "native"
	}
	return hex.EncodeToString(a[:])
}

// ParseAsset decodes an asset from its string form as produced by String.
func ParseAsset(s string) (Asset, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || strings.EqualFold(trimmed, "native") {
		return NativeAsset, nil
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(trimmed, "0x"))
	if err != nil {
		return Asset{}, fmt.Errorf("ledger: invalid asset %q: %w", s, err)
	}
	if len(raw) != 20 {
		return Asset{}, fmt.Errorf("ledger: invalid asset length %d", len(raw))
	}
	var out Asset
	copy(out[:], raw)
	return out, nil
}

// Balance holds the two custody buckets for a single (asset, account) pair.
// Available funds may be withdrawn or transferred; pending funds are held and
// can only be released back to available or forwarded to another account.
type Balance struct {
	Available *uint256.Int
	Pending   *uint256.Int
}

// NewBalance returns a zeroed balance.
func NewBalance() *Balance {
	return &Balance{Available: uint256.NewInt(0), Pending: uint256.NewInt(0)}
}

// Clone returns a deep copy so callers can mutate without affecting the
// stored instance.
func (b *Balance) Clone() *Balance {
	if b == nil {
		return NewBalance()
	}
	clone := NewBalance()
	if b.Available != nil {
		clone.Available.Set(b.Available)
	}
	if b.Pending != nil {
		clone.Pending.Set(b.Pending)
	}
	return clone
}

func (b *Balance) normalize() {
	if b.Available == nil {
		b.Available = uint256.NewInt(0)
	}
	if b.Pending == nil {
		b.Pending = uint256.NewInt(0)
	}
}

// LockRecord tracks a self-service time lock on an account. While the current
// time is before UnlockTime the owner cannot withdraw; the named delegate can.
// UnlockTime carries a sentinel of 1 once a delegate explicitly unlocks, which
// keeps "never locked" (absent record) distinguishable in the bookkeeping.
type LockRecord struct {
	UnlockTime uint64
	Delegate   [20]byte
}

const (
	// unlockedSentinel marks an explicitly unlocked account.
	unlockedSentinel uint64 = 1
	// maxLockDuration bounds self-service locks to ten years.
	maxLockDuration uint64 = 3650 * 24 * 60 * 60
)

// Active reports whether the lock is still in force at the supplied time.
func (r *LockRecord) Active(now uint64) bool {
	if r == nil {
		return false
	}
	return r.UnlockTime >= now && r.UnlockTime > unlockedSentinel
}

// toAmount validates and converts a caller-supplied amount into the checked
// 256-bit representation used by all balance arithmetic.
func toAmount(v *big.Int) (*uint256.Int, error) {
	if v == nil || v.Sign() <= 0 {
		return nil, ErrAmountMustBePositive
	}
	amt, overflow := uint256.FromBig(v)
	if overflow {
		return nil, ErrBalanceOverflow
	}
	return amt, nil
}

// toFee converts an optional fee amount; nil and zero are both "no fee".
func toFee(v *big.Int) (*uint256.Int, error) {
	if v == nil || v.Sign() == 0 {
		return uint256.NewInt(0), nil
	}
	if v.Sign() < 0 {
		return nil, ErrAmountMustBePositive
	}
	fee, overflow := uint256.FromBig(v)
	if overflow {
		return nil, ErrBalanceOverflow
	}
	return fee, nil
}
