package events

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"custodia/core/types"
)

const (
	TypeLedgerDeposited           = "ledger.deposited"
	TypeLedgerWithdrawn           = "ledger.withdrawn"
	TypeLedgerDelegateWithdrawn   = "ledger.delegate_withdrawn"
	TypeLedgerFundsHeld           = "ledger.funds_held"
	TypeLedgerFundsReleased       = "ledger.funds_released"
	TypeLedgerTransferred         = "ledger.transferred"
	TypeLedgerPendingTransferred  = "ledger.pending_transferred"
	TypeLedgerExchangeTransferred = "ledger.exchange_transferred"
	TypeLedgerAccountLocked       = "ledger.account_locked"
	TypeLedgerLockExtended        = "ledger.lock_extended"
	TypeLedgerAccountUnlocked     = "ledger.account_unlocked"
)

// LedgerDeposited is emitted once a deposit has been credited. Amount is the
// credited amount, which for fee-on-transfer tokens may be lower than what the
// depositor requested.
type LedgerDeposited struct {
	Asset   string
	Account [20]byte
	Amount  *big.Int
}

func (LedgerDeposited) EventType() string { return TypeLedgerDeposited }

func (e LedgerDeposited) Event() *types.Event {
	return &types.Event{
		Type: TypeLedgerDeposited,
		Attributes: map[string]string{
			"asset":   e.Asset,
			"account": hex.EncodeToString(e.Account[:]),
			"amount":  formatAmount(e.Amount),
		},
	}
}

type LedgerWithdrawn struct {
	Asset   string
	Account [20]byte
	Amount  *big.Int
}

func (LedgerWithdrawn) EventType() string { return TypeLedgerWithdrawn }

func (e LedgerWithdrawn) Event() *types.Event {
	return &types.Event{
		Type: TypeLedgerWithdrawn,
		Attributes: map[string]string{
			"asset":   e.Asset,
			"account": hex.EncodeToString(e.Account[:]),
			"amount":  formatAmount(e.Amount),
		},
	}
}

// LedgerDelegateWithdrawn is emitted when a registered delegate withdraws on
// behalf of a locked account.
type LedgerDelegateWithdrawn struct {
	Asset    string
	Account  [20]byte
	Delegate [20]byte
	Amount   *big.Int
}

func (LedgerDelegateWithdrawn) EventType() string { return TypeLedgerDelegateWithdrawn }

func (e LedgerDelegateWithdrawn) Event() *types.Event {
	return &types.Event{
		Type: TypeLedgerDelegateWithdrawn,
		Attributes: map[string]string{
			"asset":    e.Asset,
			"account":  hex.EncodeToString(e.Account[:]),
			"delegate": hex.EncodeToString(e.Delegate[:]),
			"amount":   formatAmount(e.Amount),
		},
	}
}

type LedgerFundsHeld struct {
	Asset   string
	Account [20]byte
	Amount  *big.Int
	Fee     *big.Int
}

func (LedgerFundsHeld) EventType() string { return TypeLedgerFundsHeld }

func (e LedgerFundsHeld) Event() *types.Event {
	return &types.Event{
		Type: TypeLedgerFundsHeld,
		Attributes: map[string]string{
			"asset":   e.Asset,
			"account": hex.EncodeToString(e.Account[:]),
			"amount":  formatAmount(e.Amount),
			"fee":     formatAmount(e.Fee),
		},
	}
}

type LedgerFundsReleased struct {
	Asset   string
	Account [20]byte
	Amount  *big.Int
}

func (LedgerFundsReleased) EventType() string { return TypeLedgerFundsReleased }

func (e LedgerFundsReleased) Event() *types.Event {
	return &types.Event{
		Type: TypeLedgerFundsReleased,
		Attributes: map[string]string{
			"asset":   e.Asset,
			"account": hex.EncodeToString(e.Account[:]),
			"amount":  formatAmount(e.Amount),
		},
	}
}

// LedgerTransferred covers available-balance transfers. ViaWallet records
// whether the funds left custody for the recipient's external address.
type LedgerTransferred struct {
	Asset     string
	From      [20]byte
	To        [20]byte
	Amount    *big.Int
	ViaWallet bool
}

func (LedgerTransferred) EventType() string { return TypeLedgerTransferred }

func (e LedgerTransferred) Event() *types.Event {
	return &types.Event{
		Type: TypeLedgerTransferred,
		Attributes: map[string]string{
			"asset":     e.Asset,
			"from":      hex.EncodeToString(e.From[:]),
			"to":        hex.EncodeToString(e.To[:]),
			"amount":    formatAmount(e.Amount),
			"viaWallet": strconv.FormatBool(e.ViaWallet),
		},
	}
}

type LedgerPendingTransferred struct {
	Asset  string
	From   [20]byte
	To     [20]byte
	Amount *big.Int
}

func (LedgerPendingTransferred) EventType() string { return TypeLedgerPendingTransferred }

func (e LedgerPendingTransferred) Event() *types.Event {
	return &types.Event{
		Type: TypeLedgerPendingTransferred,
		Attributes: map[string]string{
			"asset":  e.Asset,
			"from":   hex.EncodeToString(e.From[:]),
			"to":     hex.EncodeToString(e.To[:]),
			"amount": formatAmount(e.Amount),
		},
	}
}

type LedgerExchangeTransferred struct {
	Asset  string
	From   [20]byte
	To     [20]byte
	Amount *big.Int
	Fee    *big.Int
}

func (LedgerExchangeTransferred) EventType() string { return TypeLedgerExchangeTransferred }

func (e LedgerExchangeTransferred) Event() *types.Event {
	return &types.Event{
		Type: TypeLedgerExchangeTransferred,
		Attributes: map[string]string{
			"asset":  e.Asset,
			"from":   hex.EncodeToString(e.From[:]),
			"to":     hex.EncodeToString(e.To[:]),
			"amount": formatAmount(e.Amount),
			"fee":    formatAmount(e.Fee),
		},
	}
}

type LedgerAccountLocked struct {
	Account    [20]byte
	Delegate   [20]byte
	UnlockTime uint64
}

func (LedgerAccountLocked) EventType() string { return TypeLedgerAccountLocked }

func (e LedgerAccountLocked) Event() *types.Event {
	return &types.Event{
		Type: TypeLedgerAccountLocked,
		Attributes: map[string]string{
			"account":    hex.EncodeToString(e.Account[:]),
			"delegate":   hex.EncodeToString(e.Delegate[:]),
			"unlockTime": strconv.FormatUint(e.UnlockTime, 10),
		},
	}
}

type LedgerLockExtended struct {
	Account    [20]byte
	UnlockTime uint64
}

func (LedgerLockExtended) EventType() string { return TypeLedgerLockExtended }

func (e LedgerLockExtended) Event() *types.Event {
	return &types.Event{
		Type: TypeLedgerLockExtended,
		Attributes: map[string]string{
			"account":    hex.EncodeToString(e.Account[:]),
			"unlockTime": strconv.FormatUint(e.UnlockTime, 10),
		},
	}
}

type LedgerAccountUnlocked struct {
	Account  [20]byte
	Delegate [20]byte
}

func (LedgerAccountUnlocked) EventType() string { return TypeLedgerAccountUnlocked }

func (e LedgerAccountUnlocked) Event() *types.Event {
	return &types.Event{
		Type: TypeLedgerAccountUnlocked,
		Attributes: map[string]string{
			"account":  hex.EncodeToString(e.Account[:]),
			"delegate": hex.EncodeToString(e.Delegate[:]),
		},
	}
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
