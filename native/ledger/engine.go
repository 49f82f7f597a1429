package ledger

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/holiman/uint256"

	"custodia/core/events"
)

var (
	errNilState    = errors.New("ledger engine: state not configured")
	errNilPolicy   = errors.New("ledger engine: policy not configured")
	errNilProvider = errors.New("ledger engine: transfer provider not configured")
)

// State is the persistence surface required by the engine. Absent balances
// read as zero; absent lock records read as "never locked".
type State interface {
	BalanceGet(asset Asset, account [20]byte) (*Balance, error)
	BalancePut(asset Asset, account [20]byte, balance *Balance) error
	LockGet(account [20]byte) (*LockRecord, bool, error)
	LockPut(account [20]byte, record *LockRecord) error
}

// Engine is the sole authority over available/pending custody balances. Every
// mutation validates against the injected policy, applies checked 256-bit
// arithmetic and emits a typed event. Calls are serialised by an internal
// mutex so each operation is atomic with respect to the others; funds are
// always decremented before the external transfer provider is invoked.
type Engine struct {
	mu       sync.Mutex
	state    State
	policy   Policy
	provider TransferProvider
	emitter  events.Emitter
	nowFn    func() int64
}

// NewEngine creates a ledger engine with a no-op emitter. Callers wire the
// state backend, policy and transfer provider via the setters.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state State) { e.state = state }

// SetPolicy configures the authorization policy consulted on every mutation.
func (e *Engine) SetPolicy(policy Policy) { e.policy = policy }

// SetProvider configures the underlying asset transfer provider.
func (e *Engine) SetProvider(provider TransferProvider) { e.provider = provider }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source, primarily for deterministic tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(event events.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(event)
}

func (e *Engine) now() uint64 {
	ts := e.nowFn()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.policy == nil {
		return errNilPolicy
	}
	return nil
}

func (e *Engine) requireSupported(asset Asset) error {
	if !e.policy.AssetSupported(asset) {
		return ErrTokenNotSupported
	}
	return nil
}

func (e *Engine) loadBalance(asset Asset, account [20]byte) (*Balance, error) {
	bal, err := e.state.BalanceGet(asset, account)
	if err != nil {
		return nil, err
	}
	if bal == nil {
		bal = NewBalance()
	}
	bal.normalize()
	return bal, nil
}

func creditChecked(bucket, amt *uint256.Int) error {
	if _, overflow := bucket.AddOverflow(bucket, amt); overflow {
		return ErrBalanceOverflow
	}
	return nil
}

func debitChecked(bucket, amt *uint256.Int) error {
	if bucket.Lt(amt) {
		return ErrInsufficientBalance
	}
	if _, underflow := bucket.SubOverflow(bucket, amt); underflow {
		return ErrInsufficientBalance
	}
	return nil
}

// Deposit credits the account's available balance. For the native coin the
// amount is the accompanying payment and is credited as-is: sending funds to
// custody outside this entry point is not tracked and is effectively lost.
// For tokens the engine pulls the amount from the depositor and credits the
// raw custody delta actually observed, so fee-on-transfer tokens credit what
// arrived rather than what was requested. Returns the credited amount.
func (e *Engine) Deposit(asset Asset, account [20]byte, amount *big.Int) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireSupported(asset); err != nil {
		return nil, err
	}
	amt, err := toAmount(amount)
	if err != nil {
		return nil, err
	}
	credited := amt
	if !asset.IsNative() {
		if e.provider == nil {
			return nil, errNilProvider
		}
		pre, err := e.provider.CustodyBalance(asset)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAssetTransferFailed, err)
		}
		if err := e.provider.Pull(asset, account, amount); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAssetTransferFailed, err)
		}
		post, err := e.provider.CustodyBalance(asset)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAssetTransferFailed, err)
		}
		delta := new(big.Int).Sub(post, pre)
		if delta.Sign() <= 0 {
			return nil, fmt.Errorf("%w: no balance delta observed", ErrAssetTransferFailed)
		}
		measured, overflow := uint256.FromBig(delta)
		if overflow {
			return nil, ErrBalanceOverflow
		}
		credited = measured
	}
	bal, err := e.loadBalance(asset, account)
	if err != nil {
		return nil, err
	}
	if err := creditChecked(bal.Available, credited); err != nil {
		return nil, err
	}
	if err := e.state.BalancePut(asset, account, bal); err != nil {
		return nil, err
	}
	out := credited.ToBig()
	e.emit(events.LedgerDeposited{Asset: asset.String(), Account: account, Amount: out})
	return new(big.Int).Set(out), nil
}

// Withdraw moves funds from the account's available balance out to the
// account's external address. The account must not be actively locked. The
// balance is decremented and persisted before the external push; a provider
// failure restores the balance and surfaces ErrAssetTransferFailed.
func (e *Engine) Withdraw(asset Asset, account [20]byte, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireSupported(asset); err != nil {
		return err
	}
	record, ok, err := e.state.LockGet(account)
	if err != nil {
		return err
	}
	if ok && record.Active(e.now()) {
		return ErrTokensLocked
	}
	if err := e.payOut(asset, account, account, amount); err != nil {
		return err
	}
	e.emit(events.LedgerWithdrawn{Asset: asset.String(), Account: account, Amount: new(big.Int).Set(amount)})
	return nil
}

// WithdrawAsDelegate lets the registered delegate withdraw a locked account's
// funds to the account's external address regardless of lock state.
func (e *Engine) WithdrawAsDelegate(caller [20]byte, asset Asset, account [20]byte, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireSupported(asset); err != nil {
		return err
	}
	record, ok, err := e.state.LockGet(account)
	if err != nil {
		return err
	}
	if !ok || record.Delegate == ([20]byte{}) || caller != record.Delegate {
		return ErrCallerNotDelegate
	}
	if err := e.payOut(asset, account, account, amount); err != nil {
		return err
	}
	e.emit(events.LedgerDelegateWithdrawn{Asset: asset.String(), Account: account, Delegate: caller, Amount: new(big.Int).Set(amount)})
	return nil
}

// payOut decrements from's available balance and pushes the funds to the
// recipient's external address. State is committed before the push and rolled
// back if the provider fails. Callers hold the engine mutex.
func (e *Engine) payOut(asset Asset, from, recipient [20]byte, amount *big.Int) error {
	amt, err := toAmount(amount)
	if err != nil {
		return err
	}
	bal, err := e.loadBalance(asset, from)
	if err != nil {
		return err
	}
	if err := debitChecked(bal.Available, amt); err != nil {
		return err
	}
	if err := e.state.BalancePut(asset, from, bal); err != nil {
		return err
	}
	if e.provider == nil {
		return errNilProvider
	}
	if err := e.provider.Push(asset, recipient, amount); err != nil {
		// Undo the decrement so the failed call leaves no state change.
		restored := bal.Clone()
		restored.Available.Add(restored.Available, amt)
		if putErr := e.state.BalancePut(asset, from, restored); putErr != nil {
			return fmt.Errorf("%w: %v (restore failed: %v)", ErrAssetTransferFailed, err, putErr)
		}
		return fmt.Errorf("%w: %v", ErrAssetTransferFailed, err)
	}
	return nil
}

// HoldFunds escrows amount from the account's available balance: the fee, if
// any, accrues to the configured fee collector's available balance and the
// remainder moves into the account's pending bucket. Fails when the fee is not
// strictly below the amount.
func (e *Engine) HoldFunds(asset Asset, account [20]byte, amount, feeAmount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireSupported(asset); err != nil {
		return err
	}
	amt, err := toAmount(amount)
	if err != nil {
		return err
	}
	fee, err := toFee(feeAmount)
	if err != nil {
		return err
	}
	if !fee.IsZero() && !fee.Lt(amt) {
		return ErrFeeExceedsAmount
	}
	collector := e.policy.FeeCollector()
	if !fee.IsZero() && collector == ([20]byte{}) {
		return ErrNotZeroAddress
	}
	bal, err := e.loadBalance(asset, account)
	if err != nil {
		return err
	}
	if err := debitChecked(bal.Available, amt); err != nil {
		return err
	}
	held := new(uint256.Int).Sub(amt, fee)
	if err := creditChecked(bal.Pending, held); err != nil {
		return err
	}
	if !fee.IsZero() {
		if collector == account {
			if err := creditChecked(bal.Available, fee); err != nil {
				return err
			}
		} else {
			collectorBal, err := e.loadBalance(asset, collector)
			if err != nil {
				return err
			}
			if err := creditChecked(collectorBal.Available, fee); err != nil {
				return err
			}
			if err := e.state.BalancePut(asset, collector, collectorBal); err != nil {
				return err
			}
		}
	}
	if err := e.state.BalancePut(asset, account, bal); err != nil {
		return err
	}
	e.emit(events.LedgerFundsHeld{Asset: asset.String(), Account: account, Amount: amt.ToBig(), Fee: fee.ToBig()})
	return nil
}

// ReleaseFunds moves amount from the account's pending bucket back to its
// available balance.
func (e *Engine) ReleaseFunds(asset Asset, account [20]byte, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireSupported(asset); err != nil {
		return err
	}
	amt, err := toAmount(amount)
	if err != nil {
		return err
	}
	bal, err := e.loadBalance(asset, account)
	if err != nil {
		return err
	}
	if err := debitChecked(bal.Pending, amt); err != nil {
		return err
	}
	if err := creditChecked(bal.Available, amt); err != nil {
		return err
	}
	if err := e.state.BalancePut(asset, account, bal); err != nil {
		return err
	}
	e.emit(events.LedgerFundsReleased{Asset: asset.String(), Account: account, Amount: amt.ToBig()})
	return nil
}

// TransferAvailable moves amount out of from's available balance. With
// viaWallet set the underlying asset is pushed to the recipient's external
// address, otherwise the recipient's available balance is credited internally
// and no asset moves. Custody transfers bypass account locks.
func (e *Engine) TransferAvailable(asset Asset, from, to [20]byte, amount *big.Int, viaWallet bool) error {
	if err := e.ready(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireSupported(asset); err != nil {
		return err
	}
	if to == ([20]byte{}) {
		return ErrNotZeroAddress
	}
	if viaWallet {
		if err := e.payOut(asset, from, to, amount); err != nil {
			return err
		}
	} else {
		amt, err := toAmount(amount)
		if err != nil {
			return err
		}
		bal, err := e.loadBalance(asset, from)
		if err != nil {
			return err
		}
		if err := debitChecked(bal.Available, amt); err != nil {
			return err
		}
		if from == to {
			if err := creditChecked(bal.Available, amt); err != nil {
				return err
			}
		} else {
			toBal, err := e.loadBalance(asset, to)
			if err != nil {
				return err
			}
			if err := creditChecked(toBal.Available, amt); err != nil {
				return err
			}
			if err := e.state.BalancePut(asset, to, toBal); err != nil {
				return err
			}
		}
		if err := e.state.BalancePut(asset, from, bal); err != nil {
			return err
		}
	}
	e.emit(events.LedgerTransferred{Asset: asset.String(), From: from, To: to, Amount: new(big.Int).Set(amount), ViaWallet: viaWallet})
	return nil
}

// TransferPending forwards amount from from's pending bucket into to's
// available balance. Pending funds always land as available; they cannot be
// re-pended without a new hold.
func (e *Engine) TransferPending(asset Asset, from, to [20]byte, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireSupported(asset); err != nil {
		return err
	}
	if to == ([20]byte{}) {
		return ErrNotZeroAddress
	}
	amt, err := toAmount(amount)
	if err != nil {
		return err
	}
	bal, err := e.loadBalance(asset, from)
	if err != nil {
		return err
	}
	if err := debitChecked(bal.Pending, amt); err != nil {
		return err
	}
	if from == to {
		if err := creditChecked(bal.Available, amt); err != nil {
			return err
		}
	} else {
		toBal, err := e.loadBalance(asset, to)
		if err != nil {
			return err
		}
		if err := creditChecked(toBal.Available, amt); err != nil {
			return err
		}
		if err := e.state.BalancePut(asset, to, toBal); err != nil {
			return err
		}
	}
	if err := e.state.BalancePut(asset, from, bal); err != nil {
		return err
	}
	e.emit(events.LedgerPendingTransferred{Asset: asset.String(), From: from, To: to, Amount: amt.ToBig()})
	return nil
}

// TransferExchange debits amount+fee from from's available balance, credits
// the fee to the fee collector and pushes the amount to to's external address.
// Only the configured exchange address may invoke it.
func (e *Engine) TransferExchange(caller [20]byte, asset Asset, from, to [20]byte, amount, feeAmount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.policy.IsExchange(caller) {
		return ErrUnauthorizedCaller
	}
	if err := e.requireSupported(asset); err != nil {
		return err
	}
	if to == ([20]byte{}) {
		return ErrNotZeroAddress
	}
	amt, err := toAmount(amount)
	if err != nil {
		return err
	}
	fee, err := toFee(feeAmount)
	if err != nil {
		return err
	}
	collector := e.policy.FeeCollector()
	if !fee.IsZero() && collector == ([20]byte{}) {
		return ErrNotZeroAddress
	}
	total := new(uint256.Int)
	if _, overflow := total.AddOverflow(amt, fee); overflow {
		return ErrBalanceOverflow
	}
	bal, err := e.loadBalance(asset, from)
	if err != nil {
		return err
	}
	if err := debitChecked(bal.Available, total); err != nil {
		return err
	}
	if !fee.IsZero() {
		if collector == from {
			if err := creditChecked(bal.Available, fee); err != nil {
				return err
			}
		} else {
			collectorBal, err := e.loadBalance(asset, collector)
			if err != nil {
				return err
			}
			if err := creditChecked(collectorBal.Available, fee); err != nil {
				return err
			}
			if err := e.state.BalancePut(asset, collector, collectorBal); err != nil {
				return err
			}
		}
	}
	if err := e.state.BalancePut(asset, from, bal); err != nil {
		return err
	}
	if e.provider == nil {
		return errNilProvider
	}
	if err := e.provider.Push(asset, to, amount); err != nil {
		restored := bal.Clone()
		restored.Available.Add(restored.Available, total)
		if !fee.IsZero() && collector == from {
			restored.Available.Sub(restored.Available, fee)
		}
		if putErr := e.state.BalancePut(asset, from, restored); putErr != nil {
			return fmt.Errorf("%w: %v (restore failed: %v)", ErrAssetTransferFailed, err, putErr)
		}
		if !fee.IsZero() && collector != from {
			collectorBal, loadErr := e.loadBalance(asset, collector)
			if loadErr == nil {
				collectorBal.Available.Sub(collectorBal.Available, fee)
				_ = e.state.BalancePut(asset, collector, collectorBal)
			}
		}
		return fmt.Errorf("%w: %v", ErrAssetTransferFailed, err)
	}
	e.emit(events.LedgerExchangeTransferred{Asset: asset.String(), From: from, To: to, Amount: amt.ToBig(), Fee: fee.ToBig()})
	return nil
}

// Balances reports the available and pending buckets for the pair. Pure read.
func (e *Engine) Balances(asset Asset, account [20]byte) (*big.Int, *big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	bal, err := e.loadBalance(asset, account)
	if err != nil {
		return nil, nil, err
	}
	return bal.Available.ToBig(), bal.Pending.ToBig(), nil
}
