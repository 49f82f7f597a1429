package swapescrow

import (
	"errors"
	"math/big"
	"sync"

	"custodia/core/events"
	"custodia/native/common"
	"custodia/native/ledger"
)

var (
	errNilState  = errors.New("swapescrow engine: state not configured")
	errNilLedger = errors.New("swapescrow engine: ledger not configured")
	errNilPolicy = errors.New("swapescrow engine: policy not configured")
)

// ModuleName identifies the swap subsystem to the pause guard.
const ModuleName = "swapescrow"

// State persists the per-(role, account, id) swap records. Ids are scoped per
// role and account, so the same numeric id can be live as a source record for
// one account and a target record for another without collision. Storing a
// nil or zero-amount record clears the slot.
type State interface {
	SwapSourceGet(account [20]byte, id uint64) (*SourceRecord, error)
	SwapSourcePut(account [20]byte, id uint64, record *SourceRecord) error
	SwapTargetGet(account [20]byte, id uint64) (*TargetRecord, error)
	SwapTargetPut(account [20]byte, id uint64, record *TargetRecord) error
}

// Ledger is the custody surface the coordinator drives. The coordinator never
// holds funds itself; it only orchestrates these calls.
type Ledger interface {
	HoldFunds(asset ledger.Asset, account [20]byte, amount, feeAmount *big.Int) error
	ReleaseFunds(asset ledger.Asset, account [20]byte, amount *big.Int) error
	TransferAvailable(asset ledger.Asset, from, to [20]byte, amount *big.Int, viaWallet bool) error
	TransferPending(asset ledger.Asset, from, to [20]byte, amount *big.Int) error
}

// Engine coordinates the two-phase cross-ledger swap protocol: a user-side
// request escrows funds on the source ledger, an admin mirrors the record on
// the target side, the recipient accepts, and the admin completes or cancels
// the source leg after observing the off-system settlement.
type Engine struct {
	mu      sync.Mutex
	state   State
	ledger  Ledger
	policy  ledger.Policy
	emitter events.Emitter
}

// NewEngine creates a swap engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState configures the record store.
func (e *Engine) SetState(state State) { e.state = state }

// SetLedger configures the custody ledger driven by the coordinator.
func (e *Engine) SetLedger(l Ledger) { e.ledger = l }

// SetPolicy configures the authorization policy.
func (e *Engine) SetPolicy(policy ledger.Policy) { e.policy = policy }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event events.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(event)
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.ledger == nil {
		return errNilLedger
	}
	if e.policy == nil {
		return errNilPolicy
	}
	return nil
}

type swapPauseView struct{ policy ledger.Policy }

func (v swapPauseView) IsPaused(module string) bool {
	if module != ModuleName {
		return false
	}
	return !v.policy.SwapRunning()
}

// guardRunning gates user-facing entry points on the owner-toggled running
// flag. Admin drain paths bypass it.
func (e *Engine) guardRunning() error {
	return common.Guard(swapPauseView{policy: e.policy}, ModuleName)
}

// Request opens a source-side record for the caller under the caller-chosen id
// and escrows the asset from the caller's available balance, routing the
// optional fee to the fee collector. The record stores the net held amount.
// Requesting over a live record is rejected; the id becomes reusable once the
// record is completed or cancelled.
func (e *Engine) Request(caller [20]byte, asset ledger.Asset, id uint64, amount, feeAmount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guardRunning(); err != nil {
		return err
	}
	if !e.policy.AssetSupported(asset) {
		return ledger.ErrTokenNotSupported
	}
	if amount == nil || amount.Sign() <= 0 {
		return ledger.ErrAmountMustBePositive
	}
	existing, err := e.state.SwapSourceGet(caller, id)
	if err != nil {
		return err
	}
	if existing.Exists() {
		return ErrRecordExists
	}
	if err := e.ledger.HoldFunds(asset, caller, amount, feeAmount); err != nil {
		return err
	}
	held := new(big.Int).Set(amount)
	fee := big.NewInt(0)
	if feeAmount != nil && feeAmount.Sign() > 0 {
		fee = new(big.Int).Set(feeAmount)
		held.Sub(held, fee)
	}
	if err := e.state.SwapSourcePut(caller, id, &SourceRecord{Asset: asset, Amount: held}); err != nil {
		return err
	}
	e.emit(events.SwapRequested{Asset: asset.String(), Initiator: caller, ID: id, Amount: new(big.Int).Set(amount), Fee: fee})
	return nil
}

// Mirror records an expected inbound credit on the target side. Admin-only.
// The counterparty is the custody account whose available balance will fund
// the eventual accept; deliverToWallet selects external payout over internal
// credit; a nonzero restrictedCaller binds acceptance to that address.
// Mirroring over a live record is rejected.
func (e *Engine) Mirror(caller, recipient [20]byte, id uint64, asset ledger.Asset, amount *big.Int, counterparty [20]byte, deliverToWallet bool, restrictedCaller [20]byte) error {
	if err := e.ready(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.policy.IsAdmin(caller) {
		return ErrUnauthorizedUser
	}
	if !e.policy.AssetSupported(asset) {
		return ledger.ErrTokenNotSupported
	}
	if amount == nil || amount.Sign() <= 0 {
		return ledger.ErrAmountMustBePositive
	}
	if recipient == ([20]byte{}) || counterparty == ([20]byte{}) {
		return ledger.ErrNotZeroAddress
	}
	existing, err := e.state.SwapTargetGet(recipient, id)
	if err != nil {
		return err
	}
	if existing.Exists() {
		return ErrRecordExists
	}
	record := &TargetRecord{
		Asset:            asset,
		Amount:           new(big.Int).Set(amount),
		Counterparty:     counterparty,
		DeliverToWallet:  deliverToWallet,
		RestrictedCaller: restrictedCaller,
	}
	if err := e.state.SwapTargetPut(recipient, id, record); err != nil {
		return err
	}
	e.emit(events.SwapMirrored{
		Asset:            asset.String(),
		Recipient:        recipient,
		ID:               id,
		Amount:           new(big.Int).Set(amount),
		DeliverToWallet:  deliverToWallet,
		RestrictedCaller: restrictedCaller,
	})
	return nil
}

// Accept consumes a target record exactly once, moving the recorded amount
// from the counterparty's custody to the recipient using the stored delivery
// mode. Callable by the recipient, or exclusively by the restricted caller
// when one was bound at mirror time.
func (e *Engine) Accept(caller, recipient [20]byte, id uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guardRunning(); err != nil {
		return err
	}
	record, err := e.state.SwapTargetGet(recipient, id)
	if err != nil {
		return err
	}
	if !record.Exists() {
		return ErrInvalidRecord
	}
	if record.RestrictedCaller != ([20]byte{}) {
		if caller != record.RestrictedCaller {
			return ErrUnauthorizedUser
		}
	} else if caller != recipient {
		return ErrUnauthorizedUser
	}
	if err := e.ledger.TransferAvailable(record.Asset, record.Counterparty, recipient, record.Amount, record.DeliverToWallet); err != nil {
		return err
	}
	if err := e.state.SwapTargetPut(recipient, id, nil); err != nil {
		return err
	}
	e.emit(events.SwapAccepted{Asset: record.Asset.String(), Recipient: recipient, ID: id, Amount: new(big.Int).Set(record.Amount)})
	return nil
}

// CompleteSource finalises a source record after the admin has observed the
// target leg settle: the held pending amount is forwarded to the recipient
// and any leftover is released back to the initiator's available balance.
// Admin-only; available regardless of the running flag so in-flight swaps can
// be drained during a pause.
func (e *Engine) CompleteSource(caller, initiator [20]byte, id uint64, recipient [20]byte, amount, leftover *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.policy.IsAdmin(caller) {
		return ErrUnauthorizedUser
	}
	record, err := e.state.SwapSourceGet(initiator, id)
	if err != nil {
		return err
	}
	if !record.Exists() {
		return ErrInvalidRecord
	}
	if amount == nil || amount.Sign() <= 0 {
		return ledger.ErrAmountMustBePositive
	}
	total := new(big.Int).Set(amount)
	released := big.NewInt(0)
	if leftover != nil && leftover.Sign() > 0 {
		released = new(big.Int).Set(leftover)
		total.Add(total, released)
	}
	if total.Cmp(record.Amount) > 0 {
		return ledger.ErrInsufficientBalance
	}
	if err := e.ledger.TransferPending(record.Asset, initiator, recipient, amount); err != nil {
		return err
	}
	if released.Sign() > 0 {
		if err := e.ledger.ReleaseFunds(record.Asset, initiator, released); err != nil {
			return err
		}
	}
	if err := e.state.SwapSourcePut(initiator, id, nil); err != nil {
		return err
	}
	e.emit(events.SwapCompleted{
		Asset:     record.Asset.String(),
		Initiator: initiator,
		ID:        id,
		Recipient: recipient,
		Amount:    new(big.Int).Set(amount),
		Released:  released,
	})
	return nil
}

// CancelSource unwinds a source record, releasing the full held pending
// amount back to the initiator's available balance. Admin-only; works while
// paused.
func (e *Engine) CancelSource(caller, initiator [20]byte, id uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.policy.IsAdmin(caller) {
		return ErrUnauthorizedUser
	}
	record, err := e.state.SwapSourceGet(initiator, id)
	if err != nil {
		return err
	}
	if !record.Exists() {
		return ErrInvalidRecord
	}
	if err := e.ledger.ReleaseFunds(record.Asset, initiator, record.Amount); err != nil {
		return err
	}
	if err := e.state.SwapSourcePut(initiator, id, nil); err != nil {
		return err
	}
	e.emit(events.SwapSourceCancelled{Asset: record.Asset.String(), Initiator: initiator, ID: id, Amount: new(big.Int).Set(record.Amount)})
	return nil
}

// CancelTarget drops a not-yet-consumed target record. No funds move: target
// amounts were never escrowed inside this ledger, they represent an expected
// inbound credit. Admin-only; works while paused.
func (e *Engine) CancelTarget(caller, recipient [20]byte, id uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.policy.IsAdmin(caller) {
		return ErrUnauthorizedUser
	}
	record, err := e.state.SwapTargetGet(recipient, id)
	if err != nil {
		return err
	}
	if !record.Exists() {
		return ErrInvalidRecord
	}
	if err := e.state.SwapTargetPut(recipient, id, nil); err != nil {
		return err
	}
	e.emit(events.SwapTargetCancelled{Asset: record.Asset.String(), Recipient: recipient, ID: id, Amount: new(big.Int).Set(record.Amount)})
	return nil
}

// SourceRecordOf reports the live source record for the pair, if any.
func (e *Engine) SourceRecordOf(account [20]byte, id uint64) (*SourceRecord, bool, error) {
	if err := e.ready(); err != nil {
		return nil, false, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	record, err := e.state.SwapSourceGet(account, id)
	if err != nil {
		return nil, false, err
	}
	if !record.Exists() {
		return nil, false, nil
	}
	return record.Clone(), true, nil
}

// TargetRecordOf reports the live target record for the pair, if any.
func (e *Engine) TargetRecordOf(account [20]byte, id uint64) (*TargetRecord, bool, error) {
	if err := e.ready(); err != nil {
		return nil, false, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	record, err := e.state.SwapTargetGet(account, id)
	if err != nil {
		return nil, false, err
	}
	if !record.Exists() {
		return nil, false, nil
	}
	return record.Clone(), true, nil
}
