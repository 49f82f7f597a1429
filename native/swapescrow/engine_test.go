package swapescrow

import (
	"errors"
	"math/big"
	"testing"

	"custodia/core/events"
	"custodia/native/common"
	"custodia/native/ledger"
)

type swapKey struct {
	account [20]byte
	id      uint64
}

type mockState struct {
	balances map[ledger.Asset]map[[20]byte]*ledger.Balance
	locks    map[[20]byte]*ledger.LockRecord
	sources  map[swapKey]*SourceRecord
	targets  map[swapKey]*TargetRecord
}

func newMockState() *mockState {
	return &mockState{
		balances: make(map[ledger.Asset]map[[20]byte]*ledger.Balance),
		locks:    make(map[[20]byte]*ledger.LockRecord),
		sources:  make(map[swapKey]*SourceRecord),
		targets:  make(map[swapKey]*TargetRecord),
	}
}

func (m *mockState) BalanceGet(asset ledger.Asset, account [20]byte) (*ledger.Balance, error) {
	if book, ok := m.balances[asset]; ok {
		if bal, ok := book[account]; ok {
			return bal.Clone(), nil
		}
	}
	return ledger.NewBalance(), nil
}

func (m *mockState) BalancePut(asset ledger.Asset, account [20]byte, balance *ledger.Balance) error {
	book, ok := m.balances[asset]
	if !ok {
		book = make(map[[20]byte]*ledger.Balance)
		m.balances[asset] = book
	}
	book[account] = balance.Clone()
	return nil
}

func (m *mockState) LockGet(account [20]byte) (*ledger.LockRecord, bool, error) {
	record, ok := m.locks[account]
	if !ok {
		return nil, false, nil
	}
	clone := *record
	return &clone, true, nil
}

func (m *mockState) LockPut(account [20]byte, record *ledger.LockRecord) error {
	clone := *record
	m.locks[account] = &clone
	return nil
}

func (m *mockState) SwapSourceGet(account [20]byte, id uint64) (*SourceRecord, error) {
	return m.sources[swapKey{account, id}].Clone(), nil
}

func (m *mockState) SwapSourcePut(account [20]byte, id uint64, record *SourceRecord) error {
	key := swapKey{account, id}
	if !record.Exists() {
		delete(m.sources, key)
		return nil
	}
	m.sources[key] = record.Clone()
	return nil
}

func (m *mockState) SwapTargetGet(account [20]byte, id uint64) (*TargetRecord, error) {
	return m.targets[swapKey{account, id}].Clone(), nil
}

func (m *mockState) SwapTargetPut(account [20]byte, id uint64, record *TargetRecord) error {
	key := swapKey{account, id}
	if !record.Exists() {
		delete(m.targets, key)
		return nil
	}
	m.targets[key] = record.Clone()
	return nil
}

type stubPolicy struct {
	admins       map[[20]byte]bool
	feeCollector [20]byte
	swapRunning  bool
}

func newStubPolicy() *stubPolicy {
	return &stubPolicy{admins: make(map[[20]byte]bool), swapRunning: true}
}

func (p *stubPolicy) IsOwner(addr [20]byte) bool             { return false }
func (p *stubPolicy) IsAdmin(addr [20]byte) bool             { return p.admins[addr] }
func (p *stubPolicy) IsExchange(addr [20]byte) bool          { return false }
func (p *stubPolicy) FeeCollector() [20]byte                 { return p.feeCollector }
func (p *stubPolicy) AssetSupported(asset ledger.Asset) bool { return asset.IsNative() }
func (p *stubPolicy) SwapRunning() bool                      { return p.swapRunning }

type capturingEmitter struct {
	events []events.Event
}

func (c *capturingEmitter) Emit(evt events.Event) {
	c.events = append(c.events, evt)
}

func (c *capturingEmitter) types() []string {
	out := make([]string, 0, len(c.events))
	for _, evt := range c.events {
		out = append(out, evt.EventType())
	}
	return out
}

func addr(fill byte) [20]byte {
	var a [20]byte
	for i := range a {
		a[i] = fill
	}
	return a
}

type testEnv struct {
	state   *mockState
	policy  *stubPolicy
	ledger  *ledger.Engine
	engine  *Engine
	emitter *capturingEmitter
	admin   [20]byte
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		state:   newMockState(),
		policy:  newStubPolicy(),
		emitter: &capturingEmitter{},
		admin:   addr(0xAD),
	}
	env.policy.admins[env.admin] = true
	env.policy.feeCollector = addr(0xFC)

	env.ledger = ledger.NewEngine()
	env.ledger.SetState(env.state)
	env.ledger.SetPolicy(env.policy)
	env.ledger.SetProvider(ledger.NewMemoryProvider())
	env.ledger.SetNowFunc(func() int64 { return 1_700_000_000 })

	env.engine = NewEngine()
	env.engine.SetState(env.state)
	env.engine.SetLedger(env.ledger)
	env.engine.SetPolicy(env.policy)
	env.engine.SetEmitter(env.emitter)
	return env
}

func (env *testEnv) fund(t *testing.T, account [20]byte, amount int64) {
	t.Helper()
	if _, err := env.ledger.Deposit(ledger.NativeAsset, account, big.NewInt(amount)); err != nil {
		t.Fatalf("fund: %v", err)
	}
}

func (env *testEnv) balances(t *testing.T, account [20]byte) (*big.Int, *big.Int) {
	t.Helper()
	available, pending, err := env.ledger.Balances(ledger.NativeAsset, account)
	if err != nil {
		t.Fatalf("balances: %v", err)
	}
	return available, pending
}

func TestSwapFullProtocol(t *testing.T) {
	env := newTestEnv(t)
	alice := addr(0x0A)
	bob := addr(0x0B)
	env.fund(t, alice, 100)

	// Alice escrows 100 with a 5 fee; 95 is held pending, 5 goes to the
	// collector.
	if err := env.engine.Request(alice, ledger.NativeAsset, 7, big.NewInt(100), big.NewInt(5)); err != nil {
		t.Fatalf("request: %v", err)
	}
	available, pending := env.balances(t, alice)
	if available.Sign() != 0 || pending.Cmp(big.NewInt(95)) != 0 {
		t.Fatalf("after request: available=%s pending=%s", available, pending)
	}
	collector, _ := env.balances(t, env.policy.feeCollector)
	if collector.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("collector: %s", collector)
	}
	record, ok, err := env.engine.SourceRecordOf(alice, 7)
	if err != nil || !ok {
		t.Fatalf("source record: ok=%v err=%v", ok, err)
	}
	if record.Amount.Cmp(big.NewInt(95)) != 0 {
		t.Fatalf("source record holds net amount, got %s", record.Amount)
	}

	// The operator mirrors the inbound leg for Bob, funded by Alice's
	// custody once accepted.
	if err := env.engine.Mirror(env.admin, bob, 7, ledger.NativeAsset, big.NewInt(95), alice, false, [20]byte{}); err != nil {
		t.Fatalf("mirror: %v", err)
	}

	// Bob would accept against Alice's available balance, but her funds are
	// pending. Completion first moves the pending leg to Bob.
	if err := env.engine.CompleteSource(env.admin, alice, 7, bob, big.NewInt(95), nil); err != nil {
		t.Fatalf("complete: %v", err)
	}
	_, pending = env.balances(t, alice)
	if pending.Sign() != 0 {
		t.Fatalf("pending not drained: %s", pending)
	}
	bobAvailable, _ := env.balances(t, bob)
	if bobAvailable.Cmp(big.NewInt(95)) != 0 {
		t.Fatalf("recipient balance: %s", bobAvailable)
	}

	// The consumed source id is free for reuse.
	if _, ok, _ := env.engine.SourceRecordOf(alice, 7); ok {
		t.Fatal("source record should be cleared")
	}
	if err := env.engine.CompleteSource(env.admin, alice, 7, bob, big.NewInt(1), nil); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected invalid record on replay, got %v", err)
	}

	got := env.emitter.types()
	want := []string{events.TypeSwapRequested, events.TypeSwapMirrored, events.TypeSwapCompleted}
	if len(got) != len(want) {
		t.Fatalf("event stream %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: got %s want %s", i, got[i], want[i])
		}
	}
}

func TestAcceptDeliversFromCounterparty(t *testing.T) {
	env := newTestEnv(t)
	alice := addr(0x0A)
	bob := addr(0x0B)
	env.fund(t, alice, 200)

	if err := env.engine.Mirror(env.admin, bob, 3, ledger.NativeAsset, big.NewInt(80), alice, false, [20]byte{}); err != nil {
		t.Fatalf("mirror: %v", err)
	}
	if err := env.engine.Accept(bob, bob, 3); err != nil {
		t.Fatalf("accept: %v", err)
	}
	bobAvailable, _ := env.balances(t, bob)
	if bobAvailable.Cmp(big.NewInt(80)) != 0 {
		t.Fatalf("recipient: %s", bobAvailable)
	}
	aliceAvailable, _ := env.balances(t, alice)
	if aliceAvailable.Cmp(big.NewInt(120)) != 0 {
		t.Fatalf("counterparty: %s", aliceAvailable)
	}

	// One-shot: the record is consumed.
	if err := env.engine.Accept(bob, bob, 3); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected invalid record on replay, got %v", err)
	}
}

func TestAcceptRestrictedCaller(t *testing.T) {
	env := newTestEnv(t)
	alice := addr(0x0A)
	bob := addr(0x0B)
	relayer := addr(0x0C)
	env.fund(t, alice, 100)

	if err := env.engine.Mirror(env.admin, bob, 4, ledger.NativeAsset, big.NewInt(50), alice, false, relayer); err != nil {
		t.Fatalf("mirror: %v", err)
	}
	// With a restricted caller bound, even the recipient cannot accept.
	if err := env.engine.Accept(bob, bob, 4); !errors.Is(err, ErrUnauthorizedUser) {
		t.Fatalf("expected restricted caller check, got %v", err)
	}
	if err := env.engine.Accept(relayer, bob, 4); err != nil {
		t.Fatalf("restricted accept: %v", err)
	}
}

func TestAcceptByStrangerRejected(t *testing.T) {
	env := newTestEnv(t)
	alice := addr(0x0A)
	bob := addr(0x0B)
	env.fund(t, alice, 100)

	if err := env.engine.Mirror(env.admin, bob, 5, ledger.NativeAsset, big.NewInt(50), alice, false, [20]byte{}); err != nil {
		t.Fatalf("mirror: %v", err)
	}
	if err := env.engine.Accept(addr(0x0D), bob, 5); !errors.Is(err, ErrUnauthorizedUser) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRequestOverLiveRecordRejected(t *testing.T) {
	env := newTestEnv(t)
	alice := addr(0x0A)
	env.fund(t, alice, 100)

	if err := env.engine.Request(alice, ledger.NativeAsset, 1, big.NewInt(30), nil); err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := env.engine.Request(alice, ledger.NativeAsset, 1, big.NewInt(30), nil); !errors.Is(err, ErrRecordExists) {
		t.Fatalf("expected record exists, got %v", err)
	}
	// A different id is fine.
	if err := env.engine.Request(alice, ledger.NativeAsset, 2, big.NewInt(30), nil); err != nil {
		t.Fatalf("second request: %v", err)
	}
}

func TestMirrorOverLiveRecordRejected(t *testing.T) {
	env := newTestEnv(t)
	alice := addr(0x0A)
	bob := addr(0x0B)

	if err := env.engine.Mirror(env.admin, bob, 1, ledger.NativeAsset, big.NewInt(10), alice, false, [20]byte{}); err != nil {
		t.Fatalf("mirror: %v", err)
	}
	if err := env.engine.Mirror(env.admin, bob, 1, ledger.NativeAsset, big.NewInt(10), alice, false, [20]byte{}); !errors.Is(err, ErrRecordExists) {
		t.Fatalf("expected record exists, got %v", err)
	}
	if err := env.engine.Mirror(addr(0x0E), bob, 2, ledger.NativeAsset, big.NewInt(10), alice, false, [20]byte{}); !errors.Is(err, ErrUnauthorizedUser) {
		t.Fatalf("expected admin check, got %v", err)
	}
}

func TestCancelSourceReleasesHeldAmount(t *testing.T) {
	env := newTestEnv(t)
	alice := addr(0x0A)
	env.fund(t, alice, 100)

	if err := env.engine.Request(alice, ledger.NativeAsset, 9, big.NewInt(100), big.NewInt(5)); err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := env.engine.CancelSource(env.admin, alice, 9); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	available, pending := env.balances(t, alice)
	if available.Cmp(big.NewInt(95)) != 0 || pending.Sign() != 0 {
		t.Fatalf("after cancel: available=%s pending=%s", available, pending)
	}
	// The fee is not refunded by a cancel.
	collector, _ := env.balances(t, env.policy.feeCollector)
	if collector.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("collector: %s", collector)
	}
	if err := env.engine.CancelSource(env.admin, alice, 9); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected invalid record on double cancel, got %v", err)
	}
}

func TestCancelTargetDropsRecordWithoutMovingFunds(t *testing.T) {
	env := newTestEnv(t)
	alice := addr(0x0A)
	bob := addr(0x0B)
	env.fund(t, alice, 100)

	if err := env.engine.Mirror(env.admin, bob, 6, ledger.NativeAsset, big.NewInt(40), alice, false, [20]byte{}); err != nil {
		t.Fatalf("mirror: %v", err)
	}
	if err := env.engine.CancelTarget(env.admin, bob, 6); err != nil {
		t.Fatalf("cancel target: %v", err)
	}
	aliceAvailable, _ := env.balances(t, alice)
	if aliceAvailable.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("cancel target must not move funds, got %s", aliceAvailable)
	}
	if err := env.engine.Accept(bob, bob, 6); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected invalid record after cancel, got %v", err)
	}
}

func TestCompleteWithLeftoverReleasesRemainder(t *testing.T) {
	env := newTestEnv(t)
	alice := addr(0x0A)
	bob := addr(0x0B)
	env.fund(t, alice, 100)

	if err := env.engine.Request(alice, ledger.NativeAsset, 8, big.NewInt(100), nil); err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := env.engine.CompleteSource(env.admin, alice, 8, bob, big.NewInt(70), big.NewInt(40)); !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("expected rejection above the held amount, got %v", err)
	}
	if err := env.engine.CompleteSource(env.admin, alice, 8, bob, big.NewInt(70), big.NewInt(30)); err != nil {
		t.Fatalf("complete: %v", err)
	}
	available, pending := env.balances(t, alice)
	if available.Cmp(big.NewInt(30)) != 0 || pending.Sign() != 0 {
		t.Fatalf("after complete: available=%s pending=%s", available, pending)
	}
	bobAvailable, _ := env.balances(t, bob)
	if bobAvailable.Cmp(big.NewInt(70)) != 0 {
		t.Fatalf("recipient: %s", bobAvailable)
	}
}

func TestPauseGatesUserEntryPoints(t *testing.T) {
	env := newTestEnv(t)
	alice := addr(0x0A)
	bob := addr(0x0B)
	env.fund(t, alice, 100)

	if err := env.engine.Request(alice, ledger.NativeAsset, 11, big.NewInt(50), nil); err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := env.engine.Mirror(env.admin, bob, 11, ledger.NativeAsset, big.NewInt(50), alice, false, [20]byte{}); err != nil {
		t.Fatalf("mirror: %v", err)
	}

	env.policy.swapRunning = false

	if err := env.engine.Request(alice, ledger.NativeAsset, 12, big.NewInt(10), nil); !errors.Is(err, common.ErrModulePaused) {
		t.Fatalf("expected paused on request, got %v", err)
	}
	if err := env.engine.Accept(bob, bob, 11); !errors.Is(err, common.ErrModulePaused) {
		t.Fatalf("expected paused on accept, got %v", err)
	}

	// Admin drain paths keep working while paused.
	if err := env.engine.CancelTarget(env.admin, bob, 11); err != nil {
		t.Fatalf("cancel target while paused: %v", err)
	}
	if err := env.engine.CancelSource(env.admin, alice, 11); err != nil {
		t.Fatalf("cancel source while paused: %v", err)
	}
	available, pending := env.balances(t, alice)
	if available.Cmp(big.NewInt(100)) != 0 || pending.Sign() != 0 {
		t.Fatalf("after drain: available=%s pending=%s", available, pending)
	}
}

func TestRequestValidations(t *testing.T) {
	env := newTestEnv(t)
	alice := addr(0x0A)
	env.fund(t, alice, 100)

	var unsupported ledger.Asset
	unsupported[0] = 0x77
	if err := env.engine.Request(alice, unsupported, 1, big.NewInt(10), nil); !errors.Is(err, ledger.ErrTokenNotSupported) {
		t.Fatalf("expected unsupported asset, got %v", err)
	}
	if err := env.engine.Request(alice, ledger.NativeAsset, 1, big.NewInt(0), nil); !errors.Is(err, ledger.ErrAmountMustBePositive) {
		t.Fatalf("expected positive amount check, got %v", err)
	}
	if err := env.engine.Request(alice, ledger.NativeAsset, 1, big.NewInt(10), big.NewInt(10)); !errors.Is(err, ledger.ErrFeeExceedsAmount) {
		t.Fatalf("expected fee check, got %v", err)
	}
	// Insufficient escrow funds surface the ledger error and leave no record.
	if err := env.engine.Request(alice, ledger.NativeAsset, 1, big.NewInt(500), nil); !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if _, ok, _ := env.engine.SourceRecordOf(alice, 1); ok {
		t.Fatal("failed request must not leave a record")
	}
}
