package ledger

import (
	"fmt"
	"math/big"
	"sync"
)

// TransferProvider moves the underlying asset in and out of custody. The
// ledger treats any provider failure as a hard failure of the enclosing
// operation and restores its own state before returning.
type TransferProvider interface {
	// CustodyBalance reports the raw amount of the asset currently held by
	// custody. Deposits measure the pre/post delta through this call so
	// fee-on-transfer tokens credit what actually arrived.
	CustodyBalance(asset Asset) (*big.Int, error)
	// Pull draws amount of the asset from the payer into custody.
	Pull(asset Asset, payer [20]byte, amount *big.Int) error
	// Push forwards amount of the asset out of custody to the recipient's
	// external address.
	Push(asset Asset, recipient [20]byte, amount *big.Int) error
}

// MemoryProvider is an in-process asset book used in development mode and
// tests. It models external holdings per (asset, address) plus the custody
// pool per asset, including an optional per-asset transfer fee so deposit
// delta measurement can be exercised.
type MemoryProvider struct {
	mu       sync.Mutex
	holdings map[Asset]map[[20]byte]*big.Int
	custody  map[Asset]*big.Int
	feeBps   map[Asset]uint32
}

// NewMemoryProvider returns an empty provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		holdings: make(map[Asset]map[[20]byte]*big.Int),
		custody:  make(map[Asset]*big.Int),
		feeBps:   make(map[Asset]uint32),
	}
}

// Credit seeds an external holding.
func (p *MemoryProvider) Credit(asset Asset, holder [20]byte, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.holding(asset, holder).Add(p.holding(asset, holder), amount)
}

// CreditCustody seeds the custody pool directly, mirroring native-coin
// payments that arrive alongside a deposit call rather than through Pull.
func (p *MemoryProvider) CreditCustody(asset Asset, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.custodyBalance(asset).Add(p.custodyBalance(asset), amount)
}

// SetTransferFeeBps configures a burn taken on every Pull of the asset,
// emulating fee-on-transfer tokens.
func (p *MemoryProvider) SetTransferFeeBps(asset Asset, bps uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.feeBps[asset] = bps
}

// Holding reports the external balance of a holder.
func (p *MemoryProvider) Holding(asset Asset, holder [20]byte) *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.holding(asset, holder))
}

func (p *MemoryProvider) holding(asset Asset, holder [20]byte) *big.Int {
	book, ok := p.holdings[asset]
	if !ok {
		book = make(map[[20]byte]*big.Int)
		p.holdings[asset] = book
	}
	bal, ok := book[holder]
	if !ok {
		bal = big.NewInt(0)
		book[holder] = bal
	}
	return bal
}

func (p *MemoryProvider) custodyBalance(asset Asset) *big.Int {
	bal, ok := p.custody[asset]
	if !ok {
		bal = big.NewInt(0)
		p.custody[asset] = bal
	}
	return bal
}

func (p *MemoryProvider) CustodyBalance(asset Asset) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.custodyBalance(asset)), nil
}

func (p *MemoryProvider) Pull(asset Asset, payer [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("provider: non-positive pull amount")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	bal := p.holding(asset, payer)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("provider: holder balance too low")
	}
	bal.Sub(bal, amount)
	received := new(big.Int).Set(amount)
	if bps := p.feeBps[asset]; bps > 0 {
		fee := new(big.Int).Mul(amount, new(big.Int).SetUint64(uint64(bps)))
		fee.Div(fee, big.NewInt(10_000))
		received.Sub(received, fee)
	}
	p.custodyBalance(asset).Add(p.custodyBalance(asset), received)
	return nil
}

func (p *MemoryProvider) Push(asset Asset, recipient [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("provider: non-positive push amount")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	pool := p.custodyBalance(asset)
	if pool.Cmp(amount) < 0 {
		return fmt.Errorf("provider: custody pool too low")
	}
	pool.Sub(pool, amount)
	p.holding(asset, recipient).Add(p.holding(asset, recipient), amount)
	return nil
}
