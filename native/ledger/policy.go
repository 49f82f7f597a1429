package ledger

import "sync"

// Policy supplies the authorization predicates and configuration surface
// consumed by the custody engines. It is injected explicitly rather than read
// from ambient globals so both engines share one source of truth.
type Policy interface {
	IsOwner(addr [20]byte) bool
	IsAdmin(addr [20]byte) bool
	IsExchange(addr [20]byte) bool
	FeeCollector() [20]byte
	AssetSupported(asset Asset) bool
	SwapRunning() bool
}

// AccessPolicy is the concrete owner-managed policy: single owner, admin set,
// exchange address, fee collector, supported-asset allow-list and the global
// swap-running flag.
type AccessPolicy struct {
	mu           sync.RWMutex
	owner        [20]byte
	admins       map[[20]byte]bool
	exchange     [20]byte
	feeCollector [20]byte
	assets       map[Asset]bool
	swapRunning  bool
}

// NewAccessPolicy constructs a policy rooted at the supplied owner. The owner
// is implicitly an admin. Swaps start paused until the owner enables them.
func NewAccessPolicy(owner [20]byte) *AccessPolicy {
	return &AccessPolicy{
		owner:  owner,
		admins: make(map[[20]byte]bool),
		assets: make(map[Asset]bool),
	}
}

func (p *AccessPolicy) IsOwner(addr [20]byte) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return addr == p.owner && addr != ([20]byte{})
}

func (p *AccessPolicy) IsAdmin(addr [20]byte) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if addr == ([20]byte{}) {
		return false
	}
	return p.admins[addr] || addr == p.owner
}

func (p *AccessPolicy) IsExchange(addr [20]byte) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return addr == p.exchange && addr != ([20]byte{})
}

func (p *AccessPolicy) FeeCollector() [20]byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.feeCollector
}

// AssetSupported reports whether the asset may be referenced by custody
// operations. The native coin is always enabled.
func (p *AccessPolicy) AssetSupported(asset Asset) bool {
	if asset.IsNative() {
		return true
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.assets[asset]
}

func (p *AccessPolicy) SwapRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.swapRunning
}

// TransferOwnership moves ownership to a new address. Owner-only.
func (p *AccessPolicy) TransferOwnership(caller, next [20]byte) error {
	if next == ([20]byte{}) {
		return ErrNotZeroAddress
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.owner {
		return ErrUnauthorizedCaller
	}
	p.owner = next
	return nil
}

// SetAdmin adds or removes an address from the admin set. Owner-only.
func (p *AccessPolicy) SetAdmin(caller, addr [20]byte, enabled bool) error {
	if addr == ([20]byte{}) {
		return ErrNotZeroAddress
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.owner {
		return ErrUnauthorizedCaller
	}
	if enabled {
		p.admins[addr] = true
	} else {
		delete(p.admins, addr)
	}
	return nil
}

// SetExchange configures the address permitted to move funds through
// TransferExchange. Owner-only.
func (p *AccessPolicy) SetExchange(caller, addr [20]byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.owner {
		return ErrUnauthorizedCaller
	}
	p.exchange = addr
	return nil
}

// SetFeeCollector configures where hold and exchange fees accrue. Owner-only.
func (p *AccessPolicy) SetFeeCollector(caller, addr [20]byte) error {
	if addr == ([20]byte{}) {
		return ErrNotZeroAddress
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.owner {
		return ErrUnauthorizedCaller
	}
	p.feeCollector = addr
	return nil
}

// SetAssetSupported toggles a token on the allow-list. Admin-level: owners and
// admins may manage the list. The native coin cannot be disabled.
func (p *AccessPolicy) SetAssetSupported(caller [20]byte, asset Asset, enabled bool) error {
	if asset.IsNative() {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.owner && !p.admins[caller] {
		return ErrUnauthorizedCaller
	}
	if enabled {
		p.assets[asset] = true
	} else {
		delete(p.assets, asset)
	}
	return nil
}

// SetSwapRunning toggles the global swap gate. Owner-only.
func (p *AccessPolicy) SetSwapRunning(caller [20]byte, running bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.owner {
		return ErrUnauthorizedCaller
	}
	p.swapRunning = running
	return nil
}

// Seed applies bootstrap configuration without a caller check. Intended for
// daemon start-up where the values come from the local config file.
func (p *AccessPolicy) Seed(admins [][20]byte, exchange, feeCollector [20]byte, assets []Asset, swapRunning bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, addr := range admins {
		if addr != ([20]byte{}) {
			p.admins[addr] = true
		}
	}
	p.exchange = exchange
	p.feeCollector = feeCollector
	for _, asset := range assets {
		if !asset.IsNative() {
			p.assets[asset] = true
		}
	}
	p.swapRunning = swapRunning
}
