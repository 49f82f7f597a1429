package state

import (
	"errors"
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"custodia/native/ledger"
	"custodia/native/swapescrow"
	"custodia/storage"
)

var (
	balancePrefix    = []byte("custody/balance/")
	lockPrefix       = []byte("custody/lock/")
	swapSourcePrefix = []byte("custody/swap/source/")
	swapTargetPrefix = []byte("custody/swap/target/")
)

// Manager persists custody state in the underlying key-value store. It
// implements the state surfaces required by both the balance ledger and the
// swap coordinator, with explicit absent-is-zero semantics: missing balances
// read as zero, missing records as none, and zeroed records are deleted so
// ids become reusable.
type Manager struct {
	db storage.Database
}

// NewManager constructs a manager bound to the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func balanceKey(asset ledger.Asset, account [20]byte) []byte {
	buf := make([]byte, 0, len(balancePrefix)+40)
	buf = append(buf, balancePrefix...)
	buf = append(buf, asset[:]...)
	buf = append(buf, account[:]...)
	return ethcrypto.Keccak256(buf)
}

func lockKey(account [20]byte) []byte {
	buf := make([]byte, 0, len(lockPrefix)+20)
	buf = append(buf, lockPrefix...)
	buf = append(buf, account[:]...)
	return ethcrypto.Keccak256(buf)
}

func swapKey(prefix []byte, account [20]byte, id uint64) []byte {
	buf := make([]byte, 0, len(prefix)+28)
	buf = append(buf, prefix...)
	buf = append(buf, account[:]...)
	var idBytes [8]byte
	for i := 0; i < 8; i++ {
		idBytes[7-i] = byte(id >> (8 * i))
	}
	buf = append(buf, idBytes[:]...)
	return ethcrypto.Keccak256(buf)
}

type storedBalance struct {
	Available *big.Int
	Pending   *big.Int
}

type storedLock struct {
	UnlockTime uint64
	Delegate   [20]byte
}

type storedSourceRecord struct {
	Asset  [20]byte
	Amount *big.Int
}

type storedTargetRecord struct {
	Asset            [20]byte
	Amount           *big.Int
	Counterparty     [20]byte
	DeliverToWallet  bool
	RestrictedCaller [20]byte
}

func (m *Manager) get(key []byte, out interface{}) (bool, error) {
	raw, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %T: %w", out, err)
	}
	return true, nil
}

func (m *Manager) put(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode %T: %w", value, err)
	}
	return m.db.Put(key, encoded)
}

// BalanceGet implements ledger.State. Absent balances read as zero.
func (m *Manager) BalanceGet(asset ledger.Asset, account [20]byte) (*ledger.Balance, error) {
	var stored storedBalance
	ok, err := m.get(balanceKey(asset, account), &stored)
	if err != nil {
		return nil, err
	}
	balance := ledger.NewBalance()
	if !ok {
		return balance, nil
	}
	if stored.Available != nil {
		v, overflow := uint256.FromBig(stored.Available)
		if overflow {
			return nil, fmt.Errorf("state: stored available balance out of range")
		}
		balance.Available = v
	}
	if stored.Pending != nil {
		v, overflow := uint256.FromBig(stored.Pending)
		if overflow {
			return nil, fmt.Errorf("state: stored pending balance out of range")
		}
		balance.Pending = v
	}
	return balance, nil
}

// BalancePut implements ledger.State. Fully zeroed balances are deleted to
// keep the store sparse.
func (m *Manager) BalancePut(asset ledger.Asset, account [20]byte, balance *ledger.Balance) error {
	key := balanceKey(asset, account)
	if balance == nil || ((balance.Available == nil || balance.Available.IsZero()) && (balance.Pending == nil || balance.Pending.IsZero())) {
		return m.db.Delete(key)
	}
	stored := storedBalance{Available: big.NewInt(0), Pending: big.NewInt(0)}
	if balance.Available != nil {
		stored.Available = balance.Available.ToBig()
	}
	if balance.Pending != nil {
		stored.Pending = balance.Pending.ToBig()
	}
	return m.put(key, &stored)
}

// LockGet implements ledger.State.
func (m *Manager) LockGet(account [20]byte) (*ledger.LockRecord, bool, error) {
	var stored storedLock
	ok, err := m.get(lockKey(account), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &ledger.LockRecord{UnlockTime: stored.UnlockTime, Delegate: stored.Delegate}, true, nil
}

// LockPut implements ledger.State.
func (m *Manager) LockPut(account [20]byte, record *ledger.LockRecord) error {
	if record == nil {
		return m.db.Delete(lockKey(account))
	}
	return m.put(lockKey(account), &storedLock{UnlockTime: record.UnlockTime, Delegate: record.Delegate})
}

// SwapSourceGet implements swapescrow.State. Absent records read as none.
func (m *Manager) SwapSourceGet(account [20]byte, id uint64) (*swapescrow.SourceRecord, error) {
	var stored storedSourceRecord
	ok, err := m.get(swapKey(swapSourcePrefix, account, id), &stored)
	if err != nil || !ok {
		return nil, err
	}
	return &swapescrow.SourceRecord{Asset: ledger.Asset(stored.Asset), Amount: stored.Amount}, nil
}

// SwapSourcePut implements swapescrow.State. Nil or zero-amount records clear
// the slot so the id becomes reusable.
func (m *Manager) SwapSourcePut(account [20]byte, id uint64, record *swapescrow.SourceRecord) error {
	key := swapKey(swapSourcePrefix, account, id)
	if !record.Exists() {
		return m.db.Delete(key)
	}
	return m.put(key, &storedSourceRecord{Asset: [20]byte(record.Asset), Amount: record.Amount})
}

// SwapTargetGet implements swapescrow.State.
func (m *Manager) SwapTargetGet(account [20]byte, id uint64) (*swapescrow.TargetRecord, error) {
	var stored storedTargetRecord
	ok, err := m.get(swapKey(swapTargetPrefix, account, id), &stored)
	if err != nil || !ok {
		return nil, err
	}
	return &swapescrow.TargetRecord{
		Asset:            ledger.Asset(stored.Asset),
		Amount:           stored.Amount,
		Counterparty:     stored.Counterparty,
		DeliverToWallet:  stored.DeliverToWallet,
		RestrictedCaller: stored.RestrictedCaller,
	}, nil
}

// SwapTargetPut implements swapescrow.State.
func (m *Manager) SwapTargetPut(account [20]byte, id uint64, record *swapescrow.TargetRecord) error {
	key := swapKey(swapTargetPrefix, account, id)
	if !record.Exists() {
		return m.db.Delete(key)
	}
	return m.put(key, &storedTargetRecord{
		Asset:            [20]byte(record.Asset),
		Amount:           record.Amount,
		Counterparty:     record.Counterparty,
		DeliverToWallet:  record.DeliverToWallet,
		RestrictedCaller: record.RestrictedCaller,
	})
}
