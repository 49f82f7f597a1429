package swapescrow

import (
	"math/big"

	"custodia/native/ledger"
)

// SourceRecord is the per-(initiator, id) escrow record on the outbound side.
// Amount is the net held amount sitting in the initiator's pending balance; a
// zero amount means no active record, so ids are reusable once a record has
// been consumed by completion or cancellation.
type SourceRecord struct {
	Asset  ledger.Asset
	Amount *big.Int
}

// Exists reports whether the record is live.
func (r *SourceRecord) Exists() bool {
	return r != nil && r.Amount != nil && r.Amount.Sign() > 0
}

// Clone returns a deep copy.
func (r *SourceRecord) Clone() *SourceRecord {
	if r == nil {
		return nil
	}
	clone := *r
	if r.Amount != nil {
		clone.Amount = new(big.Int).Set(r.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	return &clone
}

// TargetRecord is the per-(recipient, id) record mirroring a source-side
// request. It represents an expected inbound credit: no funds are escrowed on
// this side, the counterparty's custody balance covers the eventual accept.
// A zero RestrictedCaller leaves acceptance open to the recipient.
type TargetRecord struct {
	Asset            ledger.Asset
	Amount           *big.Int
	Counterparty     [20]byte
	DeliverToWallet  bool
	RestrictedCaller [20]byte
}

// Exists reports whether the record is live.
func (r *TargetRecord) Exists() bool {
	return r != nil && r.Amount != nil && r.Amount.Sign() > 0
}

// Clone returns a deep copy.
func (r *TargetRecord) Clone() *TargetRecord {
	if r == nil {
		return nil
	}
	clone := *r
	if r.Amount != nil {
		clone.Amount = new(big.Int).Set(r.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	return &clone
}
