package events

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"custodia/core/types"
)

const (
	TypeSwapRequested       = "swap.requested"
	TypeSwapMirrored        = "swap.mirrored"
	TypeSwapAccepted        = "swap.accepted"
	TypeSwapCompleted       = "swap.completed"
	TypeSwapSourceCancelled = "swap.source_cancelled"
	TypeSwapTargetCancelled = "swap.target_cancelled"
)

// SwapRequested is emitted when a user opens a source-side swap record and the
// requested amount (minus fee) is escrowed into their pending balance. Off-chain
// relayers watch this event to mirror the record on the target side.
type SwapRequested struct {
	Asset     string
	Initiator [20]byte
	ID        uint64
	Amount    *big.Int
	Fee       *big.Int
}

func (SwapRequested) EventType() string { return TypeSwapRequested }

func (e SwapRequested) Event() *types.Event {
	return &types.Event{
		Type: TypeSwapRequested,
		Attributes: map[string]string{
			"asset":     e.Asset,
			"initiator": hex.EncodeToString(e.Initiator[:]),
			"id":        strconv.FormatUint(e.ID, 10),
			"amount":    formatAmount(e.Amount),
			"fee":       formatAmount(e.Fee),
		},
	}
}

type SwapMirrored struct {
	Asset            string
	Recipient        [20]byte
	ID               uint64
	Amount           *big.Int
	DeliverToWallet  bool
	RestrictedCaller [20]byte
}

func (SwapMirrored) EventType() string { return TypeSwapMirrored }

func (e SwapMirrored) Event() *types.Event {
	attrs := map[string]string{
		"asset":           e.Asset,
		"recipient":       hex.EncodeToString(e.Recipient[:]),
		"id":              strconv.FormatUint(e.ID, 10),
		"amount":          formatAmount(e.Amount),
		"deliverToWallet": strconv.FormatBool(e.DeliverToWallet),
	}
	if e.RestrictedCaller != ([20]byte{}) {
		attrs["restrictedCaller"] = hex.EncodeToString(e.RestrictedCaller[:])
	}
	return &types.Event{Type: TypeSwapMirrored, Attributes: attrs}
}

type SwapAccepted struct {
	Asset     string
	Recipient [20]byte
	ID        uint64
	Amount    *big.Int
}

func (SwapAccepted) EventType() string { return TypeSwapAccepted }

func (e SwapAccepted) Event() *types.Event {
	return &types.Event{
		Type: TypeSwapAccepted,
		Attributes: map[string]string{
			"asset":     e.Asset,
			"recipient": hex.EncodeToString(e.Recipient[:]),
			"id":        strconv.FormatUint(e.ID, 10),
			"amount":    formatAmount(e.Amount),
		},
	}
}

type SwapCompleted struct {
	Asset     string
	Initiator [20]byte
	ID        uint64
	Recipient [20]byte
	Amount    *big.Int
	Released  *big.Int
}

func (SwapCompleted) EventType() string { return TypeSwapCompleted }

func (e SwapCompleted) Event() *types.Event {
	return &types.Event{
		Type: TypeSwapCompleted,
		Attributes: map[string]string{
			"asset":     e.Asset,
			"initiator": hex.EncodeToString(e.Initiator[:]),
			"id":        strconv.FormatUint(e.ID, 10),
			"recipient": hex.EncodeToString(e.Recipient[:]),
			"amount":    formatAmount(e.Amount),
			"released":  formatAmount(e.Released),
		},
	}
}

type SwapSourceCancelled struct {
	Asset     string
	Initiator [20]byte
	ID        uint64
	Amount    *big.Int
}

func (SwapSourceCancelled) EventType() string { return TypeSwapSourceCancelled }

func (e SwapSourceCancelled) Event() *types.Event {
	return &types.Event{
		Type: TypeSwapSourceCancelled,
		Attributes: map[string]string{
			"asset":     e.Asset,
			"initiator": hex.EncodeToString(e.Initiator[:]),
			"id":        strconv.FormatUint(e.ID, 10),
			"amount":    formatAmount(e.Amount),
		},
	}
}

type SwapTargetCancelled struct {
	Asset     string
	Recipient [20]byte
	ID        uint64
	Amount    *big.Int
}

func (SwapTargetCancelled) EventType() string { return TypeSwapTargetCancelled }

func (e SwapTargetCancelled) Event() *types.Event {
	return &types.Event{
		Type: TypeSwapTargetCancelled,
		Attributes: map[string]string{
			"asset":     e.Asset,
			"recipient": hex.EncodeToString(e.Recipient[:]),
			"id":        strconv.FormatUint(e.ID, 10),
			"amount":    formatAmount(e.Amount),
		},
	}
}
