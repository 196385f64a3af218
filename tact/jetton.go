package tact

import (
	"fmt"
	"math/big"

	"github.com/branched-services/go-tvmcell"
)

// OpTokenTransfer is the message header of a jetton transfer.
const OpTokenTransfer uint32 = 0x0f8a7ea5

// TokenTransfer asks a jetton wallet to move Amount to Destination's wallet.
type TokenTransfer struct {
	QueryID             uint64
	Amount              *big.Int // coins
	Destination         *tvmcell.Address
	ResponseDestination *tvmcell.Address
	CustomPayload       *tvmcell.Cell // optional
	ForwardTonAmount    *big.Int      // coins
	ForwardPayload      *tvmcell.Cell // stored inline as the rest of the body; nil is empty
}

// Store writes the header and fields. ForwardPayload's bits and references
// are appended inline.
func (x *TokenTransfer) Store(b *tvmcell.Builder) error {
	if x.Destination == nil {
		return fieldErr("TokenTransfer", "destination", ErrMissingField)
	}
	if x.ResponseDestination == nil {
		return fieldErr("TokenTransfer", "response_destination", ErrMissingField)
	}
	if err := b.StoreUint(uint64(OpTokenTransfer), 32); err != nil {
		return fieldErr("TokenTransfer", "$header", err)
	}
	if err := b.StoreUint(x.QueryID, 64); err != nil {
		return fieldErr("TokenTransfer", "query_id", err)
	}
	if err := b.StoreCoins(x.Amount); err != nil {
		return fieldErr("TokenTransfer", "amount", err)
	}
	if err := b.StoreAddress(x.Destination); err != nil {
		return fieldErr("TokenTransfer", "destination", err)
	}
	if err := b.StoreAddress(x.ResponseDestination); err != nil {
		return fieldErr("TokenTransfer", "response_destination", err)
	}
	if err := b.StoreMaybeRef(tvmcell.MaybeOf(x.CustomPayload)); err != nil {
		return fieldErr("TokenTransfer", "custom_payload", err)
	}
	if err := b.StoreCoins(x.ForwardTonAmount); err != nil {
		return fieldErr("TokenTransfer", "forward_ton_amount", err)
	}
	if x.ForwardPayload == nil {
		return nil
	}
	return fieldErr("TokenTransfer", "forward_payload", b.StoreCellInline(x.ForwardPayload))
}

// LoadTokenTransfer reads a TokenTransfer, consuming the whole slice: the
// forward payload is everything after the fixed fields.
func LoadTokenTransfer(s *tvmcell.Slice) (*TokenTransfer, error) {
	p := s.Clone()
	op, err := p.LoadUint(32)
	if err != nil {
		return nil, fieldErr("TokenTransfer", "$header", err)
	}
	if uint32(op) != OpTokenTransfer {
		return nil, fieldErr("TokenTransfer", "$header",
			fmt.Errorf("%w: got 0x%08x, want 0x%08x", ErrInvalidPrefix, op, OpTokenTransfer))
	}
	x := &TokenTransfer{}
	if x.QueryID, err = p.LoadUint(64); err != nil {
		return nil, fieldErr("TokenTransfer", "query_id", err)
	}
	if x.Amount, err = p.LoadCoins(); err != nil {
		return nil, fieldErr("TokenTransfer", "amount", err)
	}
	if x.Destination, err = p.LoadAddress(); err != nil {
		return nil, fieldErr("TokenTransfer", "destination", err)
	}
	if x.ResponseDestination, err = p.LoadAddress(); err != nil {
		return nil, fieldErr("TokenTransfer", "response_destination", err)
	}
	custom, err := p.LoadMaybeRef()
	if err != nil {
		return nil, fieldErr("TokenTransfer", "custom_payload", err)
	}
	x.CustomPayload = custom.OrElse(nil)
	if x.ForwardTonAmount, err = p.LoadCoins(); err != nil {
		return nil, fieldErr("TokenTransfer", "forward_ton_amount", err)
	}
	if x.ForwardPayload, err = p.LoadRemainder(); err != nil {
		return nil, fieldErr("TokenTransfer", "forward_payload", err)
	}
	*s = *p
	return x, nil
}

// CommentPayload returns an inline forward payload carrying a text comment:
// a zero "in reference" bit, a zero 32-bit op, then the text as a snake
// string.
func CommentPayload(text string) (*tvmcell.Cell, error) {
	b := tvmcell.BeginCell()
	if err := b.StoreBit(false); err != nil {
		return nil, err
	}
	if err := b.StoreUint(0, 32); err != nil {
		return nil, err
	}
	if err := b.StoreStringTail(text); err != nil {
		return nil, err
	}
	return b.EndCell()
}
