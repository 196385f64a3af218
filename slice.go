package tvmcell

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Slice is a forward-only read cursor over a cell's bits and references.
// It never owns or modifies the cell. Every read either consumes exactly
// what it returns or fails without moving either offset.
//
// A Slice is not safe for concurrent use; create one per reader with
// Cell.BeginParse.
type Slice struct {
	bits *BitBuffer
	cell *Cell
	ref  int
}

// RemainingBits returns the number of unread bits.
func (s *Slice) RemainingBits() int { return s.bits.Remaining() }

// RemainingRefs returns the number of unread references.
func (s *Slice) RemainingRefs() int { return len(s.cell.refs) - s.ref }

// BitsOffset returns the number of bits consumed.
func (s *Slice) BitsOffset() int { return s.bits.Pos() }

// RefsOffset returns the number of references consumed.
func (s *Slice) RefsOffset() int { return s.ref }

// IsExhausted reports whether both bits and references are fully consumed.
func (s *Slice) IsExhausted() bool {
	return s.RemainingBits() == 0 && s.RemainingRefs() == 0
}

// EndParse returns a *TrailingDataError if anything remains unread.
func (s *Slice) EndParse() error {
	if s.IsExhausted() {
		return nil
	}
	return &TrailingDataError{Bits: s.RemainingBits(), Refs: s.RemainingRefs()}
}

// LoadBit consumes one bit.
func (s *Slice) LoadBit() (bool, error) {
	return s.bits.ReadBit()
}

// LoadBool is an alias for LoadBit.
func (s *Slice) LoadBool() (bool, error) {
	return s.bits.ReadBit()
}

// LoadUint consumes an unsigned integer of width bits (0-64).
func (s *Slice) LoadUint(width int) (uint64, error) {
	return s.bits.ReadUint(width)
}

// LoadInt consumes a two's-complement integer of width bits (1-64).
func (s *Slice) LoadInt(width int) (int64, error) {
	return s.bits.ReadInt(width)
}

// LoadBigUint consumes an unsigned integer of width bits (0-256).
func (s *Slice) LoadBigUint(width int) (*big.Int, error) {
	return s.bits.ReadBigUint(width)
}

// LoadBigInt consumes a two's-complement integer of width bits (1-257).
func (s *Slice) LoadBigInt(width int) (*big.Int, error) {
	return s.bits.ReadBigInt(width)
}

// LoadUint256 consumes a 256-bit unsigned integer.
func (s *Slice) LoadUint256() (*uint256.Int, error) {
	buf, err := s.bits.ReadBits(256)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes32(buf), nil
}

// LoadBytes consumes n whole bytes.
func (s *Slice) LoadBytes(n int) ([]byte, error) {
	return s.bits.ReadBytes(n)
}

// LoadBits consumes n bits and returns them packed MSB-first.
func (s *Slice) LoadBits(n int) ([]byte, error) {
	return s.bits.ReadBits(n)
}

// SkipBits consumes n bits without returning them.
func (s *Slice) SkipBits(n int) error {
	return s.bits.Skip(n)
}

// PreloadUint reads an unsigned integer without consuming it.
func (s *Slice) PreloadUint(width int) (uint64, error) {
	pos := s.bits.pos
	v, err := s.bits.ReadUint(width)
	s.bits.pos = pos
	return v, err
}

// PreloadBit reads one bit without consuming it.
func (s *Slice) PreloadBit() (bool, error) {
	pos := s.bits.pos
	v, err := s.bits.ReadBit()
	s.bits.pos = pos
	return v, err
}

// LoadRef consumes the next child reference.
func (s *Slice) LoadRef() (*Cell, error) {
	if s.RemainingRefs() == 0 {
		return nil, ErrNoMoreRefs
	}
	c := s.cell.refs[s.ref]
	s.ref++
	return c, nil
}

// PreloadRef returns the next child reference without consuming it.
func (s *Slice) PreloadRef() (*Cell, error) {
	if s.RemainingRefs() == 0 {
		return nil, ErrNoMoreRefs
	}
	return s.cell.refs[s.ref], nil
}

// LoadMaybeRef reads the optional-reference convention written by
// Builder.StoreMaybeRef. A set presence bit with no reference left fails
// without consuming the bit.
func (s *Slice) LoadMaybeRef() (Maybe[*Cell], error) {
	present, err := s.PreloadBit()
	if err != nil {
		return None[*Cell](), err
	}
	if present && s.RemainingRefs() == 0 {
		return None[*Cell](), ErrNoMoreRefs
	}
	s.bits.pos++
	if !present {
		return None[*Cell](), nil
	}
	c := s.cell.refs[s.ref]
	s.ref++
	return Some(c), nil
}

// LoadSlice consumes bits and refs into a new independent slice.
func (s *Slice) LoadSlice(bits, refs int) (*Slice, error) {
	if err := s.bits.need(bits); err != nil {
		return nil, err
	}
	if refs < 0 || refs > s.RemainingRefs() {
		return nil, ErrNoMoreRefs
	}
	b := NewBuilder()
	b.bits.appendBits(s.bits.data, s.bits.pos, bits)
	b.refs = append(b.refs, s.cell.refs[s.ref:s.ref+refs]...)
	c, err := b.Finalize()
	if err != nil {
		return nil, err
	}
	s.bits.pos += bits
	s.ref += refs
	return c.BeginParse(), nil
}

// ToCell returns the unread part of the slice as a new cell. The slice is
// not advanced.
func (s *Slice) ToCell() (*Cell, error) {
	if s.bits.pos == 0 && s.ref == 0 {
		return s.cell, nil
	}
	b := NewBuilder()
	if err := b.StoreSlice(s); err != nil {
		return nil, err
	}
	return b.Finalize()
}

// LoadRemainder consumes everything left and returns it as a cell.
func (s *Slice) LoadRemainder() (*Cell, error) {
	c, err := s.ToCell()
	if err != nil {
		return nil, err
	}
	s.bits.pos = s.bits.n
	s.ref = len(s.cell.refs)
	return c, nil
}

// Clone returns an independent cursor at the same offsets.
func (s *Slice) Clone() *Slice {
	bits := newBitView(s.bits.data, s.bits.n)
	bits.pos = s.bits.pos
	return &Slice{bits: bits, cell: s.cell, ref: s.ref}
}
