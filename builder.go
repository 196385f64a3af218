package tvmcell

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Builder accumulates bits and references for a single cell. It is bounded
// by MaxBits and MaxRefs; a write that does not fit fails without changing
// the builder. Finalize turns the builder into an immutable Cell, after
// which every write fails with ErrUseAfterFinalize.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	bits *BitBuffer
	refs []*Cell
	done bool
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		bits: NewBitBuffer(MaxBits),
		refs: make([]*Cell, 0, MaxRefs),
	}
}

// BeginCell is an alias for NewBuilder.
func BeginCell() *Builder {
	return NewBuilder()
}

// BitsUsed returns the number of bits written so far.
func (b *Builder) BitsUsed() int { return b.bits.Len() }

// RefsUsed returns the number of references stored so far.
func (b *Builder) RefsUsed() int { return len(b.refs) }

// AvailableBits returns the remaining bit capacity.
func (b *Builder) AvailableBits() int { return b.bits.Available() }

// AvailableRefs returns the remaining reference capacity.
func (b *Builder) AvailableRefs() int { return MaxRefs - len(b.refs) }

func (b *Builder) check() error {
	if b.done {
		return ErrUseAfterFinalize
	}
	return nil
}

func (b *Builder) reserveRefs(n int) error {
	if len(b.refs)+n > MaxRefs {
		return &CapacityError{Refs: true, Have: len(b.refs), Need: n, Available: MaxRefs - len(b.refs)}
	}
	return nil
}

// StoreBit writes a single bit.
func (b *Builder) StoreBit(v bool) error {
	if err := b.check(); err != nil {
		return err
	}
	return b.bits.WriteBit(v)
}

// StoreUint writes v as an unsigned integer of width bits (0-64).
func (b *Builder) StoreUint(v uint64, width int) error {
	if err := b.check(); err != nil {
		return err
	}
	return b.bits.WriteUint(v, width)
}

// StoreInt writes v as a two's-complement integer of width bits (1-64).
func (b *Builder) StoreInt(v int64, width int) error {
	if err := b.check(); err != nil {
		return err
	}
	return b.bits.WriteInt(v, width)
}

// StoreBigUint writes v as an unsigned integer of width bits (0-256).
func (b *Builder) StoreBigUint(v *big.Int, width int) error {
	if err := b.check(); err != nil {
		return err
	}
	return b.bits.WriteBigUint(v, width)
}

// StoreBigInt writes v as a two's-complement integer of width bits (1-257).
func (b *Builder) StoreBigInt(v *big.Int, width int) error {
	if err := b.check(); err != nil {
		return err
	}
	return b.bits.WriteBigInt(v, width)
}

// StoreUint256 writes v as a 256-bit unsigned integer.
func (b *Builder) StoreUint256(v *uint256.Int) error {
	if err := b.check(); err != nil {
		return err
	}
	if v == nil {
		return &RangeError{Width: 256}
	}
	if err := b.bits.reserve(256); err != nil {
		return err
	}
	buf := v.Bytes32()
	b.bits.appendBits(buf[:], 0, 256)
	return nil
}

// StoreBytes writes p as whole bytes.
func (b *Builder) StoreBytes(p []byte) error {
	if err := b.check(); err != nil {
		return err
	}
	return b.bits.WriteBytes(p)
}

// StoreBits writes n bits of src starting at bit offset from.
func (b *Builder) StoreBits(src []byte, from, n int) error {
	if err := b.check(); err != nil {
		return err
	}
	return b.bits.WriteBits(src, from, n)
}

// StoreRef appends a child reference.
func (b *Builder) StoreRef(c *Cell) error {
	if err := b.check(); err != nil {
		return err
	}
	if c == nil {
		return ErrNilCell
	}
	if err := b.reserveRefs(1); err != nil {
		return err
	}
	b.refs = append(b.refs, c)
	return nil
}

// StoreMaybeRef writes the optional-reference convention: a presence bit,
// followed by the reference only when present. Both capacities are checked
// before anything is written.
func (b *Builder) StoreMaybeRef(m Maybe[*Cell]) error {
	if err := b.check(); err != nil {
		return err
	}
	c, ok := m.Get()
	if !ok || c == nil {
		return b.bits.WriteBit(false)
	}
	if err := b.bits.reserve(1); err != nil {
		return err
	}
	if err := b.reserveRefs(1); err != nil {
		return err
	}
	b.bits.appendBit(true)
	b.refs = append(b.refs, c)
	return nil
}

// StoreSlice appends the unread bits and references of s without consuming it.
func (b *Builder) StoreSlice(s *Slice) error {
	if err := b.check(); err != nil {
		return err
	}
	if s == nil {
		return ErrNilCell
	}
	if err := b.bits.reserve(s.RemainingBits()); err != nil {
		return err
	}
	if err := b.reserveRefs(s.RemainingRefs()); err != nil {
		return err
	}
	b.bits.appendBits(s.bits.data, s.bits.pos, s.RemainingBits())
	b.refs = append(b.refs, s.cell.refs[s.ref:]...)
	return nil
}

// StoreCellInline appends the bits and references of c to this builder.
func (b *Builder) StoreCellInline(c *Cell) error {
	if c == nil {
		if err := b.check(); err != nil {
			return err
		}
		return ErrNilCell
	}
	return b.StoreSlice(c.BeginParse())
}

// StoreBuilder appends the current contents of another builder.
func (b *Builder) StoreBuilder(o *Builder) error {
	if err := b.check(); err != nil {
		return err
	}
	if o == nil {
		return ErrNilCell
	}
	if err := b.bits.reserve(o.bits.Len()); err != nil {
		return err
	}
	if err := b.reserveRefs(len(o.refs)); err != nil {
		return err
	}
	b.bits.appendBits(o.bits.data, 0, o.bits.Len())
	b.refs = append(b.refs, o.refs...)
	return nil
}

// Store applies fn to the builder, which lets generated store functions
// compose.
func (b *Builder) Store(fn func(*Builder) error) error {
	if err := b.check(); err != nil {
		return err
	}
	return fn(b)
}

// Finalize returns the immutable cell built so far. The builder cannot be
// used afterwards.
func (b *Builder) Finalize() (*Cell, error) {
	if err := b.check(); err != nil {
		return nil, err
	}
	refs := make([]*Cell, len(b.refs))
	copy(refs, b.refs)
	c, err := newCell(b.bits.Bytes(), b.bits.Len(), refs)
	if err != nil {
		return nil, err
	}
	b.done = true
	return c, nil
}

// EndCell is an alias for Finalize.
func (b *Builder) EndCell() (*Cell, error) {
	return b.Finalize()
}

// MustFinalize is like Finalize but panics on error.
// Use only with builders whose contents are known to be valid.
func (b *Builder) MustFinalize() *Cell {
	c, err := b.Finalize()
	if err != nil {
		panic(err)
	}
	return c
}
