package tvmcell

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
)

// Capacity constants of the canonical cell format.
const (
	// MaxBits is the payload capacity of a single cell in bits.
	MaxBits = 1023

	// MaxRefs is the maximum number of child references per cell.
	MaxRefs = 4

	// MaxDepth is the maximum depth of a cell tree.
	MaxDepth = 1024

	// MaxUintWidth is the widest unsigned integer a single write accepts.
	MaxUintWidth = 256

	// MaxIntWidth is the widest signed integer a single write accepts (Int257).
	MaxIntWidth = 257
)

// BitBuffer is a bounded sequence of bits stored MSB-first.
//
// Writes append at the end and fail with a *CapacityError once the bound is
// reached. Reads consume from an independent cursor and fail with an
// *UnderflowError past the written length. Every operation either completes
// or leaves the buffer untouched.
//
// A BitBuffer is not safe for concurrent use.
type BitBuffer struct {
	data []byte
	n    int // bits written
	max  int // capacity in bits
	pos  int // read cursor
}

// NewBitBuffer returns an empty buffer holding at most max bits.
func NewBitBuffer(max int) *BitBuffer {
	if max < 0 {
		max = 0
	}
	return &BitBuffer{
		data: make([]byte, 0, (max+7)/8),
		max:  max,
	}
}

// newBitView returns a read-only cursor over the first n bits of data.
// The data slice is shared, never written.
func newBitView(data []byte, n int) *BitBuffer {
	return &BitBuffer{data: data, n: n, max: n}
}

// Len returns the number of bits written.
func (b *BitBuffer) Len() int { return b.n }

// Cap returns the capacity in bits.
func (b *BitBuffer) Cap() int { return b.max }

// Available returns how many more bits can be written.
func (b *BitBuffer) Available() int { return b.max - b.n }

// Remaining returns how many written bits have not been read yet.
func (b *BitBuffer) Remaining() int { return b.n - b.pos }

// Pos returns the read cursor position.
func (b *BitBuffer) Pos() int { return b.pos }

// Bytes returns a copy of the written bits packed MSB-first.
// Unused bits of the final byte are zero.
func (b *BitBuffer) Bytes() []byte {
	out := make([]byte, (b.n+7)/8)
	copy(out, b.data)
	return out
}

// Bit returns bit i of the written data.
func (b *BitBuffer) Bit(i int) bool {
	return bitAt(b.data, i)
}

// String renders the written bits as fift-style hex.
func (b *BitBuffer) String() string {
	return bitsHex(b.data, b.n)
}

func bitAt(data []byte, i int) bool {
	return data[i/8]&(0x80>>(i%8)) != 0
}

func (b *BitBuffer) reserve(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d bits", ErrInvalidWidth, n)
	}
	if n > b.Available() {
		return &CapacityError{Have: b.n, Need: n, Available: b.Available()}
	}
	return nil
}

func (b *BitBuffer) need(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d bits", ErrInvalidWidth, n)
	}
	if n > b.Remaining() {
		return &UnderflowError{Want: n, Remaining: b.Remaining()}
	}
	return nil
}

// appendBit writes one bit without a capacity check.
func (b *BitBuffer) appendBit(v bool) {
	if b.n%8 == 0 {
		b.data = append(b.data, 0)
	}
	if v {
		b.data[b.n/8] |= 0x80 >> (b.n % 8)
	}
	b.n++
}

// appendBits copies n bits of src starting at bit offset from, unchecked.
func (b *BitBuffer) appendBits(src []byte, from, n int) {
	if b.n%8 == 0 && from%8 == 0 {
		whole := n / 8
		b.data = append(b.data, src[from/8:from/8+whole]...)
		b.n += whole * 8
		from += whole * 8
		n -= whole * 8
	}
	for i := 0; i < n; i++ {
		b.appendBit(bitAt(src, from+i))
	}
}

// appendUint writes the low width bits of v, unchecked.
func (b *BitBuffer) appendUint(v uint64, width int) {
	for i := width - 1; i >= 0; i-- {
		b.appendBit((v>>uint(i))&1 == 1)
	}
}

// WriteBit appends a single bit.
func (b *BitBuffer) WriteBit(v bool) error {
	if err := b.reserve(1); err != nil {
		return err
	}
	b.appendBit(v)
	return nil
}

// WriteUint appends v as an unsigned integer of width bits (0-64).
func (b *BitBuffer) WriteUint(v uint64, width int) error {
	if width < 0 || width > 64 {
		return fmt.Errorf("%w: uint%d", ErrInvalidWidth, width)
	}
	if width < 64 && v>>uint(width) != 0 {
		return &RangeError{Width: width, Value: new(big.Int).SetUint64(v)}
	}
	if err := b.reserve(width); err != nil {
		return err
	}
	b.appendUint(v, width)
	return nil
}

// WriteInt appends v as a two's-complement integer of width bits (1-64).
func (b *BitBuffer) WriteInt(v int64, width int) error {
	if width < 1 || width > 64 {
		return fmt.Errorf("%w: int%d", ErrInvalidWidth, width)
	}
	if width < 64 {
		lim := int64(1) << uint(width-1)
		if v < -lim || v >= lim {
			return &RangeError{Width: width, Signed: true, Value: big.NewInt(v)}
		}
	}
	if err := b.reserve(width); err != nil {
		return err
	}
	b.appendUint(uint64(v), width)
	return nil
}

// WriteBigUint appends a non-negative v as an unsigned integer of width bits (0-256).
func (b *BitBuffer) WriteBigUint(v *big.Int, width int) error {
	if width < 0 || width > MaxUintWidth {
		return fmt.Errorf("%w: uint%d", ErrInvalidWidth, width)
	}
	if v == nil || v.Sign() < 0 || v.BitLen() > width {
		return &RangeError{Width: width, Value: copyBig(v)}
	}
	if err := b.reserve(width); err != nil {
		return err
	}
	b.appendBigUint(v, width)
	return nil
}

// WriteBigInt appends v as a two's-complement integer of width bits (1-257).
func (b *BitBuffer) WriteBigInt(v *big.Int, width int) error {
	if width < 1 || width > MaxIntWidth {
		return fmt.Errorf("%w: int%d", ErrInvalidWidth, width)
	}
	if v == nil || !fitsSigned(v, width) {
		return &RangeError{Width: width, Signed: true, Value: copyBig(v)}
	}
	if err := b.reserve(width); err != nil {
		return err
	}
	u := v
	if v.Sign() < 0 {
		u = new(big.Int).Lsh(big.NewInt(1), uint(width))
		u.Add(u, v)
	}
	b.appendBigUint(u, width)
	return nil
}

func (b *BitBuffer) appendBigUint(v *big.Int, width int) {
	if width == 0 {
		return
	}
	nbytes := (width + 7) / 8
	buf := math.PaddedBigBytes(v, nbytes)
	b.appendBits(buf, nbytes*8-width, width)
}

func fitsSigned(v *big.Int, width int) bool {
	if v.Sign() >= 0 {
		return v.BitLen() <= width-1
	}
	// -v-1 must fit in width-1 bits
	m := new(big.Int).Neg(v)
	m.Sub(m, big.NewInt(1))
	return m.BitLen() <= width-1
}

func copyBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

// WriteBytes appends p as whole bytes.
func (b *BitBuffer) WriteBytes(p []byte) error {
	if err := b.reserve(len(p) * 8); err != nil {
		return err
	}
	b.appendBits(p, 0, len(p)*8)
	return nil
}

// WriteBits appends n bits taken from src starting at bit offset from.
func (b *BitBuffer) WriteBits(src []byte, from, n int) error {
	if from < 0 || n < 0 || (from+n+7)/8 > len(src) {
		return fmt.Errorf("%w: %d bits at offset %d from %d bytes", ErrInvalidWidth, n, from, len(src))
	}
	if err := b.reserve(n); err != nil {
		return err
	}
	b.appendBits(src, from, n)
	return nil
}

// readUint consumes width bits (0-64), unchecked.
func (b *BitBuffer) readUint(width int) uint64 {
	var v uint64
	for i := 0; i < width; i++ {
		v <<= 1
		if bitAt(b.data, b.pos) {
			v |= 1
		}
		b.pos++
	}
	return v
}

// ReadBit consumes a single bit.
func (b *BitBuffer) ReadBit() (bool, error) {
	if err := b.need(1); err != nil {
		return false, err
	}
	v := bitAt(b.data, b.pos)
	b.pos++
	return v, nil
}

// ReadUint consumes an unsigned integer of width bits (0-64).
func (b *BitBuffer) ReadUint(width int) (uint64, error) {
	if width < 0 || width > 64 {
		return 0, fmt.Errorf("%w: uint%d", ErrInvalidWidth, width)
	}
	if err := b.need(width); err != nil {
		return 0, err
	}
	return b.readUint(width), nil
}

// ReadInt consumes a two's-complement integer of width bits (1-64).
func (b *BitBuffer) ReadInt(width int) (int64, error) {
	if width < 1 || width > 64 {
		return 0, fmt.Errorf("%w: int%d", ErrInvalidWidth, width)
	}
	if err := b.need(width); err != nil {
		return 0, err
	}
	u := b.readUint(width)
	shift := uint(64 - width)
	return int64(u<<shift) >> shift, nil
}

// ReadBigUint consumes an unsigned integer of width bits (0-256).
func (b *BitBuffer) ReadBigUint(width int) (*big.Int, error) {
	if width < 0 || width > MaxUintWidth {
		return nil, fmt.Errorf("%w: uint%d", ErrInvalidWidth, width)
	}
	if err := b.need(width); err != nil {
		return nil, err
	}
	return b.readBigUint(width), nil
}

func (b *BitBuffer) readBigUint(width int) *big.Int {
	v := new(big.Int)
	for width > 0 {
		chunk := width
		if chunk > 64 {
			chunk = 64
		}
		v.Lsh(v, uint(chunk))
		v.Or(v, new(big.Int).SetUint64(b.readUint(chunk)))
		width -= chunk
	}
	return v
}

// ReadBigInt consumes a two's-complement integer of width bits (1-257).
func (b *BitBuffer) ReadBigInt(width int) (*big.Int, error) {
	if width < 1 || width > MaxIntWidth {
		return nil, fmt.Errorf("%w: int%d", ErrInvalidWidth, width)
	}
	if err := b.need(width); err != nil {
		return nil, err
	}
	v := b.readBigUint(width)
	if v.Bit(width-1) == 1 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(width)))
	}
	return v, nil
}

// ReadBytes consumes n whole bytes.
func (b *BitBuffer) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidWidth, n)
	}
	return b.ReadBits(n * 8)
}

// ReadBits consumes n bits and returns them packed MSB-first.
func (b *BitBuffer) ReadBits(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d bits", ErrInvalidWidth, n)
	}
	if err := b.need(n); err != nil {
		return nil, err
	}
	out := NewBitBuffer(n)
	out.appendBits(b.data, b.pos, n)
	b.pos += n
	return out.data, nil
}

// Skip advances the read cursor by n bits.
func (b *BitBuffer) Skip(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d bits", ErrInvalidWidth, n)
	}
	if err := b.need(n); err != nil {
		return err
	}
	b.pos += n
	return nil
}

// bitsHex renders n bits of data in fift notation: uppercase hex, with a
// trailing '_' when n is not a multiple of four and the final nibble carries
// a completion tag.
func bitsHex(data []byte, n int) string {
	if n%4 == 0 {
		s := hex.EncodeToString(data[:(n+7)/8])
		return strings.ToUpper(s[:n/4])
	}
	buf := NewBitBuffer(n + 4)
	buf.appendBits(data, 0, n)
	buf.appendBit(true)
	for buf.n%4 != 0 {
		buf.appendBit(false)
	}
	s := hex.EncodeToString(buf.data)
	return strings.ToUpper(s[:buf.n/4]) + "_"
}
