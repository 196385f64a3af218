package tvmcell

import (
	"encoding/binary"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/minio/sha256-simd"
)

// Cell is an immutable node of the cell tree: at most MaxBits payload bits
// and at most MaxRefs child cells. Children are shared, never copied, so a
// cell graph is a DAG. Cells are only produced by Builder.Finalize and by
// the bag-of-cells decoder, always bottom-up, which rules out cycles.
//
// A Cell is safe for concurrent use. Its hash is computed on first use.
type Cell struct {
	data  []byte
	bits  int
	refs  []*Cell
	depth int

	hashOnce sync.Once
	hash     common.Hash
}

// newCell links a finalized payload with its children.
func newCell(data []byte, bits int, refs []*Cell) (*Cell, error) {
	depth := 0
	for _, r := range refs {
		if r.depth+1 > depth {
			depth = r.depth + 1
		}
	}
	if depth > MaxDepth {
		return nil, ErrDepthLimit
	}
	return &Cell{data: data, bits: bits, refs: refs, depth: depth}, nil
}

// EmptyCell returns a cell with no bits and no references.
func EmptyCell() *Cell {
	return &Cell{}
}

// BitsLen returns the payload length in bits.
func (c *Cell) BitsLen() int { return c.bits }

// Bits returns a copy of the payload packed MSB-first.
func (c *Cell) Bits() []byte {
	out := make([]byte, (c.bits+7)/8)
	copy(out, c.data)
	return out
}

// RefsCount returns the number of child cells.
func (c *Cell) RefsCount() int { return len(c.refs) }

// Ref returns child i, or nil when i is out of range.
func (c *Cell) Ref(i int) *Cell {
	if i < 0 || i >= len(c.refs) {
		return nil
	}
	return c.refs[i]
}

// Refs returns the ordered child list.
func (c *Cell) Refs() []*Cell {
	out := make([]*Cell, len(c.refs))
	copy(out, c.refs)
	return out
}

// Depth returns the length of the longest path to a leaf cell.
func (c *Cell) Depth() int { return c.depth }

// BeginParse returns a fresh slice positioned at the start of the cell.
func (c *Cell) BeginParse() *Slice {
	return &Slice{bits: newBitView(c.data, c.bits), cell: c}
}

// Hash returns the representation hash of the cell. It depends only on the
// payload and the children's hashes and depths.
func (c *Cell) Hash() common.Hash {
	c.hashOnce.Do(func() {
		c.hash = sha256.Sum256(c.repr())
	})
	return c.hash
}

// Equal reports whether two cells have the same content.
func (c *Cell) Equal(o *Cell) bool {
	if c == o {
		return true
	}
	if c == nil || o == nil {
		return false
	}
	return c.Hash() == o.Hash()
}

// descriptors returns the two descriptor bytes of an ordinary level-0 cell.
func (c *Cell) descriptors() (d1, d2 byte) {
	d1 = byte(len(c.refs))
	d2 = byte((c.bits+7)/8 + c.bits/8)
	return d1, d2
}

// paddedData returns the payload with a completion tag when the bit length
// is not byte aligned.
func (c *Cell) paddedData() []byte {
	out := c.Bits()
	if c.bits%8 != 0 {
		out[c.bits/8] |= 0x80 >> (c.bits % 8)
	}
	return out
}

func (c *Cell) repr() []byte {
	d1, d2 := c.descriptors()
	data := c.paddedData()
	buf := make([]byte, 0, 2+len(data)+len(c.refs)*(2+common.HashLength))
	buf = append(buf, d1, d2)
	buf = append(buf, data...)
	for _, r := range c.refs {
		buf = binary.BigEndian.AppendUint16(buf, uint16(r.depth))
	}
	for _, r := range c.refs {
		h := r.Hash()
		buf = append(buf, h[:]...)
	}
	return buf
}

// String renders the cell tree in fift notation, one cell per line with
// children indented by one space.
func (c *Cell) String() string {
	var sb strings.Builder
	c.dump(&sb, "")
	return sb.String()
}

func (c *Cell) dump(sb *strings.Builder, indent string) {
	sb.WriteString(indent)
	sb.WriteString("x{")
	sb.WriteString(bitsHex(c.data, c.bits))
	sb.WriteString("}")
	for _, r := range c.refs {
		sb.WriteString("\n")
		r.dump(sb, indent+" ")
	}
}
