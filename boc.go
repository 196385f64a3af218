package tvmcell

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Bag-of-cells magic prefixes.
const (
	// BoCMagic is the generic serialized_boc prefix.
	BoCMagic uint32 = 0xb5ee9c72

	// BoCMagicIndexed is the legacy single-root prefix with an index.
	BoCMagicIndexed uint32 = 0x68ff65f3

	// BoCMagicIndexedCRC is the legacy prefix with an index and a CRC32-C.
	BoCMagicIndexedCRC uint32 = 0xacc3a728
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// bocIndex assigns each distinct cell a position, parents before children.
// Identical cells share one position.
type bocIndex struct {
	order []*Cell
	index map[common.Hash]int
	seen  map[common.Hash]bool
}

func newBoCIndex(roots []*Cell) *bocIndex {
	ix := &bocIndex{
		order: make([]*Cell, 0, 16),
		index: make(map[common.Hash]int),
		seen:  make(map[common.Hash]bool),
	}
	// Reversed postorder: every child follows all of its parents, and a
	// single root takes index 0.
	for i := len(roots) - 1; i >= 0; i-- {
		ix.visit(roots[i])
	}
	for i, j := 0, len(ix.order)-1; i < j; i, j = i+1, j-1 {
		ix.order[i], ix.order[j] = ix.order[j], ix.order[i]
	}
	for i, c := range ix.order {
		ix.index[c.Hash()] = i
	}
	return ix
}

func (ix *bocIndex) visit(c *Cell) {
	h := c.Hash()
	if ix.seen[h] {
		return
	}
	ix.seen[h] = true
	for _, r := range c.refs {
		ix.visit(r)
	}
	ix.order = append(ix.order, c)
}

// bytesFor returns the number of bytes needed to hold v, at least one.
func bytesFor(v int) int {
	n := 1
	for v >= 1<<(8*n) && n < 8 {
		n++
	}
	return n
}

func appendBE(buf []byte, v uint64, n int) []byte {
	for i := n - 1; i >= 0; i-- {
		buf = append(buf, byte(v>>(8*uint(i))))
	}
	return buf
}

// SerializeBoC encodes roots and everything reachable from them as a bag of
// cells with the generic magic.
func SerializeBoC(roots []*Cell, opts ...BoCOption) ([]byte, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: no roots", ErrInvalidBoC)
	}
	for _, r := range roots {
		if r == nil {
			return nil, ErrNilCell
		}
	}
	cfg := defaultBoCConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	ix := newBoCIndex(roots)
	sizeBytes := bytesFor(len(ix.order))

	cellData := make([]byte, 0, len(ix.order)*16)
	ends := make([]int, len(ix.order))
	for i, c := range ix.order {
		d1, d2 := c.descriptors()
		cellData = append(cellData, d1, d2)
		cellData = append(cellData, c.paddedData()...)
		for _, r := range c.refs {
			cellData = appendBE(cellData, uint64(ix.index[r.Hash()]), sizeBytes)
		}
		ends[i] = len(cellData)
	}
	offBytes := bytesFor(len(cellData))

	var flags byte
	if cfg.withIndex {
		flags |= 0x80
	}
	if cfg.withCRC32C {
		flags |= 0x40
	}
	if cfg.withIndex && cfg.cacheBits {
		flags |= 0x20
	}
	flags |= byte(sizeBytes)

	out := make([]byte, 0, 32+len(cellData))
	out = binary.BigEndian.AppendUint32(out, BoCMagic)
	out = append(out, flags, byte(offBytes))
	out = appendBE(out, uint64(len(ix.order)), sizeBytes)
	out = appendBE(out, uint64(len(roots)), sizeBytes)
	out = appendBE(out, 0, sizeBytes) // absent
	out = appendBE(out, uint64(len(cellData)), offBytes)
	for _, r := range roots {
		out = appendBE(out, uint64(ix.index[r.Hash()]), sizeBytes)
	}
	if cfg.withIndex {
		for _, end := range ends {
			v := uint64(end)
			if cfg.cacheBits {
				v <<= 1
			}
			out = appendBE(out, v, offBytes)
		}
	}
	out = append(out, cellData...)
	if cfg.withCRC32C {
		out = binary.LittleEndian.AppendUint32(out, crc32.Checksum(out, castagnoli))
	}
	return out, nil
}

// bocReader is a bounds-checked cursor over a serialized blob.
type bocReader struct {
	data []byte
	off  int
}

func (r *bocReader) fail(err error) error {
	return &BoCError{Offset: r.off, Err: err}
}

func (r *bocReader) take(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.data) {
		return nil, r.fail(io.ErrUnexpectedEOF)
	}
	p := r.data[r.off : r.off+n]
	r.off += n
	return p, nil
}

func (r *bocReader) uint(n int) (int, error) {
	p, err := r.take(n)
	if err != nil {
		return 0, err
	}
	var v uint64
	for _, b := range p {
		v = v<<8 | uint64(b)
	}
	if v > uint64(len(r.data))*8 {
		return 0, r.fail(fmt.Errorf("value %d exceeds blob size", v))
	}
	return int(v), nil
}

type rawCell struct {
	data []byte
	bits int
	refs []int
}

// DeserializeBoC decodes a bag of cells and returns its roots.
func DeserializeBoC(data []byte) ([]*Cell, error) {
	r := &bocReader{data: data}
	head, err := r.take(4)
	if err != nil {
		return nil, err
	}
	magic := binary.BigEndian.Uint32(head)

	var hasIdx, hasCRC bool
	var sizeBytes int
	switch magic {
	case BoCMagic:
		p, err := r.take(1)
		if err != nil {
			return nil, err
		}
		hasIdx = p[0]&0x80 != 0
		hasCRC = p[0]&0x40 != 0
		if p[0]&0x18 != 0 {
			return nil, r.fail(errors.New("reserved flags set"))
		}
		sizeBytes = int(p[0] & 0x07)
	case BoCMagicIndexed, BoCMagicIndexedCRC:
		hasIdx = true
		hasCRC = magic == BoCMagicIndexedCRC
		p, err := r.take(1)
		if err != nil {
			return nil, err
		}
		sizeBytes = int(p[0])
	default:
		return nil, r.fail(fmt.Errorf("unknown magic 0x%08x", magic))
	}
	if sizeBytes < 1 || sizeBytes > 4 {
		return nil, r.fail(fmt.Errorf("size field of %d bytes", sizeBytes))
	}

	if hasCRC {
		if len(data) < 8 {
			return nil, r.fail(io.ErrUnexpectedEOF)
		}
		body := data[:len(data)-4]
		want := binary.LittleEndian.Uint32(data[len(data)-4:])
		if crc32.Checksum(body, castagnoli) != want {
			return nil, r.fail(errors.New("crc32c mismatch"))
		}
		r.data = body
	}

	p, err := r.take(1)
	if err != nil {
		return nil, err
	}
	offBytes := int(p[0])
	if offBytes < 1 || offBytes > 8 {
		return nil, r.fail(fmt.Errorf("offset field of %d bytes", offBytes))
	}

	cellCount, err := r.uint(sizeBytes)
	if err != nil {
		return nil, err
	}
	rootCount, err := r.uint(sizeBytes)
	if err != nil {
		return nil, err
	}
	absent, err := r.uint(sizeBytes)
	if err != nil {
		return nil, err
	}
	if rootCount < 1 || rootCount+absent > cellCount {
		return nil, r.fail(fmt.Errorf("%d roots and %d absent of %d cells", rootCount, absent, cellCount))
	}
	if absent != 0 {
		return nil, r.fail(errors.New("absent cells are not supported"))
	}
	totalSize, err := r.uint(offBytes)
	if err != nil {
		return nil, err
	}

	rootIdx := []int{0}
	if magic == BoCMagic {
		rootIdx = make([]int, rootCount)
		for i := range rootIdx {
			if rootIdx[i], err = r.uint(sizeBytes); err != nil {
				return nil, err
			}
			if rootIdx[i] >= cellCount {
				return nil, r.fail(fmt.Errorf("root index %d out of range", rootIdx[i]))
			}
		}
	} else if rootCount != 1 {
		return nil, r.fail(fmt.Errorf("legacy format with %d roots", rootCount))
	}
	if hasIdx {
		if _, err := r.take(cellCount * offBytes); err != nil {
			return nil, err
		}
	}

	start := r.off
	raw := make([]rawCell, cellCount)
	for i := range raw {
		if raw[i], err = readRawCell(r, sizeBytes); err != nil {
			return nil, err
		}
	}
	if r.off-start != totalSize {
		return nil, r.fail(fmt.Errorf("cell data is %d bytes, header says %d", r.off-start, totalSize))
	}
	if r.off != len(r.data) {
		return nil, r.fail(fmt.Errorf("%d trailing bytes", len(r.data)-r.off))
	}

	cells := make([]*Cell, cellCount)
	for i := cellCount - 1; i >= 0; i-- {
		refs := make([]*Cell, len(raw[i].refs))
		for j, ri := range raw[i].refs {
			if ri <= i || ri >= cellCount {
				return nil, &BoCError{Offset: start, Err: fmt.Errorf("cell %d references cell %d", i, ri)}
			}
			refs[j] = cells[ri]
		}
		c, err := newCell(raw[i].data, raw[i].bits, refs)
		if err != nil {
			return nil, &BoCError{Offset: start, Err: err}
		}
		cells[i] = c
	}

	roots := make([]*Cell, len(rootIdx))
	for i, ri := range rootIdx {
		roots[i] = cells[ri]
	}
	return roots, nil
}

func readRawCell(r *bocReader, sizeBytes int) (rawCell, error) {
	desc, err := r.take(2)
	if err != nil {
		return rawCell{}, err
	}
	d1, d2 := desc[0], desc[1]
	refCount := int(d1 & 0x07)
	exotic := d1&0x08 != 0
	withHashes := d1&0x10 != 0
	level := int(d1 >> 5)
	if refCount > MaxRefs {
		return rawCell{}, r.fail(fmt.Errorf("cell with %d refs", refCount))
	}
	if exotic || level != 0 {
		return rawCell{}, r.fail(ErrUnsupportedCell)
	}
	if withHashes {
		if _, err := r.take(common.HashLength + 2); err != nil {
			return rawCell{}, err
		}
	}

	dataLen := (int(d2) + 1) / 2
	payload, err := r.take(dataLen)
	if err != nil {
		return rawCell{}, err
	}
	bits := dataLen * 8
	data := make([]byte, dataLen)
	copy(data, payload)
	if d2%2 == 1 {
		last := data[dataLen-1]
		if last == 0 {
			return rawCell{}, r.fail(errors.New("missing completion tag"))
		}
		tz := 0
		for last&(1<<uint(tz)) == 0 {
			tz++
		}
		bits -= tz + 1
		data[dataLen-1] &^= 1 << uint(tz)
	}
	if bits > MaxBits {
		return rawCell{}, r.fail(fmt.Errorf("cell with %d bits", bits))
	}

	refs := make([]int, refCount)
	for i := range refs {
		if refs[i], err = r.uint(sizeBytes); err != nil {
			return rawCell{}, err
		}
	}
	return rawCell{data: data, bits: bits, refs: refs}, nil
}

// FromBoC decodes a bag of cells holding exactly one root.
func FromBoC(data []byte) (*Cell, error) {
	roots, err := DeserializeBoC(data)
	if err != nil {
		return nil, err
	}
	if len(roots) != 1 {
		return nil, fmt.Errorf("%w: expected one root, got %d", ErrInvalidBoC, len(roots))
	}
	return roots[0], nil
}

func decodeBase64(s string) ([]byte, error) {
	enc := base64.StdEncoding
	if strings.ContainsAny(s, "-_") {
		enc = base64.URLEncoding
	}
	if !strings.HasSuffix(s, "=") && len(s)%4 != 0 {
		enc = enc.WithPadding(base64.NoPadding)
	}
	data, err := enc.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBoC, err)
	}
	return data, nil
}

func decodeHex(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	data, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBoC, err)
	}
	return data, nil
}

func isHexString(s string) bool {
	if len(s) == 0 || len(s)%2 != 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}

// FromBase64 decodes a single-root bag of cells in standard or URL-safe base64.
func FromBase64(s string) (*Cell, error) {
	data, err := decodeBase64(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return FromBoC(data)
}

// FromHex decodes a single-root bag of cells from hex, with or without 0x.
func FromHex(s string) (*Cell, error) {
	data, err := decodeHex(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return FromBoC(data)
}

// ParseBoC decodes a textual bag of cells with any number of roots. Input
// with a 0x prefix or made only of hex digits is read as hex, anything else
// as base64 in either alphabet.
func ParseBoC(s string) ([]*Cell, error) {
	s = strings.TrimSpace(s)
	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") || isHexString(s) {
		data, err = decodeHex(s)
	} else {
		data, err = decodeBase64(s)
	}
	if err != nil {
		return nil, err
	}
	return DeserializeBoC(data)
}

// ToBoC serializes the cell as a single-root bag of cells.
func (c *Cell) ToBoC(opts ...BoCOption) ([]byte, error) {
	return SerializeBoC([]*Cell{c}, opts...)
}

// ToBase64 serializes the cell and encodes it in standard base64.
func (c *Cell) ToBase64(opts ...BoCOption) (string, error) {
	data, err := c.ToBoC(opts...)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// ToHex serializes the cell and encodes it as 0x-prefixed hex.
func (c *Cell) ToHex(opts ...BoCOption) (string, error) {
	data, err := c.ToBoC(opts...)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(data), nil
}
