package tvmcell

import (
	"fmt"
	"math/big"
	"math/bits"
	"sort"
	"strings"
)

// Dictionary maps fixed-width integer keys to cell values. It serializes to
// the HashmapE layout: a binary trie whose edges carry compressed labels and
// whose leaves hold the value's bits and references inline.
//
// The in-memory map is mutable; the serialized trie is rebuilt from scratch
// by ToCell, so the same entries and key width always give the same cell.
type Dictionary struct {
	keyBits int
	signed  bool
	entries map[string]dictEntry // keyed by the key's bit string
}

type dictEntry struct {
	key   *big.Int
	value *Cell
}

// DictEntry is a key/value pair for BuildDictionary.
type DictEntry struct {
	Key   *big.Int
	Value *Cell
}

// NewDictionary returns an empty dictionary with keys of keyBits bits.
// Keys are unsigned unless WithSignedKeys is given.
func NewDictionary(keyBits int, opts ...DictOption) *Dictionary {
	cfg := defaultDictConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Dictionary{
		keyBits: keyBits,
		signed:  cfg.signedKeys,
		entries: make(map[string]dictEntry),
	}
}

// KeyBits returns the key width.
func (d *Dictionary) KeyBits() int { return d.keyBits }

// Signed reports whether keys are two's-complement integers.
func (d *Dictionary) Signed() bool { return d.signed }

// Len returns the number of entries.
func (d *Dictionary) Len() int { return len(d.entries) }

func (d *Dictionary) checkWidth() error {
	limit := MaxUintWidth
	if d.signed {
		limit = MaxIntWidth
	}
	if d.keyBits < 1 || d.keyBits > limit {
		return fmt.Errorf("%w: dictionary key of %d bits", ErrInvalidWidth, d.keyBits)
	}
	return nil
}

// keyString encodes key as a string of '0' and '1' of length keyBits.
func (d *Dictionary) keyString(key *big.Int) (string, error) {
	if err := d.checkWidth(); err != nil {
		return "", err
	}
	buf := NewBitBuffer(d.keyBits)
	var err error
	if d.signed {
		err = buf.WriteBigInt(key, d.keyBits)
	} else {
		err = buf.WriteBigUint(key, d.keyBits)
	}
	if err != nil {
		return "", err
	}
	return bitString(buf.data, 0, d.keyBits), nil
}

// keyValue decodes a bit string produced by keyString.
func (d *Dictionary) keyValue(s string) *big.Int {
	v, _ := new(big.Int).SetString(s, 2)
	if d.signed && s[0] == '1' {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(len(s))))
	}
	return v
}

func bitString(data []byte, from, n int) string {
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		if bitAt(data, from+i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Set stores value under key, replacing any previous value.
func (d *Dictionary) Set(key *big.Int, value *Cell) error {
	if value == nil {
		return ErrNilCell
	}
	k, err := d.keyString(key)
	if err != nil {
		return err
	}
	d.entries[k] = dictEntry{key: new(big.Int).Set(key), value: value}
	return nil
}

// SetUint stores value under an unsigned key.
func (d *Dictionary) SetUint(key uint64, value *Cell) error {
	return d.Set(bigOf(key), value)
}

// SetInt stores value under a signed key.
func (d *Dictionary) SetInt(key int64, value *Cell) error {
	return d.Set(big.NewInt(key), value)
}

// Get returns the value stored under key.
func (d *Dictionary) Get(key *big.Int) (*Cell, bool) {
	k, err := d.keyString(key)
	if err != nil {
		return nil, false
	}
	e, ok := d.entries[k]
	return e.value, ok
}

// GetUint returns the value stored under an unsigned key.
func (d *Dictionary) GetUint(key uint64) (*Cell, bool) {
	return d.Get(bigOf(key))
}

// GetInt returns the value stored under a signed key.
func (d *Dictionary) GetInt(key int64) (*Cell, bool) {
	return d.Get(big.NewInt(key))
}

// Delete removes key and reports whether it was present.
func (d *Dictionary) Delete(key *big.Int) bool {
	k, err := d.keyString(key)
	if err != nil {
		return false
	}
	_, ok := d.entries[k]
	delete(d.entries, k)
	return ok
}

func (d *Dictionary) sortedKeys() []string {
	keys := make([]string, 0, len(d.entries))
	for k := range d.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Keys returns all keys in trie order (ascending by key bits).
func (d *Dictionary) Keys() []*big.Int {
	keys := d.sortedKeys()
	out := make([]*big.Int, len(keys))
	for i, k := range keys {
		out[i] = new(big.Int).Set(d.entries[k].key)
	}
	return out
}

// Range calls fn for each entry in trie order until fn returns false.
func (d *Dictionary) Range(fn func(key *big.Int, value *Cell) bool) {
	for _, k := range d.sortedKeys() {
		e := d.entries[k]
		if !fn(new(big.Int).Set(e.key), e.value) {
			return
		}
	}
}

// ToCell serializes the trie. An empty dictionary has no root and yields nil.
func (d *Dictionary) ToCell() (*Cell, error) {
	if err := d.checkWidth(); err != nil {
		return nil, err
	}
	if len(d.entries) == 0 {
		return nil, nil
	}
	return d.buildEdge(d.sortedKeys(), 0, d.keyBits)
}

// buildEdge serializes the subtree holding keys, all of which share their
// first consumed bits; n key bits remain below this edge.
func (d *Dictionary) buildEdge(keys []string, consumed, n int) (*Cell, error) {
	first, last := keys[0], keys[len(keys)-1]
	l := 0
	for l < n && first[consumed+l] == last[consumed+l] {
		l++
	}
	label := first[consumed : consumed+l]
	m := n - l

	b := NewBuilder()
	if err := storeLabel(b, label, n); err != nil {
		return nil, err
	}
	if m == 0 {
		if err := b.StoreCellInline(d.entries[first].value); err != nil {
			return nil, fmt.Errorf("dictionary value for key %s: %w", d.keyValue(first), err)
		}
		return b.Finalize()
	}

	pivot := consumed + l
	split := sort.Search(len(keys), func(i int) bool { return keys[i][pivot] == '1' })
	left, err := d.buildEdge(keys[:split], pivot+1, m-1)
	if err != nil {
		return nil, err
	}
	right, err := d.buildEdge(keys[split:], pivot+1, m-1)
	if err != nil {
		return nil, err
	}
	if err := b.StoreRef(left); err != nil {
		return nil, err
	}
	if err := b.StoreRef(right); err != nil {
		return nil, err
	}
	return b.Finalize()
}

// labelLenBits is the width of a #<= m field: ceil(log2(m+1)).
func labelLenBits(m int) int {
	return bits.Len(uint(m))
}

func isSameLabel(label string) bool {
	for i := 1; i < len(label); i++ {
		if label[i] != label[0] {
			return false
		}
	}
	return true
}

// storeLabel writes the cheapest HmLabel encoding of label for an edge with
// m key bits remaining. Ties prefer short, then long, then same.
func storeLabel(b *Builder, label string, m int) error {
	l := len(label)
	lenBits := labelLenBits(m)

	kind, cost := "short", 2*l+2
	if long := 2 + lenBits + l; long < cost {
		kind, cost = "long", long
	}
	if isSameLabel(label) {
		if same := 3 + lenBits; same < cost {
			kind = "same"
		}
	}

	switch kind {
	case "long":
		if err := b.StoreUint(0b10, 2); err != nil {
			return err
		}
		if err := b.StoreUint(uint64(l), lenBits); err != nil {
			return err
		}
		return storeBitString(b, label)
	case "same":
		if err := b.StoreUint(0b11, 2); err != nil {
			return err
		}
		if err := b.StoreBit(label[0] == '1'); err != nil {
			return err
		}
		return b.StoreUint(uint64(l), lenBits)
	default:
		if err := b.StoreBit(false); err != nil {
			return err
		}
		for i := 0; i < l; i++ {
			if err := b.StoreBit(true); err != nil {
				return err
			}
		}
		if err := b.StoreBit(false); err != nil {
			return err
		}
		return storeBitString(b, label)
	}
}

func storeBitString(b *Builder, s string) error {
	for i := 0; i < len(s); i++ {
		if err := b.StoreBit(s[i] == '1'); err != nil {
			return err
		}
	}
	return nil
}

// BuildDictionary serializes entries into a trie. When a key repeats, the
// last entry wins. An empty entry list yields a nil root.
func BuildDictionary(keyBits int, entries []DictEntry, opts ...DictOption) (*Cell, error) {
	d := NewDictionary(keyBits, opts...)
	for _, e := range entries {
		if err := d.Set(e.Key, e.Value); err != nil {
			return nil, err
		}
	}
	return d.ToCell()
}

// ParseDictionary reads a trie rooted at root. A nil root is the empty
// dictionary. Any well-formed trie is accepted, not only the canonical
// shape ToCell produces.
//
// The encoding does not carry the key width. A mismatch is reported only
// when the trie cannot be read at keyBits; a trie built with other widths
// can still parse cleanly, for example a single leaf whose value bits are
// then read as key bits.
func ParseDictionary(root *Cell, keyBits int, opts ...DictOption) (*Dictionary, error) {
	d := NewDictionary(keyBits, opts...)
	if err := d.checkWidth(); err != nil {
		return nil, err
	}
	if root == nil {
		return d, nil
	}
	if err := d.parseEdge(root, "", keyBits); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dictionary) parseEdge(c *Cell, prefix string, n int) error {
	s := c.BeginParse()
	label, err := loadLabel(s, n)
	if err != nil {
		return &DictionaryError{Path: prefix, Err: err}
	}
	prefix += label
	m := n - len(label)

	if m == 0 {
		value, err := s.ToCell()
		if err != nil {
			return &DictionaryError{Path: prefix, Err: err}
		}
		d.entries[prefix] = dictEntry{key: d.keyValue(prefix), value: value}
		return nil
	}

	if s.RemainingBits() != 0 || s.RemainingRefs() != 2 {
		return &DictionaryError{
			Path: prefix,
			Err: fmt.Errorf("%w: fork node with %d bits and %d refs left, %d key bits remaining",
				ErrKeyWidthMismatch, s.RemainingBits(), s.RemainingRefs(), m),
		}
	}
	left, _ := s.LoadRef()
	right, _ := s.LoadRef()
	if err := d.parseEdge(left, prefix+"0", m-1); err != nil {
		return err
	}
	return d.parseEdge(right, prefix+"1", m-1)
}

// loadLabel reads an HmLabel for an edge with m key bits remaining.
func loadLabel(s *Slice, m int) (string, error) {
	lenBits := labelLenBits(m)
	long, err := s.LoadBit()
	if err != nil {
		return "", err
	}

	if !long {
		// hml_short$0: unary length, then the bits.
		l := 0
		for {
			one, err := s.LoadBit()
			if err != nil {
				return "", err
			}
			if !one {
				break
			}
			l++
			if l > m {
				return "", fmt.Errorf("%w: short label longer than %d bits", ErrKeyWidthMismatch, m)
			}
		}
		return loadBitString(s, l)
	}

	same, err := s.LoadBit()
	if err != nil {
		return "", err
	}
	if !same {
		// hml_long$10
		l, err := s.LoadUint(lenBits)
		if err != nil {
			return "", err
		}
		if int(l) > m {
			return "", fmt.Errorf("%w: long label of %d bits with %d remaining", ErrKeyWidthMismatch, l, m)
		}
		return loadBitString(s, int(l))
	}

	// hml_same$11
	v, err := s.LoadBit()
	if err != nil {
		return "", err
	}
	l, err := s.LoadUint(lenBits)
	if err != nil {
		return "", err
	}
	if int(l) > m {
		return "", fmt.Errorf("%w: same label of %d bits with %d remaining", ErrKeyWidthMismatch, l, m)
	}
	ch := "0"
	if v {
		ch = "1"
	}
	return strings.Repeat(ch, int(l)), nil
}

func loadBitString(s *Slice, n int) (string, error) {
	raw, err := s.LoadBits(n)
	if err != nil {
		return "", err
	}
	return bitString(raw, 0, n), nil
}

// StoreDict writes the HashmapE convention: a presence bit and, for a
// non-empty dictionary, a reference to the trie root.
func (b *Builder) StoreDict(d *Dictionary) error {
	if err := b.check(); err != nil {
		return err
	}
	if d == nil {
		return b.StoreMaybeRef(None[*Cell]())
	}
	root, err := d.ToCell()
	if err != nil {
		return err
	}
	return b.StoreMaybeRef(MaybeOf(root))
}

// LoadDict reads a HashmapE written by Builder.StoreDict.
func (s *Slice) LoadDict(keyBits int, opts ...DictOption) (*Dictionary, error) {
	probe := s.Clone()
	root, err := probe.LoadMaybeRef()
	if err != nil {
		return nil, err
	}
	d, err := ParseDictionary(root.OrElse(nil), keyBits, opts...)
	if err != nil {
		return nil, err
	}
	*s = *probe
	return d, nil
}
