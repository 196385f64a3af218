package tact

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/branched-services/go-tvmcell"
)

// ABI is the type section of a compiled contract's ABI file, with the
// contract's exit code messages.
type ABI struct {
	Name   string
	Types  []*Type
	Errors map[int]string

	byName map[string]*Type
}

// Type is a struct or message layout.
type Type struct {
	Name   string  `json:"name"`
	Header *uint32 `json:"header"`
	Fields []Field `json:"fields"`

	abi *ABI
}

// Field is one member of a Type.
type Field struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
}

// FieldType describes how a field is serialized.
//
// Kind "simple" covers primitives (int, uint, bool, address, cell, slice,
// string) and nested structs by name. Format narrows the encoding: a bit
// width for integers, "coins" for uint, "remaining" for cell, slice and
// string, "ref" for nested structs. Kind "dict" is a HashmapE keyed by
// Key ("int" or "uint", width in KeyFormat).
type FieldType struct {
	Kind      string `json:"kind"`
	Type      string `json:"type"`
	Optional  bool   `json:"optional"`
	Format    any    `json:"format"`
	Key       string `json:"key"`
	KeyFormat any    `json:"keyFormat"`
	Value     string `json:"value"`
}

type abiFile struct {
	Name   string              `json:"name"`
	Types  []*Type             `json:"types"`
	Errors map[string]abiError `json:"errors"`
}

type abiError struct {
	Message string `json:"message"`
}

// ParseABI parses a contract ABI file.
func ParseABI(data []byte) (*ABI, error) {
	var f abiFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("tact: parse abi: %w", err)
	}
	a := &ABI{Name: f.Name, Types: f.Types, Errors: make(map[int]string, len(f.Errors))}
	for code, e := range f.Errors {
		n, err := strconv.Atoi(code)
		if err != nil {
			return nil, fmt.Errorf("tact: parse abi: exit code %q: %w", code, err)
		}
		a.Errors[n] = e.Message
	}
	return a, a.link()
}

// ParseTypes parses a bare JSON array of type descriptors.
func ParseTypes(data []byte) (*ABI, error) {
	var types []*Type
	if err := json.Unmarshal(data, &types); err != nil {
		return nil, fmt.Errorf("tact: parse types: %w", err)
	}
	a := &ABI{Types: types, Errors: map[int]string{}}
	return a, a.link()
}

// MustParseTypes is like ParseTypes but panics on error.
func MustParseTypes(data []byte) *ABI {
	a, err := ParseTypes(data)
	if err != nil {
		panic(err)
	}
	return a
}

func (a *ABI) link() error {
	a.byName = make(map[string]*Type, len(a.Types))
	for _, t := range a.Types {
		t.abi = a
		a.byName[t.Name] = t
	}
	for _, t := range a.Types {
		for _, f := range t.Fields {
			if err := a.check(t, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// check rejects field descriptors the codec cannot handle, so Store and
// Load only fail on data.
func (a *ABI) check(t *Type, f Field) error {
	ft := f.Type
	switch ft.Kind {
	case "simple":
		switch ft.Type {
		case "int", "uint":
			if s, ok := ft.Format.(string); ok {
				if s == "coins" && ft.Type == "uint" {
					return nil
				}
				return fieldErr(t.Name, f.Name, fmt.Errorf("%w: format %q", ErrUnsupportedType, s))
			}
			if _, err := ft.width(0); err != nil {
				return fieldErr(t.Name, f.Name, err)
			}
			return nil
		case "bool", "address", "cell", "slice", "string":
			return nil
		}
		if _, ok := a.byName[ft.Type]; !ok {
			return fieldErr(t.Name, f.Name, fmt.Errorf("%w: %q", ErrTypeNotFound, ft.Type))
		}
		return nil
	case "dict":
		if ft.Key != "int" && ft.Key != "uint" {
			return fieldErr(t.Name, f.Name, fmt.Errorf("%w: dict key %q", ErrUnsupportedType, ft.Key))
		}
		return nil
	default:
		return fieldErr(t.Name, f.Name, fmt.Errorf("%w: kind %q", ErrUnsupportedType, ft.Kind))
	}
}

// Lookup returns the type with the given name.
func (a *ABI) Lookup(name string) (*Type, error) {
	t, ok := a.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTypeNotFound, name)
	}
	return t, nil
}

// HasType returns true if the ABI declares a type with the given name.
func (a *ABI) HasType(name string) bool {
	_, ok := a.byName[name]
	return ok
}

// TypeNames returns all type names in declaration order.
func (a *ABI) TypeNames() []string {
	names := make([]string, 0, len(a.Types))
	for _, t := range a.Types {
		names = append(names, t.Name)
	}
	return names
}

// ExitCodes returns the declared exit codes in ascending order.
func (a *ABI) ExitCodes() []int {
	codes := make([]int, 0, len(a.Errors))
	for c := range a.Errors {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	return codes
}

// width returns the integer width in Format, or def when Format is unset.
func (ft FieldType) width(def int) (int, error) {
	return formatWidth(ft.Format, def, ft.Type == "int")
}

func (ft FieldType) keyWidth() (int, error) {
	def := 256
	if ft.Key == "int" {
		def = 257
	}
	return formatWidth(ft.KeyFormat, def, ft.Key == "int")
}

func formatWidth(format any, def int, signed bool) (int, error) {
	if format == nil {
		return def, nil
	}
	f, ok := format.(float64)
	if !ok || f != float64(int(f)) {
		return 0, fmt.Errorf("%w: format %v", ErrUnsupportedType, format)
	}
	w := int(f)
	limit := tvmcell.MaxUintWidth
	if signed {
		limit = tvmcell.MaxIntWidth
	}
	if w < 1 || w > limit {
		return 0, fmt.Errorf("%w: %d bits", tvmcell.ErrInvalidWidth, w)
	}
	return w, nil
}

func (ft FieldType) remaining() bool {
	s, _ := ft.Format.(string)
	return s == "remaining"
}

// Store writes rec according to the type layout. Integers accept *big.Int
// and Go integer kinds; addresses take *tvmcell.Address; cell and slice
// fields take *tvmcell.Cell; nested structs take map[string]any; dict
// fields take *tvmcell.Dictionary. A nil or missing value is allowed only
// for optional fields.
func (t *Type) Store(b *tvmcell.Builder, rec map[string]any) error {
	if t.Header != nil {
		if err := b.StoreUint(uint64(*t.Header), 32); err != nil {
			return fieldErr(t.Name, "$header", err)
		}
	}
	for _, f := range t.Fields {
		if err := t.storeField(b, f, rec[f.Name]); err != nil {
			return fieldErr(t.Name, f.Name, err)
		}
	}
	return nil
}

// ToCell stores rec into a fresh cell.
func (t *Type) ToCell(rec map[string]any) (*tvmcell.Cell, error) {
	b := tvmcell.BeginCell()
	if err := t.Store(b, rec); err != nil {
		return nil, err
	}
	return b.EndCell()
}

func (t *Type) storeField(b *tvmcell.Builder, f Field, v any) error {
	ft := f.Type
	if ft.Kind == "dict" {
		if v == nil {
			return b.StoreDict(nil)
		}
		d, ok := v.(*tvmcell.Dictionary)
		if !ok {
			return fmt.Errorf("%w: %T", ErrValueType, v)
		}
		return b.StoreDict(d)
	}
	if ft.Type == "address" {
		if v == nil {
			if !ft.Optional {
				return ErrMissingField
			}
			return b.StoreAddress(nil)
		}
		a, ok := v.(*tvmcell.Address)
		if !ok {
			return fmt.Errorf("%w: %T", ErrValueType, v)
		}
		if a == nil && !ft.Optional {
			return ErrMissingField
		}
		return b.StoreAddress(a)
	}
	if ft.Optional {
		if isNil(v) {
			return b.StoreBit(false)
		}
		if err := b.StoreBit(true); err != nil {
			return err
		}
	} else if isNil(v) {
		return ErrMissingField
	}

	switch ft.Type {
	case "int", "uint":
		n, err := toBig(v)
		if err != nil {
			return err
		}
		if s, _ := ft.Format.(string); s == "coins" {
			return b.StoreCoins(n)
		}
		def := 256
		if ft.Type == "int" {
			def = 257
		}
		w, err := ft.width(def)
		if err != nil {
			return err
		}
		if ft.Type == "int" {
			return b.StoreBigInt(n, w)
		}
		return b.StoreBigUint(n, w)
	case "bool":
		x, ok := v.(bool)
		if !ok {
			return fmt.Errorf("%w: %T", ErrValueType, v)
		}
		return b.StoreBit(x)
	case "cell", "slice":
		c, ok := v.(*tvmcell.Cell)
		if !ok {
			return fmt.Errorf("%w: %T", ErrValueType, v)
		}
		if ft.remaining() {
			return b.StoreCellInline(c)
		}
		return b.StoreRef(c)
	case "string":
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%w: %T", ErrValueType, v)
		}
		if ft.remaining() {
			return b.StoreStringTail(s)
		}
		return b.StoreStringRefTail(s)
	}

	nested, err := t.abi.Lookup(ft.Type)
	if err != nil {
		return err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: %T", ErrValueType, v)
	}
	if s, _ := ft.Format.(string); s == "ref" {
		c, err := nested.ToCell(m)
		if err != nil {
			return err
		}
		return b.StoreRef(c)
	}
	return nested.Store(b, m)
}

// Load reads a record written by Store. Integers load as *big.Int, strings
// as string, absent optionals as nil. On failure the slice is left
// unchanged.
func (t *Type) Load(s *tvmcell.Slice) (map[string]any, error) {
	p := s.Clone()
	if t.Header != nil {
		op, err := p.LoadUint(32)
		if err != nil {
			return nil, fieldErr(t.Name, "$header", err)
		}
		if uint32(op) != *t.Header {
			return nil, fieldErr(t.Name, "$header",
				fmt.Errorf("%w: got 0x%08x, want 0x%08x", ErrInvalidPrefix, op, *t.Header))
		}
	}
	rec := make(map[string]any, len(t.Fields))
	for _, f := range t.Fields {
		v, err := t.loadField(p, f)
		if err != nil {
			return nil, fieldErr(t.Name, f.Name, err)
		}
		rec[f.Name] = v
	}
	*s = *p
	return rec, nil
}

// FromCell loads a record from the start of c.
func (t *Type) FromCell(c *tvmcell.Cell) (map[string]any, error) {
	return t.Load(c.BeginParse())
}

func (t *Type) loadField(s *tvmcell.Slice, f Field) (any, error) {
	ft := f.Type
	if ft.Kind == "dict" {
		w, err := ft.keyWidth()
		if err != nil {
			return nil, err
		}
		var opts []tvmcell.DictOption
		if ft.Key == "int" {
			opts = append(opts, tvmcell.WithSignedKeys())
		}
		return s.LoadDict(w, opts...)
	}
	if ft.Type == "address" {
		if ft.Optional {
			a, err := s.LoadMaybeAddress()
			if err != nil || a == nil {
				return nil, err
			}
			return a, nil
		}
		return s.LoadAddress()
	}
	if ft.Optional {
		present, err := s.LoadBit()
		if err != nil {
			return nil, err
		}
		if !present {
			return nil, nil
		}
	}

	switch ft.Type {
	case "int", "uint":
		if fm, _ := ft.Format.(string); fm == "coins" {
			return s.LoadCoins()
		}
		def := 256
		if ft.Type == "int" {
			def = 257
		}
		w, err := ft.width(def)
		if err != nil {
			return nil, err
		}
		if ft.Type == "int" {
			return s.LoadBigInt(w)
		}
		return s.LoadBigUint(w)
	case "bool":
		return s.LoadBit()
	case "cell", "slice":
		if ft.remaining() {
			return s.LoadRemainder()
		}
		return s.LoadRef()
	case "string":
		if ft.remaining() {
			return s.LoadStringTail()
		}
		return s.LoadStringRefTail()
	}

	nested, err := t.abi.Lookup(ft.Type)
	if err != nil {
		return nil, err
	}
	if fm, _ := ft.Format.(string); fm == "ref" {
		c, err := s.LoadRef()
		if err != nil {
			return nil, err
		}
		return nested.FromCell(c)
	}
	return nested.Load(s)
}

func isNil(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case *tvmcell.Cell:
		return x == nil
	case *big.Int:
		return x == nil
	case map[string]any:
		return x == nil
	}
	return false
}

// toBig converts the Go integer kinds accepted by Store to *big.Int.
func toBig(v any) (*big.Int, error) {
	switch x := v.(type) {
	case *big.Int:
		return x, nil
	case int:
		return big.NewInt(int64(x)), nil
	case int64:
		return big.NewInt(x), nil
	case int32:
		return big.NewInt(int64(x)), nil
	case uint64:
		return new(big.Int).SetUint64(x), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(x)), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrValueType, v)
	}
}
