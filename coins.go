package tvmcell

import (
	"fmt"
	"math/big"
	"strings"
)

// Coin amounts are VarUInteger 16: a 4-bit byte count followed by that many
// bytes of big-endian value.
const (
	// CoinsLenBits is the width of the byte-count prefix of a coins amount.
	CoinsLenBits = 4

	// CoinsDecimals is the number of fractional digits of one whole coin.
	CoinsDecimals = 9
)

var nanoPerCoin = big.NewInt(1_000_000_000)

func bigOf(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}

// StoreVarUint writes v as a VarUInteger: a lenBits-wide byte count, then
// the minimal big-endian bytes of v. Zero is written as a zero count.
func (b *Builder) StoreVarUint(v *big.Int, lenBits int) error {
	if err := b.check(); err != nil {
		return err
	}
	if lenBits < 1 || lenBits > 6 {
		return fmt.Errorf("%w: length prefix of %d bits", ErrInvalidWidth, lenBits)
	}
	maxBytes := (1 << uint(lenBits)) - 1
	if v == nil || v.Sign() < 0 || (v.BitLen()+7)/8 > maxBytes {
		return &RangeError{Width: maxBytes * 8, Value: copyBig(v)}
	}
	n := (v.BitLen() + 7) / 8
	if err := b.bits.reserve(lenBits + n*8); err != nil {
		return err
	}
	b.bits.appendUint(uint64(n), lenBits)
	b.bits.appendBigUint(v, n*8)
	return nil
}

// LoadVarUint reads a VarUInteger written by Builder.StoreVarUint.
func (s *Slice) LoadVarUint(lenBits int) (*big.Int, error) {
	if lenBits < 1 || lenBits > 6 {
		return nil, fmt.Errorf("%w: length prefix of %d bits", ErrInvalidWidth, lenBits)
	}
	n, err := s.PreloadUint(lenBits)
	if err != nil {
		return nil, err
	}
	if err := s.bits.need(lenBits + int(n)*8); err != nil {
		return nil, err
	}
	s.bits.pos += lenBits
	return s.bits.readBigUint(int(n) * 8), nil
}

// StoreCoins writes a coins amount in nanocoins.
func (b *Builder) StoreCoins(v *big.Int) error {
	return b.StoreVarUint(v, CoinsLenBits)
}

// LoadCoins reads a coins amount in nanocoins.
func (s *Slice) LoadCoins() (*big.Int, error) {
	return s.LoadVarUint(CoinsLenBits)
}

// ParseCoins converts a decimal amount of whole coins such as "0.01" or
// "50" into nanocoins. More than nine fractional digits is an error.
func ParseCoins(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty amount", ErrInvalidCoins)
	}
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > CoinsDecimals {
		return nil, fmt.Errorf("%w: %q has more than %d decimals", ErrInvalidCoins, s, CoinsDecimals)
	}
	frac += strings.Repeat("0", CoinsDecimals-len(frac))
	v, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok || strings.ContainsAny(whole+frac, "+-") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCoins, s)
	}
	if neg {
		v.Neg(v)
	}
	return v, nil
}

// MustParseCoins is like ParseCoins but panics on error.
func MustParseCoins(s string) *big.Int {
	v, err := ParseCoins(s)
	if err != nil {
		panic(err)
	}
	return v
}

// FormatCoins renders nanocoins as a decimal amount of whole coins without
// trailing fractional zeros.
func FormatCoins(v *big.Int) string {
	if v == nil {
		return "0"
	}
	abs := new(big.Int).Abs(v)
	q, r := new(big.Int).QuoRem(abs, nanoPerCoin, new(big.Int))
	out := q.String()
	if r.Sign() != 0 {
		frac := r.String()
		frac = strings.Repeat("0", CoinsDecimals-len(frac)) + frac
		out += "." + strings.TrimRight(frac, "0")
	}
	if v.Sign() < 0 {
		out = "-" + out
	}
	return out
}
