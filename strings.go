package tvmcell

import (
	"fmt"
	"unicode/utf8"
)

// StoreBufferTail writes p in the snake layout: as many whole bytes as fit
// in the builder, the rest continued in a chain of child cells, one
// reference per link.
func (b *Builder) StoreBufferTail(p []byte) error {
	if err := b.check(); err != nil {
		return err
	}
	fit := b.AvailableBits() / 8
	if len(p) <= fit {
		return b.bits.WriteBytes(p)
	}
	if err := b.reserveRefs(1); err != nil {
		return err
	}
	tail, err := snakeCell(p[fit:])
	if err != nil {
		return err
	}
	b.bits.appendBits(p, 0, fit*8)
	b.refs = append(b.refs, tail)
	return nil
}

// snakeCell builds the continuation chain for p from the last link up.
func snakeCell(p []byte) (*Cell, error) {
	const perCell = MaxBits / 8
	links := (len(p) + perCell - 1) / perCell
	var next *Cell
	for i := links - 1; i >= 0; i-- {
		end := (i + 1) * perCell
		if end > len(p) {
			end = len(p)
		}
		b := NewBuilder()
		b.bits.appendBits(p, i*perCell*8, (end-i*perCell)*8)
		if next != nil {
			b.refs = append(b.refs, next)
		}
		c, err := b.Finalize()
		if err != nil {
			return nil, err
		}
		next = c
	}
	return next, nil
}

// StoreStringTail writes s as a snake string.
func (b *Builder) StoreStringTail(s string) error {
	return b.StoreBufferTail([]byte(s))
}

// StoreStringRefTail writes s as a snake string in a referenced cell.
func (b *Builder) StoreStringRefTail(s string) error {
	if err := b.check(); err != nil {
		return err
	}
	if err := b.reserveRefs(1); err != nil {
		return err
	}
	inner := NewBuilder()
	if err := inner.StoreStringTail(s); err != nil {
		return err
	}
	c, err := inner.Finalize()
	if err != nil {
		return err
	}
	return b.StoreRef(c)
}

// StoreVarBytes writes the inline length-delimited convention: the byte
// count as an unsigned integer of lenBits bits, then the bytes.
func (b *Builder) StoreVarBytes(p []byte, lenBits int) error {
	if err := b.check(); err != nil {
		return err
	}
	if lenBits < 1 || lenBits > 16 {
		return fmt.Errorf("%w: length prefix of %d bits", ErrInvalidWidth, lenBits)
	}
	if uint64(len(p)) >= 1<<uint(lenBits) {
		return &RangeError{Width: lenBits, Value: bigOf(uint64(len(p)))}
	}
	if err := b.bits.reserve(lenBits + len(p)*8); err != nil {
		return err
	}
	b.bits.appendUint(uint64(len(p)), lenBits)
	b.bits.appendBits(p, 0, len(p)*8)
	return nil
}

// LoadBufferTail reads a snake-encoded byte string. It consumes the rest of
// the slice, including its single continuation reference.
func (s *Slice) LoadBufferTail() ([]byte, error) {
	if err := checkSnakeLink(s); err != nil {
		return nil, err
	}
	var out []byte
	cur := s.Clone()
	for {
		chunk, err := cur.bits.ReadBytes(cur.RemainingBits() / 8)
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
		if cur.RemainingRefs() == 0 {
			break
		}
		next, err := cur.LoadRef()
		if err != nil {
			return nil, err
		}
		cur = next.BeginParse()
		if err := checkSnakeLink(cur); err != nil {
			return nil, err
		}
	}
	s.bits.pos = s.bits.n
	s.ref = len(s.cell.refs)
	return out, nil
}

func checkSnakeLink(s *Slice) error {
	if s.RemainingBits()%8 != 0 {
		return fmt.Errorf("%w: %d bits is not a whole number of bytes", ErrInvalidString, s.RemainingBits())
	}
	if s.RemainingRefs() > 1 {
		return fmt.Errorf("%w: %d refs in a snake link", ErrInvalidString, s.RemainingRefs())
	}
	return nil
}

// LoadStringTail reads a snake string. Invalid UTF-8 is rejected.
func (s *Slice) LoadStringTail() (string, error) {
	probe := s.Clone()
	p, err := probe.LoadBufferTail()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(p) {
		return "", fmt.Errorf("%w: invalid utf-8", ErrInvalidString)
	}
	*s = *probe
	return string(p), nil
}

// LoadStringRefTail reads a snake string stored in the next reference.
func (s *Slice) LoadStringRefTail() (string, error) {
	c, err := s.PreloadRef()
	if err != nil {
		return "", err
	}
	str, err := c.BeginParse().LoadStringTail()
	if err != nil {
		return "", err
	}
	s.ref++
	return str, nil
}

// LoadVarBytes reads the inline length-delimited convention written by
// Builder.StoreVarBytes.
func (s *Slice) LoadVarBytes(lenBits int) ([]byte, error) {
	if lenBits < 1 || lenBits > 16 {
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
	return s.bits.ReadBytes(int(n))
}
