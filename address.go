package tvmcell

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/sigurn/crc16"
)

// Address layout constants for addr_std$10 anycast:(Maybe Anycast)
// workchain_id:int8 address:bits256.
const (
	// AddressBits is the encoded width of a standard internal address.
	AddressBits = 2 + 1 + 8 + 256

	friendlyLen     = 36
	friendlyB64Len  = 48
	tagBounceable   = 0x11
	tagNonBounce    = 0x51
	tagTestOnlyFlag = 0x80
)

// Address is a standard internal address: a workchain and a 256-bit
// account identifier.
type Address struct {
	Workchain int8
	Hash      [32]byte
}

// NewAddress returns an address in the given workchain.
func NewAddress(workchain int8, hash [32]byte) *Address {
	return &Address{Workchain: workchain, Hash: hash}
}

// Equal reports whether two addresses are the same.
func (a *Address) Equal(o *Address) bool {
	if a == nil || o == nil {
		return a == o
	}
	return a.Workchain == o.Workchain && a.Hash == o.Hash
}

// Raw returns the "workchain:hex" form.
func (a *Address) Raw() string {
	return strconv.Itoa(int(a.Workchain)) + ":" + hex.EncodeToString(a.Hash[:])
}

// String returns the bounceable, URL-safe user-friendly form.
func (a *Address) String() string {
	return a.Format(true, false)
}

// Format returns the user-friendly form with the given flags.
func (a *Address) Format(bounceable, testOnly bool) string {
	var buf [friendlyLen]byte
	buf[0] = tagNonBounce
	if bounceable {
		buf[0] = tagBounceable
	}
	if testOnly {
		buf[0] |= tagTestOnlyFlag
	}
	buf[1] = byte(a.Workchain)
	copy(buf[2:34], a.Hash[:])
	binary.BigEndian.PutUint16(buf[34:], addressChecksum(buf[:34]))
	return base64.URLEncoding.EncodeToString(buf[:])
}

// ParseAddress accepts the raw "workchain:hex" form or the 48-character
// user-friendly form in either base64 alphabet.
func ParseAddress(s string) (*Address, error) {
	if strings.Contains(s, ":") {
		return parseRawAddress(s)
	}
	a, _, _, err := ParseFriendlyAddress(s)
	return a, err
}

// MustParseAddress is like ParseAddress but panics on error.
func MustParseAddress(s string) *Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func parseRawAddress(s string) (*Address, error) {
	wcStr, hashStr, _ := strings.Cut(s, ":")
	wc, err := strconv.ParseInt(wcStr, 10, 8)
	if err != nil {
		return nil, fmt.Errorf("%w: workchain %q", ErrInvalidAddress, wcStr)
	}
	raw, err := hex.DecodeString(hashStr)
	if err != nil || len(raw) != 32 {
		return nil, fmt.Errorf("%w: account id %q", ErrInvalidAddress, hashStr)
	}
	a := &Address{Workchain: int8(wc)}
	copy(a.Hash[:], raw)
	return a, nil
}

// ParseFriendlyAddress decodes the user-friendly form and reports its flags.
func ParseFriendlyAddress(s string) (addr *Address, bounceable, testOnly bool, err error) {
	if len(s) != friendlyB64Len {
		return nil, false, false, fmt.Errorf("%w: %q has length %d", ErrInvalidAddress, s, len(s))
	}
	enc := base64.StdEncoding
	if strings.ContainsAny(s, "-_") {
		enc = base64.URLEncoding
	}
	raw, err := enc.DecodeString(s)
	if err != nil || len(raw) != friendlyLen {
		return nil, false, false, fmt.Errorf("%w: %q is not base64", ErrInvalidAddress, s)
	}
	want := addressChecksum(raw[:34])
	if binary.BigEndian.Uint16(raw[34:]) != want {
		return nil, false, false, fmt.Errorf("%w: checksum mismatch", ErrInvalidAddress)
	}
	tag := raw[0]
	if tag&tagTestOnlyFlag != 0 {
		testOnly = true
		tag &^= tagTestOnlyFlag
	}
	switch tag {
	case tagBounceable:
		bounceable = true
	case tagNonBounce:
	default:
		return nil, false, false, fmt.Errorf("%w: unknown tag 0x%02x", ErrInvalidAddress, raw[0])
	}
	addr = &Address{Workchain: int8(raw[1])}
	copy(addr.Hash[:], raw[2:34])
	return addr, bounceable, testOnly, nil
}

var xmodem = crc16.MakeTable(crc16.CRC16_XMODEM)

func addressChecksum(data []byte) uint16 {
	return crc16.Checksum(data, xmodem)
}

// StoreAddress writes a as addr_std, or addr_none when a is nil.
func (b *Builder) StoreAddress(a *Address) error {
	if err := b.check(); err != nil {
		return err
	}
	if a == nil {
		return b.bits.WriteUint(0, 2)
	}
	if err := b.bits.reserve(AddressBits); err != nil {
		return err
	}
	b.bits.appendUint(0b10, 2)
	b.bits.appendBit(false)
	b.bits.appendUint(uint64(uint8(a.Workchain)), 8)
	b.bits.appendBits(a.Hash[:], 0, 256)
	return nil
}

// LoadAddress reads a standard internal address. addr_none, external and
// variable-length addresses are rejected.
func (s *Slice) LoadAddress() (*Address, error) {
	if tag, err := s.PreloadUint(2); err == nil && tag == 0b00 {
		return nil, fmt.Errorf("%w: addr_none where an address is required", ErrInvalidAddress)
	}
	return s.LoadMaybeAddress()
}

// LoadMaybeAddress reads a standard internal address, returning nil for
// addr_none.
func (s *Slice) LoadMaybeAddress() (*Address, error) {
	tag, err := s.PreloadUint(2)
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0b00:
		s.bits.pos += 2
		return nil, nil
	case 0b10:
	default:
		return nil, fmt.Errorf("%w: unsupported address tag %02b", ErrInvalidAddress, tag)
	}
	if err := s.bits.need(AddressBits); err != nil {
		return nil, err
	}
	probe := s.Clone()
	probe.bits.pos += 2
	anycast, _ := probe.bits.ReadBit()
	if anycast {
		return nil, fmt.Errorf("%w: anycast addresses are not supported", ErrInvalidAddress)
	}
	wc := probe.bits.readUint(8)
	hash, _ := probe.bits.ReadBits(256)
	a := &Address{Workchain: int8(uint8(wc))}
	copy(a.Hash[:], hash)
	s.bits.pos = probe.bits.pos
	return a, nil
}
