package tvmcell

import (
	"errors"
	"math/big"
	"testing"
)

func TestBitBufferWriteRead(t *testing.T) {
	buf := NewBitBuffer(MaxBits)

	if err := buf.WriteBit(true); err != nil {
		t.Fatalf("WriteBit failed: %v", err)
	}
	if err := buf.WriteUint(0x2a, 7); err != nil {
		t.Fatalf("WriteUint failed: %v", err)
	}
	if err := buf.WriteInt(-3, 5); err != nil {
		t.Fatalf("WriteInt failed: %v", err)
	}
	if err := buf.WriteBytes([]byte{0xde, 0xad}); err != nil {
		t.Fatalf("WriteBytes failed: %v", err)
	}

	if buf.Len() != 1+7+5+16 {
		t.Errorf("Expected length 29, got %d", buf.Len())
	}

	bit, err := buf.ReadBit()
	if err != nil || !bit {
		t.Errorf("Expected bit true, got %v (%v)", bit, err)
	}
	u, err := buf.ReadUint(7)
	if err != nil || u != 0x2a {
		t.Errorf("Expected 0x2a, got %#x (%v)", u, err)
	}
	i, err := buf.ReadInt(5)
	if err != nil || i != -3 {
		t.Errorf("Expected -3, got %d (%v)", i, err)
	}
	p, err := buf.ReadBytes(2)
	if err != nil || p[0] != 0xde || p[1] != 0xad {
		t.Errorf("Expected dead, got %x (%v)", p, err)
	}
	if buf.Remaining() != 0 {
		t.Errorf("Expected nothing remaining, got %d", buf.Remaining())
	}
}

func TestBitBufferWidthZero(t *testing.T) {
	buf := NewBitBuffer(8)
	if err := buf.WriteUint(0, 0); err != nil {
		t.Errorf("Expected width 0 to accept 0, got %v", err)
	}
	if err := buf.WriteUint(1, 0); !errors.Is(err, ErrRange) {
		t.Errorf("Expected ErrRange for 1 in 0 bits, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected empty buffer, got %d bits", buf.Len())
	}
}

func TestBitBufferInvalidWidth(t *testing.T) {
	buf := NewBitBuffer(MaxBits)
	tests := []struct {
		name string
		fn   func() error
	}{
		{"uint65", func() error { return buf.WriteUint(0, 65) }},
		{"int0", func() error { return buf.WriteInt(0, 0) }},
		{"biguint257", func() error { return buf.WriteBigUint(big.NewInt(0), 257) }},
		{"bigint258", func() error { return buf.WriteBigInt(big.NewInt(0), 258) }},
		{"read negative", func() error { _, err := buf.ReadBits(-1); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, ErrInvalidWidth) {
				t.Errorf("Expected ErrInvalidWidth, got %v", err)
			}
		})
	}
}

func TestBitBufferSignedRange(t *testing.T) {
	tests := []struct {
		v     int64
		width int
		ok    bool
	}{
		{-1, 1, true},
		{0, 1, true},
		{1, 1, false},
		{127, 8, true},
		{128, 8, false},
		{-128, 8, true},
		{-129, 8, false},
		{-1 << 63, 64, true},
	}
	for _, tt := range tests {
		buf := NewBitBuffer(64)
		err := buf.WriteInt(tt.v, tt.width)
		if tt.ok && err != nil {
			t.Errorf("WriteInt(%d, %d) failed: %v", tt.v, tt.width, err)
		}
		if !tt.ok && !errors.Is(err, ErrRange) {
			t.Errorf("WriteInt(%d, %d): expected ErrRange, got %v", tt.v, tt.width, err)
		}
		if tt.ok {
			got, err := buf.ReadInt(tt.width)
			if err != nil || got != tt.v {
				t.Errorf("ReadInt(%d) = %d, %v; want %d", tt.width, got, err, tt.v)
			}
		}
	}
}

func TestBitBufferBigInt(t *testing.T) {
	max257 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	min257 := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 256))

	for _, v := range []*big.Int{big.NewInt(0), big.NewInt(-1), max257, min257, big.NewInt(42)} {
		buf := NewBitBuffer(MaxBits)
		if err := buf.WriteBigInt(v, 257); err != nil {
			t.Fatalf("WriteBigInt(%s) failed: %v", v, err)
		}
		got, err := buf.ReadBigInt(257)
		if err != nil {
			t.Fatalf("ReadBigInt failed: %v", err)
		}
		if got.Cmp(v) != 0 {
			t.Errorf("Expected %s, got %s", v, got)
		}
	}

	buf := NewBitBuffer(MaxBits)
	over := new(big.Int).Add(max257, big.NewInt(1))
	err := buf.WriteBigInt(over, 257)
	var re *RangeError
	if !errors.As(err, &re) {
		t.Fatalf("Expected *RangeError, got %v", err)
	}
	if re.Width != 257 || !re.Signed || re.Value.Cmp(over) != 0 {
		t.Errorf("Unexpected range error fields: %+v", re)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected buffer untouched, got %d bits", buf.Len())
	}
}

func TestBitBufferBigUint(t *testing.T) {
	max256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	buf := NewBitBuffer(MaxBits)
	if err := buf.WriteBigUint(max256, 256); err != nil {
		t.Fatalf("WriteBigUint failed: %v", err)
	}
	if err := buf.WriteBigUint(big.NewInt(5), 3); err != nil {
		t.Fatalf("WriteBigUint failed: %v", err)
	}
	if err := buf.WriteBigUint(big.NewInt(-1), 8); !errors.Is(err, ErrRange) {
		t.Errorf("Expected ErrRange for negative, got %v", err)
	}

	got, _ := buf.ReadBigUint(256)
	if got.Cmp(max256) != 0 {
		t.Errorf("Expected 2^256-1, got %s", got)
	}
	got, _ = buf.ReadBigUint(3)
	if got.Int64() != 5 {
		t.Errorf("Expected 5, got %s", got)
	}
}

func TestBitBufferCapacity(t *testing.T) {
	buf := NewBitBuffer(10)
	if err := buf.WriteUint(0, 8); err != nil {
		t.Fatalf("WriteUint failed: %v", err)
	}

	err := buf.WriteUint(0, 3)
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("Expected ErrOverflow, got %v", err)
	}
	var ce *CapacityError
	if !errors.As(err, &ce) || ce.Have != 8 || ce.Need != 3 || ce.Available != 2 {
		t.Errorf("Unexpected capacity error: %+v", ce)
	}
	if buf.Len() != 8 {
		t.Errorf("Expected length unchanged at 8, got %d", buf.Len())
	}
}

func TestBitBufferUnderflow(t *testing.T) {
	buf := NewBitBuffer(16)
	_ = buf.WriteUint(0xabc, 12)

	_, err := buf.ReadUint(16)
	var ue *UnderflowError
	if !errors.As(err, &ue) {
		t.Fatalf("Expected *UnderflowError, got %v", err)
	}
	if ue.Want != 16 || ue.Remaining != 12 {
		t.Errorf("Unexpected underflow error: %+v", ue)
	}
	if buf.Pos() != 0 {
		t.Errorf("Expected cursor unchanged, got %d", buf.Pos())
	}
}

func TestBitBufferUnalignedBits(t *testing.T) {
	src := []byte{0b1011_0110, 0b1100_0000}
	buf := NewBitBuffer(32)
	_ = buf.WriteBit(true)
	if err := buf.WriteBits(src, 2, 7); err != nil {
		t.Fatalf("WriteBits failed: %v", err)
	}
	// 1 + 1101101
	if got := buf.Bytes(); got[0] != 0b1110_1101 {
		t.Errorf("Expected 0xed, got %#x", got[0])
	}
	if err := buf.WriteBits(src, 10, 7); !errors.Is(err, ErrInvalidWidth) {
		t.Errorf("Expected ErrInvalidWidth reading past src, got %v", err)
	}
}

func TestBitsHex(t *testing.T) {
	tests := []struct {
		data []byte
		n    int
		want string
	}{
		{nil, 0, ""},
		{[]byte{0xab}, 8, "AB"},
		{[]byte{0xa0}, 4, "A"},
		{[]byte{0x80}, 1, "C_"},
		{[]byte{0x00}, 1, "4_"},
		{[]byte{0xab, 0x80}, 9, "ABC_"},
		{[]byte{0xb0}, 5, "B4_"},
	}
	for _, tt := range tests {
		if got := bitsHex(tt.data, tt.n); got != tt.want {
			t.Errorf("bitsHex(%x, %d) = %q, want %q", tt.data, tt.n, got, tt.want)
		}
	}
}
