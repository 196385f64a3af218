package tvmcell

import (
	"errors"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestCellHashVectors(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Cell
		want  string
	}{
		{
			name:  "empty cell",
			build: EmptyCell,
			want:  "0x96a296d224f285c67bee93c30f8a309157f0daa35dc5b87e410b78630a09cfc7",
		},
		{
			name: "single bit",
			build: func() *Cell {
				b := NewBuilder()
				_ = b.StoreBit(true)
				return b.MustFinalize()
			},
			want: "0x7c6c1a965fd501d2938c2c0e06626bdaa3531357016e169070c9ef79c4c46bc0",
		},
		{
			name: "uint32",
			build: func() *Cell {
				b := NewBuilder()
				_ = b.StoreUint(0xdeadbeef, 32)
				return b.MustFinalize()
			},
			want: "0x270906fd171b9c43f37a353059a73fbc02e0568188ec30186af846caefd09b8c",
		},
		{
			name: "ref to empty",
			build: func() *Cell {
				b := NewBuilder()
				_ = b.StoreRef(EmptyCell())
				return b.MustFinalize()
			},
			want: "0x6c64b3153333f7af728149b88cd7b27f5ded7cd17ac88893ee47fc208a15e640",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.build().Hash()
			if got != common.HexToHash(tt.want) {
				t.Errorf("Expected hash %s, got %s", tt.want, got.Hex())
			}
		})
	}
}

func TestCellContentAddressing(t *testing.T) {
	build := func() *Cell {
		leaf := NewBuilder()
		_ = leaf.StoreUint(7, 3)
		b := NewBuilder()
		_ = b.StoreUint(0xab, 8)
		_ = b.StoreRef(leaf.MustFinalize())
		return b.MustFinalize()
	}
	a, b := build(), build()
	if a == b {
		t.Fatal("Expected distinct instances")
	}
	if a.Hash() != b.Hash() || !a.Equal(b) {
		t.Error("Expected identical content to hash identically")
	}

	other := NewBuilder()
	_ = other.StoreUint(0xab, 8)
	_ = other.StoreRef(EmptyCell())
	if a.Equal(other.MustFinalize()) {
		t.Error("Expected different children to change the hash")
	}
}

func TestCellBitLengthAffectsHash(t *testing.T) {
	// Same bytes, different bit lengths.
	x := NewBuilder()
	_ = x.StoreUint(0, 7)
	y := NewBuilder()
	_ = y.StoreUint(0, 8)
	if x.MustFinalize().Equal(y.MustFinalize()) {
		t.Error("Expected 7 and 8 zero bits to hash differently")
	}
}

func TestCellDepth(t *testing.T) {
	c := EmptyCell()
	if c.Depth() != 0 {
		t.Errorf("Expected leaf depth 0, got %d", c.Depth())
	}
	for i := 0; i < MaxDepth; i++ {
		b := NewBuilder()
		_ = b.StoreRef(c)
		next, err := b.Finalize()
		if err != nil {
			t.Fatalf("Finalize at depth %d failed: %v", i+1, err)
		}
		c = next
	}
	if c.Depth() != MaxDepth {
		t.Errorf("Expected depth %d, got %d", MaxDepth, c.Depth())
	}

	b := NewBuilder()
	_ = b.StoreRef(c)
	if _, err := b.Finalize(); !errors.Is(err, ErrDepthLimit) {
		t.Errorf("Expected ErrDepthLimit, got %v", err)
	}
}

func TestCellAccessors(t *testing.T) {
	c := sampleCell(t)
	if c.Ref(2) != nil || c.Ref(-1) != nil {
		t.Error("Expected nil for out-of-range Ref")
	}
	refs := c.Refs()
	refs[0] = nil
	if c.Ref(0) == nil {
		t.Error("Expected Refs to return a copy")
	}
	bits := c.Bits()
	bits[0] = 0
	if v, _ := c.BeginParse().LoadUint(8); v != 0xab {
		t.Error("Expected Bits to return a copy")
	}
}

func TestCellConcurrentHash(t *testing.T) {
	c := sampleCell(t)
	want := sampleCell(t).Hash()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Hash() != want {
				t.Error("Expected stable hash across goroutines")
			}
			s := c.BeginParse()
			if v, err := s.LoadUint(16); err != nil || v != 0xabcd {
				t.Errorf("Concurrent read = %#x, %v", v, err)
			}
		}()
	}
	wg.Wait()
}

func TestCellString(t *testing.T) {
	b := NewBuilder()
	_ = b.StoreUint(0xab, 8)
	leaf := NewBuilder()
	_ = leaf.StoreBit(true)
	l := leaf.MustFinalize()
	_ = b.StoreRef(l)
	_ = b.StoreRef(l)

	want := "x{AB}\n x{C_}\n x{C_}"
	if got := b.MustFinalize().String(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
