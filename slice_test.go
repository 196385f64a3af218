package tvmcell

import (
	"errors"
	"testing"
)

func sampleCell(t *testing.T) *Cell {
	t.Helper()
	b := NewBuilder()
	_ = b.StoreUint(0xabcd, 16)
	_ = b.StoreBit(true)
	_ = b.StoreRef(EmptyCell())
	_ = b.StoreRef(BeginCell().MustFinalize())
	c, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	return c
}

func TestSliceUnderflowLeavesOffsets(t *testing.T) {
	s := sampleCell(t).BeginParse()
	if _, err := s.LoadUint(8); err != nil {
		t.Fatalf("LoadUint failed: %v", err)
	}

	_, err := s.LoadUint(10)
	if !errors.Is(err, ErrUnderflow) {
		t.Fatalf("Expected ErrUnderflow, got %v", err)
	}
	if s.BitsOffset() != 8 {
		t.Errorf("Expected bits offset 8, got %d", s.BitsOffset())
	}
	if s.RemainingBits() != 9 {
		t.Errorf("Expected 9 bits remaining, got %d", s.RemainingBits())
	}
}

func TestSliceRefs(t *testing.T) {
	s := sampleCell(t).BeginParse()
	for i := 0; i < 2; i++ {
		if _, err := s.LoadRef(); err != nil {
			t.Fatalf("LoadRef %d failed: %v", i, err)
		}
	}
	if _, err := s.LoadRef(); !errors.Is(err, ErrNoMoreRefs) {
		t.Errorf("Expected ErrNoMoreRefs, got %v", err)
	}
	if _, err := s.PreloadRef(); !errors.Is(err, ErrNoMoreRefs) {
		t.Errorf("Expected ErrNoMoreRefs from PreloadRef, got %v", err)
	}
	if s.RefsOffset() != 2 {
		t.Errorf("Expected refs offset 2, got %d", s.RefsOffset())
	}
}

func TestSliceLoadMaybeRefWithoutRef(t *testing.T) {
	b := NewBuilder()
	_ = b.StoreBit(true)
	s := b.MustFinalize().BeginParse()

	_, err := s.LoadMaybeRef()
	if !errors.Is(err, ErrNoMoreRefs) {
		t.Fatalf("Expected ErrNoMoreRefs, got %v", err)
	}
	if s.BitsOffset() != 0 {
		t.Errorf("Expected presence bit not consumed, got offset %d", s.BitsOffset())
	}
}

func TestSlicePreload(t *testing.T) {
	s := sampleCell(t).BeginParse()
	v, err := s.PreloadUint(16)
	if err != nil || v != 0xabcd {
		t.Fatalf("PreloadUint = %#x, %v", v, err)
	}
	if s.BitsOffset() != 0 {
		t.Errorf("Expected preload not to advance, got %d", s.BitsOffset())
	}
	if err := s.SkipBits(16); err != nil {
		t.Fatalf("SkipBits failed: %v", err)
	}
	bit, err := s.PreloadBit()
	if err != nil || !bit {
		t.Errorf("PreloadBit = %v, %v", bit, err)
	}
}

func TestSliceEndParse(t *testing.T) {
	s := sampleCell(t).BeginParse()
	err := s.EndParse()
	var te *TrailingDataError
	if !errors.As(err, &te) {
		t.Fatalf("Expected *TrailingDataError, got %v", err)
	}
	if te.Bits != 17 || te.Refs != 2 {
		t.Errorf("Expected 17 bits and 2 refs, got %+v", te)
	}
	if !errors.Is(err, ErrNotExhausted) {
		t.Error("Expected errors.Is ErrNotExhausted")
	}

	_, _ = s.LoadRemainder()
	if !s.IsExhausted() {
		t.Error("Expected slice exhausted after LoadRemainder")
	}
	if err := s.EndParse(); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}
}

func TestSliceToCell(t *testing.T) {
	c := sampleCell(t)

	s := c.BeginParse()
	whole, err := s.ToCell()
	if err != nil || whole != c {
		t.Errorf("Expected unread slice to yield the same cell, got %v (%v)", whole, err)
	}

	_, _ = s.LoadUint(16)
	_, _ = s.LoadRef()
	rest, err := s.ToCell()
	if err != nil {
		t.Fatalf("ToCell failed: %v", err)
	}
	if rest.BitsLen() != 1 || rest.RefsCount() != 1 {
		t.Errorf("Expected 1 bit and 1 ref, got %d and %d", rest.BitsLen(), rest.RefsCount())
	}
	if s.BitsOffset() != 16 {
		t.Errorf("Expected ToCell not to advance, got %d", s.BitsOffset())
	}
}

func TestSliceLoadSlice(t *testing.T) {
	s := sampleCell(t).BeginParse()
	sub, err := s.LoadSlice(8, 1)
	if err != nil {
		t.Fatalf("LoadSlice failed: %v", err)
	}
	if v, _ := sub.LoadUint(8); v != 0xab {
		t.Errorf("Expected 0xab, got %#x", v)
	}
	if sub.RemainingRefs() != 1 {
		t.Errorf("Expected 1 ref in sub-slice, got %d", sub.RemainingRefs())
	}
	if s.BitsOffset() != 8 || s.RefsOffset() != 1 {
		t.Errorf("Expected offsets 8/1, got %d/%d", s.BitsOffset(), s.RefsOffset())
	}

	if _, err := s.LoadSlice(0, 5); !errors.Is(err, ErrNoMoreRefs) {
		t.Errorf("Expected ErrNoMoreRefs, got %v", err)
	}
}

func TestSliceClone(t *testing.T) {
	s := sampleCell(t).BeginParse()
	_, _ = s.LoadUint(4)
	c := s.Clone()
	_, _ = c.LoadUint(4)
	if s.BitsOffset() != 4 {
		t.Errorf("Expected original at 4, got %d", s.BitsOffset())
	}
	if c.BitsOffset() != 8 {
		t.Errorf("Expected clone at 8, got %d", c.BitsOffset())
	}
}

func TestStoreSliceDoesNotConsume(t *testing.T) {
	s := sampleCell(t).BeginParse()
	_, _ = s.LoadUint(8)

	b := NewBuilder()
	if err := b.StoreSlice(s); err != nil {
		t.Fatalf("StoreSlice failed: %v", err)
	}
	if s.BitsOffset() != 8 {
		t.Errorf("Expected slice unchanged, got offset %d", s.BitsOffset())
	}
	c := b.MustFinalize()
	if v, _ := c.BeginParse().LoadUint(8); v != 0xcd {
		t.Errorf("Expected 0xcd, got %#x", v)
	}
}
