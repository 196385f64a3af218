package tvmcell

import (
	"errors"
	"fmt"
	"math/big"
)

// Sentinel errors for common failure conditions.
var (
	// ErrOverflow indicates a builder write would exceed the bit or reference capacity.
	ErrOverflow = errors.New("tvmcell: cell overflow")

	// ErrTooManyRefs indicates a builder already holds MaxRefs references.
	ErrTooManyRefs = errors.New("tvmcell: too many references (max 4)")

	// ErrUnderflow indicates a slice read requested more bits than remain.
	ErrUnderflow = errors.New("tvmcell: cell underflow")

	// ErrNoMoreRefs indicates a slice reference read past the child list.
	ErrNoMoreRefs = errors.New("tvmcell: no more references")

	// ErrRange indicates a numeric value does not fit in the requested bit width.
	ErrRange = errors.New("tvmcell: integer out of range")

	// ErrInvalidWidth indicates a bit width outside the supported range for the kind.
	ErrInvalidWidth = errors.New("tvmcell: invalid bit width")

	// ErrNilCell indicates a nil cell was passed where a reference is required.
	ErrNilCell = errors.New("tvmcell: nil cell reference")

	// ErrUseAfterFinalize indicates a write on a builder that was already finalized.
	ErrUseAfterFinalize = errors.New("tvmcell: builder already finalized")

	// ErrDepthLimit indicates a cell would exceed the maximum tree depth.
	ErrDepthLimit = errors.New("tvmcell: cell depth limit exceeded (max 1024)")

	// ErrNotExhausted indicates a slice still holds data after a full decode.
	ErrNotExhausted = errors.New("tvmcell: slice not fully consumed")

	// ErrMalformedDictionary indicates an internally inconsistent dictionary trie.
	ErrMalformedDictionary = errors.New("tvmcell: malformed dictionary")

	// ErrKeyWidthMismatch indicates a dictionary key width differs from the expected one.
	ErrKeyWidthMismatch = errors.New("tvmcell: dictionary key width mismatch")

	// ErrInvalidBoC indicates a bag-of-cells blob could not be decoded.
	ErrInvalidBoC = errors.New("tvmcell: invalid bag of cells")

	// ErrUnsupportedCell indicates an exotic cell, which this codec does not handle.
	ErrUnsupportedCell = errors.New("tvmcell: exotic cells are not supported")

	// ErrInvalidAddress indicates a malformed internal address.
	ErrInvalidAddress = errors.New("tvmcell: invalid address")

	// ErrInvalidString indicates a snake string with misaligned data or extra refs.
	ErrInvalidString = errors.New("tvmcell: invalid string encoding")

	// ErrInvalidCoins indicates a coin amount that cannot be parsed or encoded.
	ErrInvalidCoins = errors.New("tvmcell: invalid coins amount")
)

// CapacityError describes a builder write rejected for lack of room.
type CapacityError struct {
	Refs      bool // true when the reference list, not the bit payload, is full
	Have      int  // bits or refs already stored
	Need      int  // bits or refs the write requires
	Available int  // remaining capacity at the time of the write
}

func (e *CapacityError) Error() string {
	if e.Refs {
		return fmt.Sprintf("tvmcell: cell overflow: %d refs stored, cannot add %d (max %d)", e.Have, e.Need, MaxRefs)
	}
	return fmt.Sprintf("tvmcell: cell overflow: %d bits stored, need %d more, %d available", e.Have, e.Need, e.Available)
}

// Is reports ErrOverflow for every capacity failure and ErrTooManyRefs for reference ones.
func (e *CapacityError) Is(target error) bool {
	if target == ErrOverflow {
		return true
	}
	return e.Refs && target == ErrTooManyRefs
}

// UnderflowError describes a slice read past the end of its data.
type UnderflowError struct {
	Want      int
	Remaining int
}

func (e *UnderflowError) Error() string {
	return fmt.Sprintf("tvmcell: cell underflow: want %d bits, %d remaining", e.Want, e.Remaining)
}

func (e *UnderflowError) Unwrap() error {
	return ErrUnderflow
}

// RangeError indicates a value that cannot be represented in Width bits.
type RangeError struct {
	Width  int
	Signed bool
	Value  *big.Int
}

func (e *RangeError) Error() string {
	kind := "uint"
	if e.Signed {
		kind = "int"
	}
	return fmt.Sprintf("tvmcell: value %s does not fit in %s%d", e.Value, kind, e.Width)
}

func (e *RangeError) Unwrap() error {
	return ErrRange
}

// TrailingDataError is returned by Slice.EndParse when data remains.
type TrailingDataError struct {
	Bits int
	Refs int
}

func (e *TrailingDataError) Error() string {
	return fmt.Sprintf("tvmcell: slice not fully consumed: %d bits and %d refs remaining", e.Bits, e.Refs)
}

func (e *TrailingDataError) Unwrap() error {
	return ErrNotExhausted
}

// DictionaryError wraps errors that occur while walking a dictionary trie.
type DictionaryError struct {
	Path string // key bits consumed before the failure
	Err  error
}

func (e *DictionaryError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("tvmcell: malformed dictionary at prefix %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("tvmcell: malformed dictionary: %v", e.Err)
}

func (e *DictionaryError) Is(target error) bool {
	return target == ErrMalformedDictionary
}

func (e *DictionaryError) Unwrap() error {
	return e.Err
}

// BoCError wraps errors that occur while decoding a bag of cells.
type BoCError struct {
	Offset int
	Err    error
}

func (e *BoCError) Error() string {
	return fmt.Sprintf("tvmcell: invalid bag of cells at byte %d: %v", e.Offset, e.Err)
}

func (e *BoCError) Is(target error) bool {
	return target == ErrInvalidBoC
}

func (e *BoCError) Unwrap() error {
	return e.Err
}
