// Package tvmcell provides a Go implementation of the TON cell format: the
// bounded bit/reference containers that all contract state and messages are
// serialized into.
//
// A cell holds at most 1023 bits and 4 references to other cells. Cells are
// built with a Builder, frozen into an immutable Cell, and read back with a
// Slice. This library allows you to:
//   - Write and read fixed-width integers, bits, bytes and references
//   - Compute the content hash and depth of a cell tree
//   - Encode optional references, addresses, coin amounts and snake strings
//   - Serialize integer-keyed dictionaries as compressed binary tries
//   - Encode and decode bag-of-cells blobs
//
// # Basic Usage
//
// Build a cell, then parse it back in the same order:
//
//	b := tvmcell.BeginCell()
//	if err := b.StoreUint(0x0f8a7ea5, 32); err != nil {
//	    log.Fatal(err)
//	}
//	if err := b.StoreCoins(tvmcell.MustParseCoins("50")); err != nil {
//	    log.Fatal(err)
//	}
//	cell, err := b.EndCell()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	s := cell.BeginParse()
//	op, _ := s.LoadUint(32)
//	amount, _ := s.LoadCoins()
//	if err := s.EndParse(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Capacity and Failure
//
// Every write and read either completes or leaves the builder or slice
// untouched. Writes past capacity return a *CapacityError matching
// ErrOverflow (and ErrTooManyRefs for the reference list). Reads past the
// end return a *UnderflowError matching ErrUnderflow, or ErrNoMoreRefs.
// Values that do not fit their bit width return a *RangeError.
//
// # Content Addressing
//
// Cell.Hash depends only on the cell's bits and the hashes and depths of
// its children, so structurally identical trees hash identically and share
// one slot when serialized with SerializeBoC.
//
// # Dictionaries
//
// Dictionary maps fixed-width integer keys to cells. ToCell produces the
// canonical trie for a set of entries; ParseDictionary accepts any
// well-formed trie.
//
// # References
//
// For more information about the cell format, see:
//   - https://docs.ton.org/develop/data-formats/cell-boc
//   - https://docs.ton.org/develop/data-formats/tl-b-types
package tvmcell
