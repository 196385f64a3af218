package tvmcell

// Maybe is a tagged optional value. It models the "presence bit followed by
// the value" convention of the cell format so that the bit and the value are
// always written or read together.
type Maybe[T any] struct {
	value T
	ok    bool
}

// Some returns a present optional holding v.
func Some[T any](v T) Maybe[T] {
	return Maybe[T]{value: v, ok: true}
}

// None returns an absent optional.
func None[T any]() Maybe[T] {
	return Maybe[T]{}
}

// MaybeOf returns Some(c) for a non-nil cell and None otherwise.
func MaybeOf(c *Cell) Maybe[*Cell] {
	if c == nil {
		return None[*Cell]()
	}
	return Some(c)
}

// Get returns the value and whether it is present.
func (m Maybe[T]) Get() (T, bool) {
	return m.value, m.ok
}

// IsSome reports whether a value is present.
func (m Maybe[T]) IsSome() bool {
	return m.ok
}

// OrElse returns the value if present, otherwise def.
func (m Maybe[T]) OrElse(def T) T {
	if m.ok {
		return m.value
	}
	return def
}
