package envelope

// OneOrMany holds either a single value or a list, so callers never need to
// inspect a runtime type to tell them apart.
type OneOrMany[T any] struct {
	items []T
}

// One wraps a single value.
func One[T any](v T) OneOrMany[T] { return OneOrMany[T]{items: []T{v}} }

// Many wraps a list of values. The slice is copied.
func Many[T any](vs ...T) OneOrMany[T] {
	return OneOrMany[T]{items: append([]T(nil), vs...)}
}

// Items returns the values in order.
func (o OneOrMany[T]) Items() []T { return o.items }

func (o OneOrMany[T]) Len() int { return len(o.items) }
