package iterators

// Filter yields the values of i that match the selector.
// A selector error stops the iteration, and is reported by Err.
func Filter[T any](i Iterator[T], selector func(T) (bool, error)) *FilterIter[T] {
	return &FilterIter[T]{src: i, match: selector}
}

type FilterIter[T any] struct {
	src   Iterator[T]
	match func(T) (bool, error)

	next T
	err  error
}

func (fi *FilterIter[T]) Close() error {
	return fi.src.Close()
}

func (fi *FilterIter[T]) Err() error {
	if fi.err != nil {
		return fi.err
	}
	return fi.src.Err()
}

func (fi *FilterIter[T]) Value() T {
	return fi.next
}

func (fi *FilterIter[T]) Next() bool {
	if fi.err != nil {
		return false
	}
	for fi.src.Next() {
		v := fi.src.Value()
		ok, err := fi.match(v)
		if err != nil {
			fi.err = err
			return false
		}
		if ok {
			fi.next = v
			return true
		}
	}
	return false
}
