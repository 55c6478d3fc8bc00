package iterators

// Empty yields nothing. Stores return it when a lookup cannot match any record.
func Empty[T any]() *StaticIter[T] { return &StaticIter[T]{} }

// Error yields nothing and reports err, so a failed query still satisfies Iterator.
func Error[T any](err error) *StaticIter[T] { return &StaticIter[T]{err: err} }

type StaticIter[T any] struct{ err error }

func (i *StaticIter[T]) Close() error { return nil }
func (i *StaticIter[T]) Next() bool { return false }
func (i *StaticIter[T]) Err() error { return i.err }
func (i *StaticIter[T]) Value() T { return *new(T) }
