package iterators

// Collect drains the iterator into a non-nil slice and closes it.
// An iteration error takes precedence over the close error.
func Collect[T any](i Iterator[T]) ([]T, error) {
	vs := make([]T, 0)
	for i.Next() {
		vs = append(vs, i.Value())
	}
	if err := i.Err(); err != nil {
		_ = i.Close()
		return vs, err
	}
	return vs, i.Close()
}
