package iterators

import (
	"io"
)

func SQLRows[T any](rows sqlRows, mapper SQLRowMapper[T]) *SQLRowsIter[T] {
	return &SQLRowsIter[T]{Rows: rows, Mapper: mapper}
}

// SQLRowsIter exposes sql.Rows through the Iterator interface,
// mapping every row into a value with Mapper.
type SQLRowsIter[T any] struct {
	Rows   sqlRows
	Mapper SQLRowMapper[T]

	value T
	err   error
}

type sqlRows interface {
	io.Closer
	Next() bool
	Err() error
	Scan(dest ...any) error
}

func (i *SQLRowsIter[T]) Close() error {
	return i.Rows.Close()
}

func (i *SQLRowsIter[T]) Next() bool {
	if i.err != nil {
		return false
	}
	if !i.Rows.Next() {
		return false
	}
	v, err := i.Mapper.Map(i.Rows)
	if err != nil {
		i.err = err
		return false
	}
	i.value = v
	return true
}

func (i *SQLRowsIter[T]) Err() error {
	if i.err != nil {
		return i.err
	}
	return i.Rows.Err()
}

func (i *SQLRowsIter[T]) Value() T {
	return i.value
}

type SQLRowScanner interface {
	Scan(...any) error
}

type SQLRowMapper[T any] interface {
	Map(s SQLRowScanner) (T, error)
}

type SQLRowMapperFunc[T any] func(SQLRowScanner) (T, error)

func (fn SQLRowMapperFunc[T]) Map(s SQLRowScanner) (T, error) { return fn(s) }
