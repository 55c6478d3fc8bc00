package iterators_test

//go:generate mockgen -destination SQLRows_mocks_test.go -source SQLRows.go -package iterators_test

import (
	"errors"
	"testing"

	"github.com/adamluzsi/persistroute/iterators"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

func TestSQLRows(t *testing.T) {
	mapper := iterators.SQLRowMapperFunc[string](func(s iterators.SQLRowScanner) (string, error) {
		var text string
		err := s.Scan(&text)
		return text, err
	})

	t.Run("rows are mapped in order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		rows := NewMockSQLRows(ctrl)
		texts := []string{"foo", "bar"}
		var n int
		rows.EXPECT().Next().DoAndReturn(func() bool { n++; return n <= len(texts) }).AnyTimes()
		rows.EXPECT().Scan(gomock.Any()).DoAndReturn(func(dest ...any) error {
			*dest[0].(*string) = texts[n-1]
			return nil
		}).Times(2)
		rows.EXPECT().Err().Return(nil).AnyTimes()
		rows.EXPECT().Close().Return(nil)

		vs, err := iterators.Collect[string](iterators.SQLRows[string](rows, mapper))
		require.NoError(t, err)
		require.Equal(t, texts, vs)
	})

	t.Run("scan error stops the iteration", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		rows := NewMockSQLRows(ctrl)
		expected := errors.New("boom")
		rows.EXPECT().Next().Return(true).AnyTimes()
		rows.EXPECT().Scan(gomock.Any()).Return(expected)
		rows.EXPECT().Err().Return(nil).AnyTimes()
		rows.EXPECT().Close().Return(nil)

		iter := iterators.SQLRows[string](rows, mapper)
		require.False(t, iter.Next())
		require.False(t, iter.Next())
		require.Equal(t, expected, iter.Err())
		require.NoError(t, iter.Close())
	})

	t.Run("rows error is reported", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		rows := NewMockSQLRows(ctrl)
		expected := errors.New("connection lost")
		rows.EXPECT().Next().Return(false)
		rows.EXPECT().Err().Return(expected)
		rows.EXPECT().Close().Return(nil)

		_, err := iterators.Collect[string](iterators.SQLRows[string](rows, mapper))
		require.Equal(t, expected, err)
	})
}

func TestFilter(t *testing.T) {
	even := func(n int) (bool, error) { return n%2 == 0, nil }

	t.Run("only matching values are yielded", func(t *testing.T) {
		vs, err := iterators.Collect[int](iterators.Filter[int](iterators.Slice([]int{1, 2, 3, 4}), even))
		require.NoError(t, err)
		require.Equal(t, []int{2, 4}, vs)
	})

	t.Run("selector error is reported", func(t *testing.T) {
		expected := errors.New("boom")
		iter := iterators.Filter[int](iterators.Slice([]int{1, 2}), func(int) (bool, error) { return false, expected })
		require.False(t, iter.Next())
		require.Equal(t, expected, iter.Err())
	})
}
