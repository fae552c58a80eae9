package pkg

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type item struct {
	ID   string
	Cost float64
}

func TestQueue(t *testing.T) {
	t.Run("append then reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "q.gob")

		q, err := CreateQueue[item](path)
		require.NoError(t, err)
		require.Equal(t, path, q.Path())
		require.Equal(t, uint64(0), q.Len())

		require.NoError(t, q.Append(item{ID: "H-01", Cost: 1}))
		require.NoError(t, q.AppendBatch([]item{{ID: "H-02"}, {ID: "H-03", Cost: 3}}))
		require.Equal(t, uint64(3), q.Len())
		require.NoError(t, q.Close())

		reopened, err := OpenQueue[item](path)
		require.NoError(t, err)
		require.Equal(t, uint64(3), reopened.Len())

		var got []item

		require.NoError(t, reopened.Range(func(index uint64, it item) error {
			require.Equal(t, uint64(len(got)), index)

			got = append(got, it)

			return nil
		}))
		require.Equal(t, []item{{ID: "H-01", Cost: 1}, {ID: "H-02"}, {ID: "H-03", Cost: 3}}, got)
	})

	t.Run("opened queue is read-only", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "q.gob")

		q, err := CreateQueue[int](path)
		require.NoError(t, err)
		require.NoError(t, q.Close())

		reopened, err := OpenQueue[int](path)
		require.NoError(t, err)
		require.Equal(t, uint64(0), reopened.Len())
		require.ErrorIs(t, reopened.Append(1), ErrReadOnly)
		require.NoError(t, reopened.Close())
	})

	t.Run("create truncates", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "q.gob")

		q, err := CreateQueue[int](path)
		require.NoError(t, err)
		require.NoError(t, q.AppendBatch([]int{1, 2, 3}))
		require.NoError(t, q.Close())

		q, err = CreateQueue[int](path)
		require.NoError(t, err)
		require.NoError(t, q.Append(9))
		require.NoError(t, q.Close())

		reopened, err := OpenQueue[int](path)
		require.NoError(t, err)
		require.Equal(t, uint64(1), reopened.Len())
	})

	t.Run("range stops on callback error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "q.gob")

		q, err := CreateQueue[int](path)
		require.NoError(t, err)
		require.NoError(t, q.AppendBatch([]int{1, 2, 3}))

		stop := errors.New("stop")
		calls := 0

		err = q.Range(func(_ uint64, _ int) error {
			calls++
			return stop
		})
		require.ErrorIs(t, err, stop)
		require.Equal(t, 1, calls)
		require.NoError(t, q.Close())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := OpenQueue[int](filepath.Join(t.TempDir(), "absent.gob"))
		require.Error(t, err)
	})
}
