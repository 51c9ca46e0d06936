package storage

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pkg.jsn.cam/fieldminmax/pkg/minmax"
)

func record(function, label string, index int, lo, hi float64) Record {
	return Record{
		Function: function,
		Cycle:    minmax.Cycle{Index: index, Time: float64(index) * 0.5},
		Result: minmax.Result{
			Field: "p",
			Label: label,
			Kind:  minmax.KindScalar,
			Min:   minmax.GlobalExtremum{Value: lo, Location: r3.Vector{X: 1}, Partition: 0, Raw: []float64{lo}},
			Max:   minmax.GlobalExtremum{Value: hi, Location: r3.Vector{Y: 2}, Partition: 1, Raw: []float64{hi}},
		},
	}
}

// storeTestSuite runs the same checks against any Store implementation
func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("SaveAndHistory", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		require.NoError(t, store.Save(
			record("fieldMinMax1", "p", 2, -1, 3),
			record("fieldMinMax1", "p", 0, -2, 5),
			record("fieldMinMax1", "p", 1, -3, 4),
		))

		history, err := store.History("fieldMinMax1", "p")
		require.NoError(t, err)
		require.Len(t, history, 3)

		for i, r := range history {
			assert.Equal(t, i, r.Cycle.Index, "history must be in cycle order")
		}
		assert.Equal(t, -3.0, history[1].Result.Min.Value)
		assert.Equal(t, r3.Vector{Y: 2}, history[1].Result.Max.Location)
		assert.Equal(t, 1, history[1].Result.Max.Partition)
	})

	t.Run("Overwrite", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		require.NoError(t, store.Save(record("f", "p", 7, 0, 1)))
		require.NoError(t, store.Save(record("f", "p", 7, 0, 9)))

		history, err := store.History("f", "p")
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, 9.0, history[0].Result.Max.Value)
	})

	t.Run("CycleOrderBeyondOneByte", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		for _, idx := range []int{300, 2, 256, 1} {
			require.NoError(t, store.Save(record("f", "p", idx, 0, 1)))
		}

		history, err := store.History("f", "p")
		require.NoError(t, err)

		var got []int
		for _, r := range history {
			got = append(got, r.Cycle.Index)
		}
		assert.Equal(t, []int{1, 2, 256, 300}, got)
	})

	t.Run("MissingLabel", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		history, err := store.History("nope", "p")
		require.NoError(t, err)
		assert.Empty(t, history)

		labels, err := store.Labels("nope")
		require.NoError(t, err)
		assert.Empty(t, labels)
	})

	t.Run("LabelsAndFunctions", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		require.NoError(t, store.Save(
			record("b", "mag(U)", 0, 0, 1),
			record("b", "p", 0, 0, 1),
			record("a", "U.x", 0, 0, 1),
		))

		labels, err := store.Labels("b")
		require.NoError(t, err)
		assert.Equal(t, []string{"mag(U)", "p"}, labels)

		functions, err := store.Functions()
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, functions)
	})
}
