package hydrology

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/psi29a/worldsynth/internal/grid"
)

func mustField(t *testing.T, rows [][]float64) *grid.Field {
	t.Helper()
	f, err := grid.FromRows(rows)
	require.NoError(t, err)
	return f
}

func pt(x, y int) grid.Point { return grid.Point{X: x, Y: y} }

// slope returns a 12×1 strip falling from the hills to the sea.
func slope(t *testing.T) *grid.Field {
	return mustField(t, [][]float64{
		{0.80, 0.78, 0.76, 0.74, 0.72, 0.70, 0.68, 0.50, 0.40, 0.30, 0.20, 0.10},
	})
}
