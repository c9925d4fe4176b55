package surface

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHeightGrid(t *testing.T) {
	t.Parallel()

	g, err := NewHeightGrid([][]float64{
		{1, 2, 3},
		{4, 5, 6},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, g.Rows())
	assert.Equal(t, 3, g.Cols())
	assert.Equal(t, 6, g.Cells())
	assert.Equal(t, 5.0, g.At(1, 1))
	assert.Equal(t, []float64{4, 5, 6}, g.Row(1))
	assert.Equal(t, []float64{3, 6}, g.Col(2))
}

func TestNewHeightGrid_CopiesInput(t *testing.T) {
	t.Parallel()

	rows := [][]float64{{1, 2}, {3, 4}}
	g, err := NewHeightGrid(rows)
	require.NoError(t, err)

	rows[0][0] = 99
	assert.Equal(t, 1.0, g.At(0, 0), "grid must not alias caller storage")
}

func TestNewHeightGrid_Malformed(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		rows [][]float64
	}{
		{"empty", nil},
		{"empty rows", [][]float64{}},
		{"empty first row", [][]float64{{}}},
		{"ragged", [][]float64{{1, 2, 3}, {4, 5}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewHeightGrid(tc.rows)
			require.Error(t, err)
			var malformed *MalformedGridError
			assert.ErrorAs(t, err, &malformed)
		})
	}
}

func TestNewHeightGrid_RejectsNonFinite(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		bad  float64
	}{
		{"NaN", math.NaN()},
		{"+Inf", math.Inf(1)},
		{"-Inf", math.Inf(-1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewHeightGrid([][]float64{{1, 2}, {tc.bad, 4}})
			require.Error(t, err)
			var malformed *MalformedGridError
			assert.ErrorAs(t, err, &malformed)
			assert.Contains(t, err.Error(), "(1, 0)")
		})
	}
}

func TestValidate_NilGrid(t *testing.T) {
	t.Parallel()

	_, err := Sa(nil)
	var malformed *MalformedGridError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, err.Error(), "Sa")
}
