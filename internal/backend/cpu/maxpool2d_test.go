package cpu

import (
	"testing"

	"github.com/born-ml/glyphnet/internal/parallel"
	"github.com/born-ml/glyphnet/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaxPool2D_Basic(t *testing.T) {
	backend := New(parallel.Sequential())

	input := mustTensor(t, []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}, 1, 4, 4)

	output := backend.MaxPool2D(input, 2)

	require.Equal(t, tensor.Shape{1, 2, 2}, output.Shape())
	assert.Equal(t, []float32{6, 8, 14, 16}, output.Data())
}

// TestMaxPool2D_OddDropsTrailing checks floor semantics: the last row and
// column of a 5x5 map are ignored.
func TestMaxPool2D_OddDropsTrailing(t *testing.T) {
	backend := New(parallel.Sequential())

	data := make([]float32, 25)
	for i := range data {
		data[i] = float32(i)
	}
	data[24] = 1000 // bottom-right corner, outside every window
	input := mustTensor(t, data, 1, 5, 5)

	output := backend.MaxPool2D(input, 2)

	require.Equal(t, tensor.Shape{1, 2, 2}, output.Shape())
	assert.Equal(t, []float32{6, 8, 16, 18}, output.Data())
}

func TestMaxPool2D_NegativeValues(t *testing.T) {
	backend := New(parallel.Sequential())

	input := mustTensor(t, []float32{-5, -3, -4, -2}, 1, 2, 2)
	output := backend.MaxPool2D(input, 2)

	assert.Equal(t, []float32{-2}, output.Data())
}

func TestMaxPool2D_Channels(t *testing.T) {
	backend := New(parallel.Config{Enabled: true, NumWorkers: 2, MinChunkSize: 1})

	input := mustTensor(t, []float32{
		1, 2, 3, 4, // channel 0
		8, 7, 6, 5, // channel 1
	}, 2, 2, 2)

	output := backend.MaxPool2D(input, 2)

	require.Equal(t, tensor.Shape{2, 1, 1}, output.Shape())
	assert.Equal(t, []float32{4, 8}, output.Data())
}
