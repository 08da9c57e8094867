package cpu

import (
	"math"
	"math/rand"
	"testing"

	"github.com/born-ml/glyphnet/internal/parallel"
	"github.com/stretchr/testify/assert"
)

func TestReLU(t *testing.T) {
	backend := New(parallel.Sequential())
	x := mustTensor(t, []float32{-2, -0.5, 0, 0.5, 3}, 5)

	backend.ReLU(x)

	assert.Equal(t, []float32{0, 0, 0, 0.5, 3}, x.Data())
}

func TestSoftmax_SumsToOne(t *testing.T) {
	backend := New(parallel.Sequential())
	rng := rand.New(rand.NewSource(11))

	for trial := 0; trial < 20; trial++ {
		x := randomTensor(rng, 47)
		for i := range x.Data() {
			x.Data()[i] *= 50
		}

		p := backend.Softmax(x)

		sum := 0.0
		for _, v := range p.Data() {
			assert.GreaterOrEqual(t, v, float32(0))
			sum += float64(v)
		}
		assert.InDelta(t, 1.0, sum, 1e-5)
	}
}

// TestSoftmax_LargeLogits would overflow without max subtraction.
func TestSoftmax_LargeLogits(t *testing.T) {
	backend := New(parallel.Sequential())
	x := mustTensor(t, []float32{1000, 1000, 999}, 3)

	p := backend.Softmax(x).Data()

	for _, v := range p {
		assert.False(t, math.IsNaN(float64(v)) || math.IsInf(float64(v), 0))
	}
	assert.InDelta(t, 0.4223, p[0], 1e-4)
	assert.Equal(t, p[0], p[1])
}

func TestSoftmax_Uniform(t *testing.T) {
	backend := New(parallel.Sequential())
	x := mustTensor(t, make([]float32, 10), 10)

	for _, v := range backend.Softmax(x).Data() {
		assert.InDelta(t, 0.1, v, 1e-6)
	}
}
