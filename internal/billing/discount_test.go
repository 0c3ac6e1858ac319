package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDiscountPercentage(t *testing.T) {
	d, err := ApplyDiscount(200, "10%")
	require.NoError(t, err)
	assert.InDelta(t, 20, d.Applied, 1e-9)
	assert.InDelta(t, 180, d.Total, 1e-9)

	// Percentages clamp to [0,100].
	d, err = ApplyDiscount(200, "150%")
	require.NoError(t, err)
	assert.InDelta(t, 200, d.Applied, 1e-9)
	assert.InDelta(t, 0, d.Total, 1e-9)

	d, err = ApplyDiscount(200, "-5%")
	require.NoError(t, err)
	assert.InDelta(t, 0, d.Applied, 1e-9)
	assert.InDelta(t, 200, d.Total, 1e-9)
}

func TestApplyDiscountFlatAmount(t *testing.T) {
	// A bare number is always a flat amount, even when it is 100 or less.
	d, err := ApplyDiscount(200, "80")
	require.NoError(t, err)
	assert.InDelta(t, 80, d.Applied, 1e-9)
	assert.InDelta(t, 120, d.Total, 1e-9)

	// Flat amounts clamp to the subtotal.
	d, err = ApplyDiscount(200, "500")
	require.NoError(t, err)
	assert.InDelta(t, 200, d.Applied, 1e-9)
	assert.InDelta(t, 0, d.Total, 1e-9)

	// Empty spec is a no-op.
	d, err = ApplyDiscount(200, "")
	require.NoError(t, err)
	assert.InDelta(t, 0, d.Applied, 1e-9)
	assert.InDelta(t, 200, d.Total, 1e-9)
}

func TestApplyDiscountInvalidSpec(t *testing.T) {
	_, err := ApplyDiscount(200, "abc")
	assert.Error(t, err)

	_, err = ApplyDiscount(200, "x%")
	assert.Error(t, err)
}

func TestDistributeDiscountGreedy(t *testing.T) {
	lines := []float64{100, 50, 75}
	out, consumed := DistributeDiscount(lines, 120)

	assert.InDelta(t, 120, consumed, 1e-9)
	assert.InDelta(t, 0, out[0], 1e-9)
	assert.InDelta(t, 30, out[1], 1e-9)
	assert.InDelta(t, 75, out[2], 1e-9)
}

func TestDistributeDiscountConservation(t *testing.T) {
	orderings := [][]float64{
		{100, 50, 75},
		{75, 100, 50},
		{50, 75, 100},
	}
	for _, lines := range orderings {
		subtotal := 0.0
		for _, line := range lines {
			subtotal += line
		}
		for _, flat := range []float64{0, 60, 125, 225} {
			out, consumed := DistributeDiscount(lines, flat)
			sum := consumed
			for _, line := range out {
				sum += line
			}
			assert.InDelta(t, subtotal, sum, 1e-9, "post-discount lines plus consumed must equal the subtotal")
		}
	}
}

func TestDistributeDiscountExhaustion(t *testing.T) {
	out, consumed := DistributeDiscount([]float64{10, 10}, 100)
	assert.InDelta(t, 20, consumed, 1e-9)
	assert.InDelta(t, 0, out[0], 1e-9)
	assert.InDelta(t, 0, out[1], 1e-9)

	out, consumed = DistributeDiscount([]float64{10, 10}, -5)
	assert.InDelta(t, 0, consumed, 1e-9)
	assert.InDelta(t, 10, out[0], 1e-9)
	assert.InDelta(t, 10, out[1], 1e-9)
}
