package qubo

import (
	"fmt"
	"math"
)

// minWeightCutoff drops dust allocations produced by the binary
// encoding before renormalization.
const minWeightCutoff = 0.01

// Decode maps a solver sample back into normalized portfolio weights.
// Variable order matches Build: asset-major, bit-minor where bit b
// carries value 2^b. Weights below the cutoff are zeroed, and the
// remainder renormalized to sum to one.
func (b *Builder) Decode(sample []int, numAssets int) ([]float64, error) {
	k := b.config.BitsPerAsset
	if len(sample) != numAssets*k {
		return nil, fmt.Errorf("sample has %d variables, expected %d", len(sample), numAssets*k)
	}

	scale := 1.0 / float64(int(1)<<k-1)
	weights := make([]float64, numAssets)
	for i := 0; i < numAssets; i++ {
		raw := 0
		for bit := 0; bit < k; bit++ {
			if sample[i*k+bit] != 0 {
				raw |= 1 << bit
			}
		}
		weights[i] = float64(raw) * scale
	}

	total := 0.0
	for i, w := range weights {
		if w < minWeightCutoff {
			weights[i] = 0
			continue
		}
		total += w
	}
	if total <= 0 {
		return nil, fmt.Errorf("sample decodes to an empty portfolio")
	}
	for i := range weights {
		weights[i] /= total
	}
	return weights, nil
}

// DecodeBitstring parses a "0101…" string sample and decodes it. Sampler
// output uses this form when results come back from a remote service.
func (b *Builder) DecodeBitstring(bitstring string, numAssets int) ([]float64, error) {
	sample := make([]int, len(bitstring))
	for i, c := range bitstring {
		switch c {
		case '0':
			sample[i] = 0
		case '1':
			sample[i] = 1
		default:
			return nil, fmt.Errorf("invalid character %q at position %d", c, i)
		}
	}
	return b.Decode(sample, numAssets)
}

// MaxEncodableWeight returns the largest single-asset weight the
// encoding can represent before normalization, which is always 1.
func (b *Builder) MaxEncodableWeight() float64 {
	return 1.0
}

// Resolution returns the smallest non-zero raw weight step of the
// encoding.
func (b *Builder) Resolution() float64 {
	return 1.0 / float64(int(1)<<b.config.BitsPerAsset-1)
}

// ValidateWeights checks that decoded weights are a distribution.
func ValidateWeights(weights []float64) error {
	sum := 0.0
	for i, w := range weights {
		if w < 0 {
			return fmt.Errorf("weight %d is negative: %f", i, w)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("weights sum to %f, expected 1", sum)
	}
	return nil
}
