package genome

import (
	"fmt"
	"math/rand"
)

// Initializer produces a fresh random genome. It plays the role of the
// external genome initializer that seeds a population before a run starts.
type Initializer func(rng *rand.Rand) Genome

func RandomBits(length int) Initializer {
	return func(rng *rand.Rand) Genome {
		out := make(Bits, length)
		for i := range out {
			out[i] = rng.Intn(2) == 1
		}
		return out
	}
}

// RandomInts draws genes uniformly from [low, high].
func RandomInts(length, low, high int) Initializer {
	return func(rng *rand.Rand) Genome {
		out := make(Ints, length)
		for i := range out {
			out[i] = low + rng.Intn(high-low+1)
		}
		return out
	}
}

// RandomFloats draws genes uniformly from [low, high).
func RandomFloats(length int, low, high float64) Initializer {
	return func(rng *rand.Rand) Genome {
		out := make(Floats, length)
		for i := range out {
			out[i] = low + rng.Float64()*(high-low)
		}
		return out
	}
}

// Generate calls init n times with the shared random source.
func Generate(n int, init Initializer, rng *rand.Rand) ([]Genome, error) {
	if n <= 0 {
		return nil, fmt.Errorf("genome count must be > 0")
	}
	if init == nil {
		return nil, fmt.Errorf("initializer is required")
	}
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	out := make([]Genome, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, init(rng))
	}
	return out, nil
}
