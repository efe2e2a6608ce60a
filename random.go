package malasim

import (
	"fmt"
	"math/rand"
	"time"

	rv "github.com/kentwait/randomvariate"
)

// Random wraps a single seeded math/rand source and layers the
// distributions the engine needs (uniform, normal, gamma, beta, binomial,
// Poisson, multinomial, roulette and shuffle sampling) on top of it.
//
// Exactly one Random is authoritative per simulation instance (see the
// concurrency model in spec §5): a given seed must reproduce a byte-for-byte
// identical draw sequence regardless of call order across goroutines, so
// Random is deliberately NOT safe for concurrent use. Code that wants to
// parallelize inner loops must derive per-location sub-streams from the
// master seed instead of sharing one Random.
type Random struct {
	src  *rand.Rand
	seed int64
}

// NewRandom creates a Random from the given seed. A seed of 0 draws
// entropy from the wall clock, matching model_settings.initial_seed_number's
// 0-means-wall-clock convention.
func NewRandom(seed int64) *Random {
	if seed == 0 {
		seed = wallClockSeed()
	}
	return &Random{src: rand.New(rand.NewSource(seed)), seed: seed}
}

// Seed returns the seed this generator was constructed with (after the
// wall-clock substitution, if any), so a run can be logged and replayed.
func (r *Random) Seed() int64 {
	return r.seed
}

// Uniform draws a uniform value in [0, 1).
func (r *Random) Uniform() float64 {
	return r.src.Float64()
}

// UniformUpTo draws a uniform integer in [0, upper).
func (r *Random) UniformUpTo(upper int) int {
	if upper <= 0 {
		panic(fmt.Sprintf(InvalidIntParameterError, "upper", upper, "upper <= 0"))
	}
	return r.src.Intn(upper)
}

// UniformRange draws a uniform float64 in [from, to). Panics if from >= to (B1).
func (r *Random) UniformRange(from, to float64) float64 {
	if from >= to {
		panic(fmt.Sprintf(InvalidFloatParameterError, "from", from, "from >= to"))
	}
	return from + r.src.Float64()*(to-from)
}

// Flat is an alias of UniformRange kept for parity with spec's flat(a,b).
func (r *Random) Flat(a, b float64) float64 {
	return r.UniformRange(a, b)
}

// Normal draws from N(mu, sigma). Panics if sigma < 0.
func (r *Random) Normal(mu, sigma float64) float64 {
	if sigma < 0 {
		panic(fmt.Sprintf(InvalidFloatParameterError, "sigma", sigma, "sigma < 0"))
	}
	return mu + sigma*r.src.NormFloat64()
}

// NormalTruncated draws from N(mu, sigma) rejecting any draw further than
// kSigma standard deviations from mu. Panics after maxAttempts rejections (B2).
func (r *Random) NormalTruncated(mu, sigma, kSigma float64, maxAttempts int) float64 {
	if sigma < 0 {
		panic(fmt.Sprintf(InvalidFloatParameterError, "sigma", sigma, "sigma < 0"))
	}
	lo, hi := mu-kSigma*sigma, mu+kSigma*sigma
	for attempt := 0; attempt < maxAttempts; attempt++ {
		v := r.Normal(mu, sigma)
		if v >= lo && v <= hi {
			return v
		}
	}
	panic(fmt.Sprintf("normal_truncated: no value within %.2f sigma after %d attempts", kSigma, maxAttempts))
}

// Gamma draws from a Gamma(shape, scale) distribution.
func (r *Random) Gamma(shape, scale float64) float64 {
	if shape <= 0 || scale <= 0 {
		panic(fmt.Sprintf(InvalidFloatParameterError, "shape/scale", shape, "shape <= 0 or scale <= 0"))
	}
	return rv.Gamma(shape, scale)
}

// Beta draws from Beta(alpha, beta). Returns alpha when beta == 0, matching
// the degenerate convention used to seed fully-naive immune systems.
func (r *Random) Beta(alpha, beta float64) float64 {
	if beta == 0 {
		return alpha
	}
	if alpha < 0 || beta < 0 {
		panic(fmt.Sprintf(InvalidFloatParameterError, "alpha/beta", alpha, "alpha < 0 or beta < 0"))
	}
	return rv.Beta(alpha, beta)
}

// Binomial draws the number of successes out of n trials each with
// probability p.
func (r *Random) Binomial(n int, p float64) int {
	if p < 0 || p > 1 {
		panic(fmt.Sprintf(InvalidFloatParameterError, "p", p, "p not in [0,1]"))
	}
	return int(rv.Binomial(n, p))
}

// Poisson draws from a Poisson(lambda) distribution.
func (r *Random) Poisson(lambda float64) int {
	if lambda < 0 {
		panic(fmt.Sprintf(InvalidFloatParameterError, "lambda", lambda, "lambda < 0"))
	}
	return rv.Poisson(lambda)
}

// Multinomial draws counts for K categories out of N total draws given
// probabilities p, writing results into out (len(out) must equal len(p)).
// Categories with p == 0 receive a count of 0 (B3); the returned counts
// always sum to N.
func (r *Random) Multinomial(n int, p []float64, out []int) {
	if len(p) != len(out) {
		panic(fmt.Sprintf(UnequalIntParameterError, "len(out)", len(p), len(out)))
	}
	for i, c := range rv.MultinomialA(n, p) {
		out[i] = c
	}
}

// Shuffle performs an in-place Fisher-Yates shuffle, preserving multiset
// equality with the input (R2).
func (r *Random) Shuffle(n int, swap func(i, j int)) {
	r.src.Shuffle(n, swap)
}

// Perm returns a random permutation of [0, n).
func (r *Random) Perm(n int) []int {
	return r.src.Perm(n)
}

// RouletteSample draws up to k items from items, weighted by weights; when
// replacement is false a picked item is not drawn again. Fewer than k items
// come back once every remaining weight is zero. Panics on an empty item
// list or a weight/item length mismatch.
func RouletteSample[T any](rng *Random, k int, weights []float64, items []T, replacement bool) []T {
	if len(items) == 0 {
		panic("roulette_sampling: empty item list")
	}
	if len(items) != len(weights) {
		panic(fmt.Sprintf(UnequalIntParameterError, "len(weights)", len(items), len(weights)))
	}
	out := make([]T, 0, k)
	// Work on a local copy of weights so without-replacement sampling can
	// zero out a picked slot without mutating the caller's slice.
	w := append([]float64(nil), weights...)
	for len(out) < k {
		idx, ok := rouletteIndex(rng, w)
		if !ok {
			break
		}
		out = append(out, items[idx])
		if !replacement {
			w[idx] = 0
		}
	}
	return out
}

// RouletteTuple is a (item, weight) pair returned by RouletteSampleTuple.
type RouletteTuple[T any] struct {
	Item   T
	Weight float64
}

// RouletteSampleTuple behaves like RouletteSample but also returns the
// weight that was assigned to each picked item at the time it was picked.
func RouletteSampleTuple[T any](rng *Random, k int, weights []float64, items []T, replacement bool) []RouletteTuple[T] {
	if len(items) == 0 {
		panic("roulette_sampling_tuple: empty item list")
	}
	if len(items) != len(weights) {
		panic(fmt.Sprintf(UnequalIntParameterError, "len(weights)", len(items), len(weights)))
	}
	out := make([]RouletteTuple[T], 0, k)
	w := append([]float64(nil), weights...)
	for len(out) < k {
		idx, ok := rouletteIndex(rng, w)
		if !ok {
			break
		}
		out = append(out, RouletteTuple[T]{Item: items[idx], Weight: weights[idx]})
		if !replacement {
			w[idx] = 0
		}
	}
	return out
}

// rouletteIndex picks a single index proportional to w. Returns ok=false
// when every remaining weight is exhausted (sum is 0).
func rouletteIndex(rng *Random, w []float64) (int, bool) {
	var total float64
	for _, v := range w {
		total += v
	}
	if total <= 0 {
		return 0, false
	}
	draw := rng.Uniform() * total
	var cum float64
	for i, v := range w {
		cum += v
		if draw < cum {
			return i, true
		}
	}
	return len(w) - 1, true
}

// wallClockSeed derives a seed from the current time in nanoseconds.
func wallClockSeed() int64 {
	return time.Now().UTC().UnixNano()
}
