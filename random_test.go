package malasim

import "testing"

func TestNewRandom_SameSeedReproducesSameDraws(t *testing.T) {
	a := NewRandom(42)
	b := NewRandom(42)
	for i := 0; i < 20; i++ {
		va, vb := a.Uniform(), b.Uniform()
		if va != vb {
			t.Fatalf("expected identical draw sequences for the same seed, diverged at draw %d: %f != %f", i, va, vb)
		}
	}
}

func TestRandom_UniformRangeBounds(t *testing.T) {
	r := NewRandom(1)
	for i := 0; i < 100; i++ {
		v := r.UniformRange(2, 5)
		if v < 2 || v >= 5 {
			t.Fatalf(InvalidFloatParameterError, "UniformRange(2,5) draw", v, "expected a value in [2,5)")
		}
	}
}

func TestRandom_UniformRangePanicsOnEmptyRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf(ExpectedErrorWhileError, "calling UniformRange with from >= to")
		}
	}()
	NewRandom(1).UniformRange(5, 5)
}

func TestRandom_UniformUpToBounds(t *testing.T) {
	r := NewRandom(1)
	for i := 0; i < 100; i++ {
		v := r.UniformUpTo(10)
		if v < 0 || v >= 10 {
			t.Fatalf(InvalidIntParameterError, "UniformUpTo(10) draw", v, "expected a value in [0,10)")
		}
	}
}

func TestRouletteSample_WithoutReplacementNeverRepeats(t *testing.T) {
	r := NewRandom(7)
	items := []string{"a", "b", "c", "d"}
	weights := []float64{1, 1, 1, 1}
	picked := RouletteSample(r, 4, weights, items, false)
	seen := make(map[string]bool)
	for _, p := range picked {
		if seen[p] {
			t.Errorf("expected no repeats when sampling without replacement, got repeated item %q", p)
		}
		seen[p] = true
	}
	if l := len(picked); l != 4 {
		t.Errorf(UnequalIntParameterError, "number of items sampled without replacement", 4, l)
	}
}

func TestRouletteSample_ZeroWeightNeverPicked(t *testing.T) {
	r := NewRandom(3)
	items := []int{0, 1, 2}
	weights := []float64{1, 0, 1}
	for i := 0; i < 50; i++ {
		picked := RouletteSample(r, 1, weights, items, true)
		if len(picked) == 1 && picked[0] == 1 {
			t.Errorf("expected the zero-weight item to never be picked, got it at iteration %d", i)
		}
	}
}

func TestRouletteSample_PanicsOnLengthMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf(ExpectedErrorWhileError, "calling RouletteSample with mismatched weights/items lengths")
		}
	}()
	RouletteSample(NewRandom(1), 1, []float64{1, 1}, []int{0}, false)
}
