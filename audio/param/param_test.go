package param

import (
	"math"
	"testing"
)

func evalBlocks(p *Param, blockSize, blocks int) []float64 {
	out := make([]float64, 0, blockSize*blocks)
	dst := make([]float64, blockSize)
	for i := 0; i < blocks; i++ {
		p.Eval(dst)
		out = append(out, dst...)
	}
	return out
}

func TestLinearRampMonotonicAndExact(t *testing.T) {
	const (
		rate     = 44100
		duration = 0.1
		target   = 1.0
	)
	p := New(0)
	p.SetSampleRate(rate)
	p.ApplyRamp(target, duration)

	frames := int(math.Ceil(duration * rate))
	out := evalBlocks(p, 512, (frames/512)+2)

	for i := 1; i <= frames; i++ {
		if out[i] < out[i-1] {
			t.Fatalf("ramp not non-decreasing at frame %d: %v < %v", i, out[i], out[i-1])
		}
	}
	if out[frames] != target {
		t.Fatalf("value at frame %d = %v, want exactly %v", frames, out[frames], target)
	}
	for i := frames; i < len(out); i++ {
		if out[i] != target {
			t.Fatalf("value at frame %d = %v, want hold at %v", i, out[i], target)
		}
	}
}

func TestDescendingRampNonIncreasing(t *testing.T) {
	p := New(1)
	p.SetSampleRate(1000)
	p.ApplyRamp(0, 0.05)
	out := evalBlocks(p, 64, 2)
	for i := 1; i < len(out); i++ {
		if out[i] > out[i-1] {
			t.Fatalf("ramp not non-increasing at frame %d", i)
		}
	}
}

func TestRampWithDelayHoldsUntilStart(t *testing.T) {
	p := New(0.5)
	p.SetSampleRate(1000)
	p.ApplyRamp(1, 0.01, WithDelay(0.1))
	out := evalBlocks(p, 50, 2)
	for i := 0; i < 100; i++ {
		if out[i] != 0.5 {
			t.Fatalf("value at frame %d = %v, want hold at 0.5 before delayed start", i, out[i])
		}
	}
}

func TestAppendRampChains(t *testing.T) {
	p := New(0)
	p.SetSampleRate(1000)
	p.ApplyRamp(1, 0.1)   // frames [0, 100)
	p.AppendRamp(0, 0.1)  // frames [100, 200)
	out := evalBlocks(p, 100, 3)
	if out[100] != 1 {
		t.Fatalf("value at chain boundary = %v, want 1", out[100])
	}
	if out[150] >= 1 || out[150] <= 0 {
		t.Fatalf("value mid second ramp = %v, want strictly within (0, 1)", out[150])
	}
	if out[200] != 0 {
		t.Fatalf("value at end of chain = %v, want 0", out[200])
	}
}

func TestSetValueClearsQueue(t *testing.T) {
	p := New(0)
	p.SetSampleRate(1000)
	p.ApplyRamp(1, 1)
	p.SetValue(0.25)
	if p.Value() != 0.25 {
		t.Fatalf("Value() = %v immediately after SetValue, want 0.25", p.Value())
	}
	out := evalBlocks(p, 64, 4)
	for i, v := range out {
		if v != 0.25 {
			t.Fatalf("value at frame %d = %v, want constant 0.25 after SetValue", i, v)
		}
	}
}

func TestEaseOutQuadRamp(t *testing.T) {
	p := New(0)
	p.SetSampleRate(1000)
	p.ApplyRamp(1, 0.1, WithRamp(EaseOutQuad))
	out := evalBlocks(p, 100, 1)
	// Ease-out reaches the halfway value before the linear midpoint.
	if out[50] <= 0.5 {
		t.Fatalf("ease-out value at midpoint = %v, want > 0.5", out[50])
	}
	if out[99] < out[0] {
		t.Fatal("ease-out ramp should still be non-decreasing")
	}
}

func TestEvalDeterministic(t *testing.T) {
	run := func() []float64 {
		p := New(0.1)
		p.SetSampleRate(48000)
		p.ApplyRamp(0.9, 0.02, WithRamp(EaseInOutQuad))
		p.AppendRamp(0.2, 0.03)
		return evalBlocks(p, 256, 12)
	}
	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("evaluation diverged at frame %d: %v != %v", i, a[i], b[i])
		}
	}
}

func TestElapsedAdvancesOnlyOnEval(t *testing.T) {
	p := New(0)
	if p.Elapsed() != 0 {
		t.Fatalf("Elapsed() = %d before any Eval, want 0", p.Elapsed())
	}
	p.Eval(make([]float64, 512))
	if p.Elapsed() != 512 {
		t.Fatalf("Elapsed() = %d, want 512", p.Elapsed())
	}
}

func TestEvalDoesNotAllocate(t *testing.T) {
	p := New(0)
	p.SetSampleRate(48000)
	p.ApplyRamp(1, 0.5)
	p.AppendRamp(0, 0.5)
	p.AppendRamp(0.5, 0.5)
	dst := make([]float64, 512)
	allocs := testing.AllocsPerRun(100, func() {
		p.Eval(dst)
	})
	if allocs != 0 {
		t.Fatalf("Eval allocated %v times per block, want 0", allocs)
	}
}

func TestAnimating(t *testing.T) {
	p := New(0)
	if p.Animating() {
		t.Fatal("new Param should not be animating")
	}
	p.ApplyRamp(1, 1)
	if !p.Animating() {
		t.Fatal("Param with a queued ramp should be animating")
	}
}
