package buffer

import "testing"

func TestInterleaveRoundTrip(t *testing.T) {
	planar := New[float64](3, 2)
	copy(planar.Channel(0), []float64{1, 2, 3})
	copy(planar.Channel(1), []float64{4, 5, 6})

	inter := NewInterleaved[float64](3, 2)
	Interleave(inter, planar)

	want := []float64{1, 4, 2, 5, 3, 6}
	for i, v := range inter.Data() {
		if v != want[i] {
			t.Fatalf("interleaved Data()[%d] = %v, want %v", i, v, want[i])
		}
	}

	back := New[float64](3, 2)
	Deinterleave(back, inter)
	for ch := 0; ch < 2; ch++ {
		for i := range back.Channel(ch) {
			if back.Channel(ch)[i] != planar.Channel(ch)[i] {
				t.Fatalf("round trip mismatch at channel %d frame %d", ch, i)
			}
		}
	}
}

func TestWrapInterleavedSharesMemory(t *testing.T) {
	raw := []float64{1, 2, 3, 4}
	b := WrapInterleaved(raw, 2)
	if b.Frames() != 2 || b.Channels() != 2 {
		t.Fatalf("WrapInterleaved = %dx%d, want 2x2", b.Frames(), b.Channels())
	}
	b.Frame(1)[0] = 99
	if raw[2] != 99 {
		t.Fatal("WrapInterleaved should share underlying memory")
	}
}

func TestDeinterleaveOverlapOnly(t *testing.T) {
	inter := NewInterleaved[float64](2, 3)
	copy(inter.Data(), []float64{1, 2, 3, 4, 5, 6})
	planar := New[float64](2, 2)
	Deinterleave(planar, inter)
	if planar.Channel(0)[1] != 4 || planar.Channel(1)[1] != 5 {
		t.Fatal("Deinterleave copied wrong samples for overlapping channels")
	}
}
