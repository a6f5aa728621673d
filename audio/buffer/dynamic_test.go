package buffer

import "testing"

func TestDynamicGrowReallocatesExactly(t *testing.T) {
	d := NewDynamic[float64](4, 2)
	if d.Capacity() != 8 {
		t.Fatalf("Capacity() = %d, want 8", d.Capacity())
	}
	d.Resize(16, 2)
	if d.Capacity() != 32 {
		t.Fatalf("Capacity() = %d after growth, want exactly 32", d.Capacity())
	}
}

func TestDynamicResizeWithinCapacityKeepsStorage(t *testing.T) {
	d := NewDynamic[float64](16, 2)
	before := &d.Data()[0]
	d.Resize(8, 2)
	if &d.Data()[0] != before {
		t.Fatal("resize within capacity must not reallocate")
	}
	d.Resize(16, 2)
	if &d.Data()[0] != before {
		t.Fatal("resize back up within capacity must not reallocate")
	}
	d.Resize(4, 8)
	if &d.Data()[0] != before {
		t.Fatal("reshape with equal storage requirement must not reallocate")
	}
}

func TestDynamicResizeZeroesContent(t *testing.T) {
	d := NewDynamic[float64](4, 2)
	for i := range d.Data() {
		d.Data()[i] = 1
	}
	d.Resize(2, 2)
	for i, v := range d.Data() {
		if v != 0 {
			t.Fatalf("Data()[%d] = %v after reshape, want 0", i, v)
		}
	}
}

func TestDynamicSetFramesSetChannels(t *testing.T) {
	d := NewDynamic[float64](4, 2)
	d.SetFrames(6)
	if d.Frames() != 6 || d.Channels() != 2 {
		t.Fatalf("after SetFrames(6): %dx%d, want 6x2", d.Frames(), d.Channels())
	}
	d.SetChannels(1)
	if d.Frames() != 6 || d.Channels() != 1 {
		t.Fatalf("after SetChannels(1): %dx%d, want 6x1", d.Frames(), d.Channels())
	}
}

func TestDynamicShrinkToFit(t *testing.T) {
	d := NewDynamic[float64](16, 2)
	d.Resize(4, 2)
	if d.Capacity() != 32 {
		t.Fatalf("Capacity() = %d before shrink, want 32", d.Capacity())
	}
	d.ShrinkToFit()
	if d.Capacity() != 8 {
		t.Fatalf("Capacity() = %d after ShrinkToFit, want exactly 8", d.Capacity())
	}
	if d.Frames() != 4 || d.Channels() != 2 {
		t.Fatalf("ShrinkToFit changed dimensions to %dx%d", d.Frames(), d.Channels())
	}
}

func TestDynamicShrinkToFitNoOpAtExactCapacity(t *testing.T) {
	d := NewDynamic[float64](4, 2)
	before := &d.Data()[0]
	d.ShrinkToFit()
	if &d.Data()[0] != before {
		t.Fatal("ShrinkToFit at exact capacity must not reallocate")
	}
}
