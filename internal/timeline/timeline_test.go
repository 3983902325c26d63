package timeline

import "testing"

func TestPixelFrameRoundTrip(t *testing.T) {
	s := New(120)
	for frame := 0; frame <= s.MaxFrame(); frame++ {
		px := s.FrameToPixel(frame)
		if got := s.PixelToFrame(px); got != frame {
			t.Fatalf("round trip failed at frame %d: got %d", frame, got)
		}
	}
}

func TestPixelToFrameRoundsAndClamps(t *testing.T) {
	s := New(50)
	s.SetFrameUnitWidth(10)

	tests := []struct {
		px       float64
		expected int
	}{
		{243, 24}, // round(24.3)
		{245, 25}, // round half up
		{-40, 0},
		{9999, 50},
	}
	for _, tt := range tests {
		if got := s.PixelToFrame(tt.px); got != tt.expected {
			t.Errorf("PixelToFrame(%v) = %d, want %d", tt.px, got, tt.expected)
		}
	}

	if w := s.ContentWidth(); w != 500 {
		t.Errorf("ContentWidth = %v, want 500", w)
	}
}

func TestZoomClampsToBounds(t *testing.T) {
	s := New(50)
	if got := s.SetFrameUnitWidth(5); got != MinFrameUnitWidth {
		t.Errorf("zoom below minimum not clamped: %v", got)
	}
	if got := s.SetFrameUnitWidth(500); got != MaxFrameUnitWidth {
		t.Errorf("zoom above maximum not clamped: %v", got)
	}
}

func TestZoomKeepsPlayheadAnchored(t *testing.T) {
	s := New(200)
	s.SetFrameUnitWidth(20)
	s.SetCurrentFrame(100)
	s.SetScrollOffsetX(1800) // playhead at viewport x=200

	before := s.FrameToPixel(s.CurrentFrame()) - s.ScrollOffsetX()
	s.SetFrameUnitWidth(40)
	after := s.FrameToPixel(s.CurrentFrame()) - s.ScrollOffsetX()

	if before != after {
		t.Errorf("playhead drifted on zoom: viewport x %v -> %v", before, after)
	}
	// pixel position must follow the new unit width, not stay frozen
	if s.FrameToPixel(s.CurrentFrame()) != 4000 {
		t.Errorf("playhead pixel = %v, want 4000", s.FrameToPixel(s.CurrentFrame()))
	}
}

func TestSetCurrentFrameClamps(t *testing.T) {
	s := New(50)
	if got := s.SetCurrentFrame(-5); got != 0 {
		t.Errorf("negative frame not clamped: %d", got)
	}
	if got := s.SetCurrentFrame(80); got != 50 {
		t.Errorf("frame beyond max not clamped: %d", got)
	}
	s.SetMaxFrame(30)
	if s.CurrentFrame() != 30 {
		t.Errorf("playhead not clamped after max frame shrank: %d", s.CurrentFrame())
	}
}

func TestVisibleFramesTolerance(t *testing.T) {
	s := New(100)
	s.SetFrameUnitWidth(10)
	s.SetScrollOffsetX(100.4) // just past frame 10

	first, last := s.VisibleFrames(200)
	// tolerance of one pixel (10% of 10px) keeps frame 10 visible
	if first != 10 {
		t.Errorf("first visible frame = %d, want 10", first)
	}
	if last != 30 {
		t.Errorf("last visible frame = %d, want 30", last)
	}

	s.SetScrollOffsetX(0)
	first, last = s.VisibleFrames(1e9)
	if first != 0 || last != 100 {
		t.Errorf("visible range not clamped to timeline: [%d, %d]", first, last)
	}
}

func TestTicksLabelEndpoints(t *testing.T) {
	s := New(52)
	s.SetFrameUnitWidth(10)
	s.SetMajorTickInterval(5)

	ticks := s.Ticks(1e9)
	if len(ticks) != 53 {
		t.Fatalf("expected 53 ticks, got %d", len(ticks))
	}

	byFrame := map[int]Tick{}
	for _, tick := range ticks {
		byFrame[tick.Frame] = tick
	}

	if !byFrame[0].Labeled {
		t.Error("frame 0 must be labeled")
	}
	if !byFrame[52].Labeled {
		t.Error("maxFrame must be labeled despite major-tick misalignment")
	}
	if byFrame[52].Major {
		t.Error("frame 52 is not on the major grid")
	}
	if !byFrame[45].Major || !byFrame[45].Labeled {
		t.Error("frame 45 should be a labeled major tick")
	}
	if byFrame[7].Labeled {
		t.Error("frame 7 should not be labeled")
	}
}

func TestStepPlayback(t *testing.T) {
	s := New(3)
	s.SetPlaying(true)

	got := []int{}
	for i := 0; i < 5; i++ {
		got = append(got, s.Step())
	}
	want := []int{1, 2, 3, 3, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("step sequence %v, want %v", got, want)
		}
	}
	if s.Playing() {
		t.Error("playback should stop at the end without loop")
	}

	s.SetPlaying(true)
	s.SetLoop(true)
	if f := s.Step(); f != 0 {
		t.Errorf("loop mode should wrap to 0, got %d", f)
	}
	if !s.Playing() {
		t.Error("playback should continue in loop mode")
	}
}
