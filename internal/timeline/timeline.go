// internal/timeline/timeline.go
package timeline

import "math"

// Zoom bounds for the frame unit width, in pixels per frame.
const (
	MinFrameUnitWidth     = 10.0
	MaxFrameUnitWidth     = 50.0
	DefaultFrameUnitWidth = 20.0

	DefaultMajorTickInterval = 5

	// visibleTolerance widens the visible range query by a fraction of one
	// frame unit so boundary ticks are not dropped at partial-pixel scroll
	// positions.
	visibleTolerance = 0.10
)

// State is the per-session timeline state: playhead, extent, zoom and scroll.
// It lives for the duration of an editing session.
type State struct {
	currentFrame      int
	maxFrame          int
	frameUnitWidth    float64
	scrollOffsetX     float64
	majorTickInterval int
	playing           bool
	loop              bool
}

// New creates a timeline state spanning [0, maxFrame] at the default zoom.
func New(maxFrame int) *State {
	if maxFrame < 1 {
		maxFrame = 1
	}
	return &State{
		maxFrame:          maxFrame,
		frameUnitWidth:    DefaultFrameUnitWidth,
		majorTickInterval: DefaultMajorTickInterval,
	}
}

// CurrentFrame returns the playhead position.
func (s *State) CurrentFrame() int { return s.currentFrame }

// MaxFrame returns the timeline extent.
func (s *State) MaxFrame() int { return s.maxFrame }

// FrameUnitWidth returns pixels per frame at the current zoom.
func (s *State) FrameUnitWidth() float64 { return s.frameUnitWidth }

// ScrollOffsetX returns the horizontal scroll position in pixels.
func (s *State) ScrollOffsetX() float64 { return s.scrollOffsetX }

// MajorTickInterval returns the major tick spacing in frames.
func (s *State) MajorTickInterval() int { return s.majorTickInterval }

// Playing reports whether playback is running.
func (s *State) Playing() bool { return s.playing }

// Loop reports whether playback wraps at the end of the timeline.
func (s *State) Loop() bool { return s.loop }

// SetCurrentFrame moves the playhead, clamped to [0, maxFrame]. Returns the
// frame actually set.
func (s *State) SetCurrentFrame(frame int) int {
	s.currentFrame = clampInt(frame, 0, s.maxFrame)
	return s.currentFrame
}

// SetMaxFrame resizes the timeline. The playhead is clamped to the new
// extent.
func (s *State) SetMaxFrame(maxFrame int) int {
	if maxFrame < 1 {
		maxFrame = 1
	}
	s.maxFrame = maxFrame
	s.currentFrame = clampInt(s.currentFrame, 0, s.maxFrame)
	return s.maxFrame
}

// SetMajorTickInterval sets the major tick spacing, minimum 1 frame.
func (s *State) SetMajorTickInterval(interval int) {
	if interval < 1 {
		interval = 1
	}
	s.majorTickInterval = interval
}

// SetPlaying switches playback on or off.
func (s *State) SetPlaying(playing bool) { s.playing = playing }

// SetLoop switches loop mode.
func (s *State) SetLoop(loop bool) { s.loop = loop }

// SetScrollOffsetX moves the horizontal scroll position, floored at 0.
func (s *State) SetScrollOffsetX(px float64) {
	if px < 0 {
		px = 0
	}
	s.scrollOffsetX = px
}

// FrameToPixel converts a frame index to its unscrolled pixel offset.
func (s *State) FrameToPixel(frame int) float64 {
	return float64(frame) * s.frameUnitWidth
}

// PixelToFrame converts an unscrolled pixel offset to the nearest frame,
// clamped to [0, maxFrame].
func (s *State) PixelToFrame(px float64) int {
	frame := int(math.Round(px / s.frameUnitWidth))
	return clampInt(frame, 0, s.maxFrame)
}

// ContentWidth is the pixel width of the whole timeline at the current zoom.
func (s *State) ContentWidth() float64 {
	return s.FrameToPixel(s.maxFrame)
}

// SetFrameUnitWidth applies a zoom change, clamped to the zoom bounds, while
// keeping the current frame at the same viewport position: the scroll offset
// is recomputed so the playhead's pixel position does not drift. Returns the
// width actually set.
func (s *State) SetFrameUnitWidth(width float64) float64 {
	width = clampFloat(width, MinFrameUnitWidth, MaxFrameUnitWidth)
	if width == s.frameUnitWidth {
		return width
	}
	// viewport position of the playhead before the zoom
	anchor := s.FrameToPixel(s.currentFrame) - s.scrollOffsetX

	s.frameUnitWidth = width
	s.SetScrollOffsetX(s.FrameToPixel(s.currentFrame) - anchor)
	return width
}

// ZoomBy scales the frame unit width by factor, with the same anchoring as
// SetFrameUnitWidth.
func (s *State) ZoomBy(factor float64) float64 {
	return s.SetFrameUnitWidth(s.frameUnitWidth * factor)
}

// VisibleFrames returns the inclusive frame range to render for a viewport of
// the given pixel width at the current scroll position. The range is widened
// by a tolerance margin so ticks sitting exactly on the viewport edge are
// kept.
func (s *State) VisibleFrames(viewportWidth float64) (first, last int) {
	tol := s.frameUnitWidth * visibleTolerance
	first = int(math.Ceil((s.scrollOffsetX - tol) / s.frameUnitWidth))
	last = int(math.Floor((s.scrollOffsetX + viewportWidth + tol) / s.frameUnitWidth))
	return clampInt(first, 0, s.maxFrame), clampInt(last, 0, s.maxFrame)
}

// Tick is one ruler tick.
type Tick struct {
	Frame   int
	Major   bool
	Labeled bool
}

// Ticks lays out the ruler ticks for a viewport of the given pixel width.
// Major ticks occur every majorTickInterval frames; frame 0 and maxFrame are
// always labeled regardless of major-tick alignment.
func (s *State) Ticks(viewportWidth float64) []Tick {
	first, last := s.VisibleFrames(viewportWidth)
	ticks := make([]Tick, 0, last-first+1)
	for f := first; f <= last; f++ {
		major := f%s.majorTickInterval == 0
		ticks = append(ticks, Tick{
			Frame:   f,
			Major:   major,
			Labeled: major || f == 0 || f == s.maxFrame,
		})
	}
	return ticks
}

// Step advances the playhead by one frame during playback. At the end of the
// timeline it wraps to 0 in loop mode, otherwise stops playback. Returns the
// new frame.
func (s *State) Step() int {
	if !s.playing {
		return s.currentFrame
	}
	if s.currentFrame >= s.maxFrame {
		if s.loop {
			s.currentFrame = 0
		} else {
			s.playing = false
		}
		return s.currentFrame
	}
	s.currentFrame++
	return s.currentFrame
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
