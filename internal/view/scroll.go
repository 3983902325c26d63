package view

import (
	"github.com/skillforge/timeline/internal/timeline"
)

// Pane is anything with a vertical scroll position the sync can drive.
type Pane interface {
	VerticalOffset() float64
	SetVerticalOffset(px float64)
}

// ScrollSync keeps the header and content panes scrolled in lockstep.
// Vertical scrolling in either pane mirrors to the others; horizontal
// scrolling in the content pane writes through to the frame state, which is
// the single owner of the horizontal offset.
type ScrollSync struct {
	state *timeline.State
	panes []Pane

	// content pane's horizontal scrollbar height, mirrored as a bottom
	// inset on the header pane so rows stay aligned
	bottomInset float64

	syncing bool
}

// NewScrollSync creates a sync over the given panes.
func NewScrollSync(state *timeline.State, panes ...Pane) *ScrollSync {
	return &ScrollSync{state: state, panes: panes}
}

// SetBottomInset records the scrollbar height the header pane must mirror.
func (s *ScrollSync) SetBottomInset(px float64) {
	if px < 0 {
		px = 0
	}
	s.bottomInset = px
}

// BottomInset returns the inset the header pane renders below its rows.
func (s *ScrollSync) BottomInset() float64 {
	return s.bottomInset
}

// OnVerticalScroll propagates a vertical scroll from the source pane to the
// others. The guard keeps the mirrored updates from echoing back.
func (s *ScrollSync) OnVerticalScroll(source Pane, offset float64) {
	if s.syncing {
		return
	}
	s.syncing = true
	defer func() { s.syncing = false }()

	source.SetVerticalOffset(offset)
	for _, pane := range s.panes {
		if pane == source {
			continue
		}
		pane.SetVerticalOffset(offset)
	}
}

// OnHorizontalScroll writes the content pane's horizontal position through
// to the frame state.
func (s *ScrollSync) OnHorizontalScroll(offset float64) {
	if s.syncing {
		return
	}
	s.syncing = true
	defer func() { s.syncing = false }()

	s.state.SetScrollOffsetX(offset)
}

// HorizontalOffset returns the authoritative horizontal position.
func (s *ScrollSync) HorizontalOffset() float64 {
	return s.state.ScrollOffsetX()
}
