// Package view holds the presentation-side state of the timeline: clip items
// with their pixel geometry, track rows, and scroll synchronization between
// panes. The view never owns document data; every item carries a reference
// that resolves back to its clip.
package view

import (
	"github.com/skillforge/timeline/internal/resolve"
	"github.com/skillforge/timeline/internal/timeline"
	"github.com/skillforge/timeline/pkg/core"
)

// Item is one clip as rendered on a track row. Geometry is in content-space
// pixels; subtract the horizontal scroll offset to get viewport position.
type Item struct {
	Ref resolve.Ref

	Name          string
	StartFrame    int
	DurationFrame int
	Kind          core.TrackType
	Payload       core.Payload

	X     float64
	Width float64
}

// NewItem snapshots a clip into a view item and lays it out.
func NewItem(t core.TrackType, trackIndex int, clip *core.Clip, state *timeline.State) *Item {
	item := &Item{
		Ref: resolve.Ref{
			TrackType:  t,
			TrackIndex: trackIndex,
			ClipID:     clip.ID,
			Name:       clip.Name,
			StartFrame: clip.StartFrame,
		},
		Name:          clip.Name,
		StartFrame:    clip.StartFrame,
		DurationFrame: clip.DurationFrame,
		Kind:          t,
		Payload:       clip.Payload,
	}
	item.RefreshDisplay(state)
	return item
}

// RefreshDisplay recomputes the pixel geometry from the current zoom level.
// Called on every zoom change; frame data is untouched.
func (i *Item) RefreshDisplay(state *timeline.State) {
	i.X = state.FrameToPixel(i.StartFrame)
	i.Width = float64(i.DurationFrame) * state.FrameUnitWidth()
}

// SetStartFrame moves the item and relayouts it. The reference keeps the
// frame the document still has, so a later write-through resolves correctly.
func (i *Item) SetStartFrame(frame int, state *timeline.State) {
	i.StartFrame = frame
	i.RefreshDisplay(state)
}

// UpdateFrameCount resizes the item and relayouts it.
func (i *Item) UpdateFrameCount(durationFrame int, state *timeline.State) {
	if durationFrame < 1 {
		durationFrame = 1
	}
	i.DurationFrame = durationFrame
	i.RefreshDisplay(state)
}

// EndFrame is the first frame after the item.
func (i *Item) EndFrame() int {
	return i.StartFrame + i.DurationFrame
}

// Visible reports whether any part of the item intersects the viewport.
func (i *Item) Visible(state *timeline.State, viewportWidth float64) bool {
	left := state.ScrollOffsetX()
	right := left + viewportWidth
	return i.X+i.Width >= left && i.X <= right
}
