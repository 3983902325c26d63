// Package drag implements the pointer state machine for moving and resizing
// clip items. While a drag is in flight only the view item moves; the
// document is written once, on release.
package drag

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/skillforge/timeline/internal/resolve"
	"github.com/skillforge/timeline/internal/session"
	"github.com/skillforge/timeline/internal/view"
)

// Mode selects what the drag changes.
type Mode int

const (
	// ModeMove drags the whole item along the timeline.
	ModeMove Mode = iota
	// ModeResize drags the item's right edge, changing its duration.
	ModeResize
)

// Controller tracks one pointer interaction at a time. It is driven by the
// widget layer's pointer callbacks and is strictly single-pointer: a down
// while dragging is ignored.
type Controller struct {
	session  *session.Session
	resolver *resolve.Resolver
	log      zerolog.Logger

	dragging bool
	mode     Mode
	item     *view.Item
	downX    float64
	moved    bool

	originStart    int
	originDuration int
}

// NewController creates a drag controller for the session.
func NewController(sess *session.Session, res *resolve.Resolver, log zerolog.Logger) *Controller {
	return &Controller{session: sess, resolver: res, log: log}
}

// Dragging reports whether a drag is in flight.
func (c *Controller) Dragging() bool {
	return c.dragging
}

// Item returns the item under drag, nil when idle.
func (c *Controller) Item() *view.Item {
	if !c.dragging {
		return nil
	}
	return c.item
}

// PointerDown starts a drag on the item at the given viewport x position and
// selects the clip.
func (c *Controller) PointerDown(item *view.Item, mode Mode, x float64) {
	if c.dragging || item == nil {
		return
	}
	c.dragging = true
	c.mode = mode
	c.item = item
	c.downX = x
	c.moved = false
	c.originStart = item.StartFrame
	c.originDuration = item.DurationFrame

	c.session.Select(item.Ref.TrackType, item.Ref.TrackIndex, item.Ref.ClipID)
}

// PointerMove updates the item's in-memory position. The item snaps to whole
// frames and is clamped so it stays inside the timeline; the document is not
// touched until release.
func (c *Controller) PointerMove(x float64) {
	if !c.dragging {
		return
	}
	frames := c.frameDelta(x)
	if frames != 0 {
		c.moved = true
	}

	state := c.session.State()
	switch c.mode {
	case ModeMove:
		c.item.SetStartFrame(c.clampStart(c.originStart+frames), state)
	case ModeResize:
		c.item.UpdateFrameCount(c.clampDuration(c.originDuration+frames), state)
	}
}

// PointerUp finishes the drag: the final snapped position is written through
// to the document. A reference that no longer resolves reverts the item.
func (c *Controller) PointerUp(x float64) {
	if !c.dragging {
		return
	}
	c.PointerMove(x)
	item := c.item
	c.reset()

	if !c.moved && item.StartFrame == c.originStart && item.DurationFrame == c.originDuration {
		return
	}

	var err error
	switch c.mode {
	case ModeMove:
		err = c.resolver.SetStartFrame(item.Ref, item.StartFrame)
	case ModeResize:
		err = c.resolver.SetDuration(item.Ref, item.DurationFrame)
	}
	if err != nil {
		c.log.Warn().Err(err).Stringer("ref", item.Ref).Msg("Drag commit failed, reverting item")
		c.revertItem(item)
		c.session.Stats().DragsCancelled.Inc()
		return
	}

	// the document now matches the item; keep the legacy fields current
	item.Ref.StartFrame = item.StartFrame
	c.session.Stats().DragsCompleted.Inc()
}

// PointerLeave cancels the drag: the item reverts to where it started and
// nothing is written.
func (c *Controller) PointerLeave() {
	if !c.dragging {
		return
	}
	item := c.item
	c.reset()
	c.revertItem(item)
	c.session.Stats().DragsCancelled.Inc()
}

func (c *Controller) reset() {
	c.dragging = false
	c.item = nil
}

func (c *Controller) revertItem(item *view.Item) {
	state := c.session.State()
	item.SetStartFrame(c.originStart, state)
	item.UpdateFrameCount(c.originDuration, state)
}

// frameDelta converts the pointer's pixel travel to whole frames, rounding
// to the nearest frame so items snap to frame boundaries.
func (c *Controller) frameDelta(x float64) int {
	return int(math.Round((x - c.downX) / c.session.State().FrameUnitWidth()))
}

func (c *Controller) clampStart(start int) int {
	if start < 0 {
		return 0
	}
	max := c.session.State().MaxFrame() - c.originDuration
	if max < 0 {
		max = 0
	}
	if start > max {
		return max
	}
	return start
}

func (c *Controller) clampDuration(duration int) int {
	if duration < 1 {
		return 1
	}
	max := c.session.State().MaxFrame() - c.originStart
	if max >= 1 && duration > max {
		return max
	}
	return duration
}
