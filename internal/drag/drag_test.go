package drag

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillforge/timeline/internal/bus"
	"github.com/skillforge/timeline/internal/resolve"
	"github.com/skillforge/timeline/internal/session"
	"github.com/skillforge/timeline/internal/track"
	"github.com/skillforge/timeline/internal/view"
	"github.com/skillforge/timeline/pkg/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

type fixture struct {
	session    *session.Session
	registry   *track.Registry
	resolver   *resolve.Resolver
	controller *Controller
	clip       *core.Clip
	item       *view.Item
}

// newFixture builds a 100-frame timeline with one audio clip at frame 10,
// 5 frames long, at the default 20px frame width.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	b, err := bus.New(nopLogger{})
	require.NoError(t, err)
	sess, err := session.New(core.NewDocument("drag_test", 100), b)
	require.NoError(t, err)
	reg := track.NewRegistry(sess, zerolog.Nop())
	res := resolve.New(sess, reg, zerolog.Nop())

	_, err = reg.CreateTrack(core.TrackAudio)
	require.NoError(t, err)
	clip, err := reg.AddClip(core.TrackAudio, 0, "boom", 10, 5)
	require.NoError(t, err)
	sess.ClearDirty()

	return &fixture{
		session:    sess,
		registry:   reg,
		resolver:   res,
		controller: NewController(sess, res, zerolog.Nop()),
		clip:       clip,
		item:       view.NewItem(core.TrackAudio, 0, clip, sess.State()),
	}
}

func TestMoveSnapsToFrames(t *testing.T) {
	f := newFixture(t)

	f.controller.PointerDown(f.item, ModeMove, 205)
	assert.True(t, f.controller.Dragging())

	// 47px right at 20px per frame rounds to 2 frames
	f.controller.PointerMove(252)
	assert.Equal(t, 12, f.item.StartFrame)
	assert.Equal(t, float64(240), f.item.X)

	// document untouched while dragging
	assert.Equal(t, 10, f.clip.StartFrame)

	f.controller.PointerUp(252)
	assert.False(t, f.controller.Dragging())
	assert.Equal(t, 12, f.clip.StartFrame)
	assert.True(t, f.session.Dirty())
}

func TestMoveClampsToTimeline(t *testing.T) {
	f := newFixture(t)

	f.controller.PointerDown(f.item, ModeMove, 200)
	// far past the right edge
	f.controller.PointerMove(20000)
	assert.Equal(t, 95, f.item.StartFrame)

	// far past the left edge
	f.controller.PointerMove(-20000)
	assert.Equal(t, 0, f.item.StartFrame)

	f.controller.PointerUp(-20000)
	assert.Equal(t, 0, f.clip.StartFrame)
}

func TestResize(t *testing.T) {
	f := newFixture(t)

	f.controller.PointerDown(f.item, ModeResize, 300)
	f.controller.PointerMove(360) // +3 frames
	assert.Equal(t, 8, f.item.DurationFrame)
	assert.Equal(t, 10, f.item.StartFrame)

	// shrinking below one frame pins at one
	f.controller.PointerMove(300 - 20*10)
	assert.Equal(t, 1, f.item.DurationFrame)

	f.controller.PointerUp(360)
	assert.Equal(t, 8, f.clip.DurationFrame)
}

func TestPointerLeaveCancelsAndReverts(t *testing.T) {
	f := newFixture(t)

	f.controller.PointerDown(f.item, ModeMove, 200)
	f.controller.PointerMove(400)
	assert.Equal(t, 20, f.item.StartFrame)

	f.controller.PointerLeave()

	assert.False(t, f.controller.Dragging())
	assert.Equal(t, 10, f.item.StartFrame)
	assert.Equal(t, 10, f.clip.StartFrame)
	assert.False(t, f.session.Dirty())
}

func TestReleaseWithoutMovementWritesNothing(t *testing.T) {
	f := newFixture(t)

	f.controller.PointerDown(f.item, ModeMove, 200)
	f.controller.PointerUp(203) // under half a frame of travel

	assert.Equal(t, 10, f.clip.StartFrame)
	assert.False(t, f.session.Dirty())
}

func TestDownSelectsClip(t *testing.T) {
	f := newFixture(t)

	f.controller.PointerDown(f.item, ModeMove, 200)
	sel := f.session.Selected()
	require.NotNil(t, sel)
	assert.Equal(t, f.clip.ID, sel.ClipID)
	assert.Equal(t, core.TrackAudio, sel.TrackType)
}

func TestSecondDownIgnoredWhileDragging(t *testing.T) {
	f := newFixture(t)
	other := view.NewItem(core.TrackAudio, 0, core.NewClip(core.TrackAudio, "x", 50, 2), f.session.State())

	f.controller.PointerDown(f.item, ModeMove, 200)
	f.controller.PointerDown(other, ModeMove, 1000)

	assert.Same(t, f.item, f.controller.Item())
}

func TestCommitFailureRevertsItem(t *testing.T) {
	f := newFixture(t)

	f.controller.PointerDown(f.item, ModeMove, 200)
	f.controller.PointerMove(400)

	// the clip disappears mid-drag
	require.NoError(t, f.registry.DeleteClip(core.TrackAudio, 0, f.clip.ID))

	f.controller.PointerUp(400)

	assert.Equal(t, 10, f.item.StartFrame)
	assert.False(t, f.controller.Dragging())
}

func TestMoveAnimationClipRecomputesTransitions(t *testing.T) {
	f := newFixture(t)
	_, err := f.registry.CreateTrack(core.TrackAnimation)
	require.NoError(t, err)
	first, err := f.registry.AddClip(core.TrackAnimation, 0, "windup", 0, 30)
	require.NoError(t, err)
	second, err := f.registry.AddClip(core.TrackAnimation, 0, "strike", 40, 15)
	require.NoError(t, err)

	item := view.NewItem(core.TrackAnimation, 0, second, f.session.State())
	f.controller.PointerDown(item, ModeMove, 800)
	f.controller.PointerUp(800 - 20*20) // drag to frame 20, overlapping "windup"

	assert.Equal(t, 20, second.StartFrame)
	assert.Equal(t, 20, first.Payload.(*core.AnimationPayload).CutoffFrame)
}
