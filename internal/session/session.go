// Package session holds the state of one open skill document: the document
// tree, the frame coordinate state, the event bus, and the current selection.
package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/skillforge/timeline/internal/bus"
	"github.com/skillforge/timeline/internal/queue"
	"github.com/skillforge/timeline/internal/timeline"
	"github.com/skillforge/timeline/pkg/core"
)

// Selection identifies the clip the user last clicked, if any.
type Selection struct {
	TrackType  core.TrackType
	TrackIndex int
	ClipID     uuid.UUID
}

// Session is the editing context for one skill document. All editing flows
// through a session so listeners can be torn down together when it closes.
type Session struct {
	mu       sync.RWMutex
	doc      *core.Document
	state    *timeline.State
	bus      *bus.Bus
	deferred *queue.Deferred

	selection  *Selection
	dirty      bool
	closed     bool
	stats      Stats
	closeHooks []func()
}

// New creates a session for the document. The frame state is initialized
// from the document's max frame.
func New(doc *core.Document, b *bus.Bus) (*Session, error) {
	if doc == nil {
		return nil, fmt.Errorf("cannot open session on nil document")
	}
	if b == nil {
		return nil, fmt.Errorf("cannot open session without a bus")
	}
	return &Session{
		doc:      doc,
		state:    timeline.New(doc.MaxFrame),
		bus:      b,
		deferred: queue.NewDeferred(),
	}, nil
}

// Document returns the open document.
func (s *Session) Document() *core.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// State returns the frame coordinate state.
func (s *Session) State() *timeline.State {
	return s.state
}

// Bus returns the session's event bus.
func (s *Session) Bus() *bus.Bus {
	return s.bus
}

// Stats returns the session's editing-activity counters.
func (s *Session) Stats() *Stats {
	return &s.stats
}

// OnClose registers a hook to run when the session closes, before listeners
// are torn down. Used to export stats while the session is still readable.
func (s *Session) OnClose(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.closeHooks = append(s.closeHooks, fn)
	s.mu.Unlock()
}

// ReplaceDocument swaps in a freshly loaded document, resets the selection
// and requests a full refresh.
func (s *Session) ReplaceDocument(doc *core.Document) error {
	if doc == nil {
		return fmt.Errorf("cannot replace with nil document")
	}
	s.mu.Lock()
	s.doc = doc
	s.selection = nil
	s.dirty = false
	s.mu.Unlock()

	s.state.SetMaxFrame(doc.MaxFrame)
	s.bus.Publish(bus.TopicRefreshRequested, nil)
	return nil
}

// MarkDirty flags unsaved changes and notifies listeners.
func (s *Session) MarkDirty() {
	s.mu.Lock()
	already := s.dirty
	s.dirty = true
	s.mu.Unlock()

	if !already {
		s.bus.Publish(bus.TopicConfigChanged, nil)
	}
}

// Dirty reports whether the document has unsaved changes.
func (s *Session) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// ClearDirty resets the unsaved-changes flag, typically after a save.
func (s *Session) ClearDirty() {
	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()
}

// SetCurrentFrame moves the playhead and notifies listeners when the frame
// actually changes.
func (s *Session) SetCurrentFrame(frame int) int {
	before := s.state.CurrentFrame()
	after := s.state.SetCurrentFrame(frame)
	if after != before {
		s.bus.Publish(bus.TopicFrameChanged, after)
	}
	return after
}

// SetMaxFrame changes the timeline length, updates the document and notifies
// listeners.
func (s *Session) SetMaxFrame(maxFrame int) int {
	after := s.state.SetMaxFrame(maxFrame)

	s.mu.Lock()
	changed := s.doc.MaxFrame != after
	s.doc.MaxFrame = after
	s.mu.Unlock()

	if changed {
		s.bus.Publish(bus.TopicMaxFrameChanged, after)
		s.MarkDirty()
	}
	return after
}

// Zoom scales the frame unit width by the factor and notifies listeners when
// it changes.
func (s *Session) Zoom(factor float64) float64 {
	before := s.state.FrameUnitWidth()
	after := s.state.ZoomBy(factor)
	if after != before {
		s.bus.Publish(bus.TopicZoomChanged, after)
	}
	return after
}

// SetPlaying starts or stops playback and notifies listeners on change.
func (s *Session) SetPlaying(playing bool) {
	if s.state.Playing() == playing {
		return
	}
	s.state.SetPlaying(playing)
	s.bus.Publish(bus.TopicPlayStateChanged, playing)
}

// Advance moves playback one frame. When the playhead stops at the timeline
// end a play-state change is published as well.
func (s *Session) Advance() int {
	if !s.state.Playing() {
		return s.state.CurrentFrame()
	}
	before := s.state.CurrentFrame()
	after := s.state.Step()
	if after != before {
		s.bus.Publish(bus.TopicFrameChanged, after)
	}
	if !s.state.Playing() {
		s.bus.Publish(bus.TopicPlayStateChanged, false)
	}
	return after
}

// Select records the clicked clip.
func (s *Session) Select(t core.TrackType, trackIndex int, clipID uuid.UUID) {
	s.mu.Lock()
	s.selection = &Selection{TrackType: t, TrackIndex: trackIndex, ClipID: clipID}
	s.mu.Unlock()
}

// Selected returns the current selection, nil when nothing is selected.
func (s *Session) Selected() *Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection
}

// ClearSelection drops the current selection.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	s.selection = nil
	s.mu.Unlock()
}

// Defer queues a callback to run at the end of the current operation.
func (s *Session) Defer(fn func()) {
	s.deferred.Defer(fn)
}

// RunDeferred drains the deferred-callback queue.
func (s *Session) RunDeferred() int {
	return s.deferred.Run()
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Close runs remaining deferred callbacks and drops every bus subscription
// so no handler outlives the session.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	hooks := s.closeHooks
	s.closeHooks = nil
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	s.deferred.Run()
	s.bus.ClearAll()
	return nil
}
