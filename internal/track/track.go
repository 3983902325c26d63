// Package track manages the track list of an open skill document: creating
// and deleting tracks, toggling them, and placing clips on them.
package track

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/skillforge/timeline/internal/bus"
	"github.com/skillforge/timeline/internal/session"
	"github.com/skillforge/timeline/pkg/core"
)

// EditRecorder receives one call per committed clip edit. The telemetry
// manager satisfies this; recording is optional and failures never block an
// edit.
type EditRecorder interface {
	RecordEdit(ctx context.Context, skillName, operation string, trackType core.TrackType) error
}

var (
	// ErrSingletonExists is returned when creating a second track of a
	// singleton type.
	ErrSingletonExists = errors.New("track type already exists")
	// ErrTrackNotFound is returned for operations on a missing track.
	ErrTrackNotFound = errors.New("track not found")
	// ErrClipNotFound is returned for operations on a missing clip.
	ErrClipNotFound = errors.New("clip not found")
)

// Info describes one track row as shown in the editor.
type Info struct {
	Type       core.TrackType
	TrackIndex int
	Enabled    bool
	ClipCount  int
}

// Registry performs all track-level mutations on the session's document.
// Structural changes publish a refresh so every view rebuilds.
type Registry struct {
	session  *session.Session
	log      zerolog.Logger
	recorder EditRecorder
}

// NewRegistry creates a registry bound to the session.
func NewRegistry(sess *session.Session, log zerolog.Logger) *Registry {
	return &Registry{session: sess, log: log}
}

// SetRecorder attaches an edit recorder. Nil disables recording.
func (r *Registry) SetRecorder(rec EditRecorder) {
	r.recorder = rec
}

func (r *Registry) record(operation string, t core.TrackType) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.RecordEdit(context.Background(), r.session.Document().SkillName, operation, t); err != nil {
		r.log.Debug().Err(err).Str("operation", operation).Msg("Failed to record edit")
	}
}

// Tracks lists every existing track in display order: singleton types first
// in their fixed order, then multi-instance types by track index.
func (r *Registry) Tracks() []Info {
	doc := r.session.Document()
	var infos []Info

	for _, t := range core.SingletonTypes {
		if st := doc.Tracks.Singleton(t); st != nil {
			infos = append(infos, Info{
				Type:      t,
				Enabled:   st.Enabled,
				ClipCount: len(st.Clips),
			})
		}
	}
	for _, t := range core.MultiTypes {
		mt := doc.Tracks.Multi(t)
		if mt == nil {
			continue
		}
		for _, lane := range mt.Lanes {
			infos = append(infos, Info{
				Type:       t,
				TrackIndex: lane.TrackIndex,
				Enabled:    lane.Enabled,
				ClipCount:  len(lane.Clips),
			})
		}
	}
	return infos
}

// CanCreate reports whether a track of the given type may be added. Used to
// disable menu entries for singleton types that already have their track.
func (r *Registry) CanCreate(t core.TrackType) bool {
	if !t.Valid() {
		return false
	}
	if !t.IsSingleton() {
		return true
	}
	return r.session.Document().Tracks.Singleton(t) == nil
}

// CreateTrack adds a track of the given type. Singleton types may exist only
// once; a second create is rejected. For multi-instance types the new track
// takes the lowest free index.
func (r *Registry) CreateTrack(t core.TrackType) (Info, error) {
	if !t.Valid() {
		return Info{}, fmt.Errorf("invalid track type %q", t)
	}
	doc := r.session.Document()

	if t.IsSingleton() {
		if doc.Tracks.Singleton(t) != nil {
			r.log.Warn().Str("trackType", string(t)).Msg("Rejected duplicate singleton track")
			return Info{}, fmt.Errorf("creating %s track: %w", t, ErrSingletonExists)
		}
		st := doc.Tracks.EnsureSingleton(t)
		r.structureChanged()
		return Info{Type: t, Enabled: st.Enabled}, nil
	}

	// sub-document is created lazily on the first track of the type
	mt := doc.Tracks.EnsureMulti(t)
	idx := len(mt.Lanes)
	for mt.Lane(idx) != nil {
		idx++
	}
	lane := mt.AddLane(idx)
	r.log.Debug().Str("trackType", string(t)).Int("trackIndex", idx).Msg("Created track")
	r.structureChanged()
	return Info{Type: t, TrackIndex: lane.TrackIndex, Enabled: lane.Enabled}, nil
}

// DeleteTrack removes a track. Deleting the last populated track of a
// multi-instance type also drops the type's sub-document.
func (r *Registry) DeleteTrack(t core.TrackType, trackIndex int) error {
	doc := r.session.Document()

	if t.IsSingleton() {
		if doc.Tracks.Singleton(t) == nil {
			return fmt.Errorf("deleting %s track: %w", t, ErrTrackNotFound)
		}
		doc.Tracks.RemoveSingleton(t)
		r.structureChanged()
		return nil
	}

	mt := doc.Tracks.Multi(t)
	if mt == nil || !mt.RemoveLane(trackIndex) {
		return fmt.Errorf("deleting %s[%d]: %w", t, trackIndex, ErrTrackNotFound)
	}
	if len(mt.Lanes) == 0 {
		doc.Tracks.RemoveMulti(t)
	}
	r.structureChanged()
	return nil
}

// SetTrackEnabled toggles a track's enabled flag.
func (r *Registry) SetTrackEnabled(t core.TrackType, trackIndex int, enabled bool) error {
	doc := r.session.Document()

	if t.IsSingleton() {
		st := doc.Tracks.Singleton(t)
		if st == nil {
			return fmt.Errorf("toggling %s track: %w", t, ErrTrackNotFound)
		}
		if st.Enabled != enabled {
			st.Enabled = enabled
			r.session.MarkDirty()
		}
		return nil
	}

	mt := doc.Tracks.Multi(t)
	if mt == nil {
		return fmt.Errorf("toggling %s[%d]: %w", t, trackIndex, ErrTrackNotFound)
	}
	lane := mt.Lane(trackIndex)
	if lane == nil {
		return fmt.Errorf("toggling %s[%d]: %w", t, trackIndex, ErrTrackNotFound)
	}
	if lane.Enabled != enabled {
		lane.Enabled = enabled
		r.session.MarkDirty()
	}
	return nil
}

// AddClip places a new clip with the default payload for the track type. The
// start frame is clamped to the timeline.
func (r *Registry) AddClip(t core.TrackType, trackIndex int, name string, startFrame, durationFrame int) (*core.Clip, error) {
	clips, err := r.clipSlot(t, trackIndex)
	if err != nil {
		return nil, err
	}

	maxStart := r.session.Document().MaxFrame
	if startFrame > maxStart {
		startFrame = maxStart
	}
	clip := core.NewClip(t, name, startFrame, durationFrame)
	*clips = append(*clips, clip)
	core.SortClips(*clips)

	if t == core.TrackAnimation {
		r.RecomputeAnimationTransitions()
	}
	r.session.Stats().ClipsCreated.Inc()
	r.record("create", t)
	r.session.MarkDirty()
	r.session.Bus().Publish(bus.TopicRefreshRequested, nil)
	return clip, nil
}

// DeleteClip removes a clip. Removing the last clip of a multi-instance type
// cascades: an empty sub-document with no remaining clips on any lane is
// dropped along with its lanes.
func (r *Registry) DeleteClip(t core.TrackType, trackIndex int, clipID uuid.UUID) error {
	clips, err := r.clipSlot(t, trackIndex)
	if err != nil {
		return err
	}
	if !core.RemoveClip(clips, clipID) {
		return fmt.Errorf("deleting clip from %s[%d]: %w", t, trackIndex, ErrClipNotFound)
	}

	doc := r.session.Document()
	if !t.IsSingleton() {
		if mt := doc.Tracks.Multi(t); mt != nil && mt.Empty() {
			doc.Tracks.RemoveMulti(t)
		}
	}
	if t == core.TrackAnimation {
		r.RecomputeAnimationTransitions()
	}
	r.session.Stats().ClipsDeleted.Inc()
	r.record("delete", t)
	r.structureChanged()
	return nil
}

// RefreshFromDocument normalizes the track list after a document is loaded:
// a multi-instance sub-document that exists without lanes gets a placeholder
// lane at index 0 so the type stays visible, and clips come back sorted.
func (r *Registry) RefreshFromDocument() {
	doc := r.session.Document()

	for _, t := range core.MultiTypes {
		mt := doc.Tracks.Multi(t)
		if mt == nil {
			continue
		}
		if len(mt.Lanes) == 0 {
			mt.AddLane(0)
		}
		for _, lane := range mt.Lanes {
			core.SortClips(lane.Clips)
		}
	}
	for _, t := range core.SingletonTypes {
		if st := doc.Tracks.Singleton(t); st != nil {
			core.SortClips(st.Clips)
		}
	}

	r.session.Bus().Publish(bus.TopicRefreshRequested, nil)
}

// RecomputeAnimationTransitions recalculates the cutoff of each animation
// clip from its successor: a clip overlapped by the next one is cut off at
// the successor's start, and its transition window is clamped to what fits
// before the cutoff.
func (r *Registry) RecomputeAnimationTransitions() {
	st := r.session.Document().Tracks.Singleton(core.TrackAnimation)
	if st == nil {
		return
	}
	core.SortClips(st.Clips)

	for i, clip := range st.Clips {
		payload, ok := clip.Payload.(*core.AnimationPayload)
		if !ok {
			continue
		}
		payload.CutoffFrame = 0
		if i+1 < len(st.Clips) {
			next := st.Clips[i+1]
			if next.StartFrame < clip.EndFrame() {
				payload.CutoffFrame = next.StartFrame - clip.StartFrame
			}
		}
		effective := clip.DurationFrame
		if payload.CutoffFrame > 0 {
			effective = payload.CutoffFrame
		}
		if payload.TransitionFrames > effective {
			payload.TransitionFrames = effective
		}
	}
}

func (r *Registry) clipSlot(t core.TrackType, trackIndex int) (*[]*core.Clip, error) {
	doc := r.session.Document()

	if t.IsSingleton() {
		st := doc.Tracks.Singleton(t)
		if st == nil {
			return nil, fmt.Errorf("%s track: %w", t, ErrTrackNotFound)
		}
		return &st.Clips, nil
	}

	mt := doc.Tracks.Multi(t)
	if mt == nil {
		return nil, fmt.Errorf("%s[%d]: %w", t, trackIndex, ErrTrackNotFound)
	}
	lane := mt.Lane(trackIndex)
	if lane == nil {
		return nil, fmt.Errorf("%s[%d]: %w", t, trackIndex, ErrTrackNotFound)
	}
	return &lane.Clips, nil
}

func (r *Registry) structureChanged() {
	r.session.MarkDirty()
	r.session.Bus().Publish(bus.TopicRefreshRequested, nil)
}
