// Package resolve maps clip references coming from the view layer back to
// the clips in the document tree, and applies edits through that mapping so
// the persisted data always matches what is on screen.
package resolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/skillforge/timeline/internal/bus"
	"github.com/skillforge/timeline/internal/cache"
	"github.com/skillforge/timeline/internal/session"
	"github.com/skillforge/timeline/internal/track"
	"github.com/skillforge/timeline/pkg/core"
)

var (
	// ErrNotFound is returned when a reference matches no clip. The edit is
	// dropped rather than applied to a guess.
	ErrNotFound = errors.New("clip not found")
	// ErrAmbiguous is returned when a name-based reference matches more than
	// one clip. The edit is aborted instead of picking a candidate.
	ErrAmbiguous = errors.New("clip reference is ambiguous")
)

// Ref identifies a clip. ClipID is the primary key; Name plus StartFrame is
// the legacy fallback for references that predate stable clip IDs.
type Ref struct {
	TrackType  core.TrackType
	TrackIndex int
	ClipID     uuid.UUID
	Name       string
	StartFrame int
}

func (r Ref) String() string {
	if r.ClipID != uuid.Nil {
		return fmt.Sprintf("%s[%d]/%s", r.TrackType, r.TrackIndex, r.ClipID)
	}
	return fmt.Sprintf("%s[%d]/%q@%d", r.TrackType, r.TrackIndex, r.Name, r.StartFrame)
}

// Resolver locates clips for the view layer and writes edits through to the
// document. Resolution results are cached by clip ID; the cache drops on
// every structural refresh.
type Resolver struct {
	session  *session.Session
	registry *track.Registry
	cache    *cache.ClipCache
	log      zerolog.Logger
	recorder track.EditRecorder
}

// New creates a resolver. The locator cache is invalidated whenever a full
// refresh is published.
func New(sess *session.Session, reg *track.Registry, log zerolog.Logger) *Resolver {
	r := &Resolver{
		session:  sess,
		registry: reg,
		cache:    cache.NewClipCache(),
		log:      log,
	}
	sess.Bus().Subscribe(bus.TopicRefreshRequested, func(bus.Event) {
		r.cache.Reset()
	}, bus.Named("resolver-cache"))
	return r
}

// SetRecorder attaches an edit recorder for committed moves and resizes.
// Nil disables recording.
func (r *Resolver) SetRecorder(rec track.EditRecorder) {
	r.recorder = rec
}

func (r *Resolver) record(operation string, t core.TrackType) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.RecordEdit(context.Background(), r.session.Document().SkillName, operation, t); err != nil {
		r.log.Debug().Err(err).Str("operation", operation).Msg("Failed to record edit")
	}
}

// LookupMisses returns how many references failed to resolve over the
// session.
func (r *Resolver) LookupMisses() int {
	return r.session.Stats().ResolveMisses.Value()
}

// Resolve returns the clip a reference points at. ID references search the
// whole document, so a clip is found even after it moved between tracks.
// Legacy references match on name within the referenced track; when several
// clips share the name the start frame disambiguates, and the edit is
// aborted when that still leaves more than one candidate.
func (r *Resolver) Resolve(ref Ref) (*core.Clip, error) {
	if ref.ClipID != uuid.Nil {
		return r.resolveByID(ref.ClipID)
	}
	return r.resolveLegacy(ref)
}

func (r *Resolver) resolveByID(id uuid.UUID) (*core.Clip, error) {
	doc := r.session.Document()

	if loc, ok := r.cache.Get(id); ok {
		if clip := findInTrack(doc, loc.TrackType, loc.TrackIndex, id); clip != nil {
			return clip, nil
		}
		// stale entry: the clip moved or was deleted
		r.cache.Delete(id)
	}

	var found *core.Clip
	doc.EachClip(func(t core.TrackType, trackIndex int, c *core.Clip) {
		if c.ID == id && found == nil {
			found = c
			r.cache.Put(id, cache.Locator{TrackType: t, TrackIndex: trackIndex})
		}
	})
	if found == nil {
		r.session.Stats().ResolveMisses.Inc()
		r.log.Warn().Str("clipId", id.String()).Msg("Clip reference did not resolve, dropping edit")
		return nil, fmt.Errorf("clip %s: %w", id, ErrNotFound)
	}
	return found, nil
}

func (r *Resolver) resolveLegacy(ref Ref) (*core.Clip, error) {
	clips := trackClips(r.session.Document(), ref.TrackType, ref.TrackIndex)

	var matches []*core.Clip
	for _, c := range clips {
		if c.Name == ref.Name {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		r.session.Stats().ResolveMisses.Inc()
		r.log.Warn().Stringer("ref", ref).Msg("Clip reference did not resolve, dropping edit")
		return nil, fmt.Errorf("%s: %w", ref, ErrNotFound)
	case 1:
		// the name is unique on the track, so a stale start frame on the
		// reference still resolves
		r.cache.Put(matches[0].ID, cache.Locator{TrackType: ref.TrackType, TrackIndex: ref.TrackIndex})
		return matches[0], nil
	default:
		// several clips share the name; the start frame disambiguates
		var exact []*core.Clip
		for _, c := range matches {
			if c.StartFrame == ref.StartFrame {
				exact = append(exact, c)
			}
		}
		if len(exact) == 1 {
			r.cache.Put(exact[0].ID, cache.Locator{TrackType: ref.TrackType, TrackIndex: ref.TrackIndex})
			return exact[0], nil
		}
		r.session.Stats().ResolveAmbiguities.Inc()
		r.log.Warn().Stringer("ref", ref).Int("matches", len(matches)).
			Msg("Clip reference is ambiguous, dropping edit")
		return nil, fmt.Errorf("%s matches %d clips: %w", ref, len(matches), ErrAmbiguous)
	}
}

// SetStartFrame moves the clip, keeping it inside the timeline and keeping
// its track sorted.
func (r *Resolver) SetStartFrame(ref Ref, startFrame int) error {
	clip, err := r.Resolve(ref)
	if err != nil {
		return err
	}
	doc := r.session.Document()

	if startFrame < 0 {
		startFrame = 0
	}
	if max := doc.MaxFrame - clip.DurationFrame; startFrame > max {
		startFrame = max
		if startFrame < 0 {
			startFrame = 0
		}
	}
	if clip.StartFrame == startFrame {
		return nil
	}
	clip.StartFrame = startFrame
	r.resort(clip)
	r.session.Stats().ClipsMoved.Inc()
	r.record("move", r.trackTypeOf(clip))
	r.edited(clip)
	return nil
}

// SetDuration resizes the clip to at least one frame, clamped so the clip
// stays inside the timeline.
func (r *Resolver) SetDuration(ref Ref, durationFrame int) error {
	clip, err := r.Resolve(ref)
	if err != nil {
		return err
	}
	doc := r.session.Document()

	if durationFrame < 1 {
		durationFrame = 1
	}
	if max := doc.MaxFrame - clip.StartFrame; durationFrame > max && max >= 1 {
		durationFrame = max
	}
	if clip.DurationFrame == durationFrame {
		return nil
	}
	clip.DurationFrame = durationFrame
	r.session.Stats().ClipsResized.Inc()
	r.record("resize", r.trackTypeOf(clip))
	r.edited(clip)
	return nil
}

// Rename changes the clip's display name. Legacy references carry the name
// the view last displayed, so the reference resolves against the old name.
func (r *Resolver) Rename(ref Ref, newName string) error {
	clip, err := r.Resolve(ref)
	if err != nil {
		return err
	}
	if clip.Name == newName {
		return nil
	}
	clip.Name = newName
	r.session.MarkDirty()
	return nil
}

// SetPayload replaces the clip's type-specific data. The payload kind must
// match the clip's track type.
func (r *Resolver) SetPayload(ref Ref, payload core.Payload) error {
	clip, err := r.Resolve(ref)
	if err != nil {
		return err
	}
	if payload == nil {
		return fmt.Errorf("cannot set nil payload on %s", ref)
	}
	if t := r.trackTypeOf(clip); payload.Kind() != t {
		return fmt.Errorf("payload kind %s does not match clip type %s", payload.Kind(), t)
	}
	clip.Payload = payload
	r.edited(clip)
	return nil
}

// Delete removes the referenced clip, with the same cascade as deleting it
// from the track directly.
func (r *Resolver) Delete(ref Ref) error {
	clip, err := r.Resolve(ref)
	if err != nil {
		return err
	}
	loc, ok := r.cache.Get(clip.ID)
	if !ok {
		loc = cache.Locator{TrackType: ref.TrackType, TrackIndex: ref.TrackIndex}
	}
	r.cache.Delete(clip.ID)
	return r.registry.DeleteClip(loc.TrackType, loc.TrackIndex, clip.ID)
}

// resort restores frame order on the track now holding the clip.
func (r *Resolver) resort(clip *core.Clip) {
	loc, ok := r.cache.Get(clip.ID)
	if !ok {
		return
	}
	clips := trackClips(r.session.Document(), loc.TrackType, loc.TrackIndex)
	core.SortClips(clips)
}

func (r *Resolver) edited(clip *core.Clip) {
	if r.trackTypeOf(clip) == core.TrackAnimation {
		r.registry.RecomputeAnimationTransitions()
	}
	r.session.MarkDirty()
}

// trackTypeOf reports which track the clip lives on. The locator cache is the
// authority: Resolve always populates it on success. The payload kind is the
// fallback, and may be absent entirely, since documents written before kind
// discriminators existed load with a nil payload.
func (r *Resolver) trackTypeOf(clip *core.Clip) core.TrackType {
	if loc, ok := r.cache.Get(clip.ID); ok {
		return loc.TrackType
	}
	if clip.Payload != nil {
		return clip.Payload.Kind()
	}
	return ""
}

func trackClips(doc *core.Document, t core.TrackType, trackIndex int) []*core.Clip {
	if t.IsSingleton() {
		if st := doc.Tracks.Singleton(t); st != nil {
			return st.Clips
		}
		return nil
	}
	if mt := doc.Tracks.Multi(t); mt != nil {
		if lane := mt.Lane(trackIndex); lane != nil {
			return lane.Clips
		}
	}
	return nil
}

func findInTrack(doc *core.Document, t core.TrackType, trackIndex int, id uuid.UUID) *core.Clip {
	for _, c := range trackClips(doc, t, trackIndex) {
		if c.ID == id {
			return c
		}
	}
	return nil
}
