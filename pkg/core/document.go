// pkg/core/document.go
package core

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Document is the persisted configuration of one skill. The track container
// holds an optional sub-document per track type; singleton types carry their
// clips directly, multi-instance types carry one lane per track index.
type Document struct {
	ID        uint            `json:"id,omitempty"`
	SkillName string          `json:"skillName"`
	MaxFrame  int             `json:"maxFrame"`
	Tracks    TrackContainer  `json:"tracks"`
}

// TrackContainer is the per-type sub-document layout.
type TrackContainer struct {
	Animation    *SingletonTrack `json:"animationTrack,omitempty"`
	Camera       *SingletonTrack `json:"cameraTrack,omitempty"`
	Transform    *SingletonTrack `json:"transformTrack,omitempty"`
	Audio        *MultiTrack     `json:"audioTrack,omitempty"`
	Effect       *MultiTrack     `json:"effectTrack,omitempty"`
	HitDetection *MultiTrack     `json:"hitDetectionTrack,omitempty"`
	Event        *MultiTrack     `json:"eventTrack,omitempty"`
	GameObject   *MultiTrack     `json:"gameObjectTrack,omitempty"`
}

// SingletonTrack is the sub-document for a singleton track type.
type SingletonTrack struct {
	Enabled bool    `json:"isEnabled"`
	Clips   []*Clip `json:"clips"`
}

// MultiTrack is the sub-document for a multi-instance track type.
type MultiTrack struct {
	Lanes []*Lane `json:"tracks"`
}

// Lane is one indexed instance of a multi-instance track type.
type Lane struct {
	TrackIndex int     `json:"trackIndex"`
	Enabled    bool    `json:"isEnabled"`
	Clips      []*Clip `json:"clips"`
}

// NewDocument creates an empty skill document.
func NewDocument(skillName string, maxFrame int) *Document {
	if maxFrame < 1 {
		maxFrame = 1
	}
	return &Document{
		SkillName: skillName,
		MaxFrame:  maxFrame,
	}
}

// Singleton returns the sub-document for a singleton track type, nil if the
// type has no track or is not a singleton type.
func (tc *TrackContainer) Singleton(t TrackType) *SingletonTrack {
	switch t {
	case TrackAnimation:
		return tc.Animation
	case TrackCamera:
		return tc.Camera
	case TrackTransform:
		return tc.Transform
	default:
		return nil
	}
}

// EnsureSingleton returns the singleton sub-document for t, creating it if
// absent. Returns nil for non-singleton types.
func (tc *TrackContainer) EnsureSingleton(t TrackType) *SingletonTrack {
	slot := tc.singletonSlot(t)
	if slot == nil {
		return nil
	}
	if *slot == nil {
		*slot = &SingletonTrack{Enabled: true}
	}
	return *slot
}

// RemoveSingleton detaches the singleton sub-document for t.
func (tc *TrackContainer) RemoveSingleton(t TrackType) {
	if slot := tc.singletonSlot(t); slot != nil {
		*slot = nil
	}
}

// Multi returns the sub-document for a multi-instance track type, nil if the
// type has no tracks yet or is not a multi-instance type.
func (tc *TrackContainer) Multi(t TrackType) *MultiTrack {
	switch t {
	case TrackAudio:
		return tc.Audio
	case TrackEffect:
		return tc.Effect
	case TrackHitDetection:
		return tc.HitDetection
	case TrackEvent:
		return tc.Event
	case TrackGameObject:
		return tc.GameObject
	default:
		return nil
	}
}

// EnsureMulti returns the multi-instance sub-document for t, creating it
// lazily on first use. The sub-document is created once per type and shared
// by every instance of that type. Returns nil for singleton types.
func (tc *TrackContainer) EnsureMulti(t TrackType) *MultiTrack {
	slot := tc.multiSlot(t)
	if slot == nil {
		return nil
	}
	if *slot == nil {
		*slot = &MultiTrack{}
	}
	return *slot
}

// RemoveMulti detaches the multi-instance sub-document for t.
func (tc *TrackContainer) RemoveMulti(t TrackType) {
	if slot := tc.multiSlot(t); slot != nil {
		*slot = nil
	}
}

func (tc *TrackContainer) singletonSlot(t TrackType) **SingletonTrack {
	switch t {
	case TrackAnimation:
		return &tc.Animation
	case TrackCamera:
		return &tc.Camera
	case TrackTransform:
		return &tc.Transform
	default:
		return nil
	}
}

func (tc *TrackContainer) multiSlot(t TrackType) **MultiTrack {
	switch t {
	case TrackAudio:
		return &tc.Audio
	case TrackEffect:
		return &tc.Effect
	case TrackHitDetection:
		return &tc.HitDetection
	case TrackEvent:
		return &tc.Event
	case TrackGameObject:
		return &tc.GameObject
	default:
		return nil
	}
}

// Lane returns the lane with the given track index, nil if absent.
func (mt *MultiTrack) Lane(trackIndex int) *Lane {
	for _, l := range mt.Lanes {
		if l.TrackIndex == trackIndex {
			return l
		}
	}
	return nil
}

// AddLane appends an empty lane for the given track index and keeps lanes
// ordered by index.
func (mt *MultiTrack) AddLane(trackIndex int) *Lane {
	l := &Lane{TrackIndex: trackIndex, Enabled: true}
	mt.Lanes = append(mt.Lanes, l)
	sort.Slice(mt.Lanes, func(i, j int) bool {
		return mt.Lanes[i].TrackIndex < mt.Lanes[j].TrackIndex
	})
	return l
}

// RemoveLane deletes the lane with the given track index. Reports whether a
// lane was removed.
func (mt *MultiTrack) RemoveLane(trackIndex int) bool {
	for i, l := range mt.Lanes {
		if l.TrackIndex == trackIndex {
			mt.Lanes = append(mt.Lanes[:i], mt.Lanes[i+1:]...)
			return true
		}
	}
	return false
}

// Empty reports whether no lane of the sub-document holds any clip.
func (mt *MultiTrack) Empty() bool {
	for _, l := range mt.Lanes {
		if len(l.Clips) > 0 {
			return false
		}
	}
	return true
}

// SortClips orders a clip list by start frame, keeping insertion order for
// ties.
func SortClips(clips []*Clip) {
	sort.SliceStable(clips, func(i, j int) bool {
		return clips[i].StartFrame < clips[j].StartFrame
	})
}

// RemoveClip deletes the clip with the given ID from the slice. Reports
// whether a clip was removed.
func RemoveClip(clips *[]*Clip, id uuid.UUID) bool {
	for i, c := range *clips {
		if c.ID == id {
			*clips = append((*clips)[:i], (*clips)[i+1:]...)
			return true
		}
	}
	return false
}

// EachClip calls fn for every clip in the document, with its owning track
// type and track index (0 for singleton types).
func (d *Document) EachClip(fn func(t TrackType, trackIndex int, c *Clip)) {
	for _, t := range SingletonTypes {
		if st := d.Tracks.Singleton(t); st != nil {
			for _, c := range st.Clips {
				fn(t, 0, c)
			}
		}
	}
	for _, t := range MultiTypes {
		mt := d.Tracks.Multi(t)
		if mt == nil {
			continue
		}
		for _, l := range mt.Lanes {
			for _, c := range l.Clips {
				fn(t, l.TrackIndex, c)
			}
		}
	}
}

// ValidationIssue describes one problem found by Validate.
type ValidationIssue struct {
	TrackType  TrackType
	TrackIndex int
	ClipName   string
	Message    string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s[%d] %q: %s", v.TrackType, v.TrackIndex, v.ClipName, v.Message)
}

// Validate checks the document against its invariants. Overlapping clips on
// one track are reported as issues but are not an error: the editor never
// enforced non-overlap, so existing documents may carry them.
func (d *Document) Validate() []ValidationIssue {
	var issues []ValidationIssue

	check := func(t TrackType, trackIndex int, clips []*Clip) {
		sorted := make([]*Clip, len(clips))
		copy(sorted, clips)
		SortClips(sorted)
		for i, c := range sorted {
			if c.StartFrame < 0 || c.StartFrame > d.MaxFrame {
				issues = append(issues, ValidationIssue{t, trackIndex, c.Name,
					fmt.Sprintf("start frame %d outside [0, %d]", c.StartFrame, d.MaxFrame)})
			}
			if c.DurationFrame < 1 {
				issues = append(issues, ValidationIssue{t, trackIndex, c.Name,
					fmt.Sprintf("duration %d below 1 frame", c.DurationFrame)})
			}
			if ap, ok := c.Payload.(*AnimationPayload); ok && ap.CutoffFrame > c.DurationFrame {
				issues = append(issues, ValidationIssue{t, trackIndex, c.Name,
					fmt.Sprintf("cutoff frame %d beyond clip duration %d", ap.CutoffFrame, c.DurationFrame)})
			}
			if i > 0 && sorted[i-1].EndFrame() > c.StartFrame {
				issues = append(issues, ValidationIssue{t, trackIndex, c.Name,
					fmt.Sprintf("overlaps %q by %d frames", sorted[i-1].Name, sorted[i-1].EndFrame()-c.StartFrame)})
			}
		}
	}

	for _, t := range SingletonTypes {
		if st := d.Tracks.Singleton(t); st != nil {
			check(t, 0, st.Clips)
		}
	}
	for _, t := range MultiTypes {
		if mt := d.Tracks.Multi(t); mt != nil {
			for _, l := range mt.Lanes {
				check(t, l.TrackIndex, l.Clips)
			}
		}
	}
	return issues
}
