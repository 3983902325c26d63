// pkg/core/payload.go
package core

// Payload is the type-specific data carried by a clip. Exactly one concrete
// payload type exists per track type; Kind ties the two together.
type Payload interface {
	Kind() TrackType
}

// AnimationPayload references a skeletal animation to play over the clip.
type AnimationPayload struct {
	AnimationRef string  `json:"animationRef"`
	PlaySpeed    float64 `json:"playSpeed"`
	Loop         bool    `json:"loop"`
	// TransitionFrames is how many frames of the previous clip this clip
	// overlaps, used to cross-fade between animations. Recomputed after a
	// clip on the animation track is repositioned.
	TransitionFrames int `json:"transitionFrames"`
	// CutoffFrame optionally truncates the source animation. Must not exceed
	// the clip duration.
	CutoffFrame int `json:"cutoffFrame"`
}

func (AnimationPayload) Kind() TrackType { return TrackAnimation }

// CameraPayload drives camera shake over the clip window.
type CameraPayload struct {
	ShakePattern string  `json:"shakePattern"`
	Amplitude    float64 `json:"amplitude"`
	Frequency    float64 `json:"frequency"`
}

func (CameraPayload) Kind() TrackType { return TrackCamera }

// TransformPayload moves the skill owner along a curve.
type TransformPayload struct {
	CurveRef      string  `json:"curveRef"`
	TargetOffsetX float64 `json:"targetOffsetX"`
	TargetOffsetY float64 `json:"targetOffsetY"`
	TargetOffsetZ float64 `json:"targetOffsetZ"`
}

func (TransformPayload) Kind() TrackType { return TrackTransform }

// AudioPayload references a sound cue.
type AudioPayload struct {
	AudioRef string  `json:"audioRef"`
	Volume   float64 `json:"volume"`
	Pitch    float64 `json:"pitch"`
}

func (AudioPayload) Kind() TrackType { return TrackAudio }

// EffectPayload spawns a visual effect attached to a bone.
type EffectPayload struct {
	EffectRef  string  `json:"effectRef"`
	AttachBone string  `json:"attachBone"`
	Scale      float64 `json:"scale"`
}

func (EffectPayload) Kind() TrackType { return TrackEffect }

// HitDetectionPayload opens a hit window against the given collision layers.
type HitDetectionPayload struct {
	LayerMask      uint32 `json:"layerMask"`
	CollisionGroup string `json:"collisionGroup"`
	HitboxRef      string `json:"hitboxRef"`
}

func (HitDetectionPayload) Kind() TrackType { return TrackHitDetection }

// EventPayload fires a named gameplay event at the clip's start frame.
type EventPayload struct {
	EventName string            `json:"eventName"`
	Params    map[string]string `json:"params,omitempty"`
}

func (EventPayload) Kind() TrackType { return TrackEvent }

// GameObjectPayload spawns a prefab for the duration of the clip.
type GameObjectPayload struct {
	PrefabRef    string  `json:"prefabRef"`
	OffsetX      float64 `json:"offsetX"`
	OffsetY      float64 `json:"offsetY"`
	OffsetZ      float64 `json:"offsetZ"`
	DestroyOnEnd bool    `json:"destroyOnEnd"`
}

func (GameObjectPayload) Kind() TrackType { return TrackGameObject }

// DefaultPayload returns the zero payload for a track type, so a freshly
// created clip always carries a payload matching its lane.
func DefaultPayload(t TrackType) Payload {
	switch t {
	case TrackAnimation:
		return &AnimationPayload{PlaySpeed: 1}
	case TrackCamera:
		return &CameraPayload{}
	case TrackTransform:
		return &TransformPayload{}
	case TrackAudio:
		return &AudioPayload{Volume: 1, Pitch: 1}
	case TrackEffect:
		return &EffectPayload{Scale: 1}
	case TrackHitDetection:
		return &HitDetectionPayload{}
	case TrackEvent:
		return &EventPayload{}
	case TrackGameObject:
		return &GameObjectPayload{DestroyOnEnd: true}
	default:
		return nil
	}
}
