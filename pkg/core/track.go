// pkg/core/track.go
package core

// TrackType identifies the kind of lane a clip lives on.
type TrackType string

const (
	TrackAnimation    TrackType = "animation"
	TrackCamera       TrackType = "camera"
	TrackTransform    TrackType = "transform"
	TrackAudio        TrackType = "audio"
	TrackEffect       TrackType = "effect"
	TrackHitDetection TrackType = "hitDetection"
	TrackEvent        TrackType = "event"
	TrackGameObject   TrackType = "gameObject"
)

// SingletonTypes are track types allowing at most one instance per document.
var SingletonTypes = []TrackType{
	TrackAnimation,
	TrackCamera,
	TrackTransform,
}

// MultiTypes are track types allowing any number of indexed instances.
var MultiTypes = []TrackType{
	TrackAudio,
	TrackEffect,
	TrackHitDetection,
	TrackEvent,
	TrackGameObject,
}

// AllTrackTypes lists every track type in document order.
var AllTrackTypes = []TrackType{
	TrackAnimation,
	TrackCamera,
	TrackTransform,
	TrackAudio,
	TrackEffect,
	TrackHitDetection,
	TrackEvent,
	TrackGameObject,
}

// IsSingleton reports whether the type allows at most one track per document.
func (t TrackType) IsSingleton() bool {
	switch t {
	case TrackAnimation, TrackCamera, TrackTransform:
		return true
	default:
		return false
	}
}

// Valid reports whether t is a known track type.
func (t TrackType) Valid() bool {
	switch t {
	case TrackAnimation, TrackCamera, TrackTransform,
		TrackAudio, TrackEffect, TrackHitDetection, TrackEvent, TrackGameObject:
		return true
	default:
		return false
	}
}
