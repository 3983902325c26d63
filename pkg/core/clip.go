// pkg/core/clip.go
package core

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Clip is a positioned, typed unit of timeline data. ID is assigned at
// creation and never changes; it is the sole identity key. Name is a display
// label and is not guaranteed unique within a track.
type Clip struct {
	ID            uuid.UUID
	Name          string
	StartFrame    int
	DurationFrame int
	Payload       Payload
}

// NewClip creates a clip with a fresh identity and the default payload for
// the given track type.
func NewClip(t TrackType, name string, startFrame, durationFrame int) *Clip {
	if durationFrame < 1 {
		durationFrame = 1
	}
	if startFrame < 0 {
		startFrame = 0
	}
	return &Clip{
		ID:            uuid.New(),
		Name:          name,
		StartFrame:    startFrame,
		DurationFrame: durationFrame,
		Payload:       DefaultPayload(t),
	}
}

// EndFrame is the first frame after the clip.
func (c *Clip) EndFrame() int {
	return c.StartFrame + c.DurationFrame
}

// Overlap returns how many frames of other are covered by c, zero if the
// clips do not touch.
func (c *Clip) Overlap(other *Clip) int {
	lo := c.StartFrame
	if other.StartFrame > lo {
		lo = other.StartFrame
	}
	hi := c.EndFrame()
	if other.EndFrame() < hi {
		hi = other.EndFrame()
	}
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// clipJSON is the wire form of a clip. The payload is stored behind a kind
// discriminator so the union survives a JSON round trip.
type clipJSON struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	StartFrame    int             `json:"startFrame"`
	DurationFrame int             `json:"durationFrame"`
	Kind          TrackType       `json:"kind"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

// MarshalJSON encodes the clip with its payload kind discriminator.
func (c *Clip) MarshalJSON() ([]byte, error) {
	out := clipJSON{
		ID:            c.ID,
		Name:          c.Name,
		StartFrame:    c.StartFrame,
		DurationFrame: c.DurationFrame,
	}
	if c.Payload != nil {
		out.Kind = c.Payload.Kind()
		raw, err := json.Marshal(c.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshalling %s payload: %w", out.Kind, err)
		}
		out.Payload = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a clip, reconstructing the concrete payload type from
// the kind discriminator. A clip without an ID is given one, so documents
// written before stable identities existed stay loadable.
func (c *Clip) UnmarshalJSON(data []byte) error {
	var in clipJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	c.ID = in.ID
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.Name = in.Name
	c.StartFrame = in.StartFrame
	c.DurationFrame = in.DurationFrame
	c.Payload = nil
	if in.Kind == "" {
		return nil
	}
	payload, err := UnmarshalPayload(in.Kind, in.Payload)
	if err != nil {
		return err
	}
	c.Payload = payload
	return nil
}

// UnmarshalPayload decodes a raw payload of the given kind. A nil raw payload
// yields the default payload for the kind.
func UnmarshalPayload(kind TrackType, raw json.RawMessage) (Payload, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown payload kind: %s", kind)
	}
	payload := DefaultPayload(kind)
	if len(raw) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(raw, payload); err != nil {
		return nil, fmt.Errorf("unmarshalling %s payload: %w", kind, err)
	}
	return payload, nil
}
