// Package streaming defines the wire protocol between the editor and a live
// preview server: JSON envelopes carrying document snapshots and incremental
// editing events.
package streaming

import (
	"encoding/json"

	"github.com/skillforge/timeline/pkg/core"
)

// Message type constants matching the preview protocol.
const (
	TypeOpenDocument     = "open_document"
	TypeCloseDocument    = "close_document"
	TypeDocumentSnapshot = "document_snapshot"
	TypeFrameChanged     = "frame_changed"
	TypeMaxFrameChanged  = "max_frame_changed"
	TypeZoomChanged      = "zoom_changed"
	TypePlayState        = "play_state"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// OpenDocumentPayload announces the document under edit. The full document
// is included so the preview can render without a separate fetch.
type OpenDocumentPayload struct {
	SkillName string         `json:"skillName"`
	Document  *core.Document `json:"document"`
}

// DocumentSnapshotPayload carries the full document after a structural edit.
type DocumentSnapshotPayload struct {
	Document *core.Document `json:"document"`
}

// FramePayload carries a playhead or timeline-length change.
type FramePayload struct {
	Frame int `json:"frame"`
}

// ZoomPayload carries the pixel width of one frame unit.
type ZoomPayload struct {
	FrameUnitWidth float64 `json:"frameUnitWidth"`
}

// PlayStatePayload carries playback start/stop.
type PlayStatePayload struct {
	Playing bool `json:"playing"`
}
