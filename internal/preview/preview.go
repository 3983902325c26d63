// Package preview streams editing events to a live preview server so the
// game-side renderer can mirror the timeline as it is edited.
package preview

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/skillforge/timeline/internal/bus"
	"github.com/skillforge/timeline/internal/session"
	"github.com/skillforge/timeline/pkg/streaming"
)

// Config holds preview bridge configuration.
type Config struct {
	URL    string
	Secret string
}

// Bridge forwards session events over a WebSocket. Event handlers run on the
// editor loop and only enqueue; the connection's write goroutine does the IO.
type Bridge struct {
	conn    *connection
	cfg     Config
	session *session.Session

	subs []*bus.Subscription
}

// New creates a preview bridge for the session.
func New(cfg Config, sess *session.Session, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		conn:    newConnection(logger),
		cfg:     cfg,
		session: sess,
	}
}

// Open connects to the preview server, announces the document and starts
// mirroring bus events.
func (b *Bridge) Open() error {
	if err := b.conn.dial(b.cfg.URL, b.cfg.Secret); err != nil {
		return err
	}

	doc := b.session.Document()
	data, err := marshalEnvelope(streaming.TypeOpenDocument, streaming.OpenDocumentPayload{
		SkillName: doc.SkillName,
		Document:  doc,
	})
	if err != nil {
		return err
	}

	// Cache for reconnect replay.
	b.conn.mu.Lock()
	b.conn.cachedOpenMsg = data
	b.conn.mu.Unlock()

	if err := b.conn.sendAndWait(data, streaming.TypeOpenDocument, ackTimeout); err != nil {
		return err
	}

	b.subscribe()
	return nil
}

// Close announces the end of the editing session, waits for the server to
// acknowledge so queued events are flushed, and disconnects.
func (b *Bridge) Close() error {
	for _, sub := range b.subs {
		sub.Close()
	}
	b.subs = nil

	var err error
	if data, mErr := marshalEnvelope(streaming.TypeCloseDocument, nil); mErr == nil {
		err = b.conn.sendAndWait(data, streaming.TypeCloseDocument, ackTimeout)
	} else {
		err = mErr
	}
	if closeErr := b.conn.close(); err == nil {
		err = closeErr
	}
	return err
}

func (b *Bridge) subscribe() {
	eventBus := b.session.Bus()
	b.subs = append(b.subs,
		eventBus.Subscribe(bus.TopicFrameChanged, func(e bus.Event) {
			frame, _ := e.Payload.(int)
			_ = b.sendEnvelope(streaming.TypeFrameChanged, streaming.FramePayload{Frame: frame})
		}, bus.Named("preview-frame")),

		eventBus.Subscribe(bus.TopicMaxFrameChanged, func(e bus.Event) {
			frame, _ := e.Payload.(int)
			_ = b.sendEnvelope(streaming.TypeMaxFrameChanged, streaming.FramePayload{Frame: frame})
		}, bus.Named("preview-max-frame")),

		eventBus.Subscribe(bus.TopicZoomChanged, func(e bus.Event) {
			width, _ := e.Payload.(float64)
			_ = b.sendEnvelope(streaming.TypeZoomChanged, streaming.ZoomPayload{FrameUnitWidth: width})
		}, bus.Named("preview-zoom")),

		eventBus.Subscribe(bus.TopicPlayStateChanged, func(e bus.Event) {
			playing, _ := e.Payload.(bool)
			_ = b.sendEnvelope(streaming.TypePlayState, streaming.PlayStatePayload{Playing: playing})
		}, bus.Named("preview-play-state")),

		eventBus.Subscribe(bus.TopicRefreshRequested, func(bus.Event) {
			_ = b.sendEnvelope(streaming.TypeDocumentSnapshot, streaming.DocumentSnapshotPayload{
				Document: b.session.Document(),
			})
		}, bus.Named("preview-snapshot")),
	)
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := streaming.Envelope{Type: msgType, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// sendEnvelope marshals the payload into an Envelope and pushes it to the
// write loop (fire-and-forget).
func (b *Bridge) sendEnvelope(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}
