package preview

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillforge/timeline/internal/bus"
	"github.com/skillforge/timeline/internal/session"
	"github.com/skillforge/timeline/pkg/core"
	"github.com/skillforge/timeline/pkg/streaming"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// testServer upgrades to WebSocket, records received envelopes, and acks
// open_document messages.
func testServer(t *testing.T) (*httptest.Server, *messageLog) {
	t.Helper()
	ml := &messageLog{}

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer c.Close()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}

			var env streaming.Envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				continue
			}
			ml.add(env)

			if env.Type == streaming.TypeOpenDocument || env.Type == streaming.TypeCloseDocument {
				ack := streaming.AckMessage{Type: "ack", For: env.Type}
				data, _ := json.Marshal(ack)
				if err := c.WriteMessage(ws.TextMessage, data); err != nil {
					return
				}
			}
		}
	}))

	return srv, ml
}

type messageLog struct {
	mu       sync.Mutex
	messages []streaming.Envelope
}

func (m *messageLog) add(env streaming.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, env)
}

func (m *messageLog) all() []streaming.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]streaming.Envelope, len(m.messages))
	copy(cp, m.messages)
	return cp
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	b, err := bus.New(nopLogger{})
	require.NoError(t, err)
	doc := core.NewDocument("preview_skill", 60)
	doc.Tracks.EnsureSingleton(core.TrackAnimation)
	sess, err := session.New(doc, b)
	require.NoError(t, err)
	return sess
}

func TestOpenAnnouncesDocument(t *testing.T) {
	srv, ml := testServer(t)
	defer srv.Close()

	sess := newTestSession(t)
	bridge := New(Config{URL: wsURL(srv), Secret: "s"}, sess, slog.Default())
	require.NoError(t, bridge.Open())
	defer bridge.Close()

	msgs := ml.all()
	require.GreaterOrEqual(t, len(msgs), 1)
	assert.Equal(t, streaming.TypeOpenDocument, msgs[0].Type)

	var payload streaming.OpenDocumentPayload
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &payload))
	assert.Equal(t, "preview_skill", payload.SkillName)
	require.NotNil(t, payload.Document)
	assert.Equal(t, 60, payload.Document.MaxFrame)
}

func TestBusEventsMirrored(t *testing.T) {
	srv, ml := testServer(t)
	defer srv.Close()

	sess := newTestSession(t)
	bridge := New(Config{URL: wsURL(srv)}, sess, slog.Default())
	require.NoError(t, bridge.Open())
	defer bridge.Close()

	sess.SetCurrentFrame(12)
	sess.SetMaxFrame(90)
	sess.Zoom(1.5)
	sess.SetPlaying(true)

	// give the write loop time to flush
	time.Sleep(100 * time.Millisecond)

	types := make(map[string]int)
	for _, m := range ml.all() {
		types[m.Type]++
	}
	assert.Equal(t, 1, types[streaming.TypeFrameChanged])
	assert.Equal(t, 1, types[streaming.TypeMaxFrameChanged])
	assert.Equal(t, 1, types[streaming.TypeZoomChanged])
	assert.Equal(t, 1, types[streaming.TypePlayState])
	// max-frame change also marks the session dirty, publishing a config
	// change with no preview mapping; no snapshot is expected for it
	assert.Equal(t, 0, types[streaming.TypeDocumentSnapshot])
}

func TestRefreshSendsSnapshot(t *testing.T) {
	srv, ml := testServer(t)
	defer srv.Close()

	sess := newTestSession(t)
	bridge := New(Config{URL: wsURL(srv)}, sess, slog.Default())
	require.NoError(t, bridge.Open())
	defer bridge.Close()

	sess.Bus().Publish(bus.TopicRefreshRequested, nil)
	time.Sleep(100 * time.Millisecond)

	var snapshots int
	for _, m := range ml.all() {
		if m.Type == streaming.TypeDocumentSnapshot {
			snapshots++
		}
	}
	assert.Equal(t, 1, snapshots)
}

func TestCloseSendsCloseDocumentAndUnsubscribes(t *testing.T) {
	srv, ml := testServer(t)
	defer srv.Close()

	sess := newTestSession(t)
	bridge := New(Config{URL: wsURL(srv)}, sess, slog.Default())
	require.NoError(t, bridge.Open())

	require.NoError(t, bridge.Close())
	time.Sleep(100 * time.Millisecond)

	msgs := ml.all()
	require.NotEmpty(t, msgs)
	assert.Equal(t, streaming.TypeCloseDocument, msgs[len(msgs)-1].Type)
	assert.Equal(t, 0, sess.Bus().SubscriberCount(bus.TopicFrameChanged))
}

func TestEnvelopeSerialization(t *testing.T) {
	payload := streaming.FramePayload{Frame: 42}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	env := streaming.Envelope{Type: streaming.TypeFrameChanged, Payload: raw}
	data, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded streaming.Envelope
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, streaming.TypeFrameChanged, decoded.Type)

	var fp streaming.FramePayload
	require.NoError(t, json.Unmarshal(decoded.Payload, &fp))
	assert.Equal(t, 42, fp.Frame)
}
