// Package ws wraps one client WebSocket session: handshake, request intake
// with size and shape checks, typed outbound messages, and teardown.
package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

var (
	// ErrPayloadTooLarge is returned before any parsing when the raw request
	// exceeds the configured ceiling.
	ErrPayloadTooLarge = errors.New("request payload too large")
	// ErrMalformedPayload is returned when the request is not a JSON object.
	ErrMalformedPayload = errors.New("malformed request payload")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The browser frontend is served from a different origin in every
	// deployment shape; session auth happens at the payload level.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Communicator handles one WebSocket session. All writes are serialized by
// an internal mutex; once Fail or Close has run, further sends are no-ops so
// in-flight variant tasks racing a teardown cannot crash the session.
type Communicator struct {
	conn            *websocket.Conn
	sessionID       string
	maxPayloadBytes int

	mu     sync.Mutex
	closed bool
}

// Accept completes the WebSocket handshake exactly once per request and
// returns the session communicator.
func Accept(w http.ResponseWriter, r *http.Request, maxPayloadBytes int) (*Communicator, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket upgrade: %w", err)
	}
	// One byte over the ceiling so the application check below still owns
	// the boundary case and its client-facing error text.
	conn.SetReadLimit(int64(maxPayloadBytes) + 1)
	c := &Communicator{
		conn:            conn,
		sessionID:       uuid.NewString(),
		maxPayloadBytes: maxPayloadBytes,
	}
	log.WithField("session_id", c.sessionID).Info("incoming websocket connection")
	return c, nil
}

// SessionID returns the identifier assigned at accept time.
func (c *Communicator) SessionID() string { return c.sessionID }

// ReceiveRequest blocks for one message and returns it as a generic map.
// The byte-length ceiling is enforced before any parsing so hostile input
// costs no parse work; both failure modes are session-fatal and have already
// sent the error frame when this returns.
func (c *Communicator) ReceiveRequest() (map[string]any, error) {
	_, raw, err := c.conn.ReadMessage()
	if err != nil {
		if errors.Is(err, websocket.ErrReadLimit) {
			// gorilla already sent the 1009 close; mark the session closed
			// so later sends are no-ops.
			c.mu.Lock()
			c.closed = true
			_ = c.conn.Close()
			c.mu.Unlock()
			return nil, ErrPayloadTooLarge
		}
		return nil, fmt.Errorf("read request: %w", err)
	}

	if len(raw) > c.maxPayloadBytes {
		c.Fail(fmt.Sprintf(
			"Request payload too large (>%d bytes). Try using a smaller image or fewer history items.",
			c.maxPayloadBytes))
		return nil, ErrPayloadTooLarge
	}

	if !gjson.ValidBytes(raw) {
		c.Fail("Invalid JSON payload")
		return nil, ErrMalformedPayload
	}
	if !gjson.ParseBytes(raw).IsObject() {
		c.Fail("Invalid request payload: expected an object")
		return nil, ErrMalformedPayload
	}

	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil {
		c.Fail("Invalid JSON payload")
		return nil, ErrMalformedPayload
	}
	log.WithField("session_id", c.sessionID).Debug("received request params")
	return params, nil
}

// Send writes one outbound message. Sends after Fail/Close are silent
// no-ops; transport errors are returned so the caller can treat the variant
// as dead, but they never panic.
func (c *Communicator) Send(t MessageType, value string, variantIndex int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}

	switch t {
	case MessageVariantError:
		log.WithFields(log.Fields{"session_id": c.sessionID, "variant": variantIndex + 1}).
			Warnf("variant error: %s", value)
	case MessageVariantComplete:
		log.WithFields(log.Fields{"session_id": c.sessionID, "variant": variantIndex + 1}).
			Info("variant complete")
	case MessageStatus:
		log.WithFields(log.Fields{"session_id": c.sessionID, "variant": variantIndex + 1}).
			Debugf("status: %s", value)
	}

	return c.conn.WriteJSON(Message{Type: t, Value: value, VariantIndex: variantIndex})
}

// Fail sends one session-fatal error message and closes with the
// application-error status code. Idempotent: the second call is a no-op.
func (c *Communicator) Fail(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	log.WithField("session_id", c.sessionID).Error(message)
	if err := c.conn.WriteJSON(Message{Type: MessageError, Value: message}); err != nil {
		log.WithError(err).Debug("failed to write error frame")
	}
	c.closeLocked(AppErrorCloseCode)
}

// Close closes the connection with a normal status code unless the session
// is already closed.
func (c *Communicator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closeLocked(websocket.CloseNormalClosure)
}

func (c *Communicator) closeLocked(code int) {
	deadline := time.Now().Add(time.Second)
	msg := websocket.FormatCloseMessage(code, "")
	if err := c.conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		log.WithError(err).Debug("failed to write close frame")
	}
	_ = c.conn.Close()
	c.closed = true
}
