package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// dialSession starts a test server whose handler runs serverFn with an
// accepted communicator, and returns the client side of the connection.
func dialSession(t *testing.T, maxPayload int, serverFn func(c *Communicator)) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := Accept(w, r, maxPayload)
		if err != nil {
			return
		}
		serverFn(c)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestReceiveRequestRoundTrip(t *testing.T) {
	got := make(chan map[string]any, 1)
	conn := dialSession(t, 1<<20, func(c *Communicator) {
		params, err := c.ReceiveRequest()
		if err == nil {
			got <- params
		}
		c.Close()
	})

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"generationType":"create"}`)))
	select {
	case params := <-got:
		require.Equal(t, "create", params["generationType"])
	case <-time.After(5 * time.Second):
		t.Fatal("server never received params")
	}
}

func TestReceiveRequestPayloadTooLargeBeforeParsing(t *testing.T) {
	errCh := make(chan error, 1)
	conn := dialSession(t, 64, func(c *Communicator) {
		_, err := c.ReceiveRequest()
		errCh <- err
	})

	// One byte over the ceiling AND invalid JSON: the size check must fire
	// first, proving no parsing was attempted.
	big := strings.Repeat("x", 65)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(big)))

	require.ErrorIs(t, <-errCh, ErrPayloadTooLarge)

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, MessageError, msg.Type)
	require.Contains(t, msg.Value, "too large")

	_, _, err := conn.ReadMessage()
	require.True(t, websocket.IsCloseError(err, AppErrorCloseCode), "got %v", err)
}

func TestReadLimitCutsGrosslyOversizedFrame(t *testing.T) {
	errCh := make(chan error, 1)
	conn := dialSession(t, 64, func(c *Communicator) {
		_, err := c.ReceiveRequest()
		errCh <- err
	})

	// Well past the read limit: the transport aborts the frame instead of
	// buffering it, and the client sees the 1009 close.
	big := strings.Repeat("x", 1<<16)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(big)))

	require.ErrorIs(t, <-errCh, ErrPayloadTooLarge)

	_, _, err := conn.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.CloseMessageTooBig), "got %v", err)
}

func TestReceiveRequestMalformedJSON(t *testing.T) {
	errCh := make(chan error, 1)
	conn := dialSession(t, 1<<20, func(c *Communicator) {
		_, err := c.ReceiveRequest()
		errCh <- err
	})

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{not json`)))
	require.ErrorIs(t, <-errCh, ErrMalformedPayload)

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, MessageError, msg.Type)
}

func TestReceiveRequestNonObjectPayload(t *testing.T) {
	errCh := make(chan error, 1)
	conn := dialSession(t, 1<<20, func(c *Communicator) {
		_, err := c.ReceiveRequest()
		errCh <- err
	})

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`[1,2,3]`)))
	require.ErrorIs(t, <-errCh, ErrMalformedPayload)
}

func TestFailIsIdempotentAndSilencesLaterSends(t *testing.T) {
	sendErr := make(chan error, 1)
	conn := dialSession(t, 1<<20, func(c *Communicator) {
		c.Fail("fatal error")
		c.Fail("second call must be dropped")
		// Racing variant tasks must not crash after teardown.
		sendErr <- c.Send(MessageChunk, "late chunk", 0)
		c.Close()
	})

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, MessageError, msg.Type)
	require.Equal(t, "fatal error", msg.Value)

	// Exactly one error frame, then the close handshake.
	_, _, err := conn.ReadMessage()
	require.True(t, websocket.IsCloseError(err, AppErrorCloseCode), "got %v", err)
	require.NoError(t, <-sendErr)
}

func TestSendDeliversTypedMessages(t *testing.T) {
	conn := dialSession(t, 1<<20, func(c *Communicator) {
		_ = c.Send(MessageVariantCount, "2", 0)
		_ = c.Send(MessageChunk, "<div>", 1)
		c.Close()
	})

	var first, second Message
	require.NoError(t, conn.ReadJSON(&first))
	require.Equal(t, MessageVariantCount, first.Type)
	require.Equal(t, "2", first.Value)

	require.NoError(t, conn.ReadJSON(&second))
	require.Equal(t, MessageChunk, second.Type)
	require.Equal(t, 1, second.VariantIndex)

	_, _, err := conn.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}
