// Package testhelpers provides utilities shared by the relay's tests: starting
// a relay behind httptest, dialing websocket endpoints, and exchanging relay
// frames with a deadline so a missing frame fails the test instead of
// hanging it.
package testhelpers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/roomrelay/internal/config"
	"github.com/Tyrowin/roomrelay/internal/relay"
	"github.com/Tyrowin/roomrelay/internal/server"
)

// ReadTimeout bounds every helper that waits for a frame.
const ReadTimeout = 2 * time.Second

// TestConfig returns the default config with keepalive pings disabled.
func TestConfig() *config.Config {
	cfg := config.New()
	cfg.PingInterval = 0
	return cfg
}

// StartRelay starts a relay behind an httptest server. customize may adjust
// the config before the relay is built. Both are shut down on test cleanup.
func StartRelay(t *testing.T, customize func(cfg *config.Config)) (*server.Server, *httptest.Server) {
	t.Helper()

	cfg := TestConfig()
	if customize != nil {
		customize(cfg)
	}

	relaySrv := server.New(cfg, zerolog.Nop())
	testServer := httptest.NewServer(relaySrv.Routes())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = relaySrv.Shutdown(ctx)
		testServer.Close()
	})
	return relaySrv, testServer
}

// WebSocketURL converts the httptest base URL into a ws:// URL for path.
func WebSocketURL(baseURL, path string) string {
	return "ws" + strings.TrimPrefix(baseURL, "http") + path
}

// ConnectWebSocket dials url and registers the connection for closing on
// test cleanup.
func ConnectWebSocket(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, err := DialWebSocket(url, nil)
	require.NoError(t, err, "dial %s", url)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// DialWebSocket dials url with the given extra headers.
func DialWebSocket(url string, header http.Header) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	conn, resp, err := dialer.Dial(url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// JoinRoom connects to room as user and waits until the relay has subscribed
// the session, so that messages published afterwards reach it.
func JoinRoom(t *testing.T, relaySrv *server.Server, baseURL string, room int64, user string) *websocket.Conn {
	t.Helper()

	channel := relaySrv.Rooms().Room(relay.RoomID(room))
	before := channel.Subscribers()

	conn := ConnectWebSocket(t, WebSocketURL(baseURL, RoomPath(room, user)))
	require.Eventually(t, func() bool {
		return channel.Subscribers() > before
	}, ReadTimeout, 5*time.Millisecond, "session for %s never subscribed to room %d", user, room)
	return conn
}

// RoomPath builds the relay path for room and user.
func RoomPath(room int64, user string) string {
	return "/ws/room/" + strconv.FormatInt(room, 10) + "/user/" + user
}

// SendMessage sends a {"message": content} frame.
func SendMessage(t *testing.T, conn *websocket.Conn, content string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]string{"message": content}))
}

// SendText sends a raw text frame.
func SendText(t *testing.T, conn *websocket.Conn, text string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(text)))
}

// ReceiveEnvelope reads the next frame and decodes it as an envelope.
func ReceiveEnvelope(t *testing.T, conn *websocket.Conn) relay.Envelope {
	t.Helper()

	text := ReceiveText(t, conn)
	var env relay.Envelope
	require.NoError(t, json.Unmarshal([]byte(text), &env), "frame %q", text)
	return env
}

// ReceiveText reads the next text frame.
func ReceiveText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(ReadTimeout)))
	msgType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, msgType)
	return string(data)
}

// ExpectClosed waits for the server to end the connection. Any read error
// other than a timeout counts as closed.
func ExpectClosed(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(ReadTimeout)))
	for {
		_, _, err := conn.ReadMessage()
		if err == nil {
			continue
		}
		if ne, ok := err.(interface{ Timeout() bool }); ok && ne.Timeout() {
			t.Fatalf("connection still open after %s", ReadTimeout)
		}
		return
	}
}

// Get performs a GET against the test server and returns status and body.
func Get(t *testing.T, url string) (int, string) {
	t.Helper()
	return Do(t, http.MethodGet, url)
}

// Do performs a request with an empty body and returns status and body.
func Do(t *testing.T, method, url string) (int, string) {
	t.Helper()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequest(method, url, http.NoBody)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}
