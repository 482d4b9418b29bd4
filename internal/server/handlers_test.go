package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/roomrelay/internal/config"
	"github.com/Tyrowin/roomrelay/internal/relay"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return New(config.New(), zerolog.Nop())
}

func serve(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, path, http.NoBody)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	s.Routes().ServeHTTP(rr, req)
	return rr
}

func TestHealthHandler(t *testing.T) {
	rr := serve(t, newTestServer(t), http.MethodGet, "/")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "roomrelay server is running!", rr.Body.String())
	assert.Equal(t, "text/plain", rr.Header().Get("Content-Type"))
}

func TestViewsAndReset(t *testing.T) {
	s := newTestServer(t)

	rr := serve(t, s, http.MethodGet, "/views")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "0", rr.Body.String())

	for i := 0; i < 3; i++ {
		s.Views().Increment()
	}
	assert.Equal(t, "3", serve(t, s, http.MethodGet, "/views").Body.String())

	rr = serve(t, s, http.MethodPost, "/reset")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Body.String())
	assert.Equal(t, "0", serve(t, s, http.MethodGet, "/views").Body.String())
}

func TestResetKeepsRooms(t *testing.T) {
	s := newTestServer(t)
	room := s.Rooms().Room(5)
	sub := room.Subscribe()
	defer sub.Close()

	serve(t, s, http.MethodPost, "/reset")

	assert.Same(t, room, s.Rooms().Room(5))
	assert.Equal(t, 1, room.Subscribers())
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/views"},
		{http.MethodGet, "/reset"},
		{http.MethodPost, "/ws/ping"},
		{http.MethodPost, "/ws/room/1/user/alice"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, http.StatusMethodNotAllowed, serve(t, s, tt.method, tt.path).Code)
		})
	}
}

func TestRoomHandlerRejectsBadRoomID(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, serve(t, s, http.MethodGet, "/ws/room/abc/user/alice").Code)
	assert.Equal(t, http.StatusBadRequest, serve(t, s, http.MethodGet, "/ws/room/99999999999999999999/user/alice").Code)
	assert.Equal(t, 0, s.Rooms().Len())
}

func TestRoomHandlerRequiresUpgrade(t *testing.T) {
	s := newTestServer(t)

	rr := serve(t, s, http.MethodGet, "/ws/room/1/user/alice")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, 0, s.Stats().Sessions)
}

func TestStatsHandler(t *testing.T) {
	s := newTestServer(t)
	s.Rooms().Publish(1, relay.Envelope{User: "a", Message: "b"})
	s.Rooms().Room(2)
	s.Views().Increment()

	rr := serve(t, s, http.MethodGet, "/stats")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var stats Stats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, Stats{Rooms: 2, Sessions: 0, Views: 1}, stats)
}

func TestTestPageHandler(t *testing.T) {
	rr := serve(t, newTestServer(t), http.MethodGet, "/test")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "/ws/room/")
}

func TestCreateServer(t *testing.T) {
	cfg := config.Default()
	handler := http.NewServeMux()

	srv := CreateServer(":8080", handler, cfg.HTTP)

	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, handler, srv.Handler)
	assert.Equal(t, 15*time.Second, srv.ReadTimeout)
	assert.Equal(t, 15*time.Second, srv.WriteTimeout)
	assert.Equal(t, 60*time.Second, srv.IdleTimeout)
}

func TestNewWithNilConfig(t *testing.T) {
	s := New(nil, zerolog.Nop())
	assert.Equal(t, config.DefaultRoomCapacity, s.Rooms().Room(1).Capacity())
}
