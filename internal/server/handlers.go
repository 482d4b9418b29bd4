package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/Tyrowin/roomrelay/internal/relay"
)

// RoomHandler upgrades the request and relays messages between the
// connection and the room named in the path until the peer disconnects.
func (s *Server) RoomHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	roomID, err := relay.ParseRoomID(vars["room_id"])
	if err != nil {
		http.Error(w, "Invalid room id.", http.StatusBadRequest)
		return
	}
	user := vars["user"]

	id, conn, ok := s.upgrade(w, r)
	if !ok {
		return
	}
	defer s.release(id, conn)

	logger := s.logger.With().
		Stringer("session", id).
		Int64("room", int64(roomID)).
		Str("user", user).
		Str("remote", r.RemoteAddr).
		Logger()
	logger.Info().Msg("joined room")

	session := newRoomSession(conn, s.rooms.Room(roomID), user, s.views, s.cfg, logger)
	if err := session.run(s.ctx); err != nil {
		logger.Warn().Err(err).Msg("session ended with error")
	}
	logger.Info().Msg("left room")
}

// PingHandler upgrades the request and runs the serve/ping/pong gate on it.
func (s *Server) PingHandler(w http.ResponseWriter, r *http.Request) {
	id, conn, ok := s.upgrade(w, r)
	if !ok {
		return
	}
	defer s.release(id, conn)

	logger := s.logger.With().Stringer("session", id).Str("remote", r.RemoteAddr).Logger()
	newPingSession(conn, s.cfg, logger).run(s.ctx)
}

// ViewsHandler writes the delivery counter as a decimal string.
func (s *Server) ViewsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprint(w, strconv.FormatUint(s.views.Load(), 10))
}

// ResetHandler zeroes the delivery counter. Rooms are not affected.
func (s *Server) ResetHandler(w http.ResponseWriter, _ *http.Request) {
	s.views.Reset()
	s.logger.Info().Msg("views counter reset")
	w.WriteHeader(http.StatusOK)
}

// StatsHandler reports room, session and delivery counts as JSON.
func (s *Server) StatsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Stats()); err != nil {
		s.logger.Error().Err(err).Msg("error writing stats response")
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "roomrelay server is running!")
}

// TestPageHandler serves an HTML page for joining a room from a browser.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprint(w, testPageHTML)
}

const testPageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>roomrelay test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        input[type="text"] { padding: 5px; margin-right: 10px; }
        button { padding: 5px 15px; background-color: #007cba; color: white; border: none; cursor: pointer; }
        button:hover { background-color: #005a87; }
        .status { margin: 10px 0; padding: 5px; border-radius: 3px; }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
    </style>
</head>
<body>
    <h1>roomrelay test</h1>

    <div id="status" class="status disconnected">Disconnected</div>

    <div>
        <input type="text" id="roomInput" placeholder="room id" value="1" size="6">
        <input type="text" id="userInput" placeholder="name" value="guest">
        <button id="connectButton" onclick="toggleConnection()">Join</button>
    </div>
    <div>
        <input type="text" id="messageInput" placeholder="Type a message..." maxlength="128" disabled>
        <button id="sendButton" onclick="sendMessage()" disabled>Send</button>
    </div>

    <div id="messages"></div>

    <script>
        let ws = null;
        const messagesDiv = document.getElementById('messages');
        const messageInput = document.getElementById('messageInput');
        const sendButton = document.getElementById('sendButton');
        const connectButton = document.getElementById('connectButton');
        const statusDiv = document.getElementById('status');

        function addLine(text, italic) {
            const el = document.createElement('div');
            el.style.margin = '5px 0';
            if (italic) { el.style.fontStyle = 'italic'; el.style.color = 'gray'; }
            el.textContent = text;
            messagesDiv.appendChild(el);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function updateStatus(connected) {
            statusDiv.textContent = connected ? 'Connected' : 'Disconnected';
            statusDiv.className = 'status ' + (connected ? 'connected' : 'disconnected');
            messageInput.disabled = !connected;
            sendButton.disabled = !connected;
            connectButton.textContent = connected ? 'Leave' : 'Join';
        }

        function connect() {
            const room = encodeURIComponent(document.getElementById('roomInput').value.trim());
            const user = encodeURIComponent(document.getElementById('userInput').value.trim());
            const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
            ws = new WebSocket(scheme + location.host + '/ws/room/' + room + '/user/' + user);
            ws.onopen = function() { addLine('Joined room ' + room, true); updateStatus(true); };
            ws.onmessage = function(event) {
                const env = JSON.parse(event.data);
                addLine(env.user + ': ' + env.message, false);
            };
            ws.onclose = function() { addLine('Connection closed', true); updateStatus(false); ws = null; };
        }

        function toggleConnection() {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.close();
            } else {
                connect();
            }
        }

        function sendMessage() {
            const message = messageInput.value;
            if (message && ws && ws.readyState === WebSocket.OPEN) {
                ws.send(JSON.stringify({ message: message }));
                messageInput.value = '';
            }
        }

        messageInput.addEventListener('keypress', function(e) {
            if (e.key === 'Enter') {
                sendMessage();
            }
        });
    </script>
</body>
</html>`
