package server

import (
	"errors"
	"strings"
)

// errSessionEnded is returned by a session loop that stopped because the peer
// went away or its subscription closed. It ends the session without being
// reported as a failure.
var errSessionEnded = errors.New("session ended")

// errFrameTooLarge reports an inbound frame over the configured size that was
// read off the connection and thrown away.
var errFrameTooLarge = errors.New("frame exceeds size limit")

// Stats is the JSON body served by the stats endpoint.
type Stats struct {
	Rooms    int    `json:"rooms"`
	Sessions int    `json:"sessions"`
	Views    uint64 `json:"views"`
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection reset by peer")
}
