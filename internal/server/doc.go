// Package server implements the HTTP and WebSocket surface of the room relay.
//
// The implementation is organized into specialized files for the service
// object, routing, HTTP handlers, relay and ping-pong sessions, origin checks
// and rate limiting. All shared state hangs off a *Server created once at
// startup; nothing is kept in package-level variables.
package server
