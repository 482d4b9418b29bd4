// Package relay holds the shared state of the room relay: the registry that
// maps room ids to broadcast channels, the process-wide delivery counter, and
// the JSON wire types exchanged with clients.
package relay
