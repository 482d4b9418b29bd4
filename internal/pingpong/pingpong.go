// Package pingpong implements the per-connection serve/ping/pong gate.
//
// A Machine starts in AwaitingStart and ignores everything until it sees the
// "serve" token. Once Active, every "ping" is answered with "pong". There is
// no way back to AwaitingStart; a new connection gets a new Machine.
package pingpong

// Wire tokens.
const (
	TokenServe = "serve"
	TokenPing  = "ping"
	TokenPong  = "pong"
)

// State is the gate's current phase.
type State int

const (
	AwaitingStart State = iota
	Active
)

func (s State) String() string {
	switch s {
	case AwaitingStart:
		return "awaiting_start"
	case Active:
		return "active"
	default:
		return "unknown"
	}
}

// Machine is not safe for concurrent use; it belongs to a single connection's
// read loop.
type Machine struct {
	state State
}

// New returns a Machine in AwaitingStart.
func New() *Machine {
	return &Machine{state: AwaitingStart}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Handle feeds one inbound text frame to the machine. When ok is true, reply
// must be sent back to the peer.
func (m *Machine) Handle(text string) (reply string, ok bool) {
	switch m.state {
	case AwaitingStart:
		if text == TokenServe {
			m.state = Active
		}
	case Active:
		if text == TokenPing {
			return TokenPong, true
		}
	}
	return "", false
}
