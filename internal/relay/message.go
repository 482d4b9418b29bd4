package relay

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// MaxMessageRunes is the longest message content, in Unicode scalar values,
// that the relay accepts.
const MaxMessageRunes = 128

var (
	// ErrMissingMessage is returned when the inbound JSON has no "message" field.
	ErrMissingMessage = errors.New("relay: message field is required")
	// ErrMessageTooLong is returned when the content exceeds the rune limit.
	ErrMessageTooLong = errors.New("relay: message exceeds length limit")
)

// Message is the inbound frame a client sends to its room.
type Message struct {
	Content string `json:"message"`
}

// Envelope is the outbound frame delivered to every subscriber of a room.
type Envelope struct {
	User    string `json:"user"`
	Message string `json:"message"`
}

// DecodeMessage parses an inbound text frame and enforces the length limit.
// The field name must match exactly; encoding/json alone would also accept
// "Message" or "MESSAGE". A non-positive maxRunes falls back to
// MaxMessageRunes.
func DecodeMessage(data []byte, maxRunes int) (Message, error) {
	if maxRunes <= 0 {
		maxRunes = MaxMessageRunes
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	raw, ok := fields["message"]
	if !ok || bytes.Equal(raw, []byte("null")) {
		return Message{}, ErrMissingMessage
	}

	var content string
	if err := json.Unmarshal(raw, &content); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	if utf8.RuneCountInString(content) > maxRunes {
		return Message{}, ErrMessageTooLong
	}
	return Message{Content: content}, nil
}

// Seal wraps the message into an envelope attributed to user.
func (m Message) Seal(user string) Envelope {
	return Envelope{User: user, Message: m.Content}
}

// Encode serializes the envelope for the wire. Content is written without
// HTML escaping so it goes out as the sender wrote it.
func (e Envelope) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(e); err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
