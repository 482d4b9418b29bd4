package relay

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMessage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "plain", input: `{"message":"hi"}`, want: "hi"},
		{name: "empty content", input: `{"message":""}`, want: ""},
		{name: "extra fields ignored", input: `{"message":"hi","user":"mallory"}`, want: "hi"},
		{name: "exactly at limit", input: `{"message":"` + strings.Repeat("a", 128) + `"}`, want: strings.Repeat("a", 128)},
		{name: "multibyte at limit", input: `{"message":"` + strings.Repeat("é", 128) + `"}`, want: strings.Repeat("é", 128)},
		{name: "one over limit", input: `{"message":"` + strings.Repeat("a", 129) + `"}`, wantErr: ErrMessageTooLong},
		{name: "missing field", input: `{"content":"hi"}`, wantErr: ErrMissingMessage},
		{name: "null field", input: `{"message":null}`, wantErr: ErrMissingMessage},
		{name: "field name case must match", input: `{"MESSAGE":"x"}`, wantErr: ErrMissingMessage},
		{name: "capitalized field name", input: `{"Message":"x"}`, wantErr: ErrMissingMessage},
		{name: "exact name wins over case variant", input: `{"Message":"no","message":"yes"}`, want: "yes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeMessage([]byte(tt.input), MaxMessageRunes)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, msg.Content)
		})
	}
}

func TestDecodeMessage_Malformed(t *testing.T) {
	for _, input := range []string{"hi", `{"message":`, `["message"]`, `{"message":42}`} {
		_, err := DecodeMessage([]byte(input), MaxMessageRunes)
		assert.Error(t, err, "input %q", input)
	}
}

func TestDecodeMessage_CustomLimit(t *testing.T) {
	_, err := DecodeMessage([]byte(`{"message":"abcd"}`), 3)
	assert.ErrorIs(t, err, ErrMessageTooLong)

	msg, err := DecodeMessage([]byte(`{"message":"abc"}`), 3)
	require.NoError(t, err)
	assert.Equal(t, "abc", msg.Content)
}

func TestEnvelopeEncode(t *testing.T) {
	env := Message{Content: `say "hi"`}.Seal("alice")

	data, err := env.Encode()
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, map[string]string{"user": "alice", "message": `say "hi"`}, decoded)
}

func TestEnvelopeEncode_NoHTMLEscaping(t *testing.T) {
	data, err := Message{Content: "a<b&c>"}.Seal("alice").Encode()
	require.NoError(t, err)
	assert.Equal(t, `{"user":"alice","message":"a<b&c>"}`, string(data))
}
