package server

import (
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func requestWithOrigin(origin string) *http.Request {
	r, _ := http.NewRequest(http.MethodGet, "/ws/ping", http.NoBody)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	return r
}

func TestOriginPolicy(t *testing.T) {
	p := newOriginPolicy([]string{"http://localhost:8080", " HTTPS://Example.COM ", "not a url", ""}, zerolog.Nop())

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:8080", true},
		{"https://example.com", true},
		{"https://EXAMPLE.com", true},
		{"http://example.com", false},
		{"http://localhost:9090", false},
		{"null", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.checkOrigin(requestWithOrigin(tt.origin)), "origin %q", tt.origin)
	}
}

func TestOriginPolicyWildcard(t *testing.T) {
	p := newOriginPolicy([]string{"*"}, zerolog.Nop())

	assert.True(t, p.checkOrigin(requestWithOrigin("http://anything.example")))
	assert.True(t, p.checkOrigin(requestWithOrigin("")))
}

func TestNormalizeOrigin(t *testing.T) {
	got, ok := normalizeOrigin("HTTP://LocalHost:8080/path")
	assert.True(t, ok)
	assert.Equal(t, "http://localhost:8080", got)

	_, ok = normalizeOrigin("localhost")
	assert.False(t, ok)
}
