package ui

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sony/gobreaker"

	"github.com/five82/shiki/internal/jikan"
)

func TestClassifyAPIError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&jikan.StatusError{Status: 429, Path: "/seasons/now"}, "RATE LIMITED"},
		{fmt.Errorf("fetch: %w", &jikan.StatusError{Status: 404}), "NOT FOUND"},
		{&jikan.StatusError{Status: 503}, "HTTP 503"},
		{gobreaker.ErrOpenState, "PAUSED"},
		{jikan.ErrNoData, "NO DATA"},
		{fmt.Errorf("get: %w", context.DeadlineExceeded), "TIMEOUT"},
		{errors.New("dial tcp 127.0.0.1:443: connect: connection refused"), "OFFLINE"},
		{errors.New("dial tcp: lookup api.jikan.moe: no such host"), "HOST NOT FOUND"},
		{errors.New("boom"), "ERROR"},
	}
	for _, tt := range tests {
		if got := classifyAPIError(tt.err); got != tt.want {
			t.Fatalf("classifyAPIError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestUserMessage(t *testing.T) {
	if got := userMessage(context.Canceled); got != "Cancelled" {
		t.Fatalf("userMessage(Canceled) = %q", got)
	}
	if got := userMessage(&jikan.StatusError{Status: 429}); got[:12] != "RATE LIMITED" {
		t.Fatalf("userMessage(429) = %q", got)
	}
}
