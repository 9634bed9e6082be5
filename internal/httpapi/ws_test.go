package httpapi

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ent0n29/aimaster/internal/gemini"
	"github.com/ent0n29/aimaster/internal/protocol"
)

func TestSendErrorRetryableFollowsUpstreamStatus(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		fallback bool
		want     bool
	}{
		{name: "unavailable", err: fmt.Errorf("synthesize: %w", &gemini.APIError{Code: 503}), want: true},
		{name: "rate limited", err: &gemini.APIError{Code: 429, State: "RESOURCE_EXHAUSTED"}, want: true},
		{name: "bad request", err: &gemini.APIError{Code: 400}, fallback: true, want: false},
		{name: "local failure", err: errors.New("decode audio"), fallback: true, want: true},
		{name: "invalid input", err: errors.New("unknown type"), want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wc := &wsConn{ctx: context.Background(), out: make(chan any, 1)}
			wc.sendError("speech_failed", "speech", tc.fallback, tc.err)
			ev, ok := (<-wc.out).(protocol.ErrorEvent)
			if !ok {
				t.Fatalf("queued message is not an error event")
			}
			if ev.Retryable != tc.want {
				t.Fatalf("Retryable = %v, want %v", ev.Retryable, tc.want)
			}
		})
	}
}

func TestOfferChatRejectsWhenBacklogFull(t *testing.T) {
	chats := make(chan protocol.ChatMessage, 2)
	msg := protocol.ChatMessage{Type: protocol.TypeChatMessage, Text: "hi"}
	for i := 0; i < 2; i++ {
		if !offerChat(chats, msg) {
			t.Fatalf("offerChat() #%d = false, want true", i+1)
		}
	}
	if offerChat(chats, msg) {
		t.Fatalf("offerChat() on full backlog = true, want false")
	}
	<-chats
	if !offerChat(chats, msg) {
		t.Fatalf("offerChat() after drain = false, want true")
	}
}
