package llm

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// MockBackend provides deterministic local replies when no API key is configured.
type MockBackend struct{}

func NewMockBackend() *MockBackend { return &MockBackend{} }

func (b *MockBackend) Generate(ctx context.Context, req TextRequest) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	return buildMockReply(req), nil
}

func buildMockReply(req TextRequest) string {
	base := strings.TrimSpace(req.Message)
	if base == "" {
		base = "Let's begin."
	}

	var answer string
	if len(req.History) == 0 {
		answer = "Welcome to class. What would you like to learn today?"
	} else {
		answer = fmt.Sprintf("You said: %s", base)
		last := strings.TrimSpace(req.History[len(req.History)-1].Text)
		if last != "" {
			answer += "\nEarlier I said: " + last
		}
	}
	return answer + "\n***\nShow me Examples | Give me a prompt | How do I start?"
}

const (
	mockSampleRate   = 24000
	mockToneHz       = 440
	mockMsPerRune    = 40
	mockMaxPCMMillis = 4000
)

// Synthesize returns a short tone sized to the text, encoded like the real endpoint.
func (b *MockBackend) Synthesize(ctx context.Context, req SpeechRequest) (AudioPayload, error) {
	select {
	case <-ctx.Done():
		return AudioPayload{}, ctx.Err()
	default:
	}
	if strings.TrimSpace(req.Text) == "" {
		return AudioPayload{}, fmt.Errorf("text is required")
	}

	ms := utf8.RuneCountInString(req.Text) * mockMsPerRune
	if ms > mockMaxPCMMillis {
		ms = mockMaxPCMMillis
	}
	samples := mockSampleRate * ms / 1000
	pcm := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		v := 0.2 * math.Sin(2*math.Pi*mockToneHz*float64(i)/mockSampleRate)
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(v*math.MaxInt16)))
	}
	return AudioPayload{
		MIMEType: "audio/L16;codec=pcm;rate=24000",
		Data:     base64.StdEncoding.EncodeToString(pcm),
	}, nil
}
