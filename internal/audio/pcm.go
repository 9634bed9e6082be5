package audio

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"mime"
	"strconv"
	"strings"
	"time"
)

const (
	// SpeechSampleRate is the rate of synthesized speech payloads.
	SpeechSampleRate = 24000
	pcmScale         = 32768.0
)

var ErrUnsupportedAudio = errors.New("unsupported audio encoding")

// Buffer is decoded mono-or-interleaved audio ready for playback.
type Buffer struct {
	SampleRate int
	Channels   int
	// Samples holds interleaved frames normalized to [-1, 1).
	Samples []float32
	// PCM keeps the source bytes so sinks can re-frame without re-quantizing.
	PCM []byte
}

// Frames returns the number of sample frames.
func (b *Buffer) Frames() int {
	if b == nil || b.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Duration is the playback length at the buffer's sample rate.
func (b *Buffer) Duration() time.Duration {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// DecodePCM16Base64 decodes a base64 payload of 16-bit little-endian PCM.
func DecodePCM16Base64(data string, sampleRate, channels int) (*Buffer, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(data))
	if err != nil {
		return nil, fmt.Errorf("decode base64 audio: %w", err)
	}
	return DecodePCM16(raw, sampleRate, channels)
}

// DecodePCM16 reinterprets raw bytes as signed 16-bit samples and normalizes them.
func DecodePCM16(raw []byte, sampleRate, channels int) (*Buffer, error) {
	if channels <= 0 {
		channels = 1
	}
	if sampleRate <= 0 {
		sampleRate = SpeechSampleRate
	}
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("%w: odd pcm16 byte count %d", ErrUnsupportedAudio, len(raw))
	}

	samples := make([]float32, len(raw)/2)
	for i := range samples {
		s := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		samples[i] = float32(float64(s) / pcmScale)
	}
	frames := len(samples) / channels
	return &Buffer{
		SampleRate: sampleRate,
		Channels:   channels,
		Samples:    samples[:frames*channels],
		PCM:        raw[:frames*channels*2],
	}, nil
}

// CheckPCMMIMEType accepts the raw PCM types the speech endpoint returns.
// An empty type is treated as the documented default.
func CheckPCMMIMEType(mimeType string) error {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if mt == "" {
		return nil
	}
	if strings.HasPrefix(mt, "audio/l16") || strings.HasPrefix(mt, "audio/pcm") {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedAudio, mimeType)
}

// PCMSampleRate reads the rate parameter of a raw PCM MIME type, falling back to SpeechSampleRate.
func PCMSampleRate(mimeType string) int {
	_, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return SpeechSampleRate
	}
	rate, err := strconv.Atoi(params["rate"])
	if err != nil || rate <= 0 {
		return SpeechSampleRate
	}
	return rate
}
