package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const wavHeaderSize = 44

// wavHeader is the canonical 44-byte RIFF/WAVE header for PCM16 audio.
type wavHeader struct {
	RIFF          [4]byte
	ChunkSize     uint32
	WAVE          [4]byte
	Fmt           [4]byte
	FmtSize       uint32
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Data          [4]byte
	DataSize      uint32
}

// EncodeWAV frames a decoded buffer as a PCM16LE WAV file. A zero sample
// rate or channel count falls back to mono speech at SpeechSampleRate.
func EncodeWAV(b *Buffer) ([]byte, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: nil buffer", ErrUnsupportedAudio)
	}
	rate, channels := b.SampleRate, b.Channels
	if rate <= 0 {
		rate = SpeechSampleRate
	}
	if channels <= 0 {
		channels = 1
	}
	if len(b.PCM)%(2*channels) != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of frames", ErrUnsupportedAudio, len(b.PCM))
	}

	h := wavHeader{
		RIFF:          [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(wavHeaderSize - 8 + len(b.PCM)),
		WAVE:          [4]byte{'W', 'A', 'V', 'E'},
		Fmt:           [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		AudioFormat:   1,
		Channels:      uint16(channels),
		SampleRate:    uint32(rate),
		ByteRate:      uint32(rate * channels * 2),
		BlockAlign:    uint16(channels * 2),
		BitsPerSample: 16,
		Data:          [4]byte{'d', 'a', 't', 'a'},
		DataSize:      uint32(len(b.PCM)),
	}
	var out bytes.Buffer
	out.Grow(wavHeaderSize + len(b.PCM))
	if err := binary.Write(&out, binary.LittleEndian, h); err != nil {
		return nil, err
	}
	out.Write(b.PCM)
	return out.Bytes(), nil
}
