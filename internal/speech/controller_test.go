package speech

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ent0n29/aimaster/internal/audio"
	"github.com/ent0n29/aimaster/internal/llm"
)

type fakeSynth struct {
	gate    chan struct{}
	mime    string
	pcm     []byte
	err     error
	calls   atomic.Int32
	entered chan struct{}
}

func (f *fakeSynth) Synthesize(ctx context.Context, req llm.SpeechRequest) (llm.AudioPayload, error) {
	f.calls.Add(1)
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return llm.AudioPayload{}, ctx.Err()
		}
	}
	if f.err != nil {
		return llm.AudioPayload{}, f.err
	}
	return llm.AudioPayload{MIMEType: f.mime, Data: base64.StdEncoding.EncodeToString(f.pcm)}, nil
}

type recordingSink struct {
	mu      sync.Mutex
	playing map[string]bool
	maxLive int
	sent    []*audio.Buffer
	stopped []string
}

func newRecordingSink() *recordingSink {
	return &recordingSink{playing: make(map[string]bool)}
}

func (s *recordingSink) SendAudio(_ context.Context, id string, buf *audio.Buffer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing[id] = true
	if len(s.playing) > s.maxLive {
		s.maxLive = len(s.playing)
	}
	s.sent = append(s.sent, buf)
	return nil
}

func (s *recordingSink) StopAudio(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.playing, id)
	s.stopped = append(s.stopped, id)
	return nil
}

func (s *recordingSink) snapshot() (live, maxLive, sent, stopped int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.playing), s.maxLive, len(s.sent), len(s.stopped)
}

// one second of silence at 24 kHz
var secondOfPCM = make([]byte, 2*audio.SpeechSampleRate)

func newTestController(synth llm.Synthesizer, sink Sink) *Controller {
	return NewController(Config{
		Synthesizer: synth,
		NewOutput:   func() (Output, error) { return NewClockedOutput(sink), nil },
	})
}

func TestSpeakPlaysDecodedAudio(t *testing.T) {
	sink := newRecordingSink()
	var outcomes []string
	c := NewController(Config{
		Synthesizer: &fakeSynth{mime: "audio/L16;codec=pcm;rate=24000", pcm: secondOfPCM},
		NewOutput:   func() (Output, error) { return NewClockedOutput(sink), nil },
		Observe:     func(o string, _ time.Duration) { outcomes = append(outcomes, o) },
	})
	if err := c.Speak(context.Background(), "hello", "Kore"); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if !c.Active() {
		t.Fatalf("Active() = false after Speak")
	}
	sink.mu.Lock()
	buf := sink.sent[0]
	sink.mu.Unlock()
	if buf.SampleRate != 24000 || buf.Duration() != time.Second {
		t.Fatalf("buffer = %d Hz, %v", buf.SampleRate, buf.Duration())
	}
	if len(outcomes) != 1 || outcomes[0] != OutcomePlayed {
		t.Fatalf("outcomes = %v", outcomes)
	}
	c.StopAll()
	if c.Active() {
		t.Fatalf("Active() = true after StopAll")
	}
}

func TestSpeakPreemptsPreviousUtterance(t *testing.T) {
	sink := newRecordingSink()
	c := newTestController(&fakeSynth{pcm: secondOfPCM}, sink)
	for i := 0; i < 3; i++ {
		if err := c.Speak(context.Background(), "message", ""); err != nil {
			t.Fatalf("Speak() error = %v", err)
		}
	}
	live, maxLive, sent, stopped := sink.snapshot()
	if live != 1 || maxLive != 1 {
		t.Fatalf("live = %d, max live = %d, want 1/1", live, maxLive)
	}
	if sent != 3 || stopped != 2 {
		t.Fatalf("sent = %d, stopped = %d, want 3/2", sent, stopped)
	}
	c.StopAll()
}

func TestConcurrentSpeakKeepsOneUtterance(t *testing.T) {
	sink := newRecordingSink()
	c := newTestController(&fakeSynth{pcm: secondOfPCM}, sink)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Speak(context.Background(), "overlap", "")
		}()
	}
	wg.Wait()

	if _, maxLive, _, _ := sink.snapshot(); maxLive != 1 {
		t.Fatalf("max simultaneous utterances = %d, want 1", maxLive)
	}
	c.StopAll()
	if live, _, _, _ := sink.snapshot(); live != 0 {
		t.Fatalf("live after StopAll = %d, want 0", live)
	}
}

func TestSupersededSpeakPlaysNothing(t *testing.T) {
	sink := newRecordingSink()
	synth := &fakeSynth{pcm: secondOfPCM, gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	c := newTestController(synth, sink)

	errCh := make(chan error, 1)
	go func() { errCh <- c.Speak(context.Background(), "slow", "") }()
	<-synth.entered
	c.StopAll()

	if err := <-errCh; err != nil {
		t.Fatalf("superseded Speak() error = %v, want nil", err)
	}
	if _, _, sent, _ := sink.snapshot(); sent != 0 {
		t.Fatalf("superseded speech reached the sink")
	}
	if c.Active() {
		t.Fatalf("Active() = true after superseded Speak")
	}
}

func TestPlaybackCompletionClearsHandle(t *testing.T) {
	sink := newRecordingSink()
	c := newTestController(&fakeSynth{pcm: make([]byte, 2*240)}, sink) // 10ms
	if err := c.Speak(context.Background(), "short", ""); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for c.Active() {
		if time.Now().After(deadline) {
			t.Fatalf("playback never completed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if _, _, _, stopped := sink.snapshot(); stopped != 0 {
		t.Fatalf("natural completion should not send a stop; stops = %d", stopped)
	}
}

func TestSpeakFailures(t *testing.T) {
	cases := []struct {
		name  string
		synth *fakeSynth
		out   func() (Output, error)
		want  error
	}{
		{"synth_error", &fakeSynth{err: errors.New("boom")}, nil, nil},
		{"non_pcm", &fakeSynth{mime: "audio/mpeg", pcm: secondOfPCM}, nil, audio.ErrUnsupportedAudio},
		{"odd_bytes", &fakeSynth{pcm: []byte{1, 2, 3}}, nil, audio.ErrUnsupportedAudio},
		{"output_error", &fakeSynth{pcm: secondOfPCM}, func() (Output, error) { return nil, errors.New("no device") }, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sink := newRecordingSink()
			c := newTestController(&fakeSynth{pcm: secondOfPCM}, sink)
			if err := c.Speak(context.Background(), "first", ""); err != nil {
				t.Fatalf("Speak() error = %v", err)
			}

			c.cfg.Synthesizer = tc.synth
			if tc.out != nil {
				c.cfg.NewOutput = tc.out
			}
			err := c.Speak(context.Background(), "second", "")
			if err == nil {
				t.Fatalf("expected error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
			if c.Active() {
				t.Fatalf("Active() = true after failed Speak")
			}
			if live, _, _, _ := sink.snapshot(); live != 0 {
				t.Fatalf("previous utterance still live after failure")
			}
		})
	}
}

func TestSpeakRejectsEmptyText(t *testing.T) {
	synth := &fakeSynth{pcm: secondOfPCM}
	c := newTestController(synth, newRecordingSink())
	for _, text := range []string{"  ", "*** | 🎉"} {
		if err := c.Speak(context.Background(), text, ""); !errors.Is(err, ErrEmptyText) {
			t.Fatalf("Speak(%q) error = %v, want ErrEmptyText", text, err)
		}
	}
	if synth.calls.Load() != 0 {
		t.Fatalf("synthesizer called for empty text")
	}
}

func TestStopAllWhenIdle(t *testing.T) {
	c := newTestController(&fakeSynth{}, newRecordingSink())
	c.StopAll()
	c.StopAll()
	if c.Active() {
		t.Fatalf("Active() = true")
	}
}
