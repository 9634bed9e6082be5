package speech

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ent0n29/aimaster/internal/audio"
)

// Playback is one started utterance.
type Playback interface {
	ID() string
	// Done closes when playback finishes or is stopped.
	Done() <-chan struct{}
	Stop() error
}

// Output is a fresh audio output context. Close releases it.
type Output interface {
	Play(ctx context.Context, buf *audio.Buffer) (Playback, error)
	Close() error
}

// Sink receives audio that a remote client plays.
type Sink interface {
	SendAudio(ctx context.Context, playbackID string, buf *audio.Buffer) error
	StopAudio(playbackID string) error
}

// ClockedOutput hands the whole buffer to a Sink and reports completion after
// the buffer's duration has elapsed.
type ClockedOutput struct {
	sink Sink

	mu     sync.Mutex
	active *clockedPlayback
}

func NewClockedOutput(sink Sink) *ClockedOutput {
	return &ClockedOutput{sink: sink}
}

func (o *ClockedOutput) Play(ctx context.Context, buf *audio.Buffer) (Playback, error) {
	p := &clockedPlayback{id: uuid.NewString(), sink: o.sink, done: make(chan struct{})}
	if err := o.sink.SendAudio(ctx, p.id, buf); err != nil {
		return nil, err
	}
	p.timer = time.AfterFunc(buf.Duration(), p.finish)

	o.mu.Lock()
	o.active = p
	o.mu.Unlock()
	return p, nil
}

func (o *ClockedOutput) Close() error {
	o.mu.Lock()
	p := o.active
	o.active = nil
	o.mu.Unlock()
	if p == nil {
		return nil
	}
	return p.Stop()
}

type clockedPlayback struct {
	id    string
	sink  Sink
	timer *time.Timer
	once  sync.Once
	done  chan struct{}
}

func (p *clockedPlayback) ID() string            { return p.id }
func (p *clockedPlayback) Done() <-chan struct{} { return p.done }

func (p *clockedPlayback) finish() {
	p.once.Do(func() { close(p.done) })
}

// Stop tells the sink to cut the utterance unless it already finished.
func (p *clockedPlayback) Stop() error {
	stopped := false
	p.once.Do(func() {
		stopped = true
		p.timer.Stop()
		close(p.done)
	})
	if !stopped {
		return nil
	}
	return p.sink.StopAudio(p.id)
}
