// Package speech turns assistant text into a single preemptible utterance.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/ent0n29/aimaster/internal/audio"
	"github.com/ent0n29/aimaster/internal/llm"
)

var ErrEmptyText = errors.New("nothing to speak")

const (
	OutcomePlayed     = "played"
	OutcomeSuperseded = "superseded"
	OutcomeFailed     = "failed"
)

type Config struct {
	Synthesizer  llm.Synthesizer
	NewOutput    func() (Output, error)
	Model        string
	DefaultVoice string
	// Observe reports each Speak outcome with the time spent before playback.
	Observe func(outcome string, elapsed time.Duration)
}

// Controller owns at most one output context and one playing utterance.
type Controller struct {
	cfg Config

	mu       sync.Mutex
	gen      uint64
	output   Output
	playback Playback
	cancel   context.CancelFunc
}

func NewController(cfg Config) *Controller {
	return &Controller{cfg: cfg}
}

// Speak stops whatever is playing, synthesizes text and starts playing it.
// A Speak overtaken by a newer Speak or StopAll returns nil and plays nothing.
func (c *Controller) Speak(ctx context.Context, text, voice string) error {
	started := time.Now()
	text = SpeakableText(text)
	if text == "" {
		return ErrEmptyText
	}
	if voice = strings.TrimSpace(voice); voice == "" {
		voice = c.cfg.DefaultVoice
	}

	c.mu.Lock()
	c.stopLocked()
	c.gen++
	gen := c.gen
	synthCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	payload, err := c.cfg.Synthesizer.Synthesize(synthCtx, llm.SpeechRequest{Model: c.cfg.Model, Text: text, Voice: voice})

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		c.observe(OutcomeSuperseded, started)
		return nil
	}
	c.cancel = nil

	if err != nil {
		return c.failLocked(started, fmt.Errorf("synthesize speech: %w", err))
	}
	if err := audio.CheckPCMMIMEType(payload.MIMEType); err != nil {
		return c.failLocked(started, err)
	}
	buf, err := audio.DecodePCM16Base64(payload.Data, audio.PCMSampleRate(payload.MIMEType), 1)
	if err != nil {
		return c.failLocked(started, err)
	}

	out, err := c.cfg.NewOutput()
	if err != nil {
		return c.failLocked(started, fmt.Errorf("open audio output: %w", err))
	}
	pb, err := out.Play(ctx, buf)
	if err != nil {
		_ = out.Close()
		return c.failLocked(started, fmt.Errorf("start playback: %w", err))
	}
	c.output = out
	c.playback = pb
	go c.awaitEnd(pb)

	c.observe(OutcomePlayed, started)
	return nil
}

// StopAll halts playback and drops any in-flight synthesis. Idle is a no-op.
func (c *Controller) StopAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.stopLocked()
}

// Active reports whether an utterance is currently playing.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playback != nil
}

func (c *Controller) awaitEnd(pb Playback) {
	<-pb.Done()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playback != pb {
		return
	}
	c.playback = nil
	if c.output != nil {
		if err := c.output.Close(); err != nil {
			log.Printf("speech: close output: %v", err)
		}
		c.output = nil
	}
}

func (c *Controller) stopLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.playback != nil {
		_ = c.playback.Stop()
		c.playback = nil
	}
	if c.output != nil {
		_ = c.output.Close()
		c.output = nil
	}
}

func (c *Controller) failLocked(started time.Time, err error) error {
	c.stopLocked()
	c.observe(OutcomeFailed, started)
	return err
}

func (c *Controller) observe(outcome string, started time.Time) {
	if c.cfg.Observe != nil {
		c.cfg.Observe(outcome, time.Since(started))
	}
}
