package session

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ent0n29/aimaster/internal/conversation"
	"github.com/ent0n29/aimaster/internal/llm"
	"github.com/ent0n29/aimaster/internal/policy"
	"github.com/ent0n29/aimaster/internal/protocol"
	"github.com/ent0n29/aimaster/internal/reliability"
)

type State string

const (
	StateUninitialized State = "uninitialized"
	StateActive        State = "active"
	StateReplaced      State = "replaced"
	StateCleared       State = "cleared"
)

const DefaultTemperature = 0.7

// Session is the logical conversation handle: a fixed instruction plus the
// exchanges completed so far.
type Session struct {
	ID          string
	Spec        Spec
	Instruction string
	StartedAt   time.Time
	history     []llm.Content
}

// Config wires a Manager to its collaborators.
type Config struct {
	Backend     llm.Backend
	Codec       protocol.Codec
	Retry       reliability.Policy
	Model       string
	Temperature float64
	// OnFailure observes errors that survived the retry policy.
	OnFailure func(reliability.FailureKind, error)
}

// ResumeResult reports how a resume went. Callers may ignore it.
type ResumeResult struct {
	Seeded  int
	Skipped int
	Err     error
}

// Manager owns exactly one Session at a time.
type Manager struct {
	cfg Config

	mu           sync.RWMutex
	state        State
	current      *Session
	lastActivity time.Time
}

func NewManager(cfg Config) *Manager {
	if cfg.Codec == nil {
		cfg.Codec = protocol.NewDelimitedCodec()
	}
	if cfg.Backend == nil {
		cfg.Backend = llm.NewMockBackend()
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.Retry.OnRetry == nil {
		cfg.Retry.OnRetry = func(remaining int, err error) {
			log.Printf("session: quota hit, retrying (%d retries left): %s", remaining, policy.RedactError(err))
		}
	}
	return &Manager{cfg: cfg, state: StateUninitialized, lastActivity: time.Now().UTC()}
}

// Create replaces any current session, then asks the persona to open the class.
// Backend failures come back as a synthetic reply, never as an error.
func (m *Manager) Create(ctx context.Context, spec Spec) protocol.Reply {
	s := m.open(spec, nil)

	steer := steeringMessage(spec)
	reply, raw, err := m.exchange(ctx, s, steer)
	if err != nil {
		return m.fail(err)
	}
	m.appendExchange(s, steer, raw)
	return reply
}

// Resume replaces any current session with one seeded from history. It makes no
// backend call. On failure the session still becomes active with an empty context.
func (m *Manager) Resume(spec Spec, history []conversation.Turn) ResumeResult {
	var res ResumeResult
	if err := spec.validate(); err != nil {
		res.Err = err
		res.Skipped = len(history)
		m.open(spec, nil)
		log.Printf("session: resume failed, continuing with empty context: %s", policy.RedactError(err))
		return res
	}

	seeded := make([]llm.Content, 0, len(history))
	for _, t := range history {
		if strings.TrimSpace(t.Text) == "" {
			res.Skipped++
			continue
		}
		role := llm.RoleUser
		if t.Author == conversation.AuthorAssistant {
			role = llm.RoleAssistant
		}
		seeded = append(seeded, llm.Content{Role: role, Text: t.Text})
	}
	res.Seeded = len(seeded)
	m.open(spec, seeded)
	return res
}

// Send submits one learner message in the active session.
func (m *Manager) Send(ctx context.Context, text string) (protocol.Reply, error) {
	m.mu.RLock()
	s := m.current
	active := m.state == StateActive
	m.mu.RUnlock()
	if !active || s == nil {
		return protocol.Reply{}, ErrNoActiveSession
	}

	reply, raw, err := m.exchange(ctx, s, text)
	if err != nil {
		return m.fail(err), nil
	}
	m.appendExchange(s, text, raw)
	return reply, nil
}

// Clear discards the current session.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.state = StateCleared
	}
	m.current = nil
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Current returns a copy of the active session, or nil.
func (m *Manager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	return clone(m.current)
}

func (m *Manager) LastActivity() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastActivity
}

// History returns the context the next Send will carry.
func (s *Session) History() []llm.Content {
	return append([]llm.Content(nil), s.history...)
}

func (m *Manager) open(spec Spec, seeded []llm.Content) *Session {
	s := &Session{
		ID:          uuid.NewString(),
		Spec:        spec,
		Instruction: ComposeInstruction(spec),
		StartedAt:   time.Now().UTC(),
		history:     seeded,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		// previous handle is simply dropped
		m.state = StateReplaced
	}
	m.current = s
	m.state = StateActive
	m.lastActivity = s.StartedAt
	return s
}

func (m *Manager) exchange(ctx context.Context, s *Session, message string) (protocol.Reply, string, error) {
	m.mu.Lock()
	req := llm.TextRequest{
		Model:             m.cfg.Model,
		SystemInstruction: s.Instruction,
		History:           append([]llm.Content(nil), s.history...),
		Message:           message,
		Temperature:       m.cfg.Temperature,
	}
	m.lastActivity = time.Now().UTC()
	m.mu.Unlock()

	raw, err := reliability.Retry(ctx, m.cfg.Retry, func(ctx context.Context) (string, error) {
		return m.cfg.Backend.Generate(ctx, req)
	})
	if err != nil {
		return protocol.Reply{}, "", err
	}
	return m.cfg.Codec.Parse(raw), raw, nil
}

// appendExchange records a completed exchange unless s was replaced meanwhile.
func (m *Manager) appendExchange(s *Session, message, raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != s {
		return
	}
	s.history = append(s.history,
		llm.Content{Role: llm.RoleUser, Text: message},
		llm.Content{Role: llm.RoleAssistant, Text: raw},
	)
	m.lastActivity = time.Now().UTC()
}

func (m *Manager) fail(err error) protocol.Reply {
	kind := reliability.Classify(err)
	log.Printf("session: backend call failed (%s): %s", kind, policy.RedactError(err))
	if m.cfg.OnFailure != nil {
		m.cfg.OnFailure(kind, err)
	}
	return FailureReply(err)
}

func clone(s *Session) *Session {
	c := *s
	c.history = append([]llm.Content(nil), s.history...)
	return &c
}
