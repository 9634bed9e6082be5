package session

import (
	"context"
	"sync"
	"time"

	"github.com/ent0n29/aimaster/internal/catalog"
)

// LearnerContext is what the learner currently has selected.
type LearnerContext struct {
	CourseID  string
	TeacherID string
	Language  catalog.Language
}

// forgetFactor scales the inactivity timeout into the idle time after which a
// learner's entry is removed altogether.
const forgetFactor = 10

type entry struct {
	manager *Manager
	ctx     LearnerContext
	// loaded is set once ctx holds the learner's real selection.
	loaded bool
	seen   time.Time
}

// Registry keeps one Manager per learner and clears idle sessions.
type Registry struct {
	cfg               Config
	inactivityTimeout time.Duration
	forgetAfter       time.Duration

	mu       sync.RWMutex
	learners map[string]*entry
	onExpire func(learnerID string)
}

func NewRegistry(cfg Config, inactivityTimeout time.Duration) *Registry {
	if inactivityTimeout <= 0 {
		inactivityTimeout = 30 * time.Minute
	}
	return &Registry{
		cfg:               cfg,
		inactivityTimeout: inactivityTimeout,
		forgetAfter:       forgetFactor * inactivityTimeout,
		learners:          make(map[string]*entry),
	}
}

func (r *Registry) SetExpireHook(hook func(learnerID string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onExpire = hook
}

// Manager returns the learner's manager, creating it on first use.
func (r *Registry) Manager(learnerID string) *Manager {
	return r.entry(learnerID).manager
}

func (r *Registry) Context(learnerID string) LearnerContext {
	e := r.entry(learnerID)
	r.mu.RLock()
	defer r.mu.RUnlock()
	return e.ctx
}

// Loaded returns the learner context if it was restored or updated since the
// learner was last seen by this registry.
func (r *Registry) Loaded(learnerID string) (LearnerContext, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.learners[learnerID]
	if !ok || !e.loaded {
		return LearnerContext{}, false
	}
	return e.ctx, true
}

// Restore installs a persisted context unless one is already loaded, and
// returns whichever context is now current.
func (r *Registry) Restore(learnerID string, lc LearnerContext) LearnerContext {
	e := r.entry(learnerID)
	r.mu.Lock()
	defer r.mu.Unlock()
	if !e.loaded {
		e.ctx = lc
		e.loaded = true
	}
	return e.ctx
}

// Update mutates the learner context under the registry lock and returns the result.
func (r *Registry) Update(learnerID string, fn func(*LearnerContext)) LearnerContext {
	e := r.entry(learnerID)
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&e.ctx)
	e.loaded = true
	return e.ctx
}

func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, e := range r.learners {
		if e.manager.State() == StateActive {
			count++
		}
	}
	return count
}

func (r *Registry) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.expireInactive(time.Now().UTC())
			}
		}
	}()
}

func (r *Registry) entry(learnerID string) *entry {
	now := time.Now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.learners[learnerID]
	if !ok {
		e = &entry{
			manager: NewManager(r.cfg),
			ctx:     DefaultContext(),
		}
		r.learners[learnerID] = e
	}
	e.seen = now
	return e
}

// DefaultContext is the selection of a learner who has not chosen anything.
func DefaultContext() LearnerContext {
	return LearnerContext{TeacherID: catalog.DefaultTeacherID, Language: catalog.LanguageEnglish}
}

// expireInactive clears sessions idle past the inactivity timeout and drops
// learners idle past forgetAfter. Their selection is persisted by the caller
// and is reloaded through Restore.
func (r *Registry) expireInactive(now time.Time) {
	var (
		expired   []string
		stale     []*Manager
		forgotten []string
	)

	r.mu.RLock()
	for id, e := range r.learners {
		last := e.seen
		if a := e.manager.LastActivity(); a.After(last) {
			last = a
		}
		idle := now.Sub(last)
		if e.manager.State() == StateActive && idle >= r.inactivityTimeout {
			expired = append(expired, id)
			stale = append(stale, e.manager)
		}
		if idle >= r.forgetAfter {
			forgotten = append(forgotten, id)
		}
	}
	hook := r.onExpire
	r.mu.RUnlock()

	for _, m := range stale {
		m.Clear()
	}
	for _, id := range forgotten {
		r.forgetIfIdle(id, now)
	}
	if hook != nil {
		for _, id := range expired {
			hook(id)
		}
	}
}

// forgetIfIdle drops the learner unless it was seen again after the scan.
func (r *Registry) forgetIfIdle(learnerID string, now time.Time) {
	r.mu.Lock()
	e, ok := r.learners[learnerID]
	if !ok || now.Sub(e.seen) < r.forgetAfter {
		r.mu.Unlock()
		return
	}
	delete(r.learners, learnerID)
	r.mu.Unlock()
	e.manager.Clear()
}
