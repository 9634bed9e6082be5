package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ent0n29/aimaster/internal/catalog"
)

func TestRegistryKeepsOneManagerPerLearner(t *testing.T) {
	r := NewRegistry(Config{Backend: &stubBackend{}}, time.Minute)
	a := r.Manager("u1")
	if r.Manager("u1") != a {
		t.Fatalf("Manager() returned a different manager for the same learner")
	}
	if r.Manager("u2") == a {
		t.Fatalf("learners share a manager")
	}

	got := r.Context("u1")
	if got.TeacherID != catalog.DefaultTeacherID || got.Language != catalog.LanguageEnglish {
		t.Fatalf("default context = %+v", got)
	}
	updated := r.Update("u1", func(c *LearnerContext) { c.CourseID = "ai-chef" })
	if updated.CourseID != "ai-chef" || r.Context("u1").CourseID != "ai-chef" {
		t.Fatalf("Update() not applied: %+v", updated)
	}
}

func TestRegistryJanitorClearsIdleSessions(t *testing.T) {
	r := NewRegistry(Config{Backend: &stubBackend{}}, 30*time.Millisecond)
	var expired atomic.Int32
	r.SetExpireHook(func(string) { expired.Add(1) })

	m := r.Manager("u1")
	m.Resume(testSpec(t, catalog.LanguageEnglish), nil)
	r.Update("u1", func(c *LearnerContext) { c.CourseID = "free-ai-tools" })
	if r.ActiveCount() != 1 {
		t.Fatalf("ActiveCount() = %d, want 1", r.ActiveCount())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.StartJanitor(ctx, 10*time.Millisecond)

	time.Sleep(90 * time.Millisecond)
	if m.State() != StateCleared {
		t.Fatalf("State() = %q, want cleared", m.State())
	}
	if expired.Load() != 1 {
		t.Fatalf("expire hook calls = %d, want 1", expired.Load())
	}
	if r.Context("u1").CourseID != "free-ai-tools" {
		t.Fatalf("learner context lost on expiry")
	}
}

func TestRegistryRestoreKeepsLoadedContext(t *testing.T) {
	r := NewRegistry(Config{Backend: &stubBackend{}}, time.Minute)
	if _, ok := r.Loaded("u1"); ok {
		t.Fatalf("Loaded() = true for an unseen learner")
	}
	r.Manager("u1")
	if _, ok := r.Loaded("u1"); ok {
		t.Fatalf("Loaded() = true before Restore")
	}

	restored := r.Restore("u1", LearnerContext{CourseID: "ai-chef", TeacherID: "ai-teacher", Language: catalog.LanguageMalayalam})
	if restored.CourseID != "ai-chef" || restored.Language != catalog.LanguageMalayalam {
		t.Fatalf("Restore() = %+v", restored)
	}
	again := r.Restore("u1", DefaultContext())
	if again != restored {
		t.Fatalf("second Restore() = %+v, want %+v", again, restored)
	}
	if got, ok := r.Loaded("u1"); !ok || got != restored {
		t.Fatalf("Loaded() = %+v, %v", got, ok)
	}
}

func TestRegistryForgetsLongIdleLearners(t *testing.T) {
	r := NewRegistry(Config{Backend: &stubBackend{}}, time.Minute)
	m := r.Manager("idle")
	m.Resume(testSpec(t, catalog.LanguageEnglish), nil)
	r.Update("idle", func(c *LearnerContext) { c.CourseID = "ai-chef" })
	r.Manager("recent")

	r.expireInactive(time.Now().UTC().Add(2 * time.Minute))
	if m.State() != StateCleared {
		t.Fatalf("State() = %q, want cleared", m.State())
	}
	if _, ok := r.Loaded("idle"); !ok {
		t.Fatalf("learner forgotten after a single inactivity timeout")
	}

	r.expireInactive(time.Now().UTC().Add(forgetFactor*time.Minute + time.Second))
	r.mu.RLock()
	left := len(r.learners)
	r.mu.RUnlock()
	if left != 0 {
		t.Fatalf("learners left = %d, want 0", left)
	}
	if r.Manager("idle") == m {
		t.Fatalf("Manager() returned the forgotten manager")
	}
}
