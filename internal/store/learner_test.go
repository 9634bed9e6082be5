package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ent0n29/aimaster/internal/catalog"
	"github.com/ent0n29/aimaster/internal/conversation"
)

func newTestLearners() *Learners {
	return NewLearners(NewInMemoryStore(), catalog.Default().Teachers())
}

func TestNewProfile(t *testing.T) {
	p := NewProfile("Asha", "999")
	if !strings.HasPrefix(p.ID, "user_") || len(p.ID) != len("user_")+36 {
		t.Fatalf("ID = %q, want user_<uuid>", p.ID)
	}
	if other := NewProfile("Asha", "999"); other.ID == p.ID {
		t.Fatalf("NewProfile() reused id %q", p.ID)
	}
	if p.Level != 1 || p.TotalXP != 0 || p.Bio == "" {
		t.Fatalf("profile = %+v", p)
	}
}

func TestLevelForXP(t *testing.T) {
	cases := map[int]int{0: 1, 99: 1, 100: 2, 250: 3}
	for xp, want := range cases {
		if got := LevelForXP(xp); got != want {
			t.Fatalf("LevelForXP(%d) = %d, want %d", xp, got, want)
		}
	}
	if got := (Progress{"a": 40, "b": 65}).XP(); got != 105 {
		t.Fatalf("XP() = %d, want 105", got)
	}
}

func TestTeachersFallBackToDefaults(t *testing.T) {
	ctx := context.Background()
	l := newTestLearners()

	ts, err := l.Teachers(ctx, "u1")
	if err != nil || len(ts) != 2 || ts[0].ID != "ai-master" {
		t.Fatalf("Teachers() = %+v, %v", ts, err)
	}

	custom := l.Defaults()
	custom[0].Name = "Guru"
	if err := l.SaveTeachers(ctx, "u1", custom); err != nil {
		t.Fatalf("SaveTeachers() error = %v", err)
	}
	if ts, _ := l.Teachers(ctx, "u1"); ts[0].Name != "Guru" {
		t.Fatalf("custom teacher not returned: %+v", ts[0])
	}

	if err := l.SaveTeachers(ctx, "u1", []catalog.Teacher{{ID: "stranger"}}); err != nil {
		t.Fatalf("SaveTeachers() error = %v", err)
	}
	if ts, _ := l.Teachers(ctx, "u1"); ts[0].ID != "ai-master" {
		t.Fatalf("unknown teacher list should reset to defaults, got %q", ts[0].ID)
	}

	if err := l.ResetTeachers(ctx, "u1"); err != nil {
		t.Fatalf("ResetTeachers() error = %v", err)
	}
}

func TestHistoryAndBookmarks(t *testing.T) {
	ctx := context.Background()
	l := newTestLearners()
	now := time.Now()
	user := conversation.NewUserTurn("hi", now)
	ai := conversation.NewAssistantTurn("hello", []string{"Next"}, now)

	if err := l.AppendTurns(ctx, "u1", "ai-chef", user, ai); err != nil {
		t.Fatalf("AppendTurns() error = %v", err)
	}
	turns, err := l.CourseHistory(ctx, "u1", "ai-chef")
	if err != nil || len(turns) != 2 {
		t.Fatalf("CourseHistory() = %d, %v", len(turns), err)
	}

	marked, err := l.ToggleBookmark(ctx, "u1", "ai-chef", ai.ID)
	if err != nil || !marked.Bookmarked {
		t.Fatalf("ToggleBookmark() = %+v, %v", marked, err)
	}
	bs, _ := l.Bookmarks(ctx, "u1")
	if len(bs) != 1 || bs[0].ID != ai.ID {
		t.Fatalf("Bookmarks() = %+v", bs)
	}

	unmarked, err := l.ToggleBookmark(ctx, "u1", "ai-chef", ai.ID)
	if err != nil || unmarked.Bookmarked {
		t.Fatalf("second ToggleBookmark() = %+v, %v", unmarked, err)
	}
	if bs, _ := l.Bookmarks(ctx, "u1"); len(bs) != 0 {
		t.Fatalf("Bookmarks() after untoggle = %d", len(bs))
	}

	if _, err := l.ToggleBookmark(ctx, "u1", "ai-chef", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ToggleBookmark(missing) error = %v", err)
	}

	if err := l.DeleteCourseHistory(ctx, "u1", "ai-chef"); err != nil {
		t.Fatalf("DeleteCourseHistory() error = %v", err)
	}
	if turns, _ := l.CourseHistory(ctx, "u1", "ai-chef"); len(turns) != 0 {
		t.Fatalf("history survived delete: %d", len(turns))
	}
}

func TestUpdateProgress(t *testing.T) {
	ctx := context.Background()
	l := newTestLearners()
	for i := 0; i < 25; i++ {
		if _, err := l.UpdateProgress(ctx, "u1", func(p Progress) {
			p["ai-chef"] = min(p["ai-chef"]+ProgressStep, MaxCourseProgress)
		}); err != nil {
			t.Fatalf("UpdateProgress() error = %v", err)
		}
	}
	p, err := l.Progress(ctx, "u1")
	if err != nil || p["ai-chef"] != 100 {
		t.Fatalf("Progress() = %v, %v", p, err)
	}
}

func TestBackupRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestLearners()
	profile := NewProfile("Asha", "")
	_ = src.SaveProfile(ctx, "u1", profile)
	_, _ = src.UpdateProgress(ctx, "u1", func(p Progress) { p["ai-chef"] = 15 })
	_ = src.AppendTurns(ctx, "u1", "ai-chef", conversation.NewUserTurn("hi", time.Now()))

	backup, err := src.Export(ctx, "u1", time.Now())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if backup.Version != BackupVersion {
		t.Fatalf("Version = %q", backup.Version)
	}
	raw, err := json.Marshal(backup)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for _, field := range []string{`"teachers"`, `"progress"`, `"userProfile"`, `"chatHistory"`, `"timestamp"`} {
		if !strings.Contains(string(raw), field) {
			t.Fatalf("backup missing %s: %s", field, raw)
		}
	}

	dst := newTestLearners()
	if _, err := dst.Import(ctx, "u2", raw); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	got, err := dst.Profile(ctx, "u2")
	if err != nil || got.Name != "Asha" {
		t.Fatalf("Profile() = %+v, %v", got, err)
	}
	if turns, _ := dst.CourseHistory(ctx, "u2", "ai-chef"); len(turns) != 1 {
		t.Fatalf("imported history = %d turns", len(turns))
	}
}

func TestImportRejectsIncompleteBackup(t *testing.T) {
	l := newTestLearners()
	cases := []string{
		`not json`,
		`{"progress":{},"userProfile":{"id":"x"}}`,
		`{"teachers":[],"userProfile":{"id":"x"}}`,
		`{"teachers":[],"progress":{}}`,
	}
	for _, raw := range cases {
		if _, err := l.Import(context.Background(), "u1", []byte(raw)); !errors.Is(err, ErrInvalidBackup) {
			t.Fatalf("Import(%s) error = %v, want ErrInvalidBackup", raw, err)
		}
	}
}

func TestVisitedAndTheme(t *testing.T) {
	ctx := context.Background()
	l := newTestLearners()
	if v, _ := l.Visited(ctx, "u1"); v {
		t.Fatalf("Visited() = true for new learner")
	}
	_ = l.MarkVisited(ctx, "u1")
	if v, _ := l.Visited(ctx, "u1"); !v {
		t.Fatalf("Visited() = false after MarkVisited")
	}
	if err := l.SaveTheme(ctx, "u1", json.RawMessage(`{"id":"dark"`)); err == nil {
		t.Fatalf("SaveTheme() accepted invalid json")
	}
	if err := l.SaveTheme(ctx, "u1", json.RawMessage(`{"id":"dark"}`)); err != nil {
		t.Fatalf("SaveTheme() error = %v", err)
	}
	if theme, _ := l.Theme(ctx, "u1"); string(theme) != `{"id":"dark"}` {
		t.Fatalf("Theme() = %s", theme)
	}
}
