package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ent0n29/aimaster/internal/catalog"
	"github.com/ent0n29/aimaster/internal/conversation"
)

const (
	BackupVersion      = "2.1"
	ProgressStep       = 5
	MaxCourseProgress  = 100
	xpPerLevel         = 100
	defaultBio         = "Student at Ai Master Academy"
	defaultDisplayName = "Aspiring Pro"
)

var ErrInvalidBackup = errors.New("invalid backup file")

// Profile is the learner's local identity and gamification state.
type Profile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Mobile  string `json:"mobile,omitempty"`
	Bio     string `json:"bio"`
	Avatar  string `json:"avatar"`
	Level   int    `json:"level"`
	TotalXP int    `json:"totalXp"`
}

// NewProfile builds a fresh profile for a display name under a new random id.
func NewProfile(name, mobile string) Profile {
	if name == "" {
		name = defaultDisplayName
	}
	return Profile{
		ID:     "user_" + uuid.NewString(),
		Name:   name,
		Mobile: mobile,
		Bio:    defaultBio,
		Avatar: "https://api.dicebear.com/7.x/avataaars/svg?seed=" + name,
		Level:  1,
	}
}

// Progress maps course id to completion in 0..100.
type Progress map[string]int

// XP is the sum of all course progress.
func (p Progress) XP() int {
	total := 0
	for _, v := range p {
		total += v
	}
	return total
}

// LevelForXP starts at level 1 and gains one level per 100 XP.
func LevelForXP(xp int) int {
	return xp/xpPerLevel + 1
}

// Backup is the portable export of everything a learner owns.
type Backup struct {
	Teachers    []catalog.Teacher    `json:"teachers"`
	Progress    Progress             `json:"progress"`
	UserProfile *Profile             `json:"userProfile"`
	ChatHistory conversation.History `json:"chatHistory,omitempty"`
	Bookmarks   []conversation.Turn  `json:"bookmarkedMessages,omitempty"`
	Timestamp   time.Time            `json:"timestamp"`
	Version     string               `json:"version"`
}

// Selection is the course, persona and language the learner last chose.
type Selection struct {
	CourseID  string           `json:"courseId,omitempty"`
	TeacherID string           `json:"teacherId,omitempty"`
	Language  catalog.Language `json:"language,omitempty"`
}

// Learners gives typed access to the per-learner keys.
type Learners struct {
	store    Store
	defaults []catalog.Teacher
}

func NewLearners(s Store, defaultTeachers []catalog.Teacher) *Learners {
	return &Learners{store: s, defaults: append([]catalog.Teacher(nil), defaultTeachers...)}
}

func (l *Learners) Profile(ctx context.Context, id string) (Profile, error) {
	var p Profile
	err := l.getJSON(ctx, id, KeyUser, &p)
	return p, err
}

func (l *Learners) SaveProfile(ctx context.Context, id string, p Profile) error {
	return l.putJSON(ctx, id, KeyUser, p)
}

// Teachers returns the learner's customized personas, or the defaults when none
// are stored or the stored list does not start with a known persona.
func (l *Learners) Teachers(ctx context.Context, id string) ([]catalog.Teacher, error) {
	raw, err := l.store.Get(ctx, id, KeyTeachers)
	if errors.Is(err, ErrNotFound) {
		return l.Defaults(), nil
	}
	if err != nil {
		return nil, err
	}
	var ts []catalog.Teacher
	if err := json.Unmarshal(raw, &ts); err != nil || !l.knownTeachers(ts) {
		return l.Defaults(), nil
	}
	return ts, nil
}

func (l *Learners) Defaults() []catalog.Teacher {
	return append([]catalog.Teacher(nil), l.defaults...)
}

func (l *Learners) SaveTeachers(ctx context.Context, id string, ts []catalog.Teacher) error {
	return l.putJSON(ctx, id, KeyTeachers, ts)
}

func (l *Learners) ResetTeachers(ctx context.Context, id string) error {
	return l.store.Delete(ctx, id, KeyTeachers)
}

func (l *Learners) Progress(ctx context.Context, id string) (Progress, error) {
	p := Progress{}
	if err := l.getJSON(ctx, id, KeyProgress, &p); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return p, nil
}

// UpdateProgress applies fn to the stored progress atomically.
func (l *Learners) UpdateProgress(ctx context.Context, id string, fn func(Progress)) (Progress, error) {
	var out Progress
	err := l.store.Update(ctx, id, KeyProgress, func(current []byte) ([]byte, error) {
		p := Progress{}
		if len(current) > 0 {
			if err := json.Unmarshal(current, &p); err != nil {
				return nil, fmt.Errorf("decode progress: %w", err)
			}
		}
		fn(p)
		out = p
		return json.Marshal(p)
	})
	return out, err
}

func (l *Learners) History(ctx context.Context, id string) (conversation.History, error) {
	h := conversation.History{}
	if err := l.getJSON(ctx, id, KeyChatHistory, &h); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return h, nil
}

func (l *Learners) CourseHistory(ctx context.Context, id, courseID string) ([]conversation.Turn, error) {
	h, err := l.History(ctx, id)
	if err != nil {
		return nil, err
	}
	return h[courseID], nil
}

func (l *Learners) AppendTurns(ctx context.Context, id, courseID string, turns ...conversation.Turn) error {
	return l.updateHistory(ctx, id, func(h conversation.History) error {
		h[courseID] = append(h[courseID], turns...)
		return nil
	})
}

func (l *Learners) DeleteCourseHistory(ctx context.Context, id, courseID string) error {
	return l.updateHistory(ctx, id, func(h conversation.History) error {
		delete(h, courseID)
		return nil
	})
}

func (l *Learners) Bookmarks(ctx context.Context, id string) ([]conversation.Turn, error) {
	var bs []conversation.Turn
	if err := l.getJSON(ctx, id, KeyBookmarks, &bs); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return bs, nil
}

// ToggleBookmark flips the turn's bookmark. The bookmark list and the history
// flag are separate keys and are not updated atomically together.
func (l *Learners) ToggleBookmark(ctx context.Context, id, courseID, turnID string) (conversation.Turn, error) {
	var turn conversation.Turn
	err := l.updateHistory(ctx, id, func(h conversation.History) error {
		turns := h[courseID]
		i := conversation.FindTurn(turns, turnID)
		if i < 0 {
			return ErrNotFound
		}
		turns[i].Bookmarked = !turns[i].Bookmarked
		turn = turns[i]
		return nil
	})
	if err != nil {
		return conversation.Turn{}, err
	}

	err = l.store.Update(ctx, id, KeyBookmarks, func(current []byte) ([]byte, error) {
		var bs []conversation.Turn
		if len(current) > 0 {
			if err := json.Unmarshal(current, &bs); err != nil {
				return nil, fmt.Errorf("decode bookmarks: %w", err)
			}
		}
		if i := conversation.FindTurn(bs, turnID); i >= 0 {
			bs = append(bs[:i], bs[i+1:]...)
		}
		if turn.Bookmarked {
			bs = append(bs, turn)
		}
		return json.Marshal(bs)
	})
	return turn, err
}

// Theme is stored verbatim as the UI sent it.
func (l *Learners) Theme(ctx context.Context, id string) (json.RawMessage, error) {
	raw, err := l.store.Get(ctx, id, KeyTheme)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

func (l *Learners) SaveTheme(ctx context.Context, id string, theme json.RawMessage) error {
	if !json.Valid(theme) {
		return fmt.Errorf("theme is not valid json")
	}
	return l.store.Put(ctx, id, KeyTheme, theme)
}

func (l *Learners) Selection(ctx context.Context, id string) (Selection, error) {
	var sel Selection
	err := l.getJSON(ctx, id, KeyPreferences, &sel)
	return sel, err
}

func (l *Learners) SaveSelection(ctx context.Context, id string, sel Selection) error {
	return l.putJSON(ctx, id, KeyPreferences, sel)
}

func (l *Learners) Visited(ctx context.Context, id string) (bool, error) {
	raw, err := l.store.Get(ctx, id, KeyHasVisited)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return string(raw) == "true", nil
}

func (l *Learners) MarkVisited(ctx context.Context, id string) error {
	return l.store.Put(ctx, id, KeyHasVisited, []byte("true"))
}

// Export collects the learner's data into a backup.
func (l *Learners) Export(ctx context.Context, id string, now time.Time) (Backup, error) {
	b := Backup{Timestamp: now.UTC(), Version: BackupVersion}
	var err error
	if b.Teachers, err = l.Teachers(ctx, id); err != nil {
		return Backup{}, err
	}
	if b.Progress, err = l.Progress(ctx, id); err != nil {
		return Backup{}, err
	}
	p, err := l.Profile(ctx, id)
	if err != nil {
		return Backup{}, err
	}
	b.UserProfile = &p
	if b.ChatHistory, err = l.History(ctx, id); err != nil {
		return Backup{}, err
	}
	if b.Bookmarks, err = l.Bookmarks(ctx, id); err != nil {
		return Backup{}, err
	}
	return b, nil
}

// Import overwrites the learner's data. Teachers, progress and profile are
// required; history and bookmarks are replaced only when present.
func (l *Learners) Import(ctx context.Context, id string, raw []byte) (Backup, error) {
	var b Backup
	if err := json.Unmarshal(raw, &b); err != nil {
		return Backup{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if b.Teachers == nil || b.Progress == nil || b.UserProfile == nil {
		return Backup{}, ErrInvalidBackup
	}

	if err := l.SaveTeachers(ctx, id, b.Teachers); err != nil {
		return Backup{}, err
	}
	if err := l.putJSON(ctx, id, KeyProgress, b.Progress); err != nil {
		return Backup{}, err
	}
	if err := l.SaveProfile(ctx, id, *b.UserProfile); err != nil {
		return Backup{}, err
	}
	if b.ChatHistory != nil {
		if err := l.putJSON(ctx, id, KeyChatHistory, b.ChatHistory); err != nil {
			return Backup{}, err
		}
	}
	if b.Bookmarks != nil {
		if err := l.putJSON(ctx, id, KeyBookmarks, b.Bookmarks); err != nil {
			return Backup{}, err
		}
	}
	return b, nil
}

func (l *Learners) knownTeachers(ts []catalog.Teacher) bool {
	if len(ts) == 0 {
		return false
	}
	for _, d := range l.defaults {
		if ts[0].ID == d.ID {
			return true
		}
	}
	return false
}

func (l *Learners) updateHistory(ctx context.Context, id string, fn func(conversation.History) error) error {
	return l.store.Update(ctx, id, KeyChatHistory, func(current []byte) ([]byte, error) {
		h := conversation.History{}
		if len(current) > 0 {
			if err := json.Unmarshal(current, &h); err != nil {
				return nil, fmt.Errorf("decode chat history: %w", err)
			}
		}
		if err := fn(h); err != nil {
			return nil, err
		}
		return json.Marshal(h)
	})
}

func (l *Learners) getJSON(ctx context.Context, id, key string, out any) error {
	raw, err := l.store.Get(ctx, id, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (l *Learners) putJSON(ctx context.Context, id, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return l.store.Put(ctx, id, key, raw)
}
