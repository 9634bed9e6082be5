// Package classroom coordinates courses, sessions and learner storage.
package classroom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ent0n29/aimaster/internal/catalog"
	"github.com/ent0n29/aimaster/internal/conversation"
	"github.com/ent0n29/aimaster/internal/observability"
	"github.com/ent0n29/aimaster/internal/protocol"
	"github.com/ent0n29/aimaster/internal/session"
	"github.com/ent0n29/aimaster/internal/store"
)

// ImageAnalysisPrompt stands in for real image understanding.
const ImageAnalysisPrompt = "I just sent you an image. (Simulated image analysis)"

var (
	ErrNameRequired  = errors.New("name is required")
	ErrNoCourse      = errors.New("no course selected")
	ErrEmptyMessage  = errors.New("message is empty")
	ErrInvalidImage  = errors.New("image must be a data:image URL")
	ErrUnknownTheme  = errors.New("unknown theme")
	ErrLearnerAbsent = errors.New("learner not found")
	ErrLocked        = errors.New("download is locked for this level")
	ErrNoDownload    = errors.New("download not found")
)

// AudioStopper silences any speech playing for a learner.
type AudioStopper interface {
	StopAll(learnerID string)
}

// Observer receives timing and lifecycle signals; Metrics satisfies it.
type Observer interface {
	ObserveTurnStage(stage string, d time.Duration)
	ObserveIndicator(name string)
}

type Config struct {
	Catalog  *catalog.Catalog
	Learners *store.Learners
	Sessions *session.Registry
	Audio    AudioStopper
	Observer Observer
	Now      func() time.Time
}

type Service struct {
	catalog  *catalog.Catalog
	learners *store.Learners
	sessions *session.Registry
	audio    AudioStopper
	observer Observer
	now      func() time.Time
}

func New(cfg Config) *Service {
	s := &Service{
		catalog:  cfg.Catalog,
		learners: cfg.Learners,
		sessions: cfg.Sessions,
		audio:    cfg.Audio,
		observer: cfg.Observer,
		now:      cfg.Now,
	}
	if s.catalog == nil {
		s.catalog = catalog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// CourseView is what the chat screen shows after opening a course.
type CourseView struct {
	Course   catalog.Course      `json:"course"`
	Teacher  catalog.Teacher     `json:"teacher"`
	Language catalog.Language    `json:"language"`
	Turns    []conversation.Turn `json:"turns"`
	Resumed  bool                `json:"resumed"`
	Progress int                 `json:"progress"`
}

// Exchange is the outcome of one learner message.
type Exchange struct {
	CourseID string            `json:"courseId"`
	User     conversation.Turn `json:"user"`
	Reply    conversation.Turn `json:"reply"`
	Progress int               `json:"progress"`
	Profile  *store.Profile    `json:"profile,omitempty"`
}

// Preferences mirrors the learner's current selection.
type Preferences struct {
	CourseID         string           `json:"courseId,omitempty"`
	TeacherID        string           `json:"teacherId"`
	Language         catalog.Language `json:"language"`
	RecognizerLocale string           `json:"recognizerLocale"`
}

func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

// Login creates a new local profile for the display name.
func (s *Service) Login(ctx context.Context, name, mobile string) (store.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return store.Profile{}, ErrNameRequired
	}
	p := store.NewProfile(name, strings.TrimSpace(mobile))
	if err := s.learners.SaveProfile(ctx, p.ID, p); err != nil {
		return store.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}

func (s *Service) Profile(ctx context.Context, learnerID string) (store.Profile, error) {
	p, err := s.learners.Profile(ctx, learnerID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Profile{}, ErrLearnerAbsent
	}
	return p, err
}

// SaveProfile keeps the id and gamification fields owned by the server.
func (s *Service) SaveProfile(ctx context.Context, learnerID string, in store.Profile) (store.Profile, error) {
	cur, err := s.Profile(ctx, learnerID)
	if err != nil {
		return store.Profile{}, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		cur.Name = name
	}
	cur.Mobile = strings.TrimSpace(in.Mobile)
	cur.Bio = in.Bio
	if in.Avatar != "" {
		cur.Avatar = in.Avatar
	}
	if err := s.learners.SaveProfile(ctx, learnerID, cur); err != nil {
		return store.Profile{}, err
	}
	return cur, nil
}

func (s *Service) Visited(ctx context.Context, learnerID string) (bool, error) {
	return s.learners.Visited(ctx, learnerID)
}

func (s *Service) FinishOnboarding(ctx context.Context, learnerID string) error {
	return s.learners.MarkVisited(ctx, learnerID)
}

func (s *Service) Courses(category catalog.Category, query string) []catalog.Course {
	return s.catalog.Search(query, category)
}

func (s *Service) Progress(ctx context.Context, learnerID string) (store.Progress, error) {
	return s.learners.Progress(ctx, learnerID)
}

func (s *Service) Preferences(ctx context.Context, learnerID string) (Preferences, error) {
	lc, err := s.learnerContext(ctx, learnerID)
	if err != nil {
		return Preferences{}, err
	}
	return preferencesFrom(lc), nil
}

// StartCourse opens a course: stored history is resumed without a backend call,
// otherwise a new class is created and its opening turn stored.
func (s *Service) StartCourse(ctx context.Context, learnerID, courseID string) (CourseView, error) {
	course, err := s.catalog.Course(courseID)
	if err != nil {
		return CourseView{}, err
	}
	s.stopAudio(learnerID)
	lc, err := s.updateContext(ctx, learnerID, func(c *session.LearnerContext) { c.CourseID = course.ID })
	if err != nil {
		return CourseView{}, err
	}

	spec, err := s.spec(ctx, learnerID, course, lc)
	if err != nil {
		return CourseView{}, err
	}
	progress, err := s.learners.UpdateProgress(ctx, learnerID, func(p store.Progress) {
		if _, ok := p[course.ID]; !ok {
			p[course.ID] = 0
		}
	})
	if err != nil {
		return CourseView{}, fmt.Errorf("init progress: %w", err)
	}

	view := CourseView{Course: course, Teacher: spec.Teacher, Language: spec.Language, Progress: progress[course.ID]}

	history, err := s.historyWithBookmarks(ctx, learnerID, course.ID)
	if err != nil {
		return CourseView{}, err
	}
	if len(history) > 0 {
		res := s.sessions.Manager(learnerID).Resume(spec, history)
		log.Printf("classroom: learner %s resumed %s with %d turns (%d skipped)", learnerID, course.ID, res.Seeded, res.Skipped)
		s.indicator("course_resumed")
		view.Turns = history
		view.Resumed = true
		return view, nil
	}

	turn, err := s.openClass(ctx, learnerID, spec)
	if err != nil {
		return CourseView{}, err
	}
	view.Turns = []conversation.Turn{turn}
	return view, nil
}

// RestartCourse drops the stored history of the current course and starts over.
func (s *Service) RestartCourse(ctx context.Context, learnerID, courseID string) (CourseView, error) {
	if courseID == "" {
		lc, err := s.learnerContext(ctx, learnerID)
		if err != nil {
			return CourseView{}, err
		}
		courseID = lc.CourseID
	}
	if courseID == "" {
		return CourseView{}, ErrNoCourse
	}
	if err := s.learners.DeleteCourseHistory(ctx, learnerID, courseID); err != nil {
		return CourseView{}, fmt.Errorf("delete history: %w", err)
	}
	return s.StartCourse(ctx, learnerID, courseID)
}

// SendMessage records the learner's turn, advances progress and asks the persona.
func (s *Service) SendMessage(ctx context.Context, learnerID, text string) (Exchange, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Exchange{}, ErrEmptyMessage
	}
	lc, err := s.learnerContext(ctx, learnerID)
	if err != nil {
		return Exchange{}, err
	}
	if lc.CourseID == "" {
		return Exchange{}, ErrNoCourse
	}

	user := conversation.NewUserTurn(text, s.now())
	if err := s.learners.AppendTurns(ctx, learnerID, lc.CourseID, user); err != nil {
		return Exchange{}, fmt.Errorf("store user turn: %w", err)
	}
	progress, profile, err := s.advance(ctx, learnerID, lc.CourseID)
	if err != nil {
		return Exchange{}, err
	}

	reply, err := s.send(ctx, learnerID, lc, text)
	if err != nil {
		return Exchange{}, err
	}
	ex := Exchange{CourseID: lc.CourseID, User: user, Reply: reply, Progress: progress}
	if profile.ID != "" {
		ex.Profile = &profile
	}
	return ex, nil
}

// SendImage stores an image turn and asks for a simulated analysis.
func (s *Service) SendImage(ctx context.Context, learnerID, dataURL string) (Exchange, error) {
	if !strings.HasPrefix(dataURL, "data:image/") {
		return Exchange{}, ErrInvalidImage
	}
	lc, err := s.learnerContext(ctx, learnerID)
	if err != nil {
		return Exchange{}, err
	}
	if lc.CourseID == "" {
		return Exchange{}, ErrNoCourse
	}

	user := conversation.NewImageTurn(dataURL, s.now())
	if err := s.learners.AppendTurns(ctx, learnerID, lc.CourseID, user); err != nil {
		return Exchange{}, fmt.Errorf("store image turn: %w", err)
	}
	reply, err := s.send(ctx, learnerID, lc, ImageAnalysisPrompt)
	if err != nil {
		return Exchange{}, err
	}
	progress, err := s.learners.Progress(ctx, learnerID)
	if err != nil {
		return Exchange{}, err
	}
	return Exchange{CourseID: lc.CourseID, User: user, Reply: reply, Progress: progress[lc.CourseID]}, nil
}

func (s *Service) ToggleBookmark(ctx context.Context, learnerID, courseID, turnID string) (conversation.Turn, error) {
	return s.learners.ToggleBookmark(ctx, learnerID, courseID, turnID)
}

func (s *Service) Bookmarks(ctx context.Context, learnerID string) ([]conversation.Turn, error) {
	return s.learners.Bookmarks(ctx, learnerID)
}

// SelectTeacher switches persona; the current session must be recreated.
func (s *Service) SelectTeacher(ctx context.Context, learnerID, teacherID string) (Preferences, error) {
	if _, err := s.teacher(ctx, learnerID, teacherID); err != nil {
		return Preferences{}, err
	}
	s.stopAudio(learnerID)
	s.sessions.Manager(learnerID).Clear()
	lc, err := s.updateContext(ctx, learnerID, func(c *session.LearnerContext) { c.TeacherID = teacherID })
	if err != nil {
		return Preferences{}, err
	}
	s.indicator("teacher_switched")
	return preferencesFrom(lc), nil
}

// SelectLanguage switches output language; the current session must be recreated.
func (s *Service) SelectLanguage(ctx context.Context, learnerID string, lang catalog.Language) (Preferences, error) {
	s.stopAudio(learnerID)
	s.sessions.Manager(learnerID).Clear()
	lc, err := s.updateContext(ctx, learnerID, func(c *session.LearnerContext) { c.Language = lang })
	if err != nil {
		return Preferences{}, err
	}
	s.indicator("language_switched")
	return preferencesFrom(lc), nil
}

// CurrentTeacher is the persona the learner has selected, customizations applied.
func (s *Service) CurrentTeacher(ctx context.Context, learnerID string) (catalog.Teacher, error) {
	lc, err := s.learnerContext(ctx, learnerID)
	if err != nil {
		return catalog.Teacher{}, err
	}
	return s.teacher(ctx, learnerID, lc.TeacherID)
}

func (s *Service) Teachers(ctx context.Context, learnerID string) ([]catalog.Teacher, error) {
	return s.learners.Teachers(ctx, learnerID)
}

func (s *Service) SaveTeachers(ctx context.Context, learnerID string, ts []catalog.Teacher) error {
	return s.learners.SaveTeachers(ctx, learnerID, ts)
}

func (s *Service) ResetTeachers(ctx context.Context, learnerID string) ([]catalog.Teacher, error) {
	if err := s.learners.ResetTeachers(ctx, learnerID); err != nil {
		return nil, err
	}
	if _, err := s.updateContext(ctx, learnerID, func(c *session.LearnerContext) { c.TeacherID = catalog.DefaultTeacherID }); err != nil {
		return nil, err
	}
	return s.learners.Defaults(), nil
}

func (s *Service) Theme(ctx context.Context, learnerID string) (json.RawMessage, error) {
	return s.learners.Theme(ctx, learnerID)
}

// SaveTheme accepts any JSON object whose id is a known theme.
func (s *Service) SaveTheme(ctx context.Context, learnerID string, raw json.RawMessage) error {
	var head struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownTheme, err)
	}
	if !catalog.ValidTheme(head.ID) {
		return ErrUnknownTheme
	}
	return s.learners.SaveTheme(ctx, learnerID, raw)
}

// Downloads lists the bonus items with their unlock state for the learner's level.
func (s *Service) Downloads(ctx context.Context, learnerID string) ([]catalog.UnlockedDownload, error) {
	p, err := s.Profile(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	items := s.catalog.Downloads(p.Level)
	for i := range items {
		if !items[i].Unlocked {
			items[i].Content = ""
		}
	}
	return items, nil
}

// Download returns one bonus item if the learner's level unlocks it.
func (s *Service) Download(ctx context.Context, learnerID, downloadID string) (catalog.Download, error) {
	p, err := s.Profile(ctx, learnerID)
	if err != nil {
		return catalog.Download{}, err
	}
	d, ok := s.catalog.Download(downloadID, p.Level)
	if d.ID == "" {
		return catalog.Download{}, ErrNoDownload
	}
	if !ok {
		return catalog.Download{}, ErrLocked
	}
	return d, nil
}

func (s *Service) Export(ctx context.Context, learnerID string) (store.Backup, error) {
	b, err := s.learners.Export(ctx, learnerID, s.now())
	if errors.Is(err, store.ErrNotFound) {
		return store.Backup{}, ErrLearnerAbsent
	}
	return b, err
}

// Import overwrites the learner's data and discards the current session.
func (s *Service) Import(ctx context.Context, learnerID string, raw []byte) (store.Backup, error) {
	b, err := s.learners.Import(ctx, learnerID, raw)
	if err != nil {
		return store.Backup{}, err
	}
	s.stopAudio(learnerID)
	s.sessions.Manager(learnerID).Clear()
	return b, nil
}

func (s *Service) openClass(ctx context.Context, learnerID string, spec session.Spec) (conversation.Turn, error) {
	started := time.Now()
	reply := s.sessions.Manager(learnerID).Create(ctx, spec)
	s.stage(observability.StageStartToReply, started)

	turn := conversation.NewAssistantTurn(reply.Answer, reply.Suggestions, s.now())
	if err := s.learners.AppendTurns(ctx, learnerID, spec.Course.ID, turn); err != nil {
		return conversation.Turn{}, fmt.Errorf("store opening turn: %w", err)
	}
	return turn, nil
}

// send makes sure a session exists before submitting. A missing session after
// restart or expiry is rebuilt from stored history.
func (s *Service) send(ctx context.Context, learnerID string, lc session.LearnerContext, text string) (conversation.Turn, error) {
	m := s.sessions.Manager(learnerID)
	if m.State() != session.StateActive {
		if err := s.resume(ctx, learnerID, lc); err != nil {
			return conversation.Turn{}, err
		}
	}

	started := time.Now()
	reply, err := m.Send(ctx, text)
	if err != nil {
		return conversation.Turn{}, err
	}
	s.stage(observability.StageSendToReply, started)

	turn := s.replyTurn(reply)
	if err := s.learners.AppendTurns(ctx, learnerID, lc.CourseID, turn); err != nil {
		return conversation.Turn{}, fmt.Errorf("store reply turn: %w", err)
	}
	return turn, nil
}

func (s *Service) resume(ctx context.Context, learnerID string, lc session.LearnerContext) error {
	course, err := s.catalog.Course(lc.CourseID)
	if err != nil {
		return err
	}
	spec, err := s.spec(ctx, learnerID, course, lc)
	if err != nil {
		return err
	}
	history, err := s.learners.CourseHistory(ctx, learnerID, course.ID)
	if err != nil {
		return err
	}
	// the learner turn just stored is sent as the new message, not as history
	if n := len(history); n > 0 && history[n-1].Author == conversation.AuthorUser {
		history = history[:n-1]
	}
	s.sessions.Manager(learnerID).Resume(spec, history)
	s.indicator("session_rebuilt")
	return nil
}

func (s *Service) advance(ctx context.Context, learnerID, courseID string) (int, store.Profile, error) {
	progress, err := s.learners.UpdateProgress(ctx, learnerID, func(p store.Progress) {
		p[courseID] = min(p[courseID]+store.ProgressStep, store.MaxCourseProgress)
	})
	if err != nil {
		return 0, store.Profile{}, fmt.Errorf("update progress: %w", err)
	}

	profile, err := s.learners.Profile(ctx, learnerID)
	if errors.Is(err, store.ErrNotFound) {
		return progress[courseID], store.Profile{}, nil
	}
	if err != nil {
		return 0, store.Profile{}, err
	}
	xp := progress.XP()
	level := store.LevelForXP(xp)
	if xp != profile.TotalXP || level != profile.Level {
		profile.TotalXP = xp
		profile.Level = level
		if err := s.learners.SaveProfile(ctx, learnerID, profile); err != nil {
			return 0, store.Profile{}, fmt.Errorf("save profile: %w", err)
		}
	}
	return progress[courseID], profile, nil
}

func (s *Service) spec(ctx context.Context, learnerID string, course catalog.Course, lc session.LearnerContext) (session.Spec, error) {
	t, err := s.teacher(ctx, learnerID, lc.TeacherID)
	if err != nil {
		return session.Spec{}, err
	}
	return session.Spec{Course: course, Teacher: t, Language: lc.Language}, nil
}

// teacher prefers the learner's customized persona over the catalog entry.
func (s *Service) teacher(ctx context.Context, learnerID, teacherID string) (catalog.Teacher, error) {
	if teacherID == "" {
		teacherID = catalog.DefaultTeacherID
	}
	ts, err := s.learners.Teachers(ctx, learnerID)
	if err != nil {
		return catalog.Teacher{}, err
	}
	for _, t := range ts {
		if t.ID == teacherID {
			return t, nil
		}
	}
	return s.catalog.Teacher(teacherID)
}

func (s *Service) historyWithBookmarks(ctx context.Context, learnerID, courseID string) ([]conversation.Turn, error) {
	turns, err := s.learners.CourseHistory(ctx, learnerID, courseID)
	if err != nil || len(turns) == 0 {
		return turns, err
	}
	bs, err := s.learners.Bookmarks(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	marked := make(map[string]bool, len(bs))
	for _, b := range bs {
		marked[b.ID] = true
	}
	for i := range turns {
		turns[i].Bookmarked = marked[turns[i].ID]
	}
	return turns, nil
}

func (s *Service) replyTurn(r protocol.Reply) conversation.Turn {
	return conversation.NewAssistantTurn(r.Answer, r.Suggestions, s.now())
}

func (s *Service) stopAudio(learnerID string) {
	if s.audio != nil {
		s.audio.StopAll(learnerID)
	}
}

func (s *Service) stage(name string, started time.Time) {
	if s.observer != nil {
		s.observer.ObserveTurnStage(name, time.Since(started))
	}
}

func (s *Service) indicator(name string) {
	if s.observer != nil {
		s.observer.ObserveIndicator(name)
	}
}

// learnerContext returns the in-memory selection, loading the persisted one
// the first time a learner is seen by this process.
func (s *Service) learnerContext(ctx context.Context, learnerID string) (session.LearnerContext, error) {
	if lc, ok := s.sessions.Loaded(learnerID); ok {
		return lc, nil
	}
	sel, err := s.learners.Selection(ctx, learnerID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return session.LearnerContext{}, fmt.Errorf("load selection: %w", err)
	}
	lc := session.DefaultContext()
	if sel.CourseID != "" {
		lc.CourseID = sel.CourseID
	}
	if sel.TeacherID != "" {
		lc.TeacherID = sel.TeacherID
	}
	if sel.Language != "" {
		lc.Language = sel.Language
	}
	return s.sessions.Restore(learnerID, lc), nil
}

// updateContext applies fn to the learner's selection and persists the result.
func (s *Service) updateContext(ctx context.Context, learnerID string, fn func(*session.LearnerContext)) (session.LearnerContext, error) {
	if _, err := s.learnerContext(ctx, learnerID); err != nil {
		return session.LearnerContext{}, err
	}
	lc := s.sessions.Update(learnerID, fn)
	sel := store.Selection{CourseID: lc.CourseID, TeacherID: lc.TeacherID, Language: lc.Language}
	if err := s.learners.SaveSelection(ctx, learnerID, sel); err != nil {
		return lc, fmt.Errorf("save selection: %w", err)
	}
	return lc, nil
}

func preferencesFrom(lc session.LearnerContext) Preferences {
	return Preferences{
		CourseID:         lc.CourseID,
		TeacherID:        lc.TeacherID,
		Language:         lc.Language,
		RecognizerLocale: lc.Language.RecognizerLocale(),
	}
}
