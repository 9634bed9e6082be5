package catalog

import (
	"errors"
	"testing"
)

func TestDefaultCatalogLookups(t *testing.T) {
	c := Default()

	course, err := c.Course("free-ai-tools")
	if err != nil {
		t.Fatalf("Course() error = %v", err)
	}
	if course.Category != CategoryCreator || course.SystemPrompt == "" {
		t.Fatalf("course = %+v", course)
	}
	if _, err := c.Course("missing"); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("Course(missing) error = %v, want ErrCourseNotFound", err)
	}

	master, err := c.Teacher(DefaultTeacherID)
	if err != nil {
		t.Fatalf("Teacher() error = %v", err)
	}
	if master.VoiceName != "Fenrir" {
		t.Fatalf("voice = %q, want Fenrir", master.VoiceName)
	}
	if teacher, _ := c.Teacher("ai-teacher"); teacher.VoiceName != "Kore" {
		t.Fatalf("voice = %q, want Kore", teacher.VoiceName)
	}
}

func TestCoursesByCategory(t *testing.T) {
	c := Default()
	all := c.Courses(CategoryAll)
	if len(all) != len(courses) {
		t.Fatalf("ALL = %d, want %d", len(all), len(courses))
	}
	for _, course := range c.Courses(CategoryStudent) {
		if course.Category != CategoryStudent {
			t.Fatalf("unexpected category %q in STUDENT filter", course.Category)
		}
	}
	if len(c.Courses(CategoryStudent)) != 5 {
		t.Fatalf("STUDENT = %d, want 5", len(c.Courses(CategoryStudent)))
	}
}

func TestSearchDoesNotMutateCatalog(t *testing.T) {
	c := Default()
	got := c.Search("youtube", CategoryAll)
	if len(got) != 1 || got[0].ID != "youtube-growth" {
		t.Fatalf("Search() = %+v", got)
	}
	if len(c.Courses(CategoryAll)) != len(courses) {
		t.Fatalf("catalog mutated by search")
	}
}

func TestDownloadsUnlockByLevel(t *testing.T) {
	c := Default()
	unlocked := 0
	for _, d := range c.Downloads(2) {
		if d.Unlocked {
			unlocked++
		}
	}
	if unlocked != 2 {
		t.Fatalf("unlocked at level 2 = %d, want 2", unlocked)
	}
	if _, ok := c.Download("dl_3", 2); ok {
		t.Fatalf("dl_3 unlocked at level 2")
	}
	if _, ok := c.Download("dl_3", 3); !ok {
		t.Fatalf("dl_3 locked at level 3")
	}
}

func TestParsers(t *testing.T) {
	if ParseLanguage("Malayalam") != LanguageMalayalam || ParseLanguage("klingon") != LanguageEnglish {
		t.Fatalf("ParseLanguage mismatch")
	}
	if LanguageMalayalam.RecognizerLocale() != "ml-IN" || LanguageEnglish.RecognizerLocale() != "en-US" {
		t.Fatalf("RecognizerLocale mismatch")
	}
	if ParseCategory("career") != CategoryCareer || ParseCategory("") != CategoryAll {
		t.Fatalf("ParseCategory mismatch")
	}
	if !ValidTheme("dark") || ValidTheme("neon") {
		t.Fatalf("ValidTheme mismatch")
	}
}
