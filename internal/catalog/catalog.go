// Package catalog holds the static course, teacher and download reference data.
package catalog

import (
	"errors"
	"strings"
)

var (
	ErrCourseNotFound  = errors.New("course not found")
	ErrTeacherNotFound = errors.New("teacher not found")
)

// Catalog is an immutable index over the reference data.
type Catalog struct {
	courses   []Course
	teachers  []Teacher
	downloads []Download

	courseByID  map[string]int
	teacherByID map[string]int
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return New(courses, teachers, downloads)
}

func New(cs []Course, ts []Teacher, ds []Download) *Catalog {
	c := &Catalog{
		courses:     append([]Course(nil), cs...),
		teachers:    append([]Teacher(nil), ts...),
		downloads:   append([]Download(nil), ds...),
		courseByID:  make(map[string]int, len(cs)),
		teacherByID: make(map[string]int, len(ts)),
	}
	for i, course := range c.courses {
		c.courseByID[course.ID] = i
	}
	for i, t := range c.teachers {
		c.teacherByID[t.ID] = i
	}
	return c
}

func (c *Catalog) Course(id string) (Course, error) {
	i, ok := c.courseByID[strings.TrimSpace(id)]
	if !ok {
		return Course{}, ErrCourseNotFound
	}
	return c.courses[i], nil
}

// Courses filters by category; CategoryAll returns everything.
func (c *Catalog) Courses(cat Category) []Course {
	out := make([]Course, 0, len(c.courses))
	for _, course := range c.courses {
		if cat == CategoryAll || cat == "" || course.Category == cat {
			out = append(out, course)
		}
	}
	return out
}

// Search matches the query against titles and descriptions, case-insensitively.
func (c *Catalog) Search(query string, cat Category) []Course {
	q := strings.ToLower(strings.TrimSpace(query))
	all := c.Courses(cat)
	if q == "" {
		return all
	}
	out := all[:0]
	for _, course := range all {
		if strings.Contains(strings.ToLower(course.Title), q) ||
			strings.Contains(strings.ToLower(course.Description), q) ||
			strings.Contains(course.TitleMal, query) {
			out = append(out, course)
		}
	}
	return out
}

func (c *Catalog) Teacher(id string) (Teacher, error) {
	i, ok := c.teacherByID[strings.TrimSpace(id)]
	if !ok {
		return Teacher{}, ErrTeacherNotFound
	}
	return c.teachers[i], nil
}

func (c *Catalog) Teachers() []Teacher {
	return append([]Teacher(nil), c.teachers...)
}

// Downloads reports every bonus item together with whether level unlocks it.
func (c *Catalog) Downloads(level int) []UnlockedDownload {
	out := make([]UnlockedDownload, 0, len(c.downloads))
	for _, d := range c.downloads {
		out = append(out, UnlockedDownload{Download: d, Unlocked: level >= d.MinLevel})
	}
	return out
}

// Download returns the item if level unlocks it.
func (c *Catalog) Download(id string, level int) (Download, bool) {
	for _, d := range c.downloads {
		if d.ID == id {
			return d, level >= d.MinLevel
		}
	}
	return Download{}, false
}

// UnlockedDownload pairs an item with the caller's access.
type UnlockedDownload struct {
	Download
	Unlocked bool `json:"unlocked"`
}

// ValidTheme reports whether id is a known theme.
func ValidTheme(id string) bool {
	for _, t := range Themes {
		if t == id {
			return true
		}
	}
	return false
}
