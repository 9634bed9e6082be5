package catalog

import "strings"

// Category groups courses on the landing page.
type Category string

const (
	CategoryAll       Category = "ALL"
	CategoryCreator   Category = "CREATOR"
	CategoryStudent   Category = "STUDENT"
	CategoryCareer    Category = "CAREER"
	CategoryBusiness  Category = "BUSINESS"
	CategoryLifestyle Category = "LIFESTYLE"
)

// ParseCategory maps free-form input to a Category; unknown values mean ALL.
func ParseCategory(raw string) Category {
	switch c := Category(strings.ToUpper(strings.TrimSpace(raw))); c {
	case CategoryCreator, CategoryStudent, CategoryCareer, CategoryBusiness, CategoryLifestyle:
		return c
	default:
		return CategoryAll
	}
}

// Course is the read-only context a session is seeded with.
type Course struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	TitleMal     string   `json:"titleMal,omitempty"`
	Description  string   `json:"description"`
	Icon         string   `json:"icon"`
	SystemPrompt string   `json:"systemPrompt"`
	Badge        string   `json:"badge,omitempty"`
	Category     Category `json:"category"`
}

// Teacher is a persona the learner chats with.
type Teacher struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	NameMal           string `json:"nameMal"`
	Role              string `json:"role"`
	RoleMal           string `json:"roleMal"`
	Image             string `json:"image"`
	VideoImage        string `json:"videoImage"`
	Description       string `json:"description"`
	DescriptionMal    string `json:"descriptionMal"`
	SystemInstruction string `json:"systemInstruction"`
	VoiceName         string `json:"voiceName"`
}

// DisplayName returns the persona name for the language.
func (t Teacher) DisplayName(lang Language) string {
	if lang == LanguageMalayalam && strings.TrimSpace(t.NameMal) != "" {
		return t.NameMal
	}
	return t.Name
}

// Language is the global output language mode.
type Language string

const (
	LanguageEnglish   Language = "english"
	LanguageMalayalam Language = "malayalam"
)

// ParseLanguage defaults to English for anything unrecognized.
func ParseLanguage(raw string) Language {
	if strings.EqualFold(strings.TrimSpace(raw), string(LanguageMalayalam)) {
		return LanguageMalayalam
	}
	return LanguageEnglish
}

// Label is the human name used inside model directives.
func (l Language) Label() string {
	if l == LanguageMalayalam {
		return "Malayalam"
	}
	return "International English"
}

// RecognizerLocale is the BCP-47 tag the client's speech recognizer should use.
func (l Language) RecognizerLocale() string {
	if l == LanguageMalayalam {
		return "ml-IN"
	}
	return "en-US"
}

// Download is a bonus resource unlocked by learner level.
type Download struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Filename    string `json:"filename"`
	MinLevel    int    `json:"minLevel"`
	Content     string `json:"content,omitempty"`
}
