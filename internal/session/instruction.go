package session

import (
	"fmt"
	"strings"

	"github.com/ent0n29/aimaster/internal/catalog"
)

// Spec names the inputs that fully determine a session's instruction.
type Spec struct {
	Course   catalog.Course
	Teacher  catalog.Teacher
	Language catalog.Language
}

func (s Spec) validate() error {
	if strings.TrimSpace(s.Course.ID) == "" {
		return fmt.Errorf("%w: course id is empty", ErrInvalidSpec)
	}
	if strings.TrimSpace(s.Teacher.ID) == "" {
		return fmt.Errorf("%w: teacher id is empty", ErrInvalidSpec)
	}
	return nil
}

const malayalamDirective = `LANGUAGE OVERRIDE: the learner selected MALAYALAM.
Ignore any earlier instruction to answer in English.
Write only in Malayalam script (Unicode). Never transliterate Malayalam into the Latin alphabet.
Keep technical terms such as AI, Photoshop, YouTube and Prompt untranslated.
Adapt your persona to a Malayalam-speaking context and teach English course material in Malayalam.`

const englishDirective = `LANGUAGE RULE: answer in standard international English.
Sound like a world-class instructor: professional, articulate and clear.
Do not use regional slang or regional English mannerisms.`

const outputFormatDirective = `OUTPUT FORMAT (follow exactly):
1. Main text: answer the learner or teach the concept, concisely.
2. Separator: on a new line write exactly three asterisks: ***
3. Suggestions: after the ***, list 2 or 3 options separated by '|'.

Suggestion rules:
- Each suggestion is what the learner would say next, phrased as a request or action.
- Use short multi-word phrases, never single words. "Create an Image" is good, "Image" is not.
- Move the lesson forward, e.g. "Give me a prompt" or "How do I start?".
- Never repeat a suggestion.
- If you offered a choice between A and B, suggest "I want A" and "I want B".
- Keep each suggestion to five words or fewer.`

// ComposeInstruction builds the system instruction in a fixed order: language,
// persona, course task, output format.
func ComposeInstruction(spec Spec) string {
	lang := englishDirective
	if spec.Language == catalog.LanguageMalayalam {
		lang = malayalamDirective
	}

	var b strings.Builder
	b.WriteString(lang)
	b.WriteString("\n\nYOUR TEACHER PERSONA (adapt it to the selected language):\n")
	b.WriteString(strings.TrimSpace(spec.Teacher.SystemInstruction))
	b.WriteString("\n\nYOUR SPECIFIC TASK:\n")
	b.WriteString(strings.TrimSpace(spec.Course.SystemPrompt))
	b.WriteString("\n\n")
	b.WriteString(outputFormatDirective)
	return b.String()
}

// steeringMessage opens a class. It is sent as a user turn but never shown or stored as one.
func steeringMessage(spec Spec) string {
	label := spec.Language.Label()
	return fmt.Sprintf(`[SYSTEM: FORCE OUTPUT IN %s]
Start the class. Introduce yourself briefly as %s.
Ask what the learner wants to learn today based on the course topic.
If Malayalam was selected, use Malayalam script only.`,
		strings.ToUpper(label), spec.Teacher.DisplayName(spec.Language))
}
