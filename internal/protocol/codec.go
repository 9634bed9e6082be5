package protocol

import "strings"

const (
	// SuggestionMarker separates the answer from the suggestion list in model output.
	SuggestionMarker = "***"
	// SuggestionSeparator separates individual suggestion chips.
	SuggestionSeparator = "|"
	// MaxSuggestions caps the number of chips returned to the UI.
	MaxSuggestions = 3
	// EmptyAnswer stands in for a missing model payload.
	EmptyAnswer = "..."
)

// Reply is the structured form of one assistant turn.
type Reply struct {
	Answer      string   `json:"text"`
	Suggestions []string `json:"suggestions"`
}

// Codec converts between raw backend text and structured replies.
type Codec interface {
	Parse(raw string) Reply
	Format(r Reply) string
}

// DelimitedCodec reads the "answer *** chip | chip" format.
type DelimitedCodec struct{}

func NewDelimitedCodec() DelimitedCodec { return DelimitedCodec{} }

func (DelimitedCodec) Parse(raw string) Reply {
	if strings.TrimSpace(raw) == "" {
		return Reply{Answer: EmptyAnswer, Suggestions: []string{}}
	}

	parts := strings.SplitN(raw, SuggestionMarker, 3)
	reply := Reply{
		Answer:      strings.TrimSpace(parts[0]),
		Suggestions: []string{},
	}
	if len(parts) < 2 {
		return reply
	}

	seen := make(map[string]struct{}, MaxSuggestions)
	for _, fragment := range strings.Split(parts[1], SuggestionSeparator) {
		s := strings.TrimSpace(fragment)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		reply.Suggestions = append(reply.Suggestions, s)
		if len(reply.Suggestions) == MaxSuggestions {
			break
		}
	}
	return reply
}

func (DelimitedCodec) Format(r Reply) string {
	answer := strings.TrimSpace(r.Answer)
	if len(r.Suggestions) == 0 {
		return answer
	}
	return answer + "\n" + SuggestionMarker + "\n" + strings.Join(r.Suggestions, SuggestionSeparator)
}
