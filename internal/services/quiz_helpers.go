package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/memorylane/recall-service/internal/models"
)

const (
	defaultQuestionPrompt = "What is being remembered here?"
	optionsPerQuestion    = 4
	genericHint           = "Think of a familiar person, place, or event linked to this memory."
)

// ModelQuestion is the strict shape accepted from the generative model.
type ModelQuestion struct {
	Question     string
	Options      []string
	CorrectIndex int
	Hint         string
}

type rawModelQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex *float64 `json:"correctIndex"`
	Hint         string   `json:"hint"`
}

// ParseModelQuestion decodes model output, truncates options to four and clamps the index.
// Output without four non-blank options or a numeric index is rejected.
func ParseModelQuestion(out string) (*ModelQuestion, error) {
	body := StripCodeFence(out)
	if body == "" {
		return nil, fmt.Errorf("%w: empty output", ErrInvalidModelResponse)
	}

	var raw rawModelQuestion
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModelResponse, err)
	}
	if raw.Options == nil || raw.CorrectIndex == nil {
		return nil, fmt.Errorf("%w: missing options or correctIndex", ErrInvalidModelResponse)
	}

	options := raw.Options
	if len(options) > optionsPerQuestion {
		options = options[:optionsPerQuestion]
	}
	if len(options) < optionsPerQuestion {
		return nil, fmt.Errorf("%w: %d options", ErrInvalidModelResponse, len(options))
	}
	for i := range options {
		options[i] = strings.TrimSpace(options[i])
		if options[i] == "" {
			return nil, fmt.Errorf("%w: blank option %d", ErrInvalidModelResponse, i)
		}
	}

	prompt := strings.TrimSpace(raw.Question)
	if prompt == "" {
		prompt = defaultQuestionPrompt
	}

	return &ModelQuestion{
		Question:     prompt,
		Options:      options,
		CorrectIndex: clamp(int(*raw.CorrectIndex), 0, optionsPerQuestion-1),
		Hint:         strings.TrimSpace(raw.Hint),
	}, nil
}

var deflectionHint = regexp.MustCompile(`(?i)check the caption|look|see the caption`)

// IsDeflectionHint reports hints that point at the UI instead of the memory.
func IsDeflectionHint(hint string) bool {
	return strings.TrimSpace(hint) == "" || deflectionHint.MatchString(hint)
}

// FallbackHint derives a contentful hint from place, then person, then event.
func FallbackHint(personName, eventName, placeName string) string {
	switch {
	case placeName != "":
		return fmt.Sprintf("The place %s.", startsWithLen(placeName))
	case personName != "":
		return fmt.Sprintf("Their initials are %s.", initials(personName))
	case strings.TrimSpace(eventName) != "":
		return fmt.Sprintf("Think about the %s we celebrated.", strings.Fields(eventName)[0])
	default:
		return genericHint
	}
}

func initials(name string) string {
	var sb strings.Builder
	for _, word := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(word)
		sb.WriteRune(unicode.ToUpper(r))
	}
	return sb.String()
}

func startsWithLen(s string) string {
	r, _ := utf8.DecodeRuneInString(s)
	return fmt.Sprintf("starts with '%c' and has %d letters", r, utf8.RuneCountInString(s))
}

func questionContext(m *models.Memory, caption string) models.QuestionContext {
	return models.QuestionContext{
		PersonName: optionalString(deref(m.PersonName)),
		EventName:  optionalString(deref(m.EventName)),
		PlaceName:  optionalString(deref(m.PlaceName)),
		CaptionAI:  optionalString(caption),
	}
}

func buildQuestionPrompt(m *models.Memory, caption string) string {
	person, event, place := deref(m.PersonName), deref(m.EventName), deref(m.PlaceName)

	eventWord := "event"
	if fields := strings.Fields(event); len(fields) > 0 {
		eventWord = fields[0]
	}
	placeExample := "has a name you know well"
	if place != "" {
		placeExample = startsWithLen(place)
	}

	return fmt.Sprintf(`Create ONE multiple-choice question (MCQ) for memory reinforcement.

Use ONLY these details (do not invent facts):
- Title: %s
- Person: %s
- Event: %s
- Place: %s
- Caption: %s

Rules:
- EXACTLY 1 question.
- 4 options total; 1 correct.
- Prefer questions about person/event/place if available.
- The HINT must be specific and contentful. It must NOT say "check the caption", "look closely", or similar.
  Examples of acceptable hints:
  - "The place %s."
  - "Their initials are %s."
  - "Think about the %s we celebrated."
Return strict JSON: {"question": string, "options": string[4], "correctIndex": 0-3, "hint": string}.`,
		m.Title, person, event, place, caption,
		placeExample, initials(person), eventWord)
}

// supportiveFeedback is the message shown right after an answer.
func supportiveFeedback(q *models.Question, correct bool) string {
	if correct {
		if person := deref(q.Context.PersonName); person != "" {
			return fmt.Sprintf("Great job! Yes, this is %s.", person)
		}
		return "Great job! Correct answer."
	}

	answer := ""
	if q.CorrectIndex >= 0 && q.CorrectIndex < len(q.Options) {
		answer = q.Options[q.CorrectIndex]
	}
	msg := fmt.Sprintf("Good try! The correct answer is \"%s\".", answer)
	if event := deref(q.Context.EventName); event != "" {
		msg += fmt.Sprintf(" This was %s.", event)
	}
	return msg
}
