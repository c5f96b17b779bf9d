package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

type QuizType string

const (
	QuizTypeText           QuizType = "text"
	QuizTypeMultipleChoice QuizType = "multiple_choice"
	QuizTypeTrueFalse      QuizType = "true_false"
)

func (t QuizType) Valid() bool {
	switch t {
	case QuizTypeText, QuizTypeMultipleChoice, QuizTypeTrueFalse:
		return true
	}
	return false
}

// Answer is either a TextAnswer or a ChoiceAnswer. Both are stored in the
// single answer_text column.
type Answer interface {
	encode() (string, error)
}

// TextAnswer is a free-form answer, also used for true/false quizzes.
type TextAnswer string

func (a TextAnswer) encode() (string, error) {
	return string(a), nil
}

// ChoiceAnswer is a multiple choice payload. It always carries "options" and
// "correct" and keeps any other fields it was created with.
type ChoiceAnswer struct {
	fields map[string]any
}

func NewChoiceAnswer(options []any, correct any) ChoiceAnswer {
	return ChoiceAnswer{fields: map[string]any{
		"options": options,
		"correct": correct,
	}}
}

func (a ChoiceAnswer) Options() []any {
	options, _ := a.fields["options"].([]any)
	return options
}

// Correct is a single option or a subset of the options.
func (a ChoiceAnswer) Correct() any {
	return a.fields["correct"]
}

// Fields returns the full decoded object.
func (a ChoiceAnswer) Fields() map[string]any {
	return a.fields
}

func (a ChoiceAnswer) MarshalJSON() ([]byte, error) {
	if a.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a.fields)
}

// encode yields canonical JSON: object keys sorted, numbers kept as written.
func (a ChoiceAnswer) encode() (string, error) {
	data, err := a.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ParseAnswer validates a request payload against the quiz type.
func ParseAnswer(quizType QuizType, raw json.RawMessage) (Answer, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, validationError("missing required field: answer_text")
	}

	switch quizType {
	case QuizTypeText:
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, validationError("answer text must be a string for text quizzes")
		}
		if strings.TrimSpace(text) == "" {
			return nil, validationError("missing required field: answer_text")
		}
		return TextAnswer(text), nil

	case QuizTypeTrueFalse:
		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, validationError("invalid JSON format for answer text")
		}
		switch v := value.(type) {
		case bool:
			if v {
				return TextAnswer("true"), nil
			}
			return TextAnswer("false"), nil
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true":
				return TextAnswer("true"), nil
			case "false":
				return TextAnswer("false"), nil
			}
		}
		return nil, validationError("answer text must be true or false for true_false quizzes")

	case QuizTypeMultipleChoice:
		var fields map[string]any
		if err := decodeJSON(raw, &fields); err != nil || fields == nil {
			return nil, validationError("answer text must be a JSON object for multiple choice quizzes")
		}
		if _, ok := fields["options"].([]any); !ok {
			return nil, validationError("answer text must contain options and correct fields for multiple choice quizzes")
		}
		if fields["correct"] == nil {
			return nil, validationError("answer text must contain options and correct fields for multiple choice quizzes")
		}
		return ChoiceAnswer{fields: fields}, nil
	}

	return nil, validationError("invalid quiz type")
}

// DecodeAnswer turns a stored column back into an Answer. A multiple choice
// payload that no longer decodes to an object comes back as the raw text.
func DecodeAnswer(quizType QuizType, stored string) Answer {
	if quizType != QuizTypeMultipleChoice {
		return TextAnswer(stored)
	}

	var fields map[string]any
	if err := decodeJSON([]byte(stored), &fields); err != nil || fields == nil {
		return TextAnswer(stored)
	}
	return ChoiceAnswer{fields: fields}
}

// EncodeAnswer is the storage form of a.
func EncodeAnswer(a Answer) (string, error) {
	return a.encode()
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}
