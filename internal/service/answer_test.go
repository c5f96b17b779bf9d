package service

import (
	"encoding/json"
	"testing"
)

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		name     string
		quizType QuizType
		raw      string
		expected string
		wantErr  bool
	}{
		{"Text answer", QuizTypeText, `"Paris"`, "Paris", false},
		{"Text answer not a string", QuizTypeText, `42`, "", true},
		{"Blank text answer", QuizTypeText, `"   "`, "", true},
		{"True/false bool", QuizTypeTrueFalse, `true`, "true", false},
		{"True/false string", QuizTypeTrueFalse, `"FALSE"`, "false", false},
		{"True/false invalid", QuizTypeTrueFalse, `"maybe"`, "", true},
		{"Multiple choice", QuizTypeMultipleChoice, `{"options":["A","B"],"correct":"A"}`, `{"correct":"A","options":["A","B"]}`, false},
		{"Multiple choice subset", QuizTypeMultipleChoice, `{"correct":["A","C"],"options":["A","B","C"]}`, `{"correct":["A","C"],"options":["A","B","C"]}`, false},
		{"Multiple choice extra fields", QuizTypeMultipleChoice, `{"options":["A"],"correct":"A","hint":"first"}`, `{"correct":"A","hint":"first","options":["A"]}`, false},
		{"Multiple choice keeps numbers", QuizTypeMultipleChoice, `{"options":[1,2.50,1e3],"correct":2.50}`, `{"correct":2.50,"options":[1,2.50,1e3]}`, false},
		{"Multiple choice missing correct", QuizTypeMultipleChoice, `{"options":["A","B"]}`, "", true},
		{"Multiple choice null correct", QuizTypeMultipleChoice, `{"options":["A","B"],"correct":null}`, "", true},
		{"Multiple choice options not array", QuizTypeMultipleChoice, `{"options":"A,B","correct":"A"}`, "", true},
		{"Multiple choice not an object", QuizTypeMultipleChoice, `"A or B"`, "", true},
		{"Multiple choice trailing data", QuizTypeMultipleChoice, `{"options":[],"correct":1} {}`, "", true},
		{"Missing answer", QuizTypeText, ``, "", true},
		{"Null answer", QuizTypeText, `null`, "", true},
		{"Unknown quiz type", QuizType("essay"), `"x"`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer, err := ParseAnswer(tt.quizType, json.RawMessage(tt.raw))
			if tt.wantErr {
				assertKind(t, err, ErrValidation)
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			stored, err := EncodeAnswer(answer)
			if err != nil {
				t.Fatalf("EncodeAnswer failed: %v", err)
			}
			if stored != tt.expected {
				t.Errorf("Expected stored form %s, got %s", tt.expected, stored)
			}
		})
	}
}

func TestDecodeAnswer(t *testing.T) {
	choice := DecodeAnswer(QuizTypeMultipleChoice, `{"correct":"A","options":["A","B"]}`)
	c, ok := choice.(ChoiceAnswer)
	if !ok {
		t.Fatalf("Expected ChoiceAnswer, got %T", choice)
	}
	if len(c.Options()) != 2 {
		t.Errorf("Expected 2 options, got %v", c.Options())
	}
	if c.Correct() != "A" {
		t.Errorf("Expected correct A, got %v", c.Correct())
	}

	corrupt := DecodeAnswer(QuizTypeMultipleChoice, `{"options":["A"`)
	if corrupt != TextAnswer(`{"options":["A"`) {
		t.Errorf("Expected corrupt payload as raw text, got %#v", corrupt)
	}

	// Text columns are never parsed, even when they look like JSON.
	text := DecodeAnswer(QuizTypeText, `{"a":1}`)
	if text != TextAnswer(`{"a":1}`) {
		t.Errorf("Expected raw text, got %#v", text)
	}
}

func TestAnswerJSON(t *testing.T) {
	quiz := Quiz{
		ID:       1,
		QuizType: QuizTypeMultipleChoice,
		Answer:   NewChoiceAnswer([]any{"A", "B"}, "A"),
	}

	data, err := json.Marshal(quiz)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded struct {
		AnswerText map[string]any `json:"answer_text"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("answer_text is not an object: %v (%s)", err, data)
	}
	if decoded.AnswerText["correct"] != "A" {
		t.Errorf("Expected correct A, got %v", decoded.AnswerText["correct"])
	}

	empty, err := json.Marshal(ChoiceAnswer{})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(empty) != "{}" {
		t.Errorf("Expected {}, got %s", empty)
	}
}
