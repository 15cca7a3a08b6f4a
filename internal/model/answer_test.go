package model

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestAnswerValueRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		answer AnswerValue
		json   string
	}{
		{
			name:   "single choice",
			answer: AnswerValue{Type: QuestionSingleChoice, Choice: "red"},
			json:   `{"type":"single_choice","value":"red"}`,
		},
		{
			name:   "multi choice",
			answer: AnswerValue{Type: QuestionMultiChoice, Choices: []string{"a", "b"}},
			json:   `{"type":"multi_choice","value":["a","b"]}`,
		},
		{
			name:   "ranked choice",
			answer: AnswerValue{Type: QuestionRankedChoice, Ranking: []string{"b", "a"}},
			json:   `{"type":"ranked_choice","value":["b","a"]}`,
		},
		{
			name:   "numeric stays a bare number",
			answer: AnswerValue{Type: QuestionNumeric, Number: 7.5},
			json:   `{"type":"numeric","value":7.5}`,
		},
		{
			name:   "boolean",
			answer: AnswerValue{Type: QuestionBoolean, Bool: true},
			json:   `{"type":"boolean","value":true}`,
		},
		{
			name:   "free text",
			answer: AnswerValue{Type: QuestionFreeText, Text: "great service"},
			json:   `{"type":"free_text","value":"great service"}`,
		},
		{
			name:   "date",
			answer: AnswerValue{Type: QuestionDate, Date: "2025-06-01"},
			json:   `{"type":"date","value":"2025-06-01"}`,
		},
		{
			name:   "time",
			answer: AnswerValue{Type: QuestionTime, Time: "18:30"},
			json:   `{"type":"time","value":"18:30"}`,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			encoded, err := json.Marshal(tc.answer)
			if err != nil {
				t.Fatalf("marshal failed: %v", err)
			}
			if string(encoded) != tc.json {
				t.Fatalf("unexpected JSON: got %s want %s", encoded, tc.json)
			}

			var decoded AnswerValue
			if err := json.Unmarshal(encoded, &decoded); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if !reflect.DeepEqual(decoded, tc.answer) {
				t.Fatalf("round trip mismatch: got %+v want %+v", decoded, tc.answer)
			}
		})
	}
}

func TestAnswerValueRejectsUnknownType(t *testing.T) {
	t.Parallel()

	var decoded AnswerValue
	err := json.Unmarshal([]byte(`{"type":"emoji","value":"x"}`), &decoded)
	if err == nil || !strings.Contains(err.Error(), "unknown answer type") {
		t.Fatalf("expected unknown type error, got %v", err)
	}

	if _, err := json.Marshal(AnswerValue{Type: "emoji"}); err == nil {
		t.Fatal("expected marshal of unknown type to fail")
	}
}

func TestQuestionTypeValid(t *testing.T) {
	t.Parallel()

	for _, valid := range []QuestionType{
		QuestionSingleChoice, QuestionMultiChoice, QuestionRankedChoice,
		QuestionNumeric, QuestionBoolean, QuestionFreeText,
		QuestionDate, QuestionTime,
	} {
		if !valid.Valid() {
			t.Fatalf("expected %q to be valid", valid)
		}
	}
	if QuestionType("rating").Valid() {
		t.Fatal("rating is not a stored type, it maps to numeric")
	}
}
