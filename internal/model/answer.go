package model

import (
	"encoding/json"
	"fmt"
)

// AnswerValue is the tagged union persisted for one survey answer. The
// discriminator is the question type; exactly one of the value fields is
// meaningful for a given tag. The JSON form is {"type": ..., "value": ...}
// where the value keeps its native JSON shape: numeric answers round-trip
// as bare numbers, multi-choice as string arrays, date/time as ISO strings.
type AnswerValue struct {
	Type    QuestionType
	Choice  string
	Choices []string
	Ranking []string
	Number  float64
	Bool    bool
	Text    string
	Date    string
	Time    string
}

type answerEnvelope struct {
	Type  QuestionType    `json:"type"`
	Value json.RawMessage `json:"value"`
}

func (a AnswerValue) MarshalJSON() ([]byte, error) {
	var value any
	switch a.Type {
	case QuestionSingleChoice:
		value = a.Choice
	case QuestionMultiChoice:
		value = a.Choices
	case QuestionRankedChoice:
		value = a.Ranking
	case QuestionNumeric:
		value = a.Number
	case QuestionBoolean:
		value = a.Bool
	case QuestionFreeText:
		value = a.Text
	case QuestionDate:
		value = a.Date
	case QuestionTime:
		value = a.Time
	default:
		return nil, fmt.Errorf("unknown answer type %q", a.Type)
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(answerEnvelope{Type: a.Type, Value: raw})
}

func (a *AnswerValue) UnmarshalJSON(data []byte) error {
	var envelope answerEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}

	out := AnswerValue{Type: envelope.Type}
	var err error
	switch envelope.Type {
	case QuestionSingleChoice:
		err = json.Unmarshal(envelope.Value, &out.Choice)
	case QuestionMultiChoice:
		err = json.Unmarshal(envelope.Value, &out.Choices)
	case QuestionRankedChoice:
		err = json.Unmarshal(envelope.Value, &out.Ranking)
	case QuestionNumeric:
		err = json.Unmarshal(envelope.Value, &out.Number)
	case QuestionBoolean:
		err = json.Unmarshal(envelope.Value, &out.Bool)
	case QuestionFreeText:
		err = json.Unmarshal(envelope.Value, &out.Text)
	case QuestionDate:
		err = json.Unmarshal(envelope.Value, &out.Date)
	case QuestionTime:
		err = json.Unmarshal(envelope.Value, &out.Time)
	default:
		return fmt.Errorf("unknown answer type %q", envelope.Type)
	}
	if err != nil {
		return err
	}

	*a = out
	return nil
}
