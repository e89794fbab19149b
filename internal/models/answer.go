package models

import (
	"encoding/json"
	"fmt"
)

// Answer is the learner's current value for one question. Its concrete type is
// fixed by the question variant.
type Answer interface {
	isAnswer()
}

// TextAnswer holds the answer of qcm, true_false and short_answer questions.
// A nil Value means nothing is selected yet.
type TextAnswer struct {
	Value *string
}

// MappingAnswer holds matching (left -> right) and drag_and_drop (draggable -> target) answers
type MappingAnswer map[string]string

// ListAnswer holds ordering and fill_in_the_blanks answers
type ListAnswer []string

func (TextAnswer) isAnswer()    {}
func (MappingAnswer) isAnswer() {}
func (ListAnswer) isAnswer()    {}

func Text(value string) TextAnswer {
	return TextAnswer{Value: &value}
}

func (a TextAnswer) MarshalJSON() ([]byte, error) {
	if a.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*a.Value)
}

func (a *TextAnswer) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		a.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	a.Value = &s
	return nil
}

// DecodeAnswer parses a JSON answer into the shape the question type expects
func DecodeAnswer(t QuestionType, raw json.RawMessage) (Answer, error) {
	switch t {
	case QCM, TrueFalse, ShortAnswer:
		var a TextAnswer
		if err := a.UnmarshalJSON(raw); err != nil {
			return nil, fmt.Errorf("invalid answer for %s: %w", t, err)
		}
		return a, nil
	case Matching, DragAndDrop:
		a := MappingAnswer{}
		if isNull(raw) {
			return a, nil
		}
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("invalid answer for %s: %w", t, err)
		}
		return a, nil
	case Ordering, FillInTheBlanks:
		a := ListAnswer{}
		if isNull(raw) {
			return a, nil
		}
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("invalid answer for %s: %w", t, err)
		}
		return a, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownQuestionType, t)
}

// Edit is a single learner interaction on the current answer
type Edit interface {
	isEdit()
}

// SetText replaces a scalar answer
type SetText struct {
	Value string
}

// SetMapping assigns Key (left item or draggable) to Value (right item or target)
type SetMapping struct {
	Key   string
	Value string
}

// MoveItem moves the ordering element at From so that it ends up at To
type MoveItem struct {
	From int
	To   int
}

// SetBlank fills the blank at Index
type SetBlank struct {
	Index int
	Value string
}

func (SetText) isEdit()    {}
func (SetMapping) isEdit() {}
func (MoveItem) isEdit()   {}
func (SetBlank) isEdit()   {}
