package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type QuestionType string

const (
	QCM             QuestionType = "qcm"
	TrueFalse       QuestionType = "true_false"
	ShortAnswer     QuestionType = "short_answer"
	Matching        QuestionType = "matching"
	Ordering        QuestionType = "ordering"
	FillInTheBlanks QuestionType = "fill_in_the_blanks"
	DragAndDrop     QuestionType = "drag_and_drop"
)

// QuestionTypes lists every supported variant in display order
var QuestionTypes = []QuestionType{QCM, TrueFalse, ShortAnswer, Matching, Ordering, FillInTheBlanks, DragAndDrop}

func (t QuestionType) IsValid() bool {
	for _, qt := range QuestionTypes {
		if qt == t {
			return true
		}
	}
	return false
}

// BlankMarker is the only placeholder recognised inside fill_in_the_blanks text
const BlankMarker = "[BLANK]"

const (
	TrueValue  = "Vrai"
	FalseValue = "Faux"
)

// TrueFalseOptions is the fixed option list of a true_false question
var TrueFalseOptions = []string{TrueValue, FalseValue}

var (
	ErrUnknownQuestionType = errors.New("unknown question type")
	ErrMalformedQuestion   = errors.New("malformed question payload")
)

// QuizQuestion is the wire record exchanged with the backend
type QuizQuestion struct {
	ID            *string         `json:"id,omitempty"`
	QuestionText  string          `json:"question_text" validate:"required"`
	Type          QuestionType    `json:"type" validate:"required,quiz_question_type"`
	Options       json.RawMessage `json:"options"`
	CorrectAnswer json.RawMessage `json:"correct_answer"`
}

// UnmarshalJSON accepts the id as either a JSON string or number
func (q *QuizQuestion) UnmarshalJSON(data []byte) error {
	type plain QuizQuestion
	aux := struct {
		*plain
		ID json.RawMessage `json:"id"`
	}{plain: (*plain)(q)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	q.ID = nil
	raw := bytes.TrimSpace(aux.ID)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var id string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &id); err != nil {
			return err
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return fmt.Errorf("%w: id must be a string or number", ErrMalformedQuestion)
		}
		id = n.String()
	}
	q.ID = &id
	return nil
}

// Question is a decoded quiz question. The concrete types below are the only
// implementations.
type Question interface {
	Kind() QuestionType
	Text() string
	Identifier() *string
	isQuestion()
}

type QuestionBase struct {
	ID           *string `json:"id,omitempty"`
	QuestionText string  `json:"question_text"`
}

func (b QuestionBase) Text() string        { return b.QuestionText }
func (b QuestionBase) Identifier() *string { return b.ID }
func (QuestionBase) isQuestion()           {}

type QCMQuestion struct {
	QuestionBase
	Options       []string
	CorrectAnswer string
}

type TrueFalseQuestion struct {
	QuestionBase
	CorrectAnswer string
}

type ShortAnswerQuestion struct {
	QuestionBase
	CorrectAnswer string
}

type MatchingPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

type MatchingQuestion struct {
	QuestionBase
	Pairs         []MatchingPair
	CorrectAnswer map[string]string
}

type OrderingQuestion struct {
	QuestionBase
	Items         []string
	CorrectAnswer []string
}

type FillInTheBlanksQuestion struct {
	QuestionBase
	CorrectAnswer []string
}

type DragAndDropOptions struct {
	Draggables []string `json:"draggables"`
	Targets    []string `json:"targets"`
}

type DragAndDropQuestion struct {
	QuestionBase
	Options       DragAndDropOptions
	CorrectAnswer map[string]string
}

func (QCMQuestion) Kind() QuestionType             { return QCM }
func (TrueFalseQuestion) Kind() QuestionType       { return TrueFalse }
func (ShortAnswerQuestion) Kind() QuestionType     { return ShortAnswer }
func (MatchingQuestion) Kind() QuestionType        { return Matching }
func (OrderingQuestion) Kind() QuestionType        { return Ordering }
func (FillInTheBlanksQuestion) Kind() QuestionType { return FillInTheBlanks }
func (DragAndDropQuestion) Kind() QuestionType     { return DragAndDrop }

// BlankCount returns how many blank markers the text contains
func BlankCount(text string) int {
	return strings.Count(text, BlankMarker)
}

// BuildMatchingAnswer derives the correct answer of a matching question from its
// pairs. Pairs with an empty side are left out.
func BuildMatchingAnswer(pairs []MatchingPair) map[string]string {
	answer := make(map[string]string, len(pairs))
	for _, p := range pairs {
		if p.Left != "" && p.Right != "" {
			answer[p.Left] = p.Right
		}
	}
	return answer
}

// DecodeQuestion turns a wire record into its typed variant
func DecodeQuestion(record QuizQuestion) (Question, error) {
	base := QuestionBase{ID: record.ID, QuestionText: record.QuestionText}

	switch record.Type {
	case QCM:
		q := &QCMQuestion{QuestionBase: base}
		if err := decodePayload(record.Options, &q.Options, "options"); err != nil {
			return nil, err
		}
		if err := decodePayload(record.CorrectAnswer, &q.CorrectAnswer, "correct_answer"); err != nil {
			return nil, err
		}
		return q, nil

	case TrueFalse:
		q := &TrueFalseQuestion{QuestionBase: base}
		if err := decodeList(record.Options); err != nil {
			return nil, err
		}
		if err := decodePayload(record.CorrectAnswer, &q.CorrectAnswer, "correct_answer"); err != nil {
			return nil, err
		}
		return q, nil

	case ShortAnswer:
		q := &ShortAnswerQuestion{QuestionBase: base}
		if err := decodeList(record.Options); err != nil {
			return nil, err
		}
		if err := decodePayload(record.CorrectAnswer, &q.CorrectAnswer, "correct_answer"); err != nil {
			return nil, err
		}
		return q, nil

	case Matching:
		q := &MatchingQuestion{QuestionBase: base}
		if err := decodePayload(record.Options, &q.Pairs, "options"); err != nil {
			return nil, err
		}
		if err := decodePayload(record.CorrectAnswer, &q.CorrectAnswer, "correct_answer"); err != nil {
			return nil, err
		}
		if q.CorrectAnswer == nil {
			q.CorrectAnswer = map[string]string{}
		}
		return q, nil

	case Ordering:
		q := &OrderingQuestion{QuestionBase: base}
		if err := decodePayload(record.Options, &q.Items, "options"); err != nil {
			return nil, err
		}
		if err := decodePayload(record.CorrectAnswer, &q.CorrectAnswer, "correct_answer"); err != nil {
			return nil, err
		}
		return q, nil

	case FillInTheBlanks:
		q := &FillInTheBlanksQuestion{QuestionBase: base}
		if err := decodeList(record.Options); err != nil {
			return nil, err
		}
		if err := decodePayload(record.CorrectAnswer, &q.CorrectAnswer, "correct_answer"); err != nil {
			return nil, err
		}
		return q, nil

	case DragAndDrop:
		q := &DragAndDropQuestion{QuestionBase: base}
		if err := decodePayload(record.Options, &q.Options, "options"); err != nil {
			return nil, err
		}
		if err := decodePayload(record.CorrectAnswer, &q.CorrectAnswer, "correct_answer"); err != nil {
			return nil, err
		}
		if q.CorrectAnswer == nil {
			q.CorrectAnswer = map[string]string{}
		}
		return q, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownQuestionType, record.Type)
}

// DecodeQuestions decodes a full quiz, failing on the first bad record
func DecodeQuestions(records []QuizQuestion) ([]Question, error) {
	questions := make([]Question, 0, len(records))
	for i, record := range records {
		q, err := DecodeQuestion(record)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// EncodeQuestion is the inverse of DecodeQuestion
func EncodeQuestion(q Question) (QuizQuestion, error) {
	var options, correct any

	switch v := q.(type) {
	case *QCMQuestion:
		options, correct = nonNilList(v.Options), v.CorrectAnswer
	case *TrueFalseQuestion:
		options, correct = TrueFalseOptions, v.CorrectAnswer
	case *ShortAnswerQuestion:
		options, correct = []string{}, v.CorrectAnswer
	case *MatchingQuestion:
		pairs := v.Pairs
		if pairs == nil {
			pairs = []MatchingPair{}
		}
		options, correct = pairs, nonNilMap(v.CorrectAnswer)
	case *OrderingQuestion:
		options, correct = nonNilList(v.Items), nonNilList(v.CorrectAnswer)
	case *FillInTheBlanksQuestion:
		options, correct = []string{}, nonNilList(v.CorrectAnswer)
	case *DragAndDropQuestion:
		opts := DragAndDropOptions{
			Draggables: nonNilList(v.Options.Draggables),
			Targets:    nonNilList(v.Options.Targets),
		}
		options, correct = opts, nonNilMap(v.CorrectAnswer)
	default:
		return QuizQuestion{}, fmt.Errorf("%w: %T", ErrUnknownQuestionType, q)
	}

	rawOptions, err := json.Marshal(options)
	if err != nil {
		return QuizQuestion{}, fmt.Errorf("failed to encode options: %w", err)
	}
	rawCorrect, err := json.Marshal(correct)
	if err != nil {
		return QuizQuestion{}, fmt.Errorf("failed to encode correct answer: %w", err)
	}

	return QuizQuestion{
		ID:            q.Identifier(),
		QuestionText:  q.Text(),
		Type:          q.Kind(),
		Options:       rawOptions,
		CorrectAnswer: rawCorrect,
	}, nil
}

func decodePayload(raw json.RawMessage, dst any, field string) error {
	if isNull(raw) {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedQuestion, field, err)
	}
	return nil
}

// decodeList accepts any JSON list (or nothing) for variants whose options carry no data
func decodeList(raw json.RawMessage) error {
	var ignored []json.RawMessage
	return decodePayload(raw, &ignored, "options")
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func nonNilList(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

// IDString renders an optional id for logs
func IDString(id *string) string {
	if id == nil {
		return "-"
	}
	return strconv.Quote(*id)
}
