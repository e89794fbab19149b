package quiz

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

var (
	ErrEditMismatch   = errors.New("edit does not apply to this question type")
	ErrEditOutOfRange = errors.New("edit index out of range")
)

// InitialAnswer returns the empty answer a question starts with
func InitialAnswer(q models.Question) models.Answer {
	switch v := q.(type) {
	case *models.MatchingQuestion, *models.DragAndDropQuestion:
		return models.MappingAnswer{}
	case *models.OrderingQuestion:
		return append(models.ListAnswer{}, v.Items...)
	case *models.FillInTheBlanksQuestion:
		return make(models.ListAnswer, models.BlankCount(v.QuestionText))
	default:
		return models.TextAnswer{}
	}
}

// ApplyEdit returns the answer that results from applying edit to current.
// current is never modified.
func ApplyEdit(q models.Question, current models.Answer, edit models.Edit) (models.Answer, error) {
	switch q.(type) {
	case *models.QCMQuestion, *models.TrueFalseQuestion, *models.ShortAnswerQuestion:
		e, ok := edit.(models.SetText)
		if !ok {
			return nil, editMismatch(q, edit)
		}
		return models.Text(e.Value), nil

	case *models.MatchingQuestion, *models.DragAndDropQuestion:
		e, ok := edit.(models.SetMapping)
		if !ok {
			return nil, editMismatch(q, edit)
		}
		prev, _ := current.(models.MappingAnswer)
		next := make(models.MappingAnswer, len(prev)+1)
		for k, v := range prev {
			next[k] = v
		}
		next[e.Key] = e.Value
		return next, nil

	case *models.OrderingQuestion:
		e, ok := edit.(models.MoveItem)
		if !ok {
			return nil, editMismatch(q, edit)
		}
		prev, _ := current.(models.ListAnswer)
		if e.From < 0 || e.From >= len(prev) || e.To < 0 || e.To >= len(prev) {
			return nil, fmt.Errorf("%w: move %d -> %d with %d items", ErrEditOutOfRange, e.From, e.To, len(prev))
		}
		return moveItem(prev, e.From, e.To), nil

	case *models.FillInTheBlanksQuestion:
		e, ok := edit.(models.SetBlank)
		if !ok {
			return nil, editMismatch(q, edit)
		}
		prev, _ := current.(models.ListAnswer)
		if e.Index < 0 || e.Index >= len(prev) {
			return nil, fmt.Errorf("%w: blank %d of %d", ErrEditOutOfRange, e.Index, len(prev))
		}
		next := append(models.ListAnswer{}, prev...)
		next[e.Index] = e.Value
		return next, nil
	}

	return nil, fmt.Errorf("%w: %T", models.ErrUnknownQuestionType, q)
}

// moveItem removes the element at from and reinserts it at to
func moveItem(items models.ListAnswer, from, to int) models.ListAnswer {
	moved := items[from]
	next := make(models.ListAnswer, 0, len(items))
	next = append(next, items[:from]...)
	next = append(next, items[from+1:]...)

	next = append(next, "")
	copy(next[to+1:], next[to:])
	next[to] = moved
	return next
}

func editMismatch(q models.Question, edit models.Edit) error {
	return fmt.Errorf("%w: %T on %s", ErrEditMismatch, edit, q.Kind())
}

// CloneAnswer returns a deep copy so callers cannot alias session state
func CloneAnswer(a models.Answer) models.Answer {
	switch v := a.(type) {
	case models.TextAnswer:
		if v.Value == nil {
			return models.TextAnswer{}
		}
		return models.Text(*v.Value)
	case models.MappingAnswer:
		out := make(models.MappingAnswer, len(v))
		for k, val := range v {
			out[k] = val
		}
		return out
	case models.ListAnswer:
		return append(models.ListAnswer{}, v...)
	}
	return a
}
