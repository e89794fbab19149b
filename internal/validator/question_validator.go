package validator

import (
	"fmt"
	"strings"

	apperrors "github.com/SAP-F-2025/quiz-service/internal/errors"
	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// QuestionValidator enforces the authoring rules a question must satisfy before
// it is published
type QuestionValidator struct{}

func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateContent decodes the record and checks the payload rules of its type
func (v *QuestionValidator) ValidateContent(record models.QuizQuestion) error {
	q, err := models.DecodeQuestion(record)
	if err != nil {
		return err
	}

	switch q := q.(type) {
	case *models.QCMQuestion:
		return v.validateQCMContent(q)
	case *models.TrueFalseQuestion:
		return v.validateTrueFalseContent(q)
	case *models.ShortAnswerQuestion:
		return v.validateShortAnswerContent(q)
	case *models.MatchingQuestion:
		return v.validateMatchingContent(q)
	case *models.OrderingQuestion:
		return v.validateOrderingContent(q)
	case *models.FillInTheBlanksQuestion:
		return v.validateFillInTheBlanksContent(q)
	case *models.DragAndDropQuestion:
		return v.validateDragAndDropContent(q)
	default:
		return fmt.Errorf("unsupported question type: %s", record.Type)
	}
}

// ValidateQuestion validates a complete question record
func (v *QuestionValidator) ValidateQuestion(record models.QuizQuestion) error {
	if blank(record.QuestionText) {
		return fmt.Errorf("question text is required")
	}
	return v.ValidateContent(record)
}

// ValidateBatch validates every question and reports each failure by index
func (v *QuestionValidator) ValidateBatch(records []models.QuizQuestion) apperrors.ValidationErrors {
	if len(records) == 0 {
		return apperrors.ValidationErrors{*apperrors.NewValidationErrorWithRule("questions", "cannot be empty", "min", nil)}
	}

	var errs apperrors.ValidationErrors
	for i, record := range records {
		if err := v.ValidateQuestion(record); err != nil {
			errs = append(errs, *apperrors.NewValidationErrorWithRule(
				apperrors.QuestionField(i, "content"), err.Error(), string(record.Type), nil,
			))
		}
	}
	return errs
}

// Private validation methods for each question type

func (v *QuestionValidator) validateQCMContent(q *models.QCMQuestion) error {
	if len(q.Options) < 2 {
		return fmt.Errorf("must have at least 2 options")
	}
	for i, option := range q.Options {
		if blank(option) {
			return fmt.Errorf("option %d cannot be empty", i+1)
		}
	}
	if blank(q.CorrectAnswer) {
		return fmt.Errorf("a correct answer must be selected")
	}
	if !contains(q.Options, q.CorrectAnswer) {
		return fmt.Errorf("correct answer '%s' does not match any option", q.CorrectAnswer)
	}
	return nil
}

func (v *QuestionValidator) validateTrueFalseContent(q *models.TrueFalseQuestion) error {
	if !contains(models.TrueFalseOptions, q.CorrectAnswer) {
		return fmt.Errorf("correct answer must be %s or %s", models.TrueValue, models.FalseValue)
	}
	return nil
}

func (v *QuestionValidator) validateShortAnswerContent(q *models.ShortAnswerQuestion) error {
	if blank(q.CorrectAnswer) {
		return fmt.Errorf("a correct answer must be provided")
	}
	return nil
}

func (v *QuestionValidator) validateMatchingContent(q *models.MatchingQuestion) error {
	if len(q.Pairs) == 0 {
		return fmt.Errorf("must have at least 1 pair")
	}
	for i, pair := range q.Pairs {
		if blank(pair.Left) || blank(pair.Right) {
			return fmt.Errorf("pair %d must have both sides filled", i+1)
		}
	}

	expected := models.BuildMatchingAnswer(q.Pairs)
	if len(expected) != len(q.CorrectAnswer) {
		return fmt.Errorf("correct answer must have one entry per pair, got %d for %d", len(q.CorrectAnswer), len(expected))
	}
	for left, right := range expected {
		if q.CorrectAnswer[left] != right {
			return fmt.Errorf("correct answer for '%s' does not match its pair", left)
		}
	}
	return nil
}

func (v *QuestionValidator) validateOrderingContent(q *models.OrderingQuestion) error {
	if len(q.Items) == 0 {
		return fmt.Errorf("must have at least 1 item")
	}
	for i, item := range q.Items {
		if blank(item) {
			return fmt.Errorf("item %d cannot be empty", i+1)
		}
	}
	if len(q.CorrectAnswer) != len(q.Items) {
		return fmt.Errorf("correct order must include all items exactly once")
	}

	remaining := make(map[string]int, len(q.Items))
	for _, item := range q.Items {
		remaining[item]++
	}
	for _, item := range q.CorrectAnswer {
		if remaining[item] == 0 {
			return fmt.Errorf("correct order references unknown or repeated item: %s", item)
		}
		remaining[item]--
	}
	return nil
}

func (v *QuestionValidator) validateFillInTheBlanksContent(q *models.FillInTheBlanksQuestion) error {
	blanks := models.BlankCount(q.QuestionText)
	if blanks == 0 {
		return fmt.Errorf("question text must contain %s", models.BlankMarker)
	}
	if blanks != len(q.CorrectAnswer) {
		return fmt.Errorf("expected %d answers for %d blanks, got %d", blanks, blanks, len(q.CorrectAnswer))
	}
	for i, answer := range q.CorrectAnswer {
		if blank(answer) {
			return fmt.Errorf("answer for blank %d cannot be empty", i+1)
		}
	}
	return nil
}

func (v *QuestionValidator) validateDragAndDropContent(q *models.DragAndDropQuestion) error {
	if len(q.Options.Draggables) == 0 || len(q.Options.Targets) == 0 {
		return fmt.Errorf("must have at least 1 draggable and 1 target")
	}
	for _, item := range q.Options.Draggables {
		if blank(item) {
			return fmt.Errorf("draggable items cannot be empty")
		}
	}
	for _, item := range q.Options.Targets {
		if blank(item) {
			return fmt.Errorf("targets cannot be empty")
		}
	}
	for draggable, target := range q.CorrectAnswer {
		if !contains(q.Options.Draggables, draggable) {
			return fmt.Errorf("correct answer references unknown draggable: %s", draggable)
		}
		if !contains(q.Options.Targets, target) {
			return fmt.Errorf("correct answer references unknown target: %s", target)
		}
	}
	for _, draggable := range q.Options.Draggables {
		if _, ok := q.CorrectAnswer[draggable]; !ok {
			return fmt.Errorf("draggable %s has no target", draggable)
		}
	}
	if len(q.CorrectAnswer) != len(q.Options.Draggables) {
		return fmt.Errorf("expected %d mappings, got %d", len(q.Options.Draggables), len(q.CorrectAnswer))
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func contains(items []string, value string) bool {
	for _, item := range items {
		if item == value {
			return true
		}
	}
	return false
}
