package quiz

import "github.com/SAP-F-2025/quiz-service/internal/models"

// IsCorrect grades answer against the question. It is total: an answer of the
// wrong shape or with missing keys grades false.
func IsCorrect(q models.Question, answer models.Answer) bool {
	switch v := q.(type) {
	case *models.QCMQuestion:
		return textEquals(answer, v.CorrectAnswer)
	case *models.TrueFalseQuestion:
		return textEquals(answer, v.CorrectAnswer)
	case *models.ShortAnswerQuestion:
		return textEquals(answer, v.CorrectAnswer)
	case *models.MatchingQuestion:
		return mappingEquals(answer, v.CorrectAnswer)
	case *models.DragAndDropQuestion:
		return mappingEquals(answer, v.CorrectAnswer)
	case *models.OrderingQuestion:
		return listEquals(answer, v.CorrectAnswer)
	case *models.FillInTheBlanksQuestion:
		return listEquals(answer, v.CorrectAnswer)
	}
	return false
}

// IsComplete reports whether the answer may be submitted
func IsComplete(q models.Question, answer models.Answer) bool {
	switch q.(type) {
	case *models.QCMQuestion, *models.TrueFalseQuestion:
		a, ok := answer.(models.TextAnswer)
		return ok && a.Value != nil
	case *models.ShortAnswerQuestion:
		a, ok := answer.(models.TextAnswer)
		return ok && a.Value != nil && *a.Value != ""
	case *models.MatchingQuestion, *models.DragAndDropQuestion:
		a, ok := answer.(models.MappingAnswer)
		return ok && len(a) > 0
	case *models.OrderingQuestion, *models.FillInTheBlanksQuestion:
		a, ok := answer.(models.ListAnswer)
		if !ok {
			return false
		}
		for _, item := range a {
			if item == "" {
				return false
			}
		}
		return true
	}
	return false
}

// exact comparison, no trimming or case folding
func textEquals(answer models.Answer, correct string) bool {
	a, ok := answer.(models.TextAnswer)
	return ok && a.Value != nil && *a.Value == correct
}

// Extra keys make the counts differ and grade false.
func mappingEquals(answer models.Answer, correct map[string]string) bool {
	a, ok := answer.(models.MappingAnswer)
	if !ok || len(a) != len(correct) {
		return false
	}
	for key, want := range correct {
		got, ok := a[key]
		if !ok || got != want {
			return false
		}
	}
	return true
}

func listEquals(answer models.Answer, correct []string) bool {
	a, ok := answer.(models.ListAnswer)
	if !ok || len(a) != len(correct) {
		return false
	}
	for i := range correct {
		if a[i] != correct[i] {
			return false
		}
	}
	return true
}
