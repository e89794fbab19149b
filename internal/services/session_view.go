package services

import (
	"encoding/json"
	"sort"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/quiz"
)

// SessionView is what a client sees of a session. Correct answers are only
// revealed for the question under feedback.
type SessionView struct {
	ID              string        `json:"id"`
	QuizID          string        `json:"quiz_id"`
	ContentID       string        `json:"content_id"`
	TeacherTestMode bool          `json:"teacher_test_mode"`
	Phase           quiz.Phase    `json:"phase"`
	Language        quiz.Language `json:"language"`
	RTL             bool          `json:"rtl"`
	Messages        quiz.Messages `json:"messages"`

	QuestionIndex    int           `json:"question_index"`
	QuestionCount    int           `json:"question_count"`
	Question         *QuestionView `json:"question,omitempty"`
	Answer           models.Answer `json:"answer,omitempty"`
	CanSubmit        bool          `json:"can_submit"`
	RemainingSeconds int           `json:"remaining_seconds"`
	Feedback         quiz.Feedback `json:"feedback,omitempty"`
	Score            int           `json:"score"`

	ContinueCountdown int           `json:"continue_countdown,omitempty"`
	CanContinue       bool          `json:"can_continue"`
	Summary           *quiz.Summary `json:"summary,omitempty"`
	SummaryMessage    string        `json:"summary_message,omitempty"`

	LoadError string `json:"load_error,omitempty"`
}

type QuestionView struct {
	ID   *string             `json:"id,omitempty"`
	Type models.QuestionType `json:"type"`
	Text string              `json:"question_text"`

	Choices    []string `json:"choices,omitempty"`
	LeftItems  []string `json:"left_items,omitempty"`
	RightItems []string `json:"right_items,omitempty"`
	Blanks     int      `json:"blanks,omitempty"`
	Draggables []string `json:"draggables,omitempty"`
	Targets    []string `json:"targets,omitempty"`

	CorrectAnswer json.RawMessage `json:"correct_answer,omitempty"`
}

func newSessionView(sess *session, state quiz.State) *SessionView {
	language := quiz.DetectLanguage(state.Questions)
	messages := quiz.MessagesFor(language)

	view := &SessionView{
		ID:                sess.id,
		QuizID:            sess.request.QuizID,
		ContentID:         sess.request.ContentID,
		TeacherTestMode:   sess.request.TeacherTestMode,
		Phase:             state.Phase,
		Language:          language,
		RTL:               language.RTL(),
		Messages:          messages,
		QuestionIndex:     state.CurrentIndex,
		QuestionCount:     len(state.Questions),
		RemainingSeconds:  state.RemainingSeconds,
		Feedback:          state.Feedback,
		Score:             state.Score,
		ContinueCountdown: state.ContinueCountdown,
		CanContinue:       state.CanContinue,
		CanSubmit:         state.CanSubmit(),
		LoadError:         state.LoadError,
	}

	if q := state.CurrentQuestion(); q != nil {
		view.Question = newQuestionView(q, state.Phase == quiz.PhaseFeedback)
		view.Answer = state.Answer
	}

	if state.Phase == quiz.PhaseCompleting || state.Phase == quiz.PhaseDone {
		summary := quiz.Summarize(state.Score, len(state.Questions))
		view.Summary = &summary
		view.SummaryMessage = quiz.RatingMessage(messages, summary.Rating)
	}
	return view
}

func newQuestionView(q models.Question, reveal bool) *QuestionView {
	view := &QuestionView{ID: q.Identifier(), Type: q.Kind(), Text: q.Text()}

	switch v := q.(type) {
	case *models.QCMQuestion:
		view.Choices = v.Options
	case *models.TrueFalseQuestion:
		view.Choices = models.TrueFalseOptions
	case *models.MatchingQuestion:
		for _, pair := range v.Pairs {
			view.LeftItems = append(view.LeftItems, pair.Left)
			view.RightItems = append(view.RightItems, pair.Right)
		}
		// pairs are stored aligned; present the right column sorted
		sort.Strings(view.RightItems)
	case *models.FillInTheBlanksQuestion:
		view.Blanks = models.BlankCount(v.QuestionText)
	case *models.DragAndDropQuestion:
		view.Draggables = v.Options.Draggables
		view.Targets = v.Options.Targets
	}

	if reveal {
		if record, err := models.EncodeQuestion(q); err == nil {
			view.CorrectAnswer = record.CorrectAnswer
		}
	}
	return view
}
