package quiz

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

type Phase string

const (
	PhaseLoading    Phase = "loading"
	PhaseFailed     Phase = "failed"
	PhaseEmpty      Phase = "empty"
	PhaseAnswering  Phase = "answering"
	PhaseFeedback   Phase = "feedback"
	PhaseCompleting Phase = "completing"
	PhaseDone       Phase = "done"
	PhaseClosed     Phase = "closed"
)

// Terminal phases accept no further events except Close.
func (p Phase) Terminal() bool {
	return p == PhaseEmpty || p == PhaseDone || p == PhaseClosed
}

type Feedback string

const (
	FeedbackNone      Feedback = ""
	FeedbackCorrect   Feedback = "correct"
	FeedbackIncorrect Feedback = "incorrect"
)

var (
	ErrInvalidTransition = errors.New("event not allowed in current phase")
	ErrAnswerIncomplete  = errors.New("answer is incomplete")
	ErrQuestionLocked    = errors.New("question already graded")
	ErrContinueNotReady  = errors.New("continue is not enabled yet")
)

// Settings holds the session timing budgets, in ticks of one second
type Settings struct {
	QuestionSeconds   int
	CompletionTicks   int
	ContinueEnabledAt int
}

func DefaultSettings() Settings {
	return Settings{
		QuestionSeconds:   30,
		CompletionTicks:   5,
		ContinueEnabledAt: 2,
	}
}

// State is one quiz attempt. Values are treated as immutable; Reduce returns a
// new State and never writes through the old one.
type State struct {
	Phase             Phase
	Questions         []models.Question
	CurrentIndex      int
	Answer            models.Answer
	Score             int
	RemainingSeconds  int
	Feedback          Feedback
	ContinueCountdown int
	CanContinue       bool
	Results           []bool
	LoadError         string

	// Epoch identifies the live timer. Ticks carrying an older epoch are stale.
	Epoch    uint64
	Settings Settings
}

func NewState(settings Settings) State {
	return State{Phase: PhaseLoading, Settings: settings}
}

// CurrentQuestion returns nil outside Answering and Feedback
func (s State) CurrentQuestion() models.Question {
	if s.Phase != PhaseAnswering && s.Phase != PhaseFeedback {
		return nil
	}
	return s.Questions[s.CurrentIndex]
}

func (s State) CanSubmit() bool {
	q := s.CurrentQuestion()
	return s.Phase == PhaseAnswering && q != nil && IsComplete(q, s.Answer)
}

type Event interface {
	isEvent()
}

type (
	Loaded         struct{ Questions []models.Question }
	LoadFailed     struct{ Err error }
	Retry          struct{}
	EditAnswer     struct{ Edit models.Edit }
	Submit         struct{}
	QuestionTick   struct{ Epoch uint64 }
	Next           struct{}
	CompletionTick struct{ Epoch uint64 }
	Continue       struct{}
	Close          struct{}
)

func (Loaded) isEvent()         {}
func (LoadFailed) isEvent()     {}
func (Retry) isEvent()          {}
func (EditAnswer) isEvent()     {}
func (Submit) isEvent()         {}
func (QuestionTick) isEvent()   {}
func (Next) isEvent()           {}
func (CompletionTick) isEvent() {}
func (Continue) isEvent()       {}
func (Close) isEvent()          {}

// Effect is work the owner of a State must carry out after a transition
type Effect interface {
	isEffect()
}

type (
	StartQuestionTimer   struct{ Epoch uint64 }
	StartCompletionTimer struct{ Epoch uint64 }
	StopTimers           struct{}
	FetchQuestions       struct{}
	Graded               struct {
		Index    int
		Correct  bool
		TimedOut bool
	}
	Completed struct{ Score int }
)

func (StartQuestionTimer) isEffect()   {}
func (StartCompletionTimer) isEffect() {}
func (StopTimers) isEffect()           {}
func (FetchQuestions) isEffect()       {}
func (Graded) isEffect()               {}
func (Completed) isEffect()            {}

// Reduce applies ev to s. On error s is returned unchanged.
func Reduce(s State, ev Event) (State, []Effect, error) {
	switch e := ev.(type) {
	case Close:
		if s.Phase == PhaseDone || s.Phase == PhaseClosed {
			return s, nil, nil
		}
		s.Phase = PhaseClosed
		s.Epoch++
		return s, []Effect{StopTimers{}}, nil

	case Loaded:
		if s.Phase != PhaseLoading {
			return s, nil, invalid(s, ev)
		}
		if len(e.Questions) == 0 {
			s.Phase = PhaseEmpty
			return s, nil, nil
		}
		s.Questions = e.Questions
		s.Score = 0
		s.Results = make([]bool, 0, len(e.Questions))
		return activate(s, 0)

	case LoadFailed:
		if s.Phase != PhaseLoading {
			return s, nil, invalid(s, ev)
		}
		s.Phase = PhaseFailed
		if e.Err != nil {
			s.LoadError = e.Err.Error()
		}
		return s, nil, nil

	case Retry:
		if s.Phase != PhaseFailed {
			return s, nil, invalid(s, ev)
		}
		fresh := NewState(s.Settings)
		fresh.Epoch = s.Epoch
		return fresh, []Effect{FetchQuestions{}}, nil

	case EditAnswer:
		if s.Phase == PhaseFeedback {
			return s, nil, ErrQuestionLocked
		}
		if s.Phase != PhaseAnswering {
			return s, nil, invalid(s, ev)
		}
		next, err := ApplyEdit(s.Questions[s.CurrentIndex], s.Answer, e.Edit)
		if err != nil {
			return s, nil, err
		}
		s.Answer = next
		return s, nil, nil

	case Submit:
		if s.Phase == PhaseFeedback {
			return s, nil, ErrQuestionLocked
		}
		if s.Phase != PhaseAnswering {
			return s, nil, invalid(s, ev)
		}
		if !IsComplete(s.Questions[s.CurrentIndex], s.Answer) {
			return s, nil, ErrAnswerIncomplete
		}
		return grade(s, false)

	case QuestionTick:
		if s.Phase != PhaseAnswering || e.Epoch != s.Epoch {
			return s, nil, nil
		}
		s.RemainingSeconds--
		if s.RemainingSeconds > 0 {
			return s, nil, nil
		}
		s.RemainingSeconds = 0
		return grade(s, true)

	case Next:
		if s.Phase != PhaseFeedback {
			return s, nil, invalid(s, ev)
		}
		if s.CurrentIndex < len(s.Questions)-1 {
			return activate(s, s.CurrentIndex+1)
		}
		s.Phase = PhaseCompleting
		s.Answer = nil
		s.Feedback = FeedbackNone
		s.ContinueCountdown = s.Settings.CompletionTicks
		s.CanContinue = false
		s.Epoch++
		return s, []Effect{StartCompletionTimer{Epoch: s.Epoch}}, nil

	case CompletionTick:
		if s.Phase != PhaseCompleting || e.Epoch != s.Epoch {
			return s, nil, nil
		}
		s.ContinueCountdown--
		if s.ContinueCountdown <= s.Settings.ContinueEnabledAt {
			s.CanContinue = true
		}
		if s.ContinueCountdown > 0 {
			return s, nil, nil
		}
		s.ContinueCountdown = 0
		return finish(s)

	case Continue:
		if s.Phase != PhaseCompleting {
			return s, nil, invalid(s, ev)
		}
		if !s.CanContinue {
			return s, nil, ErrContinueNotReady
		}
		return finish(s)
	}

	return s, nil, fmt.Errorf("%w: unknown event %T", ErrInvalidTransition, ev)
}

func activate(s State, index int) (State, []Effect, error) {
	s.Phase = PhaseAnswering
	s.CurrentIndex = index
	s.Answer = InitialAnswer(s.Questions[index])
	s.RemainingSeconds = s.Settings.QuestionSeconds
	s.Feedback = FeedbackNone
	s.Epoch++
	return s, []Effect{StartQuestionTimer{Epoch: s.Epoch}}, nil
}

// grade is reached once per question, from Submit or from the last QuestionTick.
// Its epoch bump makes any tick already in flight stale.
func grade(s State, timedOut bool) (State, []Effect, error) {
	q := s.Questions[s.CurrentIndex]
	correct := IsComplete(q, s.Answer) && IsCorrect(q, s.Answer)
	if correct {
		s.Score++
		s.Feedback = FeedbackCorrect
	} else {
		s.Feedback = FeedbackIncorrect
	}
	s.Results = append(append([]bool{}, s.Results...), correct)
	s.Phase = PhaseFeedback
	s.Epoch++
	return s, []Effect{
		StopTimers{},
		Graded{Index: s.CurrentIndex, Correct: correct, TimedOut: timedOut},
	}, nil
}

func finish(s State) (State, []Effect, error) {
	s.Phase = PhaseDone
	s.CanContinue = false
	s.Epoch++
	return s, []Effect{StopTimers{}, Completed{Score: s.Score}}, nil
}

func invalid(s State, ev Event) error {
	return fmt.Errorf("%w: %T in %s", ErrInvalidTransition, ev, s.Phase)
}
