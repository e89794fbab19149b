package quiz

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTick = 5 * time.Millisecond

type completionRecorder struct {
	mu     sync.Mutex
	scores []int
	done   chan struct{}
}

func newCompletionRecorder() *completionRecorder {
	return &completionRecorder{done: make(chan struct{}, 1)}
}

func (c *completionRecorder) OnComplete(score int) {
	c.mu.Lock()
	c.scores = append(c.scores, score)
	c.mu.Unlock()
	select {
	case c.done <- struct{}{}:
	default:
	}
}

func (c *completionRecorder) Scores() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.scores...)
}

func staticLoader(questions []models.Question) LoadFunc {
	return func(context.Context) ([]models.Question, error) {
		return questions, nil
	}
}

func TestRunner_EndToEnd(t *testing.T) {
	recorder := newCompletionRecorder()
	r := NewRunner(staticLoader(twoQuestionQuiz(t)), recorder.OnComplete, WithTickInterval(testTick))
	defer r.Close()

	state := r.Start(context.Background())
	require.Equal(t, PhaseAnswering, state.Phase)

	_, err := r.Edit(models.SetText{Value: "B"})
	require.NoError(t, err)
	_, err = r.Submit()
	require.NoError(t, err)
	_, err = r.Next()
	require.NoError(t, err)
	_, err = r.Edit(models.SetText{Value: "Faux"})
	require.NoError(t, err)
	_, err = r.Submit()
	require.NoError(t, err)
	state, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, PhaseCompleting, state.Phase)

	select {
	case <-recorder.done:
	case <-time.After(2 * time.Second):
		t.Fatal("completion countdown never fired")
	}

	// give any stray tick a chance to double fire
	time.Sleep(10 * testTick)
	assert.Equal(t, []int{1}, recorder.Scores())
	assert.Equal(t, PhaseDone, r.Snapshot().Phase)
}

func TestRunner_QuestionTimerAutoSubmits(t *testing.T) {
	settings := DefaultSettings()
	settings.QuestionSeconds = 2

	var graded []Graded
	var mu sync.Mutex
	r := NewRunner(staticLoader(twoQuestionQuiz(t)), nil,
		WithTickInterval(testTick),
		WithSettings(settings),
		WithGradedHook(func(g Graded, _ State) {
			mu.Lock()
			graded = append(graded, g)
			mu.Unlock()
		}),
	)
	defer r.Close()

	r.Start(context.Background())

	require.Eventually(t, func() bool {
		return r.Snapshot().Phase == PhaseFeedback
	}, time.Second, testTick)

	time.Sleep(10 * testTick)
	state := r.Snapshot()
	assert.Equal(t, FeedbackIncorrect, state.Feedback)
	assert.Zero(t, state.Score)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Graded{{Index: 0, Correct: false, TimedOut: true}}, graded)
}

func TestRunner_ManualContinueCompletesOnce(t *testing.T) {
	recorder := newCompletionRecorder()
	q := mustQuestion(t, `{"question_text":"Q","type":"short_answer","options":[],"correct_answer":"ok"}`)
	r := NewRunner(staticLoader([]models.Question{q}), recorder.OnComplete, WithTickInterval(testTick))
	defer r.Close()

	r.Start(context.Background())
	_, err := r.Edit(models.SetText{Value: "ok"})
	require.NoError(t, err)
	_, err = r.Submit()
	require.NoError(t, err)
	_, err = r.Next()
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		s := r.Snapshot()
		return s.CanContinue || s.Phase == PhaseDone
	}, time.Second, time.Millisecond)

	state, err := r.Continue()
	if err != nil {
		// the countdown may have won the race; it must still complete only once
		assert.Equal(t, PhaseDone, r.Snapshot().Phase)
	} else {
		assert.Equal(t, PhaseDone, state.Phase)
	}

	time.Sleep(10 * testTick)
	assert.Equal(t, []int{1}, recorder.Scores())
}

func TestRunner_CloseMidQuizNeverCompletes(t *testing.T) {
	var completions atomic.Int32
	r := NewRunner(staticLoader(twoQuestionQuiz(t)), func(int) { completions.Add(1) }, WithTickInterval(testTick))

	r.Start(context.Background())
	state := r.Close()
	assert.Equal(t, PhaseClosed, state.Phase)

	time.Sleep(10 * testTick)
	assert.Zero(t, completions.Load())
	assert.Equal(t, PhaseClosed, r.Snapshot().Phase)
}

func TestRunner_RetryAfterFetchFailure(t *testing.T) {
	var calls atomic.Int32
	load := func(context.Context) ([]models.Question, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("HTTP error: 503")
		}
		return twoQuestionQuiz(t), nil
	}
	r := NewRunner(load, nil, WithTickInterval(time.Hour))
	defer r.Close()

	state := r.Start(context.Background())
	assert.Equal(t, PhaseFailed, state.Phase)
	assert.Equal(t, "HTTP error: 503", state.LoadError)

	state, err := r.Retry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhaseAnswering, state.Phase)
	assert.Equal(t, int32(2), calls.Load())

	_, err = r.Retry(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRunner_SnapshotDoesNotAlias(t *testing.T) {
	q := mustQuestion(t, `{"question_text":"Associez","type":"matching","options":[{"left":"X","right":"1"}],"correct_answer":{"X":"1"}}`)
	r := NewRunner(staticLoader([]models.Question{q}), nil, WithTickInterval(time.Hour))
	defer r.Close()

	r.Start(context.Background())
	state, err := r.Edit(models.SetMapping{Key: "X", Value: "1"})
	require.NoError(t, err)

	state.Answer.(models.MappingAnswer)["X"] = "tampered"

	assert.Equal(t, models.MappingAnswer{"X": "1"}, r.Snapshot().Answer)
}
