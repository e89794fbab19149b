package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/metrics"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/quiz"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	service   QuizSessionService
	source    *MockQuestionSource
	submitter *recordingSubmitter
	records   *memoryRecords
	publisher *events.MockEventPublisher
	metrics   *metrics.Metrics
}

func newSessionFixture(t *testing.T, submitErr error) *sessionFixture {
	t.Helper()
	return newSessionFixtureWith(t, submitErr, SessionConfig{})
}

// newSessionFixtureWith fills in the settings and a fast tick when config leaves them zero
func newSessionFixtureWith(t *testing.T, submitErr error, config SessionConfig) *sessionFixture {
	t.Helper()
	if config.Settings == (quiz.Settings{}) {
		config.Settings = quiz.DefaultSettings()
	}
	if config.TickInterval == 0 {
		config.TickInterval = 5 * time.Millisecond
	}
	f := &sessionFixture{
		source:    new(MockQuestionSource),
		submitter: newRecordingSubmitter(submitErr),
		records:   newMemoryRecords(),
		publisher: events.NewMockEventPublisher(testLogger()),
		metrics:   metrics.New(prometheus.NewRegistry()),
	}
	f.service = NewQuizSessionService(
		f.source, f.submitter, f.records, f.publisher, f.metrics,
		validator.New(), testLogger(),
		config,
	)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = f.service.Shutdown(ctx)
	})
	return f
}

func startRequest(teacher bool) *models.StartSessionRequest {
	return &models.StartSessionRequest{QuizID: "12", ContentID: "34", TeacherTestMode: teacher}
}

func setText(v string) *models.EditAnswerRequest {
	return &models.EditAnswerRequest{Op: models.OpSetText, Value: v}
}

func answerAndAdvance(t *testing.T, s QuizSessionService, id, value string) *SessionView {
	t.Helper()
	ctx := context.Background()
	_, err := s.Edit(ctx, id, setText(value))
	require.NoError(t, err)
	view, err := s.Submit(ctx, id)
	require.NoError(t, err)
	require.Equal(t, quiz.PhaseFeedback, view.Phase)
	require.NotNil(t, view.Question.CorrectAnswer)
	view, err = s.Next(ctx, id)
	require.NoError(t, err)
	return view
}

func TestQuizSessionService_CompletesAndSubmitsOnce(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.source.On("GetQuestions", mock.Anything, "12").Return(twoQuestions(), nil)
	ctx := context.Background()

	view, err := f.service.Start(ctx, startRequest(false))
	require.NoError(t, err)
	assert.Equal(t, quiz.PhaseAnswering, view.Phase)
	assert.Equal(t, 2, view.QuestionCount)
	assert.Equal(t, []string{"3", "4", "5"}, view.Question.Choices)
	assert.Nil(t, view.Question.CorrectAnswer)
	assert.False(t, view.CanSubmit)

	answerAndAdvance(t, f.service, view.ID, "4")
	view = answerAndAdvance(t, f.service, view.ID, "Faux")
	assert.Equal(t, quiz.PhaseCompleting, view.Phase)
	require.NotNil(t, view.Summary)
	assert.Equal(t, 50.0, view.Summary.Percentage)

	select {
	case got := <-f.submitter.submissions:
		assert.Equal(t, models.ScoreSubmission{ContentID: "34", QuizID: "12", Score: 1}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("score was never submitted")
	}

	select {
	case id := <-f.records.saved:
		record, err := f.records.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 1, record.Score)
		assert.JSONEq(t, `[true,false]`, string(record.Results))
	case <-time.After(2 * time.Second):
		t.Fatal("session record was never saved")
	}

	view, err = f.service.Get(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, quiz.PhaseDone, view.Phase)

	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, f.submitter.submissions)
	assert.Eventually(t, func() bool {
		return len(f.publisher.EventsOfType(events.EventQuizCompleted)) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.QuizzesCompleted))
}

func TestQuizSessionService_TeacherTestModeSkipsSubmission(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.source.On("GetQuestions", mock.Anything, "12").Return(twoQuestions()[:1], nil)
	ctx := context.Background()

	view, err := f.service.Start(ctx, startRequest(true))
	require.NoError(t, err)
	answerAndAdvance(t, f.service, view.ID, "4")

	select {
	case <-f.records.saved:
	case <-time.After(2 * time.Second):
		t.Fatal("session record was never saved")
	}
	assert.Empty(t, f.submitter.submissions)
}

func TestQuizSessionService_SubmissionFailureIsPublished(t *testing.T) {
	f := newSessionFixture(t, errors.New("backend down"))
	f.source.On("GetQuestions", mock.Anything, "12").Return(twoQuestions()[:1], nil)

	view, err := f.service.Start(context.Background(), startRequest(false))
	require.NoError(t, err)
	answerAndAdvance(t, f.service, view.ID, "4")

	assert.Eventually(t, func() bool {
		failed := f.publisher.EventsOfType(events.EventScoreSubmissionFailed)
		return len(failed) == 1 && failed[0].Data.(events.ScoreSubmissionFailedEvent).Score == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestQuizSessionService_FetchFailureAndRetry(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.source.On("GetQuestions", mock.Anything, "12").Return(nil, errors.New("timeout")).Once()
	f.source.On("GetQuestions", mock.Anything, "12").Return(twoQuestions(), nil).Once()
	ctx := context.Background()

	view, err := f.service.Start(ctx, startRequest(false))
	require.NoError(t, err)
	assert.Equal(t, quiz.PhaseFailed, view.Phase)
	assert.Equal(t, "timeout", view.LoadError)
	assert.NotEmpty(t, view.Messages.Retry)

	view, err = f.service.Retry(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, quiz.PhaseAnswering, view.Phase)
	f.source.AssertExpectations(t)
}

func TestQuizSessionService_EmptyQuiz(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.source.On("GetQuestions", mock.Anything, "12").Return([]models.QuizQuestion{}, nil)

	view, err := f.service.Start(context.Background(), startRequest(false))

	require.NoError(t, err)
	assert.Equal(t, quiz.PhaseEmpty, view.Phase)
	assert.Nil(t, view.Question)

	_, err = f.service.Submit(context.Background(), view.ID)
	assert.True(t, IsBusinessRule(err))
}

func TestQuizSessionService_RejectedTransitions(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.source.On("GetQuestions", mock.Anything, "12").Return(twoQuestions(), nil)
	ctx := context.Background()

	view, err := f.service.Start(ctx, startRequest(false))
	require.NoError(t, err)

	_, err = f.service.Submit(ctx, view.ID)
	var rule *BusinessRuleError
	require.ErrorAs(t, err, &rule)
	assert.Equal(t, "answer_incomplete", rule.Rule)

	_, err = f.service.Edit(ctx, view.ID, setText("4"))
	require.NoError(t, err)
	_, err = f.service.Submit(ctx, view.ID)
	require.NoError(t, err)

	_, err = f.service.Edit(ctx, view.ID, setText("3"))
	require.ErrorAs(t, err, &rule)
	assert.Equal(t, "question_locked", rule.Rule)
	assert.ErrorIs(t, err, quiz.ErrQuestionLocked)

	_, err = f.service.Edit(ctx, view.ID, &models.EditAnswerRequest{Op: "swap"})
	assert.True(t, IsValidation(err))
}

func TestQuizSessionService_CloseNeverCompletes(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.source.On("GetQuestions", mock.Anything, "12").Return(twoQuestions()[:1], nil)
	ctx := context.Background()

	view, err := f.service.Start(ctx, startRequest(false))
	require.NoError(t, err)
	_, err = f.service.Edit(ctx, view.ID, setText("4"))
	require.NoError(t, err)
	_, err = f.service.Submit(ctx, view.ID)
	require.NoError(t, err)
	_, err = f.service.Next(ctx, view.ID)
	require.NoError(t, err)

	closed, err := f.service.Close(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, quiz.PhaseClosed, closed.Phase)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, f.submitter.submissions)
	assert.Empty(t, f.publisher.EventsOfType(events.EventQuizCompleted))

	_, err = f.service.Get(ctx, view.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.service.Close(ctx, view.ID)
	assert.True(t, IsNotFound(err))
}

func TestQuizSessionService_StartValidation(t *testing.T) {
	f := newSessionFixture(t, nil)

	_, err := f.service.Start(context.Background(), &models.StartSessionRequest{ContentID: "34"})

	assert.True(t, IsValidation(err))
	f.source.AssertNotCalled(t, "GetQuestions", mock.Anything, mock.Anything)
}

func TestQuizSessionService_ArabicQuizIsRTL(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.source.On("GetQuestions", mock.Anything, "12").Return([]models.QuizQuestion{
		question("ما هي عاصمة المغرب؟", models.ShortAnswer, `null`, `"الرباط"`),
	}, nil)

	view, err := f.service.Start(context.Background(), startRequest(false))

	require.NoError(t, err)
	assert.Equal(t, quiz.Arabic, view.Language)
	assert.True(t, view.RTL)
}

func TestQuizSessionService_FinishedSessionIsEvictedAfterRetention(t *testing.T) {
	f := newSessionFixtureWith(t, nil, SessionConfig{Retention: 30 * time.Millisecond})
	f.source.On("GetQuestions", mock.Anything, "12").Return(twoQuestions()[:1], nil)
	ctx := context.Background()

	view, err := f.service.Start(ctx, startRequest(false))
	require.NoError(t, err)
	answerAndAdvance(t, f.service, view.ID, "4")

	assert.Eventually(t, func() bool {
		_, err := f.service.Get(ctx, view.ID)
		return errors.Is(err, ErrSessionNotFound)
	}, 2*time.Second, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		closed := f.publisher.EventsOfType(events.EventSessionClosed)
		return len(closed) == 1 &&
			closed[0].Data.(events.SessionClosedEvent).Reason == events.CloseReasonRetention &&
			closed[0].Data.(events.SessionClosedEvent).Phase == string(quiz.PhaseDone)
	}, time.Second, 5*time.Millisecond)
	assert.Len(t, f.publisher.EventsOfType(events.EventQuizCompleted), 1)
	assert.Equal(t, float64(0), testutil.ToFloat64(f.metrics.ActiveSessions))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.SessionsEvicted.WithLabelValues(events.CloseReasonRetention)))
}

func TestQuizSessionService_EvictsIdleSessions(t *testing.T) {
	f := newSessionFixtureWith(t, nil, SessionConfig{IdleTimeout: time.Minute, SweepInterval: time.Hour})
	f.source.On("GetQuestions", mock.Anything, "12").Return(twoQuestions(), nil)
	ctx := context.Background()
	svc := f.service.(*quizSessionService)

	abandoned, err := f.service.Start(ctx, startRequest(false))
	require.NoError(t, err)
	active, err := f.service.Start(ctx, startRequest(false))
	require.NoError(t, err)

	sess, err := svc.lookup(active.ID)
	require.NoError(t, err)
	sess.touch(time.Now().Add(45 * time.Second))

	assert.Equal(t, 0, svc.evictIdle(time.Now().Add(30*time.Second)))
	assert.Equal(t, 1, svc.evictIdle(time.Now().Add(61*time.Second)))

	_, err = f.service.Get(ctx, abandoned.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.service.Get(ctx, active.ID)
	assert.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.ActiveSessions))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.SessionsEvicted.WithLabelValues(events.CloseReasonIdle)))
	assert.Empty(t, f.publisher.EventsOfType(events.EventQuizCompleted))
}

func TestQuizSessionService_IdleSweepRuns(t *testing.T) {
	f := newSessionFixtureWith(t, nil, SessionConfig{IdleTimeout: 20 * time.Millisecond, SweepInterval: 5 * time.Millisecond})
	f.source.On("GetQuestions", mock.Anything, "12").Return(twoQuestions(), nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.service.Start(ctx, startRequest(false))
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(f.metrics.SessionsEvicted.WithLabelValues(events.CloseReasonIdle)) == 5
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, float64(0), testutil.ToFloat64(f.metrics.ActiveSessions))
	assert.Empty(t, f.submitter.submissions)
}

func TestQuizSessionService_ActiveGaugeTracksTerminalPhases(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.source.On("GetQuestions", mock.Anything, "empty").Return([]models.QuizQuestion{}, nil)
	f.source.On("GetQuestions", mock.Anything, "12").Return(twoQuestions()[:1], nil)
	ctx := context.Background()

	_, err := f.service.Start(ctx, &models.StartSessionRequest{QuizID: "empty", ContentID: "34"})
	require.NoError(t, err)
	assert.Equal(t, float64(0), testutil.ToFloat64(f.metrics.ActiveSessions))

	view, err := f.service.Start(ctx, startRequest(false))
	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.ActiveSessions))

	answerAndAdvance(t, f.service, view.ID, "4")
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(f.metrics.ActiveSessions) == 0
	}, 2*time.Second, 5*time.Millisecond)

	// closing a finished session must not count it twice
	_, err = f.service.Close(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(0), testutil.ToFloat64(f.metrics.ActiveSessions))
}
