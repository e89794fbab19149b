package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/metrics"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/quiz"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/google/uuid"
)

const (
	backgroundTimeout = 10 * time.Second

	defaultRetention     = 2 * time.Minute
	defaultIdleTimeout   = 30 * time.Minute
	defaultSweepInterval = time.Minute
)

type QuizSessionService interface {
	Start(ctx context.Context, req *models.StartSessionRequest) (*SessionView, error)
	Get(ctx context.Context, id string) (*SessionView, error)
	Edit(ctx context.Context, id string, req *models.EditAnswerRequest) (*SessionView, error)
	Submit(ctx context.Context, id string) (*SessionView, error)
	Next(ctx context.Context, id string) (*SessionView, error)
	Continue(ctx context.Context, id string) (*SessionView, error)
	Retry(ctx context.Context, id string) (*SessionView, error)
	Close(ctx context.Context, id string) (*SessionView, error)

	// Shutdown closes every live session and waits for pending submissions
	Shutdown(ctx context.Context) error
}

type SessionConfig struct {
	Settings     quiz.Settings
	TickInterval time.Duration

	// Retention is how long a Done or Empty session stays readable
	Retention time.Duration
	// IdleTimeout evicts sessions no request has touched for that long
	IdleTimeout   time.Duration
	SweepInterval time.Duration
}

type session struct {
	id        string
	request   models.StartSessionRequest
	runner    *quiz.Runner
	startedAt time.Time

	lastSeen atomic.Int64 // unix nanos
	finished sync.Once
}

func (sess *session) touch(now time.Time) {
	sess.lastSeen.Store(now.UnixNano())
}

func (sess *session) idleFor(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, sess.lastSeen.Load()))
}

type quizSessionService struct {
	source    repositories.QuestionSource
	submitter repositories.ScoreSubmitter
	records   repositories.SessionRecordRepository
	publisher events.EventPublisher
	metrics   *metrics.Metrics
	validator *validator.Validator
	logger    *ServiceLogger
	config    SessionConfig

	mu       sync.RWMutex
	sessions map[string]*session

	background sync.WaitGroup
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewQuizSessionService wires the session registry. records and m may be nil.
func NewQuizSessionService(
	source repositories.QuestionSource,
	submitter repositories.ScoreSubmitter,
	records repositories.SessionRecordRepository,
	publisher events.EventPublisher,
	m *metrics.Metrics,
	v *validator.Validator,
	logger *slog.Logger,
	config SessionConfig,
) QuizSessionService {
	if config.TickInterval <= 0 {
		config.TickInterval = time.Second
	}
	if config.Retention <= 0 {
		config.Retention = defaultRetention
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = defaultIdleTimeout
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = defaultSweepInterval
	}
	s := &quizSessionService{
		source:    source,
		submitter: submitter,
		records:   records,
		publisher: publisher,
		metrics:   m,
		validator: v,
		logger:    NewServiceLogger(logger, LogConfig{Service: "quiz", Component: "session"}),
		config:    config,
		sessions:  make(map[string]*session),
		stop:      make(chan struct{}),
	}
	go s.sweepIdle()
	return s
}

func (s *quizSessionService) Start(ctx context.Context, req *models.StartSessionRequest) (view *SessionView, err error) {
	op := s.logger.WithOperation(ctx, "start_session")
	sess := &session{id: uuid.NewString(), startedAt: time.Now()}
	sess.touch(sess.startedAt)
	defer func() { op.LogResult(sess.id, "session", err) }()

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	sess.request = *req

	sess.runner = quiz.NewRunner(
		s.loader(req.QuizID),
		func(score int) { s.onComplete(sess, score) },
		quiz.WithSettings(s.config.Settings),
		quiz.WithTickInterval(s.config.TickInterval),
		quiz.WithLogger(s.logger.Logger().With("session_id", sess.id, "quiz_id", req.QuizID)),
		quiz.WithGradedHook(func(g quiz.Graded, state quiz.State) { s.onGraded(sess, g, state) }),
	)

	state := sess.runner.Start(ctx)

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ActiveSessions.Inc()
		s.metrics.SessionsStarted.WithLabelValues(string(state.Phase)).Inc()
	}
	if state.Phase.Terminal() {
		s.finish(sess)
		s.scheduleEviction(sess)
	}
	view = newSessionView(sess, state)
	s.publish(events.EventSessionStarted, events.SessionStartedEvent{
		SessionID:       sess.id,
		ContentID:       req.ContentID,
		QuizID:          req.QuizID,
		QuestionCount:   len(state.Questions),
		Language:        string(view.Language),
		TeacherTestMode: req.TeacherTestMode,
	})
	return view, nil
}

func (s *quizSessionService) Get(ctx context.Context, id string) (*SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	sess.touch(time.Now())
	return newSessionView(sess, sess.runner.Snapshot()), nil
}

func (s *quizSessionService) Edit(ctx context.Context, id string, req *models.EditAnswerRequest) (*SessionView, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	edit, err := req.ToEdit()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return s.dispatch(id, func(r *quiz.Runner) (quiz.State, error) { return r.Edit(edit) })
}

func (s *quizSessionService) Submit(ctx context.Context, id string) (*SessionView, error) {
	return s.dispatch(id, (*quiz.Runner).Submit)
}

func (s *quizSessionService) Next(ctx context.Context, id string) (*SessionView, error) {
	return s.dispatch(id, (*quiz.Runner).Next)
}

func (s *quizSessionService) Continue(ctx context.Context, id string) (*SessionView, error) {
	return s.dispatch(id, (*quiz.Runner).Continue)
}

func (s *quizSessionService) Retry(ctx context.Context, id string) (*SessionView, error) {
	return s.dispatch(id, func(r *quiz.Runner) (quiz.State, error) { return r.Retry(ctx) })
}

// Close unmounts a session. It stops its timers and removes it from the
// registry; a session closed before Done never completes.
func (s *quizSessionService) Close(ctx context.Context, id string) (*SessionView, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	state := s.closeSession(sess, events.CloseReasonClient)
	return newSessionView(sess, state), nil
}

func (s *quizSessionService) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })

	s.mu.Lock()
	live := make([]*session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		live = append(live, sess)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	for _, sess := range live {
		s.closeSession(sess, events.CloseReasonShutdown)
	}

	done := make(chan struct{})
	go func() {
		s.background.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// closeSession stops a session already removed from the registry
func (s *quizSessionService) closeSession(sess *session, reason string) quiz.State {
	state := sess.runner.Close()
	s.finish(sess)
	if s.metrics != nil && reason != events.CloseReasonClient {
		s.metrics.SessionsEvicted.WithLabelValues(reason).Inc()
	}
	s.logger.Logger().Debug("Quiz session closed",
		"session_id", sess.id,
		"phase", state.Phase,
		"reason", reason)
	s.publish(events.EventSessionClosed, events.SessionClosedEvent{
		SessionID: sess.id,
		QuizID:    sess.request.QuizID,
		Phase:     string(state.Phase),
		Reason:    reason,
	})
	return state
}

// finish takes a session out of the active gauge, once
func (s *quizSessionService) finish(sess *session) {
	sess.finished.Do(func() {
		if s.metrics != nil {
			s.metrics.ActiveSessions.Dec()
		}
	})
}

// evict removes sess unless it was already closed or replaced
func (s *quizSessionService) evict(sess *session, reason string) bool {
	s.mu.Lock()
	current, ok := s.sessions[sess.id]
	if ok && current == sess {
		delete(s.sessions, sess.id)
	}
	s.mu.Unlock()
	if !ok || current != sess {
		return false
	}
	s.closeSession(sess, reason)
	return true
}

func (s *quizSessionService) scheduleEviction(sess *session) {
	time.AfterFunc(s.config.Retention, func() {
		s.evict(sess, events.CloseReasonRetention)
	})
}

func (s *quizSessionService) sweepIdle() {
	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			if n := s.evictIdle(now); n > 0 {
				s.logger.Logger().Info("Evicted idle quiz sessions", "count", n)
			}
		}
	}
}

// evictIdle closes every session untouched for IdleTimeout as of now
func (s *quizSessionService) evictIdle(now time.Time) int {
	s.mu.Lock()
	var idle []*session
	for id, sess := range s.sessions {
		if sess.idleFor(now) >= s.config.IdleTimeout {
			idle = append(idle, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range idle {
		s.closeSession(sess, events.CloseReasonIdle)
	}
	return len(idle)
}

func (s *quizSessionService) lookup(id string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *quizSessionService) dispatch(id string, fn func(*quiz.Runner) (quiz.State, error)) (*SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	sess.touch(time.Now())
	state, err := fn(sess.runner)
	if err != nil {
		if state.Phase == quiz.PhaseClosed {
			return nil, ErrSessionClosed
		}
		return nil, sessionRuleError(err, state.Phase)
	}
	return newSessionView(sess, state), nil
}

func (s *quizSessionService) loader(quizID string) quiz.LoadFunc {
	return func(ctx context.Context) ([]models.Question, error) {
		start := time.Now()
		records, err := s.source.GetQuestions(ctx, quizID)
		if s.metrics != nil {
			s.metrics.QuestionFetchTime.Observe(time.Since(start).Seconds())
		}
		if err != nil {
			return nil, err
		}
		return models.DecodeQuestions(records)
	}
}

// onGraded runs on the goroutine that graded the question, after the runner
// released its lock
func (s *quizSessionService) onGraded(sess *session, g quiz.Graded, state quiz.State) {
	kind := string(state.Questions[g.Index].Kind())
	if s.metrics != nil {
		s.metrics.QuestionsGraded.WithLabelValues(kind, metrics.Result(g.Correct)).Inc()
	}
	s.publish(events.EventQuestionGraded, events.QuestionGradedEvent{
		SessionID:     sess.id,
		QuizID:        sess.request.QuizID,
		QuestionIndex: g.Index,
		QuestionType:  kind,
		Correct:       g.Correct,
		TimedOut:      g.TimedOut,
		Score:         state.Score,
	})
}

// onComplete is the session's completion callback. The runner guarantees it
// runs at most once per session.
func (s *quizSessionService) onComplete(sess *session, score int) {
	state := sess.runner.Snapshot()
	summary := quiz.Summarize(score, len(state.Questions))
	completedAt := time.Now()

	s.finish(sess)
	s.scheduleEviction(sess)
	if s.metrics != nil {
		s.metrics.QuizzesCompleted.Inc()
		s.metrics.CompletionScore.Observe(summary.Percentage)
	}

	s.logger.Logger().Info("Quiz completed",
		"session_id", sess.id,
		"quiz_id", sess.request.QuizID,
		"score", score,
		"total", summary.Total,
		"teacher_test_mode", sess.request.TeacherTestMode)

	s.publish(events.EventQuizCompleted, events.QuizCompletedEvent{
		SessionID:       sess.id,
		ContentID:       sess.request.ContentID,
		QuizID:          sess.request.QuizID,
		Score:           score,
		Total:           summary.Total,
		Percentage:      summary.Percentage,
		Rating:          string(summary.Rating),
		TeacherTestMode: sess.request.TeacherTestMode,
		CompletedAt:     completedAt,
	})

	s.goBackground(func(ctx context.Context) {
		if !sess.request.TeacherTestMode {
			s.submitScore(ctx, models.ScoreSubmission{
				ContentID: sess.request.ContentID,
				QuizID:    sess.request.QuizID,
				Score:     score,
			})
		}
		s.saveRecord(ctx, sess, state, summary, completedAt)
	})
}

// submitScore is fire-and-forget: a failure is logged and published, never
// surfaced to the learner
func (s *quizSessionService) submitScore(ctx context.Context, submission models.ScoreSubmission) {
	err := s.submitter.SubmitScore(ctx, submission)
	status := "success"
	if err != nil {
		status = "failed"
		s.logger.Logger().Error("Failed to submit quiz score",
			"quiz_id", submission.QuizID,
			"content_id", submission.ContentID,
			"score", submission.Score,
			"error", err)
		s.publishNow(ctx, events.EventScoreSubmissionFailed, events.ScoreSubmissionFailedEvent{
			ContentID: submission.ContentID,
			QuizID:    submission.QuizID,
			Score:     submission.Score,
			Error:     err.Error(),
		})
	}
	if s.metrics != nil {
		s.metrics.ScoreSubmissions.WithLabelValues(status).Inc()
	}
}

func (s *quizSessionService) saveRecord(ctx context.Context, sess *session, state quiz.State, summary quiz.Summary, completedAt time.Time) {
	if s.records == nil {
		return
	}
	results, err := json.Marshal(state.Results)
	if err != nil {
		s.logger.Logger().Error("Failed to encode session results", "session_id", sess.id, "error", err)
		return
	}
	record := &models.SessionRecord{
		ID:              sess.id,
		ContentID:       sess.request.ContentID,
		QuizID:          sess.request.QuizID,
		Score:           summary.Score,
		Total:           summary.Total,
		Percentage:      summary.Percentage,
		Rating:          string(summary.Rating),
		Language:        string(quiz.DetectLanguage(state.Questions)),
		TeacherTestMode: sess.request.TeacherTestMode,
		Results:         results,
		StartedAt:       sess.startedAt,
		CompletedAt:     completedAt,
	}
	if err := s.records.Save(ctx, record); err != nil {
		s.logger.Logger().Error("Failed to save session record", "session_id", sess.id, "error", err)
	}
}

func (s *quizSessionService) publish(eventType events.EventType, data interface{}) {
	s.goBackground(func(ctx context.Context) {
		s.publishNow(ctx, eventType, data)
	})
}

func (s *quizSessionService) publishNow(ctx context.Context, eventType events.EventType, data interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishQuizEvent(ctx, events.NewQuizEvent(eventType, data)); err != nil {
		s.logger.Logger().Warn("Failed to publish quiz event", "event_type", eventType, "error", err)
	}
}

func (s *quizSessionService) goBackground(fn func(ctx context.Context)) {
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()
		fn(ctx)
	}()
}
