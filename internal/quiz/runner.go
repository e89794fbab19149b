package quiz

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// LoadFunc fetches the ordered question list of a quiz
type LoadFunc func(ctx context.Context) ([]models.Question, error)

type Option func(*Runner)

// WithTickInterval replaces the one second tick used by both timers
func WithTickInterval(d time.Duration) Option {
	return func(r *Runner) {
		r.tickInterval = d
	}
}

func WithSettings(s Settings) Option {
	return func(r *Runner) {
		r.state = NewState(s)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithGradedHook registers a callback run after each question is graded
func WithGradedHook(fn func(Graded, State)) Option {
	return func(r *Runner) {
		r.onGraded = fn
	}
}

// Runner drives one State with real timers. All events are serialized; timer
// goroutines feed ticks back through Dispatch.
type Runner struct {
	mu           sync.Mutex
	state        State
	load         LoadFunc
	onComplete   func(score int)
	onGraded     func(Graded, State)
	completeOnce sync.Once
	tickInterval time.Duration
	logger       *slog.Logger

	stopTimer context.CancelFunc
	timers    sync.WaitGroup
}

func NewRunner(load LoadFunc, onComplete func(score int), opts ...Option) *Runner {
	r := &Runner{
		state:        NewState(DefaultSettings()),
		load:         load,
		onComplete:   onComplete,
		tickInterval: time.Second,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start performs the initial fetch. A fetch error leaves the session in
// PhaseFailed and is not returned.
func (r *Runner) Start(ctx context.Context) State {
	return r.fetch(ctx)
}

// Retry restarts a failed session from Loading and fetches again
func (r *Runner) Retry(ctx context.Context) (State, error) {
	if _, err := r.Dispatch(Retry{}); err != nil {
		return r.Snapshot(), err
	}
	return r.fetch(ctx), nil
}

func (r *Runner) fetch(ctx context.Context) State {
	questions, err := r.load(ctx)
	var ev Event = Loaded{Questions: questions}
	if err != nil {
		r.logger.Warn("Failed to load quiz questions", "error", err)
		ev = LoadFailed{Err: err}
	}
	state, dispatchErr := r.Dispatch(ev)
	if dispatchErr != nil {
		// closed while the fetch was in flight
		r.logger.Debug("Dropping fetch result", "phase", state.Phase, "error", dispatchErr)
	}
	return state
}

func (r *Runner) Edit(edit models.Edit) (State, error) {
	return r.Dispatch(EditAnswer{Edit: edit})
}

func (r *Runner) Submit() (State, error) {
	return r.Dispatch(Submit{})
}

func (r *Runner) Next() (State, error) {
	return r.Dispatch(Next{})
}

func (r *Runner) Continue() (State, error) {
	return r.Dispatch(Continue{})
}

// Close stops both timers and waits for them to exit. A session closed before
// Done never reports completion. It must not be called from the completion
// callback or a graded hook, which run on timer goroutines.
func (r *Runner) Close() State {
	state, _ := r.Dispatch(Close{})
	r.timers.Wait()
	return state
}

// Dispatch applies one event and carries out its effects
func (r *Runner) Dispatch(ev Event) (State, error) {
	r.mu.Lock()
	next, effects, err := Reduce(r.state, ev)
	if err != nil {
		snapshot := r.snapshotLocked()
		r.mu.Unlock()
		return snapshot, err
	}
	r.state = next

	var after []func()
	for _, effect := range effects {
		switch e := effect.(type) {
		case StopTimers:
			r.cancelTimerLocked()
		case StartQuestionTimer:
			r.startTimerLocked(e.Epoch, func(epoch uint64) Event { return QuestionTick{Epoch: epoch} })
		case StartCompletionTimer:
			r.startTimerLocked(e.Epoch, func(epoch uint64) Event { return CompletionTick{Epoch: epoch} })
		case Graded:
			if r.onGraded != nil {
				graded, state := e, r.snapshotLocked()
				after = append(after, func() { r.onGraded(graded, state) })
			}
		case Completed:
			score := e.Score
			after = append(after, func() {
				r.completeOnce.Do(func() {
					if r.onComplete != nil {
						r.onComplete(score)
					}
				})
			})
		case FetchQuestions:
			// performed by Retry once the lock is released
		}
	}
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	for _, fn := range after {
		fn()
	}
	return snapshot, nil
}

// Snapshot returns a copy of the current state that shares nothing mutable
func (r *Runner) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Runner) snapshotLocked() State {
	s := r.state
	if s.Answer != nil {
		s.Answer = CloneAnswer(s.Answer)
	}
	s.Results = append([]bool(nil), s.Results...)
	return s
}

func (r *Runner) startTimerLocked(epoch uint64, tick func(uint64) Event) {
	r.cancelTimerLocked()

	ctx, cancel := context.WithCancel(context.Background())
	r.stopTimer = cancel
	r.timers.Add(1)

	go func() {
		defer r.timers.Done()
		ticker := time.NewTicker(r.tickInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := r.Dispatch(tick(epoch)); err != nil {
					r.logger.Error("Timer tick rejected", "epoch", epoch, "error", err)
				}
			}
		}
	}()
}

func (r *Runner) cancelTimerLocked() {
	if r.stopTimer != nil {
		r.stopTimer()
		r.stopTimer = nil
	}
}
