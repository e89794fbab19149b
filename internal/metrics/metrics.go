package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	ActiveSessions    prometheus.Gauge       // sessions not yet in a terminal phase
	SessionsEvicted   *prometheus.CounterVec // by reason
	SessionsStarted   *prometheus.CounterVec // by initial phase
	QuestionsGraded   *prometheus.CounterVec // by type, result
	QuizzesCompleted  prometheus.Counter
	CompletionScore   prometheus.Histogram // percentage
	ScoreSubmissions  *prometheus.CounterVec // by status
	QuestionFetchTime prometheus.Histogram

	gatherer prometheus.Gatherer
}

// New builds the collectors and registers them on reg. reg must also be a
// prometheus.Gatherer for Handler to expose them.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quiz_active_sessions",
			Help: "Quiz sessions that have not reached a terminal phase",
		}),
		SessionsEvicted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_sessions_evicted_total",
				Help: "Quiz sessions removed from memory, by reason",
			},
			[]string{"reason"},
		),
		SessionsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_sessions_started_total",
				Help: "Quiz sessions started, by the phase they started in",
			},
			[]string{"phase"},
		),
		QuestionsGraded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_questions_graded_total",
				Help: "Graded questions by type and result",
			},
			[]string{"type", "result"},
		),
		QuizzesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_completed_total",
			Help: "Quiz sessions that reached completion",
		}),
		CompletionScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quiz_completion_percentage",
			Help:    "Score percentage of completed quizzes",
			Buckets: []float64{20, 40, 60, 80, 100},
		}),
		ScoreSubmissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_score_submissions_total",
				Help: "Score submissions by outcome",
			},
			[]string{"status"},
		),
		QuestionFetchTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quiz_question_fetch_duration_seconds",
			Help:    "Duration of question fetches",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.RequestCounter,
		m.RequestDuration,
		m.ActiveSessions,
		m.SessionsEvicted,
		m.SessionsStarted,
		m.QuestionsGraded,
		m.QuizzesCompleted,
		m.CompletionScore,
		m.ScoreSubmissions,
		m.QuestionFetchTime,
	)
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}
	return m
}

func (m *Metrics) MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		m.RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		m.RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func (m *Metrics) PrometheusHandler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func Result(correct bool) string {
	if correct {
		return "correct"
	}
	return "incorrect"
}
