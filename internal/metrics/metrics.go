package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vietddude/taskwatch/internal/core/domain"
)

var (
	// TasksTotal tracks tasks started per monitor, level and visibility
	TasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskwatch_tasks_total",
			Help: "Total number of monitored tasks",
		},
		[]string{"monitor", "level", "visible"},
	)

	// AttemptFailuresTotal tracks failed attempts of task work
	AttemptFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskwatch_attempt_failures_total",
			Help: "Total number of failed work attempts",
		},
		[]string{"monitor", "level"},
	)

	// RetriesTotal tracks retries after a successful recovery
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskwatch_retries_total",
			Help: "Total number of retries",
		},
		[]string{"monitor"},
	)

	// ExhaustedTotal tracks tasks that used up every try
	ExhaustedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskwatch_exhausted_total",
			Help: "Total number of tasks whose tries were exhausted",
		},
		[]string{"monitor", "disposition"},
	)

	// RecoveryFailuresTotal tracks recovery funcs that failed
	RecoveryFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskwatch_recovery_failures_total",
			Help: "Total number of failed recovery funcs",
		},
		[]string{"monitor"},
	)

	// SinkErrorsTotal tracks sink write and flush failures
	SinkErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskwatch_sink_errors_total",
			Help: "Total number of sink write or flush errors",
		},
		[]string{"monitor"},
	)
)

// Recorder exports monitor events for one named monitor.
type Recorder struct {
	name string
}

// NewRecorder returns a recorder labelling every series with name.
func NewRecorder(name string) *Recorder {
	return &Recorder{name: name}
}

func (r *Recorder) TaskStarted(level domain.Level, visible bool) {
	TasksTotal.WithLabelValues(r.name, level.String(), strconv.FormatBool(visible)).Inc()
}

func (r *Recorder) AttemptFailed(level domain.Level) {
	AttemptFailuresTotal.WithLabelValues(r.name, level.String()).Inc()
}

func (r *Recorder) Retried() {
	RetriesTotal.WithLabelValues(r.name).Inc()
}

func (r *Recorder) Exhausted(d domain.Disposition) {
	ExhaustedTotal.WithLabelValues(r.name, d.String()).Inc()
}

func (r *Recorder) RecoveryFailed() {
	RecoveryFailuresTotal.WithLabelValues(r.name).Inc()
}

func (r *Recorder) SinkFailed() {
	SinkErrorsTotal.WithLabelValues(r.name).Inc()
}
