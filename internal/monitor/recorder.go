package monitor

import (
	"github.com/vietddude/taskwatch/internal/core/domain"
)

// Recorder observes monitor events, typically to export metrics. Calls are
// made synchronously and must not block.
type Recorder interface {
	TaskStarted(level domain.Level, visible bool)
	AttemptFailed(level domain.Level)
	Retried()
	Exhausted(d domain.Disposition)
	RecoveryFailed()
	SinkFailed()
}

type nopRecorder struct{}

func (nopRecorder) TaskStarted(domain.Level, bool) {}
func (nopRecorder) AttemptFailed(domain.Level)     {}
func (nopRecorder) Retried()                       {}
func (nopRecorder) Exhausted(domain.Disposition)   {}
func (nopRecorder) RecoveryFailed()                {}
func (nopRecorder) SinkFailed()                    {}
