package batch

import (
	"time"

	"github.com/sirupsen/logrus"
)

// RunnerBuilderOption is a functional option for configuring a Runner via NewRunner.
type RunnerBuilderOption func(*runner)

// WithWorkers is an option builder that sets the maximum number of pool workers.
//
// Parameters:
//   - n: the worker count; values below 1 are ignored
//
// Returns:
//   - RunnerBuilderOption: a function that applies the workers option to a runner
func WithWorkers(n int) RunnerBuilderOption {
	return func(r *runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithQueueSize is an option builder that sets the pool task queue capacity.
//
// Parameters:
//   - n: the queue size; negative values are ignored
//
// Returns:
//   - RunnerBuilderOption: a function that applies the queue size option to a runner
func WithQueueSize(n int) RunnerBuilderOption {
	return func(r *runner) {
		if n >= 0 {
			r.queueSize = n
		}
	}
}

// WithIdleTimeout is an option builder that sets how long an idle worker is kept.
//
// Parameters:
//   - d: the idle timeout
//
// Returns:
//   - RunnerBuilderOption: a function that applies the idle timeout option to a runner
func WithIdleTimeout(d time.Duration) RunnerBuilderOption {
	return func(r *runner) {
		r.idleTimeout = d
	}
}

// WithLogger is an option builder that sets the logger used for run summaries and warnings.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - RunnerBuilderOption: a function that applies the logger option to a runner
func WithLogger(logger logrus.FieldLogger) RunnerBuilderOption {
	return func(r *runner) {
		r.logger = logger
	}
}
