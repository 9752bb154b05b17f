// Package batch runs mesh-processing steps over many StaticGeometry values on a shared worker pool.
// Each mesh is processed by exactly one task, so the single-owner rule of StaticGeometry holds.
package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-mesh/engine/geometry"
	"github.com/Carmen-Shannon/oxy-mesh/engine/logging"

	"github.com/sirupsen/logrus"
)

// ErrClosed is returned by Run after Close.
var ErrClosed = errors.New("batch runner is closed")

// runner is the implementation of the Runner interface.
type runner struct {
	mu     sync.Mutex
	pool   worker.DynamicWorkerPool
	closed bool

	workers     int
	queueSize   int
	idleTimeout time.Duration

	logger logrus.FieldLogger
}

// Runner defines the interface for running mesh-processing steps in parallel.
type Runner interface {
	// Run applies steps, in order, to every mesh. Meshes are processed concurrently; the
	// steps for any one mesh run sequentially on a single worker. The context is checked
	// before each step. A degenerate-geometry result is logged and does not stop the mesh.
	// Concurrent calls run one after another.
	//
	// Parameters:
	//   - ctx: cancels steps not yet started
	//   - geoms: the meshes to process; none may be shared with another goroutine during Run
	//   - steps: the steps to apply
	//
	// Returns:
	//   - error: the joined failures of every mesh, or nil
	Run(ctx context.Context, geoms []geometry.StaticGeometry, steps ...Step) error

	// Workers returns the configured maximum number of workers.
	//
	// Returns:
	//   - int: the worker count
	Workers() int

	// Close stops the pool's workers. Every later Run fails with ErrClosed.
	Close()
}

var _ Runner = &runner{}

// NewRunner creates a new Runner with the specified options applied.
// By default it uses one worker per CPU but one, a queue of 256 tasks and a 1s idle timeout.
//
// Parameters:
//   - options: a variadic list of RunnerBuilderOption functions
//
// Returns:
//   - Runner: the new runner
func NewRunner(options ...RunnerBuilderOption) Runner {
	r := &runner{
		workers:     max(runtime.NumCPU()-1, 1),
		queueSize:   256,
		idleTimeout: 1 * time.Second,
	}
	for _, opt := range options {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.Component("batch")
	}
	r.pool = worker.NewDynamicWorkerPool(r.workers, r.queueSize, r.idleTimeout)
	return r
}

func (r *runner) Workers() int {
	return r.workers
}

func (r *runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.pool.Stop()
}

func (r *runner) Run(ctx context.Context, geoms []geometry.StaticGeometry, steps ...Step) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}

	errs := make([]error, len(geoms))
	start := time.Now()

	// pool.Wait tracks active workers rather than finished tasks, so a WaitGroup is the barrier.
	var wg sync.WaitGroup
	for i, g := range geoms {
		if err := ctx.Err(); err != nil {
			errs[i] = fmt.Errorf("mesh %d: %w", i, err)
			continue
		}

		wg.Add(1)
		idx, mesh := i, g
		r.pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				errs[idx] = r.process(ctx, idx, mesh, steps)
				return nil, errs[idx]
			},
		})
	}
	wg.Wait()

	err := errors.Join(errs...)
	r.logger.WithFields(logrus.Fields{
		"meshes":  len(geoms),
		"steps":   len(steps),
		"elapsed": time.Since(start),
		"failed":  err != nil,
	}).Debug("[Batch] run complete")
	return err
}

// process runs every step on one mesh, stopping at the first hard failure.
func (r *runner) process(ctx context.Context, idx int, g geometry.StaticGeometry, steps []Step) error {
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("mesh %d (%s) before %s: %w", idx, g.Label(), step.Name, err)
		}

		err := step.Apply(g)
		if err == nil {
			continue
		}
		if errors.Is(err, geometry.ErrDegenerateGeometry) {
			r.logger.WithFields(logrus.Fields{
				"mesh":  idx,
				"label": g.Label(),
				"step":  step.Name,
			}).Warn(err.Error())
			continue
		}
		return fmt.Errorf("mesh %d (%s) %s: %w", idx, g.Label(), step.Name, err)
	}
	return nil
}
