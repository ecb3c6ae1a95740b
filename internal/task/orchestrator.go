package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jalansafe/routeintel/internal/domain"
	"github.com/jalansafe/routeintel/internal/metrics"
	"github.com/jalansafe/routeintel/internal/retry"
)

// DefaultTimeout bounds a single task execution
const DefaultTimeout = 5 * time.Minute

var errPanic = errors.New("analysis panicked")

// Runner executes one kind of analysis and returns its JSON result
type Runner interface {
	Run(ctx context.Context, payload json.RawMessage) (json.RawMessage, error)
}

// RunnerFunc adapts a function to Runner
type RunnerFunc func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error)

// Run calls f
func (f RunnerFunc) Run(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	return f(ctx, payload)
}

// Orchestrator accepts analysis requests, runs each on its own goroutine and
// records its progress in a Store for polling
type Orchestrator struct {
	store   Store
	runners map[domain.AnalysisKind]Runner
	timeout time.Duration
	log     logrus.FieldLogger
	now     func() time.Time
	retry   *retry.Retrier // store writes during execution

	wg sync.WaitGroup // running executions
}

// NewOrchestrator creates an orchestrator dispatching on request kind
func NewOrchestrator(store Store, runners map[domain.AnalysisKind]Runner, timeout time.Duration, log logrus.FieldLogger) *Orchestrator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Orchestrator{
		store:   store,
		runners: runners,
		timeout: timeout,
		log:     log,
		now:     utcNow,
		retry:   newStoreRetrier(retry.DefaultConfig(), log),
	}
}

// newStoreRetrier retries transient store failures. Rejections that another
// attempt cannot change are returned at once.
func newStoreRetrier(cfg retry.Config, log logrus.FieldLogger) *retry.Retrier {
	cfg.Retryable = func(err error) bool {
		return !errors.Is(err, domain.ErrTaskTerminal) &&
			!errors.Is(err, ErrInvalidTransition) &&
			!errors.Is(err, domain.ErrNotFound)
	}
	return retry.New(cfg, log)
}

// Submit stores a PENDING record and schedules the analysis. It returns as
// soon as the record exists; the work itself is never awaited.
func (o *Orchestrator) Submit(ctx context.Context, req domain.AnalysisRequest) (string, error) {
	runner, ok := o.runners[req.Kind]
	if !ok {
		return "", fmt.Errorf("%w: unknown analysis kind %q", domain.ErrInvalidRequest, req.Kind)
	}

	task := domain.AnalysisTask{
		ID:          uuid.NewString(),
		Kind:        req.Kind,
		State:       domain.TaskPending,
		SubmittedAt: o.now(),
		Request:     req.Payload,
	}
	if err := o.store.Create(ctx, task); err != nil {
		return "", fmt.Errorf("task: failed to create record: %w", err)
	}

	metrics.TasksSubmitted.WithLabelValues(string(req.Kind)).Inc()
	o.log.WithFields(logrus.Fields{"task_id": task.ID, "kind": req.Kind}).Info("Analysis submitted")

	o.wg.Add(1)
	go o.execute(task.ID, req.Kind, runner, cloneRaw(req.Payload))

	return task.ID, nil
}

// Poll returns the current record of a task
func (o *Orchestrator) Poll(ctx context.Context, id string) (domain.AnalysisTask, error) {
	return o.store.Get(ctx, id)
}

// Wait blocks until every submitted task has reached a terminal state
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) execute(id string, kind domain.AnalysisKind, runner Runner, payload json.RawMessage) {
	defer o.wg.Done()

	log := o.log.WithFields(logrus.Fields{"task_id": id, "kind": kind})
	// store writes must not share the analysis deadline
	ctx := context.Background()

	// the runner only starts once RUNNING is stored
	if err := o.update(ctx, id, func(t *domain.AnalysisTask) {
		t.State = domain.TaskRunning
	}); err != nil {
		metrics.TasksFinished.WithLabelValues(string(kind), "LOST").Inc()
		log.WithError(err).Error("Failed to mark task running, analysis not started")
		return
	}

	started := time.Now()
	result, runErr := o.run(runner, payload)
	metrics.TaskDuration.WithLabelValues(string(kind)).Observe(time.Since(started).Seconds())

	final := domain.TaskCompleted
	var taskErr *domain.TaskError
	if runErr != nil {
		final = domain.TaskFailed
		taskErr = &domain.TaskError{Category: category(runErr), Message: runErr.Error()}
	}

	err := o.update(ctx, id, func(t *domain.AnalysisTask) {
		done := o.now()
		t.State = final
		t.CompletedAt = &done
		if taskErr != nil {
			t.Error = taskErr
			return
		}
		t.Result = result
	})
	// only this goroutine finishes the task, so a terminal record means an
	// earlier attempt landed even though its reply was lost
	if err != nil && !errors.Is(err, domain.ErrTaskTerminal) {
		metrics.TasksFinished.WithLabelValues(string(kind), "LOST").Inc()
		log.WithError(err).WithField("outcome", final).Error("Failed to store task outcome")
		return
	}

	metrics.TasksFinished.WithLabelValues(string(kind), string(final)).Inc()
	if taskErr != nil {
		log.WithError(taskErr).Error("Analysis failed")
		return
	}
	log.WithField("elapsed", time.Since(started).String()).Info("Analysis completed")
}

// update writes one lifecycle step, retrying transient store failures
func (o *Orchestrator) update(ctx context.Context, id string, mutate func(*domain.AnalysisTask)) error {
	return o.retry.Execute(ctx, func(ctx context.Context) error {
		return o.store.Update(ctx, id, mutate)
	})
}

// run executes the runner under the task deadline and turns a panic into an error
func (o *Orchestrator) run(runner Runner, payload json.RawMessage) (result json.RawMessage, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %v", errPanic, r)
		}
	}()

	result, err = runner.Run(ctx, payload)
	if err == nil && result == nil {
		result = json.RawMessage("null")
	}
	return result, err
}

func category(err error) string {
	if errors.Is(err, errPanic) {
		return domain.CategoryPanic
	}
	return domain.ErrorCategory(err)
}
