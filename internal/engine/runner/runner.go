// Package runner executes named tasks of the pipeline graph.
package runner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
)

// Runner executes a task and its prerequisites strictly in sequence.
type Runner struct {
	executor ports.Executor
	hasher   ports.Hasher
	store    ports.BuildInfoStore
	tracer   ports.Tracer
	metrics  ports.Metrics
	logger   ports.Logger
}

// New creates a new Runner.
func New(
	executor ports.Executor,
	hasher ports.Hasher,
	store ports.BuildInfoStore,
	tracer ports.Tracer,
	metrics ports.Metrics,
	logger ports.Logger,
) *Runner {
	return &Runner{
		executor: executor,
		hasher:   hasher,
		store:    store,
		tracer:   tracer,
		metrics:  metrics,
		logger:   logger,
	}
}

// Run executes the named task of graph.
// Prerequisites run depth-first in declaration order, each completing before
// the next starts. A task reachable through several paths runs once. The first
// failure stops the run. The records of every executed task are returned in
// execution order, including the failed one.
func (r *Runner) Run(ctx context.Context, graph *domain.Graph, name string) ([]domain.BuildInfo, error) {
	plan, err := graph.Plan(name)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(plan))
	for i := range plan {
		names[i] = plan[i].Name.String()
	}
	r.tracer.EmitPlan(ctx, names, name)

	runID := uuid.NewString()
	records := make([]domain.BuildInfo, 0, len(plan))

	for i := range plan {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		record, err := r.execute(ctx, runID, &plan[i])
		records = append(records, record)
		if err != nil {
			return records, zerr.With(zerr.Wrap(err, domain.ErrTaskExecutionFailed.Error()), "task", record.TaskName)
		}
	}

	return records, nil
}

func (r *Runner) execute(ctx context.Context, runID string, task *domain.Task) (domain.BuildInfo, error) {
	ctx, span := r.tracer.Start(ctx, task.Name.String(), ports.WithCategory(string(task.Category)))
	defer span.End()

	start := time.Now()
	outputs, err := r.executor.Execute(ctx, task, span)
	elapsed := time.Since(start)

	r.metrics.ObserveTask(task.Name.String(), elapsed, err)

	record := domain.BuildInfo{
		RunID:     runID,
		TaskName:  task.Name.String(),
		Outputs:   len(outputs),
		Duration:  elapsed,
		Timestamp: start,
	}

	if err != nil {
		span.RecordError(err)
		record.Failed = true
		record.Error = err.Error()
	} else if len(outputs) > 0 {
		hash, hashErr := r.hasher.ComputeOutputHash(outputs)
		if hashErr != nil {
			r.logger.Warn("failed to hash outputs of " + record.TaskName + ": " + hashErr.Error())
		}
		record.OutputHash = hash
		span.SetAttribute("press.output_hash", hash)
	}
	span.SetAttribute("press.outputs", len(outputs))

	if putErr := r.store.Put(record); putErr != nil {
		r.logger.Warn("failed to store build record of " + record.TaskName + ": " + putErr.Error())
	}

	return record, err
}
