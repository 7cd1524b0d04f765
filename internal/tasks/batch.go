package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/svbridge/internal/models"
	"github.com/desertthunder/svbridge/internal/resolver"
	"github.com/desertthunder/svbridge/internal/services"
	"github.com/desertthunder/svbridge/internal/shared"
)

// BatchTarget is one integration a task is created for.
type BatchTarget struct {
	IntegrationID string `json:"integrationId" validate:"required"`
	Platform      string `json:"platform"`
}

// BatchRequest creates one task per integration with shared overrides.
type BatchRequest struct {
	Integrations []BatchTarget  `json:"integrations" validate:"required,min=1,dive"`
	Overrides    map[string]any `json:"overrides"`
}

// TaskOutcome is the result for one integration of a batch.
type TaskOutcome struct {
	IntegrationID string            `json:"integrationId"`
	Platform      string            `json:"platform"`
	TaskID        string            `json:"id"`
	Status        models.TaskStatus `json:"status"`
	Err           error             `json:"-"`
}

// BatchResult holds outcomes in request order.
type BatchResult struct {
	Outcomes []TaskOutcome
}

// FirstError returns the first failure in request order, or nil.
func (b *BatchResult) FirstError() error {
	for _, o := range b.Outcomes {
		if o.Err != nil {
			return o.Err
		}
	}
	return nil
}

// Succeeded returns the outcomes that produced a task.
func (b *BatchResult) Succeeded() []TaskOutcome {
	out := make([]TaskOutcome, 0, len(b.Outcomes))
	for _, o := range b.Outcomes {
		if o.Err == nil {
			out = append(out, o)
		}
	}
	return out
}

// TaskBatcher fans task creation out over a bounded worker pool.
type TaskBatcher struct {
	tasks      services.TaskService
	numWorkers int
	rateLimit  float64
	logger     *log.Logger
}

// NewTaskBatcher creates a batcher. Workers default to 4 (max 10) and the rate to 10 requests per second.
func NewTaskBatcher(tasks services.TaskService, numWorkers int, rateLimit float64, logger *log.Logger) *TaskBatcher {
	if numWorkers <= 0 {
		numWorkers = 4
	}
	if numWorkers > 10 {
		numWorkers = 10
	}
	if rateLimit <= 0 {
		rateLimit = 10.0
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &TaskBatcher{tasks: tasks, numWorkers: numWorkers, rateLimit: rateLimit, logger: logger}
}

type batchJob struct {
	index  int
	target BatchTarget
}

// CreateTasks submits one task per integration.
//
// Requests are independent: a failure is recorded on its own outcome and never cancels the others.
// Targets the limiter cannot admit before ctx is done or its deadline passes are marked with the limiter's error.
func (b *TaskBatcher) CreateTasks(ctx context.Context, req BatchRequest, defaults map[string]any, progress chan<- ProgressUpdate) *BatchResult {
	total := len(req.Integrations)
	result := &BatchResult{Outcomes: make([]TaskOutcome, total)}
	for i, t := range req.Integrations {
		result.Outcomes[i] = TaskOutcome{IntegrationID: t.IntegrationID, Platform: t.Platform}
	}
	if total == 0 {
		return result
	}

	limiter := rate.NewLimiter(rate.Limit(b.rateLimit), 1)
	jobs := make(chan batchJob, total)
	done := make(chan int, total)

	workers := min(b.numWorkers, total)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go b.worker(ctx, &wg, jobs, done, result, req.Overrides, defaults)
	}

	go func() {
		defer close(jobs)
		for i, t := range req.Integrations {
			if err := limiter.Wait(ctx); err != nil {
				for j := i; j < total; j++ {
					result.Outcomes[j].Err = fmt.Errorf("task for %s not started: %w", req.Integrations[j].IntegrationID, err)
					done <- j
				}
				return
			}
			jobs <- batchJob{index: i, target: t}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	completed := 0
	for i := range done {
		completed++
		sendProgress(progress, taskCreatedUpdate(completed, total, result.Outcomes[i]))
		if completed == total {
			break
		}
	}

	return result
}

// worker creates tasks from the jobs channel. Each job writes only its own outcome slot.
func (b *TaskBatcher) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan batchJob,
	done chan<- int,
	result *BatchResult,
	overrides, defaults map[string]any,
) {
	defer wg.Done()

	for job := range jobs {
		out := &result.Outcomes[job.index]
		id := resolver.Identity{IntegrationID: job.target.IntegrationID, Platform: job.target.Platform}

		created, err := b.tasks.CreateTask(ctx, resolver.BuildTaskRequest(id, overrides, defaults))
		if err != nil {
			out.Err = err
			b.logger.Warn("task creation failed", "integration", id.IntegrationID, "error", err)
		} else {
			out.TaskID = created.TaskID
			out.Status = resolver.NormalizeStatus(created.Status)
		}
		done <- job.index
	}
}
