package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultWorkerCount = 4
	maxRetryDelay      = 30 * time.Second
	taskTimeout        = 5 * time.Minute
)

// Pool runs a fixed batch of tasks on a bounded number of workers. A failed
// task is retried with exponential backoff until it runs out of retries.
type Pool struct {
	workerCount int
	retryDelay  func(retryCount int) time.Duration
}

func NewPool(workerCount int) *Pool {
	if workerCount <= 0 {
		workerCount = DefaultWorkerCount
	}
	return &Pool{workerCount: workerCount, retryDelay: RetryDelay}
}

// Run blocks until every task has either succeeded or failed for good. The
// outcome of each task is available through its Err method afterwards.
func (p *Pool) Run(ctx context.Context, tasks []TaskInterface) {
	if len(tasks) == 0 {
		return
	}

	// Every task is in the queue at most once, so the buffer never fills.
	taskQueue := make(chan TaskInterface, len(tasks))
	var pending sync.WaitGroup
	var workers sync.WaitGroup

	pending.Add(len(tasks))
	for _, task := range tasks {
		taskQueue <- task
	}

	workerCount := min(p.workerCount, len(tasks))
	for i := 0; i < workerCount; i++ {
		workers.Add(1)
		go func(id int) {
			defer workers.Done()
			for task := range taskQueue {
				p.executeTask(ctx, id, task, taskQueue, &pending)
			}
		}(i)
	}

	pending.Wait()
	close(taskQueue)
	workers.Wait()
}

func (p *Pool) executeTask(ctx context.Context, workerID int, task TaskInterface, taskQueue chan<- TaskInterface, pending *sync.WaitGroup) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(ctx, taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		task.Finish(nil)
		pending.Done()
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "source", task.GetSourceName(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() || ctx.Err() != nil {
		if task.GetMaxRetries() > 0 {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "source", task.GetSourceName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
		task.Finish(err)
		pending.Done()
		return
	}

	task.IncrementRetryCount()
	retryDelay := p.retryDelay(task.GetRetryCount())

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "source", task.GetSourceName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	go func() {
		timer := time.NewTimer(retryDelay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			slog.Debug("Run cancelled, skipping task retry", "type", string(task.GetType()), "source", task.GetSourceName())
			task.Finish(err)
			pending.Done()
		case <-timer.C:
			taskQueue <- task
		}
	}()
}

// RetryDelay returns the backoff before the given retry attempt: 1s, 2s, 4s
// and so on, capped at 30s.
func RetryDelay(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	if retryCount > 6 {
		return maxRetryDelay
	}
	return min(time.Duration(1<<uint(retryCount-1))*time.Second, maxRetryDelay)
}
