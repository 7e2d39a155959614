package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-automation/internal/domain"
)

// Queue transports automation tasks as JSON payloads on a Redis list.
type Queue struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

// NewQueue constructs a queue over the given Redis client and list key.
func NewQueue(client *redis.Client, key string, logger *zap.Logger) *Queue {
	return &Queue{client: client, key: key, logger: logger}
}

// Enqueue pushes a task, assigning an identifier when the producer did not.
func (q *Queue) Enqueue(ctx context.Context, task domain.AutomationTask) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, q.key, payload).Err()
}

// Dequeue blocks up to timeout for the next task. A nil task with nil error
// means the wait timed out.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*domain.AutomationTask, error) {
	result, err := q.client.BLPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	var task domain.AutomationTask
	if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
		q.logger.Error("discarding malformed task payload", zap.Error(err))
		return nil, nil
	}
	return &task, nil
}

// Consumer drains the queue onto the task runner with a worker pool. Each
// task execution is independent; tasks for the same ticket may race, which
// the dispatcher tolerates by re-reading state at entry.
type Consumer struct {
	queue   *Queue
	runner  *TaskRunner
	workers int
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewConsumer constructs the consumer pool.
func NewConsumer(queue *Queue, runner *TaskRunner, workers int, logger *zap.Logger) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{queue: queue, runner: runner, workers: workers, logger: logger}
}

// Start launches the worker goroutines. They exit when ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.work(ctx, i)
	}
}

// Wait blocks until all workers have exited.
func (c *Consumer) Wait() {
	c.wg.Wait()
}

func (c *Consumer) work(ctx context.Context, id int) {
	defer c.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		task, err := c.queue.Dequeue(ctx, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("queue dequeue failed",
				zap.Int("worker", id), zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if task == nil {
			continue
		}
		if err := c.runner.Execute(ctx, *task); err != nil {
			c.logger.Error("automation task permanently failed",
				zap.Int("worker", id),
				zap.String("task_id", task.ID),
				zap.String("ticket_id", task.TicketID),
				zap.Error(err))
		}
	}
}
