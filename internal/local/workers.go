package local

import (
	"context"
	"errors"

	"github.com/alitto/pond/v2"

	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
)

const (
	DefaultWorkers   = 2
	DefaultQueueSize = 16
)

// WorkerPool runs key derivation, encryption and decryption off the
// caller's goroutine. Concurrency and queue length are both bounded; a
// submission that finds the queue full fails at once with KindBusy.
type WorkerPool struct {
	pool pond.Pool
}

func NewWorkerPool(size, queue int) *WorkerPool {
	if size <= 0 {
		size = DefaultWorkers
	}
	if queue <= 0 {
		queue = DefaultQueueSize
	}
	return &WorkerPool{
		pool: pond.NewPool(size, pond.WithQueueSize(queue), pond.WithNonBlocking(true)),
	}
}

// Running reports the number of tasks currently executing.
func (w *WorkerPool) Running() int64 { return w.pool.RunningWorkers() }

// Close waits for submitted tasks and stops the pool.
func (w *WorkerPool) Close() {
	w.pool.StopAndWait()
}

// Run executes fn on w and waits for its result. A nil pool runs fn inline.
// When ctx ends first Run returns ctx.Err() and the task's result is
// discarded.
func Run[T any](ctx context.Context, w *WorkerPool, fn func() (T, error)) (T, error) {
	if w == nil {
		return fn()
	}
	var (
		result T
		zero   T
	)
	task := w.pool.SubmitErr(func() error {
		v, err := fn()
		result = v
		return err
	})
	select {
	case <-task.Done():
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	if err := task.Wait(); err != nil {
		switch {
		case errors.Is(err, pond.ErrQueueFull):
			return zero, rpc.Errorf(rpc.KindBusy, "worker queue is full")
		case errors.Is(err, pond.ErrPoolStopped):
			return zero, rpc.Errorf(rpc.KindBusy, "worker pool is stopped")
		}
		return zero, err
	}
	return result, nil
}
