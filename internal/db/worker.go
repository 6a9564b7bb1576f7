package db

import (
	"context"
	"database/sql"
	"errors"
	"sync"
)

// ErrWorkerClosed is returned by Do once Close has been called.
var ErrWorkerClosed = errors.New("db writer closed")

type TxFn func(ctx context.Context, tx *sql.Tx) error

type job struct {
	ctx context.Context
	fn  TxFn
	ch  chan error
}

// Worker serializes every write through a single goroutine, one transaction
// per job. A job either commits completely or is rolled back.
type Worker struct {
	db        *sql.DB
	jobs      chan job
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func NewWorker(db *sql.DB) *Worker {
	w := &Worker{
		db:   db,
		jobs: make(chan job, 256),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go w.loop()
	return w
}

// Close stops accepting jobs, finishes the ones already queued and waits for
// the loop to exit. Safe to call more than once.
func (w *Worker) Close() {
	w.closeOnce.Do(func() { close(w.quit) })
	<-w.done
}

// Do runs fn inside a transaction on the writer goroutine.
//
// If ctx expires before the job is queued, Do returns ctx.Err() and nothing
// runs. Once queued, Do waits for the real outcome: cancellation reaches the
// transaction through ctx and rolls it back, so a nil return always means
// the transaction committed and a non-nil return means it did not.
func (w *Worker) Do(ctx context.Context, fn TxFn) error {
	ch := make(chan error, 1)
	j := job{ctx: ctx, fn: fn, ch: ch}

	select {
	case <-w.quit:
		return ErrWorkerClosed
	default:
	}

	select {
	case w.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	case <-w.quit:
		return ErrWorkerClosed
	}

	select {
	case err := <-ch:
		return err
	case <-w.done:
		// The loop may have finished this job right before exiting.
		select {
		case err := <-ch:
			return err
		default:
			return ErrWorkerClosed
		}
	}
}

func (w *Worker) loop() {
	defer close(w.done)

	for {
		select {
		case j := <-w.jobs:
			j.ch <- w.run(j)
		case <-w.quit:
			w.drain()
			return
		}
	}
}

// drain runs whatever is still buffered after Close.
func (w *Worker) drain() {
	for {
		select {
		case j := <-w.jobs:
			j.ch <- w.run(j)
		default:
			return
		}
	}
}

func (w *Worker) run(j job) error {
	if err := j.ctx.Err(); err != nil {
		return err
	}

	tx, err := w.db.BeginTx(j.ctx, nil)
	if err != nil {
		return err
	}

	if err := j.fn(j.ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}
