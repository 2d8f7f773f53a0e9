package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/marcopiovanello/twitch-clip-dl/server/internal/kv"
)

const (
	KindSearch   = "search"
	KindDownload = "download"
)

var (
	ErrInvalidQueueSize = errors.New("invalid queue size")
	ErrUnknownKind      = errors.New("unknown task kind")
	ErrStopped          = errors.New("queue stopped")
)

// Job is the body of a task. Its result becomes the task result.
type Job func(ctx context.Context) (any, error)

// Notifier is told about every task that reaches a final state.
type Notifier interface {
	TaskDone(t kv.Task)
}

type message struct {
	id  string
	job Job
}

// MessageQueue runs searches and downloads on one dedicated worker each, so
// a second submission of a kind waits for the previous one to finish.
type MessageQueue struct {
	store    *kv.Store
	notifier Notifier

	searchQueue   chan message
	downloadQueue chan message

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewMessageQueue(store *kv.Store, notifier Notifier, size int) (*MessageQueue, error) {
	if size <= 0 {
		return nil, ErrInvalidQueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &MessageQueue{
		store:         store,
		notifier:      notifier,
		searchQueue:   make(chan message, size),
		downloadQueue: make(chan message, size),
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

// Publish registers a pending task and hands it to the worker of its kind.
func (m *MessageQueue) Publish(kind string, job Job) (string, error) {
	var q chan message

	switch kind {
	case KindSearch:
		q = m.searchQueue
	case KindDownload:
		q = m.downloadQueue
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	task := m.store.Add(kind)

	select {
	case q <- message{id: task.ID, job: job}:
		slog.Info("published task", slog.String("id", task.ID), slog.String("kind", kind))
		return task.ID, nil
	case <-m.ctx.Done():
		slog.Warn("queue stopped, dropping task", slog.String("id", task.ID))
		m.finish(task.ID, nil, ErrStopped)
		return "", ErrStopped
	}
}

// Workers: one per kind
func (m *MessageQueue) SetupConsumers() {
	m.wg.Add(2)
	go m.worker(KindSearch, m.searchQueue)
	go m.worker(KindDownload, m.downloadQueue)
}

func (m *MessageQueue) worker(kind string, q <-chan message) {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case msg := <-q:
			slog.Info("worker started task",
				slog.String("worker", kind),
				slog.String("id", msg.id),
			)
			m.run(msg)
		}
	}
}

func (m *MessageQueue) run(msg message) {
	m.store.Update(msg.id, func(t *kv.Task) { t.State = kv.StateRunning })

	var (
		result any
		err    error
	)

	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task panicked: %v", r)
			}
		}()
		result, err = msg.job(m.ctx)
	}()

	m.finish(msg.id, result, err)
}

func (m *MessageQueue) finish(id string, result any, err error) {
	task, ferr := m.store.Finish(id, result, err)
	if ferr != nil {
		slog.Error("failed to finish task", slog.String("id", id), slog.Any("err", ferr))
		return
	}

	if err != nil {
		slog.Error("task failed", slog.String("id", id), slog.Any("err", err))
	}

	if m.notifier != nil {
		m.notifier.TaskDone(task)
	}
}

// Stop cancels the workers and waits for them to return. A running job sees
// its context cancelled.
func (m *MessageQueue) Stop() {
	m.cancel()
	m.wg.Wait()
}
