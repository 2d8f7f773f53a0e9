package kv

import (
	"encoding/gob"
	"errors"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrTaskNotFound = errors.New("no task found for the given key")

// In-Memory Thread-Safe Key-Value Storage of tasks with optional persistence
type Store struct {
	table map[string]*Task
	mu    sync.RWMutex
}

func NewStore() *Store {
	return &Store{
		table: make(map[string]*Task),
	}
}

// Add registers a pending task of the given kind and returns its snapshot.
func (m *Store) Add(kind string) Task {
	t := &Task{
		ID:        uuid.NewString(),
		Kind:      kind,
		State:     StatePending,
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.table[t.ID] = t
	m.mu.Unlock()

	return *t
}

// Get a task snapshot given its id
func (m *Store) Get(id string) (Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.table[id]
	if !ok {
		return Task{}, ErrTaskNotFound
	}

	return *entry, nil
}

// Update applies fn to the stored task under the write lock and returns the
// resulting snapshot.
func (m *Store) Update(id string, fn func(t *Task)) (Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.table[id]
	if !ok {
		return Task{}, ErrTaskNotFound
	}

	fn(entry)
	return *entry, nil
}

// Finish moves a task to its final state.
func (m *Store) Finish(id string, result any, err error) (Task, error) {
	return m.Update(id, func(t *Task) {
		now := time.Now()
		t.FinishedAt = &now

		if err != nil {
			t.State = StateFailed
			t.Error = err.Error()
			return
		}

		t.State = StateCompleted
		t.Result = result
	})
}

// Removes a task, given its id
func (m *Store) Delete(id string) {
	m.mu.Lock()
	delete(m.table, id)
	m.mu.Unlock()
}

func (m *Store) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.table))
	for id := range m.table {
		keys = append(keys, id)
	}

	return keys
}

// Returns every stored task, oldest first
func (m *Store) All() []Task {
	m.mu.RLock()
	tasks := make([]Task, 0, len(m.table))
	for _, v := range m.table {
		tasks = append(tasks, *v)
	}
	m.mu.RUnlock()

	slices.SortFunc(tasks, func(a, b Task) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return tasks
}

// Persist the store in a single gob encoded file
func (m *Store) Persist(path string) error {
	fd, err := os.Create(path)
	if err != nil {
		return errors.Join(errors.New("failed to persist session"), err)
	}
	defer fd.Close()

	session := Session{Tasks: m.All()}

	if err := gob.NewEncoder(fd).Encode(session); err != nil {
		return errors.Join(errors.New("failed to persist session"), err)
	}

	return nil
}

// Restore a persisted state. Tasks that never finished are marked as failed
// since their workers did not survive the restart.
func (m *Store) Restore(path string) {
	fd, err := os.Open(path)
	if err != nil {
		return
	}
	defer fd.Close()

	var session Session

	if err := gob.NewDecoder(fd).Decode(&session); err != nil {
		slog.Warn("discarding unreadable session", slog.String("path", path), slog.Any("err", err))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range session.Tasks {
		if !t.Done() {
			t.State = StateFailed
			t.Error = "interrupted by shutdown"
		}
		m.table[t.ID] = &t
	}

	slog.Info("restored session", slog.Int("tasks", len(session.Tasks)))
}
