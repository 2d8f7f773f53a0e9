package kv

import (
	"encoding/gob"
	"time"

	"github.com/marcopiovanello/twitch-clip-dl/server/twitch"
)

type TaskState string

const (
	StatePending   TaskState = "pending"
	StateRunning   TaskState = "running"
	StateCompleted TaskState = "completed"
	StateFailed    TaskState = "failed"
)

// Task is the observable record of one background search or download.
type Task struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	State      TaskState  `json:"state"`
	Result     any        `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

func (t Task) Done() bool {
	return t.State == StateCompleted || t.State == StateFailed
}

// struct representing the current status of the store
// used for serializaton/persistence reasons
type Session struct {
	Tasks []Task `json:"tasks"`
}

func init() {
	// concrete result types carried through the gob session file
	gob.Register([]twitch.Clip{})
	gob.Register([]string{})
}
