package quest

import (
	"errors"
	"fmt"
)

var (
	// ErrTaskNotFound is returned when completing a task that does not
	// exist in the consumed task store.
	ErrTaskNotFound = errors.New("task not found")
)

// TaskNotFoundError carries the missing task id.
type TaskNotFoundError struct {
	TaskID TaskID
}

func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.TaskID)
}

func (e *TaskNotFoundError) Unwrap() error { return ErrTaskNotFound }
