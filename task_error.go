package arena

import (
	"errors"
	"fmt"
)

// TaskInfo identifies the iteration a failure came from.
type TaskInfo struct {
	Arena  string
	TaskID TaskID
	Index  int64
}

// Name returns the task-instance name the contexts of this task are stored
// under.
func (ti TaskInfo) Name() string {
	return TaskName(ti.Arena, ti.TaskID)
}

// TaskError wraps a loop body failure together with the [TaskInfo] of the
// iteration that produced it.
type TaskError struct {
	Task TaskInfo
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("arena %q task %s failed at index %d: %v",
		e.Task.Arena, e.Task.TaskID, e.Task.Index, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// IsTaskError reports whether err (or any error in its chain) is a [*TaskError].
func IsTaskError(err error) bool {
	if err == nil {
		return false
	}
	var te *TaskError
	return errors.As(err, &te)
}

// TaskOf extracts the [TaskInfo] from the first [*TaskError] in err's chain.
// Returns false if no TaskError is found.
func TaskOf(err error) (TaskInfo, bool) {
	if err == nil {
		return TaskInfo{}, false
	}

	var te *TaskError
	if errors.As(err, &te) {
		return te.Task, true
	}
	return TaskInfo{}, false
}

// CauseOf unwraps the first [*TaskError] in err's chain and returns its
// underlying cause. If err is not a TaskError, it is returned as-is.
func CauseOf(err error) error {
	if err == nil {
		return nil
	}

	var te *TaskError
	if errors.As(err, &te) {
		return te.Err
	}
	return err
}
