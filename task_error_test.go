package arena

import (
	"errors"
	"fmt"
	"testing"
)

func TestTaskError_Error(t *testing.T) {
	te := &TaskError{
		Task: TaskInfo{Arena: "decode", TaskID: 7, Index: 3},
		Err:  errors.New("something went wrong"),
	}

	expected := `arena "decode" task 7 failed at index 3: something went wrong`
	if got := te.Error(); got != expected {
		t.Errorf("Error() = %q, want %q", got, expected)
	}
}

func TestTaskError_Unwrap(t *testing.T) {
	err := errors.New("original error")
	te := &TaskError{Task: TaskInfo{Arena: "x"}, Err: err}

	if got := te.Unwrap(); got != err {
		t.Errorf("Unwrap() = %v, want %v", got, err)
	}
	if !errors.Is(te, err) {
		t.Error("errors.Is should see through TaskError")
	}
}

func TestIsTaskError(t *testing.T) {
	te := &TaskError{Task: TaskInfo{Arena: "x"}, Err: errors.New("err")}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "standard error", err: errors.New("standard"), want: false},
		{name: "TaskError", err: te, want: true},
		{name: "wrapped TaskError", err: fmt.Errorf("wrapped: %w", te), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTaskError(tt.err); got != tt.want {
				t.Errorf("IsTaskError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTaskOf(t *testing.T) {
	info := TaskInfo{Arena: "encode", TaskID: 9, Index: 11}
	wrapped := fmt.Errorf("outer: %w", &TaskError{Task: info, Err: errors.New("inner")})

	got, ok := TaskOf(wrapped)
	if !ok {
		t.Fatal("TaskOf should find the TaskError")
	}
	if got != info {
		t.Errorf("TaskOf() = %+v, want %+v", got, info)
	}
	if got.Name() != "encode_9" {
		t.Errorf("Name() = %q, want %q", got.Name(), "encode_9")
	}

	if _, ok := TaskOf(errors.New("plain")); ok {
		t.Error("TaskOf should not find a TaskError in a plain error")
	}
	if _, ok := TaskOf(nil); ok {
		t.Error("TaskOf(nil) should report false")
	}
}

func TestCauseOf(t *testing.T) {
	cause := errors.New("root cause")
	te := &TaskError{Task: TaskInfo{Arena: "x"}, Err: cause}

	if got := CauseOf(te); got != cause {
		t.Errorf("CauseOf(TaskError) = %v, want %v", got, cause)
	}

	plain := errors.New("plain")
	if got := CauseOf(plain); got != plain {
		t.Errorf("CauseOf(plain) = %v, want %v", got, plain)
	}
	if CauseOf(nil) != nil {
		t.Error("CauseOf(nil) should be nil")
	}
}

func TestPanicErrorUnwrap(t *testing.T) {
	sentinel := errors.New("sentinel")
	pe := newPanicError(sentinel)
	if !errors.Is(pe, sentinel) {
		t.Error("a panic with an error value should unwrap to it")
	}

	if newPanicError("text").Unwrap() != nil {
		t.Error("a non-error panic value unwraps to nil")
	}
}
