package arena

import (
	"io"
	"sort"
	"sync"

	"github.com/sugawarayuuta/sonnet"
)

// ExecutionContext records that one iteration of a dispatched loop ran.
type ExecutionContext struct {
	Index  int64  `json:"index"`
	Arena  string `json:"arena"`
	TaskID TaskID `json:"task_id"`
}

// tracker maps task-instance names to the contexts recorded for them.
// Writers hand over whole batches so the lock is taken once per sub-range.
type tracker struct {
	mu     sync.Mutex
	queues map[string][]ExecutionContext
}

func newTracker() *tracker {
	return &tracker{queues: make(map[string][]ExecutionContext)}
}

// push appends batch to the queue of name, creating it if needed.
func (t *tracker) push(name string, batch []ExecutionContext) {
	if len(batch) == 0 {
		return
	}
	t.mu.Lock()
	t.queues[name] = append(t.queues[name], batch...)
	t.mu.Unlock()
}

func (t *tracker) snapshot(name string) []ExecutionContext {
	t.mu.Lock()
	defer t.mu.Unlock()

	q := t.queues[name]
	if len(q) == 0 {
		return nil
	}
	out := make([]ExecutionContext, len(q))
	copy(out, q)
	return out
}

func (t *tracker) drain(name string) []ExecutionContext {
	t.mu.Lock()
	defer t.mu.Unlock()

	q := t.queues[name]
	delete(t.queues, name)
	return q
}

func (t *tracker) names() []string {
	t.mu.Lock()
	names := make([]string, 0, len(t.queues))
	for name := range t.queues {
		names = append(names, name)
	}
	t.mu.Unlock()

	sort.Strings(names)
	return names
}

// clearLocked drops every queue. The caller holds t.mu.
func (t *tracker) clearLocked() {
	t.queues = make(map[string][]ExecutionContext)
}

// WriteContexts writes contexts to w as a JSON array, sorted by index so
// that two runs of a deterministic loop produce identical output.
func WriteContexts(w io.Writer, contexts []ExecutionContext) error {
	sorted := make([]ExecutionContext, len(contexts))
	copy(sorted, contexts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Index < sorted[j].Index
	})

	data, err := sonnet.Marshal(sorted)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
