package arena

import (
	"strconv"
	"sync/atomic"
	"time"
)

// TaskID identifies one dispatch of a parallel loop.
type TaskID uint64

func (id TaskID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// TaskName returns the key the contexts of one dispatch are stored under.
func TaskName(arena string, id TaskID) string {
	return arena + "_" + id.String()
}

// TaskIDGenerator issues task ids that are unique for the lifetime of the
// generator. The high 32 bits hold the milliseconds elapsed since the
// generator was created, the low 32 bits a counter. Ids stay distinct as long
// as fewer than 2^32 are issued.
type TaskIDGenerator struct {
	epoch   time.Time
	counter atomic.Uint32
}

// NewTaskIDGenerator returns a generator whose clock starts now.
func NewTaskIDGenerator() *TaskIDGenerator {
	return &TaskIDGenerator{epoch: time.Now()}
}

// Next returns a fresh id. Safe for concurrent use.
func (g *TaskIDGenerator) Next() TaskID {
	// time.Since reads the monotonic clock.
	ts := uint64(time.Since(g.epoch).Milliseconds()) & 0xFFFFFFFF
	seq := uint64(g.counter.Add(1) - 1)
	return TaskID(ts<<32 | seq)
}
