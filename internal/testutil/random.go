package testutil

import (
	"sync"

	"github.com/tolelom/arcadechain/random"
)

// ScriptedRandom is a random.Source that replays queued values. Once the
// queue is empty it falls back to the Keccak source.
type ScriptedRandom struct {
	mu     sync.Mutex
	values []uint64
	Inputs []random.Input
}

// Push queues raw draw results. A queued value v yields v % n.
func (r *ScriptedRandom) Push(vs ...uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, vs...)
}

// Pending returns how many queued values have not been consumed.
func (r *ScriptedRandom) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}

func (r *ScriptedRandom) Draw(in random.Input, n uint64) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Inputs = append(r.Inputs, in)
	if len(r.values) == 0 {
		return random.Keccak{}.Draw(in, n)
	}
	v := r.values[0]
	r.values = r.values[1:]
	return v % n
}
