package vm

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tolelom/arcadechain/core"
)

// Handler is the function signature every transaction module must implement.
type Handler func(ctx *Context, payload json.RawMessage) error

// Option marks a registered handler with call-site properties.
type Option func(*entry)

// Payable allows the handler to receive native currency attached as tx Value.
func Payable() Option { return func(e *entry) { e.payable = true } }

// Privileged makes the handler a valid PrivilegedCall target for the
// governance and timelock interpreters.
func Privileged() Option { return func(e *entry) { e.privileged = true } }

type entry struct {
	h          Handler
	payable    bool
	privileged bool
}

// Registry maps TxTypes to Handlers. Thread-safe for concurrent registration.
type Registry struct {
	mu       sync.RWMutex
	handlers map[core.TxType]entry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[core.TxType]entry)}
}

// Register associates typ with h. Panics on duplicate registration.
func (r *Registry) Register(typ core.TxType, h Handler, opts ...Option) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[typ]; exists {
		panic(fmt.Sprintf("vm: handler already registered for TxType %q", typ))
	}
	e := entry{h: h}
	for _, opt := range opts {
		opt(&e)
	}
	r.handlers[typ] = e
}

func (r *Registry) lookup(typ core.TxType) (entry, error) {
	r.mu.RLock()
	e, ok := r.handlers[typ]
	r.mu.RUnlock()
	if !ok {
		return entry{}, fmt.Errorf("%w: no handler registered for TxType %q", core.ErrValidation, typ)
	}
	return e, nil
}

// Registered reports whether typ has a handler.
func (r *Registry) Registered(typ core.TxType) bool {
	_, err := r.lookup(typ)
	return err == nil
}

// globalRegistry is the package-level singleton that modules register into.
var globalRegistry = NewRegistry()

// Register adds a handler to the global registry.
// Module init() functions call this to self-register.
func Register(typ core.TxType, h Handler, opts ...Option) {
	globalRegistry.Register(typ, h, opts...)
}

// IsPrivileged reports whether typ is registered as a privileged-call target.
func IsPrivileged(typ core.TxType) bool {
	e, err := globalRegistry.lookup(typ)
	return err == nil && e.privileged
}
