// Package core compiles a collection into callable operations and dispatches
// calls to the HTTP transport.
package core

import (
	"context"
	"sync"
	"time"

	"github.com/blackcoderx/apman/pkg/collection"
	"github.com/blackcoderx/apman/pkg/schema"
	"github.com/blackcoderx/apman/pkg/shape"
	"github.com/blackcoderx/apman/pkg/variables"
)

// Data is the caller-supplied payload of one call. The recognised top-level
// keys are "body", "query" and "variable".
type Data map[string]any

// OperationFunc invokes one compiled operation.
type OperationFunc func(ctx context.Context, data Data) (any, error)

// Operation is one compiled, callable request. Operations are built once by
// Compile and never mutated afterwards; the only mutable state they see is
// the shared Env.
type Operation struct {
	// Name is the identifier derived from the folder path and request name.
	Name string
	// Chain is the folder path followed by the request name.
	Chain []string
	// Shape is the data the caller must supply.
	Shape shape.Shape
	// Schema validates caller data against Shape.
	Schema *schema.Schema
	// Request is the bound request template.
	Request collection.Request

	env  *Env
	opts *options
}

// CallInfo describes one finished call. It is passed to the observer set
// with WithCallObserver.
type CallInfo struct {
	Operation string
	Method    string
	URL       string
	Status    int
	Duration  time.Duration
	Err       error
}

// Env is the configuration shared by every operation of a client: the
// variable store and the caller-scoped header table. It is safe for
// concurrent use.
type Env struct {
	Variables *variables.Store

	mu      sync.RWMutex
	headers map[string]string
}

// NewEnv creates an Env over a variable store.
func NewEnv(vars *variables.Store) *Env {
	if vars == nil {
		vars = variables.Build(nil)
	}
	return &Env{Variables: vars, headers: make(map[string]string)}
}

// AddHeader sets a header sent with every subsequent call.
func (e *Env) AddHeader(name, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.headers[name] = value
}

// ClearHeaders removes every caller-scoped header.
func (e *Env) ClearHeaders() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.headers = make(map[string]string)
}

// Headers returns a snapshot of the header table, or nil when it is empty.
func (e *Env) Headers() map[string]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if len(e.headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(e.headers))
	for k, v := range e.headers {
		out[k] = v
	}
	return out
}
