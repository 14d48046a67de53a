package core

import (
	"context"
	"sort"
	"strings"

	"github.com/blackcoderx/apman/pkg/collection"
	"github.com/blackcoderx/apman/pkg/shape"
	"github.com/blackcoderx/apman/pkg/variables"
)

// Client is the compiled operation set of one collection together with its
// shared variable and header configuration.
type Client struct {
	info collection.Info
	env  *Env
	ops  map[string]*Operation
	opts *options
}

// New compiles coll and checks that every declared collection variable has
// a value in vars. Missing variables and compile failures are reported
// together in one construction error.
func New(coll *collection.Collection, vars map[string]string, opts ...Option) (*Client, error) {
	if coll == nil {
		return nil, constructionError("a collection is required", nil)
	}
	o := buildOptions(opts)

	store := variables.Build(coll.Variables)
	env := NewEnv(store)

	var problems []string
	var cause error

	ops, err := compile(coll, env, o)
	if err != nil {
		problems = append(problems, err.Error())
	}

	if err := store.ValidateSupplied(vars); err != nil {
		problems = append(problems, err.Error())
		cause = err
	}

	if len(problems) > 0 {
		return nil, constructionError(strings.Join(problems, "\n"), cause)
	}

	return &Client{info: coll.Info, env: env, ops: ops, opts: o}, nil
}

// Load reads a collection file and compiles it with New.
func Load(path string, vars map[string]string, opts ...Option) (*Client, error) {
	coll, err := collection.Load(path)
	if err != nil {
		return nil, constructionError(err.Error(), err)
	}
	return New(coll, vars, opts...)
}

// Info returns the collection's metadata.
func (c *Client) Info() collection.Info {
	return c.info
}

// Operations returns a copy of the operation table as callable functions.
func (c *Client) Operations() map[string]OperationFunc {
	out := make(map[string]OperationFunc, len(c.ops))
	for name, op := range c.ops {
		out[name] = op.Invoke
	}
	return out
}

// Operation returns the compiled operation with the given name.
func (c *Client) Operation(name string) (*Operation, bool) {
	op, ok := c.ops[name]
	return op, ok
}

// Names returns every operation name, sorted.
func (c *Client) Names() []string {
	names := make([]string, 0, len(c.ops))
	for name := range c.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call invokes the named operation.
func (c *Client) Call(ctx context.Context, name string, data Data) (any, error) {
	op, ok := c.ops[name]
	if !ok {
		return nil, unknownOperationError(name)
	}
	return op.Invoke(ctx, data)
}

// RequiredShape returns the data shape the named operation expects.
func (c *Client) RequiredShape(name string) (shape.Shape, bool) {
	op, ok := c.ops[name]
	if !ok {
		return nil, false
	}
	return op.Shape, true
}

// SetVariable updates a collection variable for subsequent calls.
func (c *Client) SetVariable(name, value string) {
	c.env.Variables.Set(name, value)
}

// Variables returns the current variable table.
func (c *Client) Variables() []variables.Entry {
	return c.env.Variables.Table()
}

// AddHeader sets a header sent with every subsequent call.
func (c *Client) AddHeader(name, value string) {
	c.env.AddHeader(name, value)
}

// ClearHeaders removes all headers set with AddHeader.
func (c *Client) ClearHeaders() {
	c.env.ClearHeaders()
}
