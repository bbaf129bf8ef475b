// Package pipeline provides a generic ordered middleware chain. Stages run
// exactly in registration order; each stage receives a next callback for the
// remainder of the chain and may decline to call it. Cleanup a stage defers
// around its next call runs in reverse registration order on the way out,
// whether next returned normally or with an error.
package pipeline

import "context"

// Middleware is one stage of a pipeline over context type C.
type Middleware[C any] interface {
	// Process may inspect and mutate c, and may choose not to call next to
	// short-circuit the rest of the chain. Errors propagate to the Execute
	// caller; the pipeline neither retries nor swallows them.
	Process(ctx context.Context, c C, next func() error) error
}

// Func adapts a plain function to the Middleware interface.
type Func[C any] func(ctx context.Context, c C, next func() error) error

func (f Func[C]) Process(ctx context.Context, c C, next func() error) error {
	return f(ctx, c, next)
}

// Pipeline is an ordered middleware chain executed once per session.
type Pipeline[C any] struct {
	middlewares []Middleware[C]
}

// New creates an empty pipeline.
func New[C any]() *Pipeline[C] {
	return &Pipeline[C]{}
}

// Use appends a stage. Returns the pipeline for chaining.
func (p *Pipeline[C]) Use(m Middleware[C]) *Pipeline[C] {
	p.middlewares = append(p.middlewares, m)
	return p
}

// Execute builds the nested continuation right-to-left and invokes the first
// stage.
func (p *Pipeline[C]) Execute(ctx context.Context, c C) error {
	chain := func() error { return nil }
	for i := len(p.middlewares) - 1; i >= 0; i-- {
		m := p.middlewares[i]
		next := chain
		chain = func() error { return m.Process(ctx, c, next) }
	}
	return chain()
}
