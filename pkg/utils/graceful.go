package utils

import (
	"context"
	"sync"
)

// GracefulContext - a context carries channel factory for cancelation
type GracefulContext interface {
	// Done - closed when cancelation was requested
	Done() <-chan struct{}

	// Fail - marks the run as failed, the error is returned by GracefulRunner.Wait
	Fail(err error)

	// RunAsChild - runs callback in a child context which gets canceled together with this one
	RunAsChild(callback func(GracefulContext)) GracefulRunner
}

// GracefulRunner - handle of a running callback
type GracefulRunner interface {
	// Cancel - requests cancelation and waits until the callback and all its children finish
	Cancel() error

	// Wait - waits until the callback and all its children finish
	Wait() error
}

// RunWithGracefulCancel - runs callback as a go routine and returns its runner
// This is inspired by context but with the key difference that the cancel function waits until
// the handler finishes all the cleanup
// @see https://blog.golang.org/context
func RunWithGracefulCancel(callback func(GracefulContext)) GracefulRunner {
	ctx := newGracefulCtx()

	go func() {
		callback(ctx)
		ctx.children.Wait()
		close(ctx.finishedC)
	}()

	return ctx
}

// ContextFromGraceful - derives context.Context which gets canceled once cancelation is requested
// Returned cancel function must be called to release the watcher go routine
func ContextFromGraceful(gctx GracefulContext) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		select {
		case <-gctx.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

type gracefulCtx struct {
	cancelC    chan struct{}
	cancelOnce sync.Once
	finishedC  chan struct{}
	children   sync.WaitGroup

	errMutex sync.Mutex
	err      error
}

func newGracefulCtx() *gracefulCtx {
	return &gracefulCtx{
		cancelC:   make(chan struct{}),
		finishedC: make(chan struct{}),
	}
}

func (c *gracefulCtx) Done() <-chan struct{} {
	return c.cancelC
}

func (c *gracefulCtx) Fail(err error) {
	c.errMutex.Lock()
	defer c.errMutex.Unlock()

	if c.err == nil {
		c.err = err
	}
}

func (c *gracefulCtx) Cancel() error {
	c.cancelOnce.Do(func() { close(c.cancelC) })
	return c.Wait()
}

func (c *gracefulCtx) Wait() error {
	<-c.finishedC

	c.errMutex.Lock()
	defer c.errMutex.Unlock()
	return c.err
}

func (c *gracefulCtx) RunAsChild(callback func(GracefulContext)) GracefulRunner {
	c.children.Add(1)
	child := RunWithGracefulCancel(callback).(*gracefulCtx)

	go func() {
		defer c.children.Done()

		select {
		case <-c.cancelC:
			child.Cancel()
		case <-child.finishedC:
		}
	}()

	return child
}
