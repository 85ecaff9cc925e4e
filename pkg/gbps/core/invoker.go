package core

import "sync"

// Invoker spawns and later joins the goroutines a Service depends on
// (listener, receiver, sampler). Adapted from the teacher's test-only
// TestInvoker: here it is the production path, not a test double, since
// gbps's thread model (three long-lived goroutines joined at shutdown) is
// exactly what that WaitGroup-backed spawner was built for.
type Invoker interface {
	// Spawn runs f in its own goroutine, tracked for Wait.
	Spawn(f func())

	// Wait blocks until every spawned goroutine has returned.
	Wait()
}

type waitGroupInvoker struct {
	group sync.WaitGroup
}

// NewInvoker returns the default Invoker used by Service.
func NewInvoker() Invoker {
	return &waitGroupInvoker{}
}

func (w *waitGroupInvoker) Spawn(f func()) {
	w.group.Add(1)
	go func() {
		defer w.group.Done()
		f()
	}()
}

func (w *waitGroupInvoker) Wait() {
	w.group.Wait()
}
