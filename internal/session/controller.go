package session

import "context"

// Controller is the variant-independent view of a Machine, for callers that
// manage face and product pipelines side by side.
type Controller interface {
	Kind() string
	Start(ctx context.Context) error
	Capture(ctx context.Context) error
	Reset(ctx context.Context) error
	Close() error
	View() any
	Watch(fn func(any)) (unsubscribe func())
}

// Kind returns the pipeline variant name
func (m *Machine[T]) Kind() string {
	return m.variant.Name
}

// View returns the current Snapshot
func (m *Machine[T]) View() any {
	return m.Snapshot()
}

// Watch subscribes to snapshots without knowing the result type
func (m *Machine[T]) Watch(fn func(any)) func() {
	return m.Subscribe(func(s Snapshot[T]) { fn(s) })
}

var (
	_ Controller = (*Machine[struct{}])(nil)
)
