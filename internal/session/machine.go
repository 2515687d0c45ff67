package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/skncr-ai/scanner/internal/analysis"
	"github.com/skncr-ai/scanner/internal/camera"
	"github.com/skncr-ai/scanner/internal/capture"
	"github.com/skncr-ai/scanner/internal/metrics"
)

// Analyzer performs one analysis round trip
type Analyzer[T any] interface {
	Analyze(ctx context.Context, req analysis.Request) (*T, error)
}

// Config wires a machine to its collaborators
type Config[T any] struct {
	Variant  analysis.Variant[T]
	Device   camera.Device
	Analyzer Analyzer[T]
	// Context is sent with every request, e.g. the profile summary for product scans
	Context string
	// OnComplete is called once for every successful analysis
	OnComplete func(*T)
}

// Machine drives one pipeline through Idle, Streaming, Captured, Analyzing and
// Succeeded or Failed. It owns the camera stream and at most one session.
//
// Commands may be called from any goroutine. Observers are called in transition
// order, one at a time, and may issue commands themselves.
type Machine[T any] struct {
	variant    analysis.Variant[T]
	device     camera.Device
	analyzer   Analyzer[T]
	context    string
	onComplete func(*T)

	mu        sync.Mutex
	state     State
	session   *CaptureSession[T]
	stream    camera.Stream
	cancel    context.CancelFunc
	busy      bool // acquiring a stream or reading a frame with mu released
	closed    bool
	seq       uint64
	pending   []Snapshot[T]
	observers map[int]func(Snapshot[T])
	nextObs   int

	notifyMu sync.Mutex
	inflight sync.WaitGroup
}

// New returns an idle machine
func New[T any](cfg Config[T]) *Machine[T] {
	return &Machine[T]{
		variant:    cfg.Variant,
		device:     cfg.Device,
		analyzer:   cfg.Analyzer,
		context:    cfg.Context,
		onComplete: cfg.OnComplete,
		observers:  make(map[int]func(Snapshot[T])),
	}
}

// Subscribe registers an observer for every subsequent snapshot
func (m *Machine[T]) Subscribe(fn func(Snapshot[T])) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextObs
	m.nextObs++
	m.observers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.observers, id)
		m.mu.Unlock()
	}
}

// Snapshot returns the current view of the pipeline
func (m *Machine[T]) Snapshot() Snapshot[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Start acquires the camera and begins streaming. A camera that cannot be
// acquired moves the pipeline to Failed with CameraUnavailable.
func (m *Machine[T]) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.state != Idle || m.busy {
		m.mu.Unlock()
		return ErrInvalidState
	}
	m.busy = true
	m.mu.Unlock()

	return m.open(ctx)
}

// Reset drops the finished session and starts a new one on a fresh stream
func (m *Machine[T]) Reset(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if (m.state != Succeeded && m.state != Failed) || m.busy {
		m.mu.Unlock()
		return ErrInvalidState
	}
	m.busy = true
	m.releaseLocked()
	m.mu.Unlock()

	return m.open(ctx)
}

// open acquires a stream with mu released and installs a new session.
// The caller has set busy.
func (m *Machine[T]) open(ctx context.Context) error {
	stream, err := m.device.Acquire(ctx, m.variant.Facing)

	m.mu.Lock()
	m.busy = false
	if m.closed {
		m.mu.Unlock()
		if err == nil {
			m.device.Release(stream)
		}
		return ErrClosed
	}

	m.session = &CaptureSession[T]{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}
	if err != nil {
		slog.Warn("Camera unavailable", "pipeline", m.variant.Name, "session_id", m.session.ID, "err", err)
		m.session.Failure = cameraFailure(err)
		m.setStateLocked(Failed)
	} else {
		m.stream = stream
		slog.Info("Streaming started", "pipeline", m.variant.Name, "session_id", m.session.ID, "facing", stream.Facing())
		m.setStateLocked(Streaming)
	}
	m.mu.Unlock()

	m.flush()
	return nil
}

// Capture freezes the current frame and submits it for analysis. It does nothing
// while the stream has no frame yet, or while a capture or analysis is in progress.
func (m *Machine[T]) Capture(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.state == Analyzing || (m.state == Streaming && m.busy) {
		m.mu.Unlock()
		return nil
	}
	if m.state != Streaming {
		m.mu.Unlock()
		return ErrInvalidState
	}
	m.busy = true
	stream := m.stream
	id := m.session.ID
	m.mu.Unlock()

	img, err := capture.Capture(stream, m.variant.Capture)

	m.mu.Lock()
	m.busy = false
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.session == nil || m.session.ID != id || m.state != Streaming {
		m.mu.Unlock()
		return nil
	}
	if err != nil {
		slog.Warn("Frame capture failed", "pipeline", m.variant.Name, "session_id", id, "err", err)
		m.releaseLocked()
		m.session.Failure = cameraFailure(fmt.Errorf("failed to capture frame: %w", err))
		m.setStateLocked(Failed)
		m.mu.Unlock()
		m.flush()
		return nil
	}
	if img == nil {
		slog.Debug("Capture ignored, stream not ready", "pipeline", m.variant.Name, "session_id", id)
		m.mu.Unlock()
		return nil
	}

	m.releaseLocked()
	m.session.Image = img
	m.setStateLocked(Captured)

	actx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.cancel = cancel
	m.setStateLocked(Analyzing)
	req := analysis.Request{Image: img, Context: m.context}
	m.inflight.Add(1)
	m.mu.Unlock()

	m.flush()
	go m.analyze(actx, id, req)
	return nil
}

func (m *Machine[T]) analyze(ctx context.Context, id string, req analysis.Request) {
	defer m.inflight.Done()

	result, err := m.analyzer.Analyze(ctx, req)

	m.mu.Lock()
	if m.closed || m.session == nil || m.session.ID != id || m.state != Analyzing {
		m.mu.Unlock()
		metrics.StaleRepliesTotal.WithLabelValues(m.variant.Name).Inc()
		slog.Debug("Discarding stale analysis reply", "pipeline", m.variant.Name, "session_id", id)
		return
	}
	m.cancel()
	m.cancel = nil

	var onComplete func(*T)
	if err != nil {
		m.session.Image = nil
		m.session.Failure = analysisFailure(err)
		m.setStateLocked(Failed)
	} else {
		m.session.Result = result
		m.setStateLocked(Succeeded)
		onComplete = m.onComplete
	}
	m.mu.Unlock()

	m.flush()
	if onComplete != nil {
		onComplete(result)
	}
}

// Close releases the camera and discards the session. Any analysis still in
// flight is cancelled and its reply ignored. Close is idempotent.
func (m *Machine[T]) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.releaseLocked()
	m.session = nil
	m.state = Idle
	m.emitLocked()
	m.mu.Unlock()

	slog.Info("Pipeline closed", "pipeline", m.variant.Name)
	m.flush()
	return nil
}

// releaseLocked gives the stream back to the device, if one is held
func (m *Machine[T]) releaseLocked() {
	if m.stream != nil {
		m.device.Release(m.stream)
		m.stream = nil
	}
}

func (m *Machine[T]) setStateLocked(s State) {
	m.state = s
	if m.session != nil {
		m.session.State = s
	}
	metrics.TransitionsTotal.WithLabelValues(m.variant.Name, s.String()).Inc()
	slog.Debug("Pipeline transition", "pipeline", m.variant.Name, "state", s.String())
	m.emitLocked()
}

func (m *Machine[T]) emitLocked() {
	m.seq++
	m.pending = append(m.pending, m.snapshotLocked())
}

func (m *Machine[T]) snapshotLocked() Snapshot[T] {
	snap := Snapshot[T]{
		Pipeline: m.variant.Name,
		State:    m.state,
		Closed:   m.closed,
		Seq:      m.seq,
	}
	if s := m.session; s != nil {
		snap.SessionID = s.ID
		snap.Result = s.Result
		snap.Failure = s.Failure
		snap.StartedAt = s.StartedAt
		if s.Image != nil {
			snap.ImageBytes = len(s.Image.Data)
		}
	}
	return snap
}

// flush delivers pending snapshots in order. Whichever goroutine holds notifyMu
// drains the queue; a caller that cannot take it leaves its snapshots to the holder.
func (m *Machine[T]) flush() {
	for {
		if !m.notifyMu.TryLock() {
			return
		}
		for {
			m.mu.Lock()
			batch := m.pending
			m.pending = nil
			observers := make([]func(Snapshot[T]), 0, len(m.observers))
			for id := 0; id < m.nextObs; id++ {
				if fn, ok := m.observers[id]; ok {
					observers = append(observers, fn)
				}
			}
			m.mu.Unlock()

			if len(batch) == 0 {
				break
			}
			for _, snap := range batch {
				for _, fn := range observers {
					fn(snap)
				}
			}
		}
		m.notifyMu.Unlock()

		m.mu.Lock()
		more := len(m.pending) > 0
		m.mu.Unlock()
		if !more {
			return
		}
	}
}
