package store

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/xraph/usecase/dispatcher"
	"github.com/xraph/usecase/payload"
)

// Reducer computes the next state from the current state and a payload.
// It must not mutate state in place and must not dispatch. It may read
// the store, since it runs without the store lock held; it can be called
// more than once for one payload when reductions race.
type Reducer[S any] func(state S, p payload.Payload, meta payload.Meta) S

// Store holds a state value of type S and updates it with a Reducer for
// every payload delivered by the dispatchers it is attached to.
// It is safe for concurrent use.
type Store[S any] struct {
	name    string
	reduce  Reducer[S]
	logger  *slog.Logger
	mu      sync.RWMutex
	state   S
	version uint64

	lmu       sync.Mutex
	listeners []*listener[S]
}

type listener[S any] struct {
	fn func(S)
}

// Option configures a Store.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used to report reducer and listener panics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates a Store with an initial state.
func New[S any](name string, initial S, reduce Reducer[S], opts ...Option) *Store[S] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[S]{
		name:   name,
		reduce: reduce,
		logger: o.logger,
		state:  initial,
	}
}

// Name returns the store name.
func (s *Store[S]) Name() string { return s.name }

// State returns the current state.
func (s *Store[S]) State() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Snapshot returns the current state as an untyped value.
func (s *Store[S]) Snapshot() any { return s.State() }

// Version counts the state changes applied so far.
func (s *Store[S]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Attach subscribes the store to every payload on d. The returned
// function detaches it.
func (s *Store[S]) Attach(d *dispatcher.Dispatcher) (detach func()) {
	return d.OnDispatch(s.Apply)
}

// Apply reduces a single payload into the state and notifies change
// listeners. A panicking reducer leaves the state unchanged. If another
// reduction commits first, the payload is reduced again against the newer
// state.
func (s *Store[S]) Apply(p payload.Payload, meta payload.Meta) {
	if s.reduce == nil {
		return
	}

	for {
		s.mu.RLock()
		cur, version := s.state, s.version
		s.mu.RUnlock()

		next, ok := s.safeReduce(cur, p, meta)
		if !ok {
			return
		}

		s.mu.Lock()
		if s.version != version {
			s.mu.Unlock()
			continue
		}
		s.state = next
		s.version++
		s.mu.Unlock()

		s.notify(next)
		return
	}
}

func (s *Store[S]) safeReduce(state S, p payload.Payload, meta payload.Meta) (next S, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("store reducer panicked",
				slog.String("store", s.name),
				slog.String("payload_type", string(p.Type())),
				slog.String("panic", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())),
			)
			ok = false
		}
	}()
	return s.reduce(state, p, meta), true
}

// OnChange registers fn to receive the state after every reduction.
func (s *Store[S]) OnChange(fn func(S)) (unsubscribe func()) {
	l := &listener[S]{fn: fn}
	s.lmu.Lock()
	s.listeners = append(s.listeners, l)
	s.lmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.lmu.Lock()
			defer s.lmu.Unlock()
			for i, cur := range s.listeners {
				if cur == l {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store[S]) notify(state S) {
	s.lmu.Lock()
	targets := make([]*listener[S], len(s.listeners))
	copy(targets, s.listeners)
	s.lmu.Unlock()

	for _, l := range targets {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("store listener panicked",
						slog.String("store", s.name),
						slog.String("panic", fmt.Sprint(r)),
					)
				}
			}()
			l.fn(state)
		}()
	}
}
