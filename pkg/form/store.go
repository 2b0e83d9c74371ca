package form

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strconv"
	"sync"

	"github.com/vango-dev/atomrx/pkg/atom"
	"github.com/vango-dev/atomrx/pkg/lens"
)

// ErrInvalid is returned by Submit when the value does not validate.
var ErrInvalid = errors.New("form: value is not valid")

// Option configures a Store.
type Option func(*options)

type options struct {
	name   string
	logger *slog.Logger
}

// WithName sets the name used for the result atom and in logs.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger sets the logger for validation diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Store is a form value together with its validation result.
type Store[T any] struct {
	value  atom.Writable[T]
	result atom.ReadOnly[Result]
	opts   options

	// Set on root stores only.
	state  *atom.Root[Result]
	unsub  atom.Unsubscribe
	ctx    context.Context
	stop   context.CancelFunc
	cancel context.CancelFunc
	seq    uint64
	mu     sync.Mutex

	binds     bindCache
	canSubmit lazy[*atom.Derived[bool]]
}

// New creates a store validating value with validate. Validation runs
// immediately and again on every change until Close is called.
func New[T any](ctx context.Context, value atom.Writable[T], validate Validate[T], opts ...Option) *Store[T] {
	o := options{name: "form"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	s := &Store[T]{
		value: value,
		opts:  o,
		state: atom.New(Validating(), atom.WithName(o.name+".result"), atom.WithLogger(o.logger)),
	}
	s.result = s.state
	s.ctx, s.stop = context.WithCancel(ctx)
	s.unsub = value.Subscribe(func(v T) { s.run(validate, v) })
	return s
}

func newChild[T any](value atom.Writable[T], result atom.ReadOnly[Result], o options) *Store[T] {
	return &Store[T]{value: value, result: result, opts: o}
}

// run validates v and publishes the result.
func (s *Store[T]) run(validate Validate[T], v T) {
	if !validate.async {
		s.state.Set(validate.fn(s.ctx, v))
		return
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	id := s.seq
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.state.Modify(func(prev Result) Result {
		if prev.Status == StatusError {
			return prev
		}
		return Validating()
	})

	go func() {
		defer cancel()
		r := validate.fn(ctx, v)
		if ctx.Err() != nil || !s.current(id) {
			s.opts.logger.Debug("discarding superseded validation", "form", s.opts.name)
			return
		}
		s.state.Set(r)
	}()
}

func (s *Store[T]) current(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq == id
}

// Value returns the value atom.
func (s *Store[T]) Value() atom.Writable[T] {
	return s.value
}

// Result returns the validation result atom.
func (s *Store[T]) Result() atom.ReadOnly[Result] {
	return s.result
}

// CanSubmit returns an atom that is true while the result is a success.
func (s *Store[T]) CanSubmit() *atom.Derived[bool] {
	return s.canSubmit.load(func() *atom.Derived[bool] {
		return atom.View(s.result, Result.Valid, atom.WithName(s.opts.name+".canSubmit"))
	})
}

// Submit calls fn with the current value if the result is a success.
func (s *Store[T]) Submit(fn func(T) error) error {
	if !s.result.Get().Valid() {
		return ErrInvalid
	}
	return fn(s.value.Get())
}

// Close stops validation. Closing a bound child store does nothing.
func (s *Store[T]) Close() {
	if s.state == nil {
		return
	}
	s.unsub()
	s.stop()
}

// Bind returns the store of a field of T, by Go name or JSON name.
// Stores are cached per field and type. It panics if T has no such
// field of type F, see lens.Key.
func Bind[T, F any](s *Store[T], field string) *Store[F] {
	key := bindKey{field: field, typ: reflect.TypeFor[F]()}
	return lookup(&s.binds, key, func() *Store[F] {
		return newChild[F](
			atom.LensKey[T, F](s.value, field),
			atom.View(s.result, func(r Result) Result { return r.Child(field) }),
			s.childOptions(field),
		)
	})
}

// BindIndex returns the store of element i of a slice. The element is
// None while i is out of range, and writes are ignored.
func BindIndex[E any](s *Store[[]E], i int) *Store[lens.Option[E]] {
	name := strconv.Itoa(i)
	key := bindKey{field: name, index: true, typ: reflect.TypeFor[E]()}
	return lookup(&s.binds, key, func() *Store[lens.Option[E]] {
		return newChild[lens.Option[E]](
			atom.LensIndex(s.value, i),
			atom.View(s.result, func(r Result) Result { return r.Child(name) }),
			s.childOptions(name),
		)
	})
}

func (s *Store[T]) childOptions(field string) options {
	o := s.opts
	o.name = s.opts.name + "." + field
	return o
}

type bindKey struct {
	field string
	index bool
	typ   reflect.Type
}

type bindCache struct {
	mu sync.Mutex
	m  map[bindKey]any
}

func lookup[F any](c *bindCache, key bindKey, create func() *Store[F]) *Store[F] {
	c.mu.Lock()
	if s, ok := c.m[key]; ok {
		c.mu.Unlock()
		return s.(*Store[F])
	}
	c.mu.Unlock()

	created := create()

	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.m[key]; ok {
		return s.(*Store[F])
	}
	if c.m == nil {
		c.m = make(map[bindKey]any)
	}
	c.m[key] = created
	return created
}

// lazy initializes a value once.
type lazy[V any] struct {
	once sync.Once
	v    V
}

func (a *lazy[V]) load(create func() V) V {
	a.once.Do(func() { a.v = create() })
	return a.v
}
