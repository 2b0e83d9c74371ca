package inspector

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/atomrx/internal/errors"
	"github.com/vango-dev/atomrx/pkg/atom"
	"github.com/vango-dev/atomrx/pkg/bind"
	"github.com/vango-dev/atomrx/pkg/lens"
	"github.com/vango-dev/atomrx/pkg/metrics"
	"github.com/vango-dev/atomrx/pkg/tracing"
)

// Options configures a Server.
type Options struct {
	// Logger receives request and binding logs. If nil, slog.Default() is used.
	Logger *slog.Logger

	// Registry enables the metrics endpoint and atom metrics. Nil disables both.
	Registry *prometheus.Registry

	// Namespace is the metrics namespace (default: "atomrx").
	Namespace string

	// MetricsPath is the metrics endpoint (default: "/metrics").
	MetricsPath string

	// ReadOnly rejects PUT requests and client writes on watch endpoints.
	ReadOnly bool

	// Tracer wraps every write in a span. If nil, a tracer on the global
	// provider is used.
	Tracer *tracing.Tracer

	// Bind configures websocket bindings.
	Bind []bind.Option
}

// Server holds the document atom and the lensed atoms focused on its paths.
type Server struct {
	root   *atom.Root[any]
	opts   Options
	logger *slog.Logger
	atomOp []atom.Option

	mu     sync.Mutex
	lenses map[string]*focused
}

// focused is a lensed atom shared by the requests and bindings on one
// key path.
type focused struct {
	atom *atom.Lensed[any]
	refs int
}

// New creates a Server holding doc.
func New(doc any, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Namespace == "" {
		opts.Namespace = "atomrx"
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	if opts.Tracer == nil {
		opts.Tracer = tracing.New(tracing.WithTracerName("atomctl"))
	}

	atomOpts := []atom.Option{atom.WithLogger(opts.Logger)}
	if opts.Registry != nil {
		// Key paths come from URLs, so atom names are unbounded.
		obs := metrics.NewObserver(
			metrics.WithRegistry(opts.Registry),
			metrics.WithNamespace(opts.Namespace),
			metrics.WithPerAtom(false),
		)
		atomOpts = append(atomOpts, atom.WithObserver(obs))
	}

	return &Server{
		root:   atom.New(doc, append(atomOpts, atom.WithName("state"))...),
		opts:   opts,
		logger: opts.Logger,
		atomOp: atomOpts,
		lenses: make(map[string]*focused),
	}
}

// State returns the document atom.
func (s *Server) State() *atom.Root[any] {
	return s.root
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/state", s.getState)
	r.Get("/state/*", s.getState)
	r.Put("/state", s.putState)
	r.Put("/state/*", s.putState)
	r.Get("/watch", s.watch)
	r.Get("/watch/*", s.watch)

	if s.opts.Registry != nil {
		r.Handle(s.opts.MetricsPath, promhttp.HandlerFor(s.opts.Registry, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// keyPath splits the wildcard of r into object keys.
func keyPath(r *http.Request) []string {
	raw := strings.Trim(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, "/")
}

// focus returns the lensed atom for path, shared with other users of the
// same path. The caller must call release once done with it; the atom is
// dropped when its last user releases it.
func (s *Server) focus(path []string) (l *atom.Lensed[any], release func()) {
	key := strings.Join(path, "/")

	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.lenses[key]
	if !ok {
		opts := append([]atom.Option{atom.WithName("state/" + key)}, s.atomOp...)
		f = &focused{atom: atom.Lens(s.root, lens.Path[any, any](path...), opts...)}
		s.lenses[key] = f
	}
	f.refs++

	var once sync.Once
	return f.atom, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			f.refs--
			if f.refs == 0 {
				delete(s.lenses, key)
			}
		})
	}
}

// focusedPaths returns the number of key paths with a live lensed atom.
func (s *Server) focusedPaths() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lenses)
}

// lookup walks doc along path through JSON objects.
func lookup(doc any, path []string) (any, bool) {
	cur := doc
	for _, name := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[name]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	path := keyPath(r)
	v, ok := lookup(s.root.Get(), path)
	if !ok {
		writeError(w, http.StatusNotFound, notFound(path))
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) putState(w http.ResponseWriter, r *http.Request) {
	if s.opts.ReadOnly {
		writeError(w, http.StatusForbidden, errors.Newf(errors.CategoryBinding, "state is read-only"))
		return
	}

	var v any
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest,
			errors.New(errors.CodeBindDecode).WithSubject(r.URL.Path).Wrap(err))
		return
	}

	path := keyPath(r)
	if len(path) == 0 {
		err := tracing.Batch(r.Context(), s.opts.Tracer, s.root, func(_ context.Context) error {
			s.root.Set(v)
			return nil
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, errors.FromError(err, errors.CodeBatchPanic))
			return
		}
		writeJSON(w, http.StatusOK, s.root.Get())
		return
	}

	parent, ok := lookup(s.root.Get(), path[:len(path)-1])
	if _, isObject := parent.(map[string]any); !ok || !isObject {
		writeError(w, http.StatusNotFound, notFound(path[:len(path)-1]))
		return
	}

	l, release := s.focus(path)
	defer release()
	err := tracing.Batch(r.Context(), s.opts.Tracer, l, func(_ context.Context) error {
		l.Set(v)
		return nil
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, errors.FromError(err, errors.CodeBatchPanic))
		return
	}
	writeJSON(w, http.StatusOK, l.Get())
}

func (s *Server) watch(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		writeError(w, http.StatusBadRequest,
			errors.New(errors.CodeBindUpgrade).WithSubject(r.URL.Path).
				WithDetail("watch endpoints need a websocket upgrade"))
		return
	}
	path := keyPath(r)
	opts := append([]bind.Option{bind.WithLogger(s.logger)}, s.opts.Bind...)

	if len(path) == 0 {
		if s.opts.ReadOnly {
			bind.Handler(s.root.View(), opts...).ServeHTTP(w, r)
			return
		}
		bind.WritableHandler[any](s.root, opts...).ServeHTTP(w, r)
		return
	}

	l, release := s.focus(path)
	defer release()
	if s.opts.ReadOnly {
		bind.Handler(l.View(), opts...).ServeHTTP(w, r)
		return
	}
	bind.WritableHandler[any](l, opts...).ServeHTTP(w, r)
}

func notFound(path []string) *errors.AtomError {
	return errors.New(errors.CodeUnknownField).
		WithSubject(strings.Join(path, ".")).
		WithDetail("no value at this key path")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err *errors.AtomError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(err.FormatJSON()))
	w.Write([]byte("\n"))
}
