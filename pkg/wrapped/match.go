package wrapped

// Handler handles a specific status.
type Handler[T, R any] interface {
	handle(Wrapped[T]) (R, bool)
}

type handlerFunc[T, R any] func(Wrapped[T]) (R, bool)

func (f handlerFunc[T, R]) handle(w Wrapped[T]) (R, bool) {
	return f(w)
}

// Match returns the result of the first handler matching w's status,
// or the zero value of R if none matches.
func Match[T, R any](w Wrapped[T], handlers ...Handler[T, R]) R {
	for _, h := range handlers {
		if r, ok := h.handle(w); ok {
			return r
		}
	}
	var zero R
	return zero
}

func onStatus[T, R any](s Status, fn func() R) Handler[T, R] {
	return handlerFunc[T, R](func(w Wrapped[T]) (R, bool) {
		if w.Status != s {
			var zero R
			return zero, false
		}
		return fn(), true
	})
}

// OnIdle handles the idle status.
func OnIdle[T, R any](fn func() R) Handler[T, R] {
	return onStatus[T](StatusIdle, fn)
}

// OnPending handles the pending status.
func OnPending[T, R any](fn func() R) Handler[T, R] {
	return onStatus[T](StatusPending, fn)
}

// OnFulfilled handles the fulfilled status.
func OnFulfilled[T, R any](fn func(T) R) Handler[T, R] {
	return handlerFunc[T, R](func(w Wrapped[T]) (R, bool) {
		if w.Status != StatusFulfilled {
			var zero R
			return zero, false
		}
		return fn(w.Value), true
	})
}

// OnRejected handles the rejected status.
func OnRejected[T, R any](fn func(error) R) Handler[T, R] {
	return handlerFunc[T, R](func(w Wrapped[T]) (R, bool) {
		if w.Status != StatusRejected {
			var zero R
			return zero, false
		}
		return fn(w.Err), true
	})
}

// OnUnsettled handles both the idle and pending statuses.
func OnUnsettled[T, R any](fn func() R) Handler[T, R] {
	return handlerFunc[T, R](func(w Wrapped[T]) (R, bool) {
		if w.IsSettled() {
			var zero R
			return zero, false
		}
		return fn(), true
	})
}
