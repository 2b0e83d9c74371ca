// Package wrapped represents the status of an asynchronous value and
// exposes it as an atom.
//
// A Wrapped value is idle, pending, fulfilled with a value, or rejected
// with an error. Wrap runs a function in the background and publishes its
// progress:
//
//	user := wrapped.Wrap(ctx, func(ctx context.Context) (*User, error) {
//	    return db.Users.Find(ctx, id)
//	})
//	user.Atom().Subscribe(func(w wrapped.Wrapped[*User]) {
//	    switch w.Status {
//	    case wrapped.StatusPending:
//	        // show spinner
//	    case wrapped.StatusFulfilled:
//	        render(w.Value)
//	    case wrapped.StatusRejected:
//	        showError(w.Err)
//	    }
//	})
//
// Unwrap turns an atom of Wrapped values into an atom of the last
// fulfilled value.
package wrapped
