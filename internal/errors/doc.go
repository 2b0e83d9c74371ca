// Package errors provides structured errors for atomrx.
//
// Every error carries a registered code (for example "E101") that maps to
// a category, a short message and a longer explanation. Packages wrap the
// underlying cause so that errors.Is and errors.As keep working.
//
// # Error Categories
//
//   - lens: optic construction problems (unknown field, type mismatch)
//   - batch: transaction failures (panicking callbacks)
//   - binding: websocket binding and wire decoding errors
//   - validation: form validation adapter errors
//   - config: atomctl.json loading and validation
//   - cli: command line usage errors
//
// # Usage
//
//	err := errors.New(errors.CodeBatchPanic).
//	    WithDetail(fmt.Sprint(recovered)).
//	    Wrap(cause)
//
//	fmt.Println(err.Format())
package errors
