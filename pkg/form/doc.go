// Package form builds form state on top of atoms.
//
// A Store pairs a writable value atom with an atom of validation
// results. Child stores for fields and slice elements are obtained with
// Bind and BindIndex; they write through to the parent value and see the
// part of the parent's validation result that concerns them.
//
// # Basic Usage
//
//	type SignUp struct {
//	    FirstName string `json:"firstName" validate:"required,min=2,max=100"`
//	    LastName  string `json:"lastName" validate:"required"`
//	}
//
//	value := atom.New(SignUp{})
//	store := form.New(ctx, value, form.Validator[SignUp](form.NewValidator()))
//	defer store.Close()
//
//	first := form.Bind[SignUp, string](store, "firstName")
//	first.Value().Set("Ada")
//	first.Result().Get() // success once the field is valid
//
// # Validation
//
// Validation runs on every change of the value. Synchronous validators
// update the result before the write returns. Asynchronous validators
// report StatusValidating while they run, except that an error result is
// kept until the new run finishes, so error messages do not flicker.
//
// Results of struct validation come from go-playground/validator (see
// Validator and NewValidator) or from field rules (see Rules).
package form
