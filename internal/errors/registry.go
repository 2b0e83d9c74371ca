package errors

// Registered error codes.
const (
	CodeUnknownField   = "E101"
	CodeFieldType      = "E102"
	CodeNotAContainer  = "E103"
	CodeBatchPanic     = "E201"
	CodeBindDecode     = "E301"
	CodeBindUpgrade    = "E302"
	CodeBindWrite      = "E303"
	CodeValidatorSetup = "E401"
	CodeConfigRead     = "E501"
	CodeConfigParse    = "E502"
	CodeConfigInvalid  = "E503"
	CodeStateLoad      = "E504"
	CodeCLIUsage       = "E601"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Lens Errors (E101-E199)
	// ============================================

	CodeUnknownField: {
		Category: CategoryLens,
		Message:  "Key lens names an unknown field",
		Detail:   "The struct type has no exported field with this name or JSON tag.",
	},
	CodeFieldType: {
		Category: CategoryLens,
		Message:  "Key lens field type mismatch",
		Detail:   "The field exists but its type is not assignable to the lens focus type.",
	},
	CodeNotAContainer: {
		Category: CategoryLens,
		Message:  "Key lens applied to a non-container type",
		Detail:   "Key lenses work on structs, pointers to structs, maps with string keys and interfaces holding those.",
	},

	// ============================================
	// Batch Errors (E201-E299)
	// ============================================

	CodeBatchPanic: {
		Category: CategoryBatch,
		Message:  "Batch callback panicked",
		Detail:   "The asynchronous batch callback panicked. The pending value was committed before the panic was reported.",
	},

	// ============================================
	// Binding Errors (E301-E399)
	// ============================================

	CodeBindDecode: {
		Category: CategoryBinding,
		Message:  "Cannot decode client frame",
		Detail:   "The websocket client sent a frame that is not a JSON object with a value field of the atom's type.",
	},
	CodeBindUpgrade: {
		Category: CategoryBinding,
		Message:  "WebSocket upgrade failed",
	},
	CodeBindWrite: {
		Category: CategoryBinding,
		Message:  "WebSocket write failed",
	},

	// ============================================
	// Validation Errors (E401-E499)
	// ============================================

	CodeValidatorSetup: {
		Category: CategoryValidation,
		Message:  "Validator could not inspect the value",
		Detail:   "The validator rejected the value type itself, usually because it is not a struct.",
	},

	// ============================================
	// Config Errors (E501-E599)
	// ============================================

	CodeConfigRead: {
		Category: CategoryConfig,
		Message:  "Cannot read configuration file",
	},
	CodeConfigParse: {
		Category: CategoryConfig,
		Message:  "Invalid JSON in configuration file",
	},
	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
	},
	CodeStateLoad: {
		Category: CategoryConfig,
		Message:  "Cannot load initial state document",
	},

	// ============================================
	// CLI Errors (E601-E699)
	// ============================================

	CodeCLIUsage: {
		Category: CategoryCLI,
		Message:  "Invalid command usage",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
