package executor

// Stable machine codes carried by ValidationError.Code.
const (
	CodeRequiredField   = "REQUIRED_FIELD"
	CodeInvalidURL      = "INVALID_URL"
	CodeInvalidMethod   = "INVALID_METHOD"
	CodeInvalidHeaders  = "INVALID_HEADERS"
	CodeInvalidJSON     = "INVALID_JSON"
	CodeInvalidTimeout  = "INVALID_TIMEOUT"
	CodeInvalidOperator = "INVALID_OPERATOR"
	CodeInvalidFunction = "INVALID_FUNCTION"
	CodeInvalidType     = "INVALID_TYPE"
	CodeEmptyConditions = "EMPTY_CONDITIONS"
)

// ValidationError is a blocking configuration problem on one field.
type ValidationError struct {
	Field   string
	Message string
	Code    string
}

// ValidationWarning is a non-blocking observation about configuration.
type ValidationWarning struct {
	Field   string
	Message string
}

// ValidationResult aggregates the outcome of Validate. A result with no
// errors is valid; warnings never block execution.
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// NewValidationResult returns a result that is valid until an error is
// added.
func NewValidationResult() *ValidationResult {
	return &ValidationResult{Valid: true}
}

// AddError records a blocking problem and marks the result invalid.
func (vr *ValidationResult) AddError(field, message, code string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Message: message, Code: code})
}

// AddWarning records a non-blocking observation.
func (vr *ValidationResult) AddWarning(field, message string) {
	vr.Warnings = append(vr.Warnings, ValidationWarning{Field: field, Message: message})
}
