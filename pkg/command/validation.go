package command

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel causes carried by ValidationError. Match them with errors.Is.
var (
	ErrNotMapping        = errors.New("parameters must be a mapping with string keys")
	ErrNotSerializable   = errors.New("parameters are not JSON serializable")
	ErrCircularReference = errors.New("circular reference detected in parameters")
	ErrRequiredField     = errors.New("required field is blank")
	ErrInvalidValue      = errors.New("invalid field value")
)

// Validation codes.
const (
	CodeNotMapping   = "NOT_MAPPING"
	CodeNotJSON      = "NOT_SERIALIZABLE"
	CodeCircular     = "CIRCULAR_REFERENCE"
	CodeRequired     = "REQUIRED"
	CodeInvalidValue = "INVALID_VALUE"
	CodeUnusualValue = "UNUSUAL_VALUE"
)

// ValidationError is a fatal finding about one field (or the whole
// parameter container when Field is "params").
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Code)
}

func (e *ValidationError) Unwrap() error { return e.cause }

// Warning is an advisory finding. It never blocks a build.
type Warning struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Field, w.Message)
}

// BuildError reports why a variant could not be built.
type BuildError struct {
	Variant string
	Errors  []*ValidationError
}

func (e *BuildError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Error()
	}
	return fmt.Sprintf("%s validation failed: %s", e.Variant, strings.Join(msgs, "; "))
}

// Unwrap exposes every finding so errors.Is and errors.As see them all.
func (e *BuildError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, ve := range e.Errors {
		errs[i] = ve
	}
	return errs
}


// Report collects the findings of one validation pass.
type Report struct {
	errs     []*ValidationError
	warnings []Warning
}

// Fail records a fatal finding.
func (r *Report) Fail(field, code string, cause error, format string, args ...any) {
	r.errs = append(r.errs, &ValidationError{
		Field:   field,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		cause:   cause,
	})
}

// Warn records an advisory finding.
func (r *Report) Warn(field, code, format string, args ...any) {
	r.warnings = append(r.warnings, Warning{
		Field:   field,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	})
}

// Require fails field when value is empty after trimming whitespace.
func (r *Report) Require(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		r.Fail(field, CodeRequired, ErrRequiredField, "cannot be empty")
		return false
	}
	return true
}

// Merge appends err to the report. A *ValidationError keeps its field and
// code; anything else is filed against "params".
func (r *Report) Merge(err error) {
	if err == nil {
		return
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		r.errs = append(r.errs, ve)
		return
	}
	r.Fail("params", CodeNotJSON, ErrNotSerializable, "%v", err)
}

// OK reports whether no fatal finding was recorded.
func (r *Report) OK() bool { return len(r.errs) == 0 }

// Warnings returns the advisory findings recorded so far.
func (r *Report) Warnings() []Warning {
	if len(r.warnings) == 0 {
		return nil
	}
	out := make([]Warning, len(r.warnings))
	copy(out, r.warnings)
	return out
}

// Err returns a *BuildError naming variant, or nil.
func (r *Report) Err(variant string) error {
	if r.OK() {
		return nil
	}
	errs := make([]*ValidationError, len(r.errs))
	copy(errs, r.errs)
	return &BuildError{Variant: variant, Errors: errs}
}
