package planner

import "errors"

var (
	// ErrInvalidOptions is returned before any work starts when the caller's
	// options are out of range.
	ErrInvalidOptions = errors.New("invalid generation options")

	ErrModelTimeout       = errors.New("model call timed out")
	ErrModelFailed        = errors.New("model call failed")
	ErrUnrecoverableParse = errors.New("no JSON object could be recovered from model output")
	ErrInvalidSchema      = errors.New("meal plan does not match schema")

	// ErrFallbackInvalid means the built-in catalog produced a plan that fails
	// validation. It is never recovered from.
	ErrFallbackInvalid = errors.New("fallback plan failed validation")
)

// FailureKind names the class of a model-path failure for metrics labels.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrModelTimeout):
		return "timeout"
	case errors.Is(err, ErrModelFailed):
		return "model_error"
	case errors.Is(err, ErrUnrecoverableParse):
		return "parse"
	case errors.Is(err, ErrInvalidSchema):
		return "schema"
	default:
		return "other"
	}
}
