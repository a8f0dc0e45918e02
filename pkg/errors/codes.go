package errors

// ErrorCode is a string identifier for a specific failure category.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeUnknown        ErrorCode = "COMMON_000"
	ErrCodeInternal       ErrorCode = "COMMON_001"
	ErrCodeBadRequest     ErrorCode = "COMMON_002"
	ErrCodeNotFound       ErrorCode = "COMMON_003"
	ErrCodeTimeout        ErrorCode = "COMMON_004"
	ErrCodeCancelled      ErrorCode = "COMMON_005"
	ErrCodeSerialization  ErrorCode = "COMMON_006"
	ErrCodeNotImplemented ErrorCode = "COMMON_007"
)

// Analysis-core error codes.
//
// These map one-to-one onto the failure taxonomy of the hotspot engine:
// input validation, configuration, O(n²) resource ceilings, degenerate
// consensus, and feature-extraction logic defects.
const (
	// ErrCodeValidation marks malformed pose input: non-finite coordinates
	// or affinities, duplicate pose IDs, or an empty batch.  Fatal; the run
	// aborts before any clustering starts.
	ErrCodeValidation ErrorCode = "ANALYSIS_001"

	// ErrCodeConfiguration marks a semantically invalid configuration, e.g.
	// strategy weights that do not sum to 1, inverted eps/minPts, or an
	// unsupported linkage cut criterion.  Fatal.
	ErrCodeConfiguration ErrorCode = "ANALYSIS_002"

	// ErrCodeResourceLimit marks a pose count exceeding the configured
	// ceiling for O(n²) structures.  Recoverable by the caller through
	// sub-sampling or raising the ceiling; the core refuses to proceed.
	ErrCodeResourceLimit ErrorCode = "ANALYSIS_003"

	// ErrCodeConsensusDegenerate marks fewer than two strategies producing a
	// non-trivial partition.  Recoverable: the engine falls back to the
	// hierarchical strategy alone and flags the result as low confidence.
	ErrCodeConsensusDegenerate ErrorCode = "ANALYSIS_004"

	// ErrCodeFeatureExtraction marks a partially populated feature vector
	// reaching the scorer.  Unreachable given the defaulting policy; if it
	// fires it indicates a logic defect and is fatal.
	ErrCodeFeatureExtraction ErrorCode = "ANALYSIS_005"

	// ErrCodeModelNotLoaded marks a scoring request against a learned
	// regressor that has not been loaded or failed validation.
	ErrCodeModelNotLoaded ErrorCode = "ANALYSIS_006"

	// ErrCodeModelInvalid marks a regressor model file that fails structural
	// validation (wrong feature count, empty ensemble, bad tree topology).
	ErrCodeModelInvalid ErrorCode = "ANALYSIS_007"
)

// codeMessages maps each code to its default human-readable message, used
// when a caller constructs an error without a custom message.
var codeMessages = map[ErrorCode]string{
	ErrCodeUnknown:             "unknown error",
	ErrCodeInternal:            "internal error",
	ErrCodeBadRequest:          "bad request",
	ErrCodeNotFound:            "not found",
	ErrCodeTimeout:             "operation timed out",
	ErrCodeCancelled:           "operation cancelled",
	ErrCodeSerialization:       "serialization failure",
	ErrCodeNotImplemented:      "not implemented",
	ErrCodeValidation:          "pose input validation failed",
	ErrCodeConfiguration:       "invalid configuration",
	ErrCodeResourceLimit:       "resource limit exceeded",
	ErrCodeConsensusDegenerate: "consensus clustering degenerate",
	ErrCodeFeatureExtraction:   "feature extraction produced incomplete vector",
	ErrCodeModelNotLoaded:      "regressor model not loaded",
	ErrCodeModelInvalid:        "regressor model invalid",
}

// DefaultMessage returns the canonical message for a code, or the message
// for ErrCodeUnknown when the code is not registered.
func DefaultMessage(code ErrorCode) string {
	if msg, ok := codeMessages[code]; ok {
		return msg
	}
	return codeMessages[ErrCodeUnknown]
}

// IsFatal reports whether an error with the given code must abort the run
// outright.  Resource-limit and degenerate-consensus conditions are the only
// recoverable categories in the analysis taxonomy.
func IsFatal(code ErrorCode) bool {
	switch code {
	case ErrCodeResourceLimit, ErrCodeConsensusDegenerate:
		return false
	default:
		return true
	}
}
