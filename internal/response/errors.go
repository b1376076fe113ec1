package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation      ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload  ErrCode = "INVALID_PAYLOAD"
	ErrUnknownQuestion ErrCode = "UNKNOWN_QUESTION"
	ErrChoiceRange     ErrCode = "CHOICE_OUT_OF_RANGE"
	ErrAnswerType      ErrCode = "ANSWER_TYPE_MISMATCH"
	ErrUnknownAction   ErrCode = "UNKNOWN_ACTION"

	// ─── Session ───────────────────────────────────────────────────────
	ErrNotSubmitted   ErrCode = "SESSION_NOT_SUBMITTED"
	ErrNotInitialized ErrCode = "SESSION_NOT_INITIALIZED"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrUnknownQuestion:
		return "The question is not part of this session."
	case ErrChoiceRange:
		return "The selected option does not exist."
	case ErrAnswerType:
		return "The answer does not match the question type."
	case ErrUnknownAction:
		return "Unknown action."

	case ErrNotSubmitted:
		return "The session has not been submitted yet."
	case ErrNotInitialized:
		return "The session is not ready yet."

	case ErrNotFound:
		return "Resource not found."

	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
