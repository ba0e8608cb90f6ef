package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionRequired    ErrCode = "SESSION_REQUIRED"
	ErrSessionExpired     ErrCode = "SESSION_EXPIRED"
	ErrTokenMissing       ErrCode = "TOKEN_MISSING"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden       ErrCode = "FORBIDDEN"
	ErrAdminAccessOnly ErrCode = "ADMIN_ACCESS_ONLY"
	ErrUserAccessOnly  ErrCode = "USER_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrInvalidFilter  ErrCode = "INVALID_FILTER"
	ErrPageOutOfRange ErrCode = "PAGE_OUT_OF_RANGE"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound           ErrCode = "NOT_FOUND"
	ErrProfileNotFound    ErrCode = "PROFILE_NOT_FOUND"
	ErrBackendRejected    ErrCode = "BACKEND_REJECTED"
	ErrBackendUnreachable ErrCode = "BACKEND_UNREACHABLE"
	ErrStaleSession       ErrCode = "STALE_SESSION"

	// ─── Exam-specific ─────────────────────────────────────────────────
	ErrExamIncomplete     ErrCode = "EXAM_INCOMPLETE"
	ErrExamNotInProgress  ErrCode = "EXAM_NOT_IN_PROGRESS"
	ErrExamDisqualified   ErrCode = "EXAM_DISQUALIFIED"
	ErrExamGenerateFailed ErrCode = "EXAM_GENERATE_FAILED"
	ErrExamLoadFailed     ErrCode = "EXAM_LOAD_FAILED"
	ErrExamSubmitFailed   ErrCode = "EXAM_SUBMIT_FAILED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"
	ErrInternal          ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid email or password."
	case ErrSessionRequired:
		return "Please log in to continue."
	case ErrSessionExpired:
		return "Your session has expired. Please log in again."
	case ErrTokenMissing:
		return "Login succeeded but no token was returned."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrAdminAccessOnly:
		return "This page is restricted to administrators."
	case ErrUserAccessOnly:
		return "This page is restricted to candidates."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrInvalidFilter:
		return "Invalid filter."
	case ErrPageOutOfRange:
		return "Page out of range."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrProfileNotFound:
		return "Candidate profile not found."
	case ErrBackendRejected:
		return "The request could not be completed."
	case ErrBackendUnreachable:
		return "Network error. Please check your connection and try again."
	case ErrStaleSession:
		return "Your session changed while the request was running."

	// ─── Exam-specific ─────────────────────────────────────────────────
	case ErrExamIncomplete:
		return "Please answer all questions before submitting."
	case ErrExamNotInProgress:
		return "This exam is not in progress."
	case ErrExamDisqualified:
		return "You have been disqualified from this exam."
	case ErrExamGenerateFailed:
		return "You can only attempt the exam once every 10 days."
	case ErrExamLoadFailed:
		return "Failed to load exam. Please try again."
	case ErrExamSubmitFailed:
		return "Failed to submit exam. Please try again."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please slow down."
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
