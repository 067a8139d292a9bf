package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	// Retryable: network-level failures (timeout, DNS, connection reset).
	ErrCodeNetwork = "NETWORK_ERROR"

	// Retryable with identity rotation: the target detected automation
	// (403/429 or a challenge-page fingerprint in the body).
	ErrCodeBlocked = "BLOCKED"

	// Not retryable: robots.txt blanket disallow; the whole site is skipped.
	ErrCodePolicyDisallowed = "POLICY_DISALLOWED"

	// Not retryable: render/parse failure on one page; the crawl continues.
	ErrCodeExtraction = "EXTRACTION_FAILED"

	// Storage failure for one page; logged, the crawl continues.
	ErrCodePersistence = "PERSISTENCE_FAILED"

	ErrCodeTimeout      = "HARVEST_TIMEOUT"
	ErrCodeBrowserCrash = "BROWSER_CRASH"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HarvestError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type HarvestError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *HarvestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *HarvestError) Unwrap() error {
	return e.Err
}

// NewHarvestError creates a new HarvestError.
func NewHarvestError(code, message string, err error) *HarvestError {
	return &HarvestError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *HarvestError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// Retryable reports whether the error kind may be retried by the fetcher.
// Blocked errors additionally require an identity rotation before the retry.
func (e *HarvestError) Retryable() bool {
	return e.Code == ErrCodeNetwork || e.Code == ErrCodeBlocked
}
