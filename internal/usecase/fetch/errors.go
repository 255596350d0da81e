package fetch

import "errors"

// Sentinel errors for fetch use case operations.
var (
	// ErrInvalidURL indicates the URL format is invalid or uses an unsupported scheme.
	ErrInvalidURL = errors.New("invalid URL or unsupported scheme")

	// ErrPrivateIP indicates the URL resolves to a private IP address (SSRF prevention).
	ErrPrivateIP = errors.New("private IP access denied (SSRF prevention)")

	// ErrTooManyRedirects indicates the redirect chain exceeded the configured maximum.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBodyTooLarge indicates the response body exceeded the size limit.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrTimeout indicates the request exceeded the configured timeout.
	ErrTimeout = errors.New("request timeout")

	// ErrNonSuccess indicates a non-200 HTTP response; per §4.1 this is not
	// retried, the URL is simply dropped.
	ErrNonSuccess = errors.New("non-200 http response")

	// ErrPublishFailed indicates the broker rejected or could not accept the
	// publish; treated identically to exhausted fetch retries.
	ErrPublishFailed = errors.New("queue publish failed")
)

// IsNonSuccess reports whether err is (or wraps) ErrNonSuccess: a non-200
// HTTP response that §4.1 drops without retrying.
func IsNonSuccess(err error) bool {
	return errors.Is(err, ErrNonSuccess)
}
