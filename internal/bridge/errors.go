package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// unknownServerError is the terminal fallback of the message chain when a
// failure body carries none of the known message fields.
const unknownServerError = "unknown server error"

// StatusError is an upstream rejection or transport failure. Message is
// resolved from the response body via the ordered error/message/detail
// chain; Unreachable marks transport-level failures that look like the
// backend simply is not there.
type StatusError struct {
	Code        int
	Message     string
	Unreachable bool
}

func (e *StatusError) Error() string {
	if e.Unreachable {
		return fmt.Sprintf("backend server is not accessible: %s", e.Message)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Code)
}

// DecodeError means a response body could not be parsed as the expected
// structured form.
type DecodeError struct {
	Body string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("server returned invalid response: %s", e.Body)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// apiError is the generic failure body shape shared by all gateway calls.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// extractMessage pulls the failure text out of a non-success body using
// the documented field precedence. Unparseable bodies fall through to the
// generic message as well.
func extractMessage(body []byte) string {
	var e apiError
	if err := json.Unmarshal(body, &e); err != nil {
		return unknownServerError
	}
	return firstNonEmpty(e.Error, e.Message, e.Detail, unknownServerError)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// isUnreachable classifies transport errors that indicate the gateway is
// down or unroutable, as opposed to an application-level rejection.
func isUnreachable(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EHOSTUNREACH) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "connection refused")
}
