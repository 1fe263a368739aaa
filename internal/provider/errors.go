package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/comicbench/comicbench/internal/domain"
	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"
)

// Kind classifies a provider failure for the retry policy: transport and
// rate-limit errors are retryable, auth errors abort the provider, and a
// bad response fails only the current call.
type Kind int

const (
	KindTransport Kind = iota
	KindRateLimit
	KindAuth
	KindBadResponse
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindRateLimit:
		return "rate_limit"
	case KindAuth:
		return "auth"
	default:
		return "bad_response"
	}
}

// Error wraps a vendor SDK error with its provider and classification.
type Error struct {
	Provider domain.Provider
	Kind     Kind
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Classify wraps err with the retry classification for the given provider.
// Already-classified errors pass through unchanged.
func Classify(p domain.Provider, err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	return &Error{Provider: p, Kind: classifyKind(err), Err: err}
}

func classifyKind(err error) Kind {
	if code, ok := statusCode(err); ok {
		switch {
		case code == 429 || code == 529:
			return KindRateLimit
		case code == 401 || code == 403:
			return KindAuth
		case code >= 500:
			return KindTransport
		default:
			return KindBadResponse
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransport
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransport
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "Rate limit"),
		strings.Contains(msg, "RESOURCE_EXHAUSTED"), strings.Contains(msg, "quota"):
		return KindRateLimit
	case strings.Contains(msg, "API key"), strings.Contains(msg, "PERMISSION_DENIED"),
		strings.Contains(msg, "Unauthorized"):
		return KindAuth
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "connection"):
		return KindTransport
	}
	if code, ok := embeddedStatusCode(msg); ok && code >= 500 {
		return KindTransport
	}
	return KindBadResponse
}

// statusCode extracts the HTTP status from the vendor SDK error types.
func statusCode(err error) (int, bool) {
	var anthErr *anthropic.Error
	if errors.As(err, &anthErr) {
		return anthErr.StatusCode, true
	}
	var oaiErr *openai.Error
	if errors.As(err, &oaiErr) {
		return oaiErr.StatusCode, true
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	return 0, false
}

var embeddedCodeRegex = regexp.MustCompile(`"code":\s*(\d{3})`)

// embeddedStatusCode digs a status code out of an error string when the SDK
// surfaces only flattened JSON.
func embeddedStatusCode(msg string) (int, bool) {
	if matches := embeddedCodeRegex.FindStringSubmatch(msg); len(matches) > 1 {
		if code, err := strconv.Atoi(matches[1]); err == nil {
			return code, true
		}
	}
	return 0, false
}

// IsRetryable reports whether the call may succeed on another attempt.
func IsRetryable(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind == KindTransport || pe.Kind == KindRateLimit
	}
	return false
}

// IsAuth reports whether the error should abort all calls to its provider.
func IsAuth(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind == KindAuth
	}
	return false
}

// IsRateLimit reports whether the provider signalled an exceeded quota.
func IsRateLimit(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind == KindRateLimit
	}
	return false
}
