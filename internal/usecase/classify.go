package usecase

import (
	"context"
	"errors"
	"net"
	"net/http"
	"slices"
	"strings"
)

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// FailureRule assigns Code to provider failures accepted by Match.
type FailureRule struct {
	Code  ErrorCode
	Match func(err error) bool
}

// FailureClassifier is an ordered rule list; the first matching rule wins.
type FailureClassifier []FailureRule

// Classify returns the code of the first matching rule, or ErrorInternal.
func (c FailureClassifier) Classify(err error) ErrorCode {
	if err == nil {
		return ErrorInternal
	}
	for _, rule := range c {
		if rule.Match != nil && rule.Match(err) {
			return rule.Code
		}
	}
	return ErrorInternal
}

// DefaultFailureRules checks timeout, then authentication, then rate limiting.
// The order decides messages that mention more than one condition.
func DefaultFailureRules() FailureClassifier {
	return FailureClassifier{
		{
			Code: ErrorTimeout,
			Match: AnyOf(
				isDeadline,
				MessageContains("timeout", "TIMEOUT"),
				StatusIn(http.StatusRequestTimeout, http.StatusGatewayTimeout),
			),
		},
		{
			Code: ErrorAuthFailure,
			Match: AnyOf(
				MessageContains("API key", "authentication"),
				StatusIn(http.StatusUnauthorized, http.StatusForbidden),
			),
		},
		{
			Code: ErrorRateLimited,
			Match: AnyOf(
				MessageContains("rate limit", "quota"),
				StatusIn(http.StatusTooManyRequests),
			),
		},
	}
}

// MessageContains matches errors whose message contains any of substrs.
// Matching is case-sensitive.
func MessageContains(substrs ...string) func(error) bool {
	return func(err error) bool {
		msg := err.Error()
		for _, s := range substrs {
			if strings.Contains(msg, s) {
				return true
			}
		}
		return false
	}
}

// StatusIn matches errors carrying one of the given upstream HTTP statuses.
func StatusIn(statuses ...int) func(error) bool {
	return func(err error) bool {
		status, ok := upstreamStatusCode(err)
		return ok && slices.Contains(statuses, status)
	}
}

// AnyOf matches when at least one predicate matches.
func AnyOf(preds ...func(error) bool) func(error) bool {
	return func(err error) bool {
		for _, p := range preds {
			if p(err) {
				return true
			}
		}
		return false
	}
}

func isDeadline(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}
