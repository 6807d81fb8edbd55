package awsx

import (
	"errors"
	"strings"

	"github.com/aws/smithy-go"

	"github.com/pithecene-io/cmdrelay/relay"
)

// apiErrorKinds maps AWS error codes to relay classifications.
var apiErrorKinds = map[string]error{
	"InvocationDoesNotExist":        relay.ErrNotFound,
	"InvalidCommandId":              relay.ErrNotFound,
	"InvalidInstanceId":             relay.ErrNotFound,
	"ResourceNotFoundException":     relay.ErrNotFound,
	"NoSuchKey":                     relay.ErrNotFound,
	"NoSuchBucket":                  relay.ErrNotFound,
	"InvalidSequenceTokenException": relay.ErrRejected,
	"DataAlreadyAcceptedException":  relay.ErrRejected,
	"InvalidParameterException":     relay.ErrRejected,
	"ThrottlingException":           relay.ErrThrottled,
	"ThrottledException":            relay.ErrThrottled,
	"TooManyRequestsException":      relay.ErrThrottled,
	"SlowDown":                      relay.ErrThrottled,
	"ServiceUnavailableException":   relay.ErrThrottled,
	"UnrecognizedClientException":   relay.ErrAuth,
	"ExpiredTokenException":         relay.ErrAuth,
	"InvalidSignatureException":     relay.ErrAuth,
	"InvalidAccessKeyId":            relay.ErrAuth,
	"SignatureDoesNotMatch":         relay.ErrAuth,
	"AccessDeniedException":         relay.ErrAccessDenied,
	"AccessDenied":                  relay.ErrAccessDenied,
}

// Wrap classifies err and wraps it in a *relay.ServiceError.
// Returns nil if err is nil.
func Wrap(service, op string, err error) error {
	if err == nil {
		return nil
	}
	return &relay.ServiceError{Kind: Classify(err), Service: service, Op: op, Err: err}
}

// Classify determines the relay sentinel for an AWS SDK error.
// API error codes are checked first, then timeouts, then message patterns.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if kind, ok := apiErrorKinds[apiErr.ErrorCode()]; ok {
			return kind
		}
	}

	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return relay.ErrTimeout
	}

	// Bare status numbers are not matched; resource ids such as i-0403...
	// would trip them.
	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "timeout", "timed out", "deadline exceeded"):
		return relay.ErrTimeout
	case containsAny(msg, "rate exceeded", "throttl", "toomanyrequests",
		"statuscode: 429", "status code: 429"):
		return relay.ErrThrottled
	case containsAny(msg, "no ec2 imds role found", "failed to retrieve credentials",
		"credentials", "expiredtoken", "unauthorized",
		"statuscode: 401", "status code: 401"):
		return relay.ErrAuth
	case containsAny(msg, "accessdenied", "access denied", "forbidden",
		"statuscode: 403", "status code: 403"):
		return relay.ErrAccessDenied
	case containsAny(msg, "connection refused", "no route to host", "network unreachable",
		"no such host", "dial tcp"):
		return relay.ErrNetwork
	default:
		return relay.ErrService
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
