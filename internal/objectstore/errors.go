package objectstore

import (
	"context"
	"errors"
	"net"

	"github.com/minio/minio-go/v7"
)

// transientCodes are the backend error codes treated as retryable:
// throttling, timeouts and temporary unavailability. Everything else
// (permissions, missing buckets, malformed requests) is fatal and
// surfaced immediately.
var transientCodes = map[string]struct{}{
	"SlowDown":           {},
	"SlowDownRead":       {},
	"SlowDownWrite":      {},
	"Throttling":         {},
	"RequestTimeout":     {},
	"InternalError":      {},
	"ServiceUnavailable": {},
	"OperationAborted":   {},
	"BadGateway":         {},
	"GatewayTimeout":     {},
	"TooManyRequests":    {},
	"ConnectionClosed":   {},
}

// IsTransient classifies an object store error as retryable or fatal.
// It is the classifier fed into the retry policy.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var resp minio.ErrorResponse
	if errors.As(err, &resp) && resp.Code != "" {
		if _, ok := transientCodes[resp.Code]; ok {
			return true
		}
		return resp.StatusCode == 429 || resp.StatusCode >= 500
	}

	return false
}

// IsNotFound reports whether the error means the requested object or
// bucket does not exist.
func IsNotFound(err error) bool {
	var resp minio.ErrorResponse
	if !errors.As(err, &resp) {
		return false
	}
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}
