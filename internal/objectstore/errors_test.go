package objectstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/minio/minio-go/v7"
)

func TestIsTransientClassifiesBackendCodes(t *testing.T) {
	cases := []struct {
		err       error
		transient bool
	}{
		{minio.ErrorResponse{Code: "SlowDown", StatusCode: 503}, true},
		{minio.ErrorResponse{Code: "RequestTimeout", StatusCode: 408}, true},
		{minio.ErrorResponse{Code: "InternalError", StatusCode: 500}, true},
		{minio.ErrorResponse{Code: "SomeNewCode", StatusCode: 503}, true},
		{minio.ErrorResponse{Code: "SomeNewCode", StatusCode: 429}, true},
		{minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}, false},
		{minio.ErrorResponse{Code: "NoSuchBucket", StatusCode: 404}, false},
		{minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}, false},
		{context.DeadlineExceeded, true},
		{errors.New("something else"), false},
		{nil, false},
	}

	for _, tc := range cases {
		if got := IsTransient(tc.err); got != tc.transient {
			t.Errorf("IsTransient(%v) = %v, want %v", tc.err, got, tc.transient)
		}
	}
}

func TestIsTransientUnwrapsErrors(t *testing.T) {
	wrapped := fmt.Errorf("failed to write object: %w", minio.ErrorResponse{Code: "SlowDown", StatusCode: 503})
	if !IsTransient(wrapped) {
		t.Fatal("wrapped transient error should classify as transient")
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}) {
		t.Fatal("NoSuchKey should be not-found")
	}
	if IsNotFound(minio.ErrorResponse{Code: "SlowDown", StatusCode: 503}) {
		t.Fatal("SlowDown is not a not-found error")
	}
}
