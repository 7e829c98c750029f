package analyze

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeNetError struct{ timeout bool }

func (e fakeNetError) Error() string   { return "read tcp 10.0.0.1:443: i/o" }
func (e fakeNetError) Timeout() bool   { return e.timeout }
func (e fakeNetError) Temporary() bool { return false }

var _ net.Error = fakeNetError{}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{name: "nil", err: nil, want: ""},
		{name: "tagged", err: Tag(CodeParseError, errors.New("boom")), want: CodeParseError},
		{name: "wrapped tag", err: fmt.Errorf("attempt 2: %w", Tag(CodeSchemaInvalid, nil)), want: CodeSchemaInvalid},
		{name: "classified", err: newClassified(CodeOffline, nil), want: CodeOffline},
		{name: "status 401", err: &StatusError{StatusCode: 401}, want: CodeAuthFailure},
		{name: "status 403", err: &StatusError{StatusCode: 403}, want: CodeAuthFailure},
		{name: "status 429", err: &StatusError{StatusCode: 429}, want: CodeRateLimited},
		{name: "status 503", err: &StatusError{StatusCode: 503}, want: CodeOverloaded},
		{name: "status 500", err: &StatusError{StatusCode: 500}, want: CodeServerError},
		{name: "status 404", err: &StatusError{StatusCode: 404}, want: CodeBadRequest},
		{name: "status name only", err: &StatusError{Status: "RESOURCE_EXHAUSTED"}, want: CodeRateLimited},
		{name: "status message only", err: &StatusError{Message: "the model is overloaded"}, want: CodeOverloaded},
		{name: "deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded), want: CodeTimeout},
		{name: "canceled", err: context.Canceled, want: CodeCanceled},
		{name: "net timeout", err: fakeNetError{timeout: true}, want: CodeTimeout},
		{name: "net failure", err: fakeNetError{}, want: CodeNetworkError},
		{name: "dns", err: errors.New("dial tcp: lookup example.invalid: no such host"), want: CodeNetworkError},
		{name: "quota text", err: errors.New("Quota exceeded for requests"), want: CodeRateLimited},
		{name: "safety text", err: errors.New("response blocked by policy"), want: CodeSafetyRefusal},
		{name: "recitation text", err: errors.New("RECITATION detected"), want: CodeRecitationRefusal},
		{name: "api key text", err: errors.New("API key not valid"), want: CodeAuthFailure},
		{name: "unrecognised", err: errors.New("zzz"), want: CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestCodeTable(t *testing.T) {
	retryable := []Code{
		CodeRateLimited, CodeOverloaded, CodeServerError, CodeNetworkError,
		CodeTimeout, CodeNoJSONFound, CodeParseError, CodeSchemaInvalid, CodeUnknown,
	}
	final := []Code{
		CodeInvalidInput, CodeOffline, CodeMissingCredential, CodeAuthFailure, CodeBadRequest,
		CodeSafetyRefusal, CodeRecitationRefusal, CodeModelRefusal, CodeCanceled,
	}

	for _, c := range retryable {
		assert.True(t, c.Retryable(), c)
		assert.NotEmpty(t, c.Message(), c)
	}
	for _, c := range final {
		assert.False(t, c.Retryable(), c)
		assert.NotEmpty(t, c.Message(), c)
	}

	assert.False(t, Code("Mystery").Retryable())
	assert.Equal(t, CodeUnknown.Message(), Code("Mystery").Message())
}

func TestClassifiedErrorUnwraps(t *testing.T) {
	root := errors.New("root cause")
	err := classify(Tag(CodeTimeout, root))

	assert.Equal(t, CodeTimeout, err.Code)
	assert.True(t, err.Retryable)
	assert.Equal(t, CodeTimeout.Message(), err.Message)
	assert.ErrorIs(t, err, root)
	assert.Contains(t, err.Error(), "root cause")

	assert.Same(t, err, classify(fmt.Errorf("again: %w", err)))
}
