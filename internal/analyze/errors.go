package analyze

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Code is the stable, machine-readable cause of a failed analysis
type Code string

const (
	CodeInvalidInput      Code = "InvalidInput"
	CodeOffline           Code = "Offline"
	CodeMissingCredential Code = "MissingCredential"
	CodeAuthFailure       Code = "AuthFailure"
	CodeBadRequest        Code = "BadRequest"
	CodeSafetyRefusal     Code = "SafetyRefusal"
	CodeRecitationRefusal Code = "RecitationRefusal"
	CodeModelRefusal      Code = "ModelRefusal"
	CodeRateLimited       Code = "RateLimited"
	CodeOverloaded        Code = "Overloaded"
	CodeServerError       Code = "ServerError"
	CodeNetworkError      Code = "NetworkError"
	CodeTimeout           Code = "Timeout"
	CodeNoJSONFound       Code = "NoJsonFound"
	CodeParseError        Code = "ParseError"
	CodeSchemaInvalid     Code = "SchemaInvalid"
	CodeCanceled          Code = "Canceled"
	CodeUnknown           Code = "Unknown"
)

type codeInfo struct {
	retryable bool
	message   string
}

var codeTable = map[Code]codeInfo{
	CodeInvalidInput:      {false, "Query cannot be empty."},
	CodeOffline:           {false, "No internet connection detected."},
	CodeMissingCredential: {false, "API Key is missing. Please configure your environment."},
	CodeAuthFailure:       {false, "Authentication failed. Please verify API configuration."},
	CodeBadRequest:        {false, "The analysis request was rejected. Please modify your query."},
	CodeSafetyRefusal:     {false, "Analysis blocked by AI safety filters. Please modify your query."},
	CodeRecitationRefusal: {false, "Analysis blocked to avoid reproducing copyrighted material. Please rephrase your query."},
	CodeModelRefusal:      {false, "The AI model stopped before completing the analysis. Please modify your query."},
	CodeRateLimited:       {true, "System traffic is high. Please wait a moment and try again."},
	CodeOverloaded:        {true, "AI Service temporarily unavailable. Please try again."},
	CodeServerError:       {true, "AI Service temporarily unavailable. Please try again."},
	CodeNetworkError:      {true, "Connection failed. Please check your internet connection."},
	CodeTimeout:           {true, "Analysis timed out. The market data took too long to retrieve."},
	CodeNoJSONFound:       {true, "The AI response did not contain market data. Retrying usually fixes this."},
	CodeParseError:        {true, "Failed to structure market data. Retrying usually fixes this."},
	CodeSchemaInvalid:     {true, "Data missing critical fields (symbol, signal, sections). Retrying usually fixes this."},
	CodeCanceled:          {false, "Analysis was canceled."},
	CodeUnknown:           {true, "An unexpected error occurred."},
}

// Retryable reports whether another attempt may succeed.
// Codes missing from the table are never retried.
func (c Code) Retryable() bool {
	return codeTable[c].retryable
}

// Message returns the user-facing text for the code
func (c Code) Message() string {
	if info, ok := codeTable[c]; ok {
		return info.message
	}
	return codeTable[CodeUnknown].message
}

// ClassifiedError is the only error Analyze returns. Message is safe to show
// to the user; Retryable tells the caller whether to offer a manual retry.
type ClassifiedError struct {
	Code      Code
	Message   string
	Retryable bool
	Attempts  int
	Err       error
}

func (e *ClassifiedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

func newClassified(code Code, err error) *ClassifiedError {
	return &ClassifiedError{
		Code:      code,
		Message:   code.Message(),
		Retryable: code.Retryable(),
		Err:       err,
	}
}

// Cause tags an error with its Code at the point of failure
type Cause struct {
	Code Code
	Err  error
}

func (c *Cause) Error() string {
	if c.Err == nil {
		return string(c.Code)
	}
	return fmt.Sprintf("%s: %v", c.Code, c.Err)
}

func (c *Cause) Unwrap() error {
	return c.Err
}

// Tag wraps err with a known cause
func Tag(code Code, err error) error {
	return &Cause{Code: code, Err: err}
}

// StatusError is a failure the generation service reported with an HTTP status
// and, optionally, a canonical status name such as RESOURCE_EXHAUSTED.
type StatusError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("generation service error %d (%s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("generation service error %d: %s", e.StatusCode, e.Message)
}

// Code maps the status onto the taxonomy
func (e *StatusError) Code() Code {
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return CodeAuthFailure
	case e.StatusCode == http.StatusTooManyRequests:
		return CodeRateLimited
	case e.StatusCode == http.StatusServiceUnavailable:
		return CodeOverloaded
	case e.StatusCode >= 500:
		return CodeServerError
	case e.StatusCode >= 400:
		return CodeBadRequest
	}

	switch e.Status {
	case "UNAUTHENTICATED", "PERMISSION_DENIED":
		return CodeAuthFailure
	case "RESOURCE_EXHAUSTED":
		return CodeRateLimited
	case "UNAVAILABLE":
		return CodeOverloaded
	case "INTERNAL", "UNKNOWN", "DATA_LOSS":
		return CodeServerError
	case "DEADLINE_EXCEEDED":
		return CodeTimeout
	case "INVALID_ARGUMENT", "FAILED_PRECONDITION", "NOT_FOUND", "OUT_OF_RANGE", "UNIMPLEMENTED":
		return CodeBadRequest
	}
	return classifyMessage(e.Message)
}

// Classify resolves the Code of any error produced while analysing.
// Tagged causes win; the message scan at the end is a best-effort tier for
// SDK errors that carry nothing but free text.
func Classify(err error) Code {
	if err == nil {
		return ""
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.Code
	}
	var cause *Cause
	if errors.As(err, &cause) {
		return cause.Code
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.Code()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	if errors.Is(err, context.Canceled) {
		return CodeCanceled
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return CodeTimeout
		}
		return CodeNetworkError
	}
	return classifyMessage(err.Error())
}

// classify converts err into the terminal error value
func classify(err error) *ClassifiedError {
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}
	return newClassified(Classify(err), err)
}

var messageRules = []struct {
	code    Code
	needles []string
}{
	{CodeNetworkError, []string{"fetch", "network", "connection", "offline", "no such host", "dial tcp"}},
	{CodeTimeout, []string{"timeout", "timed out", "aborted", "deadline"}},
	{CodeRateLimited, []string{"quota", "rate limit", "exhausted", "too many requests"}},
	{CodeRecitationRefusal, []string{"recitation", "copyright"}},
	{CodeSafetyRefusal, []string{"safety", "blocked", "policy", "harmful"}},
	{CodeParseError, []string{"json", "parse", "syntax", "unexpected token"}},
	{CodeOverloaded, []string{"overloaded", "unavailable"}},
	{CodeAuthFailure, []string{"api key", "unauthorized", "permission denied", "unauthenticated"}},
}

func classifyMessage(msg string) Code {
	lower := strings.ToLower(msg)
	for _, rule := range messageRules {
		for _, needle := range rule.needles {
			if strings.Contains(lower, needle) {
				return rule.code
			}
		}
	}
	return CodeUnknown
}
