package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies every failure surfaced by the client layers.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTransport
	KindHTTP
	KindRPC
	KindTimeout
	KindParse
	KindValidation
	KindNotDeployed
	KindNoMatchingEvent
	KindInvalidSecret
	KindInvalidPassword
	KindUnknownAccount
	KindUnknownRequest
	KindRequestRejected
	KindRequestLocked
	KindBusy
	KindUnsupported
	KindProtocol
)

var kindNames = map[ErrorKind]string{
	KindUnknown:         "unknown",
	KindTransport:       "transport",
	KindHTTP:            "http",
	KindRPC:             "rpc",
	KindTimeout:         "timeout",
	KindParse:           "parse",
	KindValidation:      "validation",
	KindNotDeployed:     "not_deployed",
	KindNoMatchingEvent: "no_matching_event",
	KindInvalidSecret:   "invalid_secret",
	KindInvalidPassword: "invalid_password",
	KindUnknownAccount:  "unknown_account",
	KindUnknownRequest:  "unknown_request",
	KindRequestRejected: "request_rejected",
	KindRequestLocked:   "request_locked",
	KindBusy:            "busy",
	KindUnsupported:     "unsupported",
	KindProtocol:        "protocol",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the structured error returned by transports, module clients,
// contract bindings and the local middleware. Code is only meaningful for
// KindRPC (the JSON-RPC error code) and KindHTTP (the status code).
type Error struct {
	Kind    ErrorKind
	Code    int
	Message string
	Data    interface{}
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindRPC:
		return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
	case e.Kind == KindHTTP:
		return fmt.Sprintf("HTTP %d: %s", e.Code, e.Message)
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind so errors.Is(err, &Error{Kind: KindTimeout}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Code == 0 || t.Code == e.Code)
}

// Errorf builds an *Error of the given kind.
func Errorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind ErrorKind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf classifies any error. Context deadlines and net timeouts are
// reported as KindTimeout even when they were never wrapped.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return KindTimeout
	}
	return KindUnknown
}

// classify maps a raw transport-level failure to a kinded error.
func classify(err error, message string) error {
	if err == nil {
		return nil
	}
	if KindOf(err) == KindTimeout {
		return Wrap(KindTimeout, err, message)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return Wrap(KindTransport, err, message)
}
