// Package faults holds the error taxonomy shared by the broker and downstream
// call paths.
//
// A TransportError means the unit of work may not have reached its destination.
// An ApplicationError means the remote side answered, and the answer was a
// failure. Callers tell the kinds apart with errors.As and errors.Is.
package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRemoteErrors marks a reply that carried an explicit error list.
	ErrRemoteErrors = errors.New("downstream returned errors")
	// ErrEmptyResult marks a reply with neither data nor errors.
	ErrEmptyResult = errors.New("downstream returned null data")
)

type TransportError struct {
	Op     string
	Target string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

type ApplicationError struct {
	Endpoint string
	Messages []string
	Kind     error
}

func (e *ApplicationError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("%v for %s", e.Kind, e.Endpoint)
	}
	return fmt.Sprintf("%v for %s: %s", e.Kind, e.Endpoint, strings.Join(e.Messages, "; "))
}

func (e *ApplicationError) Unwrap() error { return e.Kind }

func NewRemoteErrors(endpoint string, messages []string) *ApplicationError {
	return &ApplicationError{Endpoint: endpoint, Messages: messages, Kind: ErrRemoteErrors}
}

func NewEmptyResult(endpoint string) *ApplicationError {
	return &ApplicationError{Endpoint: endpoint, Kind: ErrEmptyResult}
}

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
