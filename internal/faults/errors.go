// Package faults defines the error taxonomy shared by the capture,
// reconstruction, token and container packages.
//
// Every category has a sentinel error that callers check with errors.Is.
// Categories that carry context (a node path, a class name, a repository
// command) also have a typed error that unwraps to its sentinel, so both
// errors.Is(err, faults.ErrUnknownNodeClass) and errors.As(err, &uce) work.
package faults

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for programmatic error checking via errors.Is().
var (
	// ErrInvalidSelection indicates an empty or absent node selection.
	ErrInvalidSelection = errors.New("invalid selection")

	// ErrSerialization indicates a parameter or port value that cannot be
	// represented as JSON.
	ErrSerialization = errors.New("serialization failure")

	// ErrTokenResolution indicates an unknown token or a token cycle.
	ErrTokenResolution = errors.New("token resolution failure")

	// ErrUnknownNodeClass indicates a class name with no registered constructor.
	ErrUnknownNodeClass = errors.New("unknown node class")

	// ErrDanglingReference indicates a port reference with no resolvable target.
	ErrDanglingReference = errors.New("dangling reference")

	// ErrRepositoryUnavailable indicates an operation on a container whose
	// repository was never initialized.
	ErrRepositoryUnavailable = errors.New("repository unavailable")

	// ErrRepositoryCommand indicates the repository reported a failure.
	ErrRepositoryCommand = errors.New("repository command failure")

	// ErrMalformedCapture indicates a capture tree that breaks its structural
	// invariants (duplicate paths, sibling name clashes, misplaced children).
	ErrMalformedCapture = errors.New("malformed capture")
)

// SerializationError names the node and the field whose value could not be
// converted to JSON.
type SerializationError struct {
	NodePath string
	Field    string // e.g. "parameters.seed" or "inputs[0]"
	Err      error
}

func (e *SerializationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: node %s: %s", ErrSerialization, e.NodePath, e.Field)
	}
	return fmt.Sprintf("%s: node %s: %s: %v", ErrSerialization, e.NodePath, e.Field, e.Err)
}

func (e *SerializationError) Is(target error) bool { return target == ErrSerialization }
func (e *SerializationError) Unwrap() error        { return e.Err }

// TokenError describes why a token could not be resolved.
type TokenError struct {
	Token      string
	Reason     string
	Chain      []string // expansion chain, set for cycles
	Suggestion string   // closest known token, if any
}

func (e *TokenError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: <%s>: %s", ErrTokenResolution, e.Token, e.Reason)
	if len(e.Chain) > 0 {
		sb.WriteString(" (")
		sb.WriteString(strings.Join(e.Chain, " -> "))
		sb.WriteString(")")
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&sb, "; did you mean <%s>?", e.Suggestion)
	}
	return sb.String()
}

func (e *TokenError) Unwrap() error { return ErrTokenResolution }

// UnknownClassError reports a class name missing from the class registry.
type UnknownClassError struct {
	ClassName  string
	NodePath   string
	Suggestion string
}

func (e *UnknownClassError) Error() string {
	msg := fmt.Sprintf("%s: %q", ErrUnknownNodeClass, e.ClassName)
	if e.NodePath != "" {
		msg += fmt.Sprintf(" (node %s)", e.NodePath)
	}
	if e.Suggestion != "" {
		msg += fmt.Sprintf("; did you mean %q?", e.Suggestion)
	}
	return msg
}

func (e *UnknownClassError) Unwrap() error { return ErrUnknownNodeClass }

// DanglingReferenceError reports a port whose target cannot be found.
type DanglingReferenceError struct {
	NodePath string
	Port     string // "inputs" or "outputs"
	Index    int
	Target   string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("%s: node %s %s[%d] -> %s", ErrDanglingReference, e.NodePath, e.Port, e.Index, e.Target)
}

func (e *DanglingReferenceError) Unwrap() error { return ErrDanglingReference }

// RepositoryCommandError wraps a failure reported by the repository.
type RepositoryCommandError struct {
	Command string
	Err     error
}

func (e *RepositoryCommandError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrRepositoryCommand, e.Command, e.Err)
}

func (e *RepositoryCommandError) Is(target error) bool { return target == ErrRepositoryCommand }
func (e *RepositoryCommandError) Unwrap() error        { return e.Err }

// MalformedCaptureError lists every structural violation found in a capture.
type MalformedCaptureError struct {
	Problems []string
}

func (e *MalformedCaptureError) Error() string {
	return fmt.Sprintf("%s:\n- %s", ErrMalformedCapture, strings.Join(e.Problems, "\n- "))
}

func (e *MalformedCaptureError) Unwrap() error { return ErrMalformedCapture }
