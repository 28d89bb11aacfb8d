// Package problem defines the stable result-error currency of the
// repository: a machine-readable problem code plus a human-readable
// message. Expected outcomes (unknown key, deleted item) travel as
// Problems, never as panics or sentinel strings.
package problem

import (
	"errors"
	"fmt"
)

// Code identifies a problem category. Codes are part of the public
// contract and must remain stable across releases.
type Code string

const (
	// CodeTamperedWithSignedMessage indicates a payload/signature mismatch
	// under the declared scheme. The message is deliberately uniform and
	// never explains why verification failed.
	CodeTamperedWithSignedMessage Code = "TamperedWithSignedMessage"

	// CodeUnsupportedSignatureType indicates an unregistered signer type.
	CodeUnsupportedSignatureType Code = "UnsupportedSignatureType"

	// CodeDuplicateVersion indicates a version id that already exists in
	// committed history. Version ids are never reused.
	CodeDuplicateVersion Code = "DuplicateVersion"

	// CodeUnknownKey indicates a lookup or delete of an id/path the
	// repository does not currently know.
	CodeUnknownKey Code = "UnknownKey"

	// CodeItemDeleted indicates a path whose latest state is a deletion.
	CodeItemDeleted Code = "ItemDeleted"

	// CodeVersionMismatch indicates an item whose declared version does
	// not equal the version id of the commit it was submitted under.
	CodeVersionMismatch Code = "VersionMismatch"

	// CodeParseFailure indicates malformed input (bad JSON). The message
	// carries a location (line/column) when one is known.
	CodeParseFailure Code = "ParseFailure"

	// CodeDecodeFailure indicates well-formed input that does not decode
	// into a known item type. The message names the offending fragment.
	CodeDecodeFailure Code = "DecodeFailure"

	// CodeJournalGap indicates a hole detected in the event stream.
	// Fatal to the replication session; the consumer must resync.
	CodeJournalGap Code = "JournalGap"
)

// Problem is a structured, expected failure. It implements error so it
// can flow through ordinary error returns, but callers are expected to
// branch on Code rather than on message text.
type Problem struct {
	Code    Code
	Message string
}

// New creates a Problem with a formatted message.
func New(code Code, format string, args ...any) *Problem {
	return &Problem{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface as "Code: message".
func (p *Problem) Error() string {
	if p.Message == "" {
		return string(p.Code)
	}
	return fmt.Sprintf("%s: %s", p.Code, p.Message)
}

// CodeOf extracts the problem code from an error chain.
// Returns "" if the error is not a Problem.
func CodeOf(err error) Code {
	var p *Problem
	if errors.As(err, &p) {
		return p.Code
	}
	return ""
}

// Is reports whether err carries the given problem code.
// Uses errors.As to handle wrapped errors.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
