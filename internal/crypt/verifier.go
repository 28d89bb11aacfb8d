package crypt

import (
	"github.com/roach88/signet/internal/problem"
)

// tamperedMessage is the single message for every verification failure.
// Callers must never learn why a signature did not match.
const tamperedMessage = "The message does not match its signature"

// ErrTampered returns the uniform verification-failure problem.
func ErrTampered() error {
	return problem.New(problem.CodeTamperedWithSignedMessage, tamperedMessage)
}

// Verifier validates payloads signed under one scheme.
//
// Implementations are pure: no side effects, safe for concurrent and
// repeated use. Any payload/signature mismatch must be reported via
// ErrTampered, never with scheme-specific detail.
type Verifier interface {
	// Type names the scheme this verifier handles.
	Type() SignerType

	// Verify returns nil if the signature matches the payload, or the
	// uniform tampered problem otherwise.
	Verify(signed SignedString) error
}

// Registry dispatches verification by signer type.
// Immutable after construction; safe for concurrent use.
type Registry struct {
	verifiers map[SignerType]Verifier
}

// NewRegistry builds a registry from the given verifiers.
func NewRegistry(verifiers ...Verifier) *Registry {
	m := make(map[SignerType]Verifier, len(verifiers))
	for _, v := range verifiers {
		m[v.Type()] = v
	}
	return &Registry{verifiers: m}
}

// Verify routes the signed string to the verifier for its scheme.
// An unregistered scheme yields UnsupportedSignatureType.
func (r *Registry) Verify(signed SignedString) error {
	v, ok := r.verifiers[signed.SignerType]
	if !ok {
		return problem.New(problem.CodeUnsupportedSignatureType,
			"no verifier registered for signature type %q", signed.SignerType)
	}
	return v.Verify(signed)
}
