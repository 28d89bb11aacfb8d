// Package crypt authenticates signed item payloads. Verification is a
// pure function behind a pluggable scheme registry; commit logic never
// knows which schemes exist.
package crypt

// SignerType names a signature scheme, e.g. "Ed25519" or "Silly".
type SignerType string

const (
	// SignerTypeSilly is the test-only scheme: the signature is a fixed
	// string agreed out of band. Registered like any other scheme.
	SignerTypeSilly SignerType = "Silly"

	// SignerTypeEd25519 is the asymmetric production scheme.
	SignerTypeEd25519 SignerType = "Ed25519"
)

// SignedString is a payload together with its detached signature and
// the scheme it was signed under. Immutable once constructed; carries
// no verification state.
type SignedString struct {
	Payload    string
	SignerType SignerType
	Signature  string
}

// NewSignedString constructs a SignedString value.
func NewSignedString(payload string, signerType SignerType, signature string) SignedString {
	return SignedString{Payload: payload, SignerType: signerType, Signature: signature}
}
