package crypt

import "crypto/subtle"

// SillyVerifier accepts exactly one fixed signature string, regardless
// of payload. It exists so tests and local tooling can exercise the
// full commit path without key material. Never register it in a
// production registry.
type SillyVerifier struct {
	accept string
}

// DefaultSillySignature is the conventional fixed signature used by
// tests and the local CLI.
const DefaultSillySignature = "MY-SILLY-SIGNATURE"

// NewSillyVerifier creates a verifier accepting the given signature.
// An empty accept string means DefaultSillySignature.
func NewSillyVerifier(accept string) *SillyVerifier {
	if accept == "" {
		accept = DefaultSillySignature
	}
	return &SillyVerifier{accept: accept}
}

// Type implements Verifier.
func (v *SillyVerifier) Type() SignerType {
	return SignerTypeSilly
}

// Verify implements Verifier. Constant-time comparison keeps the
// failure uniform even for this toy scheme.
func (v *SillyVerifier) Verify(signed SignedString) error {
	if subtle.ConstantTimeCompare([]byte(signed.Signature), []byte(v.accept)) != 1 {
		return ErrTampered()
	}
	return nil
}

// SillySign wraps a payload in a SignedString carrying the verifier's
// accepted signature. For fixtures and the local CLI.
func (v *SillyVerifier) SillySign(payload string) SignedString {
	return NewSignedString(payload, SignerTypeSilly, v.accept)
}
