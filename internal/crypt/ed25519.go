package crypt

import (
	"crypto/ed25519"
	"encoding/base64"
)

// Ed25519Verifier validates detached Ed25519 signatures against a set
// of trusted public keys. The signature is the base64 (std encoding)
// of the raw 64-byte signature over the payload bytes.
//
// Which key produced a signature is not part of the wire format; the
// verifier tries every trusted key. Failures are uniform: a bad
// encoding, an unknown key, and a forged signature are all reported
// as the same tampered problem.
type Ed25519Verifier struct {
	keys []ed25519.PublicKey
}

// NewEd25519Verifier creates a verifier trusting the given keys.
func NewEd25519Verifier(keys ...ed25519.PublicKey) *Ed25519Verifier {
	ks := make([]ed25519.PublicKey, len(keys))
	copy(ks, keys)
	return &Ed25519Verifier{keys: ks}
}

// Type implements Verifier.
func (v *Ed25519Verifier) Type() SignerType {
	return SignerTypeEd25519
}

// Verify implements Verifier.
func (v *Ed25519Verifier) Verify(signed SignedString) error {
	sig, err := base64.StdEncoding.DecodeString(signed.Signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return ErrTampered()
	}
	payload := []byte(signed.Payload)
	for _, key := range v.keys {
		if ed25519.Verify(key, payload, sig) {
			return nil
		}
	}
	return ErrTampered()
}

// Ed25519Sign produces a SignedString for the payload under the given
// private key. Used by tests and provisioning tooling; the repository
// itself only ever verifies.
func Ed25519Sign(key ed25519.PrivateKey, payload string) SignedString {
	sig := ed25519.Sign(key, []byte(payload))
	return NewSignedString(payload, SignerTypeEd25519, base64.StdEncoding.EncodeToString(sig))
}
