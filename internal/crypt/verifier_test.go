package crypt

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/signet/internal/problem"
)

func TestSillyVerifier_Accepts(t *testing.T) {
	v := NewSillyVerifier("")

	signed := v.SillySign(`{"TYPE":"Workflow"}`)
	assert.Equal(t, SignerTypeSilly, signed.SignerType)
	assert.Equal(t, DefaultSillySignature, signed.Signature)
	assert.NoError(t, v.Verify(signed))
}

func TestSillyVerifier_Rejects(t *testing.T) {
	v := NewSillyVerifier("")

	signed := NewSignedString("payload", SignerTypeSilly, "MY-SILLY-FAKE")
	err := v.Verify(signed)
	require.Error(t, err)
	assert.Equal(t, problem.CodeTamperedWithSignedMessage, problem.CodeOf(err))
	assert.Equal(t, "TamperedWithSignedMessage: The message does not match its signature", err.Error())
}

func TestEd25519Verifier_RoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	v := NewEd25519Verifier(pub)

	signed := Ed25519Sign(priv, "the payload")
	assert.NoError(t, v.Verify(signed))
}

func TestEd25519Verifier_UniformFailures(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	_, otherPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	v := NewEd25519Verifier(pub)

	tamperedPayload := Ed25519Sign(priv, "original")
	tamperedPayload.Payload = "modified"

	cases := map[string]SignedString{
		"modified payload": tamperedPayload,
		"untrusted key":    Ed25519Sign(otherPriv, "the payload"),
		"not base64":       NewSignedString("p", SignerTypeEd25519, "%%%"),
		"wrong length":     NewSignedString("p", SignerTypeEd25519, "c2hvcnQ="),
	}
	for name, signed := range cases {
		err := v.Verify(signed)
		require.Error(t, err, name)
		assert.Equal(t, problem.CodeTamperedWithSignedMessage, problem.CodeOf(err), name)
		// Every failure carries the identical message.
		assert.Equal(t, "TamperedWithSignedMessage: The message does not match its signature", err.Error(), name)
	}
}

func TestRegistry_Dispatch(t *testing.T) {
	reg := NewRegistry(NewSillyVerifier(""))

	assert.NoError(t, reg.Verify(NewSignedString("p", SignerTypeSilly, DefaultSillySignature)))

	err := reg.Verify(NewSignedString("p", SignerTypeSilly, "nope"))
	assert.Equal(t, problem.CodeTamperedWithSignedMessage, problem.CodeOf(err))
}

func TestRegistry_UnsupportedType(t *testing.T) {
	reg := NewRegistry(NewSillyVerifier(""))

	err := reg.Verify(NewSignedString("p", "PGP", "sig"))
	require.Error(t, err)
	assert.Equal(t, problem.CodeUnsupportedSignatureType, problem.CodeOf(err))
	assert.Contains(t, err.Error(), "PGP")
}
