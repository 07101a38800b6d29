package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptor_RoundTrip(t *testing.T) {
	enc, err := NewEncryptor("")
	require.NoError(t, err)

	plaintext := "patient slipped in ward 4 corridor, wet floor sign missing"

	ciphertext, err := enc.EncryptString(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)

	decrypted, err := enc.DecryptString(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestEncryptor_FixedKey(t *testing.T) {
	identityKey, _, err := GenerateKey()
	require.NoError(t, err)

	enc1, err := NewEncryptor(identityKey)
	require.NoError(t, err)
	enc2, err := NewEncryptor(identityKey)
	require.NoError(t, err)

	ciphertext, err := enc1.EncryptString("medication dosage error, no harm")
	require.NoError(t, err)

	// Same identity key must be able to decrypt across restarts
	decrypted, err := enc2.DecryptString(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "medication dosage error, no harm", decrypted)
}

func TestEncryptor_WrongKey(t *testing.T) {
	enc1, err := NewEncryptor("")
	require.NoError(t, err)
	enc2, err := NewEncryptor("")
	require.NoError(t, err)

	ciphertext, err := enc1.EncryptString("secret")
	require.NoError(t, err)

	_, err = enc2.DecryptString(ciphertext)
	assert.Error(t, err)
}

func TestEncryptor_PublicKey(t *testing.T) {
	identityKey, publicKey, err := GenerateKey()
	require.NoError(t, err)

	enc, err := NewEncryptor(identityKey)
	require.NoError(t, err)

	assert.Equal(t, publicKey, enc.PublicKey())
	assert.True(t, strings.HasPrefix(enc.PublicKey(), "age1"))
}

func TestDecryptString_InvalidBase64(t *testing.T) {
	enc, err := NewEncryptor("")
	require.NoError(t, err)

	_, err = enc.DecryptString("not-base64!!!")
	assert.Error(t, err)
}
