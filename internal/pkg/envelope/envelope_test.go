package envelope_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"testing"

	"dispatch/internal/pkg/envelope"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestEncryptDecrypt(t *testing.T) {
	key := generateKey(t)
	plaintext := []byte(`{"signature_ref":"sig/abc123.png","recipient_name":"Maria Lopez"}`)

	t.Run("should round-trip plaintext", func(t *testing.T) {
		env, err := envelope.Encrypt(plaintext, &key.PublicKey)
		require.NoError(t, err)

		opened, err := envelope.Decrypt(env, key)

		require.NoError(t, err)
		assert.Equal(t, plaintext, opened)
	})

	t.Run("should produce a fresh session key and iv per call", func(t *testing.T) {
		first, err := envelope.Encrypt(plaintext, &key.PublicKey)
		require.NoError(t, err)
		second, err := envelope.Encrypt(plaintext, &key.PublicKey)
		require.NoError(t, err)

		assert.NotEqual(t, first.Payload, second.Payload)
		assert.NotEqual(t, first.EncryptedSessionKey, second.EncryptedSessionKey)
		assert.NotEqual(t, first.IV, second.IV)
	})

	t.Run("should reject a flipped ciphertext bit", func(t *testing.T) {
		env, err := envelope.Encrypt(plaintext, &key.PublicKey)
		require.NoError(t, err)

		raw, err := base64.StdEncoding.DecodeString(env.Payload)
		require.NoError(t, err)
		raw[3] ^= 0x01
		env.Payload = base64.StdEncoding.EncodeToString(raw)

		_, err = envelope.Decrypt(env, key)
		require.ErrorIs(t, err, envelope.ErrDecryptionFailed)
	})

	t.Run("should reject the wrong private key", func(t *testing.T) {
		env, err := envelope.Encrypt(plaintext, &key.PublicKey)
		require.NoError(t, err)

		_, err = envelope.Decrypt(env, generateKey(t))
		require.ErrorIs(t, err, envelope.ErrDecryptionFailed)
	})

	t.Run("should reject malformed base64", func(t *testing.T) {
		env, err := envelope.Encrypt(plaintext, &key.PublicKey)
		require.NoError(t, err)
		env.EncryptedSessionKey = "not base64!"

		_, err = envelope.Decrypt(env, key)
		require.ErrorIs(t, err, envelope.ErrDecryptionFailed)
	})

	t.Run("should reject a truncated payload", func(t *testing.T) {
		env := envelope.Envelope{
			Payload:             base64.StdEncoding.EncodeToString([]byte("short")),
			EncryptedSessionKey: "",
			IV:                  "",
		}

		_, err := envelope.Decrypt(env, key)
		require.ErrorIs(t, err, envelope.ErrDecryptionFailed)
	})
}

func TestParsePrivateKeyPEM(t *testing.T) {
	key := generateKey(t)

	t.Run("should parse a PKCS1 key", func(t *testing.T) {
		data := pem.EncodeToMemory(&pem.Block{
			Type:  "RSA PRIVATE KEY",
			Bytes: x509.MarshalPKCS1PrivateKey(key),
		})

		parsed, err := envelope.ParsePrivateKeyPEM(data)

		require.NoError(t, err)
		assert.True(t, key.Equal(parsed))
	})

	t.Run("should parse a PKCS8 key", func(t *testing.T) {
		der, err := x509.MarshalPKCS8PrivateKey(key)
		require.NoError(t, err)
		data := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

		parsed, err := envelope.ParsePrivateKeyPEM(data)

		require.NoError(t, err)
		assert.True(t, key.Equal(parsed))
	})

	t.Run("should reject data without a PEM block", func(t *testing.T) {
		_, err := envelope.ParsePrivateKeyPEM([]byte("plain text"))
		require.Error(t, err)
	})
}
