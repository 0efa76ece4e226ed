// Package envelope implements the hybrid encryption scheme protecting the
// proof-of-delivery payload: the signature image reference, capture
// geolocation, and, for legal or valuable shipments, the recipient's
// legal identity. The payload is sealed on the capturing device and only
// the dispatch server's private key can open it.
//
// Scheme: a fresh random AES-256 session key and a fresh random 96-bit IV
// are generated per call; the JSON payload is encrypted with AES-GCM
// (ciphertext carries the authentication tag); the session key is wrapped
// with RSA-OAEP(SHA-256) under the recipient's public key. The symmetric
// key never leaves the device in the clear, and no key is ever reused
// across proofs.
package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
)

const (
	sessionKeySize = 32 // AES-256
	ivSize         = 12 // 96-bit GCM nonce
)

// ErrDecryptionFailed indicates the envelope could not be opened: a wrong
// key, a truncated payload, or a GCM authentication failure. Any of these
// must be treated as corrupt or tampered data; the delivered transition is
// rejected, never completed with an unverifiable proof.
var ErrDecryptionFailed = errors.New("proof envelope decryption failed")

// Envelope is the sealed proof payload as it travels from the capturing
// device to the server.
type Envelope struct {
	// Payload is the base64-encoded concatenation of the AES-GCM
	// ciphertext (with authentication tag) and the IV.
	Payload string `json:"encrypted_payload"`

	// EncryptedSessionKey is the base64-encoded RSA-OAEP wrapping of the
	// one-time session key.
	EncryptedSessionKey string `json:"encrypted_session_key"`

	// IV is the base64-encoded initialization vector, carried separately
	// for diagnostics. It duplicates the IV appended to Payload.
	IV string `json:"iv"`
}

// Encrypt seals plaintext for the holder of the private key matching pub.
// A fresh session key and IV are generated on every call.
func Encrypt(plaintext []byte, pub *rsa.PublicKey) (Envelope, error) {
	sessionKey := make([]byte, sessionKeySize)
	if _, err := rand.Read(sessionKey); err != nil {
		return Envelope{}, fmt.Errorf("generating session key: %w", err)
	}

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return Envelope{}, fmt.Errorf("generating iv: %w", err)
	}

	block, err := aes.NewCipher(sessionKey)
	if err != nil {
		return Envelope{}, fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return Envelope{}, fmt.Errorf("creating gcm: %w", err)
	}

	ciphertext := gcm.Seal(nil, iv, plaintext, nil)

	wrappedKey, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, sessionKey, nil)
	if err != nil {
		return Envelope{}, fmt.Errorf("wrapping session key: %w", err)
	}

	return Envelope{
		Payload:             base64.StdEncoding.EncodeToString(append(ciphertext, iv...)),
		EncryptedSessionKey: base64.StdEncoding.EncodeToString(wrappedKey),
		IV:                  base64.StdEncoding.EncodeToString(iv),
	}, nil
}

// Decrypt opens an envelope with the server's private key and returns the
// original plaintext. Every failure mode (malformed base64, truncated
// payload, wrong key, flipped ciphertext bit) collapses into
// ErrDecryptionFailed so callers treat them uniformly as tampering.
func Decrypt(env Envelope, priv *rsa.PrivateKey) ([]byte, error) {
	payload, err := base64.StdEncoding.DecodeString(env.Payload)
	if err != nil || len(payload) <= ivSize {
		return nil, ErrDecryptionFailed
	}

	wrappedKey, err := base64.StdEncoding.DecodeString(env.EncryptedSessionKey)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	ciphertext := payload[:len(payload)-ivSize]
	iv := payload[len(payload)-ivSize:]

	sessionKey, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, wrappedKey, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	block, err := aes.NewCipher(sessionKey)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	plaintext, err := gcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	return plaintext, nil
}

// ParsePrivateKeyPEM parses a PKCS#1 or PKCS#8 encoded RSA private key from
// PEM data. Used to load the server's decryption key from configuration.
func ParsePrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("PEM block does not contain an RSA private key")
	}
	return key, nil
}
