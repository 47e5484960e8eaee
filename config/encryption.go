package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/ssh"
)

// deriveAESKey turns an SSH signer into a stable AES-256 key: sign a fixed
// message, hash the signature. The same key file always yields the same AES
// key, so no key material is stored on disk.
func deriveAESKey(signer ssh.Signer) ([]byte, error) {
	sig, err := signer.Sign(rand.Reader, []byte("ahme-encryption-key-derivation-v1"))
	if err != nil {
		return nil, fmt.Errorf("failed to sign derivation message: %w", err)
	}
	sum := sha256.Sum256(sig.Blob)
	return sum[:], nil
}

// Ciphertext layout: nonce || sealed data. The GCM tag lives inside the
// sealed portion.
func encryptAESGCM(plaintext, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptAESGCM(ciphertext, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, sealed := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
