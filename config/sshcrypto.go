package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
)

// loadSigner parses an SSH private key, decrypting it with the passphrase
// when the key file is protected. A protected key with an empty passphrase
// is an error rather than a prompt; the caller owns any UI.
func loadSigner(keyPath, passphrase string) (ssh.Signer, error) {
	keyData, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SSH key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(keyData)
	if err == nil {
		return signer, nil
	}
	if !keyParseErrIsPassphrase(err) {
		return nil, fmt.Errorf("failed to parse SSH key: %w", err)
	}
	if passphrase == "" {
		return nil, fmt.Errorf("SSH key is encrypted - passphrase required")
	}

	signer, err = ssh.ParsePrivateKeyWithPassphrase(keyData, []byte(passphrase))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SSH key (wrong passphrase?): %w", err)
	}
	return signer, nil
}

// The ssh package reports passphrase protection only through error text.
func keyParseErrIsPassphrase(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "encrypted") || strings.Contains(msg, "passphrase")
}

// FindSSHKeys returns candidate private keys under ~/.ssh, preferring a
// dedicated ahme key over the user's general-purpose ones.
func FindSSHKeys() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	sshDir := filepath.Join(homeDir, ".ssh")

	var found []string
	for _, name := range []string{"ahme_ed25519", "id_ed25519", "id_rsa", "id_ecdsa"} {
		path := filepath.Join(sshDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if strings.Contains(string(data), "PRIVATE KEY") {
			found = append(found, path)
		}
	}
	return found, nil
}
