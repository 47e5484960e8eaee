package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// SecurityMethod defines the credential storage method
type SecurityMethod string

const (
	SecurityPlainText SecurityMethod = "plaintext"
	SecuritySSHKey    SecurityMethod = "ssh_key"
)

// Well-known credential IDs.
const (
	CredentialSearch  = "tavily"
	CredentialGateway = "gateway"
)

// CredentialStore holds the API keys the panel needs (web search, optional
// gateway), either plain-text TOML or AES-GCM encrypted under a key derived
// from the user's SSH key. See deriveAESKey for the derivation.
type CredentialStore struct {
	method      SecurityMethod
	credentials map[string]string
	sshKeyPath  string
	passphrase  string
	aesKey      []byte
}

func NewCredentialStore(method SecurityMethod, sshKeyPath string) *CredentialStore {
	return &CredentialStore{
		method:      method,
		credentials: make(map[string]string),
		sshKeyPath:  sshKeyPath,
	}
}

// SetPassphrase supplies the SSH key passphrase. The derived AES key is
// reset so the next Load or Save re-derives with the passphrase available.
func (c *CredentialStore) SetPassphrase(passphrase string) {
	c.passphrase = passphrase
	c.aesKey = nil
}

func (c *CredentialStore) Get(id string) string {
	return c.credentials[id]
}

func (c *CredentialStore) Set(id string, apiKey string) {
	c.credentials[id] = apiKey
}

func (c *CredentialStore) Delete(id string) {
	delete(c.credentials, id)
}

// Load reads credentials from disk. A missing file is an empty store, not
// an error.
func (c *CredentialStore) Load(dataDir string) error {
	switch c.method {
	case SecurityPlainText:
		return c.loadPlain(filepath.Join(dataDir, "credentials.toml"))
	case SecuritySSHKey:
		return c.loadEncrypted(filepath.Join(dataDir, "credentials.enc"))
	default:
		return fmt.Errorf("unknown security method: %s", c.method)
	}
}

func (c *CredentialStore) Save(dataDir string) error {
	switch c.method {
	case SecurityPlainText:
		return c.savePlain(filepath.Join(dataDir, "credentials.toml"))
	case SecuritySSHKey:
		return c.saveEncrypted(filepath.Join(dataDir, "credentials.enc"))
	default:
		return fmt.Errorf("unknown security method: %s", c.method)
	}
}

type credentialsFile struct {
	Credentials map[string]string `toml:"credentials"`
}

func (c *CredentialStore) loadPlain(path string) error {
	if !FileExists(path) {
		c.credentials = make(map[string]string)
		return nil
	}

	var cf credentialsFile
	if _, err := toml.DecodeFile(path, &cf); err != nil {
		return fmt.Errorf("failed to parse credentials file: %w", err)
	}
	if cf.Credentials == nil {
		cf.Credentials = make(map[string]string)
	}
	c.credentials = cf.Credentials
	return nil
}

func (c *CredentialStore) savePlain(path string) error {
	// 0600 - owner read/write only
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create credentials file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(credentialsFile{Credentials: c.credentials}); err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	return nil
}

// ensureKey derives the AES key from the configured SSH key on first use.
func (c *CredentialStore) ensureKey() error {
	if c.aesKey != nil {
		return nil
	}
	signer, err := loadSigner(c.sshKeyPath, c.passphrase)
	if err != nil {
		return err
	}
	key, err := deriveAESKey(signer)
	if err != nil {
		return err
	}
	c.aesKey = key
	return nil
}

func (c *CredentialStore) loadEncrypted(path string) error {
	if !FileExists(path) {
		c.credentials = make(map[string]string)
		return nil
	}
	if err := c.ensureKey(); err != nil {
		return err
	}

	blob, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read encrypted credentials: %w", err)
	}
	plain, err := decryptAESGCM(blob, c.aesKey)
	if err != nil {
		return fmt.Errorf("failed to decrypt credentials: %w", err)
	}

	var creds map[string]string
	if err := json.Unmarshal(plain, &creds); err != nil {
		return fmt.Errorf("failed to parse decrypted credentials: %w", err)
	}
	c.credentials = creds
	return nil
}

func (c *CredentialStore) saveEncrypted(path string) error {
	if err := c.ensureKey(); err != nil {
		return err
	}

	plain, err := json.Marshal(c.credentials)
	if err != nil {
		return fmt.Errorf("failed to serialize credentials: %w", err)
	}
	blob, err := encryptAESGCM(plain, c.aesKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}
	if err := os.WriteFile(path, blob, 0600); err != nil {
		return fmt.Errorf("failed to write encrypted credentials: %w", err)
	}
	return nil
}
