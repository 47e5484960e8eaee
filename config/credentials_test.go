package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPlainTextCredentialsRoundtrip(t *testing.T) {
	dataDir := t.TempDir()

	store := NewCredentialStore(SecurityPlainText, "")
	store.Set(CredentialSearch, "tvly-secret")
	store.Set(CredentialGateway, "sk-gateway")
	if err := store.Save(dataDir); err != nil {
		t.Fatal(err)
	}

	reloaded := NewCredentialStore(SecurityPlainText, "")
	if err := reloaded.Load(dataDir); err != nil {
		t.Fatal(err)
	}
	if got := reloaded.Get(CredentialSearch); got != "tvly-secret" {
		t.Errorf("search key = %q, want %q", got, "tvly-secret")
	}
	if got := reloaded.Get(CredentialGateway); got != "sk-gateway" {
		t.Errorf("gateway key = %q, want %q", got, "sk-gateway")
	}
}

func TestPlainTextCredentialsFilePermissions(t *testing.T) {
	dataDir := t.TempDir()

	store := NewCredentialStore(SecurityPlainText, "")
	store.Set(CredentialSearch, "tvly-secret")
	if err := store.Save(dataDir); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(filepath.Join(dataDir, "credentials.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("credentials file permissions = %o, want 0600", perm)
	}
}

func TestLoadMissingCredentialsIsEmpty(t *testing.T) {
	store := NewCredentialStore(SecurityPlainText, "")
	if err := store.Load(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	if got := store.Get(CredentialSearch); got != "" {
		t.Errorf("missing credentials file yielded key %q", got)
	}
}

func TestDeleteCredential(t *testing.T) {
	store := NewCredentialStore(SecurityPlainText, "")
	store.Set(CredentialSearch, "tvly-secret")
	store.Delete(CredentialSearch)
	if got := store.Get(CredentialSearch); got != "" {
		t.Errorf("deleted credential still readable: %q", got)
	}
}

func TestExpandPath(t *testing.T) {
	home := GetHomeDir()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~/notes", filepath.Join(home, "notes")},
		{"/var/lib/ahme", filepath.Clean("/var/lib/ahme")},
	}

	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAESGCMRoundtrip(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}

	plaintext := []byte(`{"tavily":"tvly-secret"}`)
	ciphertext, err := encryptAESGCM(plaintext, key)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(ciphertext), "tvly-secret") {
		t.Error("ciphertext leaks plaintext")
	}

	decrypted, err := decryptAESGCM(ciphertext, key)
	if err != nil {
		t.Fatal(err)
	}
	if string(decrypted) != string(plaintext) {
		t.Errorf("roundtrip = %q, want %q", decrypted, plaintext)
	}

	if _, err := decryptAESGCM(ciphertext[:8], key); err == nil {
		t.Error("truncated ciphertext did not error")
	}
}
