package auth

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testAccount() *Account {
	return &Account{
		Name:         "school",
		BaseURL:      "https://canvas.example.edu",
		Username:     "student@example.edu",
		Password:     "hunter2hunter2",
		LastModified: time.Now(),
	}
}

func TestCredentialManager(t *testing.T) {
	manager, mockStore := NewMockManager()

	account := testAccount()
	if err := manager.Store(account); err != nil {
		t.Errorf("Failed to store account: %v", err)
	}

	retrieved, err := manager.Retrieve("school")
	if err != nil {
		t.Fatalf("Failed to retrieve account: %v", err)
	}

	if retrieved.Name != account.Name {
		t.Errorf("Name mismatch: got %s, want %s", retrieved.Name, account.Name)
	}
	if retrieved.Username != account.Username {
		t.Errorf("Username mismatch: got %s, want %s", retrieved.Username, account.Username)
	}
	if retrieved.Password != account.Password {
		t.Errorf("Password mismatch: got %s, want %s", retrieved.Password, account.Password)
	}

	accounts, err := manager.List()
	if err != nil {
		t.Errorf("Failed to list accounts: %v", err)
	}
	if len(accounts) == 0 {
		t.Error("Expected at least one account in list")
	}

	sanitized := SanitizeAccount(account)
	if sanitized.Password == account.Password {
		t.Error("Password should be masked")
	}
	if sanitized.Username != account.Username {
		t.Error("Username should not be masked")
	}

	if err := manager.Delete("school"); err != nil {
		t.Errorf("Failed to delete account: %v", err)
	}

	if _, err := manager.Retrieve("school"); err == nil {
		t.Error("Expected error retrieving deleted account")
	}

	if mockStore.Count() != 0 {
		t.Errorf("Expected 0 accounts after deletion, got %d", mockStore.Count())
	}
}

func TestManagerStoreValidation(t *testing.T) {
	manager, _ := NewMockManager()

	cases := []struct {
		name    string
		account *Account
	}{
		{"missing name", &Account{BaseURL: "https://c.edu", Username: "u", Password: "p"}},
		{"missing base URL", &Account{Name: "a", Username: "u", Password: "p"}},
		{"missing username", &Account{Name: "a", BaseURL: "https://c.edu", Password: "p"}},
		{"missing password", &Account{Name: "a", BaseURL: "https://c.edu", Username: "u"}},
	}
	for _, tc := range cases {
		if err := manager.Store(tc.account); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestEncryptedFileStore(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "test_creds.enc")

	os.Setenv("CANVASGRAB_PASSPHRASE", "test_passphrase_123")
	defer os.Unsetenv("CANVASGRAB_PASSPHRASE")

	store, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	account := testAccount()
	if err := store.Store(account); err != nil {
		t.Errorf("Failed to store in encrypted file: %v", err)
	}

	retrieved, err := store.Retrieve("school")
	if err != nil {
		t.Fatalf("Failed to retrieve from encrypted file: %v", err)
	}
	if retrieved.Password != account.Password {
		t.Errorf("Password mismatch after encryption/decryption")
	}

	// Verify file is actually encrypted
	fileContent, err := os.ReadFile(tempFile)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(fileContent, []byte(account.Password)) {
		t.Error("File contains plaintext password")
	}
	if bytes.Contains(fileContent, []byte(account.Username)) {
		t.Error("File contains plaintext username")
	}
}

func TestEncryptedFileStoreDeleteLastAccountRemovesFile(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "creds.enc")

	os.Setenv("CANVASGRAB_PASSPHRASE", "test_passphrase_456")
	defer os.Unsetenv("CANVASGRAB_PASSPHRASE")

	store, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Store(testAccount()); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete("school"); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(tempFile); !os.IsNotExist(err) {
		t.Error("Expected encrypted file to be removed after deleting last account")
	}
}

func TestEnvironmentStore(t *testing.T) {
	os.Setenv("CANVASGRAB_URL", "https://canvas.example.edu")
	os.Setenv("CANVASGRAB_USERNAME", "env_user")
	os.Setenv("CANVASGRAB_PASSWORD", "env_pass")
	defer os.Unsetenv("CANVASGRAB_URL")
	defer os.Unsetenv("CANVASGRAB_USERNAME")
	defer os.Unsetenv("CANVASGRAB_PASSWORD")

	store := NewEnvironmentStore()

	account, err := store.Retrieve("")
	if err != nil {
		t.Fatalf("Failed to retrieve from environment: %v", err)
	}

	if account.Username != "env_user" {
		t.Errorf("Username mismatch: got %s, want env_user", account.Username)
	}
	if account.Password != "env_pass" {
		t.Errorf("Password mismatch: got %s, want env_pass", account.Password)
	}
	if account.Name != "default" {
		t.Errorf("Name should default: got %s", account.Name)
	}

	if err := store.Store(&Account{}); err != ErrStoreUnavailable {
		t.Error("Expected ErrStoreUnavailable for environment store")
	}
}

func TestRealManagerWithEncryptedStore(t *testing.T) {
	tempDir := t.TempDir()

	os.Setenv("CANVASGRAB_PASSPHRASE", "test_passphrase_real_manager")
	defer os.Unsetenv("CANVASGRAB_PASSPHRASE")

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(tempDir, "credentials.enc"))
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	manager := NewMockManagerWithStores(encryptedStore)

	account := testAccount()
	if err := manager.Store(account); err != nil {
		t.Fatalf("Failed to store account: %v", err)
	}

	accounts, err := manager.List()
	if err != nil {
		t.Fatalf("Failed to list accounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Errorf("Expected 1 account in list, got %d", len(accounts))
	}

	retrieved, err := manager.Retrieve("school")
	if err != nil {
		t.Fatalf("Failed to retrieve account: %v", err)
	}
	if retrieved.BaseURL != account.BaseURL {
		t.Errorf("BaseURL mismatch: got %s, want %s", retrieved.BaseURL, account.BaseURL)
	}
}

func TestMockStore(t *testing.T) {
	store := NewMockStore()

	accounts, err := store.List()
	if err != nil {
		t.Errorf("Failed to list empty store: %v", err)
	}
	if len(accounts) != 0 {
		t.Errorf("Expected 0 accounts, got %d", len(accounts))
	}

	if err := store.Store(testAccount()); err != nil {
		t.Errorf("Failed to store account: %v", err)
	}

	if store.Count() != 1 {
		t.Errorf("Expected 1 account, got %d", store.Count())
	}

	if !store.Exists("school") {
		t.Error("Account should exist")
	}

	store.ListError = fmt.Errorf("injected error")
	if _, err := store.List(); err == nil || err.Error() != "injected error" {
		t.Error("Expected injected error")
	}
}
