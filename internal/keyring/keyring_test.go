package keyring

import (
	"testing"

	gokeyring "github.com/zalando/go-keyring"
)

func TestSetAndGetConnectionString(t *testing.T) {
	gokeyring.MockInit()

	testConnStr := "postgres://testuser@localhost:5432/testdb?sslmode=disable"

	err := SetConnectionString(testConnStr)
	if err != nil {
		t.Fatalf("SetConnectionString() failed: %v", err)
	}

	retrieved, err := GetConnectionString()
	if err != nil {
		t.Fatalf("GetConnectionString() failed: %v", err)
	}

	if retrieved != testConnStr {
		t.Errorf("GetConnectionString() = %q, want %q", retrieved, testConnStr)
	}
}

func TestSetConnectionStringEmpty(t *testing.T) {
	gokeyring.MockInit()

	err := SetConnectionString("")
	if err == nil {
		t.Error("SetConnectionString(\"\") should return an error")
	}
}

func TestGetConnectionStringNotFound(t *testing.T) {
	gokeyring.MockInit()

	_ = DeleteConnectionString()

	_, err := GetConnectionString()
	if err != ErrNotFound {
		t.Errorf("GetConnectionString() error = %v, want %v", err, ErrNotFound)
	}
}

func TestDeleteConnectionString(t *testing.T) {
	gokeyring.MockInit()

	testConnStr := "postgres://testuser@localhost:5432/testdb"

	err := SetConnectionString(testConnStr)
	if err != nil {
		t.Fatalf("SetConnectionString() failed: %v", err)
	}

	err = DeleteConnectionString()
	if err != nil {
		t.Fatalf("DeleteConnectionString() failed: %v", err)
	}

	_, err = GetConnectionString()
	if err != ErrNotFound {
		t.Errorf("After DeleteConnectionString(), GetConnectionString() error = %v, want %v", err, ErrNotFound)
	}
}

func TestAccountsTokenRoundtrip(t *testing.T) {
	gokeyring.MockInit()

	if err := SetAccountsToken("tok-123"); err != nil {
		t.Fatalf("SetAccountsToken() failed: %v", err)
	}

	token, err := GetAccountsToken()
	if err != nil {
		t.Fatalf("GetAccountsToken() failed: %v", err)
	}
	if token != "tok-123" {
		t.Errorf("GetAccountsToken() = %q, want %q", token, "tok-123")
	}

	if err := DeleteAccountsToken(); err != nil {
		t.Fatalf("DeleteAccountsToken() failed: %v", err)
	}
	if _, err := GetAccountsToken(); err != ErrNotFound {
		t.Errorf("GetAccountsToken() after delete = %v, want %v", err, ErrNotFound)
	}
}

func TestTokenAndConnectionStringAreIndependent(t *testing.T) {
	gokeyring.MockInit()

	if err := SetConnectionString("postgres://user@localhost/db"); err != nil {
		t.Fatalf("SetConnectionString() failed: %v", err)
	}
	if err := SetAccountsToken("tok-456"); err != nil {
		t.Fatalf("SetAccountsToken() failed: %v", err)
	}

	if err := DeleteAccountsToken(); err != nil {
		t.Fatalf("DeleteAccountsToken() failed: %v", err)
	}

	if _, err := GetConnectionString(); err != nil {
		t.Errorf("GetConnectionString() after token delete = %v, want nil", err)
	}
}

func TestIsAvailable(t *testing.T) {
	gokeyring.MockInit()

	if !IsAvailable() {
		t.Error("IsAvailable() = false, want true in mock mode")
	}
}
