package password

import "testing"

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("changeme123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "changeme123" {
		t.Fatal("hash equals the plaintext")
	}
	if !Verify("changeme123", hash) {
		t.Fatal("correct password rejected")
	}
	if Verify("wrong-password", hash) {
		t.Fatal("wrong password accepted")
	}
}

func TestHashToken(t *testing.T) {
	a := HashToken("refresh-token-a")
	b := HashToken("refresh-token-b")
	if a == b {
		t.Fatal("different tokens hashed the same")
	}
	if a != HashToken("refresh-token-a") {
		t.Fatal("token hashing is not deterministic")
	}
	if len(a) != 64 {
		t.Fatalf("hash length = %d, want 64 hex chars", len(a))
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"changeme123", true},
		{"12345678", true},
		{"short", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidatePassword(tt.password); got != tt.want {
			t.Errorf("ValidatePassword(%q) = %v, want %v", tt.password, got, tt.want)
		}
	}
}
