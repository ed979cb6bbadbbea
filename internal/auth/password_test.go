package auth

import (
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	weak := "Password must contain at least one capital letter and at least one digit and must not contain spaces"

	tests := []struct {
		name     string
		password string
		wantErr  string
	}{
		{name: "valid password", password: "Sup3rsecret"},
		{name: "missing password", password: "", wantErr: "Your user needs a password"},
		{name: "too short", password: "Ab1", wantErr: "Password must be at least 8 characters long"},
		{name: "too long", password: "A1" + strings.Repeat("a", 49), wantErr: "Your password must be 50 characters or fewer"},
		{name: "no capital letter", password: "sup3rsecret", wantErr: weak},
		{name: "no digit", password: "Supersecret", wantErr: weak},
		{name: "contains space", password: "Sup3r secret", wantErr: weak},
		{name: "contains tab", password: "Sup3r\tsecret", wantErr: weak},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidatePassword(tt.password)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidatePassword(%q) = %v, want nil", tt.password, err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("ValidatePassword(%q) = %v, want %q", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("Sup3rsecret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "Sup3rsecret" {
		t.Fatal("hash must not be the plaintext")
	}
	if !CheckPassword(hash, "Sup3rsecret") {
		t.Error("CheckPassword must accept the original plaintext")
	}
	if CheckPassword(hash, "Wr0ngsecret") {
		t.Error("CheckPassword must reject a different plaintext")
	}
}

func TestHashPasswordRejectsWeakInput(t *testing.T) {
	t.Parallel()

	if _, err := HashPassword("short"); err == nil {
		t.Error("HashPassword must enforce the password policy")
	}
}
