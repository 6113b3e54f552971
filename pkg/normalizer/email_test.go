package normalizer

import "testing"

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"a@b.com", true},
		{"TEST@EXAMPLE.com", true},
		{"first.last+tag@sub.domain.com.br", true},
		{"not-an-email", false},
		{"missing@tld", false},
		{"spa ce@example.com", false},
		{"two@@example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValidEmail(tt.input); got != tt.want {
			t.Errorf("IsValidEmail(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  TEST@Example.COM \n"); got != "test@example.com" {
		t.Errorf("NormalizeEmail() = %q, want %q", got, "test@example.com")
	}
}
