package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trim spaces", input: "  Betim  ", want: "Betim"},
		{name: "multiple spaces between words", input: "Belo    Horizonte", want: "Belo Horizonte"},
		{name: "tabs and newlines", input: "Belo\t\nHorizonte", want: "Belo Horizonte"},
		{name: "empty string", input: "", want: ""},
		{name: "only whitespace", input: "   \t\n  ", want: ""},
		{name: "preserve accents", input: " São  Paulo ", want: "São Paulo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeCity(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: " betim ", want: "BETIM"},
		{input: "belo   horizonte", want: "BELO HORIZONTE"},
		{input: "são paulo", want: "SÃO PAULO"},
		{input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := SanitizeCity(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeCity(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := SanitizeCity(got); again != got {
				t.Errorf("SanitizeCity is not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestSanitizeMessage(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trim", input: "  olá  ", want: "olá"},
		{name: "keeps newlines", input: "linha 1\nlinha 2", want: "linha 1\nlinha 2"},
		{name: "drops control characters", input: "oi\x00\x07 tudo bem", want: "oi tudo bem"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeMessage(tt.input); got != tt.want {
				t.Errorf("SanitizeMessage(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeText(t *testing.T) {
	if got := SanitizeText(" Home\n"); got != "Home" {
		t.Errorf("SanitizeText() = %q, want %q", got, "Home")
	}
	if got := SanitizeText("a\tb"); got != "ab" {
		t.Errorf("SanitizeText() = %q, want %q", got, "ab")
	}
}
