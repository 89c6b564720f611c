package otp

import (
	"errors"
	"testing"
)

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode: %v", err)
		}
		if len(code) != CodeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), CodeLength)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("code %q contains non-digit", code)
			}
		}
	}
}

func TestSanitizeCode(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"12a3-45", "12345"},
		{"123456", "123456"},
		{" 1 2 3 4 5 6 ", "123456"},
		{"abc", ""},
		{"", ""},
	}

	for _, tt := range cases {
		if got := SanitizeCode(tt.in); got != tt.want {
			t.Fatalf("SanitizeCode(%q)=%q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeCode(t *testing.T) {
	if _, err := NormalizeCode("12a3-45"); !errors.Is(err, ErrBadCode) {
		t.Fatalf("five digits after stripping must be rejected, got %v", err)
	}
	if _, err := NormalizeCode("1234567"); !errors.Is(err, ErrBadCode) {
		t.Fatalf("seven digits must be rejected, got %v", err)
	}
	code, err := NormalizeCode("12-34-56")
	if err != nil || code != "123456" {
		t.Fatalf("NormalizeCode(\"12-34-56\")=(%q, %v), want (123456, nil)", code, err)
	}
}
