package utils

import (
	"strings"
	"testing"
)

func TestIsValidEmail(t *testing.T) {
	cases := []struct {
		in    string
		valid bool
	}{
		{"agent@mairie.mg", true},
		{"a.b+c@sub.domain.org", true},
		{"sans-arobase", false},
		{"@mairie.mg", false},
		{"agent@", false},
	}
	for _, tc := range cases {
		if got := IsValidEmail(tc.in); got != tc.valid {
			t.Fatalf("IsValidEmail(%q) = %v, expected %v", tc.in, got, tc.valid)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Agent@Mairie.MG "); got != "agent@mairie.mg" {
		t.Fatalf("NormalizeEmail: %q", got)
	}
}

func TestGenerateUniqueFilename_KeepsExtension(t *testing.T) {
	name := GenerateUniqueFilename("photo.JPG")
	if !strings.HasSuffix(name, ".JPG") {
		t.Fatalf("extension lost: %q", name)
	}
	if name == GenerateUniqueFilename("photo.JPG") {
		t.Fatal("two generated names must differ")
	}
}
