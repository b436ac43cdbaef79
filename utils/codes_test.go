package utils

import (
	"strings"
	"testing"
)

func TestGenerateReferenceCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code := GenerateReferenceCode()
		if !strings.HasPrefix(code, "BK-") {
			t.Fatalf("missing prefix: %q", code)
		}
		if len(code) != 11 {
			t.Fatalf("expected BK- plus 8 chars, got %q", code)
		}
		if code != strings.ToUpper(code) {
			t.Fatalf("code must be upper case: %q", code)
		}
		if seen[code] {
			t.Fatalf("duplicate code %q after %d draws", code, i)
		}
		seen[code] = true
	}
}
