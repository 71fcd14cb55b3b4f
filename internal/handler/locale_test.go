package handler

import (
	"strings"
	"testing"
)

func TestExhaustedMessage(t *testing.T) {
	tests := []struct {
		name           string
		acceptLanguage string
		wantSubstring  string
	}{
		{"no header defaults to Swedish", "", "krediter"},
		{"swedish", "sv", "krediter"},
		{"swedish regional", "sv-SE", "krediter"},
		{"english", "en", "credits"},
		{"english regional", "en-US,en;q=0.9", "credits"},
		{"english preferred over swedish", "en;q=1.0, sv;q=0.5", "credits"},
		{"unsupported language falls back to Swedish", "fi", "krediter"},
		{"garbage header defaults to Swedish", ";;;", "krediter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := exhaustedMessage(tt.acceptLanguage)
			if !strings.Contains(got, tt.wantSubstring) {
				t.Errorf("exhaustedMessage(%q) = %q, want it to contain %q", tt.acceptLanguage, got, tt.wantSubstring)
			}
		})
	}
}
