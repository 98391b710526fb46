package errors

import (
	"strings"
	"testing"
)

func TestValidateText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"simple", "Project plan", false},
		{"multiline", "line one\nline two", false},
		{"unicode", "Ideen für 2026 ✨", false},
		{"empty", "", true},
		{"whitespace", "   \t", true},
		{"control char", "bad\x07text", true},
		{"null byte", "bad\x00text", true},
		{"too long", strings.Repeat("a", MaxTextLength+1), true},
		{"max length", strings.Repeat("a", MaxTextLength), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateText(tt.text)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateText(%q) error = %v, wantErr %v", tt.text, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateNotes(t *testing.T) {
	if err := ValidateNotes(""); err != nil {
		t.Errorf("empty notes should be valid: %v", err)
	}
	if err := ValidateNotes("some\nnotes"); err != nil {
		t.Errorf("notes should be valid: %v", err)
	}
	if err := ValidateNotes("a\x00b"); err == nil {
		t.Error("notes with null byte should be rejected")
	}
	if err := ValidateNotes(strings.Repeat("x", MaxNotesLength+1)); err == nil {
		t.Error("oversized notes should be rejected")
	}
}

func TestValidateTag(t *testing.T) {
	tests := []struct {
		tag     string
		wantErr bool
	}{
		{"urgent", false},
		{"q3-goals", false},
		{"", true},
		{"two words", true},
		{strings.Repeat("t", MaxTagLength+1), true},
	}
	for _, tt := range tests {
		if err := ValidateTag(tt.tag); (err != nil) != tt.wantErr {
			t.Errorf("ValidateTag(%q) error = %v, wantErr %v", tt.tag, err, tt.wantErr)
		}
	}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		id      string
		wantErr bool
	}{
		{"n1", false},
		{"3f1c2a9e-7b7d-4a1e-9c55-2f0d5b8e1a11", false},
		{"", true},
		{"../etc", true},
		{"a/b", true},
		{"a\\b", true},
		{"has space", true},
		{strings.Repeat("i", MaxIDLength+1), true},
	}
	for _, tt := range tests {
		if err := ValidateID(tt.id); (err != nil) != tt.wantErr {
			t.Errorf("ValidateID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
		}
	}
}
