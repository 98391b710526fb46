package errors

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Limits applied to user-supplied node content.
const (
	MaxTextLength  = 1024
	MaxNotesLength = 64 * 1024
	MaxTagLength   = 64
	MaxIDLength    = 128
)

// ValidateText validates display text for a node, task or comment.
//
// The validation rules are intentionally conservative:
//   - No empty (or whitespace-only) text
//   - No control characters other than newline and tab
//   - Valid UTF-8
//   - Maximum length of MaxTextLength runes
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return New(ErrCodeInvalidInput, "text cannot be empty")
	}
	if !utf8.ValidString(text) {
		return New(ErrCodeInvalidInput, "text is not valid UTF-8")
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return New(ErrCodeInvalidInput, "text too long (max %d characters)", MaxTextLength)
	}
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return New(ErrCodeInvalidInput, "text contains invalid control characters")
		}
	}
	return nil
}

// ValidateNotes validates free-form node notes. Empty notes are allowed.
func ValidateNotes(notes string) error {
	if !utf8.ValidString(notes) {
		return New(ErrCodeInvalidInput, "notes are not valid UTF-8")
	}
	if len(notes) > MaxNotesLength {
		return New(ErrCodeInvalidInput, "notes too long (max %d bytes)", MaxNotesLength)
	}
	if strings.ContainsRune(notes, '\x00') {
		return New(ErrCodeInvalidInput, "notes contain null bytes")
	}
	return nil
}

// ValidateTag validates a single tag: non-empty, no whitespace, bounded length.
func ValidateTag(tag string) error {
	if tag == "" {
		return New(ErrCodeInvalidInput, "tag cannot be empty")
	}
	if len(tag) > MaxTagLength {
		return New(ErrCodeInvalidInput, "tag too long (max %d characters)", MaxTagLength)
	}
	for _, r := range tag {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "tag %q contains whitespace or control characters", tag)
		}
	}
	return nil
}

// ValidateID validates an externally supplied identifier (node, branch, user).
// IDs end up in cache keys, file names and URLs, so path-like input is rejected.
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "id cannot be empty")
	}
	if len(id) > MaxIDLength {
		return New(ErrCodeInvalidInput, "id too long (max %d characters)", MaxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "id contains invalid characters")
		}
	}
	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidInput, "id contains invalid characters: %q", pattern)
		}
	}
	return nil
}
