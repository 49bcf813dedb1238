package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidatePath validates a path relative to the icon root for safety.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// bundleNameRegex matches bundle names produced by directory flattening.
var bundleNameRegex = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9._-]*$`)

// ValidateBundleName validates a bundle name received from outside the
// compiler (for example an HTTP path segment). Bundle names become file
// names, so separators and traversal sequences are rejected.
func ValidateBundleName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "bundle name cannot be empty")
	}
	if len(name) > 255 {
		return New(ErrCodeInvalidInput, "bundle name too long (max 255 characters)")
	}
	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidInput, "bundle name cannot contain path traversal sequences (..)")
	}
	if !bundleNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid bundle name: %q", name)
	}
	return nil
}

// ValidateSymbolID checks that a symbol id is usable as a fragment
// identifier: non-empty and free of whitespace and control characters.
func ValidateSymbolID(id string) error {
	if id == "" {
		return New(ErrCodeMissingID, "symbol id is required")
	}
	for _, r := range id {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "symbol id %q contains whitespace or control characters", id)
		}
	}
	return nil
}
