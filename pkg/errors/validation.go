package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxCrateNameLength is the crates.io limit on crate names.
const maxCrateNameLength = 64

// cratesPackageNameRegex matches valid crates.io package names.
var cratesPackageNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// ValidateCrateName validates a crate name given on the command line before it
// is interpolated into a registry URL.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path traversal sequences (.., /, \)
//   - Maximum length of 64 characters
//   - Must start with a letter and contain only letters, digits, _ and -
func ValidateCrateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "crate name cannot be empty")
	}

	if len(name) > maxCrateNameLength {
		return New(ErrCodeInvalidPackage, "crate name too long (max %d characters)", maxCrateNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPackage, "crate name contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "crate name contains invalid characters: %q", pattern)
		}
	}

	if !cratesPackageNameRegex.MatchString(name) {
		return New(ErrCodeInvalidPackage, "invalid crates.io package name: %q", name)
	}

	return nil
}
