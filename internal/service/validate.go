package service

import (
	"strings"
	"unicode/utf8"
)

const (
	maxFilenameBytes = 255
	maxUsernameChars = 150
	// bcrypt ignores input past 72 bytes.
	maxPasswordBytes = 72
)

// ValidateFilename accepts a single, non-empty path element.
func ValidateFilename(name string) error {
	switch {
	case name == "":
		return &ValidationError{Field: "file", Message: "filename is required"}
	case len(name) > maxFilenameBytes:
		return &ValidationError{Field: "file", Message: "filename is too long"}
	case name == "." || name == "..":
		return &ValidationError{Field: "file", Message: "filename is not allowed"}
	case strings.ContainsAny(name, "/\\\x00"):
		return &ValidationError{Field: "file", Message: "filename must not contain path separators"}
	case !utf8.ValidString(name):
		return &ValidationError{Field: "file", Message: "filename must be valid UTF-8"}
	}
	return nil
}

func validateCredentials(username, password string) error {
	n := utf8.RuneCountInString(username)
	switch {
	case n == 0:
		return &ValidationError{Field: "username", Message: "username is required"}
	case n > maxUsernameChars:
		return &ValidationError{Field: "username", Message: "username must be at most 150 characters"}
	case strings.TrimSpace(username) != username:
		return &ValidationError{Field: "username", Message: "username must not start or end with whitespace"}
	case password == "":
		return &ValidationError{Field: "password", Message: "password is required"}
	case len(password) > maxPasswordBytes:
		return &ValidationError{Field: "password", Message: "password must be at most 72 bytes"}
	}
	return nil
}
