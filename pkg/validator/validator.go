package validator

import (
	"maps"
	"slices"
	"strings"
	"unicode/utf8"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

// Error lets services return field errors through the normal error path.
func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, field := range slices.Sorted(maps.Keys(v)) {
		parts = append(parts, field+": "+v[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// bcrypt ignores everything past 72 bytes, so longer passwords are refused.
const maxPasswordBytes = 72

func ValidateRegister(name, password, avatar string) ValidationErrors {
	errs := make(ValidationErrors)

	validateName(name, errs)

	if password == "" {
		errs.Add("password", "Password is required")
	} else if len(password) > maxPasswordBytes {
		errs.Add("password", "Password is too long")
	}

	if utf8.RuneCountInString(avatar) > 255 {
		errs.Add("avatar", "Avatar reference is too long")
	}

	return errs
}

func ValidatePostText(text string) ValidationErrors {
	errs := make(ValidationErrors)
	if utf8.RuneCountInString(text) > 5000 {
		errs.Add("textContent", "Text is too long")
	}
	return errs
}

func validateName(name string, errs ValidationErrors) {
	switch {
	case strings.TrimSpace(name) == "":
		errs.Add("name", "Name is required")
	case utf8.RuneCountInString(name) > 50:
		errs.Add("name", "Name is too long")
	case strings.ContainsRune(name, '/'):
		// Names appear as a path segment in /posts/user/{userName}.
		errs.Add("name", "Name cannot contain '/'")
	}
}
