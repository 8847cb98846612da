package domain

import (
	"regexp"
	"strings"
)

// FieldErrorKind is the reason a field value failed validation.
type FieldErrorKind string

const (
	FieldErrorRequired  FieldErrorKind = "required"
	FieldErrorTooLong   FieldErrorKind = "too_long"
	FieldErrorBadFormat FieldErrorKind = "bad_format"
)

// Field names a registration form field.
type Field string

const (
	FieldName             Field = "name"
	FieldEmail            Field = "email"
	FieldPhone            Field = "phone"
	FieldEmergencyContact Field = "emergency_contact"
	FieldNotes            Field = "notes"
)

// DraftFields lists the form fields in display order.
var DraftFields = []Field{FieldName, FieldEmail, FieldPhone, FieldEmergencyContact, FieldNotes}

const (
	maxNameLen  = 50
	maxNotesLen = 200
)

// phoneRegexp accepts a leading + or digit followed by at least six more
// digits, spaces, or hyphens.
var phoneRegexp = regexp.MustCompile(`^[+\d][\d\s-]{6,}$`)

// ValidateName fails Required for empty or whitespace-only input and TooLong
// above 50 characters.
func ValidateName(v string) (FieldErrorKind, bool) {
	if strings.TrimSpace(v) == "" {
		return FieldErrorRequired, false
	}
	if len([]rune(v)) > maxNameLen {
		return FieldErrorTooLong, false
	}
	return "", true
}

// ValidateEmail fails Required for empty input and BadFormat unless the value
// has a local@domain.tld shape: exactly one @, at least one dot after it, and
// no whitespace anywhere.
func ValidateEmail(v string) (FieldErrorKind, bool) {
	if strings.TrimSpace(v) == "" {
		return FieldErrorRequired, false
	}
	if strings.ContainsAny(v, " \t\n\r") {
		return FieldErrorBadFormat, false
	}
	at := strings.Index(v, "@")
	if at <= 0 || at != strings.LastIndex(v, "@") {
		return FieldErrorBadFormat, false
	}
	dom := v[at+1:]
	if !strings.Contains(dom, ".") || strings.HasPrefix(dom, ".") || strings.HasSuffix(dom, ".") {
		return FieldErrorBadFormat, false
	}
	return "", true
}

// ValidatePhone fails Required for empty input and BadFormat unless the value
// is a leading + or digit followed by at least six more digits, spaces, or
// hyphens.
func ValidatePhone(v string) (FieldErrorKind, bool) {
	if strings.TrimSpace(v) == "" {
		return FieldErrorRequired, false
	}
	if !phoneRegexp.MatchString(v) {
		return FieldErrorBadFormat, false
	}
	return "", true
}

// ValidateNotes fails TooLong above 200 characters; empty is valid.
func ValidateNotes(v string) (FieldErrorKind, bool) {
	if len([]rune(v)) > maxNotesLen {
		return FieldErrorTooLong, false
	}
	return "", true
}

// ValidateField dispatches to the validator for the given field. Fields with
// no rules (emergency contact) are always valid.
func ValidateField(f Field, v string) (FieldErrorKind, bool) {
	switch f {
	case FieldName:
		return ValidateName(v)
	case FieldEmail:
		return ValidateEmail(v)
	case FieldPhone:
		return ValidatePhone(v)
	case FieldNotes:
		return ValidateNotes(v)
	default:
		return "", true
	}
}
