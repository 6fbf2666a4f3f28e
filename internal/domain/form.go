package domain

import (
	"fmt"
	"strings"
)

// FormKind identifies which submission template a dispatch uses.
type FormKind string

const (
	FormContact    FormKind = "CONTACT"
	FormInternship FormKind = "INTERNSHIP"
)

func (k FormKind) String() string { return string(k) }

func (k FormKind) IsValid() bool {
	switch k {
	case FormContact, FormInternship:
		return true
	}
	return false
}

func ParseFormKindFromString(s string) (FormKind, error) {
	k := FormKind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", fmt.Errorf("%w: invalid form kind %q", ErrValidation, s)
	}
	return k, nil
}

// Field limits (in characters).
const (
	MaxNameLen    = 120
	MaxSubjectLen = 200
	MaxMessageLen = 10000
	MaxCourseLen  = 120
	MaxPhoneLen   = 32
)

// ContactForm is a validated contact-page submission.
type ContactForm struct {
	Name    string
	Email   string
	Subject string
	Message string
}

func (f *ContactForm) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if len([]rune(f.Name)) > MaxNameLen {
		return fmt.Errorf("%w: name exceeds %d characters", ErrValidation, MaxNameLen)
	}
	if err := ValidateEmailAddress(f.Email); err != nil {
		return err
	}
	if len([]rune(f.Subject)) > MaxSubjectLen {
		return fmt.Errorf("%w: subject exceeds %d characters", ErrValidation, MaxSubjectLen)
	}
	if strings.TrimSpace(f.Message) == "" {
		return fmt.Errorf("%w: message is required", ErrValidation)
	}
	if len([]rune(f.Message)) > MaxMessageLen {
		return fmt.Errorf("%w: message exceeds %d characters (got %d)", ErrValidation, MaxMessageLen, len([]rune(f.Message)))
	}
	return nil
}

// RecipientKey returns the deduplication key for this submission.
func (f *ContactForm) RecipientKey() string { return NormalizeRecipientKey(f.Email) }

func (f *ContactForm) Kind() FormKind { return FormContact }

// InternshipForm is a validated internship-registration submission.
type InternshipForm struct {
	Name   string
	Email  string
	Course string
	Phone  string
}

func (f *InternshipForm) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if len([]rune(f.Name)) > MaxNameLen {
		return fmt.Errorf("%w: name exceeds %d characters", ErrValidation, MaxNameLen)
	}
	if err := ValidateEmailAddress(f.Email); err != nil {
		return err
	}
	if strings.TrimSpace(f.Course) == "" {
		return fmt.Errorf("%w: course is required", ErrValidation)
	}
	if len([]rune(f.Course)) > MaxCourseLen {
		return fmt.Errorf("%w: course exceeds %d characters", ErrValidation, MaxCourseLen)
	}
	if len([]rune(f.Phone)) > MaxPhoneLen {
		return fmt.Errorf("%w: phone exceeds %d characters", ErrValidation, MaxPhoneLen)
	}
	return nil
}

func (f *InternshipForm) RecipientKey() string { return NormalizeRecipientKey(f.Email) }

func (f *InternshipForm) Kind() FormKind { return FormInternship }

// Form is implemented by all submission types the dispatcher accepts.
type Form interface {
	Validate() error
	RecipientKey() string
	Kind() FormKind
}
