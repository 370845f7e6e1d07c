package crm

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
)

// DateLayout is the wire format for project dates.
const DateLayout = "2006-01-02"

// defaultPhoneRegion resolves national numbers without a country prefix.
const defaultPhoneRegion = "US"

// stringValue unwraps the value ozzo hands to an inline rule. Partial
// update payloads carry *string fields, and validation.By passes the
// pointer through as-is.
func stringValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case *string:
		if v != nil {
			return *v
		}
	}
	return ""
}

// ValidatePhoneNumber accepts a parseable, valid phone number, or falls
// back to a bare digit-count check for numbers libphonenumber cannot
// resolve (extensions, legacy records).
func ValidatePhoneNumber(value any) error {
	s := stringValue(value)
	if s == "" {
		return nil
	}

	if num, err := phonenumbers.Parse(s, defaultPhoneRegion); err == nil {
		if phonenumbers.IsValidNumber(num) {
			return nil
		}
	}

	digits := countDigits(s)
	if digits < 10 || digits > 20 {
		return fmt.Errorf("must be a valid phone number")
	}

	return nil
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

// PhoneRule is the reusable ozzo rule for phone fields.
var PhoneRule = validation.By(ValidatePhoneNumber)

// ValidateClientStatus accepts the supported client statuses.
var ValidateClientStatus = validation.In(ClientStatusActive, ClientStatusInactive)

// ValidateProjectStatus accepts the supported project statuses.
var ValidateProjectStatus = validation.In(
	ProjectStatusPending,
	ProjectStatusInProgress,
	ProjectStatusCompleted,
)

// ValidateUUIDString accepts any parseable UUID, not just v4, since
// hashid-derived identifiers carry other version bits.
func ValidateUUIDString(value any) error {
	s := stringValue(value)
	if s == "" {
		return nil
	}
	if _, err := uuid.Parse(s); err != nil {
		return fmt.Errorf("must be a valid UUID")
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD wire date.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

// ValidateDateString is the ozzo rule form of ParseDate.
func ValidateDateString(value any) error {
	s := stringValue(value)
	if s == "" {
		return nil
	}
	_, err := ParseDate(s)
	return err
}

// ValidateDateAfter builds a rule asserting the value parses to a date
// strictly after the given one.
func ValidateDateAfter(start string) validation.RuleFunc {
	return func(value any) error {
		s := stringValue(value)
		if s == "" || start == "" {
			return nil
		}

		from, err := ParseDate(start)
		if err != nil {
			return nil
		}

		to, err := ParseDate(s)
		if err != nil {
			return err
		}

		if !to.After(from) {
			return fmt.Errorf("must be after the start date")
		}

		return nil
	}
}
