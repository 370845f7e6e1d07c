package crm_test

import (
	"testing"

	crm "github.com/goliatone/go-crm"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePhoneNumber(t *testing.T) {
	valid := []string{
		"",
		"+1 202 555 0143",
		"(202) 555-0143",
		"2025550143",
		"+44 20 7946 0958",
		"555-0143 ext 12345", // digit-count fallback
	}
	for _, number := range valid {
		assert.NoError(t, crm.ValidatePhoneNumber(number), number)
	}

	invalid := []string{
		"123",
		"phone",
		"12345678901234567890123",
	}
	for _, number := range invalid {
		assert.Error(t, crm.ValidatePhoneNumber(number), number)
	}
}

// partial update payloads hand *string values to the inline rules
func TestValidationRulesIndirectPointers(t *testing.T) {
	bad := "123"
	assert.Error(t, crm.ValidatePhoneNumber(&bad))

	notUUID := "not-a-uuid"
	assert.Error(t, crm.ValidateUUIDString(&notUUID))
	goodUUID := uuid.New().String()
	assert.NoError(t, crm.ValidateUUIDString(&goodUUID))

	notDate := "soon"
	assert.Error(t, crm.ValidateDateString(&notDate))
	goodDate := "2026-01-31"
	assert.NoError(t, crm.ValidateDateString(&goodDate))

	early := "2025-12-31"
	assert.Error(t, crm.ValidateDateAfter("2026-01-01")(&early))

	var unset *string
	assert.NoError(t, crm.ValidatePhoneNumber(unset))
	assert.NoError(t, crm.ValidateUUIDString(unset))
	assert.NoError(t, crm.ValidateDateString(unset))
}

func TestValidateUUIDString(t *testing.T) {
	assert.NoError(t, crm.ValidateUUIDString(""))
	assert.NoError(t, crm.ValidateUUIDString(uuid.New().String()))
	// non-v4 identifiers are still valid UUIDs
	assert.NoError(t, crm.ValidateUUIDString("00000000-0000-0000-0000-000000000001"))
	assert.Error(t, crm.ValidateUUIDString("not-a-uuid"))
}

func TestParseDate(t *testing.T) {
	parsed, err := crm.ParseDate("2026-03-15")
	require.NoError(t, err)
	assert.Equal(t, 2026, parsed.Year())
	assert.Equal(t, 15, parsed.Day())

	_, err = crm.ParseDate("15/03/2026")
	assert.Error(t, err)
	_, err = crm.ParseDate("2026-13-99")
	assert.Error(t, err)
}

func TestValidateDateString(t *testing.T) {
	assert.NoError(t, crm.ValidateDateString(""))
	assert.NoError(t, crm.ValidateDateString("2026-01-31"))
	assert.Error(t, crm.ValidateDateString("January 31"))
}

func TestValidateDateAfter(t *testing.T) {
	rule := crm.ValidateDateAfter("2026-01-01")

	assert.NoError(t, rule("2026-01-02"))
	assert.Error(t, rule("2026-01-01"))
	assert.Error(t, rule("2025-12-31"))

	// blank values and an unparseable anchor defer to other rules
	assert.NoError(t, rule(""))
	assert.NoError(t, crm.ValidateDateAfter("")("2026-01-02"))
	assert.NoError(t, crm.ValidateDateAfter("bogus")("2026-01-02"))
}

func TestValidateStatuses(t *testing.T) {
	assert.NoError(t, crm.ValidateClientStatus.Validate(crm.ClientStatusActive))
	assert.NoError(t, crm.ValidateClientStatus.Validate(crm.ClientStatusInactive))
	assert.Error(t, crm.ValidateClientStatus.Validate("archived"))

	assert.NoError(t, crm.ValidateProjectStatus.Validate(crm.ProjectStatusPending))
	assert.NoError(t, crm.ValidateProjectStatus.Validate(crm.ProjectStatusInProgress))
	assert.NoError(t, crm.ValidateProjectStatus.Validate(crm.ProjectStatusCompleted))
	assert.Error(t, crm.ValidateProjectStatus.Validate("cancelled"))
}
