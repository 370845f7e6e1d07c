package crm_test

import (
	"strings"
	"testing"

	crm "github.com/goliatone/go-crm"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestRegisterClientPayloadValidate(t *testing.T) {
	valid := crm.RegisterClientPayload{
		Name:    "Jane Doe",
		Email:   "jane@example.com",
		Phone:   "+1 202 555 0143",
		Company: "Acme Corp",
		Address: "1 Main St",
	}
	assert.NoError(t, valid.Validate())

	t.Run("missing required fields", func(t *testing.T) {
		err := crm.RegisterClientPayload{}.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "name")
		assert.Contains(t, err.Error(), "email")
	})

	t.Run("bad email", func(t *testing.T) {
		p := valid
		p.Email = "not-an-email"
		assert.Error(t, p.Validate())
	})

	t.Run("bad phone", func(t *testing.T) {
		p := valid
		p.Phone = "123"
		assert.Error(t, p.Validate())
	})

	t.Run("address is optional", func(t *testing.T) {
		p := valid
		p.Address = ""
		assert.NoError(t, p.Validate())
	})

	t.Run("field length limits", func(t *testing.T) {
		p := valid
		p.Name = strings.Repeat("n", 101)
		assert.Error(t, p.Validate())

		p = valid
		p.Company = strings.Repeat("c", 101)
		assert.Error(t, p.Validate())

		p = valid
		p.Address = strings.Repeat("a", 201)
		assert.Error(t, p.Validate())

		p = valid
		p.Name = strings.Repeat("n", 100)
		p.Company = strings.Repeat("c", 100)
		p.Address = strings.Repeat("a", 200)
		assert.NoError(t, p.Validate())
	})

	t.Run("status is optional but validated when set", func(t *testing.T) {
		p := valid
		p.Status = crm.ClientStatusInactive
		assert.NoError(t, p.Validate())

		p.Status = "archived"
		assert.Error(t, p.Validate())
	})
}

func TestUpdateClientPayloadValidate(t *testing.T) {
	t.Run("empty payload passes validation", func(t *testing.T) {
		assert.NoError(t, crm.UpdateClientPayload{}.Validate())
	})

	t.Run("set fields are validated", func(t *testing.T) {
		assert.Error(t, crm.UpdateClientPayload{Email: strPtr("nope")}.Validate())
		assert.Error(t, crm.UpdateClientPayload{Name: strPtr("")}.Validate())
		assert.Error(t, crm.UpdateClientPayload{Phone: strPtr("123")}.Validate())
		assert.Error(t, crm.UpdateClientPayload{Name: strPtr(strings.Repeat("n", 101))}.Validate())
		assert.Error(t, crm.UpdateClientPayload{Company: strPtr(strings.Repeat("c", 101))}.Validate())
		assert.Error(t, crm.UpdateClientPayload{Address: strPtr(strings.Repeat("a", 201))}.Validate())
		assert.NoError(t, crm.UpdateClientPayload{Name: strPtr("Renamed")}.Validate())
		assert.NoError(t, crm.UpdateClientPayload{Phone: strPtr("+1 202 555 0143")}.Validate())
	})
}

func TestCreateProjectPayloadValidate(t *testing.T) {
	valid := crm.CreateProjectPayload{
		Title:       "Website Redesign",
		Description: "Full refresh of the marketing site",
		ClientID:    uuid.NewString(),
		Status:      crm.ProjectStatusPending,
		StartDate:   "2026-01-01",
		EndDate:     "2026-03-01",
		Budget:      5000,
	}
	assert.NoError(t, valid.Validate())

	t.Run("status defaults when omitted", func(t *testing.T) {
		p := valid
		p.Status = ""
		assert.NoError(t, p.Validate())
	})

	t.Run("unknown status", func(t *testing.T) {
		p := valid
		p.Status = "archived"
		assert.Error(t, p.Validate())
	})

	t.Run("client_id must be a uuid", func(t *testing.T) {
		p := valid
		p.ClientID = "42"
		assert.Error(t, p.Validate())
	})

	t.Run("end date must follow start date", func(t *testing.T) {
		p := valid
		p.EndDate = "2025-12-31"
		assert.Error(t, p.Validate())

		p.EndDate = p.StartDate
		assert.Error(t, p.Validate())
	})

	t.Run("dates must be YYYY-MM-DD", func(t *testing.T) {
		p := valid
		p.StartDate = "01/01/2026"
		assert.Error(t, p.Validate())
	})

	t.Run("negative budget", func(t *testing.T) {
		p := valid
		p.Budget = -1
		assert.Error(t, p.Validate())
	})

	t.Run("title and description length limits", func(t *testing.T) {
		p := valid
		p.Title = "X"
		assert.Error(t, p.Validate())

		p = valid
		p.Description = "too short"
		assert.Error(t, p.Validate())

		p = valid
		p.Description = strings.Repeat("d", 2001)
		assert.Error(t, p.Validate())

		p = valid
		p.Title = "Go"
		p.Description = strings.Repeat("d", 2000)
		assert.NoError(t, p.Validate())
	})
}

func TestUpdateProjectPayloadValidate(t *testing.T) {
	t.Run("empty payload passes validation", func(t *testing.T) {
		assert.NoError(t, crm.UpdateProjectPayload{}.Validate())
	})

	t.Run("set fields are validated", func(t *testing.T) {
		assert.Error(t, crm.UpdateProjectPayload{ClientID: strPtr("42")}.Validate())
		assert.Error(t, crm.UpdateProjectPayload{Status: strPtr("archived")}.Validate())
		assert.Error(t, crm.UpdateProjectPayload{StartDate: strPtr("soon")}.Validate())
		assert.Error(t, crm.UpdateProjectPayload{Title: strPtr("X")}.Validate())
		assert.Error(t, crm.UpdateProjectPayload{Description: strPtr("too short")}.Validate())
		assert.NoError(t, crm.UpdateProjectPayload{
			Title:    strPtr("Adjusted"),
			ClientID: strPtr(uuid.NewString()),
			Status:   strPtr(crm.ProjectStatusCompleted),
			EndDate:  strPtr("2026-06-01"),
		}.Validate())
	})
}
