package crm_test

import (
	"testing"
	"time"

	crm "github.com/goliatone/go-crm"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", crm.NormalizeEmail("  USER@Example.COM "))
	assert.Equal(t, "", crm.NormalizeEmail("   "))
}

func TestClientIsActive(t *testing.T) {
	var nilClient *crm.Client
	assert.False(t, nilClient.IsActive())

	assert.True(t, (&crm.Client{Status: crm.ClientStatusActive}).IsActive())
	assert.False(t, (&crm.Client{Status: crm.ClientStatusInactive}).IsActive())
}

func TestClientEnsureStatus(t *testing.T) {
	client := &crm.Client{}
	client.EnsureStatus()
	assert.Equal(t, crm.ClientStatusActive, client.Status)

	client.Status = crm.ClientStatusInactive
	client.EnsureStatus()
	assert.Equal(t, crm.ClientStatusInactive, client.Status)
}

func TestIsOpenProjectStatus(t *testing.T) {
	assert.True(t, crm.IsOpenProjectStatus(crm.ProjectStatusPending))
	assert.True(t, crm.IsOpenProjectStatus(crm.ProjectStatusInProgress))
	assert.False(t, crm.IsOpenProjectStatus(crm.ProjectStatusCompleted))
	assert.False(t, crm.IsOpenProjectStatus("archived"))
}

func TestProjectDurationDays(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	project := &crm.Project{StartDate: start, EndDate: start.AddDate(0, 0, 10)}
	assert.Equal(t, 10, project.DurationDays())

	// partial days round up
	project.EndDate = start.Add(36 * time.Hour)
	assert.Equal(t, 2, project.DurationDays())

	// inverted or equal dates report zero
	project.EndDate = start
	assert.Equal(t, 0, project.DurationDays())
	project.EndDate = start.AddDate(0, 0, -3)
	assert.Equal(t, 0, project.DurationDays())
}

func TestProjectProgressAt(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 10)

	completed := &crm.Project{Status: crm.ProjectStatusCompleted, StartDate: start, EndDate: end}
	assert.Equal(t, 100, completed.ProgressAt(start))

	pending := &crm.Project{Status: crm.ProjectStatusPending, StartDate: start, EndDate: end}
	assert.Equal(t, 0, pending.ProgressAt(end))

	inProgress := &crm.Project{Status: crm.ProjectStatusInProgress, StartDate: start, EndDate: end}
	assert.Equal(t, 50, inProgress.ProgressAt(start.AddDate(0, 0, 5)))

	// clamped to the planned window
	assert.Equal(t, 0, inProgress.ProgressAt(start.AddDate(0, 0, -2)))
	assert.Equal(t, 100, inProgress.ProgressAt(end.AddDate(0, 0, 2)))

	// degenerate window
	zeroWindow := &crm.Project{Status: crm.ProjectStatusInProgress, StartDate: start, EndDate: start}
	assert.Equal(t, 0, zeroWindow.ProgressAt(start))
}

func TestSummaryProjections(t *testing.T) {
	var nilClient *crm.Client
	var nilUser *crm.User
	var nilProject *crm.Project

	assert.Nil(t, nilClient.Summary())
	assert.Nil(t, nilUser.Summary())
	assert.Nil(t, nilProject.Brief())
	assert.Nil(t, crm.NewProjectRecord(nil))
	assert.Nil(t, crm.NewClientRecord(nil))

	client := &crm.Client{
		ID:      uuid.New(),
		Name:    "Acme Contact",
		Company: "Acme Corp",
		Email:   "billing@acme.test",
	}
	summary := client.Summary()
	require.NotNil(t, summary)
	assert.Equal(t, client.ID, summary.ID)
	assert.Equal(t, "Acme Corp", summary.Company)
}

func TestNewProjectRecord(t *testing.T) {
	base := time.Now()
	start := base.AddDate(0, 0, -5)
	end := base.AddDate(0, 0, 5)

	creator := &crm.User{ID: uuid.New(), Name: "Creator", Email: "creator@example.com"}
	client := &crm.Client{ID: uuid.New(), Name: "Acme", Company: "Acme Corp", Email: "acme@example.com"}

	project := &crm.Project{
		ID:          uuid.New(),
		Title:       "Website revamp",
		Description: "Full redesign",
		Status:      crm.ProjectStatusInProgress,
		StartDate:   start,
		EndDate:     end,
		Budget:      15000,
		Client:      client,
		Creator:     creator,
	}

	record := crm.NewProjectRecord(project)
	require.NotNil(t, record)
	assert.Equal(t, project.ID, record.ID)
	assert.Equal(t, 10, record.DurationDays)
	assert.InDelta(t, 50, record.Progress, 1)
	require.NotNil(t, record.Client)
	assert.Equal(t, client.ID, record.Client.ID)
	require.NotNil(t, record.Creator)
	assert.Equal(t, creator.ID, record.Creator.ID)
}

func TestNewClientRecordWithProjects(t *testing.T) {
	client := &crm.Client{
		ID:     uuid.New(),
		Name:   "Acme Contact",
		Email:  "acme@example.com",
		Status: crm.ClientStatusActive,
		Projects: []*crm.Project{
			{ID: uuid.New(), Title: "One", Status: crm.ProjectStatusPending},
			{ID: uuid.New(), Title: "Two", Status: crm.ProjectStatusCompleted},
		},
	}

	record := crm.NewClientRecord(client)
	require.NotNil(t, record)
	require.Len(t, record.Projects, 2)
	assert.Equal(t, "One", record.Projects[0].Title)

	records := crm.NewClientRecords([]*crm.Client{client})
	require.Len(t, records, 1)
}
