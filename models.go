package crm

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the subject's global role
type UserRole = string

const (
	// RoleUser is the default role (view clients, manage projects)
	RoleUser UserRole = "user"
	// RoleAdmin can additionally manage clients and delete any project
	RoleAdmin UserRole = "admin"
)

// ClientStatus is the client lifecycle status
type ClientStatus = string

const (
	// ClientStatusActive clients can take on new projects
	ClientStatusActive ClientStatus = "active"
	// ClientStatusInactive clients are soft-retired: no new projects, record kept
	ClientStatusInactive ClientStatus = "inactive"
)

// ProjectStatus is the project lifecycle status
type ProjectStatus = string

const (
	ProjectStatusPending    ProjectStatus = "pending"
	ProjectStatusInProgress ProjectStatus = "in-progress"
	ProjectStatusCompleted  ProjectStatus = "completed"
)

// OpenProjectStatuses are the statuses that block client deactivation.
var OpenProjectStatuses = []ProjectStatus{ProjectStatusPending, ProjectStatusInProgress}

// IsOpenProjectStatus reports whether a project in this status counts as
// active work for referential checks.
func IsOpenProjectStatus(s ProjectStatus) bool {
	return s == ProjectStatusPending || s == ProjectStatusInProgress
}

// User is the authenticated subject model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role           UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	Name           string     `bun:"name,notnull" json:"name,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"-"`
	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Client is the client model. Clients are never hard-deleted: setting
// status to inactive is the only destructive transition.
type Client struct {
	bun.BaseModel `bun:"table:clients,alias:cli"`
	ID            uuid.UUID    `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string       `bun:"name,notnull" json:"name,omitempty"`
	Email         string       `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone         string       `bun:"phone,notnull" json:"phone,omitempty"`
	Company       string       `bun:"company,notnull" json:"company,omitempty"`
	Address       string       `bun:"address" json:"address,omitempty"`
	Status        ClientStatus `bun:"status,notnull" json:"status,omitempty"`
	Projects      []*Project   `bun:"rel:has-many,join:id=client_id" json:"projects,omitempty"`
	CreatedAt     *time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time   `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// IsActive reports whether the client can be referenced by new projects.
func (c *Client) IsActive() bool {
	return c != nil && c.Status == ClientStatusActive
}

// EnsureStatus backfills the default status on records that predate it.
func (c *Client) EnsureStatus() {
	if c.Status == "" {
		c.Status = ClientStatusActive
	}
}

// Project is the project model. Project holds the owning foreign key to
// its Client; the client side is a non-owning back-reference only.
type Project struct {
	bun.BaseModel `bun:"table:projects,alias:prj"`
	ID            uuid.UUID     `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Title         string        `bun:"title,notnull" json:"title,omitempty"`
	Description   string        `bun:"description,notnull" json:"description,omitempty"`
	ClientID      uuid.UUID     `bun:"client_id,notnull,type:uuid" json:"client_id,omitempty"`
	Client        *Client       `bun:"rel:belongs-to,join:client_id=id" json:"client,omitempty"`
	Status        ProjectStatus `bun:"status,notnull" json:"status,omitempty"`
	StartDate     time.Time     `bun:"start_date,notnull" json:"start_date,omitempty"`
	EndDate       time.Time     `bun:"end_date,notnull" json:"end_date,omitempty"`
	Budget        float64       `bun:"budget,notnull" json:"budget"`
	CreatedBy     uuid.UUID     `bun:"created_by,notnull,type:uuid" json:"created_by,omitempty"`
	Creator       *User         `bun:"rel:belongs-to,join:created_by=id" json:"creator,omitempty"`
	CreatedAt     *time.Time    `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time    `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time    `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// IsOpen reports whether the project still counts as active work.
func (p *Project) IsOpen() bool {
	return p != nil && IsOpenProjectStatus(p.Status)
}

// DurationDays is the planned duration in whole days, rounded up.
func (p *Project) DurationDays() int {
	if !p.EndDate.After(p.StartDate) {
		return 0
	}
	return int(math.Ceil(p.EndDate.Sub(p.StartDate).Hours() / 24))
}

// ProgressAt derives the completion percentage at the given instant.
// Completed projects report 100, pending report 0, in-progress report the
// elapsed fraction of the planned window clamped to [0, 100].
func (p *Project) ProgressAt(now time.Time) int {
	switch p.Status {
	case ProjectStatusCompleted:
		return 100
	case ProjectStatusPending:
		return 0
	}

	total := p.EndDate.Sub(p.StartDate)
	if total <= 0 {
		return 0
	}

	pct := int(math.Round(float64(now.Sub(p.StartDate)) / float64(total) * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// Progress derives the completion percentage against wall-clock time.
func (p *Project) Progress() int {
	return p.ProgressAt(time.Now())
}

// NormalizeEmail lowercases and trims an email so the uniqueness pre-check
// and the unique index agree on the same value.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ClientSummary is the reduced projection of a Client embedded in project
// responses.
type ClientSummary struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Company string    `json:"company"`
	Email   string    `json:"email"`
}

// Summary builds the client's reduced projection.
func (c *Client) Summary() *ClientSummary {
	if c == nil {
		return nil
	}
	return &ClientSummary{
		ID:      c.ID,
		Name:    c.Name,
		Company: c.Company,
		Email:   c.Email,
	}
}

// UserSummary is the reduced projection of a User embedded in project
// responses.
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Summary builds the user's reduced projection.
func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}

// ProjectBrief is the project projection listed inside a client detail
// response.
type ProjectBrief struct {
	ID        uuid.UUID     `json:"id"`
	Title     string        `json:"title"`
	Status    ProjectStatus `json:"status"`
	StartDate time.Time     `json:"start_date"`
	EndDate   time.Time     `json:"end_date"`
	Budget    float64       `json:"budget"`
}

// Brief builds the project's reduced projection.
func (p *Project) Brief() *ProjectBrief {
	if p == nil {
		return nil
	}
	return &ProjectBrief{
		ID:        p.ID,
		Title:     p.Title,
		Status:    p.Status,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		Budget:    p.Budget,
	}
}

// ProjectRecord is the external representation of a project with its
// references resolved to summary form and derived values attached. The
// resolution step is explicit so it stays portable across storage engines.
type ProjectRecord struct {
	ID           uuid.UUID      `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Status       ProjectStatus  `json:"status"`
	StartDate    time.Time      `json:"start_date"`
	EndDate      time.Time      `json:"end_date"`
	Budget       float64        `json:"budget"`
	Client       *ClientSummary `json:"client,omitempty"`
	Creator      *UserSummary   `json:"created_by,omitempty"`
	DurationDays int            `json:"duration_days"`
	Progress     int            `json:"progress"`
	CreatedAt    *time.Time     `json:"created_at,omitempty"`
	UpdatedAt    *time.Time     `json:"updated_at,omitempty"`
}

// NewProjectRecord resolves a loaded project into its external shape.
func NewProjectRecord(p *Project) *ProjectRecord {
	if p == nil {
		return nil
	}
	return &ProjectRecord{
		ID:           p.ID,
		Title:        p.Title,
		Description:  p.Description,
		Status:       p.Status,
		StartDate:    p.StartDate,
		EndDate:      p.EndDate,
		Budget:       p.Budget,
		Client:       p.Client.Summary(),
		Creator:      p.Creator.Summary(),
		DurationDays: p.DurationDays(),
		Progress:     p.Progress(),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// NewProjectRecords maps a result page to its external shape.
func NewProjectRecords(projects []*Project) []*ProjectRecord {
	records := make([]*ProjectRecord, 0, len(projects))
	for _, p := range projects {
		records = append(records, NewProjectRecord(p))
	}
	return records
}

// ClientRecord is the external representation of a client, optionally with
// its project briefs attached (detail view).
type ClientRecord struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Phone     string          `json:"phone"`
	Company   string          `json:"company"`
	Address   string          `json:"address,omitempty"`
	Status    ClientStatus    `json:"status"`
	Projects  []*ProjectBrief `json:"projects,omitempty"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

// NewClientRecord resolves a loaded client into its external shape.
func NewClientRecord(c *Client) *ClientRecord {
	if c == nil {
		return nil
	}
	record := &ClientRecord{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Company:   c.Company,
		Address:   c.Address,
		Status:    c.Status,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	for _, p := range c.Projects {
		record.Projects = append(record.Projects, p.Brief())
	}
	return record
}

// NewClientRecords maps a result page to its external shape.
func NewClientRecords(clients []*Client) []*ClientRecord {
	records := make([]*ClientRecord, 0, len(clients))
	for _, c := range clients {
		records = append(records, NewClientRecord(c))
	}
	return records
}
