package crm

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ProjectPatch carries a partial project update. Nil fields are left
// untouched; at least one field must be set.
type ProjectPatch struct {
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	ClientID    *uuid.UUID     `json:"client_id,omitempty"`
	Status      *ProjectStatus `json:"status,omitempty"`
	StartDate   *time.Time     `json:"start_date,omitempty"`
	EndDate     *time.Time     `json:"end_date,omitempty"`
	Budget      *float64       `json:"budget,omitempty"`
}

// HasChanges reports whether the patch sets at least one field.
func (p ProjectPatch) HasChanges() bool {
	return p.Title != nil || p.Description != nil || p.ClientID != nil ||
		p.Status != nil || p.StartDate != nil || p.EndDate != nil || p.Budget != nil
}

func (p ProjectPatch) apply(record *Project) {
	if p.Title != nil {
		record.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		record.Description = strings.TrimSpace(*p.Description)
	}
	if p.ClientID != nil {
		record.ClientID = *p.ClientID
	}
	if p.Status != nil {
		record.Status = *p.Status
	}
	if p.StartDate != nil {
		record.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		record.EndDate = *p.EndDate
	}
	if p.Budget != nil {
		record.Budget = *p.Budget
	}
}

// ProjectStatusStats aggregates one status bucket. The average is
// rounded to the nearest whole unit.
type ProjectStatusStats struct {
	Count         int     `json:"count"`
	TotalBudget   float64 `json:"total_budget"`
	AverageBudget float64 `json:"average_budget"`
}

// ProjectStats is the aggregate view over non-deleted projects.
type ProjectStats struct {
	Total         int                           `json:"total"`
	ByStatus      map[string]ProjectStatusStats `json:"by_status"`
	TotalBudget   float64                       `json:"total_budget"`
	AverageBudget float64                       `json:"average_budget"`
}

// Projects is the project registry.
type Projects interface {
	repository.Repository[*Project]

	CreateProject(ctx context.Context, actor ActorRef, project *Project) (*Project, error)
	GetProject(ctx context.Context, id uuid.UUID) (*Project, error)
	UpdateProject(ctx context.Context, id uuid.UUID, patch ProjectPatch) (*Project, error)
	DeleteProject(ctx context.Context, actor ActorContext, id uuid.UUID) error
	ListProjects(ctx context.Context, q ProjectQuery) ([]*Project, PageMeta, error)
	ListByClient(ctx context.Context, clientID uuid.UUID, q ProjectQuery) ([]*Project, PageMeta, error)
	CountOpenForClient(ctx context.Context, clientID uuid.UUID) (int, error)
	StatsOverview(ctx context.Context) (*ProjectStats, error)
}

type projects struct {
	repository.Repository[*Project]
	db           *bun.DB
	activitySink ActivitySink
}

var (
	_ Projects                        = (*projects)(nil)
	_ repository.Repository[*Project] = (*projects)(nil)
	_ OpenProjectCounter              = (*projects)(nil)
)

type ProjectsOption func(*projects)

// WithProjectsActivitySink publishes create and delete events.
func WithProjectsActivitySink(sink ActivitySink) ProjectsOption {
	return func(p *projects) {
		p.activitySink = normalizeActivitySink(sink)
	}
}

func NewProjectsRepository(db *bun.DB, opts ...ProjectsOption) Projects {
	repo := repository.NewRepository[*Project](db, repository.ModelHandlers[*Project]{
		NewRecord: func() *Project { return &Project{} },
		GetID: func(p *Project) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Project, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
	})

	repoProjects := &projects{
		Repository:   repo,
		db:           db,
		activitySink: noopActivitySink{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repoProjects)
		}
	}

	return repoProjects
}

// CreateProject persists a project after checking the referenced client
// exists and is active. The stored record is reloaded with its client
// and creator relations.
func (a *projects) CreateProject(ctx context.Context, actor ActorRef, project *Project) (*Project, error) {
	if project == nil {
		return nil, errors.New("project must not be nil", errors.CategoryBadInput)
	}

	if err := a.ensureClientAcceptsProjects(ctx, project.ClientID); err != nil {
		return nil, err
	}

	prepareProjectDefaults(project)

	created, err := a.Repository.CreateTx(ctx, a.db, project)
	if err != nil {
		return nil, err
	}

	a.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventProjectCreated,
		Actor:     actor,
		EntityID:  created.ID.String(),
		Metadata: map[string]any{
			"client_id": created.ClientID.String(),
			"title":     created.Title,
		},
	})

	return a.GetProject(ctx, created.ID)
}

// GetProject loads a project with its client and creator.
func (a *projects) GetProject(ctx context.Context, id uuid.UUID) (*Project, error) {
	record := &Project{}

	err := a.db.NewSelect().
		Model(record).
		Relation("Client").
		Relation("Creator").
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrProjectNotFound.WithMetadata(map[string]any{
				"id": id.String(),
			})
		}
		return nil, err
	}

	return record, nil
}

// UpdateProject applies a partial update. A client change is checked
// against the registry; the effective date pair must stay ordered.
func (a *projects) UpdateProject(ctx context.Context, id uuid.UUID, patch ProjectPatch) (*Project, error) {
	if !patch.HasChanges() {
		return nil, ErrEmptyPatch
	}

	record, err := a.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.ClientID != nil && *patch.ClientID != record.ClientID {
		if err := a.ensureClientAcceptsProjects(ctx, *patch.ClientID); err != nil {
			return nil, err
		}
	}

	patch.apply(record)

	if !record.EndDate.After(record.StartDate) {
		return nil, errors.New("end date must be after start date", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}

	record.Client = nil
	record.Creator = nil

	if _, err := a.Repository.UpdateTx(ctx, a.db, record, repository.UpdateByID(id.String())); err != nil {
		return nil, err
	}

	return a.GetProject(ctx, id)
}

// DeleteProject soft-deletes a project. Only the creator or an admin
// may delete.
func (a *projects) DeleteProject(ctx context.Context, actor ActorContext, id uuid.UUID) error {
	record, err := a.GetProject(ctx, id)
	if err != nil {
		return err
	}

	if !CanDeleteProject(actor, record) {
		return ErrProjectDeleteForbidden.WithMetadata(map[string]any{
			"project_id": id.String(),
			"actor_id":   actor.ActorID,
		})
	}

	if _, err := a.db.NewDelete().
		Model((*Project)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete project")
	}

	a.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventProjectDeleted,
		Actor:     ActorRef{ID: actor.ActorID, Type: "user", Role: actor.Role},
		EntityID:  id.String(),
		Metadata: map[string]any{
			"client_id": record.ClientID.String(),
		},
	})

	return nil
}

func (a *projects) ListProjects(ctx context.Context, q ProjectQuery) ([]*Project, PageMeta, error) {
	records := []*Project{}

	countQuery := a.db.NewSelect().Model((*Project)(nil))
	for _, c := range q.Filters() {
		countQuery = c(countQuery)
	}

	total, err := countQuery.Count(ctx)
	if err != nil {
		return nil, PageMeta{}, errors.Wrap(err, errors.CategoryInternal, "failed to count projects")
	}

	listQuery := a.db.NewSelect().Model(&records).Relation("Client").Relation("Creator")
	if err := q.Apply(listQuery).Scan(ctx); err != nil {
		return nil, PageMeta{}, errors.Wrap(err, errors.CategoryInternal, "failed to list projects")
	}

	return records, NewPageMeta(q.Pagination, total), nil
}

// ListByClient lists a client's projects. A missing client is an error
// even when the result would be empty.
func (a *projects) ListByClient(ctx context.Context, clientID uuid.UUID, q ProjectQuery) ([]*Project, PageMeta, error) {
	exists, err := a.db.NewSelect().
		Model((*Client)(nil)).
		Where("?TableAlias.id = ?", clientID).
		Exists(ctx)
	if err != nil {
		return nil, PageMeta{}, errors.Wrap(err, errors.CategoryInternal, "failed to resolve client")
	}
	if !exists {
		return nil, PageMeta{}, ErrClientNotFound.WithMetadata(map[string]any{
			"id": clientID.String(),
		})
	}

	q.ClientID = clientID
	return a.ListProjects(ctx, q)
}

// CountOpenForClient counts pending and in-progress projects, the ones
// that block client deactivation.
func (a *projects) CountOpenForClient(ctx context.Context, clientID uuid.UUID) (int, error) {
	count, err := a.db.NewSelect().
		Model((*Project)(nil)).
		Where("?TableAlias.client_id = ?", clientID).
		Where("?TableAlias.status IN (?)", bun.In(OpenProjectStatuses)).
		Count(ctx)

	if err != nil {
		return 0, errors.Wrap(err, errors.CategoryInternal, "failed to count open projects")
	}

	return count, nil
}

// StatsOverview aggregates project counts and budget figures.
func (a *projects) StatsOverview(ctx context.Context) (*ProjectStats, error) {
	rows := []struct {
		Status string  `bun:"status"`
		Count  int     `bun:"count"`
		Budget float64 `bun:"budget"`
	}{}

	err := a.db.NewSelect().
		Model((*Project)(nil)).
		ColumnExpr("?TableAlias.status AS status").
		ColumnExpr("count(*) AS count").
		ColumnExpr("coalesce(sum(?TableAlias.budget), 0) AS budget").
		Group("status").
		Scan(ctx, &rows)

	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to aggregate project stats")
	}

	stats := &ProjectStats{
		ByStatus: map[string]ProjectStatusStats{
			ProjectStatusPending:    {},
			ProjectStatusInProgress: {},
			ProjectStatusCompleted:  {},
		},
	}

	for _, row := range rows {
		bucket := ProjectStatusStats{
			Count:       row.Count,
			TotalBudget: roundCents(row.Budget),
		}
		if row.Count > 0 {
			bucket.AverageBudget = math.Round(row.Budget / float64(row.Count))
		}
		stats.ByStatus[row.Status] = bucket
		stats.Total += row.Count
		stats.TotalBudget += row.Budget
	}

	if stats.Total > 0 {
		stats.AverageBudget = roundCents(stats.TotalBudget / float64(stats.Total))
	}
	stats.TotalBudget = roundCents(stats.TotalBudget)

	return stats, nil
}

func (a *projects) ensureClientAcceptsProjects(ctx context.Context, clientID uuid.UUID) error {
	client := &Client{}

	err := a.db.NewSelect().
		Model(client).
		Column("id", "status").
		Where("?TableAlias.id = ?", clientID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrClientNotFound.WithMetadata(map[string]any{
				"id": clientID.String(),
			})
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to resolve client")
	}

	if !client.IsActive() {
		return ErrClientInactive.WithMetadata(map[string]any{
			"client_id": clientID.String(),
		})
	}

	return nil
}

func (a *projects) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	sink := normalizeActivitySink(a.activitySink)
	// best effort, failures are not surfaced to the caller
	_ = sink.Record(ctx, event)
}

func prepareProjectDefaults(record *Project) {
	if record == nil {
		return
	}

	if record.Status == "" {
		record.Status = ProjectStatusPending
	}

	record.Title = strings.TrimSpace(record.Title)
	record.Description = strings.TrimSpace(record.Description)

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
