package crm

import (
	"net/http"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// ProjectsController serves the project registry endpoints.
type ProjectsController struct {
	Logger Logger
	Repo   RepositoryManager
}

func NewProjectsController(repo RepositoryManager, logger Logger) *ProjectsController {
	if logger == nil {
		logger = defLogger{}
	}
	return &ProjectsController{
		Logger: logger,
		Repo:   repo,
	}
}

// RegisterProjectRoutes mounts the project endpoints. The stats and
// client routes are registered before the :id routes so their literal
// segments never resolve as an id.
func RegisterProjectRoutes(app RouteRegistrar, c *ProjectsController, protect router.MiddlewareFunc) {
	app.Get("/projects/stats/overview", c.Stats, protect)
	app.Get("/projects/client/:clientId", c.ListForClient, protect)
	app.Post("/projects", c.Create, protect)
	app.Get("/projects", c.List, protect)
	app.Get("/projects/:id", c.Show, protect)
	app.Put("/projects/:id", c.Update, protect)
	app.Delete("/projects/:id", c.Delete, protect)
}

// CreateProjectPayload is the project creation payload. Dates travel as
// YYYY-MM-DD strings.
type CreateProjectPayload struct {
	Title       string  `form:"title" json:"title"`
	Description string  `form:"description" json:"description"`
	ClientID    string  `form:"client_id" json:"client_id"`
	Status      string  `form:"status" json:"status"`
	StartDate   string  `form:"start_date" json:"start_date"`
	EndDate     string  `form:"end_date" json:"end_date"`
	Budget      float64 `form:"budget" json:"budget"`
}

// Validate will run validation rules
func (r CreateProjectPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(2, 200)),
		validation.Field(&r.Description, validation.Required, validation.Length(10, 2000)),
		validation.Field(&r.ClientID, validation.Required, validation.By(ValidateUUIDString)),
		validation.Field(&r.Status, ValidateProjectStatus),
		validation.Field(&r.StartDate, validation.Required, validation.By(ValidateDateString)),
		validation.Field(&r.EndDate,
			validation.Required,
			validation.By(ValidateDateString),
			validation.By(ValidateDateAfter(r.StartDate)),
		),
		validation.Field(&r.Budget, validation.Min(0.0)),
	)
}

func (c *ProjectsController) Create(ctx router.Context) error {
	payload := new(CreateProjectPayload)

	if err := ctx.Bind(payload); err != nil {
		return RespondError(ctx, c.Logger, errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body"))
	}

	if err := errors.ValidateWithOzzo(payload.Validate, "invalid project payload"); err != nil {
		return RespondError(ctx, c.Logger, err)
	}

	actor, ok := ActorFromRouterContext(ctx, "")
	if !ok {
		return RespondError(ctx, c.Logger, ErrUnauthenticated)
	}

	creatorID, err := uuid.Parse(actor.ActorID)
	if err != nil {
		return RespondError(ctx, c.Logger, ErrUnauthenticated)
	}

	clientID, _ := uuid.Parse(payload.ClientID)
	startDate, _ := ParseDate(payload.StartDate)
	endDate, _ := ParseDate(payload.EndDate)

	record := &Project{
		Title:       payload.Title,
		Description: payload.Description,
		ClientID:    clientID,
		Status:      payload.Status,
		StartDate:   startDate,
		EndDate:     endDate,
		Budget:      payload.Budget,
		CreatedBy:   creatorID,
	}

	created, err := c.Repo.Projects().CreateProject(ctx.Context(),
		ActorRef{ID: actor.ActorID, Type: "user", Role: actor.Role},
		record,
	)
	if err != nil {
		return RespondError(ctx, c.Logger, err)
	}

	return respondSuccess(ctx, http.StatusCreated, NewProjectRecord(created))
}

func (c *ProjectsController) List(ctx router.Context) error {
	query := projectQueryFromRequest(ctx)

	records, meta, err := c.Repo.Projects().ListProjects(ctx.Context(), query)
	if err != nil {
		return RespondError(ctx, c.Logger, err)
	}

	return respondList(ctx, NewProjectRecords(records), meta)
}

func (c *ProjectsController) Show(ctx router.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return RespondError(ctx, c.Logger, err)
	}

	record, err := c.Repo.Projects().GetProject(ctx.Context(), id)
	if err != nil {
		return RespondError(ctx, c.Logger, err)
	}

	return respondSuccess(ctx, http.StatusOK, NewProjectRecord(record))
}

// UpdateProjectPayload is the partial update payload. Only set fields
// are validated and applied.
type UpdateProjectPayload struct {
	Title       *string  `form:"title" json:"title"`
	Description *string  `form:"description" json:"description"`
	ClientID    *string  `form:"client_id" json:"client_id"`
	Status      *string  `form:"status" json:"status"`
	StartDate   *string  `form:"start_date" json:"start_date"`
	EndDate     *string  `form:"end_date" json:"end_date"`
	Budget      *float64 `form:"budget" json:"budget"`
}

// Validate will run validation rules on the set fields.
func (r UpdateProjectPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(2, 200)),
		validation.Field(&r.Description, validation.NilOrNotEmpty, validation.Length(10, 2000)),
		validation.Field(&r.ClientID, validation.NilOrNotEmpty, validation.By(ValidateUUIDString)),
		validation.Field(&r.Status, ValidateProjectStatus),
		validation.Field(&r.StartDate, validation.By(ValidateDateString)),
		validation.Field(&r.EndDate, validation.By(ValidateDateString)),
		validation.Field(&r.Budget, validation.Min(0.0)),
	)
}

func (r UpdateProjectPayload) patch() (ProjectPatch, error) {
	patch := ProjectPatch{
		Title:       r.Title,
		Description: r.Description,
		Budget:      r.Budget,
	}

	if r.ClientID != nil {
		id, err := uuid.Parse(*r.ClientID)
		if err != nil {
			return patch, errors.New("client_id must be a valid UUID", errors.CategoryValidation).
				WithCode(errors.CodeBadRequest)
		}
		patch.ClientID = &id
	}

	if r.Status != nil {
		status := *r.Status
		patch.Status = &status
	}

	if r.StartDate != nil {
		t, err := ParseDate(*r.StartDate)
		if err != nil {
			return patch, errors.New("start_date must be a date in YYYY-MM-DD format", errors.CategoryValidation).
				WithCode(errors.CodeBadRequest)
		}
		patch.StartDate = &t
	}

	if r.EndDate != nil {
		t, err := ParseDate(*r.EndDate)
		if err != nil {
			return patch, errors.New("end_date must be a date in YYYY-MM-DD format", errors.CategoryValidation).
				WithCode(errors.CodeBadRequest)
		}
		patch.EndDate = &t
	}

	return patch, nil
}

func (c *ProjectsController) Update(ctx router.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return RespondError(ctx, c.Logger, err)
	}

	payload := new(UpdateProjectPayload)
	if err := ctx.Bind(payload); err != nil {
		return RespondError(ctx, c.Logger, errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body"))
	}

	if err := errors.ValidateWithOzzo(payload.Validate, "invalid project payload"); err != nil {
		return RespondError(ctx, c.Logger, err)
	}

	patch, err := payload.patch()
	if err != nil {
		return RespondError(ctx, c.Logger, err)
	}

	record, err := c.Repo.Projects().UpdateProject(ctx.Context(), id, patch)
	if err != nil {
		return RespondError(ctx, c.Logger, err)
	}

	return respondSuccess(ctx, http.StatusOK, NewProjectRecord(record))
}

// Delete soft-deletes a project. Only the creator or an admin may
// delete; everyone authenticated may update.
func (c *ProjectsController) Delete(ctx router.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return RespondError(ctx, c.Logger, err)
	}

	actor, ok := ActorFromRouterContext(ctx, "")
	if !ok {
		return RespondError(ctx, c.Logger, ErrUnauthenticated)
	}

	if err := c.Repo.Projects().DeleteProject(ctx.Context(), actor, id); err != nil {
		return RespondError(ctx, c.Logger, err)
	}

	return respondMessage(ctx, http.StatusOK, "project deleted")
}

// ListForClient lists a client's projects. A missing client is a 404
// even when the page would be empty.
func (c *ProjectsController) ListForClient(ctx router.Context) error {
	id, err := parseUUIDParam(ctx, "clientId")
	if err != nil {
		return RespondError(ctx, c.Logger, err)
	}

	query := projectQueryFromRequest(ctx)

	records, meta, err := c.Repo.Projects().ListByClient(ctx.Context(), id, query)
	if err != nil {
		return RespondError(ctx, c.Logger, err)
	}

	return respondList(ctx, NewProjectRecords(records), meta)
}

func (c *ProjectsController) Stats(ctx router.Context) error {
	stats, err := c.Repo.Projects().StatsOverview(ctx.Context())
	if err != nil {
		return RespondError(ctx, c.Logger, err)
	}

	return respondSuccess(ctx, http.StatusOK, stats)
}

func projectQueryFromRequest(ctx router.Context) ProjectQuery {
	query := ProjectQuery{
		Status:     ctx.Query("status", ""),
		Search:     ctx.Query("search", ""),
		SortBy:     querySortBy(ctx),
		Order:      querySortOrder(ctx),
		Pagination: paginationFromRequest(ctx),
	}

	if raw := queryAlias(ctx, "client_id", "clientId"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			query.ClientID = id
		}
	}

	if raw := queryAlias(ctx, "start_from", "startDateFrom"); raw != "" {
		if t, err := ParseDate(raw); err == nil {
			query.StartFrom = &t
		}
	}

	if raw := queryAlias(ctx, "start_to", "startDateTo"); raw != "" {
		if t, err := ParseDate(raw); err == nil {
			query.StartTo = &t
		}
	}

	if raw := queryAlias(ctx, "end_from", "endDateFrom"); raw != "" {
		if t, err := ParseDate(raw); err == nil {
			query.EndFrom = &t
		}
	}

	if raw := queryAlias(ctx, "end_to", "endDateTo"); raw != "" {
		if t, err := ParseDate(raw); err == nil {
			query.EndTo = &t
		}
	}

	if raw := queryAlias(ctx, "min_budget", "budgetMin"); raw != "" {
		if v, err := parseFloat(raw); err == nil {
			query.MinBudget = &v
		}
	}

	if raw := queryAlias(ctx, "max_budget", "budgetMax"); raw != "" {
		if v, err := parseFloat(raw); err == nil {
			query.MaxBudget = &v
		}
	}

	return query
}

// queryAlias returns the first non-empty value among the given
// parameter spellings.
func queryAlias(ctx router.Context, names ...string) string {
	for _, name := range names {
		if v := ctx.Query(name, ""); v != "" {
			return v
		}
	}
	return ""
}

func parseFloat(raw string) (float64, error) {
	return strconv.ParseFloat(raw, 64)
}
