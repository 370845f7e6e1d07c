package crm

import (
	"net/http"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// ClientsController serves the client registry endpoints.
type ClientsController struct {
	Logger Logger
	Repo   RepositoryManager
}

func NewClientsController(repo RepositoryManager, logger Logger) *ClientsController {
	if logger == nil {
		logger = defLogger{}
	}
	return &ClientsController{
		Logger: logger,
		Repo:   repo,
	}
}

// RegisterClientRoutes mounts the client endpoints. Every route sits
// behind the token middleware; mutating the registry itself requires
// the admin role.
func RegisterClientRoutes(app RouteRegistrar, c *ClientsController, protect router.MiddlewareFunc, adminOnly router.MiddlewareFunc) {
	app.Post("/clients", c.Create, protect, adminOnly)
	app.Get("/clients", c.List, protect)
	app.Get("/clients/:id", c.Show, protect)
	app.Put("/clients/:id", c.Update, protect, adminOnly)
	app.Delete("/clients/:id", c.Deactivate, protect, adminOnly)
	app.Post("/clients/:id/reactivate", c.Reactivate, protect, adminOnly)
	app.Get("/clients/:id/projects", c.ListProjects, protect)
}

// RegisterClientPayload is the client signup payload. Status is
// optional and defaults to active.
type RegisterClientPayload struct {
	Name    string `form:"name" json:"name"`
	Email   string `form:"email" json:"email"`
	Phone   string `form:"phone" json:"phone"`
	Company string `form:"company" json:"company"`
	Address string `form:"address" json:"address"`
	Status  string `form:"status" json:"status"`
}

// Validate will run validation rules
func (r RegisterClientPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.Required, PhoneRule),
		validation.Field(&r.Company, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Address, validation.Length(0, 200)),
		validation.Field(&r.Status, ValidateClientStatus),
	)
}

func (c *ClientsController) Create(ctx router.Context) error {
	payload := new(RegisterClientPayload)

	if err := ctx.Bind(payload); err != nil {
		return RespondError(ctx, c.Logger, errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body"))
	}

	if err := errors.ValidateWithOzzo(payload.Validate, "invalid client payload"); err != nil {
		return RespondError(ctx, c.Logger, err)
	}

	var created *Client
	handler := NewRegisterClientHandler(c.Repo)
	msg := RegisterClientMessage{
		Name:       payload.Name,
		Email:      payload.Email,
		Phone:      payload.Phone,
		Company:    payload.Company,
		Address:    payload.Address,
		Status:     payload.Status,
		UseHashid:  true,
		OnResponse: func(record *Client) { created = record },
	}

	if err := handler.Execute(ctx.Context(), msg); err != nil {
		return RespondError(ctx, c.Logger, err)
	}

	return respondSuccess(ctx, http.StatusCreated, NewClientRecord(created))
}

func (c *ClientsController) List(ctx router.Context) error {
	query := clientQueryFromRequest(ctx)

	records, meta, err := c.Repo.Clients().ListClients(ctx.Context(), query)
	if err != nil {
		return RespondError(ctx, c.Logger, err)
	}

	return respondList(ctx, NewClientRecords(records), meta)
}

func (c *ClientsController) Show(ctx router.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return RespondError(ctx, c.Logger, err)
	}

	record, err := c.Repo.Clients().GetWithProjects(ctx.Context(), id)
	if err != nil {
		return RespondError(ctx, c.Logger, err)
	}

	return respondSuccess(ctx, http.StatusOK, NewClientRecord(record))
}

// UpdateClientPayload is the partial update payload. Only set fields
// are validated and applied.
type UpdateClientPayload struct {
	Name    *string `form:"name" json:"name"`
	Email   *string `form:"email" json:"email"`
	Phone   *string `form:"phone" json:"phone"`
	Company *string `form:"company" json:"company"`
	Address *string `form:"address" json:"address"`
}

// Validate will run validation rules on the set fields.
func (r UpdateClientPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.NilOrNotEmpty, is.Email),
		validation.Field(&r.Phone, validation.NilOrNotEmpty, PhoneRule),
		validation.Field(&r.Company, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&r.Address, validation.Length(0, 200)),
	)
}

func (r UpdateClientPayload) patch() ClientPatch {
	return ClientPatch{
		Name:    r.Name,
		Email:   r.Email,
		Phone:   r.Phone,
		Company: r.Company,
		Address: r.Address,
	}
}

func (c *ClientsController) Update(ctx router.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return RespondError(ctx, c.Logger, err)
	}

	payload := new(UpdateClientPayload)
	if err := ctx.Bind(payload); err != nil {
		return RespondError(ctx, c.Logger, errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body"))
	}

	if err := errors.ValidateWithOzzo(payload.Validate, "invalid client payload"); err != nil {
		return RespondError(ctx, c.Logger, err)
	}

	record, err := c.Repo.Clients().UpdateClient(ctx.Context(), id, payload.patch())
	if err != nil {
		return RespondError(ctx, c.Logger, err)
	}

	return respondSuccess(ctx, http.StatusOK, NewClientRecord(record))
}

// Deactivate handles DELETE on a client. The record is kept and moved
// to inactive; open projects block the transition.
func (c *ClientsController) Deactivate(ctx router.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return RespondError(ctx, c.Logger, err)
	}

	actor, _ := ActorFromRouterContext(ctx, "")

	var updated *Client
	handler := NewDeactivateClientHandler(c.Repo)
	msg := DeactivateClientMessage{
		ClientID:   id,
		Actor:      ActorRef{ID: actor.ActorID, Type: "user", Role: actor.Role},
		OnResponse: func(record *Client) { updated = record },
	}

	if err := handler.Execute(ctx.Context(), msg); err != nil {
		return RespondError(ctx, c.Logger, err)
	}

	return respondSuccess(ctx, http.StatusOK, NewClientRecord(updated))
}

func (c *ClientsController) Reactivate(ctx router.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return RespondError(ctx, c.Logger, err)
	}

	record, err := c.Repo.Clients().GetClient(ctx.Context(), id)
	if err != nil {
		return RespondError(ctx, c.Logger, err)
	}

	actor, _ := ActorFromRouterContext(ctx, "")

	updated, err := c.Repo.Clients().Reactivate(ctx.Context(),
		ActorRef{ID: actor.ActorID, Type: "user", Role: actor.Role},
		record,
	)
	if err != nil {
		return RespondError(ctx, c.Logger, err)
	}

	return respondSuccess(ctx, http.StatusOK, NewClientRecord(updated))
}

// ListProjects lists a client's projects. A missing client is a 404
// even when the page would be empty.
func (c *ClientsController) ListProjects(ctx router.Context) error {
	id, err := parseIDParam(ctx)
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

func parseIDParam(ctx router.Context) (uuid.UUID, error) {
	return parseUUIDParam(ctx, "id")
}

func parseUUIDParam(ctx router.Context, name string) (uuid.UUID, error) {
	raw := ctx.Param(name)

	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, errors.New("invalid id, expected a UUID", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest).
			WithMetadata(map[string]any{name: raw})
	}

	return id, nil
}

func paginationFromRequest(ctx router.Context) Pagination {
	page, _ := strconv.Atoi(ctx.Query("page", strconv.Itoa(DefaultPage)))
	limit, _ := strconv.Atoi(ctx.Query("limit", strconv.Itoa(DefaultLimit)))

	return Pagination{Page: page, Limit: limit}.Normalize()
}

func clientQueryFromRequest(ctx router.Context) ClientQuery {
	return ClientQuery{
		Status:     ctx.Query("status", ""),
		Search:     ctx.Query("search", ""),
		SortBy:     querySortBy(ctx),
		Order:      querySortOrder(ctx),
		Pagination: paginationFromRequest(ctx),
	}
}

// querySortBy and querySortOrder accept both snake_case and camelCase
// parameter spellings.
func querySortBy(ctx router.Context) string {
	if v := ctx.Query("sort_by", ""); v != "" {
		return v
	}
	return ctx.Query("sortBy", "")
}

func querySortOrder(ctx router.Context) SortOrder {
	raw := ctx.Query("order", "")
	if raw == "" {
		raw = ctx.Query("sortOrder", "")
	}
	return ParseSortOrder(raw)
}
