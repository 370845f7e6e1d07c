package crm

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ClientPatch carries a partial client update. Nil fields are left
// untouched; at least one field must be set.
type ClientPatch struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Company *string `json:"company,omitempty"`
	Address *string `json:"address,omitempty"`
}

// HasChanges reports whether the patch sets at least one field.
func (p ClientPatch) HasChanges() bool {
	return p.Name != nil || p.Email != nil || p.Phone != nil ||
		p.Company != nil || p.Address != nil
}

func (p ClientPatch) apply(record *Client) {
	if p.Name != nil {
		record.Name = strings.TrimSpace(*p.Name)
	}
	if p.Email != nil {
		record.Email = NormalizeEmail(*p.Email)
	}
	if p.Phone != nil {
		record.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Company != nil {
		record.Company = strings.TrimSpace(*p.Company)
	}
	if p.Address != nil {
		record.Address = strings.TrimSpace(*p.Address)
	}
}

// Clients is the client registry. Clients are never hard-deleted;
// Deactivate is the terminal, reversible transition.
type Clients interface {
	repository.Repository[*Client]

	Register(ctx context.Context, client *Client) (*Client, error)
	RegisterTx(ctx context.Context, tx bun.IDB, client *Client) (*Client, error)
	UpdateClient(ctx context.Context, id uuid.UUID, patch ClientPatch) (*Client, error)
	GetClient(ctx context.Context, id uuid.UUID) (*Client, error)
	GetWithProjects(ctx context.Context, id uuid.UUID) (*Client, error)
	ListClients(ctx context.Context, q ClientQuery) ([]*Client, PageMeta, error)
	EmailInUse(ctx context.Context, email string, excludeID uuid.UUID) (bool, error)

	Deactivate(ctx context.Context, actor ActorRef, client *Client, opts ...TransitionOption) (*Client, error)
	Reactivate(ctx context.Context, actor ActorRef, client *Client, opts ...TransitionOption) (*Client, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status ClientStatus) (*Client, error)
}

type clients struct {
	repository.Repository[*Client]
	db                  *bun.DB
	activitySink        ActivitySink
	stateMachine        ClientStateMachine
	stateMachineOptions []StateMachineOption
}

var (
	_ Clients                        = (*clients)(nil)
	_ repository.Repository[*Client] = (*clients)(nil)
	_ ClientStatusStore              = (*clients)(nil)
)

type ClientsOption func(*clients)

// WithClientsActivitySink publishes registration events. Status
// transitions publish through the state machine sink instead.
func WithClientsActivitySink(sink ActivitySink) ClientsOption {
	return func(c *clients) {
		c.activitySink = normalizeActivitySink(sink)
	}
}

// WithClientsStateMachineOptions forwards options to the lazily built
// lifecycle machine.
func WithClientsStateMachineOptions(options ...StateMachineOption) ClientsOption {
	return func(c *clients) {
		if len(options) == 0 {
			return
		}
		c.stateMachineOptions = append(c.stateMachineOptions, options...)
		c.stateMachine = nil
	}
}

func WithClientsStateMachine(sm ClientStateMachine) ClientsOption {
	return func(c *clients) {
		c.stateMachine = sm
	}
}

func NewClientsRepository(db *bun.DB, opts ...ClientsOption) Clients {
	repo := repository.NewRepository[*Client](db, repository.ModelHandlers[*Client]{
		NewRecord: func() *Client { return &Client{} },
		GetID: func(c *Client) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *Client, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	repoClients := &clients{
		Repository:   repo,
		db:           db,
		activitySink: noopActivitySink{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repoClients)
		}
	}

	return repoClients
}

func (a *clients) Register(ctx context.Context, client *Client) (*Client, error) {
	return a.RegisterTx(ctx, a.db, client)
}

func (a *clients) RegisterTx(ctx context.Context, tx bun.IDB, client *Client) (*Client, error) {
	prepareClientDefaults(client)

	taken, err := a.emailInUseTx(ctx, tx, client.Email, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken.WithMetadata(map[string]any{
			"email": client.Email,
		})
	}

	created, err := a.Repository.CreateTx(ctx, tx, client)
	if err != nil {
		return nil, err
	}

	a.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventClientRegistered,
		EntityID:  created.ID.String(),
		ToStatus:  created.Status,
		Metadata: map[string]any{
			"email": created.Email,
		},
	})

	return created, nil
}

func (a *clients) GetClient(ctx context.Context, id uuid.UUID) (*Client, error) {
	record, err := a.Repository.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrClientNotFound.WithMetadata(map[string]any{
				"id": id.String(),
			})
		}
		return nil, err
	}
	return record, nil
}

// GetWithProjects loads the client and its projects, newest first.
func (a *clients) GetWithProjects(ctx context.Context, id uuid.UUID) (*Client, error) {
	record := &Client{}

	err := a.db.NewSelect().
		Model(record).
		Relation("Projects", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("created_at DESC")
		}).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrClientNotFound.WithMetadata(map[string]any{
				"id": id.String(),
			})
		}
		return nil, err
	}

	return record, nil
}

func (a *clients) UpdateClient(ctx context.Context, id uuid.UUID, patch ClientPatch) (*Client, error) {
	if !patch.HasChanges() {
		return nil, ErrEmptyPatch
	}

	record, err := a.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Email != nil {
		email := NormalizeEmail(*patch.Email)
		if email != record.Email {
			taken, err := a.EmailInUse(ctx, email, id)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, ErrEmailTaken.WithMetadata(map[string]any{
					"email": email,
				})
			}
		}
	}

	patch.apply(record)

	return a.Repository.UpdateTx(ctx, a.db, record, repository.UpdateByID(id.String()))
}

func (a *clients) ListClients(ctx context.Context, q ClientQuery) ([]*Client, PageMeta, error) {
	records := []*Client{}

	countQuery := a.db.NewSelect().Model((*Client)(nil))
	for _, c := range q.Filters() {
		countQuery = c(countQuery)
	}

	total, err := countQuery.Count(ctx)
	if err != nil {
		return nil, PageMeta{}, errors.Wrap(err, errors.CategoryInternal, "failed to count clients")
	}

	listQuery := a.db.NewSelect().Model(&records)
	if err := q.Apply(listQuery).Scan(ctx); err != nil {
		return nil, PageMeta{}, errors.Wrap(err, errors.CategoryInternal, "failed to list clients")
	}

	return records, NewPageMeta(q.Pagination, total), nil
}

func (a *clients) EmailInUse(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	return a.emailInUseTx(ctx, a.db, email, excludeID)
}

func (a *clients) emailInUseTx(ctx context.Context, tx bun.IDB, email string, excludeID uuid.UUID) (bool, error) {
	q := tx.NewSelect().
		Model((*Client)(nil)).
		Where("?TableAlias.email = ?", NormalizeEmail(email))

	if excludeID != uuid.Nil {
		q = q.Where("?TableAlias.id != ?", excludeID)
	}

	count, err := q.Count(ctx)
	if err != nil {
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to check email availability")
	}

	return count > 0, nil
}

func (a *clients) Deactivate(ctx context.Context, actor ActorRef, client *Client, opts ...TransitionOption) (*Client, error) {
	return a.lifecycleMachine().Transition(ctx, actor, client, ClientStatusInactive, opts...)
}

func (a *clients) Reactivate(ctx context.Context, actor ActorRef, client *Client, opts ...TransitionOption) (*Client, error) {
	return a.lifecycleMachine().Transition(ctx, actor, client, ClientStatusActive, opts...)
}

func (a *clients) UpdateStatus(ctx context.Context, id uuid.UUID, status ClientStatus) (*Client, error) {
	record := &Client{
		ID:     id,
		Status: status,
	}

	return a.Repository.UpdateTx(ctx, a.db, record, repository.UpdateByID(id.String()))
}

func (a *clients) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	sink := normalizeActivitySink(a.activitySink)
	// best effort, failures are not surfaced to the caller
	_ = sink.Record(ctx, event)
}

func (a *clients) lifecycleMachine() ClientStateMachine {
	if a.stateMachine == nil {
		a.stateMachine = NewClientStateMachine(a, a.stateMachineOptions...)
	}
	return a.stateMachine
}

func prepareClientDefaults(record *Client) {
	if record == nil {
		return
	}

	record.EnsureStatus()
	record.Email = NormalizeEmail(record.Email)
	record.Name = strings.TrimSpace(record.Name)
	record.Company = strings.TrimSpace(record.Company)

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
