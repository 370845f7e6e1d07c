package crm

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	Clients() Clients
	Projects() Projects
}

type mngr struct {
	db       *bun.DB
	users    Users
	clients  Clients
	projects Projects
}

// ManagerOption customizes repository construction.
type ManagerOption func(*mngr)

// WithManagerActivitySink fans the sink out to every repository that
// publishes activity events.
func WithManagerActivitySink(sink ActivitySink) ManagerOption {
	return func(m *mngr) {
		sink = normalizeActivitySink(sink)
		m.projects = NewProjectsRepository(m.db, WithProjectsActivitySink(sink))
		m.clients = NewClientsRepository(m.db,
			WithClientsActivitySink(sink),
			WithClientsStateMachineOptions(
				WithStateMachineActivitySink(sink),
				WithOpenProjectCounter(m.projects),
			),
		)
	}
}

func NewRepositoryManager(db *bun.DB, opts ...ManagerOption) RepositoryManager {
	m := &mngr{
		db:    db,
		users: NewUsersRepository(db),
	}

	m.projects = NewProjectsRepository(db)
	m.clients = NewClientsRepository(db,
		WithClientsStateMachineOptions(WithOpenProjectCounter(m.projects)),
	)

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.clients == nil {
		return errors.New("repository clients should be initialized")
	}

	if m.projects == nil {
		return errors.New("repository projects should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Clients() Clients {
	return m.clients
}

func (m mngr) Projects() Projects {
	return m.projects
}
