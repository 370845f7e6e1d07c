package main

import (
	"context"
	"database/sql"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	gconfig "github.com/goliatone/go-config/config"
	crm "github.com/goliatone/go-crm"
	"github.com/goliatone/go-crm/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type App struct {
	config *gconfig.Container[*config.BaseConfig]
	bunDB  *bun.DB
	auth   crm.Authenticator
	auther *crm.RouteAuthenticator
	repo   crm.RepositoryManager
	srv    router.Server[*fiber.App]
	logger *glog.BaseLogger
}

func (a *App) Config() *config.BaseConfig {
	return a.config.Raw()
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Info),
		glog.WithName("crm"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := gconfig.New(&config.BaseConfig{}).
		WithLogger(lgr.GetLogger("config"))

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		panic(err)
	}

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPAuth(ctx, app); err != nil {
		panic(err)
	}

	RegisterRoutes(app)

	app.srv.Serve(app.Config().GetServer().GetAddr())

	WaitExitSignal()

	if app.bunDB != nil {
		app.bunDB.Close()
	}
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := sql.Open(sqliteshim.ShimName, app.Config().GetPersistence().GetDSN())
	if err != nil {
		log.Fatal(err)
		return err
	}

	persistence.RegisterModel((*crm.User)(nil))
	persistence.RegisterModel((*crm.Client)(nil))
	persistence.RegisterModel((*crm.Project)(nil))

	pcfg := app.Config().GetPersistence()
	dialect := sqlitedialect.New()
	client, err := persistence.New(pcfg, db, dialect)
	if err != nil {
		log.Fatal(err)
		return err
	}

	client.SetLogger(app.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(crm.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}
	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)
	if err := client.ValidateDialects(ctx); err != nil {
		return err
	}

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	app.bunDB = client.DB()
	app.repo = crm.NewRepositoryManager(client.DB(),
		crm.WithManagerActivitySink(activityLogger(app.GetLogger("activity"))),
	)

	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	app.srv = srv

	return nil
}

func WithHTTPAuth(ctx context.Context, app *App) error {
	cfg := app.Config().GetAuth()

	if err := app.repo.Validate(); err != nil {
		return err
	}

	userProvider := crm.NewUserProvider(app.repo.Users())
	userProvider.WithLogger(app.GetLogger("auth:prv"))

	authenticator := crm.NewAuthenticator(userProvider, cfg).
		WithLogger(app.GetLogger("auth")).
		WithActivitySink(activityLogger(app.GetLogger("activity")))

	app.auth = authenticator

	httpAuth, err := crm.NewHTTPAuthenticator(authenticator, cfg)
	if err != nil {
		return err
	}
	httpAuth.WithLogger(app.GetLogger("auth:http"))

	app.auther = httpAuth

	return nil
}

func RegisterRoutes(app *App) {
	r := app.srv.Router()
	cfg := app.Config().GetAuth()

	crm.RegisterAuthRoutes(r,
		crm.WithAuthRepo(app.repo),
		crm.WithAuthAuthenticator(app.auther),
		crm.WithAuthLogger(app.GetLogger("auth:ctrl")),
	)

	protected := app.auther.ProtectedRoute(cfg, app.auther.MakeAPIAuthErrorHandler())
	adminOnly := app.auther.RequireRole(crm.RoleAdmin)

	clientsController := crm.NewClientsController(app.repo, app.GetLogger("clients"))
	crm.RegisterClientRoutes(r, clientsController, protected, adminOnly)

	projectsController := crm.NewProjectsController(app.repo, app.GetLogger("projects"))
	crm.RegisterProjectRoutes(r, projectsController, protected)
}

// activityLogger forwards audit events into the structured log stream.
func activityLogger(lgr glog.Logger) crm.ActivitySink {
	return crm.ActivitySinkFunc(func(ctx context.Context, event crm.ActivityEvent) error {
		lgr.Info("activity",
			"event", string(event.EventType),
			"actor_id", event.Actor.ID,
			"actor_type", event.Actor.Type,
			"entity_id", event.EntityID,
			"from", event.FromStatus,
			"to", event.ToStatus,
		)
		return nil
	})
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
