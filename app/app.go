package app

import (
	"context"

	"log/slog"

	"github.com/lessonlane/studio-manager/config"
	httpapi "github.com/lessonlane/studio-manager/internal/api/http"
	"github.com/lessonlane/studio-manager/internal/apisrv/admin"
	"github.com/lessonlane/studio-manager/internal/dependency"
	"github.com/lessonlane/studio-manager/internal/leads"
	"github.com/lessonlane/studio-manager/internal/mail"
	"github.com/lessonlane/studio-manager/internal/store"
	"github.com/lessonlane/studio-manager/internal/sweeper"
)

// App is the main application
type App struct {
	hs      *httpapi.Server
	db      dependency.Repository
	mailer  dependency.Mailer
	sweeper *sweeper.Worker
	c       *config.Config
	done    chan struct{}
}

// New returns a new instance of App
func New(c *config.Config) *App {
	return &App{
		c:    c,
		done: make(chan struct{}),
	}
}

// Start starts the app
func (a *App) Start(ctx context.Context) error {
	var err error
	slog.Default().InfoContext(ctx, "starting studio manager")

	a.db, err = store.New(ctx, a.c.DB)
	if err != nil {
		slog.Default().ErrorContext(ctx, "couldn't connect to mysql",
			slog.String("err", err.Error()),
		)
		return err
	}

	a.mailer, err = mail.New(&a.c.Mailer, a.db.Mail())
	if err != nil {
		slog.Default().ErrorContext(ctx, "failed to create mailer",
			slog.String("err", err.Error()),
		)
		return err
	}
	if err := a.mailer.Start(ctx); err != nil {
		return err
	}

	a.sweeper = sweeper.New(&a.c.Sweeper, a.db)
	if err := a.sweeper.Start(ctx); err != nil {
		return err
	}

	leadNotifier := leads.New(&a.c.Leads)
	adminS := admin.New(a.db, a.mailer, leadNotifier)

	a.hs = httpapi.New(&a.c.HTTP)
	if err := a.hs.Start(ctx, adminS); err != nil {
		slog.Default().ErrorContext(ctx, "cannot start http server",
			slog.String("err", err.Error()),
		)
		return err
	}

	return nil
}

// Stop stops the application and waits for all services to exit
func (a *App) Stop(ctx context.Context) {
	if a.hs != nil {
		if err := a.hs.Stop(ctx); err != nil {
			slog.Default().ErrorContext(ctx, "can't stop http server",
				slog.String("err", err.Error()),
			)
		}
	}
	if a.sweeper != nil {
		_ = a.sweeper.Stop()
	}
	if a.mailer != nil {
		_ = a.mailer.Stop()
	}
	if a.db != nil {
		a.db.Close()
	}
	close(a.done)
}

// Done returns a channel that is closed after the application has exited
func (a *App) Done() chan struct{} {
	return a.done
}
