package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/agnosto/dm-archiver/auth"
	"github.com/agnosto/dm-archiver/config"
	"github.com/agnosto/dm-archiver/core"
	"github.com/agnosto/dm-archiver/db"
	"github.com/agnosto/dm-archiver/headers"
	"github.com/agnosto/dm-archiver/logger"
	"github.com/agnosto/dm-archiver/notifications"
	"github.com/agnosto/dm-archiver/posts"
	"github.com/agnosto/dm-archiver/service"
	"golang.org/x/sync/errgroup"
)

var errShutdown = errors.New("shutdown requested")

// app holds the wired components of a running archiver.
type app struct {
	cfg       *config.Config
	store     *archiveStore
	client    *posts.Client
	archiver  *service.Archiver
	scheduler *service.Scheduler
}

// newApp wires the pipeline. Only configuration faults are returned: a
// database that cannot be opened or credentials that cannot be verified are
// logged, and every pass checks both again.
func newApp(ctx context.Context, cfg *config.Config, showProgress bool) (*app, error) {
	hour, minute, err := cfg.ScheduleClock()
	if err != nil {
		return nil, err
	}
	if _, err := db.ParseConnector(cfg.Database.Connector); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, store: newArchiveStore(cfg.Database.Connector)}
	httpClient := headers.NewSignedClient(ctx, cfg.Twitter)
	a.client = posts.NewClient(cfg.Twitter.APIBaseURL, httpClient, cfg.Options.RequestsPerSecond)

	var selfID string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.store.open(); err != nil {
			logger.Logger.Error().Err(err).Msg("database not ready, retrying at the next pass")
		}
		return nil
	})
	g.Go(func() error {
		account, err := auth.Login(gctx, a.client)
		switch {
		case err == nil:
			selfID = account.ID
			logger.Logger.Info().Str("account", account.ScreenName).Msg("credentials verified")
		case gctx.Err() != nil:
			return gctx.Err()
		default:
			logger.Logger.Error().Err(err).Msg("credential check failed, retrying at the next pass")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		a.Close()
		return nil, err
	}

	a.archiver = service.NewArchiver(
		a.client,
		a.client,
		a.store,
		a.store,
		core.NewLinkResolver(cfg.Options.PostHosts...),
		service.Options{
			PageSize:     cfg.Options.PageSize,
			MaxPages:     cfg.Options.MaxPages,
			ShowProgress: showProgress,
			SelfID:       selfID,
		},
	)
	a.archiver.SetVerifier(a.client)
	a.archiver.SetNotifier(notifications.NewNotificationService(cfg))
	a.scheduler = service.NewScheduler(a.archiver, hour, minute, cfg.Location(), cfg.Schedule.RunOnStart)
	return a, nil
}

// serve runs the scheduler until ctx is done or the process is signalled.
func (a *app) serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.scheduler.Run(gctx)
	})
	g.Go(func() error {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(signals)

		select {
		case sig := <-signals:
			logger.Logger.Info().Str("signal", sig.String()).Msg("received signal, shutting down")
			return errShutdown
		case <-gctx.Done():
			return nil
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logger.Logger.Warn().Err(err).Msg("failed to close database")
	}
}
