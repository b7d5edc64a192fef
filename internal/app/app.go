package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/calsync/internal/config"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Application runs syncs on a schedule and, when enabled, serves the HTTP trigger.
type Application struct {
	cfg       config.Application
	deps      *Dependencies
	scheduler *cron.Cron
	srv       *http.Server
}

func NewApplication(cfg config.Application, deps *Dependencies) (*Application, error) {
	location, err := cfg.Sync.Location()
	if err != nil {
		return nil, err
	}
	cronLogger := cron.PrintfLogger(log.StandardLogger())
	scheduler := cron.New(
		cron.WithLocation(location),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	a := &Application{cfg: cfg, deps: deps, scheduler: scheduler}

	if cfg.Server.Enabled {
		r := mux.NewRouter()
		SetupMiddleware(r)
		RegisterRoutes(r, deps)
		a.srv = &http.Server{
			Handler:      r,
			Addr:         cfg.Server.Addr,
			WriteTimeout: 2 * time.Minute,
			ReadTimeout:  15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
	}
	return a, nil
}

// Run syncs once, then keeps syncing on the configured schedule until ctx is done.
func (a *Application) Run(ctx context.Context) error {
	_, err := a.scheduler.AddFunc(a.cfg.Schedule, func() {
		// Outcomes are logged by the run subscribers.
		_, _ = a.deps.SyncJob.Run(ctx, false)
	})
	if err != nil {
		return err
	}

	serverErr := make(chan error, 1)
	if a.srv != nil {
		go func() {
			log.Infof("Starting server on %s", a.srv.Addr)
			if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
	}

	_, _ = a.deps.SyncJob.Run(ctx, false)
	log.Infof("Scheduling syncs with %q", a.cfg.Schedule)
	a.scheduler.Start()

	select {
	case <-ctx.Done():
	case err = <-serverErr:
	}
	return errors.Join(err, a.shutdown())
}

func (a *Application) shutdown() error {
	log.Info("Shutting down")
	<-a.scheduler.Stop().Done()
	if a.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return a.srv.Shutdown(ctx)
}
