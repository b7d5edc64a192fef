package app

import (
	"context"

	"github.com/klokku/calsync/internal/config"
	"github.com/klokku/calsync/internal/event_bus"
	"github.com/klokku/calsync/internal/utils"
	"github.com/klokku/calsync/pkg/google"
	"github.com/klokku/calsync/pkg/notion"
	"github.com/klokku/calsync/pkg/sync_job"
	gcal "google.golang.org/api/calendar/v3"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus

	NotionClient   notion.Client
	NotionProvider *notion.Provider

	GoogleService  *gcal.Service
	GoogleCalendar *google.Calendar

	SyncJob     *sync_job.Job
	SyncHandler *sync_job.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(ctx context.Context, cfg config.Application) (*Dependencies, error) {
	deps := &Dependencies{}

	deps.Clock = &utils.SystemClock{}
	deps.EventBus = event_bus.NewEventBus()
	subscribeRunLogging(deps.EventBus)

	location, err := cfg.Sync.Location()
	if err != nil {
		return nil, err
	}

	notionClient, err := notion.NewClient(ctx, cfg.Notion)
	if err != nil {
		return nil, err
	}
	deps.NotionClient = notionClient
	deps.NotionProvider = notion.NewProvider(deps.NotionClient, cfg.Notion, deps.Clock, location)

	deps.GoogleService, err = google.NewCalendarService(ctx, cfg.Google)
	if err != nil {
		return nil, err
	}
	deps.GoogleCalendar = google.NewCalendar(deps.GoogleService, cfg.Google.CalendarId, cfg.Google.MaxRetries)

	deps.SyncJob, err = sync_job.NewJob(cfg.Sync, deps.Clock, deps.NotionProvider, deps.GoogleCalendar, deps.EventBus)
	if err != nil {
		return nil, err
	}
	deps.SyncHandler = sync_job.NewHandler(deps.SyncJob)

	return deps, nil
}
