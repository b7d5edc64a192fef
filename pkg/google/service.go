package google

import (
	"context"
	"fmt"
	"os"

	"github.com/klokku/calsync/internal/config"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

var ErrUnathenticated = fmt.Errorf("no Google credentials configured, set google.credentialsfile or google.refreshtoken")

type CalendarItem struct {
	ID      string
	Summary string
}

// NewCalendarService builds an authenticated Calendar API client. A service account key file
// takes precedence over an OAuth refresh token.
func NewCalendarService(ctx context.Context, cfg config.Google) (*gcal.Service, error) {
	tokenSource, err := tokenSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	service, err := gcal.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		err := fmt.Errorf("unable to retrieve Calendar client: %w", err)
		log.Error(err)
		return nil, err
	}
	return service, nil
}

func tokenSource(ctx context.Context, cfg config.Google) (oauth2.TokenSource, error) {
	switch {
	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("unable to read Google credentials file: %w", err)
		}
		jwtConfig, err := google.JWTConfigFromJSON(data, gcal.CalendarScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse Google service account credentials: %w", err)
		}
		log.Debugf("Using Google service account %s", jwtConfig.Email)
		return jwtConfig.TokenSource(ctx), nil
	case cfg.RefreshToken != "":
		oauthConfig := &oauth2.Config{
			ClientID:     cfg.ClientId,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{gcal.CalendarEventsScope, gcal.CalendarReadonlyScope},
		}
		log.Debug("Using Google OAuth refresh token")
		return oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken}), nil
	}
	return nil, ErrUnathenticated
}

// ListCalendars returns the calendars visible to the configured credentials.
func ListCalendars(ctx context.Context, service *gcal.Service) ([]CalendarItem, error) {
	calendars, err := service.CalendarList.List().Context(ctx).Do()
	if err != nil {
		err := fmt.Errorf("unable to retrieve calendars from Google Calendar: %w", err)
		log.Error(err)
		return nil, err
	}
	googleCalendars := make([]CalendarItem, 0, len(calendars.Items))
	for _, cal := range calendars.Items {
		googleCalendars = append(googleCalendars, CalendarItem{
			ID:      cal.Id,
			Summary: cal.Summary,
		})
	}
	return googleCalendars, nil
}
