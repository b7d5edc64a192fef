package notion

import (
	"context"
	"fmt"
	"time"

	"github.com/klokku/calsync/internal/config"
	"github.com/klokku/calsync/internal/utils"
	"github.com/klokku/calsync/pkg/planner"
	log "github.com/sirupsen/logrus"
)

const pageSize = 100

// Provider reads upcoming planner records from a Notion database.
type Provider struct {
	client     Client
	databaseId string
	properties config.NotionProperties
	clock      utils.Clock
	location   *time.Location
}

func NewProvider(client Client, cfg config.Notion, clock utils.Clock, location *time.Location) *Provider {
	return &Provider{
		client:     client,
		databaseId: cfg.DatabaseId,
		properties: cfg.Properties,
		clock:      clock,
		location:   location,
	}
}

// ListRecords returns every titled, tagged record dated today or later.
func (p *Provider) ListRecords(ctx context.Context) ([]planner.Record, error) {
	today := utils.StartOfDay(p.clock.Now(), p.location).Format(time.DateOnly)
	query := DatabaseQuery{
		Filter:   p.filter(today),
		PageSize: pageSize,
	}

	var records []planner.Record
	for {
		response, err := p.client.QueryDatabase(ctx, p.databaseId, query)
		if err != nil {
			return nil, fmt.Errorf("failed to list Notion records: %w", err)
		}
		for _, page := range response.Results {
			if page.Archived || page.InTrash {
				continue
			}
			records = append(records, p.toRecord(page))
		}
		if !response.HasMore || response.NextCursor == nil {
			break
		}
		query.StartCursor = *response.NextCursor
	}

	log.Debugf("Retrieved %d records from Notion database %s", len(records), p.databaseId)
	return records, nil
}

func (p *Provider) filter(today string) *Filter {
	return &Filter{
		And: []Filter{
			{Property: p.properties.Title, Title: &TextCondition{IsNotEmpty: true}},
			{Property: p.properties.Tags, MultiSelect: &SelectCondition{IsNotEmpty: true}},
			{Property: p.properties.Date, Date: &DateCondition{OnOrAfter: today}},
		},
	}
}

func (p *Provider) toRecord(page Page) planner.Record {
	record := planner.Record{
		Id:           planner.SanitizeId(page.Id),
		Title:        page.Properties[p.properties.Title].Text(),
		CategoryTags: page.Properties[p.properties.Tags].Names(),
		Description:  page.Properties[p.properties.Description].Text(),
		ExternalLink: link(page.Properties[p.properties.Link]),
	}
	if date := page.Properties[p.properties.Date].Date; date != nil {
		record.Start = withTimeZone(date.Start, date.TimeZone)
		if date.End != nil {
			record.End = withTimeZone(*date.End, date.TimeZone)
		}
	}
	return record
}

func link(property Property) string {
	if property.Url != nil {
		return *property.Url
	}
	return property.Text()
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// withTimeZone turns a date-time without offset into one carrying the offset of the zone
// Notion reported next to it. Date-only and offset-bearing values are returned as they are.
func withTimeZone(value string, timeZone *string) string {
	if timeZone == nil || *timeZone == "" || len(value) == len(time.DateOnly) {
		return value
	}
	if _, err := time.Parse(time.RFC3339, value); err == nil {
		return value
	}
	location, err := time.LoadLocation(*timeZone)
	if err != nil {
		log.Warnf("Unknown Notion time zone %q, keeping %s as is", *timeZone, value)
		return value
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, location); err == nil {
			return t.Format(time.RFC3339)
		}
	}
	return value
}
