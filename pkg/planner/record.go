package planner

import (
	"context"
	"strings"
)

// Record is one entry of the planning table, already reduced to the fields the sync needs.
type Record struct {
	Id           string
	Title        string
	CategoryTags []string
	Description  string
	// Start and End hold the raw date or date-time text of the source. An empty End (or "None")
	// means the entry has no explicit end.
	Start        string
	End          string
	ExternalLink string
}

type Provider interface {
	ListRecords(ctx context.Context) ([]Record, error)
}

// SanitizeId turns a source id into one the calendar accepts. Google event ids may not contain
// dashes, so every dash becomes "1".
func SanitizeId(id string) string {
	return strings.ReplaceAll(id, "-", "1")
}
