package notion

import "strings"

// Page is a row of a Notion database.
type Page struct {
	Id         string              `json:"id"`
	Archived   bool                `json:"archived"`
	InTrash    bool                `json:"in_trash"`
	Properties map[string]Property `json:"properties"`
}

// Property holds the value of one database column. Only the field matching Type is set.
type Property struct {
	Type        string         `json:"type"`
	Title       []RichText     `json:"title,omitempty"`
	RichText    []RichText     `json:"rich_text,omitempty"`
	MultiSelect []SelectOption `json:"multi_select,omitempty"`
	Select      *SelectOption  `json:"select,omitempty"`
	Date        *DateValue     `json:"date,omitempty"`
	Url         *string        `json:"url,omitempty"`
}

type RichText struct {
	PlainText string `json:"plain_text"`
}

type SelectOption struct {
	Id   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// DateValue keeps the raw text Notion returns. A date-only value has no time part.
type DateValue struct {
	Start    string  `json:"start"`
	End      *string `json:"end"`
	TimeZone *string `json:"time_zone"`
}

// Text returns the concatenated plain text of a title or rich text property.
func (p Property) Text() string {
	parts := p.Title
	if p.Type == "rich_text" {
		parts = p.RichText
	}
	var sb strings.Builder
	for _, part := range parts {
		sb.WriteString(part.PlainText)
	}
	return sb.String()
}

// Names returns the selected option names in the order Notion lists them.
func (p Property) Names() []string {
	if p.Select != nil {
		return []string{p.Select.Name}
	}
	names := make([]string, 0, len(p.MultiSelect))
	for _, option := range p.MultiSelect {
		names = append(names, option.Name)
	}
	return names
}

type DatabaseQuery struct {
	Filter      *Filter `json:"filter,omitempty"`
	StartCursor string  `json:"start_cursor,omitempty"`
	PageSize    int     `json:"page_size,omitempty"`
}

// Filter is either a compound filter (And) or a property filter.
type Filter struct {
	And         []Filter         `json:"and,omitempty"`
	Property    string           `json:"property,omitempty"`
	Title       *TextCondition   `json:"title,omitempty"`
	MultiSelect *SelectCondition `json:"multi_select,omitempty"`
	Date        *DateCondition   `json:"date,omitempty"`
}

type TextCondition struct {
	IsNotEmpty bool `json:"is_not_empty,omitempty"`
}

type SelectCondition struct {
	IsNotEmpty bool `json:"is_not_empty,omitempty"`
}

type DateCondition struct {
	OnOrAfter string `json:"on_or_after,omitempty"`
}

type QueryResponse struct {
	Results    []Page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}
