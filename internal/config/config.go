package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const DefaultPath = "./config/calsync.yaml"

type Application struct {
	Schedule string `koanf:"schedule"`
	Server   Server `koanf:"server"`
	Notion   Notion `koanf:"notion"`
	Google   Google `koanf:"google"`
	Sync     Sync   `koanf:"sync"`
}

type Server struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

type Notion struct {
	Token      string           `koanf:"token"`
	DatabaseId string           `koanf:"databaseid"`
	BaseUrl    string           `koanf:"baseurl"`
	Properties NotionProperties `koanf:"properties"`
}

// NotionProperties maps record fields to the property names of the Notion database.
type NotionProperties struct {
	Title       string `koanf:"title"`
	Date        string `koanf:"date"`
	Tags        string `koanf:"tags"`
	Description string `koanf:"description"`
	Link        string `koanf:"link"`
}

type Google struct {
	CalendarId      string `koanf:"calendarid"`
	CredentialsFile string `koanf:"credentialsfile"`
	ClientId        string `koanf:"clientid"`
	ClientSecret    string `koanf:"clientsecret"`
	RefreshToken    string `koanf:"refreshtoken"`
	MaxRetries      int    `koanf:"maxretries"`
}

type Sync struct {
	TimeZone  string `koanf:"timezone"`
	UtcOffset string `koanf:"utcoffset"`
	DayStart  string `koanf:"daystart"`
	DayEnd    string `koanf:"dayend"`
	Separator string `koanf:"separator"`
	Workers   int    `koanf:"workers"`
	DryRun    bool   `koanf:"dryrun"`
}

func Defaults() Application {
	return Application{
		Schedule: "*/15 * * * *",
		Server: Server{
			Enabled: false,
			Addr:    ":8181",
		},
		Notion: Notion{
			BaseUrl: "https://api.notion.com/v1",
			Properties: NotionProperties{
				Title:       "Name",
				Date:        "Date",
				Tags:        "Event Type",
				Description: "Description",
				Link:        "Meeting Link",
			},
		},
		Google: Google{
			MaxRetries: 3,
		},
		Sync: Sync{
			TimeZone:  "America/Chicago",
			UtcOffset: "-06:00",
			DayStart:  "19:00",
			DayEnd:    "20:00",
			Separator: "- ",
			Workers:   4,
		},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "CALSYNC_",
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "CALSYNC_")), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	if err := app.Sync.Validate(); err != nil {
		return Application{}, err
	}

	return app, nil
}

// Validate checks the values the normalizer depends on.
func (s Sync) Validate() error {
	if _, err := s.Location(); err != nil {
		return err
	}
	if _, err := ParseClock(s.DayStart); err != nil {
		return fmt.Errorf("invalid sync.daystart: %w", err)
	}
	if _, err := ParseClock(s.DayEnd); err != nil {
		return fmt.Errorf("invalid sync.dayend: %w", err)
	}
	if s.Workers < 1 {
		return fmt.Errorf("invalid sync.workers: %d, must be at least 1", s.Workers)
	}
	return nil
}

// Location returns a fixed zone for the configured UTC offset, e.g. "-06:00".
func (s Sync) Location() (*time.Location, error) {
	offset, err := time.Parse("-07:00", s.UtcOffset)
	if err != nil {
		return nil, fmt.Errorf("invalid sync.utcoffset %q: %w", s.UtcOffset, err)
	}
	_, seconds := offset.Zone()
	return time.FixedZone(s.UtcOffset, seconds), nil
}

// ParseClock parses a wall-clock time such as "19:00" into an offset from midnight.
func ParseClock(value string) (time.Duration, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
