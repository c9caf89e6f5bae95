package internal

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/rtfm/internal/logger"
	"github.com/starford/rtfm/internal/models"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Site    models.Site       `yaml:"site"`
	Links   models.Links      `yaml:"links"`
	Content ContentConfig     `yaml:"content"`
	Webhook WebhookConfig     `yaml:"webhook"`
	Journal JournalConfig     `yaml:"journal"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Content.Validate(); err != nil {
		return fmt.Errorf("content: %w", err)
	}
	return c.validateLinks()
}

func (c *Config) validateLinks() error {
	err := validation.ValidateStruct(&c.Links,
		validation.Field(&c.Links.GitHub, is.URL),
		validation.Field(&c.Links.Custom, validation.Each(validation.By(validateCustomLink))),
	)
	if err != nil {
		return fmt.Errorf("links: %w", err)
	}
	return nil
}

func validateCustomLink(value any) error {
	l, ok := value.(models.CustomLink)
	if !ok {
		return fmt.Errorf("unexpected link type %T", value)
	}
	return validation.ValidateStruct(&l,
		validation.Field(&l.URL, validation.Required),
		validation.Field(&l.Title, validation.Required),
	)
}

// ApplyEnv overrides file values with the deployment environment variables
// recognised by the server. lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"SITE_TITLE", &c.Site.Title},
		{"SITE_TAGLINE", &c.Site.Tagline},
		{"SITE_LOGO", &c.Site.Logo},
		{"GITHUB_LINK", &c.Links.GitHub},
		{"DOCS_REPO", &c.Content.Repo},
		{"DOCS_BRANCH", &c.Content.Branch},
		{"GITHUB_PAT", &c.Content.Token},
		{"WEBHOOK_SECRET", &c.Webhook.Secret},
	}
	for _, s := range strs {
		if v, ok := lookup(s.key); ok && v != "" {
			*s.dst = v
		}
	}

	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.App.HTTP.Port = port
	}
	return nil
}

// SiteConfig returns the public subset served at /api/config.
func (c *Config) SiteConfig() models.SiteConfig {
	return models.SiteConfig{Site: c.Site, Links: c.Links}
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
	HTTP      HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(logger.FormatJSON, logger.FormatText)),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// ContentConfig describes the documentation directory and the repository
// it is cloned from. An empty Repo serves the directory as is.
type ContentConfig struct {
	Path         string        `yaml:"path"`
	Repo         string        `yaml:"repo"`
	Branch       string        `yaml:"branch"`
	Token        string        `yaml:"token"`
	PullInterval time.Duration `yaml:"pull_interval"`
	GitTimeout   time.Duration `yaml:"git_timeout"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Branch, validation.Required),
		validation.Field(&c.PullInterval, validation.Min(time.Duration(0))),
		validation.Field(&c.GitTimeout, validation.Min(time.Duration(0))),
	)
}

// WebhookConfig holds the shared secret for signed push webhooks. An empty
// secret accepts unsigned requests.
type WebhookConfig struct {
	Secret string `yaml:"secret"`
}

// JournalConfig locates the SQLite sync journal. An empty path disables it.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: logger.FormatJSON,
			HTTP: HTTPConfig{
				Port: 3000,
			},
		},
		Site: models.Site{
			Title:   "RTFM",
			Tagline: "Read The F***ing Manual",
			Logo:    "📚",
		},
		Content: ContentConfig{
			Path:       "./docs",
			Branch:     "main",
			GitTimeout: 60 * time.Second,
		},
		Journal: JournalConfig{
			Path: "./rtfm.db",
		},
	}
}
