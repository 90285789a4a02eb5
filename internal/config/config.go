// Package config gathers daemon settings from flags, a .env file and the
// environment.
package config

import (
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"
)

const (
	BackendOpenAI = "openai"
	BackendGemini = "gemini"
	BackendNone   = "none"
)

type Config struct {
	EnvFile  string
	LogLevel string `validate:"oneof=debug info warn error"`
	LogFile  string

	Proxy    string `validate:"omitempty,hostname_port"`
	DB       string `validate:"required"`
	Patterns string
	Catalog  string

	Socket string `validate:"required"`
	HTTP   string `validate:"omitempty,hostname_port"`
	Bus    string `validate:"omitempty,url"`
	Hub    string `validate:"omitempty,url"`

	Backend         string        `validate:"oneof=openai gemini none"`
	History         int           `validate:"min=1"`
	FallbackTimeout time.Duration `validate:"gt=0"`
	DispatchTimeout time.Duration `validate:"gt=0"`
	FallbackRate    int           `validate:"min=0"`

	OpenAIKey     string `validate:"required_if=Backend openai"`
	OpenAIModel   string
	OpenAIBaseURL string `validate:"omitempty,url"`
	GeminiKey     string `validate:"required_if=Backend gemini"`
	GeminiModel   string

	CalendarCredentials string
	CalendarToken       string

	CameraCommand string `validate:"required"`
	CameraDir     string
	CameraWidth   int `validate:"min=1"`
	CameraHeight  int `validate:"min=1"`
}

// GoogleCalendar reports whether both OAuth files are configured.
func (c *Config) GoogleCalendar() bool {
	return c.CalendarCredentials != "" && c.CalendarToken != ""
}

// Flags registers every flag on fs and returns the config they fill.
func Flags(fs *cli.FlagSet) *Config {
	cfg := &Config{}
	fs.StringVarP(&cfg.EnvFile, "env", "e", ".env", "Env file path")
	fs.StringVarP(&cfg.LogLevel, "log", "l", "info", "Log level")
	fs.StringVar(&cfg.LogFile, "log-file", "", "Rotated log file, empty for stdout only")
	fs.StringVarP(&cfg.Proxy, "proxy", "p", "", "Socks Proxy Address, empty for direct")
	fs.StringVar(&cfg.DB, "db", "./data/voxrouter.db", "SQLite database path")
	fs.StringVar(&cfg.Patterns, "patterns", "", "YAML file with custom intent patterns")
	fs.StringVar(&cfg.Catalog, "catalog", "", "YAML product catalog, empty for the built-in one")
	fs.StringVar(&cfg.Socket, "socket", "/tmp/vox.sock", "Control socket path")
	fs.StringVar(&cfg.HTTP, "http", "", "HTTP listen address, empty to disable")
	fs.StringVar(&cfg.Bus, "bus", "", "Bus websocket url, empty to disable")
	fs.StringVar(&cfg.Hub, "hub", "", "Url of hub, empty disables home automation")
	fs.StringVar(&cfg.Backend, "backend", BackendOpenAI, "Fallback classifier backend: openai|gemini|none")
	fs.IntVar(&cfg.History, "history", 100, "Command history size")
	fs.DurationVar(&cfg.FallbackTimeout, "fallback-timeout", 10*time.Second, "Timeout of one fallback call")
	fs.DurationVar(&cfg.DispatchTimeout, "dispatch-timeout", 30*time.Second, "Timeout of one tool call")
	fs.IntVar(&cfg.FallbackRate, "fallback-rate", 30, "Fallback calls per minute, 0 for unlimited")
	return cfg
}

// Load parses args, reads the env file and the environment, and validates
// the result.
func Load(name string, args []string) (*Config, error) {
	fs := cli.NewFlagSet(name, cli.ContinueOnError)
	cfg := Flags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := godotenv.Load(cfg.EnvFile); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", cfg.EnvFile, err)
		}
		log.Debug("No env file", "path", cfg.EnvFile)
	}

	if err := cfg.fromEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) fromEnv() error {
	c.Backend = strings.ToLower(c.Backend)
	c.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	c.OpenAIModel = envOr("OPENAI_MODEL", "gpt-5-nano")
	c.OpenAIBaseURL = os.Getenv("OPENAI_BASE_URL")
	c.GeminiKey = os.Getenv("GEMINI_API_KEY")
	c.GeminiModel = envOr("GEMINI_MODEL_NAME", "gemini-1.5-flash")
	c.CalendarCredentials = os.Getenv("GOOGLE_CALENDAR_CREDENTIALS")
	c.CalendarToken = os.Getenv("GOOGLE_CALENDAR_TOKEN")
	c.CameraCommand = envOr("CAMERA_COMMAND", "rpicam-still")
	c.CameraDir = envOr("CAMERA_DIR", os.TempDir())

	var err error
	if c.CameraWidth, err = envInt("CAMERA_WIDTH", 640); err != nil {
		return err
	}
	if c.CameraHeight, err = envInt("CAMERA_HEIGHT", 480); err != nil {
		return err
	}
	return nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describe(fe))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Field() {
	case "OpenAIKey":
		return "OPENAI_API_KEY not set"
	case "GeminiKey":
		return "GEMINI_API_KEY not set"
	}
	if fe.Param() != "" {
		return fmt.Sprintf("%s fails %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Sprintf("%s fails %s (got %v)", fe.Field(), fe.Tag(), fe.Value())
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
