// Package config resolves corner's settings.
//
// Precedence, lowest first: defaults, .env in the working directory,
// process environment, command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/collectorscorner/corner/internal/logging"
)

const (
	defaultAPIURL       = "https://localhost:7206"
	defaultImageURL     = "https://localhost:7210"
	defaultStatePath    = "~/.corner/state.db"
	defaultLogFile      = "~/.corner/corner.log"
	defaultLogLevel     = logging.LevelInfo
	defaultLogFormat    = logging.FormatText
	defaultSuccessDelay = time.Second
	defaultTimeout      = 30 * time.Second
)

type Config struct {
	// Base URL of the REST API
	APIURL string

	// Base URL of the image service; images are fetched from <ImageURL>/api/image/get/<ref>
	ImageURL string

	// SQLite file holding the session
	StatePath string

	// Keep the session in memory only; nothing is written to StatePath
	Ephemeral bool

	LogLevel string
	LogFile  string

	// text or json
	LogFormat string

	// How long a success message stays before the view refreshes
	SuccessDelay time.Duration

	// HTTP client timeout
	Timeout time.Duration
}

func NewConfig() *Config {
	return &Config{
		APIURL:       defaultAPIURL,
		ImageURL:     defaultImageURL,
		StatePath:    defaultStatePath,
		LogLevel:     defaultLogLevel,
		LogFile:      defaultLogFile,
		LogFormat:    defaultLogFormat,
		SuccessDelay: defaultSuccessDelay,
		Timeout:      defaultTimeout,
	}
}

// Load variables from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	var errs []error

	// Set option to value if it not empty
	setString := func(o *string) func(string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}
	setDuration := func(key string, o *time.Duration) func(string) {
		return func(value string) {
			if value == "" {
				return
			}
			d, err := time.ParseDuration(value)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*o = d
		}
	}
	setBool := func(key string, o *bool) func(string) {
		return func(value string) {
			if value == "" {
				return
			}
			b, err := strconv.ParseBool(value)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*o = b
		}
	}

	envMap := map[string]func(string){
		"CORNER_API_URL":       setString(&c.APIURL),
		"CORNER_IMAGE_URL":     setString(&c.ImageURL),
		"CORNER_STATE_PATH":    setString(&c.StatePath),
		"CORNER_EPHEMERAL":     setBool("CORNER_EPHEMERAL", &c.Ephemeral),
		"CORNER_LOG_LEVEL":     setString(&c.LogLevel),
		"CORNER_LOG_FILE":      setString(&c.LogFile),
		"CORNER_LOG_FORMAT":    setString(&c.LogFormat),
		"CORNER_SUCCESS_DELAY": setDuration("CORNER_SUCCESS_DELAY", &c.SuccessDelay),
		"CORNER_TIMEOUT":       setDuration("CORNER_TIMEOUT", &c.Timeout),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}

	return errors.Join(errs...)
}

// ParseFlags applies command-line flags and returns the positional
// arguments (the subcommand and its operands).
func (c *Config) ParseFlags(args []string) ([]string, error) {
	fs := pflag.NewFlagSet("corner", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	fs.StringVarP(&c.APIURL, "api-url", "a", c.APIURL, "API base URL")
	fs.StringVarP(&c.ImageURL, "image-url", "i", c.ImageURL, "Image service base URL")
	fs.StringVarP(&c.StatePath, "state", "s", c.StatePath, "Session database file")
	fs.BoolVar(&c.Ephemeral, "ephemeral", c.Ephemeral, "Keep the session in memory only")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "Log file")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log format (text, json)")
	fs.DurationVar(&c.SuccessDelay, "success-delay", c.SuccessDelay, "Delay between a success message and the refresh")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "HTTP timeout")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return fs.Args(), nil
}

// ExpandHome replaces a leading "~" in the file paths with the user's home.
func (c *Config) ExpandHome(home func() (string, error)) error {
	for _, p := range []*string{&c.StatePath, &c.LogFile} {
		if *p != "~" && !strings.HasPrefix(*p, "~/") {
			continue
		}
		dir, err := home()
		if err != nil {
			return fmt.Errorf("config: resolve home: %w", err)
		}
		*p = filepath.Join(dir, strings.TrimPrefix(*p, "~"))
	}
	return nil
}

// Load resolves the configuration for the running process.
func Load(args []string) (*Config, []string, error) {
	c := NewConfig()
	if err := c.LoadDotEnv(os.Getwd); err != nil {
		return nil, nil, fmt.Errorf("config: .env: %w", err)
	}
	if err := c.LoadEnv(os.Getenv); err != nil {
		return nil, nil, fmt.Errorf("config: env: %w", err)
	}
	rest, err := c.ParseFlags(args)
	if err != nil {
		return nil, nil, err
	}
	if err := c.ExpandHome(os.UserHomeDir); err != nil {
		return nil, nil, err
	}
	return c, rest, nil
}
