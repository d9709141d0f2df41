package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds everything the console client needs from the environment.
// Values are taken from variables with the prefix "CONSOLE_". Example:
// CONSOLE_API_BASE_URL=https://console.example.com/api .
type Config struct {
	// APIBaseURL is the primary API surface (auth, wallet, workspaces).
	APIBaseURL string `envconfig:"API_BASE_URL" default:"http://localhost:8080/api"`
	// BillingBaseURL is the secondary surface hosting the subscription and
	// signing-session endpoints.
	BillingBaseURL string `envconfig:"BILLING_BASE_URL" default:"http://localhost:8081/api"`
	// AuthMode selects between the two supported external identity
	// providers. Treated as an opaque flag and passed through.
	AuthMode string `envconfig:"AUTH_MODE" default:"authing"`
	// LoginURL is where session recovery sends the user to re-authenticate.
	LoginURL string `envconfig:"LOGIN_URL" default:"/auth/authing"`

	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
	SessionFile    string        `envconfig:"SESSION_FILE"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
}

// Load populates Config from environment variables (prefix CONSOLE_).
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process("CONSOLE", &c); err != nil {
		return nil, err
	}
	if c.SessionFile == "" {
		c.SessionFile = defaultSessionFile()
	}
	return &c, nil
}

// Init initializes logging and reports the effective configuration.
func (c *Config) Init() {
	InitLogger()
	SetLogLevel(parseLevel(c.LogLevel))

	log.Info().
		Str("api_base_url", c.APIBaseURL).
		Str("billing_base_url", c.BillingBaseURL).
		Str("auth_mode", c.AuthMode).
		Str("log_level", c.LogLevel).
		Msg("Console client configuration loaded")
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "console", "session.json")
}

func parseLevel(s string) zerolog.Level {
	switch s {
	case "debug", "DEBUG":
		return zerolog.DebugLevel
	case "warn", "WARN":
		return zerolog.WarnLevel
	case "error", "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
