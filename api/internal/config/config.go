package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const DefaultEnvFile = ".env"

type Config struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	VisionEngine    string `mapstructure:"vision_engine"`
	CredentialsFile string `mapstructure:"google_application_credentials"`
	GeminiAPIKey    string `mapstructure:"gemini_api_key"`
	GeminiModel     string `mapstructure:"gemini_model"`

	DiagramMaxLabels int           `mapstructure:"diagram_max_labels"`
	MaxUploadMB      int           `mapstructure:"max_upload_mb"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout  time.Duration `mapstructure:"shutdown_timeout"`
	AllowOrigins     string        `mapstructure:"cors_allow_origins"`
	LogLevel         string        `mapstructure:"log_level"`

	TelegramBotToken string `mapstructure:"telegram_bot_token"`
}

var defaults = map[string]any{
	"host":                           "0.0.0.0",
	"port":                           3000,
	"vision_engine":                  "gcv",
	"google_application_credentials": "",
	"gemini_api_key":                 "",
	"gemini_model":                   "gemini-2.5-flash",
	"diagram_max_labels":             5,
	"max_upload_mb":                  10,
	"request_timeout":                "30s",
	"shutdown_timeout":               "10s",
	"cors_allow_origins":             "*",
	"log_level":                      "info",
	"telegram_bot_token":             "",
}

// Load reads settings from the environment, falling back to an optional
// dotenv file. Real environment variables win over the file.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if _, err := os.Stat(envFile); err == nil {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading env file %s: %w", envFile, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat env file %s: %w", envFile, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Host = strings.TrimSpace(c.Host)
	c.VisionEngine = strings.ToLower(strings.TrimSpace(c.VisionEngine))
	c.CredentialsFile = strings.TrimSpace(c.CredentialsFile)
	c.GeminiAPIKey = strings.TrimSpace(c.GeminiAPIKey)
	c.GeminiModel = strings.TrimSpace(c.GeminiModel)
	c.TelegramBotToken = strings.TrimSpace(c.TelegramBotToken)
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	switch c.VisionEngine {
	case "gcv", "vision":
	case "gemini":
		if c.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required when VISION_ENGINE=gemini")
		}
	default:
		return fmt.Errorf("unknown VISION_ENGINE %q; use gcv or gemini", c.VisionEngine)
	}
	if c.DiagramMaxLabels < 1 {
		return fmt.Errorf("DIAGRAM_MAX_LABELS must be positive, got %d", c.DiagramMaxLabels)
	}
	if c.MaxUploadMB < 1 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout)
	}
	return nil
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// BodyLimit is the echo body-limit expression for MaxUploadMB.
func (c *Config) BodyLimit() string {
	return strconv.Itoa(c.MaxUploadMB) + "M"
}

func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
