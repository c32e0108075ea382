package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. It is built once at
// process entry and passed into components; the core pipeline carries no
// ambient configuration state.
type Config struct {
	Source  SourceConfig  `yaml:"source" mapstructure:"source"`
	SMTP    SMTPConfig    `yaml:"smtp" mapstructure:"smtp"`
	Notify  NotifyConfig  `yaml:"notify" mapstructure:"notify"`
	Columns ColumnsConfig `yaml:"columns" mapstructure:"columns"`
	Ledger  LedgerConfig  `yaml:"ledger" mapstructure:"ledger"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// SourceConfig identifies where the agreements workbook lives and where the
// downloaded copy is cached. DriveFileID takes precedence over URL; URL may
// use http(s) or ftp schemes.
type SourceConfig struct {
	DriveFileID string `yaml:"drive_file_id" mapstructure:"drive_file_id"`
	URL         string `yaml:"url" mapstructure:"url"`
	CachePath   string `yaml:"cache_path" mapstructure:"cache_path"`
	Sheet       string `yaml:"sheet" mapstructure:"sheet"`
}

// SMTPConfig holds the outgoing mail transport settings.
type SMTPConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Sender   string `yaml:"sender" mapstructure:"sender"`
	Password string `yaml:"password" mapstructure:"password"`
}

// NotifyConfig controls reminder policy.
type NotifyConfig struct {
	// DefaultRecipients receive reminders for rows with no usable email
	// value. Empty falls back to the sender address.
	DefaultRecipients []string `yaml:"default_recipients" mapstructure:"default_recipients"`
	// Confirmation sends a one-time run summary to the default recipients.
	Confirmation bool `yaml:"confirmation" mapstructure:"confirmation"`
	// NotifyExpired sends a single notification for already-expired
	// agreements instead of staying silent.
	NotifyExpired bool `yaml:"notify_expired" mapstructure:"notify_expired"`
	// DueWindows lists the due-today send windows. One entry means one
	// send per day; ["due_morning","due_evening"] dedups per half-day.
	DueWindows []string `yaml:"due_windows" mapstructure:"due_windows"`
	// EveningHour is the local hour at which the evening window begins.
	EveningHour int `yaml:"evening_hour" mapstructure:"evening_hour"`
}

// ColumnsConfig tunes schema discovery for workbooks whose header
// vocabulary drifts between releases.
type ColumnsConfig struct {
	// Keywords maps a role name to extra keywords appended to the
	// built-in list, e.g. expiry: ["renewal"].
	Keywords      map[string][]string `yaml:"keywords" mapstructure:"keywords"`
	KeywordsFile  string              `yaml:"keywords_file" mapstructure:"keywords_file"`
	DayFirst      bool                `yaml:"day_first" mapstructure:"day_first"`
	MaxHeaderScan int                 `yaml:"max_header_scan" mapstructure:"max_header_scan"`
}

// LedgerConfig configures the dedup ledger backend.
type LedgerConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RENEWAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("source.cache_path", "Renewal.xlsx")
	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("notify.confirmation", false)
	v.SetDefault("notify.notify_expired", false)
	v.SetDefault("notify.due_windows", []string{"due"})
	v.SetDefault("notify.evening_hour", 15)
	v.SetDefault("columns.day_first", true)
	v.SetDefault("columns.max_header_scan", 50)
	v.SetDefault("ledger.driver", "sqlite")
	v.SetDefault("ledger.path", "renewal.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Recipients returns the default recipient list, falling back to the
// sender address when none is configured.
func (c *Config) Recipients() []string {
	var out []string
	for _, r := range c.Notify.DefaultRecipients {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	if len(out) == 0 && c.SMTP.Sender != "" {
		out = append(out, c.SMTP.Sender)
	}
	return out
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
