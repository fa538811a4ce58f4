package config

import (
	"errors"
	"fmt"
	"strings"

	"twoblog/constants"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port               string   `mapstructure:"port"`
	DatabasePath       string   `mapstructure:"database_path"`
	PublicURL          string   `mapstructure:"public_url"`
	SiteName           string   `mapstructure:"site_name"`
	Admins             []string `mapstructure:"admins"`
	RecentCount        int      `mapstructure:"recent_count"`
	FeedLimit          int      `mapstructure:"feed_limit"`
	TeaserLength       int      `mapstructure:"teaser_length"`
	AboutFile          string   `mapstructure:"about_file"`
	Debug              bool     `mapstructure:"debug"`
	RateLimitPerMinute int      `mapstructure:"rate_limit_per_minute"`
	CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// Loader keeps the viper instance around so the config file can be watched
// after the initial load.
type Loader struct {
	v *viper.Viper
}

func NewLoader(configFile string) *Loader {
	v := viper.New()

	v.SetDefault("port", constants.DEFAULT_PORT)
	v.SetDefault("database_path", constants.DEFAULT_DATABASE_PATH)
	v.SetDefault("public_url", constants.PUBLIC_URL)
	v.SetDefault("site_name", constants.APP_NAME)
	v.SetDefault("admins", []string{})
	v.SetDefault("recent_count", constants.DEFAULT_RECENT_COUNT)
	v.SetDefault("feed_limit", constants.DEFAULT_FEED_LIMIT)
	v.SetDefault("teaser_length", constants.TEASER_LENGTH)
	v.SetDefault("about_file", "")
	v.SetDefault("debug", false)
	v.SetDefault("rate_limit_per_minute", constants.DEFAULT_RATE_LIMIT)
	v.SetDefault("cors_allowed_origins", []string{"*"})

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(constants.CONFIG_NAME)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(constants.ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// Load reads .env (if any), the config file (if any) and the environment,
// in increasing order of precedence.
func (l *Loader) Load() (Config, error) {
	_ = godotenv.Load()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	return l.decode()
}

func (l *Loader) decode() (Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	// env vars arrive as a single comma separated string
	cfg.Admins = splitList(l.v.GetStringSlice("admins"))
	cfg.CorsAllowedOrigins = splitList(l.v.GetStringSlice("cors_allowed_origins"))
	if len(cfg.CorsAllowedOrigins) == 0 {
		cfg.CorsAllowedOrigins = []string{"*"}
	}

	if cfg.RecentCount < 0 {
		return Config{}, fmt.Errorf("recent_count must not be negative, got %d", cfg.RecentCount)
	}
	if cfg.FeedLimit <= 0 {
		return Config{}, fmt.Errorf("feed_limit must be positive, got %d", cfg.FeedLimit)
	}
	if cfg.TeaserLength <= 0 {
		cfg.TeaserLength = constants.TEASER_LENGTH
	}

	return cfg, nil
}

// OnAdminsChange calls fn with the new admin list whenever the config file
// changes on disk. It is a no-op when no config file was found.
func (l *Loader) OnAdminsChange(fn func([]string)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}

	l.v.OnConfigChange(func(fsnotify.Event) {
		fn(splitList(l.v.GetStringSlice("admins")))
	})
	l.v.WatchConfig()
}

func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
