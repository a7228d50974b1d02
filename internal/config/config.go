// Package config loads and validates runtime settings at startup.
// Fail-fast: if the API credentials are missing, the process exits.
//
// Values come from environment variables, optionally overridden by a YAML
// file (same keys, lower-case) for the longer lists such as keywords.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"jobmate/rome-service/internal/metier"
	"jobmate/rome-service/internal/rome"
)

// Config holds all runtime configuration for the ROME service.
type Config struct {
	Port        string
	DatabaseURL string // optional: snapshot archive + watch list
	RedisURL    string // optional: batch session cache

	ClientID     string
	ClientSecret string
	TokenURL     string
	APIBaseURL   string
	Scopes       []string
	Fields       string

	RefreshIntervalHours int // 0 disables the scheduler
	SessionTTL           time.Duration

	Separator          string
	JoinSeparator      string
	ContextField       string
	ConditionsCategory string
	ScheduleCategory   string
	Keywords           []string
}

// Load reads the environment (and cfgFile, if given) and returns a
// validated Config.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("rome_port", "8083")
	v.SetDefault("ft_token_url", rome.DefaultTokenURL)
	v.SetDefault("ft_api_base_url", rome.DefaultBaseURL)
	v.SetDefault("ft_scopes", strings.Join(rome.DefaultScopes, " "))
	v.SetDefault("refresh_interval_hours", 24)
	v.SetDefault("session_ttl", "24h")
	v.SetDefault("flatten_separator", "_")
	v.SetDefault("join_separator", metier.DefaultJoinSeparator)
	v.SetDefault("context_field", metier.DefaultContextField)
	v.SetDefault("conditions_category", metier.CategoryConditions)
	v.SetDefault("schedule_category", metier.CategorySchedule)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	clientID := v.GetString("ft_client_id")
	if clientID == "" {
		return nil, errors.New("FT_CLIENT_ID is required")
	}
	clientSecret := v.GetString("ft_client_secret")
	if clientSecret == "" {
		return nil, errors.New("FT_CLIENT_SECRET is required")
	}

	interval := v.GetInt("refresh_interval_hours")
	if interval < 0 {
		return nil, fmt.Errorf("REFRESH_INTERVAL_HOURS must be zero or positive, got %d", interval)
	}

	ttl, err := time.ParseDuration(v.GetString("session_ttl"))
	if err != nil {
		return nil, fmt.Errorf("SESSION_TTL: %w", err)
	}

	cfg := &Config{
		Port:        v.GetString("rome_port"),
		DatabaseURL: v.GetString("database_url"),
		RedisURL:    v.GetString("redis_url"),

		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     v.GetString("ft_token_url"),
		APIBaseURL:   v.GetString("ft_api_base_url"),
		Scopes:       strings.Fields(v.GetString("ft_scopes")),
		Fields:       v.GetString("ft_fields"),

		RefreshIntervalHours: interval,
		SessionTTL:           ttl,

		Separator:          v.GetString("flatten_separator"),
		JoinSeparator:      v.GetString("join_separator"),
		ContextField:       v.GetString("context_field"),
		ConditionsCategory: v.GetString("conditions_category"),
		ScheduleCategory:   v.GetString("schedule_category"),
		Keywords:           stringList(v.Get("keywords")),
	}
	return cfg, nil
}

// AssemblerOptions maps the config onto metier.Options.
func (c *Config) AssemblerOptions() metier.Options {
	return metier.Options{
		Separator:          c.Separator,
		ContextField:       c.ContextField,
		ConditionsCategory: c.ConditionsCategory,
		ScheduleCategory:   c.ScheduleCategory,
		JoinSeparator:      c.JoinSeparator,
		Keywords:           c.Keywords,
	}
}

// ROMEClientConfig maps the config onto rome.Config.
func (c *Config) ROMEClientConfig() rome.Config {
	return rome.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.TokenURL,
		BaseURL:      c.APIBaseURL,
		Scopes:       c.Scopes,
		Fields:       c.Fields,
	}
}

// stringList accepts a YAML list or a ";"-separated string (keywords contain
// spaces and commas, so neither can separate them). Nil means "not set".
func stringList(raw any) []string {
	var items []string
	switch x := raw.(type) {
	case nil:
		return nil
	case string:
		items = strings.Split(x, ";")
	case []string:
		items = x
	case []any:
		for _, it := range x {
			items = append(items, fmt.Sprint(it))
		}
	default:
		return nil
	}

	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
