package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Timetable TimetableConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// TimetableConfig holds engine defaults and hosting toggles for the timetable API.
type TimetableConfig struct {
	// PersistenceEnabled loads sessions, rooms and slots from Postgres when a
	// request names a scope instead of sending them inline.
	PersistenceEnabled bool
	// ProposalCacheEnabled keeps schedule proposals in Redis instead of memory.
	ProposalCacheEnabled bool
	ProposalTTL          time.Duration
	ResolverMaxIter      int
	DefaultStrategy      string
	MaxWorkItems         int
	Constraints          ConstraintDefaults
}

// ConstraintDefaults seeds the per-run constraint configuration.
type ConstraintDefaults struct {
	MaxPhysicalPerDay     int
	MaxOnlinePerDay       int
	MinHoursPerDay        float64
	MaxHoursPerDay        float64
	RequireMixedMode      bool
	AvoidConsecutiveSlots bool
	MinimumRestMinutes    int
	AllowBackToBack       bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Timetable = TimetableConfig{
		PersistenceEnabled:   v.GetBool("ENABLE_TIMETABLE_PERSISTENCE"),
		ProposalCacheEnabled: v.GetBool("ENABLE_PROPOSAL_CACHE"),
		ProposalTTL:          parseDuration(v.GetString("TIMETABLE_PROPOSAL_TTL"), 30*time.Minute),
		ResolverMaxIter:      v.GetInt("TIMETABLE_RESOLVER_MAX_ITERATIONS"),
		DefaultStrategy:      v.GetString("TIMETABLE_DEFAULT_STRATEGY"),
		MaxWorkItems:         v.GetInt("TIMETABLE_MAX_WORK_ITEMS"),
		Constraints: ConstraintDefaults{
			MaxPhysicalPerDay:     v.GetInt("TIMETABLE_MAX_PHYSICAL_PER_DAY"),
			MaxOnlinePerDay:       v.GetInt("TIMETABLE_MAX_ONLINE_PER_DAY"),
			MinHoursPerDay:        v.GetFloat64("TIMETABLE_MIN_HOURS_PER_DAY"),
			MaxHoursPerDay:        v.GetFloat64("TIMETABLE_MAX_HOURS_PER_DAY"),
			RequireMixedMode:      v.GetBool("TIMETABLE_REQUIRE_MIXED_MODE"),
			AvoidConsecutiveSlots: v.GetBool("TIMETABLE_AVOID_CONSECUTIVE"),
			MinimumRestMinutes:    v.GetInt("TIMETABLE_MIN_REST_MINUTES"),
			AllowBackToBack:       v.GetBool("TIMETABLE_ALLOW_BACK_TO_BACK"),
		},
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_TIMETABLE_PERSISTENCE", false)
	v.SetDefault("ENABLE_PROPOSAL_CACHE", false)
	v.SetDefault("TIMETABLE_PROPOSAL_TTL", "30m")
	v.SetDefault("TIMETABLE_RESOLVER_MAX_ITERATIONS", 50)
	v.SetDefault("TIMETABLE_DEFAULT_STRATEGY", "balanced")
	v.SetDefault("TIMETABLE_MAX_WORK_ITEMS", 500)

	v.SetDefault("TIMETABLE_MAX_PHYSICAL_PER_DAY", 2)
	v.SetDefault("TIMETABLE_MAX_ONLINE_PER_DAY", 2)
	v.SetDefault("TIMETABLE_MIN_HOURS_PER_DAY", 0)
	v.SetDefault("TIMETABLE_MAX_HOURS_PER_DAY", 8)
	v.SetDefault("TIMETABLE_REQUIRE_MIXED_MODE", false)
	v.SetDefault("TIMETABLE_AVOID_CONSECUTIVE", false)
	v.SetDefault("TIMETABLE_MIN_REST_MINUTES", 15)
	v.SetDefault("TIMETABLE_ALLOW_BACK_TO_BACK", false)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
