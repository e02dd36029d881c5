// Package config reads process configuration from the environment, after
// loading a .env file when one is present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string
	LogLevel string

	// Records API storage. An empty MongoURI runs the dashboard only.
	MongoURI  string
	MongoDB   string
	RedisAddr string
	RedisDB   int
	JWTSecret string

	RecordsAPIURL  string
	DownloadDir    string
	DisplayZone    *time.Location
	SurfaceWidth   int
	SurfaceHeight  int
	ExportSettle   time.Duration
	TileUserAgent  string
	AllowedOrigins []string
}

// ServeRecords reports whether this process hosts the records API.
func (c Config) ServeRecords() bool {
	return c.MongoURI != ""
}

const (
	defaultZone      = "Asia/Manila"
	defaultUserAgent = "dost-atlas/1.0"
	defaultOrigins   = "http://localhost:3000,http://localhost:5173"
)

// Load reads .env (if any) and then the environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv. Every invalid value is reported.
func FromEnv(getenv func(string) string) (Config, error) {
	env := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	var errs []error
	intVar := func(key string, fallback, least int) int {
		raw := env(key, "")
		if raw == "" {
			return fallback
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < least {
			errs = append(errs, fmt.Errorf("invalid %s value %q", key, raw))
			return fallback
		}
		return v
	}

	cfg := Config{
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		LogLevel:       env("LOG_LEVEL", "info"),
		MongoURI:       env("MONGODB_URI", ""),
		MongoDB:        env("MONGODB_DB", "dost_atlas"),
		RedisAddr:      env("REDIS_ADDR", ""),
		RedisDB:        intVar("REDIS_DB", 0, 0),
		JWTSecret:      env("JWT_SECRET", ""),
		RecordsAPIURL:  strings.TrimRight(env("RECORDS_API_URL", "http://localhost:8080/api"), "/"),
		DownloadDir:    env("DOWNLOAD_DIR", ""),
		SurfaceWidth:   intVar("SURFACE_WIDTH", 1280, 1),
		SurfaceHeight:  intVar("SURFACE_HEIGHT", 800, 1),
		ExportSettle:   300 * time.Millisecond,
		TileUserAgent:  env("TILE_USER_AGENT", defaultUserAgent),
		AllowedOrigins: splitList(env("ALLOWED_ORIGINS", defaultOrigins)),
	}

	if raw := env("EXPORT_SETTLE", ""); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			errs = append(errs, fmt.Errorf("invalid EXPORT_SETTLE value %q", raw))
		} else {
			cfg.ExportSettle = d
		}
	}

	zone := env("DISPLAY_TIMEZONE", defaultZone)
	loc, err := time.LoadLocation(zone)
	switch {
	case err == nil:
		cfg.DisplayZone = loc
	case zone == defaultZone:
		// Hosts without tzdata still get Philippine time.
		cfg.DisplayZone = time.FixedZone("PHT", 8*60*60)
	default:
		errs = append(errs, fmt.Errorf("invalid DISPLAY_TIMEZONE value %q: %w", zone, err))
	}

	if cfg.ServeRecords() {
		if cfg.JWTSecret == "" {
			errs = append(errs, errors.New("JWT_SECRET environment variable is not set"))
		}
		if cfg.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR environment variable is not set"))
		}
	}

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
