package app

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lrnlab/apptrack-backend/internal/platform/envutil"
	"github.com/lrnlab/apptrack-backend/internal/platform/logger"
	"github.com/lrnlab/apptrack-backend/internal/services"
)

type Config struct {
	Addr        string
	SecretKey   string
	Environment string
	Version     string
	CORSOrigins []string
	Features    services.Features
	Tracing     bool
}

// fileConfig is the optional YAML overrides file (APP_CONFIG_FILE). Values
// present in the file win over the environment.
type fileConfig struct {
	Addr        string   `yaml:"addr"`
	SecretKey   string   `yaml:"secret_key"`
	CORSOrigins []string `yaml:"cors_origins"`
	Features    struct {
		Chatbot *bool `yaml:"chatbot"`
	} `yaml:"features"`
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Addr:        envutil.String("HTTP_ADDR", ":8000"),
		SecretKey:   envutil.String("SECRET_KEY", "defaultsecret"),
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", "dev"),
		Features: services.Features{
			Chatbot: envutil.Bool("FEATURE_CHATBOT", false),
		},
		Tracing: envutil.Bool("OTEL_ENABLED", false),
	}
	if origins := envutil.String("CORS_ORIGINS", ""); origins != "" {
		cfg.CORSOrigins = splitCommaList(origins)
	}

	path := envutil.String("APP_CONFIG_FILE", "")
	if path == "" {
		return cfg
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Warn("config file unreadable, using environment only", "path", path, "error", err)
		return cfg
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		log.Warn("config file invalid, using environment only", "path", path, "error", err)
		return cfg
	}
	if fc.Addr != "" {
		cfg.Addr = fc.Addr
	}
	if fc.SecretKey != "" {
		cfg.SecretKey = fc.SecretKey
	}
	if len(fc.CORSOrigins) > 0 {
		cfg.CORSOrigins = fc.CORSOrigins
	}
	if fc.Features.Chatbot != nil {
		cfg.Features.Chatbot = *fc.Features.Chatbot
	}
	log.Info("config file applied", "path", path)
	return cfg
}

func splitCommaList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
