package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/AdamBeresnev/cupmaker/internal/bracket"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DatabasePath    string
	ServerPort      int
	SessionLifetime time.Duration
	FrontendURL     string
	// Empty means live updates stay inside this process
	NATSURL string
	Rules   bracket.Rules
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

// Load reads an optional .env file, then the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg := &Config{
		DatabasePath: getenv("DATABASE_PATH", "cupmaker.db"),
		FrontendURL:  os.Getenv("FRONTEND_URL"),
		NATSURL:      os.Getenv("NATS_URL"),
		Rules:        bracket.DefaultRules(),
	}

	port, err := strconv.Atoi(getenv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}
	cfg.ServerPort = port

	lifetime, err := time.ParseDuration(getenv("SESSION_LIFETIME", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_LIFETIME environment variable: %w", err)
	}
	if lifetime <= 0 {
		return nil, fmt.Errorf("SESSION_LIFETIME must be positive, got %s", lifetime)
	}
	cfg.SessionLifetime = lifetime

	if path := os.Getenv("RULES_FILE"); path != "" {
		rules, err := LoadRules(path)
		if err != nil {
			return nil, err
		}
		cfg.Rules = rules
	}

	return cfg, nil
}

// LoadRules reads group stage rules from YAML. Keys left out keep their defaults.
func LoadRules(path string) (bracket.Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return bracket.Rules{}, fmt.Errorf("read rules file: %w", err)
	}

	rules := bracket.DefaultRules()
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return bracket.Rules{}, fmt.Errorf("parse rules file %s: %w", path, err)
	}

	if rules.MinPlayers < 2 {
		return bracket.Rules{}, fmt.Errorf("min_players must be at least 2, got %d", rules.MinPlayers)
	}
	if rules.GroupSize < 2 {
		return bracket.Rules{}, fmt.Errorf("group_size must be at least 2, got %d", rules.GroupSize)
	}
	return rules, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
