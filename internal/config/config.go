package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type APIConfig struct {
	Addr        string
	DatabaseURL string
	SeedPrices  bool
}

type BotConfig struct {
	DiscordToken  string
	DatabaseURL   string
	CommandPrefix string
	InviteBaseURL string
}

type CLIConfig struct {
	APIBaseURL    string
	PlayerID      string
	InviteBaseURL string
}

// LoadAPIFromEnv reads the API server config. An empty TYCOON_DATABASE_URL
// selects the in-memory store (dev mode); every other key has a default.
func LoadAPIFromEnv() APIConfig {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("TYCOON_API_ADDR", ":8080")
	}
	return APIConfig{
		Addr:        addr,
		DatabaseURL: strings.TrimSpace(os.Getenv("TYCOON_DATABASE_URL")),
		SeedPrices:  envBoolDefault("TYCOON_SEED_PRICES", true),
	}
}

func LoadBotFromEnv() (BotConfig, error) {
	cfg := BotConfig{
		DiscordToken:  strings.TrimSpace(os.Getenv("TYCOON_DISCORD_TOKEN")),
		DatabaseURL:   strings.TrimSpace(os.Getenv("TYCOON_DATABASE_URL")),
		CommandPrefix: envDefault("TYCOON_COMMAND_PREFIX", "!"),
		InviteBaseURL: envDefault("TYCOON_INVITE_BASE_URL", "https://tycoon.example/join"),
	}
	if cfg.DiscordToken == "" {
		return cfg, fmt.Errorf("TYCOON_DISCORD_TOKEN is required")
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL:    strings.TrimRight(envDefault("TYCOON_API_BASE_URL", "http://localhost:8080"), "/"),
		PlayerID:      strings.TrimSpace(os.Getenv("TYCOON_PLAYER_ID")),
		InviteBaseURL: strings.TrimRight(envDefault("TYCOON_INVITE_BASE_URL", "https://tycoon.example/join"), "/"),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
