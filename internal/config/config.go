package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config carries everything the gateway needs from the environment.
type Config struct {
	DatabaseURL    string
	APIKey         string
	Role           string
	ContractDir    string
	MaxOpenConns   int
	MaxIdleConns   int
	CommandTimeout time.Duration
}

// Load reads configuration from environment variables with local-development
// defaults. GEMINI_API_KEY wins over GOOGLE_API_KEY.
func Load() Config {
	return Config{
		DatabaseURL:    envOr("DB_CONN_STRING", "postgres://localhost:5432/postgres?sslmode=disable"),
		APIKey:         apiKey(),
		Role:           envOr("AGENT_GW_ROLE", "agent"),
		ContractDir:    os.Getenv("AGENT_GW_CONTRACT_DIR"),
		MaxOpenConns:   envIntOr("AGENT_GW_MAX_OPEN_CONNS", 10),
		MaxIdleConns:   envIntOr("AGENT_GW_MAX_IDLE_CONNS", 5),
		CommandTimeout: time.Duration(envIntOr("AGENT_GW_COMMAND_TIMEOUT_SECONDS", 30)) * time.Second,
	}
}

// apiKey looks for GEMINI_API_KEY first, then falls back to GOOGLE_API_KEY.
func apiKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		log.Println("using GOOGLE_API_KEY for the Gemini API (consider setting GEMINI_API_KEY)")
		return key
	}
	return ""
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envIntOr(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("ignoring invalid %s=%q, using %d", name, v, fallback)
		return fallback
	}
	return n
}
