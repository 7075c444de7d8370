// Package config reads the process configuration from the environment.
// The binaries load a .env file first via godotenv's autoload import.
package config

import (
	"os"
	"strconv"
)

type Config struct {
	Addr        string
	RedisAddr   string
	RedisDB     int
	DatabaseURL string

	HistoryQueue string

	MaxPlayers           int
	HandSize             int
	RoundDurationSeconds int
	DiscardPileCap       int
}

// Load reads every setting, falling back to defaults.
func Load() Config {
	return Config{
		Addr:                 getEnv("ADDR", ":8080"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		HistoryQueue:         getEnv("HISTORY_QUEUE_NAME", ""),
		MaxPlayers:           getEnvInt("MAX_PLAYERS", 6),
		HandSize:             getEnvInt("HAND_SIZE", 7),
		RoundDurationSeconds: getEnvInt("ROUND_DURATION_SEC", 30),
		DiscardPileCap:       getEnvInt("DISCARD_PILE_CAP", 10),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
